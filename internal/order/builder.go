package order

import (
	"mall-be/internal/cart"

	"github.com/google/uuid"
)

// BuildFromCart snapshots cart lines into a new requested order. The total
// is computed once here and never recomputed from products.
func BuildFromCart(userID int64, lines []*cart.Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	o := &Order{
		UID:    uuid.New(),
		UserID: userID,
		Status: StatusRequested,
		Lines:  make([]*Line, 0, len(lines)),
	}

	for _, l := range lines {
		o.Lines = append(o.Lines, &Line{
			ProductID: l.ProductID,
			Name:      l.ProductName,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
		o.TotalAmount += l.Amount()
	}

	if o.TotalAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	return o, nil
}
