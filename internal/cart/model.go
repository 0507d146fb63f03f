package cart

import (
	"time"

	"mall-be/internal/product"
)

// Line is one product in a user's cart, joined with the product's current
// name, price and status.
type Line struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user_id"`
	ProductID     int64          `json:"product_id"`
	ProductName   string         `json:"product_name"`
	Price         int64          `json:"price"`
	ProductStatus product.Status `json:"product_status"`
	Quantity      int            `json:"quantity"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (l *Line) Amount() int64 {
	return l.Price * int64(l.Quantity)
}

type Cart struct {
	UserID      int64   `json:"user_id"`
	Lines       []*Line `json:"lines"`
	TotalAmount int64   `json:"total_amount"`
}

func NewCart(userID int64, lines []*Line) *Cart {
	c := &Cart{UserID: userID, Lines: lines}
	for _, l := range lines {
		c.TotalAmount += l.Amount()
	}
	return c
}
