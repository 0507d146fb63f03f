package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRequested       Status = "requested"
	StatusFailedPayment   Status = "failed_payment"
	StatusPaid            Status = "paid"
	StatusPreparedProduct Status = "prepared_product"
	StatusShipped         Status = "shipped"
	StatusDelivered       Status = "delivered"
	StatusCanceled        Status = "canceled"
)

var statusLabels = map[Status]string{
	StatusRequested:       "주문요청",
	StatusFailedPayment:   "결제실패",
	StatusPaid:            "결제완료",
	StatusPreparedProduct: "상품준비중",
	StatusShipped:         "배송중",
	StatusDelivered:       "배송완료",
	StatusCanceled:        "주문취소",
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// DefaultCancelReason is used for admin cancellations without a reason.
const DefaultCancelReason = "관리자가 주문결제를 취소했습니다."

// Order is an immutable snapshot of a cart at checkout. Only Status,
// CancelReason and UpdatedAt change after creation.
type Order struct {
	ID           int64     `json:"id"`
	UID          uuid.UUID `json:"uid"`
	UserID       int64     `json:"user_id"`
	TotalAmount  int64     `json:"total_amount"`
	Status       Status    `json:"status"`
	CancelReason *string   `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Lines        []*Line   `json:"lines,omitempty"`
}

type Line struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Line) Amount() int64 {
	return l.Price * int64(l.Quantity)
}

func (o *Order) CanPay() bool {
	return o.Status == StatusRequested
}

// Name is the display name shown to the payment gateway.
func (o *Order) Name() string {
	switch len(o.Lines) {
	case 0:
		return ""
	case 1:
		return o.Lines[0].Name
	default:
		return fmt.Sprintf("%s 외 %d건", o.Lines[0].Name, len(o.Lines)-1)
	}
}
