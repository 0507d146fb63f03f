package payment

import (
	"strings"
	"time"

	"mall-be/internal/order"

	"github.com/google/uuid"
)

// Status is the gateway's payment status, stored as reported. Values outside
// the known set are kept verbatim.
type Status string

const (
	StatusReady     Status = "ready"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

var statusLabels = map[Status]string{
	StatusReady:     "미결제",
	StatusPaid:      "결제완료",
	StatusCancelled: "결제취소",
	StatusFailed:    "결제실패",
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Payment struct {
	ID            int64     `json:"id"`
	OrderID       int64     `json:"order_id"`
	UID           uuid.UUID `json:"uid"`
	Name          string    `json:"name"`
	DesiredAmount int64     `json:"desired_amount"`
	Status        Status    `json:"status"`
	IsPaidOK      bool      `json:"is_paid_ok"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MerchantUID is the id the gateway knows this payment attempt by.
func (p *Payment) MerchantUID() string {
	return strings.ReplaceAll(p.UID.String(), "-", "")
}

func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusPaid, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// ParseMerchantUID accepts the dashless form produced by MerchantUID.
func ParseMerchantUID(s string) (uuid.UUID, error) {
	if len(s) != 32 {
		return uuid.Nil, ErrPaymentNotFound
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrPaymentNotFound
	}
	return id, nil
}

// RemotePayment is what the gateway reports for a merchant uid.
type RemotePayment struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	Status      Status `json:"status"`
	Amount      int64  `json:"amount"`
}

// IsPaidOK is true only when the gateway confirms payment of exactly the
// amount we asked for.
func (r *RemotePayment) IsPaidOK(desired int64) bool {
	return r.Status == StatusPaid && r.Amount == desired
}

// Reconciliation is the outcome of applying a remote status.
type Reconciliation struct {
	Payment   *Payment     `json:"payment"`
	OrderID   int64        `json:"order_id"`
	OrderUID  uuid.UUID    `json:"order_uid"`
	OrderFrom order.Status `json:"order_from"`
	OrderTo   order.Status `json:"order_to"`
}

func (r *Reconciliation) OrderChanged() bool {
	return r.OrderFrom != r.OrderTo
}

// NextOrderStatus decides the order status after a payment update.
// Reconciliation never moves an order backwards: a confirmed payment can
// rescue a failed_payment order, a failed or mismatched one can only fail a
// requested order, and anything else leaves the order alone.
func NextOrderStatus(current order.Status, p *Payment) order.Status {
	switch {
	case p.IsPaidOK:
		if current == order.StatusRequested || current == order.StatusFailedPayment {
			return order.StatusPaid
		}
	case p.Status == StatusPaid, p.Status == StatusFailed, p.Status == StatusCancelled:
		if current == order.StatusRequested {
			return order.StatusFailedPayment
		}
	}
	return current
}
