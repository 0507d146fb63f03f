package payment

import (
	"testing"

	"mall-be/internal/order"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_MerchantUID(t *testing.T) {
	uid := uuid.MustParse("4b1f0c2e-8a7d-4f6b-9c3e-1d2a3b4c5d6e")
	p := &Payment{UID: uid}

	assert.Equal(t, "4b1f0c2e8a7d4f6b9c3e1d2a3b4c5d6e", p.MerchantUID())

	parsed, err := ParseMerchantUID(p.MerchantUID())
	require.NoError(t, err)
	assert.Equal(t, uid, parsed)
}

func TestParseMerchantUID_Invalid(t *testing.T) {
	for _, s := range []string{
		"",
		"merchant_123456789",
		"4b1f0c2e-8a7d-4f6b-9c3e-1d2a3b4c5d6e",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz",
	} {
		_, err := ParseMerchantUID(s)
		assert.ErrorIs(t, err, ErrPaymentNotFound, s)
	}
}

func TestPayment_IsTerminal(t *testing.T) {
	assert.False(t, (&Payment{Status: StatusReady}).IsTerminal())
	assert.False(t, (&Payment{Status: "vbank_issued"}).IsTerminal())
	assert.True(t, (&Payment{Status: StatusPaid}).IsTerminal())
	assert.True(t, (&Payment{Status: StatusCancelled}).IsTerminal())
	assert.True(t, (&Payment{Status: StatusFailed}).IsTerminal())
}

func TestRemotePayment_IsPaidOK(t *testing.T) {
	assert.True(t, (&RemotePayment{Status: StatusPaid, Amount: 3500}).IsPaidOK(3500))
	assert.False(t, (&RemotePayment{Status: StatusPaid, Amount: 3499}).IsPaidOK(3500))
	assert.False(t, (&RemotePayment{Status: StatusReady, Amount: 3500}).IsPaidOK(3500))
	assert.False(t, (&RemotePayment{Status: StatusCancelled, Amount: 3500}).IsPaidOK(3500))
}

func TestNextOrderStatus(t *testing.T) {
	paidOK := &Payment{Status: StatusPaid, IsPaidOK: true}
	mismatch := &Payment{Status: StatusPaid, IsPaidOK: false}
	failed := &Payment{Status: StatusFailed}
	cancelled := &Payment{Status: StatusCancelled}
	ready := &Payment{Status: StatusReady}
	unknown := &Payment{Status: "vbank_issued"}

	tests := []struct {
		name    string
		current order.Status
		payment *Payment
		want    order.Status
	}{
		{"PaidFromRequested", order.StatusRequested, paidOK, order.StatusPaid},
		{"PaidRescuesFailedPayment", order.StatusFailedPayment, paidOK, order.StatusPaid},
		{"PaidKeepsShipped", order.StatusShipped, paidOK, order.StatusShipped},
		{"PaidKeepsCanceled", order.StatusCanceled, paidOK, order.StatusCanceled},
		{"MismatchFailsRequested", order.StatusRequested, mismatch, order.StatusFailedPayment},
		{"FailedFailsRequested", order.StatusRequested, failed, order.StatusFailedPayment},
		{"CancelledFailsRequested", order.StatusRequested, cancelled, order.StatusFailedPayment},
		{"FailedNeverRegressesPaid", order.StatusPaid, failed, order.StatusPaid},
		{"CancelledNeverRegressesPaid", order.StatusPaid, cancelled, order.StatusPaid},
		{"ReadyLeavesOrder", order.StatusRequested, ready, order.StatusRequested},
		{"UnknownLeavesOrder", order.StatusRequested, unknown, order.StatusRequested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextOrderStatus(tt.current, tt.payment))
		})
	}
}

func TestStatus_Label(t *testing.T) {
	assert.Equal(t, "결제완료", StatusPaid.Label())
	assert.Equal(t, "vbank_issued", Status("vbank_issued").Label())
}
