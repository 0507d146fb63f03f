package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mall-be/internal/cart"
	"mall-be/internal/config"
	"mall-be/internal/logger"
	"mall-be/internal/order"
	"mall-be/internal/payment"
	"mall-be/internal/product"
	"mall-be/internal/transport"
	"mall-be/internal/utils"

	"go.uber.org/zap"
)

// NotPayableMessage is flashed when the pay page is opened for an order
// that is no longer requested.
const NotPayableMessage = "결제할 수 없는 주문입니다."

type Handler struct {
	products   product.Service
	carts      cart.Service
	orders     order.Service
	payments   payment.Service
	shopID     string
	pgProvider string
}

func NewHandler(
	products product.Service,
	carts cart.Service,
	orders order.Service,
	payments payment.Service,
	cfg *config.Config,
) *Handler {
	return &Handler{
		products:   products,
		carts:      carts,
		orders:     orders,
		payments:   payments,
		shopID:     cfg.PortOneShopID,
		pgProvider: cfg.PortOnePGProvider,
	}
}

// PaymentProps is what the browser checkout widget needs to start a payment.
type PaymentProps struct {
	ShopID      string `json:"shop_id"`
	PGProvider  string `json:"pg,omitempty"`
	MerchantUID string `json:"merchant_uid"`
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	CheckURL    string `json:"check_url"`
}

type orderDetail struct {
	*order.Order
	StatusLabel string `json:"status_label"`
	CanPay      bool   `json:"can_pay"`
	Flash       string `json:"flash,omitempty"`
}

func OrderURL(orderID int64) string {
	return fmt.Sprintf("/orders/%d/", orderID)
}

func OrderPayURL(orderID int64) string {
	return fmt.Sprintf("/orders/%d/pay/", orderID)
}

func PaymentCheckURL(orderID, paymentID int64) string {
	return fmt.Sprintf("/orders/%d/payments/%d/check/", orderID, paymentID)
}

// ListProducts serves GET /products/?query=&page=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	res, err := h.products.ListActive(r.Context(), product.ListQuery{
		Search: r.URL.Query().Get("query"),
		Page:   page,
	})
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, res)
}

// AddToCart serves POST /cart/{productID}/?quantity=. Quantity defaults to 1.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, productID, ok := h.userAndID(w, r, "productID")
	if !ok {
		return
	}

	qty := 1
	if raw := r.FormValue("quantity"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			transport.WriteError(w, r, cart.ErrInvalidQuantity)
			return
		}
		qty = n
	}

	if _, err := h.carts.AddToCart(r.Context(), userID, productID, qty); err != nil {
		transport.WriteError(w, r, err)
		return
	}
	transport.WriteText(w, http.StatusOK, "ok")
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	c, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, c)
}

// UpdateCartQuantity serves POST /cart/{productID}/quantity/. Zero removes the line.
func (h *Handler) UpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	userID, productID, ok := h.userAndID(w, r, "productID")
	if !ok {
		return
	}

	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		transport.WriteError(w, r, cart.ErrInvalidQuantity)
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), userID, productID, qty); err != nil {
		transport.WriteError(w, r, err)
		return
	}
	h.GetCart(w, r)
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, productID, ok := h.userAndID(w, r, "productID")
	if !ok {
		return
	}

	if err := h.carts.RemoveFromCart(r.Context(), userID, productID); err != nil {
		transport.WriteError(w, r, err)
		return
	}
	h.GetCart(w, r)
}

// NewOrder turns the cart into an order and sends the browser to pay for it.
func (h *Handler) NewOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), userID)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	http.Redirect(w, r, OrderPayURL(o.ID), http.StatusSeeOther)
}

// OrderPay starts (or resumes) a payment for a requested order. Orders that
// cannot be paid go back to the detail page with a warning.
func (h *Handler) OrderPay(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := h.userAndID(w, r, "orderID")
	if !ok {
		return
	}
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "web"),
		zap.String("method", "OrderPay"),
		zap.Int64("order_id", orderID),
	)

	o, err := h.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	if !o.CanPay() {
		h.notPayable(w, r, o.ID)
		return
	}

	p, err := h.payments.CreateByOrder(r.Context(), o)
	if errors.Is(err, payment.ErrOrderNotPayable) {
		h.notPayable(w, r, o.ID)
		return
	}
	if err != nil {
		log.Error("failed to create payment", zap.Error(err))
		transport.WriteError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, PaymentProps{
		ShopID:      h.shopID,
		PGProvider:  h.pgProvider,
		MerchantUID: p.MerchantUID(),
		Name:        p.Name,
		Amount:      p.DesiredAmount,
		CheckURL:    PaymentCheckURL(o.ID, p.ID),
	})
}

func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := h.userAndID(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, orderDetail{
		Order:       o,
		StatusLabel: o.Status.Label(),
		CanPay:      o.CanPay(),
		Flash:       transport.PopFlash(w, r),
	})
}

// PaymentCheck is where the checkout widget redirects after payment. The
// gateway is asked for the real outcome before the user sees the order.
func (h *Handler) PaymentCheck(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := h.userAndID(w, r, "orderID")
	if !ok {
		return
	}
	paymentID, err := utils.ParseID(r.PathValue("paymentID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if _, err := h.payments.ReconcileForOrder(r.Context(), userID, orderID, paymentID); err != nil {
		transport.WriteError(w, r, err)
		return
	}
	http.Redirect(w, r, OrderURL(orderID), http.StatusSeeOther)
}

func (h *Handler) notPayable(w http.ResponseWriter, r *http.Request, orderID int64) {
	transport.SetFlash(w, NotPayableMessage)
	http.Redirect(w, r, OrderURL(orderID), http.StatusSeeOther)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		transport.WriteError(w, r, cart.ErrUserNotAuthenticated)
		return 0, false
	}
	return userID, true
}

// userAndID also parses the named path id. Malformed ids are not found.
func (h *Handler) userAndID(w http.ResponseWriter, r *http.Request, name string) (int64, int64, bool) {
	userID, ok := h.user(w, r)
	if !ok {
		return 0, 0, false
	}
	id, err := utils.ParseID(r.PathValue(name))
	if err != nil {
		http.NotFound(w, r)
		return 0, 0, false
	}
	return userID, id, true
}
