package handlers

import (
	"net/http"

	"medbook/models"
	"medbook/services/booking"
	"medbook/services/payment"
	"medbook/utils"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	Service  payment.PaymentService
	Bookings booking.BookingService
}

func (h *PaymentHandler) authorizeBooking(c *gin.Context, bookingID string) (utils.Principal, bool) {
	p, ok := principal(c)
	if !ok {
		return p, false
	}
	b, err := h.Bookings.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return p, false
	}
	if !canAccess(p, b) {
		forbidden(c)
		return p, false
	}
	return p, true
}

// authorizePayment loads :id and checks the caller may act on its booking.
func (h *PaymentHandler) authorizePayment(c *gin.Context) (*models.Payment, utils.Principal, bool) {
	pay, err := h.Service.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, utils.Principal{}, false
	}
	p, ok := h.authorizeBooking(c, pay.BookingID)
	return pay, p, ok
}

func (h *PaymentHandler) create(c *gin.Context, provider models.PaymentProvider) {
	var input payment.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if input.BookingID == "" {
		respondError(c, utils.ValidationError("bookingId is required"))
		return
	}
	p, ok := h.authorizeBooking(c, input.BookingID)
	if !ok {
		return
	}
	if !p.IsStaff() || input.UserID == "" {
		input.UserID = p.ID
	}
	input.IdempotencyKey = c.GetHeader("Idempotency-Key")

	var (
		pay *models.Payment
		err error
	)
	if provider == models.ProviderStripe {
		pay, err = h.Service.CreateStripePayment(c.Request.Context(), input)
	} else {
		pay, err = h.Service.CreateRazorpayPayment(c.Request.Context(), input)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pay)
}

// CreateStripePaymentHandler handles POST /api/payments/stripe.
func (h *PaymentHandler) CreateStripePaymentHandler(c *gin.Context) {
	h.create(c, models.ProviderStripe)
}

// CreateRazorpayPaymentHandler handles POST /api/payments/razorpay.
func (h *PaymentHandler) CreateRazorpayPaymentHandler(c *gin.Context) {
	h.create(c, models.ProviderRazorpay)
}

// VerifyStripePaymentHandler handles POST /api/payments/:id/verify/stripe.
func (h *PaymentHandler) VerifyStripePaymentHandler(c *gin.Context) {
	pay, _, ok := h.authorizePayment(c)
	if !ok {
		return
	}
	var req struct {
		PaymentIntentID string `json:"paymentIntentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	verified, err := h.Service.VerifyStripePayment(c.Request.Context(), pay.ID, req.PaymentIntentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verified)
}

// VerifyRazorpayPaymentHandler handles POST /api/payments/:id/verify/razorpay.
func (h *PaymentHandler) VerifyRazorpayPaymentHandler(c *gin.Context) {
	pay, _, ok := h.authorizePayment(c)
	if !ok {
		return
	}
	var req struct {
		OrderID   string `json:"razorpayOrderId" binding:"required"`
		PaymentID string `json:"razorpayPaymentId" binding:"required"`
		Signature string `json:"razorpaySignature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	verified, err := h.Service.VerifyRazorpayPayment(c.Request.Context(), pay.ID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verified)
}

// RefundPaymentHandler handles POST /api/payments/:id/refund.
func (h *PaymentHandler) RefundPaymentHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var input payment.RefundInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	refunded, err := h.Service.RefundPayment(c.Request.Context(), c.Param("id"), input, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refunded)
}

// ListPaymentsHandler handles GET /api/bookings/:id/payments.
func (h *PaymentHandler) ListPaymentsHandler(c *gin.Context) {
	bookingID := c.Param("id")
	if _, ok := h.authorizeBooking(c, bookingID); !ok {
		return
	}
	payments, err := h.Service.ListPayments(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
