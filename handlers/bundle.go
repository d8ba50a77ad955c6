package handlers

import (
	"medbook/middleware"
	"medbook/services/booking"
	"medbook/services/documents"
	"medbook/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandlerBundle groups every endpoint handler and the middleware routes need.
type HandlerBundle struct {
	Logger      *zap.Logger
	Tokens      middleware.TokenValidator
	RateLimiter *middleware.RateLimiter
	Health      gin.HandlerFunc

	Bookings      *BookingHandler
	Documents     *DocumentHandler
	Payments      *PaymentHandler
	Notifications *NotificationHandler
}

// BundleDeps are the services the HTTP layer calls into.
type BundleDeps struct {
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	RateLimiter    *middleware.RateLimiter
	Health         HealthReporter
	Bookings       booking.BookingService
	Documents      documents.DocumentService
	Payments       payment.PaymentService
	Inbox          Inbox
	UploadMaxBytes int64
}

func NewHandlerBundle(deps BundleDeps) *HandlerBundle {
	return &HandlerBundle{
		Logger:      deps.Logger,
		Tokens:      deps.Tokens,
		RateLimiter: deps.RateLimiter,
		Health:      HealthHandler(deps.Health),
		Bookings:    &BookingHandler{Service: deps.Bookings},
		Documents: &DocumentHandler{
			Service:  deps.Documents,
			Bookings: deps.Bookings,
			MaxBytes: deps.UploadMaxBytes,
		},
		Payments:      &PaymentHandler{Service: deps.Payments, Bookings: deps.Bookings},
		Notifications: &NotificationHandler{Inbox: deps.Inbox},
	}
}
