package payment

import (
	"context"
	"time"

	"medbook/database"
	paymentRepo "medbook/database/repository/payment"
	"medbook/models"
	"medbook/services/events"
	"medbook/services/notification"

	"go.uber.org/zap"
)

// PaymentService attaches gateway payments to bookings, verifies them and refunds them.
type PaymentService interface {
	CreateStripePayment(ctx context.Context, input CreateInput) (*models.Payment, error)
	CreateRazorpayPayment(ctx context.Context, input CreateInput) (*models.Payment, error)
	VerifyStripePayment(ctx context.Context, paymentID, intentID string) (*models.Payment, error)
	VerifyRazorpayPayment(ctx context.Context, paymentID, orderID, razorpayPaymentID, signature string) (*models.Payment, error)
	RefundPayment(ctx context.Context, paymentID string, input RefundInput, actor string) (*models.Payment, error)
	ListPayments(ctx context.Context, bookingID string) ([]models.Payment, error)
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
}

// BookingLedger is the part of the booking workflow payments write through.
type BookingLedger interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ApplyPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Booking, error)
	CancelForRefund(ctx context.Context, id, reason, actor string) (*models.Booking, bool, error)
	AnnounceStatusChange(ctx context.Context, booking *models.Booking, from models.BookingStatus, actor string)
}

type CreateInput struct {
	BookingID      string  `json:"bookingId"`
	UserID         string  `json:"userId"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	IdempotencyKey string  `json:"-"`
}

type RefundInput struct {
	Reason string   `json:"reason"`
	Amount *float64 `json:"amount"`
}

type DefaultPaymentService struct {
	Repo        paymentRepo.PaymentRepository
	Bookings    BookingLedger
	Tx          database.Transactor
	Gateways    map[models.PaymentProvider]Gateway
	Idempotency IdempotencyStore
	Notifier    notification.Notifier
	Events      events.Publisher
	Logger      *zap.Logger
	// CancelOnFullRefund cancels a non-terminal booking when its payment is refunded in full.
	CancelOnFullRefund bool
	Now                func() time.Time
}

func NewPaymentService(
	repo paymentRepo.PaymentRepository,
	bookings BookingLedger,
	tx database.Transactor,
	gateways map[models.PaymentProvider]Gateway,
	idempotency IdempotencyStore,
	notifier notification.Notifier,
	publisher events.Publisher,
	logger *zap.Logger,
	cancelOnFullRefund bool,
) *DefaultPaymentService {
	return &DefaultPaymentService{
		Repo:               repo,
		Bookings:           bookings,
		Tx:                 tx,
		Gateways:           gateways,
		Idempotency:        idempotency,
		Notifier:           notifier,
		Events:             publisher,
		Logger:             logger,
		CancelOnFullRefund: cancelOnFullRefund,
		Now:                time.Now,
	}
}
