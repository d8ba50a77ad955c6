package paymentRepo

import (
	"context"

	"medbook/models"
)

// PaymentRepository defines methods for payment data access.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	ListByBooking(ctx context.Context, bookingID string) ([]models.Payment, error)
	// UpdateFromStatus replaces the payment only while its stored status still equals from.
	// Otherwise it returns database.ErrVersionConflict.
	UpdateFromStatus(ctx context.Context, payment *models.Payment, from models.PaymentStatus) error
}
