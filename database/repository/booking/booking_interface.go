package bookingRepo

import (
	"context"

	"medbook/models"
)

// BookingFilter narrows the staff triage list. Zero values match everything.
type BookingFilter struct {
	PatientID     string
	CoordinatorID string
	Status        models.BookingStatus
	Priority      models.Priority
	Page          int64
	PageSize      int64
}

// BookingRepository defines methods for booking data access.
type BookingRepository interface {
	// Create inserts a new booking. A taken booking number yields database.ErrDuplicate.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID retrieves a booking by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// GetByNumber retrieves a booking by its human-facing booking number.
	GetByNumber(ctx context.Context, number string) (*models.Booking, error)
	// Update replaces the booking if its stored version still equals booking.Version, then
	// bumps booking.Version. A stale version yields database.ErrVersionConflict.
	Update(ctx context.Context, booking *models.Booking) error
	// List returns one page of bookings ordered by priority then age, plus the total match count.
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, int64, error)
}
