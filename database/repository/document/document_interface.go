package documentRepo

import (
	"context"

	"medbook/models"
)

// DocumentRepository defines methods for insurance and medical document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	// GetByID returns a live (not soft-deleted) document of the given kind.
	GetByID(ctx context.Context, kind models.DocumentKind, id string) (*models.Document, error)
	// ListByBooking returns the live documents of a kind attached to a booking, newest first.
	ListByBooking(ctx context.Context, bookingID string, kind models.DocumentKind) ([]models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	// Delete removes the row permanently.
	Delete(ctx context.Context, kind models.DocumentKind, id string) error
}
