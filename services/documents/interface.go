package documents

import (
	"context"
	"io"
	"time"

	bookingRepo "medbook/database/repository/booking"
	documentRepo "medbook/database/repository/document"
	"medbook/models"
	"medbook/services/notification"
	"medbook/services/storage"

	"go.uber.org/zap"
)

// DocumentService attaches insurance and medical documents to bookings.
type DocumentService interface {
	UploadInsuranceDocument(ctx context.Context, bookingID string, input UploadInput) (*models.Document, error)
	UploadMedicalDocument(ctx context.Context, bookingID string, input UploadInput) (*models.Document, error)
	ListDocuments(ctx context.Context, bookingID string, kind models.DocumentKind) ([]models.Document, error)
	GetDocument(ctx context.Context, kind models.DocumentKind, id string) (*models.Document, error)
	Verify(ctx context.Context, kind models.DocumentKind, id, reviewerID, status, notes string) (*models.Document, error)
	AdminDelete(ctx context.Context, kind models.DocumentKind, id, actor string) error
	DownloadURL(ctx context.Context, kind models.DocumentKind, id string, ttl time.Duration) (string, error)
}

// UploadInput carries the file and its descriptive metadata. Size is the byte count of File;
// zero means no file was supplied.
type UploadInput struct {
	File         io.Reader
	Size         int64
	FileName     string
	ContentType  string
	DocumentType string
	Meta         map[string]any
	UploadedBy   string
}

type DefaultDocumentService struct {
	Bookings bookingRepo.BookingRepository
	Repo     documentRepo.DocumentRepository
	Store    storage.ObjectStore
	Notifier notification.Notifier
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewDocumentService(
	bookings bookingRepo.BookingRepository,
	repo documentRepo.DocumentRepository,
	store storage.ObjectStore,
	notifier notification.Notifier,
	logger *zap.Logger,
) *DefaultDocumentService {
	return &DefaultDocumentService{
		Bookings: bookings,
		Repo:     repo,
		Store:    store,
		Notifier: notifier,
		Logger:   logger,
		Now:      time.Now,
	}
}
