package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medbook/database"
	"medbook/models"
	"medbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultURLTTL = 15 * time.Minute
	maxURLTTL     = 24 * time.Hour
)

func (s *DefaultDocumentService) UploadInsuranceDocument(ctx context.Context, bookingID string, input UploadInput) (*models.Document, error) {
	return s.upload(ctx, models.DocumentInsurance, bookingID, input)
}

func (s *DefaultDocumentService) UploadMedicalDocument(ctx context.Context, bookingID string, input UploadInput) (*models.Document, error) {
	return s.upload(ctx, models.DocumentMedical, bookingID, input)
}

func (s *DefaultDocumentService) upload(ctx context.Context, kind models.DocumentKind, bookingID string, input UploadInput) (*models.Document, error) {
	if input.File == nil || input.Size <= 0 {
		return nil, utils.ValidationError("File is required")
	}
	if strings.TrimSpace(bookingID) == "" {
		return nil, utils.ValidationError("booking id is required")
	}
	if _, err := s.Bookings.GetByID(ctx, bookingID); err != nil {
		return nil, mapRepoErr(err, "booking", "load")
	}

	folder := fmt.Sprintf("bookings/%s/%s", bookingID, kind)
	obj, err := s.Store.Upload(ctx, folder, input.FileName, input.ContentType, input.File)
	if err != nil {
		return nil, utils.GatewayError(err, "failed to store document")
	}

	doc := &models.Document{
		ID:                 uuid.NewString(),
		BookingID:          bookingID,
		Kind:               kind,
		DocumentType:       input.DocumentType,
		FileURL:            obj.URL,
		FileID:             obj.ID,
		FileName:           input.FileName,
		FileSize:           input.Size,
		ContentType:        input.ContentType,
		Meta:               input.Meta,
		UploadedBy:         input.UploadedBy,
		UploadedAt:         s.Now().UTC(),
		VerificationStatus: models.VerificationPending,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		if delErr := s.Store.Delete(ctx, obj.ID); delErr != nil {
			s.Logger.Warn("failed to remove orphaned document object",
				zap.String("fileID", obj.ID), zap.Error(delErr))
		}
		return nil, utils.InternalError(err, "failed to save document")
	}

	s.Logger.Info("document uploaded",
		zap.String("bookingID", bookingID),
		zap.String("kind", string(kind)),
		zap.String("documentID", doc.ID))
	return doc, nil
}

func (s *DefaultDocumentService) ListDocuments(ctx context.Context, bookingID string, kind models.DocumentKind) ([]models.Document, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if _, err := s.Bookings.GetByID(ctx, bookingID); err != nil {
		return nil, mapRepoErr(err, "booking", "load")
	}
	docs, err := s.Repo.ListByBooking(ctx, bookingID, kind)
	if err != nil {
		return nil, utils.InternalError(err, "failed to list documents")
	}
	return docs, nil
}

func (s *DefaultDocumentService) GetDocument(ctx context.Context, kind models.DocumentKind, id string) (*models.Document, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	doc, err := s.Repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, mapRepoErr(err, "document", "load")
	}
	return doc, nil
}

// Verify records a staff decision on a document. status is "verified" or "rejected".
func (s *DefaultDocumentService) Verify(ctx context.Context, kind models.DocumentKind, id, reviewerID, status, notes string) (*models.Document, error) {
	if status != models.VerificationVerified && status != models.VerificationRejected {
		return nil, utils.ValidationError("verification status must be verified or rejected")
	}
	doc, err := s.GetDocument(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	doc.IsVerified = status == models.VerificationVerified
	doc.VerificationStatus = status
	doc.VerificationDate = &now
	doc.VerificationNotes = notes
	doc.VerifiedBy = reviewerID
	if err := s.Repo.Update(ctx, doc); err != nil {
		return nil, mapRepoErr(err, "document", "update")
	}

	if b, err := s.Bookings.GetByID(ctx, doc.BookingID); err == nil {
		s.Notifier.DocumentVerified(ctx, b, doc)
	} else {
		s.Logger.Warn("document verified but booking lookup failed",
			zap.String("documentID", doc.ID), zap.Error(err))
	}
	return doc, nil
}

// AdminDelete removes a document. Insurance documents are deleted from storage and then from the
// database; medical documents are only marked deleted and their object is retained.
func (s *DefaultDocumentService) AdminDelete(ctx context.Context, kind models.DocumentKind, id, actor string) error {
	doc, err := s.GetDocument(ctx, kind, id)
	if err != nil {
		return err
	}

	if kind == models.DocumentMedical {
		now := s.Now().UTC()
		doc.DeletedAt = &now
		doc.DeletedBy = actor
		if err := s.Repo.Update(ctx, doc); err != nil {
			return mapRepoErr(err, "document", "delete")
		}
		s.Logger.Info("medical document soft-deleted", zap.String("documentID", id), zap.String("actor", actor))
		return nil
	}

	if err := s.Store.Delete(ctx, doc.FileID); err != nil {
		return utils.GatewayError(err, "failed to delete stored document")
	}
	if err := s.Repo.Delete(ctx, kind, id); err != nil {
		return mapRepoErr(err, "document", "delete")
	}
	s.Logger.Info("insurance document deleted", zap.String("documentID", id), zap.String("actor", actor))
	return nil
}

func (s *DefaultDocumentService) DownloadURL(ctx context.Context, kind models.DocumentKind, id string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	if ttl > maxURLTTL {
		ttl = maxURLTTL
	}
	doc, err := s.GetDocument(ctx, kind, id)
	if err != nil {
		return "", err
	}
	url, err := s.Store.SignedURL(ctx, doc.FileID, ttl)
	if err != nil {
		return "", utils.GatewayError(err, "failed to sign document url")
	}
	return url, nil
}

func checkKind(kind models.DocumentKind) error {
	if kind != models.DocumentInsurance && kind != models.DocumentMedical {
		return utils.ValidationError("document kind must be insurance or medical")
	}
	return nil
}

func mapRepoErr(err error, entity, action string) error {
	var appErr *utils.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, database.ErrNotFound):
		return utils.NotFoundError("%s not found", entity)
	default:
		return utils.InternalError(err, "failed to %s %s", action, entity)
	}
}
