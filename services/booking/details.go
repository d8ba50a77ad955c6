package booking

import (
	"context"
	"strings"

	"medbook/models"
	"medbook/utils"
)

// mutate loads a booking, applies fn and writes it back inside one transaction.
func (s *DefaultBookingService) mutate(ctx context.Context, id, action string, fn func(b *models.Booking) error) (*models.Booking, error) {
	var result *models.Booking
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		b.UpdatedAt = s.Now().UTC()
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, action)
	}
	return result, nil
}

func (s *DefaultBookingService) AssignCoordinator(ctx context.Context, id, coordinatorID, actor string) (*models.Booking, error) {
	if strings.TrimSpace(coordinatorID) == "" {
		return nil, utils.ValidationError("coordinatorId is required")
	}
	return s.mutate(ctx, id, "assign coordinator to", func(b *models.Booking) error {
		if IsTerminal(b.Status) {
			return utils.ConflictError("booking is %s and can no longer be reassigned", b.Status)
		}
		b.CoordinatorID = coordinatorID
		return nil
	})
}

// payloadGates is the earliest status at which each payload kind may be attached.
var payloadGates = map[models.PayloadKind]models.BookingStatus{
	models.PayloadMedical:   models.StatusRequested,
	models.PayloadQuotation: models.StatusAccepted,
	models.PayloadTravel:    models.StatusConfirmationCompleted,
}

func validatePayload(kind models.PayloadKind, p *models.Payload) error {
	if _, ok := payloadGates[kind]; !ok {
		return utils.ValidationError("unknown payload kind %q", kind)
	}
	if p.Kind != "" && p.Kind != kind {
		return utils.ValidationError("payload kind %q does not match %q", p.Kind, kind)
	}
	if p.SchemaVersion < 1 {
		return utils.ValidationError("schemaVersion must be at least 1")
	}
	if p.Data == nil {
		return utils.ValidationError("payload data must be a JSON object")
	}
	p.Kind = kind
	return nil
}

// AttachPayload replaces the medical, quotation or travel details of a booking.
func (s *DefaultBookingService) AttachPayload(ctx context.Context, id string, payload models.Payload, actor string) (*models.Booking, error) {
	kind := payload.Kind
	if err := validatePayload(kind, &payload); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, "attach details to", func(b *models.Booking) error {
		if IsTerminal(b.Status) {
			return utils.ConflictError("booking is %s and no longer accepts %s details", b.Status, kind)
		}
		if !reachedStage(b.Status, payloadGates[kind]) {
			return utils.ConflictError("%s details cannot be attached before %s", kind, payloadGates[kind])
		}
		p := payload
		switch kind {
		case models.PayloadMedical:
			b.MedicalDetails = &p
		case models.PayloadQuotation:
			b.QuotationDetails = &p
		case models.PayloadTravel:
			b.TravelDetails = &p
		}
		b.StatusHistory = append(b.StatusHistory, models.StatusEvent{
			From:      b.Status,
			To:        b.Status,
			Notes:     string(kind) + " details updated",
			ChangedBy: actor,
			ChangedAt: s.Now().UTC(),
		})
		return nil
	})
}

// SubmitFeedback records the patient's rating on a completed booking. The status stays completed.
func (s *DefaultBookingService) SubmitFeedback(ctx context.Context, id string, input FeedbackInput, actor string) (*models.Booking, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, utils.ValidationError("rating must be between 1 and 5")
	}
	return s.mutate(ctx, id, "record feedback on", func(b *models.Booking) error {
		if b.Status != models.StatusCompleted {
			return utils.ConflictError("feedback can only be left on completed bookings")
		}
		if b.Feedback != nil {
			return utils.ConflictError("feedback was already submitted for this booking")
		}
		b.Feedback = &models.Feedback{
			Rating:      input.Rating,
			Comment:     input.Comment,
			SubmittedBy: actor,
			SubmittedAt: s.Now().UTC(),
		}
		return nil
	})
}

// ApplyPaymentStatus sets the booking's payment sub-state. It must run inside the caller's transaction.
func (s *DefaultBookingService) ApplyPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "load")
	}
	if b.PaymentStatus == status {
		return b, nil
	}
	b.PaymentStatus = status
	b.UpdatedAt = s.Now().UTC()
	if err := s.Repo.Update(ctx, b); err != nil {
		return nil, mapRepoErr(err, "update payment status of")
	}
	return b, nil
}

// CancelForRefund cancels a non-terminal booking after a full refund. A terminal booking is
// left untouched and reported as not cancelled. It must run inside the caller's transaction.
func (s *DefaultBookingService) CancelForRefund(ctx context.Context, id, reason, actor string) (*models.Booking, bool, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, mapRepoErr(err, "load")
	}
	if IsTerminal(b.Status) || b.IsCancelled() {
		return b, false, nil
	}
	s.applyCancellation(b, reason, actor)
	if err := s.Repo.Update(ctx, b); err != nil {
		return nil, false, mapRepoErr(err, "cancel")
	}
	return b, true, nil
}
