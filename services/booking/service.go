package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"medbook/database"
	bookingRepo "medbook/database/repository/booking"
	"medbook/models"
	"medbook/services/events"
	"medbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bookingNumberAttempts = 3

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func (s *DefaultBookingService) CreateBooking(ctx context.Context, input CreateBookingInput, actor string) (*models.Booking, error) {
	if strings.TrimSpace(input.PatientID) == "" {
		return nil, utils.ValidationError("patientId is required")
	}
	if input.TotalAmount < 0 {
		return nil, utils.ValidationError("totalAmount must not be negative")
	}
	currency, err := utils.NormalizeCurrency(input.Currency)
	if err != nil {
		return nil, utils.ValidationError("currency must be an ISO 4217 code")
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if priority.Rank() == 0 {
		return nil, utils.ValidationError("priority must be one of low, medium, high, urgent")
	}
	if input.Contact.Email != "" && !emailPattern.MatchString(input.Contact.Email) {
		return nil, utils.ValidationError("contact email is not valid")
	}
	if input.MedicalDetails != nil {
		if err := validatePayload(models.PayloadMedical, input.MedicalDetails); err != nil {
			return nil, err
		}
	}

	now := s.Now().UTC()
	b := &models.Booking{
		ID:             uuid.NewString(),
		PatientID:      input.PatientID,
		HospitalID:     input.HospitalID,
		TreatmentID:    input.TreatmentID,
		PackageID:      input.PackageID,
		Status:         models.StatusRequested,
		Priority:       priority,
		PriorityRank:   priority.Rank(),
		RequestedDate:  now,
		TotalAmount:    input.TotalAmount,
		Currency:       currency,
		PaymentStatus:  models.PaymentPending,
		MedicalDetails: input.MedicalDetails,
		Contact:        input.Contact,
		StatusHistory: []models.StatusEvent{{
			To:        models.StatusRequested,
			ChangedBy: actor,
			ChangedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 1; ; attempt++ {
		b.BookingNumber = newBookingNumber(now)
		err = s.Repo.Create(ctx, b)
		if err == nil {
			break
		}
		if !errors.Is(err, database.ErrDuplicate) || attempt == bookingNumberAttempts {
			return nil, mapRepoErr(err, "create")
		}
	}

	s.Logger.Info("booking created", zap.String("bookingID", b.ID), zap.String("bookingNumber", b.BookingNumber))
	s.Notifier.BookingStatusChanged(ctx, b, "")
	s.publish(ctx, events.BookingEvent{
		Type:          events.TypeBookingCreated,
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		To:            string(b.Status),
		Actor:         actor,
	})
	return b, nil
}

// newBookingNumber returns MT-YYYYMMDD-XXXXXX with a random upper-case hex suffix.
func newBookingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("MT-%s-%s", now.Format("20060102"), suffix)
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, utils.ValidationError("booking id is required")
	}
	b, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "load")
	}
	return b, nil
}

func (s *DefaultBookingService) GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error) {
	if strings.TrimSpace(number) == "" {
		return nil, utils.ValidationError("booking number is required")
	}
	b, err := s.Repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, mapRepoErr(err, "load")
	}
	return b, nil
}

func (s *DefaultBookingService) ListBookings(ctx context.Context, filter bookingRepo.BookingFilter) (*BookingPage, error) {
	if filter.Status != "" && !IsKnownStatus(filter.Status) {
		return nil, utils.ValidationError("unknown booking status %q", filter.Status)
	}
	if filter.Priority != "" && filter.Priority.Rank() == 0 {
		return nil, utils.ValidationError("unknown priority %q", filter.Priority)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	items, total, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(err, "list")
	}
	return &BookingPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// UpdateBookingStatus moves a booking along the lifecycle graph. A terminal booking answers
// Conflict before the requested status is looked at. Writing the current status again is a
// no-op; cancellation is routed through CancelBooking with notes as the reason.
func (s *DefaultBookingService) UpdateBookingStatus(ctx context.Context, id string, newStatus models.BookingStatus, notes, actor string) (*models.Booking, error) {
	if newStatus == models.StatusCancelled {
		return s.CancelBooking(ctx, id, notes, actor)
	}

	var (
		result  *models.Booking
		from    models.BookingStatus
		changed bool
	)
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		result = b
		if IsTerminal(b.Status) || b.IsCancelled() {
			return utils.ConflictError("booking is %s and can no longer change status", b.Status)
		}
		if !IsKnownStatus(newStatus) {
			return errInvalidTransition
		}
		if b.Status == newStatus {
			return nil
		}
		if !CanTransition(b.Status, newStatus) {
			return errInvalidTransition
		}
		from = b.Status
		s.applyTransition(b, newStatus, notes, actor)
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, "update")
	}

	if changed {
		s.AnnounceStatusChange(ctx, result, from, actor)
	}
	return result, nil
}

// CancelBooking stamps the three cancellation fields and the status in one write. A terminal
// booking answers Conflict even when the reason is missing.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, id, reason, actor string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)

	var (
		result *models.Booking
		from   models.BookingStatus
	)
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if IsTerminal(b.Status) || b.IsCancelled() {
			return utils.ConflictError("booking is %s and cannot be cancelled", b.Status)
		}
		if reason == "" {
			return utils.ValidationError("cancellation reason is required")
		}
		from = b.Status
		s.applyCancellation(b, reason, actor)
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, "cancel")
	}

	s.AnnounceStatusChange(ctx, result, from, actor)
	return result, nil
}

// applyTransition mutates b in memory: status, lifecycle dates and the audit trail.
func (s *DefaultBookingService) applyTransition(b *models.Booking, to models.BookingStatus, notes, actor string) {
	now := s.Now().UTC()
	switch to {
	case models.StatusConfirmationCompleted:
		if b.ConfirmedDate == nil {
			b.ConfirmedDate = &now
		}
	case models.StatusCompleted:
		if b.CompletionDate == nil {
			b.CompletionDate = &now
		}
	}
	b.StatusHistory = append(b.StatusHistory, models.StatusEvent{
		From:      b.Status,
		To:        to,
		Notes:     notes,
		ChangedBy: actor,
		ChangedAt: now,
	})
	b.Status = to
	b.UpdatedAt = now
}

func (s *DefaultBookingService) applyCancellation(b *models.Booking, reason, actor string) {
	now := s.Now().UTC()
	b.CancellationReason = reason
	b.CancelledBy = actor
	b.CancelledAt = &now
	s.applyTransition(b, models.StatusCancelled, reason, actor)
}

// AnnounceStatusChange fires the notification and lifecycle event for a committed change.
func (s *DefaultBookingService) AnnounceStatusChange(ctx context.Context, b *models.Booking, from models.BookingStatus, actor string) {
	s.Logger.Info("booking status changed",
		zap.String("bookingID", b.ID),
		zap.String("from", string(from)),
		zap.String("to", string(b.Status)),
		zap.String("actor", actor))

	s.Notifier.BookingStatusChanged(ctx, b, from)

	eventType := events.TypeBookingStatusChanged
	attrs := map[string]string{}
	if b.Status == models.StatusCancelled {
		eventType = events.TypeBookingCancelled
		attrs["reason"] = b.CancellationReason
	}
	s.publish(ctx, events.BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		From:          string(from),
		To:            string(b.Status),
		Actor:         actor,
		Attributes:    attrs,
	})
}

func (s *DefaultBookingService) publish(ctx context.Context, event events.BookingEvent) {
	event.OccurredAt = s.Now().UTC()
	if err := s.Events.Publish(ctx, event); err != nil {
		s.Logger.Warn("failed to publish booking event",
			zap.String("type", event.Type),
			zap.String("bookingID", event.BookingID),
			zap.Error(err))
	}
}
