package booking

import (
	"context"
	"strconv"
	"strings"

	"medbook/models"
	"medbook/services/events"
	"medbook/utils"
)

// ReviewBooking records the staff review of a booking under review. An approval or rejection
// moves the booking to accepted or rejected in the same write; a review without a decision is
// stored as an annotation only.
func (s *DefaultBookingService) ReviewBooking(ctx context.Context, id, staffID string, input ReviewInput) (*models.Booking, error) {
	if strings.TrimSpace(staffID) == "" {
		return nil, utils.ValidationError("reviewer id is required")
	}
	if input.IsApproved != nil && !*input.IsApproved && len(input.ReasonsForRejection) == 0 {
		return nil, utils.ValidationError("reasonsForRejection is required when rejecting a booking")
	}
	if input.EstimatedTreatmentCost != nil && *input.EstimatedTreatmentCost < 0 {
		return nil, utils.ValidationError("estimatedTreatmentCost must not be negative")
	}
	if input.EstimatedDurationDays != nil && *input.EstimatedDurationDays < 0 {
		return nil, utils.ValidationError("estimatedDurationDays must not be negative")
	}

	var (
		result *models.Booking
		from   models.BookingStatus
	)
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != models.StatusUnderReview {
			return utils.ConflictError("booking must be under_review to be reviewed, current status is %s", b.Status)
		}

		from = b.Status
		b.Review = &models.Review{
			ReviewerID:             staffID,
			IsApproved:             input.IsApproved,
			ReviewStatus:           input.ReviewStatus,
			ReviewNotes:            input.ReviewNotes,
			ReasonsForRejection:    input.ReasonsForRejection,
			EstimatedTreatmentCost: input.EstimatedTreatmentCost,
			EstimatedDurationDays:  input.EstimatedDurationDays,
			ReviewedAt:             s.Now().UTC(),
		}
		b.UpdatedAt = b.Review.ReviewedAt

		if input.IsApproved != nil {
			next := models.StatusRejected
			if *input.IsApproved {
				next = models.StatusAccepted
			}
			s.applyTransition(b, next, input.ReviewNotes, staffID)
		}

		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, "review")
	}

	attrs := map[string]string{"reviewer": staffID}
	if input.IsApproved != nil {
		attrs["approved"] = strconv.FormatBool(*input.IsApproved)
	}
	s.publish(ctx, events.BookingEvent{
		Type:          events.TypeBookingReviewed,
		BookingID:     result.ID,
		BookingNumber: result.BookingNumber,
		Actor:         staffID,
		Attributes:    attrs,
	})
	if result.Status != from {
		s.AnnounceStatusChange(ctx, result, from, staffID)
	}
	return result, nil
}
