package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"medbook/database"
	bookingRepo "medbook/database/repository/booking"
	"medbook/database/repository/memory"
	"medbook/models"
	"medbook/services/events"
	"medbook/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type statusChange struct {
	from, to models.BookingStatus
}

type recordingNotifier struct {
	changes  []statusChange
	payments int
}

func (n *recordingNotifier) BookingStatusChanged(_ context.Context, b *models.Booking, from models.BookingStatus) {
	n.changes = append(n.changes, statusChange{from: from, to: b.Status})
}

func (n *recordingNotifier) PaymentUpdated(context.Context, *models.Booking, *models.Payment) {
	n.payments++
}

func (n *recordingNotifier) DocumentVerified(context.Context, *models.Booking, *models.Document) {}

type recordingPublisher struct {
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.BookingEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc       *DefaultBookingService
	repo      *memory.BookingRepo
	notifier  *recordingNotifier
	publisher *recordingPublisher
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      memory.NewBookingRepo(),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		clock:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewBookingService(f.repo, database.NoTransaction{}, f.notifier, f.publisher, zap.NewNop())
	f.svc.Now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func (f *fixture) create(t *testing.T) *models.Booking {
	t.Helper()
	b, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		PatientID:   "patient-1",
		TotalAmount: 15000.00,
		Currency:    "USD",
		Contact:     models.Contact{Email: "patient@example.com"},
	}, "patient-1")
	require.NoError(t, err)
	return b
}

func (f *fixture) advance(t *testing.T, id string, to ...models.BookingStatus) *models.Booking {
	t.Helper()
	var b *models.Booking
	var err error
	for _, s := range to {
		b, err = f.svc.UpdateBookingStatus(context.Background(), id, s, "", "staff-1")
		require.NoError(t, err, "advance to %s", s)
	}
	return b
}

func approve() *bool {
	v := true
	return &v
}

func TestCreateBookingRoundTripsAmountAndCurrency(t *testing.T) {
	f := newFixture(t)
	created := f.create(t)

	loaded, err := f.svc.GetBooking(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 15000.00, loaded.TotalAmount)
	assert.Equal(t, "USD", loaded.Currency)
	assert.Equal(t, models.StatusRequested, loaded.Status)
	assert.Equal(t, models.PaymentPending, loaded.PaymentStatus)
	assert.Equal(t, models.PriorityMedium, loaded.Priority)
	assert.Regexp(t, `^MT-20240301-[0-9A-F]{6}$`, loaded.BookingNumber)
	assert.Nil(t, loaded.CompletionDate)

	byNumber, err := f.svc.GetBookingByNumber(context.Background(), created.BookingNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, CreateBookingInput{Currency: "USD"}, "x")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = f.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "p", Currency: "DOLLARS"}, "x")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = f.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "p", Currency: "USD", Priority: "asap"}, "x")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = f.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "p", Currency: "USD", TotalAmount: -1}, "x")
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestMissingBookingIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateBookingStatus(context.Background(), "nope", models.StatusUnderReview, "", "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = f.svc.CancelBooking(context.Background(), "nope", "reason", "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t)

	b, err := f.svc.UpdateBookingStatus(ctx, b.ID, models.StatusUnderReview, "triaged", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, b.Status)

	b, err = f.svc.ReviewBooking(ctx, b.ID, "staff-1", ReviewInput{IsApproved: approve(), ReviewNotes: "fit for surgery"})
	require.NoError(t, err)
	require.NotNil(t, b.Review)
	assert.Equal(t, "staff-1", b.Review.ReviewerID)
	assert.Equal(t, models.StatusAccepted, b.Status)

	// The review already accepted the booking, so writing accepted again is a no-op.
	b, err = f.svc.UpdateBookingStatus(ctx, b.ID, models.StatusAccepted, "", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, b.Status)

	b, err = f.svc.CancelBooking(ctx, b.ID, "patient withdrew", "patient-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, b.Status)
	assert.Equal(t, "patient withdrew", b.CancellationReason)
	assert.Equal(t, "patient-1", b.CancelledBy)
	require.NotNil(t, b.CancelledAt)

	for _, next := range []models.BookingStatus{models.StatusQuotationSent, models.StatusAccepted, models.StatusCancelled} {
		_, err = f.svc.UpdateBookingStatus(ctx, b.ID, next, "again", "staff-1")
		assert.True(t, utils.IsKind(err, utils.KindConflict), "status %s", next)
	}

	// A cancelled booking answers Conflict before its input is checked.
	_, err = f.svc.UpdateBookingStatus(ctx, b.ID, "teleported", "", "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
	_, err = f.svc.UpdateBookingStatus(ctx, b.ID, models.StatusCancelled, "", "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
	_, err = f.svc.CancelBooking(ctx, b.ID, "", "patient-1")
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	stored, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)

	assert.Equal(t, []statusChange{
		{from: "", to: models.StatusRequested},
		{from: models.StatusRequested, to: models.StatusUnderReview},
		{from: models.StatusUnderReview, to: models.StatusAccepted},
		{from: models.StatusAccepted, to: models.StatusCancelled},
	}, f.notifier.changes)
}

func TestDisallowedJumpIsValidationError(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)

	_, err := f.svc.UpdateBookingStatus(context.Background(), b.ID, models.StatusCompleted, "", "staff-1")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindValidation))
	assert.Equal(t, "invalid booking status transition", err.Error())

	_, err = f.svc.UpdateBookingStatus(context.Background(), b.ID, "teleported", "", "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestCompletionDateSetOnlyWhenCompleted(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)

	steps := []models.BookingStatus{
		models.StatusUnderReview, models.StatusAccepted, models.StatusQuotationSent,
		models.StatusPaymentDetails, models.StatusConfirmationSent, models.StatusPaymentReceived,
		models.StatusConfirmationCompleted, models.StatusInvoiceSent, models.StatusTravelArrangements,
		models.StatusConsultationScheduled, models.StatusInProgress,
	}
	for _, s := range steps {
		b = f.advance(t, b.ID, s)
		assert.Nil(t, b.CompletionDate, "completion date before completed at %s", s)
		if s == models.StatusConfirmationCompleted {
			assert.NotNil(t, b.ConfirmedDate)
		}
	}

	b = f.advance(t, b.ID, models.StatusCompleted)
	require.NotNil(t, b.CompletionDate)
	completedAt := *b.CompletionDate

	_, err := f.svc.UpdateBookingStatus(context.Background(), b.ID, models.StatusFeedbackReceived, "", "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	b, err = f.svc.SubmitFeedback(context.Background(), b.ID, FeedbackInput{Rating: 5, Comment: "great"}, "patient-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, b.Status)
	assert.Equal(t, completedAt, *b.CompletionDate)
	assert.Len(t, b.StatusHistory, len(steps)+2)
}

func TestCancelTerminalBookingDoesNotMutate(t *testing.T) {
	for _, terminalStatus := range []models.BookingStatus{models.StatusCancelled, models.StatusCompleted} {
		f := newFixture(t)
		b := f.create(t)
		stored, err := f.repo.GetByID(context.Background(), b.ID)
		require.NoError(t, err)
		stored.Status = terminalStatus
		f.repo.Put(*stored)

		_, err = f.svc.CancelBooking(context.Background(), b.ID, "too late", "patient-1")
		assert.True(t, utils.IsKind(err, utils.KindConflict))
		_, err = f.svc.CancelBooking(context.Background(), b.ID, "  ", "patient-1")
		assert.True(t, utils.IsKind(err, utils.KindConflict), "missing reason on %s", terminalStatus)
		_, err = f.svc.UpdateBookingStatus(context.Background(), b.ID, "teleported", "", "staff-1")
		assert.True(t, utils.IsKind(err, utils.KindConflict), "unknown status on %s", terminalStatus)

		after, err := f.repo.GetByID(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Equal(t, *stored, *after)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)

	_, err := f.svc.CancelBooking(context.Background(), b.ID, "   ", "patient-1")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = f.svc.UpdateBookingStatus(context.Background(), b.ID, models.StatusCancelled, "", "patient-1")
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestStatusUpdateRoutesCancellation(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)

	b, err := f.svc.UpdateBookingStatus(context.Background(), b.ID, models.StatusCancelled, "duplicate request", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, "duplicate request", b.CancellationReason)
	assert.NotNil(t, b.CancelledAt)
}

func TestReviewRejectionRequiresReasons(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)
	f.advance(t, b.ID, models.StatusUnderReview)
	rejected := false

	_, err := f.svc.ReviewBooking(context.Background(), b.ID, "staff-1", ReviewInput{IsApproved: &rejected})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	b, err = f.svc.ReviewBooking(context.Background(), b.ID, "staff-1", ReviewInput{
		IsApproved:          &rejected,
		ReasonsForRejection: []string{"treatment not offered"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, b.Status)
	assert.Equal(t, []string{"treatment not offered"}, b.Review.ReasonsForRejection)
}

func TestReviewAnnotationKeepsStatus(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)
	f.advance(t, b.ID, models.StatusUnderReview)
	cost := 12000.0

	b, err := f.svc.ReviewBooking(context.Background(), b.ID, "staff-1", ReviewInput{
		ReviewNotes:            "awaiting scans",
		EstimatedTreatmentCost: &cost,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, b.Status)
	assert.Equal(t, 12000.0, *b.Review.EstimatedTreatmentCost)
}

func TestReviewOutsideUnderReviewConflicts(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)

	_, err := f.svc.ReviewBooking(context.Background(), b.ID, "staff-1", ReviewInput{IsApproved: approve()})
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	stored, _ := f.repo.GetByID(context.Background(), b.ID)
	assert.Nil(t, stored.Review)
}

func TestConcurrentWriteSurfacesAsConflict(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)
	f.repo.FailUpdate = database.ErrVersionConflict

	_, err := f.svc.UpdateBookingStatus(context.Background(), b.ID, models.StatusUnderReview, "", "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
	assert.Len(t, f.notifier.changes, 1, "only the creation is announced")
}

func TestEventPublishFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("kafka unavailable")
	b := f.create(t)

	b, err := f.svc.UpdateBookingStatus(context.Background(), b.ID, models.StatusUnderReview, "", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, b.Status)
	assert.Len(t, f.publisher.events, 2)
}

func TestAttachPayloadGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.create(t)

	quote := models.Payload{SchemaVersion: 1, Kind: models.PayloadQuotation, Data: map[string]any{"total": 14000}}
	_, err := f.svc.AttachPayload(ctx, b.ID, quote, "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	_, err = f.svc.AttachPayload(ctx, b.ID, models.Payload{Kind: models.PayloadMedical, Data: map[string]any{}}, "patient-1")
	assert.True(t, utils.IsKind(err, utils.KindValidation), "schemaVersion 0 is rejected")

	b, err = f.svc.AttachPayload(ctx, b.ID, models.Payload{SchemaVersion: 1, Kind: models.PayloadMedical, Data: map[string]any{"condition": "knee"}}, "patient-1")
	require.NoError(t, err)
	assert.Equal(t, "knee", b.MedicalDetails.Data["condition"])

	f.advance(t, b.ID, models.StatusUnderReview, models.StatusAccepted)
	b, err = f.svc.AttachPayload(ctx, b.ID, quote, "staff-1")
	require.NoError(t, err)
	require.NotNil(t, b.QuotationDetails)
	assert.Equal(t, 1, b.QuotationDetails.SchemaVersion)

	_, err = f.svc.AttachPayload(ctx, b.ID, models.Payload{SchemaVersion: 1, Kind: models.PayloadTravel, Data: map[string]any{}}, "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestFeedbackOnlyOnCompleted(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)

	_, err := f.svc.SubmitFeedback(context.Background(), b.ID, FeedbackInput{Rating: 4}, "patient-1")
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	_, err = f.svc.SubmitFeedback(context.Background(), b.ID, FeedbackInput{Rating: 9}, "patient-1")
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestAssignCoordinator(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)

	b, err := f.svc.AssignCoordinator(context.Background(), b.ID, "coord-7", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "coord-7", b.CoordinatorID)
}

func TestListBookingsOrdersByPriorityThenAge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, p := range []models.Priority{models.PriorityLow, models.PriorityUrgent, models.PriorityMedium, models.PriorityUrgent} {
		_, err := f.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "p", Currency: "EUR", Priority: p}, "p")
		require.NoError(t, err)
	}

	page, err := f.svc.ListBookings(ctx, bookingRepo.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
	assert.Equal(t, int64(4), page.Total)
	got := []models.Priority{}
	for _, b := range page.Items {
		got = append(got, b.Priority)
	}
	assert.Equal(t, []models.Priority{models.PriorityUrgent, models.PriorityUrgent, models.PriorityMedium, models.PriorityLow}, got)
	assert.True(t, page.Items[0].RequestedDate.Before(page.Items[1].RequestedDate))

	_, err = f.svc.ListBookings(ctx, bookingRepo.BookingFilter{Status: "lost"})
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestCancelForRefundLeavesTerminalBookingAlone(t *testing.T) {
	f := newFixture(t)
	b := f.create(t)

	b, cancelled, err := f.svc.CancelForRefund(context.Background(), b.ID, "payment refunded: duplicate", "staff-1")
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Equal(t, models.StatusCancelled, b.Status)

	_, cancelled, err = f.svc.CancelForRefund(context.Background(), b.ID, "again", "staff-1")
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestCreateBookingRejectsMalformedEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		PatientID: "p",
		Currency:  "USD",
		Contact:   models.Contact{Email: "not-an-email"},
	}, "p")
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}
