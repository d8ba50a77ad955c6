package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"medbook/database"
	"medbook/database/repository/memory"
	"medbook/models"
	"medbook/services/booking"
	"medbook/services/events"
	"medbook/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGateway struct {
	prefix      string
	created     int
	verifyCalls int
	secretCalls int
	refunds     []int64
	verifyErr   error
	refundErr   error
}

func (g *fakeGateway) CreateIntent(_ context.Context, amountMinor int64, currency string, _ map[string]string) (Intent, error) {
	g.created++
	ref := fmt.Sprintf("%s_%d", g.prefix, g.created)
	return Intent{Reference: ref, ClientSecret: ref + "_secret"}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string, input VerifyInput) (string, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return "", g.verifyErr
	}
	if input.PaymentID != "" {
		return input.PaymentID, nil
	}
	return reference, nil
}

func (g *fakeGateway) ClientSecret(_ context.Context, reference string) (string, error) {
	g.secretCalls++
	if g.prefix == "order" {
		return "", nil
	}
	return reference + "_secret", nil
}

func (g *fakeGateway) Refund(_ context.Context, reference, _ string, amountMinor int64, _ string) (string, error) {
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refunds = append(g.refunds, amountMinor)
	return fmt.Sprintf("re_%s_%d", reference, len(g.refunds)), nil
}

type memoryIdempotency map[string]string

func (m memoryIdempotency) Lookup(_ context.Context, key string) (string, bool, error) {
	id, ok := m[key]
	return id, ok, nil
}

func (m memoryIdempotency) Remember(_ context.Context, key, paymentID string) error {
	m[key] = paymentID
	return nil
}

type paymentRecorder struct {
	payments []models.PaymentStatus
	statuses []models.BookingStatus
}

func (n *paymentRecorder) BookingStatusChanged(_ context.Context, b *models.Booking, _ models.BookingStatus) {
	n.statuses = append(n.statuses, b.Status)
}

func (n *paymentRecorder) PaymentUpdated(_ context.Context, _ *models.Booking, p *models.Payment) {
	n.payments = append(n.payments, p.PaymentStatus)
}

func (n *paymentRecorder) DocumentVerified(context.Context, *models.Booking, *models.Document) {}

type fixture struct {
	svc      *DefaultPaymentService
	bookings *booking.DefaultBookingService
	repo     *memory.PaymentRepo
	stripe   *fakeGateway
	razorpay *fakeGateway
	notifier *paymentRecorder
}

func newFixture(t *testing.T, cancelOnFullRefund bool) *fixture {
	t.Helper()
	f := &fixture{
		repo:     memory.NewPaymentRepo(),
		stripe:   &fakeGateway{prefix: "pi"},
		razorpay: &fakeGateway{prefix: "order"},
		notifier: &paymentRecorder{},
	}
	f.bookings = booking.NewBookingService(memory.NewBookingRepo(), database.NoTransaction{}, f.notifier, events.NoopPublisher{}, zap.NewNop())
	f.svc = NewPaymentService(
		f.repo,
		f.bookings,
		database.NoTransaction{},
		map[models.PaymentProvider]Gateway{
			models.ProviderStripe:   f.stripe,
			models.ProviderRazorpay: f.razorpay,
		},
		memoryIdempotency{},
		f.notifier,
		events.NoopPublisher{},
		zap.NewNop(),
		cancelOnFullRefund,
	)
	return f
}

func (f *fixture) booking(t *testing.T, currency string) *models.Booking {
	t.Helper()
	b, err := f.bookings.CreateBooking(context.Background(), booking.CreateBookingInput{
		PatientID:   "patient-1",
		TotalAmount: 500,
		Currency:    currency,
	}, "patient-1")
	require.NoError(t, err)
	return b
}

func (f *fixture) completedStripePayment(t *testing.T, b *models.Booking, amount float64) *models.Payment {
	t.Helper()
	p, err := f.svc.CreateStripePayment(context.Background(), CreateInput{BookingID: b.ID, UserID: "patient-1", Amount: amount, Currency: b.Currency})
	require.NoError(t, err)
	p, err = f.svc.VerifyStripePayment(context.Background(), p.ID, p.StripeIntentID)
	require.NoError(t, err)
	return p
}

func TestStripePaymentScenario(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	b := f.booking(t, "AED")

	p, err := f.svc.CreateStripePayment(ctx, CreateInput{BookingID: b.ID, UserID: "patient-1", Amount: 500.00, Currency: "AED"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.PaymentStatus)
	assert.Equal(t, "pi_1", p.StripeIntentID)
	assert.Equal(t, "pi_1_secret", p.ClientSecret)

	stored, err := f.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ClientSecret)

	p, err = f.svc.VerifyStripePayment(ctx, p.ID, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, p.PaymentStatus)
	require.NotNil(t, p.CompletedDate)
	completedAt := *p.CompletedDate

	again, err := f.svc.VerifyStripePayment(ctx, p.ID, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, again.PaymentStatus)
	assert.Equal(t, completedAt, *again.CompletedDate)
	assert.Equal(t, 1, f.stripe.verifyCalls)

	_, err = f.svc.VerifyStripePayment(ctx, p.ID, "pi_other")
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	updated, err := f.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, updated.PaymentStatus)
	assert.Equal(t, []models.PaymentStatus{models.PaymentCompleted}, f.notifier.payments)
}

func TestCreatePaymentValidation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	b := f.booking(t, "AED")

	cases := []CreateInput{
		{UserID: "u", Amount: 10, Currency: "AED"},
		{BookingID: b.ID, UserID: "u", Currency: "AED"},
		{BookingID: b.ID, UserID: "u", Amount: 10},
		{BookingID: b.ID, UserID: "u", Amount: 10, Currency: "USD"},
	}
	for i, in := range cases {
		_, err := f.svc.CreateStripePayment(ctx, in)
		assert.True(t, utils.IsKind(err, utils.KindValidation), "case %d", i)
	}
	assert.Equal(t, 0, f.stripe.created)

	_, err := f.svc.CreateStripePayment(ctx, CreateInput{BookingID: "missing", UserID: "u", Amount: 10, Currency: "AED"})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestCreatePaymentOnCancelledBookingConflicts(t *testing.T) {
	f := newFixture(t, true)
	b := f.booking(t, "EUR")
	_, err := f.bookings.CancelBooking(context.Background(), b.ID, "changed plans", "patient-1")
	require.NoError(t, err)

	_, err = f.svc.CreateRazorpayPayment(context.Background(), CreateInput{BookingID: b.ID, UserID: "u", Amount: 10, Currency: "EUR"})
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestIdempotencyKeyReplaysPayment(t *testing.T) {
	f := newFixture(t, true)
	b := f.booking(t, "USD")
	in := CreateInput{BookingID: b.ID, UserID: "patient-1", Amount: 99.99, Currency: "usd", IdempotencyKey: "checkout-1"}

	first, err := f.svc.CreateStripePayment(context.Background(), in)
	require.NoError(t, err)
	second, err := f.svc.CreateStripePayment(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.stripe.created)
	assert.NotEmpty(t, first.ClientSecret)
	assert.Equal(t, first.ClientSecret, second.ClientSecret)
	assert.Equal(t, 1, f.stripe.secretCalls)
}

func TestIdempotentReplayOfSettledPaymentSkipsGateway(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	b := f.booking(t, "USD")
	in := CreateInput{BookingID: b.ID, UserID: "patient-1", Amount: 40, Currency: "USD", IdempotencyKey: "checkout-2"}

	first, err := f.svc.CreateStripePayment(ctx, in)
	require.NoError(t, err)
	_, err = f.svc.VerifyStripePayment(ctx, first.ID, first.StripeIntentID)
	require.NoError(t, err)

	again, err := f.svc.CreateStripePayment(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.PaymentCompleted, again.PaymentStatus)
	assert.Empty(t, again.ClientSecret)
	assert.Zero(t, f.stripe.secretCalls)
}

func TestVerifyFailureLeavesPaymentPending(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	b := f.booking(t, "AED")
	p, err := f.svc.CreateStripePayment(ctx, CreateInput{BookingID: b.ID, UserID: "u", Amount: 500, Currency: "AED"})
	require.NoError(t, err)

	_, err = f.svc.VerifyStripePayment(ctx, p.ID, "pi_999")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	f.stripe.verifyErr = errors.New("intent requires_payment_method")
	_, err = f.svc.VerifyStripePayment(ctx, p.ID, p.StripeIntentID)
	assert.True(t, utils.IsKind(err, utils.KindGateway))

	stored, err := f.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
	assert.Nil(t, stored.CompletedDate)

	_, err = f.svc.VerifyRazorpayPayment(ctx, p.ID, "order_1", "pay_1", "sig")
	assert.True(t, utils.IsKind(err, utils.KindValidation), "provider must match")
}

func TestRazorpayVerification(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	b := f.booking(t, "INR")
	p, err := f.svc.CreateRazorpayPayment(ctx, CreateInput{BookingID: b.ID, UserID: "u", Amount: 500, Currency: "INR"})
	require.NoError(t, err)
	assert.Equal(t, "order_1", p.RazorpayOrderID)

	_, err = f.svc.VerifyRazorpayPayment(ctx, p.ID, "order_1", "", "sig")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	f.razorpay.verifyErr = ErrSignatureMismatch
	_, err = f.svc.VerifyRazorpayPayment(ctx, p.ID, "order_1", "pay_1", "forged")
	assert.True(t, utils.IsKind(err, utils.KindGateway))
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	f.razorpay.verifyErr = nil
	p, err = f.svc.VerifyRazorpayPayment(ctx, p.ID, "order_1", "pay_1", "valid")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, p.PaymentStatus)
	assert.Equal(t, "pay_1", p.RazorpayPaymentID)

	_, err = f.svc.VerifyRazorpayPayment(ctx, p.ID, "order_1", "pay_1", "valid")
	require.NoError(t, err)

	_, err = f.svc.VerifyRazorpayPayment(ctx, p.ID, "order_1", "pay_2", "valid")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	b := f.booking(t, "AED")
	p, err := f.svc.CreateStripePayment(ctx, CreateInput{BookingID: b.ID, UserID: "u", Amount: 500, Currency: "AED"})
	require.NoError(t, err)

	_, err = f.svc.RefundPayment(ctx, p.ID, RefundInput{Reason: "duplicate"}, "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
	assert.Empty(t, f.stripe.refunds)

	stored, err := f.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.RefundAmount)
	assert.Empty(t, stored.RefundStatus)
	assert.Nil(t, stored.RefundDate)
	assert.Empty(t, stored.RefundReason)
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)

	_, err = f.svc.RefundPayment(ctx, "missing", RefundInput{Reason: "duplicate"}, "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestFullRefundCancelsBooking(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	b := f.booking(t, "AED")
	p := f.completedStripePayment(t, b, 500)

	refunded, err := f.svc.RefundPayment(ctx, p.ID, RefundInput{Reason: "duplicate charge"}, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, refunded.PaymentStatus)
	assert.Equal(t, 500.0, refunded.RefundAmount)
	assert.Equal(t, "completed", refunded.RefundStatus)
	assert.Equal(t, "duplicate charge", refunded.RefundReason)
	require.NotNil(t, refunded.RefundDate)
	assert.Equal(t, []int64{50000}, f.stripe.refunds)

	updated, err := f.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Equal(t, "payment refunded: duplicate charge", updated.CancellationReason)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)
	assert.Contains(t, f.notifier.statuses, models.StatusCancelled)

	_, err = f.svc.RefundPayment(ctx, p.ID, RefundInput{Reason: "again"}, "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestFullRefundKeepsBookingWhenPolicyOff(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	b := f.booking(t, "AED")
	p := f.completedStripePayment(t, b, 500)

	_, err := f.svc.RefundPayment(ctx, p.ID, RefundInput{Reason: "goodwill"}, "staff-1")
	require.NoError(t, err)

	updated, err := f.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, updated.Status)
	assert.Nil(t, updated.CancelledAt)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)
}

func TestPartialRefund(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	b := f.booking(t, "AED")
	p := f.completedStripePayment(t, b, 500)

	tooMuch := 600.0
	_, err := f.svc.RefundPayment(ctx, p.ID, RefundInput{Reason: "x", Amount: &tooMuch}, "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = f.svc.RefundPayment(ctx, p.ID, RefundInput{Reason: " "}, "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	part := 125.50
	refunded, err := f.svc.RefundPayment(ctx, p.ID, RefundInput{Reason: "unused nights", Amount: &part}, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartial, refunded.PaymentStatus)
	assert.Equal(t, []int64{12550}, f.stripe.refunds)

	updated, err := f.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, updated.Status)
	assert.Equal(t, models.PaymentPartial, updated.PaymentStatus)
}

func TestGatewayRefundFailureMutatesNothing(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	b := f.booking(t, "AED")
	p := f.completedStripePayment(t, b, 500)
	f.stripe.refundErr = errors.New("charge disputed")

	_, err := f.svc.RefundPayment(ctx, p.ID, RefundInput{Reason: "duplicate"}, "staff-1")
	assert.True(t, utils.IsKind(err, utils.KindGateway))

	stored, err := f.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
	assert.Zero(t, stored.RefundAmount)
}

func TestListPayments(t *testing.T) {
	f := newFixture(t, true)
	b := f.booking(t, "AED")
	f.completedStripePayment(t, b, 100)
	f.completedStripePayment(t, b, 400)

	payments, err := f.svc.ListPayments(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	_, err = f.svc.ListPayments(context.Background(), "missing")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestDisabledProvider(t *testing.T) {
	f := newFixture(t, true)
	delete(f.svc.Gateways, models.ProviderRazorpay)
	b := f.booking(t, "AED")

	_, err := f.svc.CreateRazorpayPayment(context.Background(), CreateInput{BookingID: b.ID, UserID: "u", Amount: 1, Currency: "AED"})
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}
