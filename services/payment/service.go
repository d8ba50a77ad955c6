package payment

import (
	"context"
	"errors"
	"strings"

	"medbook/database"
	"medbook/models"
	"medbook/services/events"
	"medbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultPaymentService) CreateStripePayment(ctx context.Context, input CreateInput) (*models.Payment, error) {
	return s.create(ctx, models.ProviderStripe, input)
}

func (s *DefaultPaymentService) CreateRazorpayPayment(ctx context.Context, input CreateInput) (*models.Payment, error) {
	return s.create(ctx, models.ProviderRazorpay, input)
}

func (s *DefaultPaymentService) create(ctx context.Context, provider models.PaymentProvider, input CreateInput) (*models.Payment, error) {
	if strings.TrimSpace(input.BookingID) == "" {
		return nil, utils.ValidationError("bookingId is required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, utils.ValidationError("userId is required")
	}
	if input.Amount <= 0 {
		return nil, utils.ValidationError("amount must be greater than zero")
	}
	if strings.TrimSpace(input.Currency) == "" {
		return nil, utils.ValidationError("currency is required")
	}
	currency, err := utils.NormalizeCurrency(input.Currency)
	if err != nil {
		return nil, utils.ValidationError("currency must be an ISO 4217 code")
	}
	gateway, err := s.gateway(provider)
	if err != nil {
		return nil, err
	}

	idemKey := ""
	if input.IdempotencyKey != "" && s.Idempotency != nil {
		idemKey = strings.Join([]string{string(provider), input.UserID, input.IdempotencyKey}, ":")
		if id, found, err := s.Idempotency.Lookup(ctx, idemKey); err != nil {
			s.Logger.Warn("idempotency lookup failed", zap.String("key", idemKey), zap.Error(err))
		} else if found {
			return s.replay(ctx, gateway, id)
		}
	}

	booking, err := s.Bookings.GetBooking(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.IsCancelled() || booking.Status == models.StatusRejected || booking.Status == models.StatusCompleted || booking.Status == models.StatusFeedbackReceived {
		return nil, utils.ConflictError("booking is %s and no longer accepts payments", booking.Status)
	}
	if booking.Currency != currency {
		return nil, utils.ValidationError("currency %s does not match booking currency %s", currency, booking.Currency)
	}
	minor, err := utils.ToMinorUnits(input.Amount, currency)
	if err != nil {
		return nil, utils.ValidationError("amount cannot be expressed in %s", currency)
	}

	now := s.Now().UTC()
	p := &models.Payment{
		ID:            uuid.NewString(),
		BookingID:     booking.ID,
		UserID:        input.UserID,
		Provider:      provider,
		Amount:        input.Amount,
		Currency:      currency,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	intent, err := gateway.CreateIntent(ctx, minor, currency, map[string]string{
		"paymentId":     p.ID,
		"bookingId":     booking.ID,
		"bookingNumber": booking.BookingNumber,
	})
	if err != nil {
		return nil, utils.GatewayError(err, "failed to open %s payment", provider)
	}
	switch provider {
	case models.ProviderStripe:
		p.StripeIntentID = intent.Reference
	case models.ProviderRazorpay:
		p.RazorpayOrderID = intent.Reference
	}

	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, utils.InternalError(err, "failed to save payment")
	}
	p.ClientSecret = intent.ClientSecret

	if idemKey != "" {
		if err := s.Idempotency.Remember(ctx, idemKey, p.ID); err != nil {
			s.Logger.Warn("failed to store idempotency key", zap.String("key", idemKey), zap.Error(err))
		}
	}

	s.Logger.Info("payment created",
		zap.String("paymentID", p.ID),
		zap.String("bookingID", p.BookingID),
		zap.String("provider", string(provider)))
	s.publish(ctx, events.TypePaymentCreated, booking, p, input.UserID)
	return p, nil
}

// replay returns a payment opened under the same idempotency key. The client secret is not
// persisted, so a pending payment fetches it again from the gateway.
func (s *DefaultPaymentService) replay(ctx context.Context, gateway Gateway, paymentID string) (*models.Payment, error) {
	p, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.PaymentStatus != models.PaymentPending {
		return p, nil
	}
	secret, err := gateway.ClientSecret(ctx, p.GatewayReference())
	if err != nil {
		return nil, utils.GatewayError(err, "failed to reload %s payment", p.Provider)
	}
	p.ClientSecret = secret
	return p, nil
}

func (s *DefaultPaymentService) VerifyStripePayment(ctx context.Context, paymentID, intentID string) (*models.Payment, error) {
	if strings.TrimSpace(intentID) == "" {
		return nil, utils.ValidationError("paymentIntentId is required")
	}
	return s.verify(ctx, paymentID, models.ProviderStripe, VerifyInput{IntentID: intentID})
}

func (s *DefaultPaymentService) VerifyRazorpayPayment(ctx context.Context, paymentID, orderID, razorpayPaymentID, signature string) (*models.Payment, error) {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(razorpayPaymentID) == "" || strings.TrimSpace(signature) == "" {
		return nil, utils.ValidationError("razorpay order id, payment id and signature are required")
	}
	return s.verify(ctx, paymentID, models.ProviderRazorpay, VerifyInput{
		OrderID:   orderID,
		PaymentID: razorpayPaymentID,
		Signature: signature,
	})
}

// verify completes a pending payment. Verifying an already completed payment with the same
// identifiers returns it unchanged; any other identifiers are a conflict.
func (s *DefaultPaymentService) verify(ctx context.Context, paymentID string, provider models.PaymentProvider, input VerifyInput) (*models.Payment, error) {
	p, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Provider != provider {
		return nil, utils.ValidationError("payment %s is a %s payment", p.ID, p.Provider)
	}
	reference := p.GatewayReference()
	if provider == models.ProviderStripe && input.IntentID != reference {
		if p.PaymentStatus == models.PaymentCompleted {
			return nil, utils.ConflictError("payment was already completed with a different payment intent")
		}
		return nil, utils.ValidationError("payment intent does not belong to this payment")
	}
	if provider == models.ProviderRazorpay && input.OrderID != reference {
		if p.PaymentStatus == models.PaymentCompleted {
			return nil, utils.ConflictError("payment was already completed with a different order")
		}
		return nil, utils.ValidationError("order does not belong to this payment")
	}

	switch p.PaymentStatus {
	case models.PaymentCompleted:
		if provider == models.ProviderRazorpay && p.RazorpayPaymentID != input.PaymentID {
			return nil, utils.ConflictError("payment was already completed with a different razorpay payment")
		}
		return p, nil
	case models.PaymentPending, models.PaymentProcessing:
	default:
		return nil, utils.ConflictError("payment is %s and cannot be verified", p.PaymentStatus)
	}

	gateway, err := s.gateway(provider)
	if err != nil {
		return nil, err
	}
	gatewayPaymentID, err := gateway.Verify(ctx, reference, input)
	if err != nil {
		return nil, utils.GatewayError(err, "failed to verify %s payment", provider)
	}

	from := p.PaymentStatus
	now := s.Now().UTC()
	p.PaymentStatus = models.PaymentCompleted
	p.CompletedDate = &now
	p.UpdatedAt = now
	if provider == models.ProviderRazorpay {
		p.RazorpayPaymentID = gatewayPaymentID
	}

	var booking *models.Booking
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Repo.UpdateFromStatus(ctx, p, from); err != nil {
			return err
		}
		b, err := s.Bookings.ApplyPaymentStatus(ctx, p.BookingID, models.PaymentCompleted)
		if err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, "verify")
	}

	s.Logger.Info("payment completed", zap.String("paymentID", p.ID), zap.String("bookingID", p.BookingID))
	s.Notifier.PaymentUpdated(ctx, booking, p)
	s.publish(ctx, events.TypePaymentCompleted, booking, p, p.UserID)
	return p, nil
}

// RefundPayment refunds a completed payment through its gateway and then records the refund on
// the payment and booking in one transaction.
func (s *DefaultPaymentService) RefundPayment(ctx context.Context, paymentID string, input RefundInput, actor string) (*models.Payment, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, utils.ValidationError("refund reason is required")
	}
	p, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.PaymentStatus != models.PaymentCompleted {
		return nil, utils.ConflictError("payment is %s; only completed payments can be refunded", p.PaymentStatus)
	}

	amount := p.Amount
	if input.Amount != nil {
		amount = *input.Amount
	}
	if amount <= 0 {
		return nil, utils.ValidationError("refund amount must be greater than zero")
	}
	minor, err := utils.ToMinorUnits(amount, p.Currency)
	if err != nil {
		return nil, utils.ValidationError("refund amount cannot be expressed in %s", p.Currency)
	}
	fullMinor, err := utils.ToMinorUnits(p.Amount, p.Currency)
	if err != nil {
		return nil, utils.InternalError(err, "failed to convert payment amount")
	}
	if minor > fullMinor {
		return nil, utils.ValidationError("refund amount exceeds the paid amount")
	}
	full := minor == fullMinor

	gateway, err := s.gateway(p.Provider)
	if err != nil {
		return nil, err
	}
	gatewayPaymentID := p.RazorpayPaymentID
	if p.Provider == models.ProviderStripe {
		gatewayPaymentID = p.StripeIntentID
	}
	refundID, err := gateway.Refund(ctx, p.GatewayReference(), gatewayPaymentID, minor, reason)
	if err != nil {
		return nil, utils.GatewayError(err, "failed to refund %s payment", p.Provider)
	}

	status := models.PaymentPartial
	if full {
		status = models.PaymentRefunded
	}
	now := s.Now().UTC()
	refunded := *p
	refunded.RefundAmount = amount
	refunded.RefundStatus = string(models.PaymentCompleted)
	refunded.RefundDate = &now
	refunded.RefundReason = reason
	refunded.RefundID = refundID
	refunded.RefundedBy = actor
	refunded.PaymentStatus = status
	refunded.UpdatedAt = now

	var (
		booking     *models.Booking
		bookingFrom models.BookingStatus
		cancelled   bool
	)
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Repo.UpdateFromStatus(ctx, &refunded, models.PaymentCompleted); err != nil {
			return err
		}
		b, err := s.Bookings.ApplyPaymentStatus(ctx, p.BookingID, status)
		if err != nil {
			return err
		}
		booking, bookingFrom = b, b.Status
		if full && s.CancelOnFullRefund {
			b, cancelled, err = s.Bookings.CancelForRefund(ctx, p.BookingID, "payment refunded: "+reason, actor)
			if err != nil {
				return err
			}
			booking = b
		}
		return nil
	})
	if err != nil {
		s.Logger.Error("refund issued at gateway but not recorded",
			zap.String("paymentID", p.ID),
			zap.String("refundID", refundID),
			zap.Error(err))
		return nil, mapRepoErr(err, "refund")
	}

	s.Logger.Info("payment refunded",
		zap.String("paymentID", p.ID),
		zap.Float64("amount", amount),
		zap.Bool("full", full),
		zap.Bool("bookingCancelled", cancelled))
	s.Notifier.PaymentUpdated(ctx, booking, &refunded)
	s.publish(ctx, events.TypePaymentRefunded, booking, &refunded, actor)
	if cancelled {
		s.Bookings.AnnounceStatusChange(ctx, booking, bookingFrom, actor)
	}
	return &refunded, nil
}

func (s *DefaultPaymentService) ListPayments(ctx context.Context, bookingID string) ([]models.Payment, error) {
	if _, err := s.Bookings.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	payments, err := s.Repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, utils.InternalError(err, "failed to list payments")
	}
	return payments, nil
}

func (s *DefaultPaymentService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, utils.ValidationError("payment id is required")
	}
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "load")
	}
	return p, nil
}

func (s *DefaultPaymentService) gateway(provider models.PaymentProvider) (Gateway, error) {
	g, ok := s.Gateways[provider]
	if !ok || g == nil {
		return nil, utils.ValidationError("%s payments are not enabled", provider)
	}
	return g, nil
}

func (s *DefaultPaymentService) publish(ctx context.Context, eventType string, b *models.Booking, p *models.Payment, actor string) {
	event := events.BookingEvent{
		Type:       eventType,
		BookingID:  p.BookingID,
		Actor:      actor,
		OccurredAt: s.Now().UTC(),
		Attributes: map[string]string{
			"paymentId": p.ID,
			"provider":  string(p.Provider),
			"status":    string(p.PaymentStatus),
			"currency":  p.Currency,
		},
	}
	if b != nil {
		event.BookingNumber = b.BookingNumber
	}
	if err := s.Events.Publish(ctx, event); err != nil {
		s.Logger.Warn("failed to publish payment event",
			zap.String("type", eventType),
			zap.String("paymentID", p.ID),
			zap.Error(err))
	}
}

func mapRepoErr(err error, action string) error {
	var appErr *utils.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, database.ErrNotFound):
		return utils.NotFoundError("payment not found")
	case errors.Is(err, database.ErrVersionConflict):
		return utils.ConflictError("payment was modified concurrently, reload and retry")
	default:
		return utils.InternalError(err, "failed to %s payment", action)
	}
}
