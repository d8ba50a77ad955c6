package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway opens and settles payments through Stripe PaymentIntents.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("failed to create stripe payment intent: %w", err)
	}
	return Intent{Reference: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) Verify(ctx context.Context, reference string, _ VerifyInput) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(reference, params)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve stripe payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return "", fmt.Errorf("stripe payment intent %s is %s", pi.ID, pi.Status)
	}
	return pi.ID, nil
}

func (g *StripeGateway) ClientSecret(ctx context.Context, reference string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(reference, params)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve stripe payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}

func (g *StripeGateway) Refund(ctx context.Context, reference, _ string, amountMinor int64, reason string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
		Amount:        stripe.Int64(amountMinor),
	}
	params.Context = ctx
	params.AddMetadata("reason", reason)
	r, err := g.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to refund stripe payment intent: %w", err)
	}
	return r.ID, nil
}
