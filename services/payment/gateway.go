package payment

import (
	"context"
	"errors"
)

// ErrSignatureMismatch is returned by a gateway when callback identifiers do not verify.
var ErrSignatureMismatch = errors.New("payment signature verification failed")

// Intent is what a gateway hands back when a payment is opened.
type Intent struct {
	Reference    string // Stripe PaymentIntent id or Razorpay order id
	ClientSecret string
}

// VerifyInput carries the identifiers a client reports after paying.
type VerifyInput struct {
	IntentID  string
	OrderID   string
	PaymentID string
	Signature string
}

// Gateway is the payment-gateway collaborator for one provider. Amounts are in minor units.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error)
	// Verify confirms that reference was paid and returns the gateway's payment id.
	Verify(ctx context.Context, reference string, input VerifyInput) (string, error)
	// ClientSecret returns the client-side handle of an already opened reference, or "" when the
	// provider has none.
	ClientSecret(ctx context.Context, reference string) (string, error)
	// Refund returns the gateway's refund id.
	Refund(ctx context.Context, reference, gatewayPaymentID string, amountMinor int64, reason string) (string, error)
}
