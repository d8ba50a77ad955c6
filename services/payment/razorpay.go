package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	rzputils "github.com/razorpay/razorpay-go/utils"
)

// RazorpayGateway opens payments as Razorpay orders and checks the checkout signature.
// The razorpay client does not take a context.
type RazorpayGateway struct {
	client *razorpay.Client
	secret string
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret), secret: keySecret}
}

func (g *RazorpayGateway) CreateIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (Intent, error) {
	notes := map[string]interface{}{}
	for k, v := range metadata {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  metadata["paymentId"],
		"notes":    notes,
	}
	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return Intent{}, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return Intent{}, fmt.Errorf("razorpay order response has no id")
	}
	return Intent{Reference: id}, nil
}

func (g *RazorpayGateway) Verify(_ context.Context, reference string, input VerifyInput) (string, error) {
	attrs := map[string]interface{}{
		"razorpay_order_id":   reference,
		"razorpay_payment_id": input.PaymentID,
	}
	if !rzputils.VerifyPaymentSignature(attrs, input.Signature, g.secret) {
		return "", ErrSignatureMismatch
	}
	return input.PaymentID, nil
}

// ClientSecret is empty for Razorpay; checkout only needs the order id.
func (g *RazorpayGateway) ClientSecret(context.Context, string) (string, error) {
	return "", nil
}

func (g *RazorpayGateway) Refund(_ context.Context, _, gatewayPaymentID string, amountMinor int64, reason string) (string, error) {
	data := map[string]interface{}{
		"notes": map[string]interface{}{"reason": reason},
	}
	refund, err := g.client.Payment.Refund(gatewayPaymentID, int(amountMinor), data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to refund razorpay payment: %w", err)
	}
	id, _ := refund["id"].(string)
	return id, nil
}
