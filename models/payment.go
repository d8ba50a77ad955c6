package models

import "time"

// PaymentStatus is the payment progress vocabulary. It is shared by Payment rows and the
// booking's payment_status sub-state but never mixed with BookingStatus.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentPartial    PaymentStatus = "partial"
)

type PaymentProvider string

const (
	ProviderStripe   PaymentProvider = "stripe"
	ProviderRazorpay PaymentProvider = "razorpay"
)

// Payment is one payment attempt against a booking.
type Payment struct {
	ID            string          `bson:"id" json:"id"`
	BookingID     string          `bson:"booking_id" json:"booking_id"`
	UserID        string          `bson:"user_id" json:"user_id"`
	Provider      PaymentProvider `bson:"provider" json:"provider"`
	Amount        float64         `bson:"amount" json:"amount"`
	Currency      string          `bson:"currency" json:"currency"`
	PaymentStatus PaymentStatus   `bson:"payment_status" json:"payment_status"`

	// Gateway identifiers.
	StripeIntentID    string `bson:"stripe_intent_id,omitempty" json:"stripe_intent_id,omitempty"`
	RazorpayOrderID   string `bson:"razorpay_order_id,omitempty" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string `bson:"razorpay_payment_id,omitempty" json:"razorpay_payment_id,omitempty"`
	ClientSecret      string `bson:"-" json:"client_secret,omitempty"` // Returned once, never stored

	CompletedDate *time.Time `bson:"completed_date,omitempty" json:"completed_date,omitempty"`

	RefundAmount float64    `bson:"refund_amount,omitempty" json:"refund_amount,omitempty"`
	RefundStatus string     `bson:"refund_status,omitempty" json:"refund_status,omitempty"`
	RefundDate   *time.Time `bson:"refund_date,omitempty" json:"refund_date,omitempty"`
	RefundReason string     `bson:"refund_reason,omitempty" json:"refund_reason,omitempty"`
	RefundID     string     `bson:"refund_id,omitempty" json:"refund_id,omitempty"`
	RefundedBy   string     `bson:"refunded_by,omitempty" json:"refunded_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GatewayReference returns the identifier the gateway issued at creation time.
func (p *Payment) GatewayReference() string {
	if p.Provider == ProviderRazorpay {
		return p.RazorpayOrderID
	}
	return p.StripeIntentID
}
