package models

import "time"

// BookingStatus is one value of the booking lifecycle vocabulary.
type BookingStatus string

const (
	StatusRequested             BookingStatus = "requested"
	StatusUnderReview           BookingStatus = "under_review"
	StatusAccepted              BookingStatus = "accepted"
	StatusRejected              BookingStatus = "rejected"
	StatusQuotationSent         BookingStatus = "quotation_sent"
	StatusPaymentDetails        BookingStatus = "payment_details"
	StatusConfirmationSent      BookingStatus = "confirmation_sent"
	StatusPaymentReceived       BookingStatus = "payment_received"
	StatusConfirmationCompleted BookingStatus = "confirmation_completed"
	StatusInvoiceSent           BookingStatus = "invoice_sent"
	StatusTravelArrangements    BookingStatus = "travel_arrangements"
	StatusConsultationScheduled BookingStatus = "consultation_scheduled"
	StatusInProgress            BookingStatus = "in_progress"
	StatusCompleted             BookingStatus = "completed"
	StatusFeedbackReceived      BookingStatus = "feedback_received"
	StatusCancelled             BookingStatus = "cancelled"
)

// Priority is a staff triage hint, independent of status.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRanks = map[Priority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
	PriorityUrgent: 4,
}

// Rank returns the triage ordering weight of p, or 0 when p is unknown.
func (p Priority) Rank() int {
	return priorityRanks[p]
}

// Booking is a patient's medical-tourism request tracked from inquiry to completion.
type Booking struct {
	ID            string        `bson:"id" json:"id"`
	BookingNumber string        `bson:"booking_number" json:"booking_number"` // Unique, human-facing reference
	PatientID     string        `bson:"patient_id" json:"patient_id"`
	HospitalID    string        `bson:"hospital_id,omitempty" json:"hospital_id,omitempty"`
	TreatmentID   string        `bson:"treatment_id,omitempty" json:"treatment_id,omitempty"`
	PackageID     string        `bson:"package_id,omitempty" json:"package_id,omitempty"`
	CoordinatorID string        `bson:"coordinator_id,omitempty" json:"coordinator_id,omitempty"`
	Status        BookingStatus `bson:"status" json:"status"`
	SubStatus     string        `bson:"sub_status,omitempty" json:"sub_status,omitempty"`
	Priority      Priority      `bson:"priority" json:"priority"`
	PriorityRank  int           `bson:"priority_rank" json:"-"`

	RequestedDate  time.Time  `bson:"requested_date" json:"requested_date"`
	ConfirmedDate  *time.Time `bson:"confirmed_date,omitempty" json:"confirmed_date,omitempty"`
	CompletionDate *time.Time `bson:"completion_date,omitempty" json:"completion_date,omitempty"`

	TotalAmount   float64       `bson:"total_amount" json:"total_amount"`
	Currency      string        `bson:"currency" json:"currency"` // ISO 4217
	PaymentStatus PaymentStatus `bson:"payment_status" json:"payment_status"`

	MedicalDetails   *Payload `bson:"medical_details,omitempty" json:"medical_details,omitempty"`
	QuotationDetails *Payload `bson:"quotation_details,omitempty" json:"quotation_details,omitempty"`
	TravelDetails    *Payload `bson:"travel_details,omitempty" json:"travel_details,omitempty"`

	Review   *Review   `bson:"review,omitempty" json:"review,omitempty"`
	Feedback *Feedback `bson:"feedback,omitempty" json:"feedback,omitempty"`

	CancellationReason string     `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	CancelledBy        string     `bson:"cancelled_by,omitempty" json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`

	Contact       Contact       `bson:"contact" json:"contact"`
	StatusHistory []StatusEvent `bson:"status_history" json:"status_history"`

	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Contact carries the channels notifications are delivered on.
type Contact struct {
	Name      string `bson:"name,omitempty" json:"name,omitempty"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
	PushToken string `bson:"push_token,omitempty" json:"push_token,omitempty"`
}

// StatusEvent is one entry of the booking audit trail.
type StatusEvent struct {
	From      BookingStatus `bson:"from,omitempty" json:"from,omitempty"`
	To        BookingStatus `bson:"to" json:"to"`
	Notes     string        `bson:"notes,omitempty" json:"notes,omitempty"`
	ChangedBy string        `bson:"changed_by,omitempty" json:"changed_by,omitempty"`
	ChangedAt time.Time     `bson:"changed_at" json:"changed_at"`
}

// Review is the staff review recorded before a booking proceeds.
type Review struct {
	ReviewerID             string    `bson:"reviewer_id" json:"reviewer_id"`
	IsApproved             *bool     `bson:"is_approved,omitempty" json:"is_approved,omitempty"`
	ReviewStatus           string    `bson:"review_status,omitempty" json:"review_status,omitempty"`
	ReviewNotes            string    `bson:"review_notes,omitempty" json:"review_notes,omitempty"`
	ReasonsForRejection    []string  `bson:"reasons_for_rejection,omitempty" json:"reasons_for_rejection,omitempty"`
	EstimatedTreatmentCost *float64  `bson:"estimated_treatment_cost,omitempty" json:"estimated_treatment_cost,omitempty"`
	EstimatedDurationDays  *int      `bson:"estimated_duration_days,omitempty" json:"estimated_duration_days,omitempty"`
	ReviewedAt             time.Time `bson:"reviewed_at" json:"reviewed_at"`
}

// Feedback is the patient's rating of a completed booking.
type Feedback struct {
	Rating      int       `bson:"rating" json:"rating"` // 1..5
	Comment     string    `bson:"comment,omitempty" json:"comment,omitempty"`
	SubmittedBy string    `bson:"submitted_by" json:"submitted_by"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
}

// IsCancelled reports whether the booking carries a cancellation stamp.
func (b *Booking) IsCancelled() bool {
	return b.CancelledAt != nil
}
