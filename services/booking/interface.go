package booking

import (
	"context"
	"time"

	"medbook/database"
	bookingRepo "medbook/database/repository/booking"
	"medbook/models"
	"medbook/services/events"
	"medbook/services/notification"

	"go.uber.org/zap"
)

// BookingService is the booking lifecycle workflow.
type BookingService interface {
	CreateBooking(ctx context.Context, input CreateBookingInput, actor string) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter bookingRepo.BookingFilter) (*BookingPage, error)

	UpdateBookingStatus(ctx context.Context, id string, newStatus models.BookingStatus, notes, actor string) (*models.Booking, error)
	CancelBooking(ctx context.Context, id, reason, actor string) (*models.Booking, error)
	ReviewBooking(ctx context.Context, id, staffID string, input ReviewInput) (*models.Booking, error)

	AssignCoordinator(ctx context.Context, id, coordinatorID, actor string) (*models.Booking, error)
	AttachPayload(ctx context.Context, id string, payload models.Payload, actor string) (*models.Booking, error)
	SubmitFeedback(ctx context.Context, id string, input FeedbackInput, actor string) (*models.Booking, error)

	// ApplyPaymentStatus and CancelForRefund run inside the caller's transaction and do not
	// notify. The caller announces the change with AnnounceStatusChange after commit.
	ApplyPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Booking, error)
	CancelForRefund(ctx context.Context, id, reason, actor string) (*models.Booking, bool, error)
	AnnounceStatusChange(ctx context.Context, booking *models.Booking, from models.BookingStatus, actor string)
}

type CreateBookingInput struct {
	PatientID      string          `json:"patientId"`
	HospitalID     string          `json:"hospitalId"`
	TreatmentID    string          `json:"treatmentId"`
	PackageID      string          `json:"packageId"`
	Priority       models.Priority `json:"priority"`
	TotalAmount    float64         `json:"totalAmount"`
	Currency       string          `json:"currency"`
	Contact        models.Contact  `json:"contact"`
	MedicalDetails *models.Payload `json:"medicalDetails"`
}

type ReviewInput struct {
	IsApproved             *bool    `json:"isApproved"`
	ReviewStatus           string   `json:"reviewStatus"`
	ReviewNotes            string   `json:"reviewNotes"`
	ReasonsForRejection    []string `json:"reasonsForRejection"`
	EstimatedTreatmentCost *float64 `json:"estimatedTreatmentCost"`
	EstimatedDurationDays  *int     `json:"estimatedDurationDays"`
}

type FeedbackInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type BookingPage struct {
	Items    []models.Booking `json:"items"`
	Total    int64            `json:"total"`
	Page     int64            `json:"page"`
	PageSize int64            `json:"pageSize"`
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo     bookingRepo.BookingRepository
	Tx       database.Transactor
	Notifier notification.Notifier
	Events   events.Publisher
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewBookingService(
	repo bookingRepo.BookingRepository,
	tx database.Transactor,
	notifier notification.Notifier,
	publisher events.Publisher,
	logger *zap.Logger,
) *DefaultBookingService {
	return &DefaultBookingService{
		Repo:     repo,
		Tx:       tx,
		Notifier: notifier,
		Events:   publisher,
		Logger:   logger,
		Now:      time.Now,
	}
}
