package notification

import (
	"context"
	"fmt"
	"strings"

	"medbook/models"
	"medbook/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Notifier is the notification collaborator of the booking workflow. Delivery is best effort:
// implementations log failures and never report them to the caller.
type Notifier interface {
	BookingStatusChanged(ctx context.Context, booking *models.Booking, from models.BookingStatus)
	PaymentUpdated(ctx context.Context, booking *models.Booking, payment *models.Payment)
	DocumentVerified(ctx context.Context, booking *models.Booking, doc *models.Document)
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier fans a notification out into one asynq task per reachable channel.
// The in-app inbox is always written.
type QueueNotifier struct {
	queue  Enqueuer
	logger *zap.Logger
}

func NewQueueNotifier(queue Enqueuer, logger *zap.Logger) *QueueNotifier {
	return &QueueNotifier{queue: queue, logger: logger}
}

func (n *QueueNotifier) BookingStatusChanged(ctx context.Context, booking *models.Booking, from models.BookingStatus) {
	title, body := statusMessage(booking)
	n.dispatch(ctx, booking, models.NotificationPayload{
		Type:  "booking_status",
		Title: title,
		Body:  body,
		Data: map[string]string{
			"from":   string(from),
			"status": string(booking.Status),
		},
	})
}

func (n *QueueNotifier) PaymentUpdated(ctx context.Context, booking *models.Booking, payment *models.Payment) {
	title := "Payment " + humanize(string(payment.PaymentStatus))
	body := fmt.Sprintf("Your %s payment of %.2f %s for booking %s is %s.",
		payment.Provider, payment.Amount, payment.Currency, booking.BookingNumber, humanize(string(payment.PaymentStatus)))
	if payment.RefundAmount > 0 {
		body = fmt.Sprintf("A refund of %.2f %s for booking %s has been issued.",
			payment.RefundAmount, payment.Currency, booking.BookingNumber)
	}
	n.dispatch(ctx, booking, models.NotificationPayload{
		Type:  "payment",
		Title: title,
		Body:  body,
		Data: map[string]string{
			"paymentId":     payment.ID,
			"paymentStatus": string(payment.PaymentStatus),
		},
	})
}

func (n *QueueNotifier) DocumentVerified(ctx context.Context, booking *models.Booking, doc *models.Document) {
	n.dispatch(ctx, booking, models.NotificationPayload{
		Type:  "document",
		Title: fmt.Sprintf("Document %s", doc.VerificationStatus),
		Body: fmt.Sprintf("Your %s document %q for booking %s was %s.",
			doc.Kind, doc.FileName, booking.BookingNumber, doc.VerificationStatus),
		Data: map[string]string{
			"documentId": doc.ID,
			"kind":       string(doc.Kind),
		},
	})
}

func (n *QueueNotifier) dispatch(ctx context.Context, booking *models.Booking, payload models.NotificationPayload) {
	payload.UserID = booking.PatientID
	payload.BookingID = booking.ID
	payload.Email = booking.Contact.Email
	payload.Phone = booking.Contact.Phone
	payload.PushToken = booking.Contact.PushToken
	if payload.Data == nil {
		payload.Data = map[string]string{}
	}
	payload.Data["bookingId"] = booking.ID
	payload.Data["bookingNumber"] = booking.BookingNumber

	for _, taskType := range channelsFor(payload) {
		task, opts, err := tasks.NewNotificationTask(taskType, payload)
		if err != nil {
			n.logger.Warn("failed to build notification task", zap.String("type", taskType), zap.Error(err))
			continue
		}
		if _, err := n.queue.EnqueueContext(ctx, task, opts...); err != nil {
			n.logger.Warn("failed to enqueue notification",
				zap.String("type", taskType),
				zap.String("bookingID", booking.ID),
				zap.Error(err))
		}
	}
}

func channelsFor(p models.NotificationPayload) []string {
	channels := []string{tasks.TypeNotifyInApp}
	if p.Email != "" {
		channels = append(channels, tasks.TypeNotifyEmail)
	}
	if p.Phone != "" {
		channels = append(channels, tasks.TypeNotifySMS)
	}
	if p.PushToken != "" {
		channels = append(channels, tasks.TypeNotifyPush)
	}
	return channels
}

func statusMessage(b *models.Booking) (string, string) {
	status := humanize(string(b.Status))
	title := "Booking " + status
	switch b.Status {
	case models.StatusCancelled:
		return title, fmt.Sprintf("Your booking %s was cancelled: %s", b.BookingNumber, b.CancellationReason)
	case models.StatusRejected:
		return title, fmt.Sprintf("Your booking %s could not be accepted. Our team will contact you with details.", b.BookingNumber)
	default:
		return title, fmt.Sprintf("Your booking %s is now %s.", b.BookingNumber, status)
	}
}

func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
