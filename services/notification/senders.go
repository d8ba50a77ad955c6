package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	notificationRepo "medbook/database/repository/notification"
	"medbook/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gopkg.in/gomail.v2"
)

// ErrChannelDisabled marks a delivery skipped because the channel has no configuration.
var ErrChannelDisabled = errors.New("notification channel not configured")

// Sender delivers one notification payload over one channel.
type Sender interface {
	Send(ctx context.Context, p models.NotificationPayload) error
}

// EmailSender delivers over SMTP.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailSender(host string, port int, username, password, from string) *EmailSender {
	if host == "" {
		return nil
	}
	return &EmailSender{dialer: gomail.NewDialer(host, port, username, password), from: from}
}

func (s *EmailSender) Send(_ context.Context, p models.NotificationPayload) error {
	if s == nil {
		return ErrChannelDisabled
	}
	if p.Email == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", p.Email)
	m.SetHeader("Subject", p.Title)
	m.SetBody("text/plain", p.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", p.Email, err)
	}
	return nil
}

// SMSSender delivers through the Twilio messaging API.
type SMSSender struct {
	client *twilio.RestClient
	from   string
}

func NewSMSSender(accountSID, authToken, from string) *SMSSender {
	if accountSID == "" || authToken == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMSSender{client: client, from: from}
}

func (s *SMSSender) Send(_ context.Context, p models.NotificationPayload) error {
	if s == nil {
		return ErrChannelDisabled
	}
	if p.Phone == "" {
		return nil
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(p.Phone)
	params.SetFrom(s.from)
	params.SetBody(p.Title + ": " + p.Body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send sms to %s: %w", p.Phone, err)
	}
	return nil
}

// PushSender delivers FCM pushes.
type PushSender struct {
	client *messaging.Client
}

func NewPushSender(client *messaging.Client) *PushSender {
	if client == nil {
		return nil
	}
	return &PushSender{client: client}
}

func (s *PushSender) Send(ctx context.Context, p models.NotificationPayload) error {
	if s == nil {
		return ErrChannelDisabled
	}
	if p.PushToken == "" {
		return nil
	}
	data := map[string]string{"type": p.Type}
	for k, v := range p.Data {
		data[k] = v
	}
	msg := &messaging.Message{
		Token: p.PushToken,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}

// InboxSender writes the notification to the user's in-app inbox.
type InboxSender struct {
	repo notificationRepo.NotificationRepository
	now  func() time.Time
}

func NewInboxSender(repo notificationRepo.NotificationRepository) *InboxSender {
	return &InboxSender{repo: repo, now: time.Now}
}

func (s *InboxSender) Send(ctx context.Context, p models.NotificationPayload) error {
	if p.UserID == "" {
		return nil
	}
	data := make(map[string]any, len(p.Data))
	for k, v := range p.Data {
		data[k] = v
	}
	now := s.now().UTC()
	return s.repo.Create(ctx, &models.Notification{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		Type:      p.Type,
		Title:     p.Title,
		Body:      p.Body,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
