package cron

import (
	"context"
	"errors"
	"testing"

	"medbook/models"
	"medbook/services/notification"
	"medbook/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSender struct {
	sent []models.NotificationPayload
	err  error
}

func (s *stubSender) Send(_ context.Context, p models.NotificationPayload) error {
	s.sent = append(s.sent, p)
	return s.err
}

func task(t *testing.T, taskType string) *asynq.Task {
	t.Helper()
	tk, _, err := tasks.NewNotificationTask(taskType, models.NotificationPayload{
		UserID:    "patient-1",
		BookingID: "booking-1",
		Title:     "Booking accepted",
		Email:     "patient@example.com",
	})
	require.NoError(t, err)
	return tk
}

func TestMuxRoutesTaskToChannelSender(t *testing.T) {
	email := &stubSender{}
	inbox := &stubSender{}
	mux := NewNotificationMux(map[string]notification.Sender{
		tasks.TypeNotifyEmail: email,
		tasks.TypeNotifyInApp: inbox,
	}, zap.NewNop())

	require.NoError(t, mux.ProcessTask(context.Background(), task(t, tasks.TypeNotifyEmail)))
	require.Len(t, email.sent, 1)
	assert.Equal(t, "patient@example.com", email.sent[0].Email)
	assert.Empty(t, inbox.sent)

	assert.NoError(t, mux.ProcessTask(context.Background(), task(t, tasks.TypeNotifySMS)), "unwired channel is dropped")
}

func TestDeliveryErrorIsRetried(t *testing.T) {
	push := &stubSender{err: errors.New("fcm unavailable")}
	mux := NewNotificationMux(map[string]notification.Sender{tasks.TypeNotifyPush: push}, zap.NewNop())

	err := mux.ProcessTask(context.Background(), task(t, tasks.TypeNotifyPush))
	assert.Error(t, err)
}

func TestDisabledChannelIsAcknowledged(t *testing.T) {
	sms := &stubSender{err: notification.ErrChannelDisabled}
	mux := NewNotificationMux(map[string]notification.Sender{tasks.TypeNotifySMS: sms}, zap.NewNop())

	assert.NoError(t, mux.ProcessTask(context.Background(), task(t, tasks.TypeNotifySMS)))
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	mux := NewNotificationMux(map[string]notification.Sender{tasks.TypeNotifyInApp: &stubSender{}}, zap.NewNop())

	err := mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeNotifyInApp, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
