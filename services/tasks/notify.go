package tasks

import (
	"encoding/json"
	"fmt"

	"medbook/models"

	"github.com/hibiken/asynq"
)

const (
	TypeNotifyEmail = "notify:email"
	TypeNotifySMS   = "notify:sms"
	TypeNotifyPush  = "notify:push"
	TypeNotifyInApp = "notify:inapp"

	QueueNotifications = "notifications"
	maxNotifyRetry     = 5
)

// NotificationTypes lists every channel task the worker must handle.
var NotificationTypes = []string{TypeNotifyEmail, TypeNotifySMS, TypeNotifyPush, TypeNotifyInApp}

func NewNotificationTask(taskType string, payload models.NotificationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	task := asynq.NewTask(taskType, b)
	opts := []asynq.Option{asynq.MaxRetry(maxNotifyRetry), asynq.Queue(QueueNotifications)}

	return task, opts, nil
}

func ParseNotificationPayload(t *asynq.Task) (models.NotificationPayload, error) {
	var p models.NotificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	return p, nil
}
