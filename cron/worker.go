package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medbook/services/notification"
	"medbook/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const maxStartAttempts = 5

// WorkerOptions configures the notification worker.
type WorkerOptions struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// NotificationWorker consumes notify:* tasks and hands each to its channel sender.
type NotificationWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewNotificationWorker wires one handler per channel. Channels missing from senders are acknowledged and dropped.
func NewNotificationWorker(opts WorkerOptions, senders map[string]notification.Sender, logger *zap.Logger) *NotificationWorker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		},
		asynq.Config{
			Concurrency: opts.Concurrency,
			Queues: map[string]int{
				tasks.QueueNotifications: 1,
			},
		},
	)
	return &NotificationWorker{
		server: srv,
		mux:    NewNotificationMux(senders, logger),
		logger: logger,
	}
}

// NewNotificationMux routes every notification task type to its sender.
func NewNotificationMux(senders map[string]notification.Sender, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, taskType := range tasks.NotificationTypes {
		mux.HandleFunc(taskType, handleNotificationTask(senders[taskType], logger))
	}
	return mux
}

func handleNotificationTask(sender notification.Sender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseNotificationPayload(task)
		if err != nil {
			logger.Error("dropping malformed notification task", zap.String("type", task.Type()), zap.Error(err))
			return asynq.SkipRetry
		}
		if sender == nil {
			logger.Info("notification channel has no sender", zap.String("type", task.Type()))
			return nil
		}

		err = sender.Send(ctx, p)
		switch {
		case err == nil:
			logger.Debug("notification delivered",
				zap.String("type", task.Type()),
				zap.String("userID", p.UserID),
				zap.String("bookingID", p.BookingID))
			return nil
		case errors.Is(err, notification.ErrChannelDisabled):
			logger.Info("notification channel not configured, skipping", zap.String("type", task.Type()))
			return nil
		default:
			logger.Warn("notification delivery failed",
				zap.String("type", task.Type()),
				zap.String("userID", p.UserID),
				zap.Error(err))
			return err
		}
	}
}

// Start waits for the queue's Redis with a linear backoff and then starts processing in the background.
func (w *NotificationWorker) Start() error {
	for attempt := 1; ; attempt++ {
		err := w.server.Ping()
		if err == nil {
			break
		}
		w.logger.Warn("notification queue unreachable",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxStartAttempts),
			zap.Error(err))
		if attempt == maxStartAttempts {
			return fmt.Errorf("notification worker: queue unreachable after %d attempts: %w", attempt, err)
		}
		time.Sleep(time.Duration(attempt*2) * time.Second)
	}
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("notification worker: %w", err)
	}
	w.logger.Info("notification worker started")
	return nil
}

func (w *NotificationWorker) Shutdown() {
	w.server.Shutdown()
}
