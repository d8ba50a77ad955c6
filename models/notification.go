package models

import "time"

type Notification struct {
	ID        string         `bson:"id" json:"id"`
	UserID    string         `bson:"user_id" json:"userId"`
	Type      string         `bson:"type" json:"type"`
	Title     string         `bson:"title" json:"title"`
	Body      string         `bson:"body" json:"body"`
	Data      map[string]any `bson:"data,omitempty" json:"data,omitempty"`
	Read      bool           `bson:"read" json:"read"`
	CreatedAt time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `bson:"updated_at" json:"updatedAt"`
}

// NotificationPayload is the asynq task body shared by every delivery channel.
type NotificationPayload struct {
	Type      string            `json:"type"`
	UserID    string            `json:"userId"`
	BookingID string            `json:"bookingId,omitempty"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	PushToken string            `json:"pushToken,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}
