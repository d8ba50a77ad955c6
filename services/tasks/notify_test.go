package tasks

import (
	"testing"

	"medbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationTaskCarriesPayload(t *testing.T) {
	payload := models.NotificationPayload{
		Type:      "booking_status",
		UserID:    "patient-1",
		BookingID: "b-1",
		Title:     "Booking accepted",
		Body:      "Your booking MT-20240101-ABC123 is now accepted.",
		Email:     "p@example.com",
	}

	task, opts, err := NewNotificationTask(TypeNotifyEmail, payload)
	require.NoError(t, err)
	assert.Equal(t, TypeNotifyEmail, task.Type())
	assert.Len(t, opts, 2)

	decoded, err := ParseNotificationPayload(task)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}
