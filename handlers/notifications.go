package handlers

import (
	"context"
	"net/http"

	"medbook/models"

	"github.com/gin-gonic/gin"
)

// Inbox is satisfied by *notification.InboxService.
type Inbox interface {
	List(ctx context.Context, userID string, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type NotificationHandler struct {
	Inbox Inbox
}

// ListNotificationsHandler handles GET /api/notifications?limit=N.
func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.Inbox.List(c.Request.Context(), p.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkNotificationReadHandler handles PUT /api/notifications/:id/read.
func (h *NotificationHandler) MarkNotificationReadHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Inbox.MarkRead(c.Request.Context(), p.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
