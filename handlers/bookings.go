package handlers

import (
	"net/http"
	"strconv"

	bookingRepo "medbook/database/repository/booking"
	"medbook/models"
	"medbook/services/booking"
	"medbook/utils"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	Service booking.BookingService
}

// loadBooking fetches :id and checks the caller may see it. It writes the error response itself.
func (h *BookingHandler) loadBooking(c *gin.Context) (*models.Booking, utils.Principal, bool) {
	p, ok := principal(c)
	if !ok {
		return nil, p, false
	}
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, p, false
	}
	if !canAccess(p, b) {
		forbidden(c)
		return nil, p, false
	}
	return b, p, true
}

// CreateBookingHandler handles POST /api/bookings. Patients always book for themselves.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var input booking.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if !p.IsStaff() || input.PatientID == "" {
		input.PatientID = p.ID
	}
	if input.Contact.Email == "" && input.PatientID == p.ID {
		input.Contact.Email = p.Email
	}

	b, err := h.Service.CreateBooking(c.Request.Context(), input, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// ListBookingsHandler handles GET /api/bookings, the staff triage list.
func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	filter := bookingRepo.BookingFilter{
		PatientID:     c.Query("patientId"),
		CoordinatorID: c.Query("coordinatorId"),
		Status:        models.BookingStatus(c.Query("status")),
		Priority:      models.Priority(c.Query("priority")),
	}
	var err error
	if filter.Page, err = queryInt(c, "page"); err != nil {
		respondError(c, err)
		return
	}
	if filter.PageSize, err = queryInt(c, "pageSize"); err != nil {
		respondError(c, err)
		return
	}

	page, err := h.Service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func queryInt(c *gin.Context, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, utils.ValidationError("%s must be a non-negative integer", key)
	}
	return n, nil
}

// GetBookingHandler handles GET /api/bookings/:id.
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, _, ok := h.loadBooking(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetBookingByNumberHandler handles GET /api/bookings/number/:number.
func (h *BookingHandler) GetBookingByNumberHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := h.Service.GetBookingByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !canAccess(p, b) {
		forbidden(c)
		return
	}
	c.JSON(http.StatusOK, b)
}

// UpdateStatusHandler handles PUT /api/bookings/:id/status.
func (h *BookingHandler) UpdateStatusHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req struct {
		Status models.BookingStatus `json:"status" binding:"required"`
		Notes  string               `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.Service.UpdateBookingStatus(c.Request.Context(), c.Param("id"), req.Status, req.Notes, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBookingHandler handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	_, p, ok := h.loadBooking(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.Service.CancelBooking(c.Request.Context(), c.Param("id"), req.Reason, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ReviewBookingHandler handles POST /api/bookings/:id/review.
func (h *BookingHandler) ReviewBookingHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var input booking.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.Service.ReviewBooking(c.Request.Context(), c.Param("id"), p.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// AssignCoordinatorHandler handles PUT /api/bookings/:id/coordinator.
func (h *BookingHandler) AssignCoordinatorHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req struct {
		CoordinatorID string `json:"coordinatorId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.Service.AssignCoordinator(c.Request.Context(), c.Param("id"), req.CoordinatorID, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// AttachPayloadHandler handles PUT /api/bookings/:id/payloads/:kind. Patients may only
// supply medical details.
func (h *BookingHandler) AttachPayloadHandler(c *gin.Context) {
	_, p, ok := h.loadBooking(c)
	if !ok {
		return
	}
	kind := models.PayloadKind(c.Param("kind"))
	if !p.IsStaff() && kind != models.PayloadMedical {
		respondError(c, utils.AuthorizationError("Only staff can attach %s details", kind))
		return
	}
	var payload models.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	if payload.Kind == "" {
		payload.Kind = kind
	} else if payload.Kind != kind {
		respondError(c, utils.ValidationError("payload kind %q does not match %q", payload.Kind, kind))
		return
	}
	b, err := h.Service.AttachPayload(c.Request.Context(), c.Param("id"), payload, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// SubmitFeedbackHandler handles POST /api/bookings/:id/feedback.
func (h *BookingHandler) SubmitFeedbackHandler(c *gin.Context) {
	_, p, ok := h.loadBooking(c)
	if !ok {
		return
	}
	var input booking.FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.Service.SubmitFeedback(c.Request.Context(), c.Param("id"), input, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
