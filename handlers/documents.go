package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"medbook/models"
	"medbook/services/booking"
	"medbook/services/documents"
	"medbook/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const DefaultUploadMaxBytes int64 = 10 << 20

// AllowedDocumentTypes is the MIME allow-list for uploaded documents.
var AllowedDocumentTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/webp",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type DocumentHandler struct {
	Service  documents.DocumentService
	Bookings booking.BookingService
	MaxBytes int64
}

func (h *DocumentHandler) maxBytes() int64 {
	if h.MaxBytes <= 0 {
		return DefaultUploadMaxBytes
	}
	return h.MaxBytes
}

// authorizeBooking checks the caller may act on bookingID and writes the error response itself.
func (h *DocumentHandler) authorizeBooking(c *gin.Context, bookingID string) (utils.Principal, bool) {
	p, ok := principal(c)
	if !ok {
		return p, false
	}
	b, err := h.Bookings.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return p, false
	}
	if !canAccess(p, b) {
		forbidden(c)
		return p, false
	}
	return p, true
}

// UploadDocumentHandler handles POST /api/bookings/:id/documents/:kind (multipart field "file").
func (h *DocumentHandler) UploadDocumentHandler(c *gin.Context) {
	bookingID := c.Param("id")
	kind := models.DocumentKind(c.Param("kind"))
	if kind != models.DocumentInsurance && kind != models.DocumentMedical {
		respondError(c, utils.ValidationError("document kind must be insurance or medical"))
		return
	}
	p, ok := h.authorizeBooking(c, bookingID)
	if !ok {
		return
	}

	// Leave headroom for the multipart envelope so the size check below reports the real limit.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes()+1<<20)

	input := documents.UploadInput{
		DocumentType: c.PostForm("documentType"),
		UploadedBy:   p.ID,
	}
	if notes := c.PostForm("notes"); notes != "" {
		input.Meta = map[string]any{"notes": notes}
	}

	fileHeader, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.JSONError(c, http.StatusRequestEntityTooLarge, "File too large", "")
			return
		}
		badRequest(c, err)
		return
	case fileHeader.Size > h.maxBytes():
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "File too large",
			"maximum size is "+strconv.FormatInt(h.maxBytes(), 10)+" bytes")
		return
	case fileHeader.Size > 0:
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, utils.InternalError(err, "failed to read upload"))
			return
		}
		defer file.Close()

		contentType, err := sniffContentType(file)
		if err != nil {
			utils.JSONError(c, http.StatusUnsupportedMediaType, "Unsupported file type", err.Error())
			return
		}
		input.File = file
		input.Size = fileHeader.Size
		input.FileName = fileHeader.Filename
		input.ContentType = contentType
	}

	var doc *models.Document
	if kind == models.DocumentInsurance {
		doc, err = h.Service.UploadInsuranceDocument(c.Request.Context(), bookingID, input)
	} else {
		doc, err = h.Service.UploadMedicalDocument(c.Request.Context(), bookingID, input)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("document stored", zap.String("documentID", doc.ID), zap.String("contentType", doc.ContentType))
	c.JSON(http.StatusCreated, doc)
}

// sniffContentType detects the MIME type from the file's leading bytes and rewinds it.
func sniffContentType(file multipart.File) (string, error) {
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	for _, allowed := range AllowedDocumentTypes {
		if mtype.Is(allowed) {
			return allowed, nil
		}
	}
	return "", errors.New(mtype.String() + " is not an accepted document type")
}

// ListDocumentsHandler handles GET /api/bookings/:id/documents/:kind.
func (h *DocumentHandler) ListDocumentsHandler(c *gin.Context) {
	bookingID := c.Param("id")
	if _, ok := h.authorizeBooking(c, bookingID); !ok {
		return
	}
	docs, err := h.Service.ListDocuments(c.Request.Context(), bookingID, models.DocumentKind(c.Param("kind")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// VerifyDocumentHandler handles PUT /api/documents/:kind/:docID/verify.
func (h *DocumentHandler) VerifyDocumentHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	doc, err := h.Service.Verify(c.Request.Context(), models.DocumentKind(c.Param("kind")), c.Param("docID"), p.ID, req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DocumentURLHandler handles GET /api/documents/:kind/:docID/url?ttl=<minutes>.
func (h *DocumentHandler) DocumentURLHandler(c *gin.Context) {
	kind := models.DocumentKind(c.Param("kind"))
	doc, err := h.Service.GetDocument(c.Request.Context(), kind, c.Param("docID"))
	if err != nil {
		respondError(c, err)
		return
	}
	if _, ok := h.authorizeBooking(c, doc.BookingID); !ok {
		return
	}
	minutes, err := queryInt(c, "ttl")
	if err != nil {
		respondError(c, err)
		return
	}

	ttl := time.Duration(minutes) * time.Minute
	url, err := h.Service.DownloadURL(c.Request.Context(), kind, doc.ID, ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// DeleteDocumentHandler handles DELETE /api/admin/documents/:kind/:docID.
func (h *DocumentHandler) DeleteDocumentHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Service.AdminDelete(c.Request.Context(), models.DocumentKind(c.Param("kind")), c.Param("docID"), p.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}
