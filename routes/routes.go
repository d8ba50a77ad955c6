package routes

import (
	"time"

	"medbook/handlers"
	"medbook/middleware"
	"medbook/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterHealthRoute registers the unauthenticated health check.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterBookingRoutes sets up the booking lifecycle endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	bh, dh, ph := hb.Bookings, hb.Documents, hb.Payments
	staff := middleware.RequireStaff()

	bookings := api.Group("/bookings")
	{
		bookings.POST("", bh.CreateBookingHandler)
		bookings.GET("", staff, bh.ListBookingsHandler)
		bookings.GET("/number/:number", bh.GetBookingByNumberHandler)
		bookings.GET("/:id", bh.GetBookingHandler)
		bookings.PUT("/:id/status", staff, bh.UpdateStatusHandler)
		bookings.POST("/:id/cancel", bh.CancelBookingHandler)
		bookings.POST("/:id/review", staff, bh.ReviewBookingHandler)
		bookings.PUT("/:id/coordinator", staff, bh.AssignCoordinatorHandler)
		bookings.PUT("/:id/payloads/:kind", bh.AttachPayloadHandler)
		bookings.POST("/:id/feedback", bh.SubmitFeedbackHandler)

		bookings.POST("/:id/documents/:kind", dh.UploadDocumentHandler)
		bookings.GET("/:id/documents/:kind", dh.ListDocumentsHandler)
		bookings.GET("/:id/payments", ph.ListPaymentsHandler)
	}
}

// RegisterDocumentRoutes sets up document review and download endpoints.
func RegisterDocumentRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	docs := api.Group("/documents")
	{
		docs.PUT("/:kind/:docID/verify", middleware.RequireStaff(), hb.Documents.VerifyDocumentHandler)
		docs.GET("/:kind/:docID/url", hb.Documents.DocumentURLHandler)
	}
}

// RegisterPaymentRoutes sets up gateway payment endpoints.
func RegisterPaymentRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	ph := hb.Payments
	payments := api.Group("/payments")
	{
		payments.POST("/stripe", ph.CreateStripePaymentHandler)
		payments.POST("/razorpay", ph.CreateRazorpayPaymentHandler)
		payments.POST("/:id/verify/stripe", ph.VerifyStripePaymentHandler)
		payments.POST("/:id/verify/razorpay", ph.VerifyRazorpayPaymentHandler)
		payments.POST("/:id/refund", middleware.RequireStaff(), ph.RefundPaymentHandler)
	}
}

// RegisterNotificationRoutes sets up the in-app inbox endpoints.
func RegisterNotificationRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	notifications := api.Group("/notifications")
	{
		notifications.GET("", hb.Notifications.ListNotificationsHandler)
		notifications.PUT("/:id/read", hb.Notifications.MarkNotificationReadHandler)
	}
}

// RegisterAdminRoutes sets up endpoints reserved for admins.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	admin := api.Group("/admin")
	{
		admin.Use(middleware.RequireAdmin())
		admin.DELETE("/documents/:kind/:docID", hb.Documents.DeleteDocumentHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(utils.ErrorHandler(hb.Logger))
	r.Use(middleware.RequestLogger(hb.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	if hb.RateLimiter != nil {
		r.Use(hb.RateLimiter.Middleware(hb.Logger))
	}

	RegisterHealthRoute(r, hb)

	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(hb.Tokens))
	RegisterBookingRoutes(api, hb)
	RegisterDocumentRoutes(api, hb)
	RegisterPaymentRoutes(api, hb)
	RegisterNotificationRoutes(api, hb)
	RegisterAdminRoutes(api, hb)
}
