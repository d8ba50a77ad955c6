package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// RespondError writes err using its AppError kind. Internal errors never leak their cause.
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	status := StatusFor(err)

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind == KindInternal {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		JSONError(c, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}

	details := ""
	if appErr.Err != nil && appErr.Kind == KindGateway {
		logger.Warn("collaborator failure", zap.String("path", c.FullPath()), zap.Error(appErr.Err))
		details = appErr.Err.Error()
	}
	JSONError(c, status, appErr.Message, details)
}
