package errors

import (
	"net/http"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Error is an error that knows which HTTP status it should be reported with.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(message string, status int) *Error {
	return &Error{Message: message, Status: status}
}

var (
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	ErrForbidden           = New("forbidden", http.StatusForbidden)
	ErrTooManyRequests     = New("too many requests", http.StatusTooManyRequests)

	ErrReportNotFound    = New("report not found", http.StatusNotFound)
	ErrProfileNotFound   = New("profile not found", http.StatusNotFound)
	ErrPlanNotFound      = New("subscription plan not found", http.StatusNotFound)
	ErrPaymentNotFound   = New("challan payment not found", http.StatusNotFound)
	ErrInvalidVote       = New("vote type must be upvote or downvote", http.StatusBadRequest)
	ErrInvalidDecision   = New("decision must be approved_by_admin or rejected", http.StatusBadRequest)
	ErrInvalidSettlement = New("invalid payment settlement event", http.StatusBadRequest)
	ErrInvalidViolation  = New("unknown violation type", http.StatusBadRequest)
	ErrInvalidReport     = New("invalid report", http.StatusBadRequest)
	ErrUnverifiedPayment = New("payment could not be verified", http.StatusUnauthorized)
)

// ErrorHandler is the rate limiter's rejection handler.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"message": "too many requests, try again after " + info.ResetTime.Format("15:04:05"),
		"errors":  ErrTooManyRequests.Message,
		"status":  http.StatusText(http.StatusTooManyRequests),
	})
}
