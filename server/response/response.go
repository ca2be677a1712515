package response

import (
	goerrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/logger"
)

// JSON writes the standard response envelope.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	errMessage := ""
	if err != nil {
		errMessage = err.Error()
	}
	responsedata := gin.H{
		"message":   message,
		"data":      data,
		"errors":    errMessage,
		"status":    http.StatusText(status),
		"timestamp": time.Now().Format("2006-01-02 15:04:05"),
	}

	c.JSON(status, responsedata)
}

// HandleErrors maps domain and validation errors onto their HTTP status.
// Anything unknown is logged and reported as a 500 without leaking details.
func HandleErrors(c *gin.Context, err error) {
	var appErr *errors.Error
	if goerrors.As(err, &appErr) {
		JSON(c, "", appErr.Status, nil, appErr)
		return
	}

	var verrs validator.ValidationErrors
	if goerrors.As(err, &verrs) {
		JSON(c, "", http.StatusBadRequest, nil, verrs)
		return
	}

	logger.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	JSON(c, "", http.StatusInternalServerError, nil, errors.ErrInternalServerError)
}
