package server

import (
	"encoding/json"
	goerrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/models"
	"github.com/techagentng/challanx/server/response"
)

// decode reads a JSON body into v, trims it and runs its binding rules.
func decode(c *gin.Context, v interface{}) []error {
	if err := json.NewDecoder(c.Request.Body).Decode(v); err != nil {
		return []error{err}
	}
	return models.ValidateStruct(v)
}

func respondInvalid(c *gin.Context, problems []error) {
	response.JSON(c, "invalid request", http.StatusBadRequest, nil, goerrors.Join(problems...))
}

func reportIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("reportID"))
	if err != nil {
		response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid report id", http.StatusBadRequest))
		return uuid.Nil, false
	}
	return id, true
}

func mustUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// limitParam reads an optional positive ?limit=; zero means the service default.
func limitParam(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		response.JSON(c, "", http.StatusBadRequest, nil, errs.New("limit must be a positive integer", http.StatusBadRequest))
		return 0, false
	}
	return limit, true
}
