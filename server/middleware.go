package server

import (
	"net/http"
	"strings"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/models"
	"github.com/techagentng/challanx/server/response"
	"github.com/techagentng/challanx/services/jwt"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// Authorize validates the bearer token and stores the caller's id and role on
// the context. Tokens are issued by the auth service.
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		accessClaims, err := jwt.ValidateAndGetClaims(accessToken, s.Config.JWTSecret)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		rawID, _ := accessClaims["id"].(string)
		userID, err := uuid.Parse(rawID)
		if err != nil {
			respondAndAbort(c, "", http.StatusBadRequest, nil, errs.New("invalid user id in token", http.StatusBadRequest))
			return
		}
		role, _ := accessClaims["role"].(string)

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, role)
		c.Set("access_token", accessToken)
		c.Next()
	}
}

// RequireAdmin must run after Authorize.
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(ctxRole); role != models.RoleAdmin {
			respondAndAbort(c, "", http.StatusForbidden, nil, errs.ErrForbidden)
			return
		}
		c.Next()
	}
}

func limitRate(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errs.ErrorHandler,
		KeyFunc:      keyFunc,
	})
}

// keyFunc limits per user, falling back to the client address.
func keyFunc(c *gin.Context) string {
	if id, ok := c.Get(ctxUserID); ok {
		if userID, ok := id.(uuid.UUID); ok {
			return userID.String()
		}
	}
	return c.ClientIP()
}

// respondAndAbort calls response.JSON and aborts the Context
func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e *errs.Error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}

// getTokenFromHeader returns the token string in the authorization header
func getTokenFromHeader(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") && len(authHeader) > 7 {
		return authHeader[7:]
	}
	return ""
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := id.(uuid.UUID)
	return userID, ok
}
