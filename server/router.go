package server

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/metrics"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()
	r.Use(requestLogger())
	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Payment-Signature"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := s.Config.AccessControlAllowOrigin; origins != "" && origins != "*" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	rate := s.Config.VoteRateLimit
	if rate <= 0 {
		rate = 30
	}
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: uint(rate),
	})
	limitVotes := limitRate(store)

	router.GET("/health", s.handleHealth())
	gatherer := s.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apirouter := router.Group("/api/v1")
	apirouter.GET("/reports/:reportID", s.handleGetReport())
	apirouter.GET("/leaderboard", s.handleLeaderboard())
	apirouter.GET("/subscriptions/plans", s.handleListPlans())
	apirouter.POST("/payments/settlement", s.handlePaymentSettlement())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.POST("/reports", s.handleCreateReport())
	authorized.GET("/reports/mine", s.handleListMyReports())
	authorized.POST("/reports/:reportID/votes", limitVotes, s.handleCastVote())
	authorized.GET("/reports/:reportID/votes", s.handleGetVotes())
	authorized.POST("/subscriptions", s.handleActivateSubscription())
	authorized.GET("/wallet", s.handleGetWallet())

	admin := authorized.Group("/")
	admin.Use(s.RequireAdmin())
	admin.POST("/reports/:reportID/detect", s.handleRunDetection())
	admin.GET("/reports/:reportID/transitions", s.handleListTransitions())
	admin.POST("/admin/reports/:reportID/decision", s.handleAdminDecision())
	admin.POST("/rewards/:reportID/evaluate", s.handleEvaluateReward())
}

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.DB != nil && s.DB.DB != nil {
			sqlDB, err := s.DB.DB.DB()
			if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// requestLogger logs every request through zerolog and records its latency.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		metrics.RequestDuration.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Observe(latency.Seconds())

		event := logger.Log.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
