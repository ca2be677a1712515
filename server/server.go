package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/techagentng/challanx/config"
	"github.com/techagentng/challanx/db"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/services"
)

// Server holds the HTTP layer's dependencies.
type Server struct {
	Config              *config.Config
	DB                  *db.GormDB
	ReportService       services.ReportService
	VerificationService services.VerificationService
	VoteService         services.VoteService
	RewardService       services.RewardService
	PaymentService      services.PaymentService
	SubscriptionService services.SubscriptionService
	Gatherer            prometheus.Gatherer
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests.
func (s *Server) Start() {
	r := s.setupRouter()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Config.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info().Int("port", s.Config.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Log.Info().Msg("server exiting")
}
