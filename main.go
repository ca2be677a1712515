package main

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/techagentng/challanx/config"
	"github.com/techagentng/challanx/db"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/metrics"
	"github.com/techagentng/challanx/server"
	"github.com/techagentng/challanx/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger.Init(conf.LogLevel, "challanx")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	notifier, err := services.NewFirebaseNotifier(context.Background(), conf.FirebaseCredentials)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("error initializing firebase")
	}

	mediaRepo, err := db.NewS3MediaRepo(conf)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("error initializing media storage")
	}

	gormDB := db.GetDB(conf)
	reportRepo := db.NewReportRepo(gormDB)
	voteRepo := db.NewVoteRepo(gormDB)
	paymentRepo := db.NewPaymentRepo(gormDB)
	rewardRepo := db.NewRewardRepo(gormDB)
	profileRepo := db.NewProfileRepo(gormDB)
	planRepo := db.NewPlanRepo(gormDB)

	cache := services.NewCacheService(conf.RedisURL)
	defer cache.Close()

	rewardService := services.NewRewardService(rewardRepo, reportRepo, paymentRepo, profileRepo, notifier, conf)
	verificationService := services.NewVerificationService(reportRepo, profileRepo, rewardService, cache, notifier, conf)
	detectionService := services.NewDetectionService(mediaRepo, &http.Client{}, conf)
	reportService := services.NewReportService(reportRepo, voteRepo, profileRepo, detectionService, verificationService, cache, services.DefaultChallanSchedule(), conf)
	voteService := services.NewVoteService(voteRepo, reportRepo, verificationService, cache, conf)
	paymentService := services.NewPaymentService(paymentRepo, rewardService, services.PassthroughVerifier{}, conf)
	subscriptionService := services.NewSubscriptionService(planRepo, profileRepo, rewardService, conf)

	s := &server.Server{
		Config:              conf,
		DB:                  gormDB,
		ReportService:       reportService,
		VerificationService: verificationService,
		VoteService:         voteService,
		RewardService:       rewardService,
		PaymentService:      paymentService,
		SubscriptionService: subscriptionService,
		Gatherer:            registry,
	}

	s.Start()
}
