package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/techagentng/challanx/config"
	"github.com/techagentng/challanx/db"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/models"
)

type SubscriptionService interface {
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	Activate(ctx context.Context, userID uuid.UUID, req models.SubscriptionRequest) (*models.SubscriptionResponse, error)
}

type subscriptionService struct {
	Config      *config.Config
	planRepo    db.PlanRepository
	profileRepo db.ProfileRepository
	rewards     RewardService
	now         func() time.Time
}

func NewSubscriptionService(planRepo db.PlanRepository, profileRepo db.ProfileRepository, rewards RewardService, conf *config.Config) SubscriptionService {
	return &subscriptionService{
		Config:      conf,
		planRepo:    planRepo,
		profileRepo: profileRepo,
		rewards:     rewards,
		now:         time.Now,
	}
}

func (s *subscriptionService) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return s.planRepo.ListPlans(ctx)
}

// Activate starts the plan for userID, paid by req.PaymentReference. The same
// reference activates at most once; a replay reports the subscription as it
// stands.
func (s *subscriptionService) Activate(ctx context.Context, userID uuid.UUID, req models.SubscriptionRequest) (*models.SubscriptionResponse, error) {
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return nil, errs.ErrPlanNotFound
	}
	plan, err := s.planRepo.GetPlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	startsAt := s.now()
	created, err := s.rewards.RecordSubscription(ctx, userID, req.PaymentReference, plan, startsAt)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Log.Info().
			Str("user_id", userID.String()).
			Str("plan", plan.Name).
			Msg("subscription activated")
		return &models.SubscriptionResponse{
			PlanName:  plan.Name,
			StartsAt:  startsAt,
			ExpiresAt: startsAt.AddDate(0, plan.DurationMonths, 0),
		}, nil
	}

	profile, err := s.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &models.SubscriptionResponse{PlanName: profile.PlanName}
	if profile.SubscriptionStartsAt != nil {
		resp.StartsAt = *profile.SubscriptionStartsAt
	}
	if profile.SubscriptionExpiresAt != nil {
		resp.ExpiresAt = *profile.SubscriptionExpiresAt
	}
	return resp, nil
}
