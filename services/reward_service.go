package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/techagentng/challanx/config"
	"github.com/techagentng/challanx/db"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/metrics"
	"github.com/techagentng/challanx/models"
)

var defaultRewardRate = decimal.NewFromFloat(0.10)

// RewardService is the payout ledger. EvaluateReward may be called any number
// of times for a report; the submitter is credited at most once.
type RewardService interface {
	EvaluateReward(ctx context.Context, reportID uuid.UUID) (*models.RewardOutcome, error)
	RecordSubscription(ctx context.Context, userID uuid.UUID, paymentRef string, plan *models.SubscriptionPlan, startsAt time.Time) (bool, error)
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.RewardTransaction, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

type rewardService struct {
	Config      *config.Config
	rewardRepo  db.RewardRepository
	reportRepo  db.ReportRepository
	paymentRepo db.PaymentRepository
	profileRepo db.ProfileRepository
	notifier    Notifier
	rate        decimal.Decimal
	now         func() time.Time
}

func NewRewardService(rewardRepo db.RewardRepository, reportRepo db.ReportRepository, paymentRepo db.PaymentRepository, profileRepo db.ProfileRepository, notifier Notifier, conf *config.Config) RewardService {
	rate, err := decimal.NewFromString(conf.RewardRate)
	if err != nil || rate.IsNegative() {
		logger.Log.Warn().Str("reward_rate", conf.RewardRate).Msg("invalid reward rate, using 0.10")
		rate = defaultRewardRate
	}
	return &rewardService{
		Config:      conf,
		rewardRepo:  rewardRepo,
		reportRepo:  reportRepo,
		paymentRepo: paymentRepo,
		profileRepo: profileRepo,
		notifier:    notifier,
		rate:        rate,
		now:         time.Now,
	}
}

// RewardAmount is the payout for a settled challan, rounded to paise.
func RewardAmount(challan, rate decimal.Decimal) decimal.Decimal {
	return challan.Mul(rate).Round(2)
}

func notEligible(reason string) *models.RewardOutcome {
	metrics.RewardOutcomes.WithLabelValues(string(models.OutcomeNotEligible)).Inc()
	return &models.RewardOutcome{Outcome: models.OutcomeNotEligible, Reason: reason, Amount: decimal.Zero}
}

func (s *rewardService) EvaluateReward(ctx context.Context, reportID uuid.UUID) (*models.RewardOutcome, error) {
	report, err := s.reportRepo.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !report.Status.IsVerified() {
		return notEligible("report is not verified"), nil
	}

	payment, err := s.paymentRepo.GetPaymentByReportID(ctx, reportID)
	if err != nil {
		if errors.Is(err, errs.ErrPaymentNotFound) {
			return notEligible("challan has not been paid"), nil
		}
		return nil, err
	}
	if payment.Status != models.PaymentCompleted {
		return notEligible("challan has not been paid"), nil
	}

	profile, err := s.profileRepo.GetProfile(ctx, report.SubmitterID)
	if err != nil {
		if errors.Is(err, errs.ErrProfileNotFound) {
			return notEligible("submitter has no profile"), nil
		}
		return nil, err
	}
	if !profile.HasActiveSubscription(s.now()) {
		return notEligible("submitter has no active subscription"), nil
	}

	challan := report.ChallanAmount
	if !challan.IsPositive() {
		challan = payment.Amount
	}
	amount := RewardAmount(challan, s.rate)
	if !amount.IsPositive() {
		return notEligible("challan amount is zero"), nil
	}

	txn := models.RewardTransaction{
		UserID:         report.SubmitterID,
		ReportID:       &report.ID,
		Type:           models.TransactionReward,
		Amount:         amount,
		IdempotencyKey: models.RewardKey(report.ID),
	}
	res, err := s.rewardRepo.CreditReward(ctx, txn)
	if err != nil {
		if ferr := s.rewardRepo.RecordFailure(context.WithoutCancel(ctx), txn, err.Error()); ferr != nil {
			logger.Log.Error().Err(ferr).Str("report_id", reportID.String()).Msg("could not record failed reward")
		}
		metrics.RewardOutcomes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("credit reward: %w", err)
	}

	if !res.Credited {
		metrics.RewardOutcomes.WithLabelValues(string(models.OutcomeAlreadyPaid)).Inc()
		return &models.RewardOutcome{Outcome: models.OutcomeAlreadyPaid, Amount: amount}, nil
	}

	metrics.RewardOutcomes.WithLabelValues(string(models.OutcomePaid)).Inc()
	metrics.RewardAmount.Add(amount.InexactFloat64())
	logger.Log.Info().
		Str("report_id", reportID.String()).
		Str("user_id", report.SubmitterID.String()).
		Str("amount", amount.StringFixed(2)).
		Msg("reward credited")

	notifyUser(ctx, s.profileRepo, s.notifier, report.SubmitterID,
		"Reward credited", fmt.Sprintf("₹%s has been added to your wallet.", amount.StringFixed(2)),
		map[string]string{"report_id": reportID.String(), "amount": amount.StringFixed(2)})

	return &models.RewardOutcome{Outcome: models.OutcomePaid, Amount: amount}, nil
}

func (s *rewardService) RecordSubscription(ctx context.Context, userID uuid.UUID, paymentRef string, plan *models.SubscriptionPlan, startsAt time.Time) (bool, error) {
	txn := models.RewardTransaction{
		UserID:         userID,
		Type:           models.TransactionSubscription,
		Amount:         plan.Price,
		IdempotencyKey: models.SubscriptionKey(paymentRef),
	}
	return s.rewardRepo.RecordSubscription(ctx, txn, db.SubscriptionActivation{
		PlanName:  plan.Name,
		StartsAt:  startsAt,
		ExpiresAt: startsAt.AddDate(0, plan.DurationMonths, 0),
	})
}

func (s *rewardService) ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.RewardTransaction, error) {
	return s.rewardRepo.ListByUser(ctx, userID)
}

func (s *rewardService) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	profile, err := s.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	txns, err := s.rewardRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []models.RewardTransaction{}
	}
	return &models.Wallet{
		TotalEarnings: profile.TotalEarnings,
		Points:        profile.Points,
		Transactions:  txns,
	}, nil
}
