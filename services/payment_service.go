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

// PaymentVerifier authenticates settlement events before they are trusted.
type PaymentVerifier interface {
	Verify(ctx context.Context, event models.SettlementEvent, signature string) error
}

// PassthroughVerifier accepts every event. Gateways that sign their callbacks
// plug in their own verifier.
type PassthroughVerifier struct{}

func (PassthroughVerifier) Verify(context.Context, models.SettlementEvent, string) error {
	return nil
}

type SettlementResult struct {
	Applied bool                  `json:"applied"`
	Status  models.PaymentStatus  `json:"status"`
	Reward  *models.RewardOutcome `json:"reward,omitempty"`
}

type PaymentService interface {
	Settle(ctx context.Context, event models.SettlementEvent, signature string) (*SettlementResult, error)
}

type paymentService struct {
	Config      *config.Config
	paymentRepo db.PaymentRepository
	rewards     RewardTrigger
	verifier    PaymentVerifier
}

func NewPaymentService(paymentRepo db.PaymentRepository, rewards RewardTrigger, verifier PaymentVerifier, conf *config.Config) PaymentService {
	if verifier == nil {
		verifier = PassthroughVerifier{}
	}
	return &paymentService{
		Config:      conf,
		paymentRepo: paymentRepo,
		rewards:     rewards,
		verifier:    verifier,
	}
}

// Settle records a settlement event and, for completed payments, asks the
// ledger to pay the reporter. Replayed events are harmless: the payment row
// does not move once completed and the ledger pays once per report.
func (p *paymentService) Settle(ctx context.Context, event models.SettlementEvent, signature string) (*SettlementResult, error) {
	if err := p.verifier.Verify(ctx, event, signature); err != nil {
		logger.Log.Warn().Err(err).Str("report_id", event.ReportID).Msg("settlement rejected by verifier")
		return nil, errs.ErrUnverifiedPayment
	}

	reportID, err := uuid.Parse(event.ReportID)
	if err != nil {
		return nil, errs.ErrInvalidSettlement
	}
	if event.Status != models.PaymentCompleted && event.Status != models.PaymentFailed {
		return nil, errs.ErrInvalidSettlement
	}
	if event.Amount.IsNegative() {
		return nil, errs.ErrInvalidSettlement
	}

	applied, err := p.paymentRepo.Settle(ctx, db.Settlement{
		ReportID:  reportID,
		Status:    event.Status,
		Amount:    event.Amount,
		Reference: event.Reference,
		At:        time.Now(),
	})
	if err != nil {
		return nil, err
	}

	payment, err := p.paymentRepo.GetPaymentByReportID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	result := &SettlementResult{Applied: applied, Status: payment.Status}
	logger.Log.Info().
		Str("report_id", reportID.String()).
		Str("event_status", string(event.Status)).
		Bool("applied", applied).
		Msg("challan settlement received")

	if payment.Status == models.PaymentCompleted && p.rewards != nil {
		outcome, err := p.rewards.EvaluateReward(ctx, reportID)
		if err != nil {
			logger.Log.Error().Err(err).Str("report_id", reportID.String()).Msg("reward evaluation after settlement failed")
		}
		result.Reward = outcome
	}
	return result, nil
}
