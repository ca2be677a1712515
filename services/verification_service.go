package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/techagentng/challanx/config"
	"github.com/techagentng/challanx/db"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/metrics"
	"github.com/techagentng/challanx/models"
)

// RewardTrigger is told about every report that enters the verified set.
type RewardTrigger interface {
	EvaluateReward(ctx context.Context, reportID uuid.UUID) (*models.RewardOutcome, error)
}

// VerificationService owns report status. Detection results, community
// consensus and admin decisions all go through it; each transition is a
// conditional update, so concurrent signals never move a report backwards.
type VerificationService interface {
	ApplyDetection(ctx context.Context, reportID uuid.UUID, plate *models.PlateResult, detection *models.DetectionResult) (*models.TransitionResult, error)
	ApplyCommunityConsensus(ctx context.Context, reportID uuid.UUID, tally models.VoteCounts) (*models.TransitionResult, error)
	ApplyAdminDecision(ctx context.Context, decision models.AdminDecision) (*models.TransitionResult, error)
	GetReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error)
	ListTransitions(ctx context.Context, reportID uuid.UUID) ([]models.StatusTransition, error)
}

type verificationService struct {
	Config      *config.Config
	reportRepo  db.ReportRepository
	profileRepo db.ProfileRepository
	rewards     RewardTrigger
	cache       ReportCache
	notifier    Notifier
}

func NewVerificationService(reportRepo db.ReportRepository, profileRepo db.ProfileRepository, rewards RewardTrigger, cache ReportCache, notifier Notifier, conf *config.Config) VerificationService {
	return &verificationService{
		Config:      conf,
		reportRepo:  reportRepo,
		profileRepo: profileRepo,
		rewards:     rewards,
		cache:       cache,
		notifier:    notifier,
	}
}

func (s *verificationService) GetReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	return s.reportRepo.GetReportByID(ctx, reportID)
}

func (s *verificationService) ListTransitions(ctx context.Context, reportID uuid.UUID) ([]models.StatusTransition, error) {
	if _, err := s.reportRepo.GetReportByID(ctx, reportID); err != nil {
		return nil, err
	}
	return s.reportRepo.ListTransitions(ctx, reportID)
}

// ApplyDetection records the detector output on a pending report, then moves
// it to invalid_plate if the plate reader rejected the plate, or to verified
// if the detector was confident enough. A nil plate or detection is no signal
// and leaves whatever was stored before. Reports that already left pending
// are left alone.
func (s *verificationService) ApplyDetection(ctx context.Context, reportID uuid.UUID, plate *models.PlateResult, detection *models.DetectionResult) (*models.TransitionResult, error) {
	report, err := s.reportRepo.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status != models.StatusPending {
		metrics.TransitionNoops.WithLabelValues(string(models.SourceDetection)).Inc()
		return unchanged(report, report.Status, models.SourceDetection), nil
	}

	if detection != nil {
		if _, err := s.reportRepo.RecordDetection(ctx, reportID, *detection); err != nil {
			return nil, fmt.Errorf("record detection: %w", err)
		}
	}

	if plate.Invalid() {
		return s.transition(ctx, report, models.StatusInvalidPlate, models.SourcePlate)
	}
	if detection != nil && detection.Confidence >= s.Config.AutoVerifyThreshold {
		return s.transition(ctx, report, models.StatusVerified, models.SourceDetection)
	}
	return unchanged(report, models.StatusVerified, models.SourceDetection), nil
}

func (s *verificationService) ApplyCommunityConsensus(ctx context.Context, reportID uuid.UUID, tally models.VoteCounts) (*models.TransitionResult, error) {
	report, err := s.reportRepo.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !tally.ReachesConsensus(s.Config.CommunityUpvotes) {
		return unchanged(report, models.StatusVerifiedByCommunity, models.SourceCommunity), nil
	}
	return s.transition(ctx, report, models.StatusVerifiedByCommunity, models.SourceCommunity)
}

func (s *verificationService) ApplyAdminDecision(ctx context.Context, decision models.AdminDecision) (*models.TransitionResult, error) {
	if decision.Decision != models.StatusApprovedByAdmin && decision.Decision != models.StatusRejected {
		return nil, errs.ErrInvalidDecision
	}
	report, err := s.reportRepo.GetReportByID(ctx, decision.ReportID)
	if err != nil {
		return nil, err
	}
	res, err := s.transition(ctx, report, decision.Decision, models.SourceAdmin)
	if err == nil && res.Applied {
		logger.Log.Info().
			Str("report_id", report.ID.String()).
			Str("admin_id", decision.AdminID.String()).
			Str("decision", string(decision.Decision)).
			Msg("admin decision applied")
	}
	return res, err
}

func (s *verificationService) transition(ctx context.Context, report *models.Report, to models.ReportStatus, source models.TransitionSource) (*models.TransitionResult, error) {
	res, err := s.reportRepo.UpdateStatus(ctx, db.StatusUpdate{
		ReportID:   report.ID,
		To:         to,
		Source:     source,
		BasePoints: s.Config.BaseRewardPoints,
	})
	if err != nil {
		return nil, err
	}
	if !res.Applied {
		metrics.TransitionNoops.WithLabelValues(string(source)).Inc()
		return res, nil
	}

	metrics.ReportTransitions.WithLabelValues(string(res.From), string(res.To), string(source)).Inc()
	logger.Log.Info().
		Str("report_id", report.ID.String()).
		Str("from", string(res.From)).
		Str("to", string(res.To)).
		Str("source", string(source)).
		Msg("report status changed")

	s.afterTransition(ctx, report, res)
	return res, nil
}

// afterTransition runs the side effects of an applied transition. None of
// them can undo it, so failures are only logged.
func (s *verificationService) afterTransition(ctx context.Context, report *models.Report, res *models.TransitionResult) {
	if s.cache != nil {
		s.cache.InvalidateReport(ctx, report.ID)
	}

	if s.profileRepo != nil {
		if err := s.profileRepo.ApplyVerdict(ctx, report.SubmitterID, res.Points-res.PointsBefore, res.VerifiedDelta()); err != nil {
			logger.Log.Warn().Err(err).Str("report_id", report.ID.String()).Msg("could not update submitter profile")
		}
	}

	notifyUser(ctx, s.profileRepo, s.notifier, report.SubmitterID,
		"Report update", verdictMessage(res.To),
		map[string]string{"report_id": report.ID.String(), "status": string(res.To)})

	if res.To.IsVerified() && s.rewards != nil {
		if _, err := s.rewards.EvaluateReward(ctx, report.ID); err != nil {
			logger.Log.Error().Err(err).Str("report_id", report.ID.String()).Msg("reward evaluation failed")
		}
	}
}

func unchanged(report *models.Report, to models.ReportStatus, source models.TransitionSource) *models.TransitionResult {
	return &models.TransitionResult{
		ReportID:     report.ID,
		From:         report.Status,
		To:           to,
		Source:       source,
		Points:       report.Points,
		PointsBefore: report.Points,
	}
}

func verdictMessage(status models.ReportStatus) string {
	switch status {
	case models.StatusVerified:
		return "Your report was verified automatically."
	case models.StatusVerifiedByCommunity:
		return "Your report was verified by the community."
	case models.StatusApprovedByAdmin:
		return "Your report was approved by a reviewer."
	case models.StatusRejected:
		return "Your report was rejected."
	case models.StatusInvalidPlate:
		return "We could not read a valid number plate in your report."
	}
	return "Your report status changed."
}
