package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/techagentng/challanx/config"
	"github.com/techagentng/challanx/db"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/metrics"
	"github.com/techagentng/challanx/models"
)

type VoteService interface {
	CastVote(ctx context.Context, req models.VoteRequest) (*models.VoteResponse, error)
	GetTally(ctx context.Context, reportID, voterID uuid.UUID) (*models.TallyView, error)
}

type voteService struct {
	Config       *config.Config
	voteRepo     db.VoteRepository
	reportRepo   db.ReportRepository
	verification VerificationService
	cache        ReportCache
}

func NewVoteService(voteRepo db.VoteRepository, reportRepo db.ReportRepository, verification VerificationService, cache ReportCache, conf *config.Config) VoteService {
	return &voteService{
		Config:       conf,
		voteRepo:     voteRepo,
		reportRepo:   reportRepo,
		verification: verification,
		cache:        cache,
	}
}

// CastVote toggles, changes or adds the voter's vote. Once the committed
// counts satisfy the community predicate the report is handed to the
// verification engine, which decides whether the transition still applies.
// The consensus check runs after the vote commits; the engine's conditional
// status update arbitrates between voters that cross the threshold together.
func (v *voteService) CastVote(ctx context.Context, req models.VoteRequest) (*models.VoteResponse, error) {
	if !req.VoteType.Valid() {
		return nil, errs.ErrInvalidVote
	}
	report, err := v.reportRepo.GetReportByID(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}

	res, err := v.voteRepo.CastVote(ctx, req.ReportID, req.VoterID, req.VoteType)
	if err != nil {
		return nil, err
	}
	metrics.VotesTotal.WithLabelValues(string(req.VoteType), string(res.Action)).Inc()
	if v.cache != nil {
		v.cache.InvalidateReport(ctx, req.ReportID)
	}

	status := report.Status
	if status == models.StatusPending && res.Counts.ReachesConsensus(v.Config.CommunityUpvotes) {
		tr, err := v.verification.ApplyCommunityConsensus(ctx, req.ReportID, res.Counts)
		if err != nil {
			logger.Log.Error().Err(err).Str("report_id", req.ReportID.String()).Msg("community transition failed")
		} else {
			status = tr.From
			if tr.Applied {
				status = tr.To
			}
		}
	}

	return &models.VoteResponse{
		Vote:      res.Current,
		Action:    res.Action,
		Upvotes:   res.Counts.Upvotes,
		Downvotes: res.Counts.Downvotes,
		Status:    status,
	}, nil
}

func (v *voteService) GetTally(ctx context.Context, reportID, voterID uuid.UUID) (*models.TallyView, error) {
	if _, err := v.reportRepo.GetReportByID(ctx, reportID); err != nil {
		return nil, err
	}
	return v.voteRepo.GetTally(ctx, reportID, voterID)
}
