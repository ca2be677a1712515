package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/techagentng/challanx/config"
	"github.com/techagentng/challanx/db"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/models"
	"golang.org/x/sync/errgroup"
)

type ReportService interface {
	CreateReport(ctx context.Context, submitterID uuid.UUID, req models.CreateReportRequest) (*models.Report, error)
	GetReportView(ctx context.Context, reportID uuid.UUID) (*models.ReportView, error)
	RunDetection(ctx context.Context, reportID uuid.UUID) (*models.TransitionResult, error)
	ListMyReports(ctx context.Context, submitterID uuid.UUID, limit int) ([]models.Report, error)
	TopReporters(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type reportService struct {
	Config       *config.Config
	reportRepo   db.ReportRepository
	voteRepo     db.VoteRepository
	profileRepo  db.ProfileRepository
	detection    DetectionService
	verification VerificationService
	cache        ReportCache
	schedule     ChallanSchedule
}

func NewReportService(reportRepo db.ReportRepository, voteRepo db.VoteRepository, profileRepo db.ProfileRepository, detection DetectionService, verification VerificationService, cache ReportCache, schedule ChallanSchedule, conf *config.Config) ReportService {
	if schedule == nil {
		schedule = DefaultChallanSchedule()
	}
	return &reportService{
		Config:       conf,
		reportRepo:   reportRepo,
		voteRepo:     voteRepo,
		profileRepo:  profileRepo,
		detection:    detection,
		verification: verification,
		cache:        cache,
		schedule:     schedule,
	}
}

// CreateReport stores a pending report and, when enabled, runs detection on
// it before returning. Detection never fails the submission.
func (r *reportService) CreateReport(ctx context.Context, submitterID uuid.UUID, req models.CreateReportRequest) (*models.Report, error) {
	violation := models.ViolationType(req.ViolationType)
	if !violation.Valid() {
		return nil, errs.ErrInvalidViolation
	}
	if req.MediaKey == "" && req.MediaURL == "" {
		return nil, errs.New("media reference is required", errs.ErrInvalidReport.Status)
	}

	amount := r.schedule.AmountFor(violation)
	if req.ChallanAmount != nil {
		if req.ChallanAmount.IsNegative() {
			return nil, errs.New("challan amount cannot be negative", errs.ErrInvalidReport.Status)
		}
		amount = req.ChallanAmount.Round(2)
	}

	report := &models.Report{
		SubmitterID:   submitterID,
		ViolationType: violation,
		ChallanAmount: amount,
		MediaKey:      req.MediaKey,
		MediaURL:      req.MediaURL,
		NumberPlate:   req.NumberPlate,
		Description:   req.Description,
		Location:      req.Location,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}
	if err := r.reportRepo.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	if r.Config.DetectOnCreate {
		if _, err := r.detect(ctx, report); err != nil {
			logger.Log.Warn().Err(err).Str("report_id", report.ID.String()).Msg("initial detection not applied")
		}
		if fresh, err := r.reportRepo.GetReportByID(ctx, report.ID); err == nil {
			report = fresh
		}
	}
	return report, nil
}

func (r *reportService) RunDetection(ctx context.Context, reportID uuid.UUID) (*models.TransitionResult, error) {
	report, err := r.reportRepo.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return r.detect(ctx, report)
}

// detect asks both providers about the report's media at the same time and
// hands whatever came back to the verification engine.
func (r *reportService) detect(ctx context.Context, report *models.Report) (*models.TransitionResult, error) {
	if report.Status != models.StatusPending {
		return unchanged(report, report.Status, models.SourceDetection), nil
	}

	var (
		result   models.DetectionResult
		resultOK bool
		plate    *models.PlateResult
		plateOK  bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, resultOK = r.detection.Detect(gctx, report.MediaRef())
		return nil
	})
	g.Go(func() error {
		plate, plateOK = r.detection.DetectPlate(gctx, report.MediaRef())
		return nil
	})
	_ = g.Wait()

	if !plateOK {
		plate = nil
	}
	var detection *models.DetectionResult
	if resultOK {
		detection = &result
	}
	return r.verification.ApplyDetection(ctx, report.ID, plate, detection)
}

func (r *reportService) GetReportView(ctx context.Context, reportID uuid.UUID) (*models.ReportView, error) {
	if r.cache != nil {
		if view, ok := r.cache.GetReport(ctx, reportID); ok {
			return view, nil
		}
	}

	report, err := r.reportRepo.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	tally, err := r.voteRepo.GetTally(ctx, reportID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	view := &models.ReportView{Report: report, Upvotes: tally.Upvotes, Downvotes: tally.Downvotes}
	if r.cache != nil {
		r.cache.SetReport(ctx, view)
	}
	return view, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// ListMyReports is the submitter's own history, newest first.
func (r *reportService) ListMyReports(ctx context.Context, submitterID uuid.UUID, limit int) ([]models.Report, error) {
	reports, err := r.reportRepo.ListReportsBySubmitter(ctx, submitterID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

func (r *reportService) TopReporters(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := r.profileRepo.TopReporters(ctx, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}
