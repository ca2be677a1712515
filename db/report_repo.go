package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/models"
	"gorm.io/gorm"
)

type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReportByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	RecordDetection(ctx context.Context, id uuid.UUID, result models.DetectionResult) (bool, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) (*models.TransitionResult, error)
	ListTransitions(ctx context.Context, id uuid.UUID) ([]models.StatusTransition, error)
	ListReportsBySubmitter(ctx context.Context, submitterID uuid.UUID, limit int) ([]models.Report, error)
}

// StatusUpdate asks for a report to move to To on behalf of Source.
type StatusUpdate struct {
	ReportID   uuid.UUID
	To         models.ReportStatus
	Source     models.TransitionSource
	BasePoints int
}

type reportRepo struct {
	DB *gorm.DB
}

func NewReportRepo(db *GormDB) ReportRepository {
	return &reportRepo{db.DB}
}

// CreateReport stores a new pending report together with its empty vote
// tally and an unpaid challan, and bumps the submitter's report count.
func (r *reportRepo) CreateReport(ctx context.Context, report *models.Report) error {
	report.Status = models.StatusPending
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			return errors.Wrap(err, "create report")
		}
		tally := &models.VoteTally{ReportID: report.ID}
		if err := tx.Create(tally).Error; err != nil {
			return errors.Wrap(err, "create vote tally")
		}
		payment := &models.ChallanPayment{
			ReportID: report.ID,
			Amount:   report.ChallanAmount,
			Status:   models.PaymentPending,
		}
		if err := tx.Create(payment).Error; err != nil {
			return errors.Wrap(err, "create challan payment")
		}
		err := tx.Exec("UPDATE profiles SET total_reports = total_reports + 1, updated_at = ? WHERE id = ?",
			time.Now(), report.SubmitterID).Error
		return errors.Wrap(err, "count report")
	})
}

func (r *reportRepo) GetReportByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrReportNotFound
		}
		return nil, errors.Wrap(err, "get report")
	}
	return &report, nil
}

// RecordDetection stores detector output. Reports that already left pending
// keep whatever they had.
func (r *reportRepo) RecordDetection(ctx context.Context, id uuid.UUID, result models.DetectionResult) (bool, error) {
	confidence := result.Confidence
	res := r.DB.WithContext(ctx).Exec(
		"UPDATE reports SET ml_confidence = ?, ml_labels = ?, updated_at = ? WHERE id = ? AND status = ?",
		confidence, pq.StringArray(result.Labels), time.Now(), id, models.StatusPending)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "record detection")
	}
	return res.RowsAffected == 1, nil
}

type lockedReport struct {
	Status models.ReportStatus
	Points int
}

// UpdateStatus applies a status transition under the report's row lock. The
// update is additionally conditioned on the status that was read, and the
// audit row is written in the same transaction. A request that is not legal
// from the current status returns Applied=false and no error.
func (r *reportRepo) UpdateStatus(ctx context.Context, update StatusUpdate) (*models.TransitionResult, error) {
	result := &models.TransitionResult{
		ReportID: update.ReportID,
		To:       update.To,
		Source:   update.Source,
	}
	err := withRetry(ctx, func() error {
		result.Applied = false
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return r.updateStatus(tx, update, result)
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *reportRepo) updateStatus(tx *gorm.DB, update StatusUpdate, result *models.TransitionResult) error {
	var current lockedReport
	q := tx.Raw("SELECT status, points FROM reports WHERE id = ? FOR UPDATE", update.ReportID).Scan(&current)
	if q.Error != nil {
		return errors.Wrap(q.Error, "lock report")
	}
	if q.RowsAffected == 0 {
		return errs.ErrReportNotFound
	}
	result.From = current.Status
	result.PointsBefore = current.Points
	result.Points = current.Points

	if !models.CanTransition(current.Status, update.To, update.Source) {
		return nil
	}

	now := time.Now()
	points := models.PointsAfter(update.To, current.Points, update.BasePoints)
	res := tx.Exec("UPDATE reports SET status = ?, points = ?, updated_at = ? WHERE id = ? AND status = ?",
		update.To, points, now, update.ReportID, current.Status)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update report status")
	}
	if res.RowsAffected == 0 {
		return nil
	}

	err := tx.Exec("INSERT INTO report_status_transitions (report_id, from_status, to_status, source, created_at) VALUES (?, ?, ?, ?, ?)",
		update.ReportID, current.Status, update.To, update.Source, now).Error
	if err != nil {
		return errors.Wrap(err, "record transition")
	}
	result.Applied = true
	result.Points = points
	return nil
}

func (r *reportRepo) ListTransitions(ctx context.Context, id uuid.UUID) ([]models.StatusTransition, error) {
	var transitions []models.StatusTransition
	err := r.DB.WithContext(ctx).Where("report_id = ?", id).Order("id ASC").Find(&transitions).Error
	if err != nil {
		return nil, errors.Wrap(err, "list transitions")
	}
	return transitions, nil
}

// ListReportsBySubmitter returns the submitter's reports, newest first.
func (r *reportRepo) ListReportsBySubmitter(ctx context.Context, submitterID uuid.UUID, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := r.DB.WithContext(ctx).Raw(
		"SELECT * FROM reports WHERE submitter_id = ? ORDER BY created_at DESC LIMIT ?",
		submitterID, limit).Scan(&reports).Error
	if err != nil {
		return nil, errors.Wrap(err, "list reports by submitter")
	}
	return reports, nil
}
