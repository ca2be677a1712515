package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/models"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	ApplyVerdict(ctx context.Context, id uuid.UUID, pointsDelta, verifiedDelta int) error
	TopReporters(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type profileRepo struct {
	DB *gorm.DB
}

func NewProfileRepo(db *GormDB) ProfileRepository {
	return &profileRepo{db.DB}
}

func (p *profileRepo) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := p.DB.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrProfileNotFound
		}
		return nil, errors.Wrap(err, "get profile")
	}
	return &profile, nil
}

// ApplyVerdict adjusts the submitter's points and verified report count after
// one of their reports changed status.
func (p *profileRepo) ApplyVerdict(ctx context.Context, id uuid.UUID, pointsDelta, verifiedDelta int) error {
	if pointsDelta == 0 && verifiedDelta == 0 {
		return nil
	}
	res := p.DB.WithContext(ctx).Exec(
		"UPDATE profiles SET points = GREATEST(points + ?, 0), verified_reports = GREATEST(verified_reports + ?, 0), updated_at = ? WHERE id = ?",
		pointsDelta, verifiedDelta, time.Now(), id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "apply verdict to profile")
	}
	if res.RowsAffected == 0 {
		return errs.ErrProfileNotFound
	}
	return nil
}

// TopReporters ranks profiles by points, breaking ties on verified reports.
func (p *profileRepo) TopReporters(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := p.DB.WithContext(ctx).Raw(
		"SELECT id AS user_id, username, points, total_reports, verified_reports FROM profiles ORDER BY points DESC, verified_reports DESC, username ASC LIMIT ?",
		limit).Scan(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "list top reporters")
	}
	return entries, nil
}
