package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/techagentng/challanx/models"
	"gorm.io/gorm"
)

type VoteRepository interface {
	CastVote(ctx context.Context, reportID, voterID uuid.UUID, voteType models.VoteType) (*models.VoteResult, error)
	GetTally(ctx context.Context, reportID, voterID uuid.UUID) (*models.TallyView, error)
}

type voteRepo struct {
	DB *gorm.DB
}

func NewVoteRepo(db *GormDB) VoteRepository {
	return &voteRepo{db.DB}
}

type existingVote struct {
	ID       uuid.UUID
	VoteType models.VoteType
}

// CastVote adds, changes or retracts the voter's vote. Every cast on a report
// serializes on that report's vote_tallies row, so the counters always match
// the votes table.
func (v *voteRepo) CastVote(ctx context.Context, reportID, voterID uuid.UUID, voteType models.VoteType) (*models.VoteResult, error) {
	var result models.VoteResult
	err := withRetry(ctx, func() error {
		return v.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return v.castVote(tx, reportID, voterID, voteType, &result)
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (v *voteRepo) castVote(tx *gorm.DB, reportID, voterID uuid.UUID, voteType models.VoteType, result *models.VoteResult) error {
	now := time.Now()
	err := tx.Exec("INSERT INTO vote_tallies (report_id, upvotes, downvotes, updated_at) VALUES (?, 0, 0, ?) ON CONFLICT (report_id) DO NOTHING",
		reportID, now).Error
	if err != nil {
		return errors.Wrap(err, "ensure vote tally")
	}

	var counts models.VoteCounts
	if err := tx.Raw("SELECT upvotes, downvotes FROM vote_tallies WHERE report_id = ? FOR UPDATE", reportID).Scan(&counts).Error; err != nil {
		return errors.Wrap(err, "lock vote tally")
	}

	var existing existingVote
	q := tx.Raw("SELECT id, vote_type FROM votes WHERE report_id = ? AND voter_id = ?", reportID, voterID).Scan(&existing)
	if q.Error != nil {
		return errors.Wrap(q.Error, "find vote")
	}
	if q.RowsAffected == 0 {
		existing = existingVote{}
	}

	counts, action, current := counts.Apply(existing.VoteType, voteType)
	switch action {
	case models.VoteAdded:
		err = tx.Exec("INSERT INTO votes (id, report_id, voter_id, vote_type, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			uuid.New(), reportID, voterID, voteType, now, now).Error
	case models.VoteRetracted:
		err = tx.Exec("DELETE FROM votes WHERE id = ?", existing.ID).Error
	case models.VoteChanged:
		err = tx.Exec("UPDATE votes SET vote_type = ?, updated_at = ? WHERE id = ?", voteType, now, existing.ID).Error
	}
	if err != nil {
		return errors.Wrapf(err, "%s vote", action)
	}

	err = tx.Exec("UPDATE vote_tallies SET upvotes = ?, downvotes = ?, updated_at = ? WHERE report_id = ?",
		counts.Upvotes, counts.Downvotes, now, reportID).Error
	if err != nil {
		return errors.Wrap(err, "update vote tally")
	}

	*result = models.VoteResult{Action: action, Current: current, Counts: counts}
	return nil
}

func (v *voteRepo) GetTally(ctx context.Context, reportID, voterID uuid.UUID) (*models.TallyView, error) {
	var view models.TallyView
	db := v.DB.WithContext(ctx)
	if err := db.Raw("SELECT upvotes, downvotes FROM vote_tallies WHERE report_id = ?", reportID).Scan(&view.VoteCounts).Error; err != nil {
		return nil, errors.Wrap(err, "get vote tally")
	}
	if voterID == uuid.Nil {
		return &view, nil
	}
	var existing existingVote
	if err := db.Raw("SELECT id, vote_type FROM votes WHERE report_id = ? AND voter_id = ?", reportID, voterID).Scan(&existing).Error; err != nil {
		return nil, errors.Wrap(err, "get vote")
	}
	view.MyVote = existing.VoteType
	return &view, nil
}
