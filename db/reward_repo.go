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

type RewardRepository interface {
	CreditReward(ctx context.Context, txn models.RewardTransaction) (*models.CreditResult, error)
	RecordFailure(ctx context.Context, txn models.RewardTransaction, reason string) error
	RecordSubscription(ctx context.Context, txn models.RewardTransaction, activation SubscriptionActivation) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RewardTransaction, error)
}

// SubscriptionActivation is written to the subscriber's profile together with
// the ledger row that paid for it.
type SubscriptionActivation struct {
	PlanName  string
	StartsAt  time.Time
	ExpiresAt time.Time
}

type rewardRepo struct {
	DB *gorm.DB
}

func NewRewardRepo(db *GormDB) RewardRepository {
	return &rewardRepo{db.DB}
}

// CreditReward pays txn exactly once per idempotency key. The ledger row is
// claimed with INSERT ... ON CONFLICT DO NOTHING; if the key already exists
// only a failed row may be reclaimed. The profile credit and the completion of
// the row commit together.
func (r *rewardRepo) CreditReward(ctx context.Context, txn models.RewardTransaction) (*models.CreditResult, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	result := &models.CreditResult{}
	err := withRetry(ctx, func() error {
		*result = models.CreditResult{}
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return r.creditReward(tx, txn, result)
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *rewardRepo) creditReward(tx *gorm.DB, txn models.RewardTransaction, result *models.CreditResult) error {
	now := time.Now()
	res := tx.Exec(`INSERT INTO reward_transactions (id, user_id, report_id, type, amount, status, idempotency_key, failure_reason, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, '', ?, ?) ON CONFLICT (idempotency_key) DO NOTHING`,
		txn.ID, txn.UserID, txn.ReportID, txn.Type, txn.Amount, models.TransactionPending, txn.IdempotencyKey, now, now)
	if res.Error != nil {
		return errors.Wrap(res.Error, "claim reward transaction")
	}

	if res.RowsAffected == 0 {
		res = tx.Exec("UPDATE reward_transactions SET status = ?, amount = ?, failure_reason = '', updated_at = ? WHERE idempotency_key = ? AND status = ?",
			models.TransactionPending, txn.Amount, now, txn.IdempotencyKey, models.TransactionFailed)
		if res.Error != nil {
			return errors.Wrap(res.Error, "reclaim reward transaction")
		}
		if res.RowsAffected == 0 {
			result.Status = models.TransactionCompleted
			return nil
		}
	}

	res = tx.Exec("UPDATE profiles SET total_earnings = total_earnings + ?, updated_at = ? WHERE id = ?",
		txn.Amount, now, txn.UserID)
	if res.Error != nil {
		return errors.Wrap(res.Error, "credit earnings")
	}
	if res.RowsAffected == 0 {
		return errs.ErrProfileNotFound
	}

	err := tx.Exec("UPDATE reward_transactions SET status = ?, updated_at = ? WHERE idempotency_key = ?",
		models.TransactionCompleted, now, txn.IdempotencyKey).Error
	if err != nil {
		return errors.Wrap(err, "complete reward transaction")
	}
	result.Credited = true
	result.Status = models.TransactionCompleted
	return nil
}

// RecordFailure leaves a failed row behind so a later evaluation can reclaim
// the key. It never touches a completed row.
func (r *rewardRepo) RecordFailure(ctx context.Context, txn models.RewardTransaction, reason string) error {
	now := time.Now()
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	err := r.DB.WithContext(ctx).Exec(`INSERT INTO reward_transactions (id, user_id, report_id, type, amount, status, idempotency_key, failure_reason, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (idempotency_key) DO UPDATE SET failure_reason = EXCLUDED.failure_reason, updated_at = EXCLUDED.updated_at
WHERE reward_transactions.status = ?`,
		txn.ID, txn.UserID, txn.ReportID, txn.Type, txn.Amount, models.TransactionFailed, txn.IdempotencyKey, reason, now, now,
		models.TransactionFailed).Error
	return errors.Wrap(err, "record failed reward transaction")
}

// RecordSubscription writes a completed subscription row and activates the
// plan on the subscriber's profile. A replayed payment reference returns false.
func (r *rewardRepo) RecordSubscription(ctx context.Context, txn models.RewardTransaction, activation SubscriptionActivation) (bool, error) {
	var created bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if txn.ID == uuid.Nil {
			txn.ID = uuid.New()
		}
		res := tx.Exec(`INSERT INTO reward_transactions (id, user_id, report_id, type, amount, status, idempotency_key, failure_reason, created_at, updated_at)
VALUES (?, ?, NULL, ?, ?, ?, ?, '', ?, ?) ON CONFLICT (idempotency_key) DO NOTHING`,
			txn.ID, txn.UserID, models.TransactionSubscription, txn.Amount, models.TransactionCompleted, txn.IdempotencyKey, now, now)
		if res.Error != nil {
			return errors.Wrap(res.Error, "record subscription transaction")
		}
		if res.RowsAffected == 0 {
			return nil
		}

		res = tx.Exec("UPDATE profiles SET is_subscribed = ?, plan_name = ?, subscription_starts_at = ?, subscription_expires_at = ?, updated_at = ? WHERE id = ?",
			true, activation.PlanName, activation.StartsAt, activation.ExpiresAt, now, txn.UserID)
		if res.Error != nil {
			return errors.Wrap(res.Error, "activate subscription")
		}
		if res.RowsAffected == 0 {
			return errs.ErrProfileNotFound
		}
		created = true
		return nil
	})
	return created, err
}

func (r *rewardRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RewardTransaction, error) {
	var txns []models.RewardTransaction
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&txns).Error
	if err != nil {
		return nil, errors.Wrap(err, "list reward transactions")
	}
	return txns, nil
}
