package db

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/models"
)

const (
	claimRewardSQL    = `INSERT INTO reward_transactions (id, user_id, report_id, type, amount, status, idempotency_key, failure_reason, created_at, updated_at)`
	reclaimRewardSQL  = `UPDATE reward_transactions SET status = $1, amount = $2, failure_reason = '', updated_at = $3 WHERE idempotency_key = $4 AND status = $5`
	creditEarningsSQL = `UPDATE profiles SET total_earnings = total_earnings + $1, updated_at = $2 WHERE id = $3`
	completeRewardSQL = `UPDATE reward_transactions SET status = $1, updated_at = $2 WHERE idempotency_key = $3`
)

func rewardTxn() models.RewardTransaction {
	reportID := uuid.New()
	return models.RewardTransaction{
		UserID:         uuid.New(),
		ReportID:       &reportID,
		Type:           models.TransactionReward,
		Amount:         decimal.NewFromInt(100),
		IdempotencyKey: models.RewardKey(reportID),
	}
}

func TestCreditRewardFirstTime(t *testing.T) {
	it(func() {
		txn := rewardTxn()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(claimRewardSQL)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(creditEarningsSQL)).
			WithArgs("100", sqlmock.AnyArg(), txn.UserID.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(completeRewardSQL)).
			WithArgs("completed", sqlmock.AnyArg(), txn.IdempotencyKey).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		res, err := NewRewardRepo(gormDB).CreditReward(context.Background(), txn)
		require.NoError(t, err)
		assert.True(t, res.Credited)
		assert.Equal(t, models.TransactionCompleted, res.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreditRewardAlreadyPaid(t *testing.T) {
	it(func() {
		txn := rewardTxn()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(claimRewardSQL)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(reclaimRewardSQL)).
			WithArgs("pending", "100", sqlmock.AnyArg(), txn.IdempotencyKey, "failed").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		res, err := NewRewardRepo(gormDB).CreditReward(context.Background(), txn)
		require.NoError(t, err)
		assert.False(t, res.Credited)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreditRewardReclaimsFailedRow(t *testing.T) {
	it(func() {
		txn := rewardTxn()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(claimRewardSQL)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(reclaimRewardSQL)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(creditEarningsSQL)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(completeRewardSQL)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		res, err := NewRewardRepo(gormDB).CreditReward(context.Background(), txn)
		require.NoError(t, err)
		assert.True(t, res.Credited)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreditRewardRollsBackWithoutProfile(t *testing.T) {
	it(func() {
		txn := rewardTxn()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(claimRewardSQL)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(creditEarningsSQL)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := NewRewardRepo(gormDB).CreditReward(context.Background(), txn)
		assert.ErrorIs(t, err, errs.ErrProfileNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordSubscriptionReplay(t *testing.T) {
	it(func() {
		txn := models.RewardTransaction{
			UserID:         uuid.New(),
			Amount:         decimal.NewFromInt(99),
			IdempotencyKey: models.SubscriptionKey("pay_123"),
		}
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(claimRewardSQL)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		created, err := NewRewardRepo(gormDB).RecordSubscription(context.Background(), txn, SubscriptionActivation{PlanName: "Monthly"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
