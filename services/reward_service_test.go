package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/challanx/models"
)

type rewardFixture struct {
	reports  *fakeReportRepo
	payments *fakePaymentRepo
	profiles *fakeProfileRepo
	ledger   *fakeRewardRepo
	notifier *fakeNotifier
	svc      RewardService
	report   *models.Report
	profile  *models.Profile
}

// newRewardFixture builds a verified report with a settled challan of 1000
// submitted by a subscribed reporter.
func newRewardFixture() *rewardFixture {
	profile := subscribedProfile()
	report := pendingReport(profile.ID, 1000)
	report.Status = models.StatusVerified
	f := &rewardFixture{
		reports:  newFakeReportRepo(report),
		payments: newFakePaymentRepo(),
		profiles: newFakeProfileRepo(profile),
		notifier: &fakeNotifier{},
		report:   report,
		profile:  profile,
	}
	f.ledger = newFakeRewardRepo(f.profiles)
	f.payments.add(report.ID, 1000, models.PaymentCompleted)
	f.svc = NewRewardService(f.ledger, f.reports, f.payments, f.profiles, f.notifier, testConfig())
	return f
}

func TestRewardAmount(t *testing.T) {
	rate := decimal.RequireFromString("0.10")
	assert.Equal(t, "100.00", RewardAmount(decimal.NewFromInt(1000), rate).StringFixed(2))
	assert.Equal(t, "12.35", RewardAmount(decimal.RequireFromString("123.45"), rate).StringFixed(2))
	assert.True(t, RewardAmount(decimal.Zero, rate).IsZero())
}

func TestEvaluateRewardPaysOnce(t *testing.T) {
	f := newRewardFixture()
	ctx := context.Background()

	out, err := f.svc.EvaluateReward(ctx, f.report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomePaid, out.Outcome)
	assert.Equal(t, "100.00", out.Amount.StringFixed(2))
	assert.Equal(t, "100.00", f.profiles.get(f.profile.ID).TotalEarnings.StringFixed(2))
	assert.Equal(t, 1, f.notifier.count())

	out, err = f.svc.EvaluateReward(ctx, f.report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyPaid, out.Outcome)
	assert.Equal(t, "100.00", f.profiles.get(f.profile.ID).TotalEarnings.StringFixed(2))

	wallet, err := f.svc.GetWallet(ctx, f.profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", wallet.TotalEarnings.StringFixed(2))
	require.Len(t, wallet.Transactions, 1)
	assert.Equal(t, models.RewardKey(f.report.ID), wallet.Transactions[0].IdempotencyKey)
}

func TestEvaluateRewardConcurrentCallsPayOnce(t *testing.T) {
	f := newRewardFixture()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		paid int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.svc.EvaluateReward(context.Background(), f.report.ID)
			if err != nil {
				return
			}
			if out.Outcome == models.OutcomePaid {
				mu.Lock()
				paid++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, paid)
	assert.Equal(t, "100.00", f.profiles.get(f.profile.ID).TotalEarnings.StringFixed(2))
}

func TestEvaluateRewardNotEligible(t *testing.T) {
	cases := []struct {
		name  string
		setup func(f *rewardFixture)
	}{
		{"pending report", func(f *rewardFixture) {
			f.reports.reports[f.report.ID].Status = models.StatusPending
		}},
		{"rejected report", func(f *rewardFixture) {
			f.reports.reports[f.report.ID].Status = models.StatusRejected
		}},
		{"challan unpaid", func(f *rewardFixture) {
			f.payments.add(f.report.ID, 1000, models.PaymentPending)
		}},
		{"no payment row", func(f *rewardFixture) {
			delete(f.payments.payments, f.report.ID)
		}},
		{"no subscription", func(f *rewardFixture) {
			f.profiles.profiles[f.profile.ID].IsSubscribed = false
		}},
		{"expired subscription", func(f *rewardFixture) {
			expired := time.Now().Add(-time.Hour)
			f.profiles.profiles[f.profile.ID].SubscriptionExpiresAt = &expired
		}},
		{"no profile", func(f *rewardFixture) {
			delete(f.profiles.profiles, f.profile.ID)
		}},
		{"zero challan", func(f *rewardFixture) {
			f.reports.reports[f.report.ID].ChallanAmount = decimal.Zero
			f.payments.add(f.report.ID, 0, models.PaymentCompleted)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRewardFixture()
			tc.setup(f)

			out, err := f.svc.EvaluateReward(context.Background(), f.report.ID)
			require.NoError(t, err)
			assert.Equal(t, models.OutcomeNotEligible, out.Outcome)
			assert.NotEmpty(t, out.Reason)
			assert.Empty(t, f.ledger.rows)
		})
	}
}

func TestEvaluateRewardUsesPaymentAmountWhenReportHasNone(t *testing.T) {
	f := newRewardFixture()
	f.reports.reports[f.report.ID].ChallanAmount = decimal.Zero
	f.payments.add(f.report.ID, 500, models.PaymentCompleted)

	out, err := f.svc.EvaluateReward(context.Background(), f.report.ID)
	require.NoError(t, err)
	assert.Equal(t, "50.00", out.Amount.StringFixed(2))
}

func TestEvaluateRewardFailureCanBeRetried(t *testing.T) {
	f := newRewardFixture()
	ctx := context.Background()
	f.ledger.failNext = errors.New("connection reset")

	_, err := f.svc.EvaluateReward(ctx, f.report.ID)
	require.Error(t, err)
	row := f.ledger.row(models.RewardKey(f.report.ID))
	require.NotNil(t, row)
	assert.Equal(t, models.TransactionFailed, row.Status)
	assert.True(t, f.profiles.get(f.profile.ID).TotalEarnings.IsZero())

	out, err := f.svc.EvaluateReward(ctx, f.report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomePaid, out.Outcome)
	row = f.ledger.row(models.RewardKey(f.report.ID))
	assert.Equal(t, models.TransactionCompleted, row.Status)
	assert.Empty(t, row.FailureReason)
}

func TestRecordSubscriptionOncePerReference(t *testing.T) {
	f := newRewardFixture()
	user := &models.Profile{ID: uuid.New()}
	f.profiles.profiles[user.ID] = user
	plan := &models.SubscriptionPlan{Name: "Quarterly", Price: decimal.NewFromInt(249), DurationMonths: 3}
	start := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)

	created, err := f.svc.RecordSubscription(context.Background(), user.ID, "pay_1", plan, start)
	require.NoError(t, err)
	assert.True(t, created)
	p := f.profiles.get(user.ID)
	assert.True(t, p.IsSubscribed)
	assert.Equal(t, "Quarterly", p.PlanName)
	assert.Equal(t, start.AddDate(0, 3, 0), *p.SubscriptionExpiresAt)

	created, err = f.svc.RecordSubscription(context.Background(), user.ID, "pay_1", plan, start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, start.AddDate(0, 3, 0), *f.profiles.get(user.ID).SubscriptionExpiresAt)
}
