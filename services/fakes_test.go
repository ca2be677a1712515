package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/techagentng/challanx/config"
	"github.com/techagentng/challanx/db"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/models"
)

func testConfig() *config.Config {
	return &config.Config{
		AutoVerifyThreshold: 0.8,
		CommunityUpvotes:    5,
		RewardRate:          "0.10",
		BaseRewardPoints:    10,
		DetectionTimeout:    time.Second,
	}
}

type fakeReportRepo struct {
	mu          sync.Mutex
	reports     map[uuid.UUID]*models.Report
	transitions []models.StatusTransition
	detections  int
}

func newFakeReportRepo(reports ...*models.Report) *fakeReportRepo {
	r := &fakeReportRepo{reports: map[uuid.UUID]*models.Report{}}
	for _, report := range reports {
		r.reports[report.ID] = report
	}
	return r
}

func pendingReport(submitter uuid.UUID, amount int64) *models.Report {
	return &models.Report{
		Model:         models.Model{ID: uuid.New()},
		SubmitterID:   submitter,
		ViolationType: models.ViolationNoHelmet,
		Status:        models.StatusPending,
		ChallanAmount: decimal.NewFromInt(amount),
		MediaKey:      "reports/a.jpg",
	}
}

func (r *fakeReportRepo) CreateReport(_ context.Context, report *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.Status = models.StatusPending
	cp := *report
	r.reports[report.ID] = &cp
	return nil
}

func (r *fakeReportRepo) GetReportByID(_ context.Context, id uuid.UUID) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, errs.ErrReportNotFound
	}
	cp := *report
	return &cp, nil
}

func (r *fakeReportRepo) RecordDetection(_ context.Context, id uuid.UUID, result models.DetectionResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok || report.Status != models.StatusPending {
		return false, nil
	}
	confidence := result.Confidence
	report.MLConfidence = &confidence
	report.MLLabels = result.Labels
	r.detections++
	return true, nil
}

func (r *fakeReportRepo) UpdateStatus(_ context.Context, update db.StatusUpdate) (*models.TransitionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[update.ReportID]
	if !ok {
		return nil, errs.ErrReportNotFound
	}
	res := &models.TransitionResult{
		ReportID:     update.ReportID,
		From:         report.Status,
		To:           update.To,
		Source:       update.Source,
		Points:       report.Points,
		PointsBefore: report.Points,
	}
	if !models.CanTransition(report.Status, update.To, update.Source) {
		return res, nil
	}
	r.transitions = append(r.transitions, models.StatusTransition{
		ID:       uint(len(r.transitions) + 1),
		ReportID: update.ReportID,
		From:     report.Status,
		To:       update.To,
		Source:   update.Source,
	})
	report.Status = update.To
	report.Points = models.PointsAfter(update.To, report.Points, update.BasePoints)
	res.Applied = true
	res.Points = report.Points
	return res, nil
}

func (r *fakeReportRepo) ListTransitions(_ context.Context, id uuid.UUID) ([]models.StatusTransition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StatusTransition
	for _, t := range r.transitions {
		if t.ReportID == id {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeReportRepo) ListReportsBySubmitter(_ context.Context, submitterID uuid.UUID, limit int) ([]models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Report
	for _, report := range r.reports {
		if report.SubmitterID == submitterID {
			out = append(out, *report)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeReportRepo) status(id uuid.UUID) models.ReportStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[id].Status
}

type voteKey struct {
	report, voter uuid.UUID
}

type fakeVoteRepo struct {
	mu     sync.Mutex
	votes  map[voteKey]models.VoteType
	counts map[uuid.UUID]models.VoteCounts
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: map[voteKey]models.VoteType{}, counts: map[uuid.UUID]models.VoteCounts{}}
}

func (v *fakeVoteRepo) CastVote(_ context.Context, reportID, voterID uuid.UUID, voteType models.VoteType) (*models.VoteResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := voteKey{reportID, voterID}
	counts, action, current := v.counts[reportID].Apply(v.votes[key], voteType)
	v.counts[reportID] = counts
	if current == "" {
		delete(v.votes, key)
	} else {
		v.votes[key] = current
	}
	return &models.VoteResult{Action: action, Current: current, Counts: counts}, nil
}

func (v *fakeVoteRepo) GetTally(_ context.Context, reportID, voterID uuid.UUID) (*models.TallyView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return &models.TallyView{VoteCounts: v.counts[reportID], MyVote: v.votes[voteKey{reportID, voterID}]}, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*models.ChallanPayment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[uuid.UUID]*models.ChallanPayment{}}
}

func (p *fakePaymentRepo) add(reportID uuid.UUID, amount int64, status models.PaymentStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments[reportID] = &models.ChallanPayment{ReportID: reportID, Amount: decimal.NewFromInt(amount), Status: status}
}

func (p *fakePaymentRepo) GetPaymentByReportID(_ context.Context, reportID uuid.UUID) (*models.ChallanPayment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	payment, ok := p.payments[reportID]
	if !ok {
		return nil, errs.ErrPaymentNotFound
	}
	cp := *payment
	return &cp, nil
}

func (p *fakePaymentRepo) Settle(_ context.Context, s db.Settlement) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	payment, ok := p.payments[s.ReportID]
	if !ok {
		return false, errs.ErrPaymentNotFound
	}
	if payment.Status == models.PaymentCompleted {
		return false, nil
	}
	payment.Status = s.Status
	payment.PaymentReference = s.Reference
	if s.Amount.IsPositive() {
		payment.Amount = s.Amount
	}
	if s.Status == models.PaymentCompleted {
		at := s.At
		payment.PaidAt = &at
	}
	return true, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.Profile
}

func newFakeProfileRepo(profiles ...*models.Profile) *fakeProfileRepo {
	p := &fakeProfileRepo{profiles: map[uuid.UUID]*models.Profile{}}
	for _, profile := range profiles {
		p.profiles[profile.ID] = profile
	}
	return p
}

func subscribedProfile() *models.Profile {
	expires := time.Now().AddDate(0, 1, 0)
	return &models.Profile{
		ID:                    uuid.New(),
		Username:              "reporter",
		IsSubscribed:          true,
		PlanName:              "Monthly",
		SubscriptionExpiresAt: &expires,
		DeviceToken:           "device-1",
	}
}

func (p *fakeProfileRepo) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	profile, ok := p.profiles[id]
	if !ok {
		return nil, errs.ErrProfileNotFound
	}
	cp := *profile
	return &cp, nil
}

func (p *fakeProfileRepo) ApplyVerdict(_ context.Context, id uuid.UUID, pointsDelta, verifiedDelta int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	profile, ok := p.profiles[id]
	if !ok {
		return errs.ErrProfileNotFound
	}
	profile.Points += pointsDelta
	profile.VerifiedReports += verifiedDelta
	return nil
}

func (p *fakeProfileRepo) TopReporters(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.LeaderboardEntry
	for _, profile := range p.profiles {
		out = append(out, models.LeaderboardEntry{
			UserID:          profile.ID,
			Username:        profile.Username,
			Points:          profile.Points,
			TotalReports:    profile.TotalReports,
			VerifiedReports: profile.VerifiedReports,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].VerifiedReports > out[j].VerifiedReports
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (p *fakeProfileRepo) get(id uuid.UUID) models.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.profiles[id]
}

// fakeRewardRepo keeps the ledger in memory with the same exactly-once rule
// as the postgres repository.
type fakeRewardRepo struct {
	mu       sync.Mutex
	profiles *fakeProfileRepo
	rows     map[string]*models.RewardTransaction
	failNext error
}

func newFakeRewardRepo(profiles *fakeProfileRepo) *fakeRewardRepo {
	return &fakeRewardRepo{profiles: profiles, rows: map[string]*models.RewardTransaction{}}
}

func (r *fakeRewardRepo) CreditReward(_ context.Context, txn models.RewardTransaction) (*models.CreditResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return nil, err
	}
	if row, ok := r.rows[txn.IdempotencyKey]; ok && row.Status != models.TransactionFailed {
		return &models.CreditResult{Status: row.Status}, nil
	}

	r.profiles.mu.Lock()
	profile, ok := r.profiles.profiles[txn.UserID]
	if ok {
		profile.TotalEarnings = profile.TotalEarnings.Add(txn.Amount)
	}
	r.profiles.mu.Unlock()
	if !ok {
		return nil, errs.ErrProfileNotFound
	}

	txn.Status = models.TransactionCompleted
	txn.FailureReason = ""
	r.rows[txn.IdempotencyKey] = &txn
	return &models.CreditResult{Credited: true, Status: models.TransactionCompleted}, nil
}

func (r *fakeRewardRepo) RecordFailure(_ context.Context, txn models.RewardTransaction, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[txn.IdempotencyKey]; ok && row.Status == models.TransactionCompleted {
		return nil
	}
	txn.Status = models.TransactionFailed
	txn.FailureReason = reason
	r.rows[txn.IdempotencyKey] = &txn
	return nil
}

func (r *fakeRewardRepo) RecordSubscription(_ context.Context, txn models.RewardTransaction, activation db.SubscriptionActivation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[txn.IdempotencyKey]; ok {
		return false, nil
	}
	r.profiles.mu.Lock()
	profile, ok := r.profiles.profiles[txn.UserID]
	if ok {
		starts, expires := activation.StartsAt, activation.ExpiresAt
		profile.IsSubscribed = true
		profile.PlanName = activation.PlanName
		profile.SubscriptionStartsAt = &starts
		profile.SubscriptionExpiresAt = &expires
	}
	r.profiles.mu.Unlock()
	if !ok {
		return false, errs.ErrProfileNotFound
	}
	txn.Status = models.TransactionCompleted
	r.rows[txn.IdempotencyKey] = &txn
	return true, nil
}

func (r *fakeRewardRepo) row(key string) *models.RewardTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[key]
	if !ok {
		return nil
	}
	cp := *row
	return &cp
}

func (r *fakeRewardRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.RewardTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RewardTransaction
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

type fakePlanRepo struct {
	plans []models.SubscriptionPlan
}

func (p *fakePlanRepo) GetPlanByID(_ context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	for i := range p.plans {
		if p.plans[i].ID == id {
			plan := p.plans[i]
			return &plan, nil
		}
	}
	return nil, errs.ErrPlanNotFound
}

func (p *fakePlanRepo) ListPlans(context.Context) ([]models.SubscriptionPlan, error) {
	return p.plans, nil
}

type fakeCache struct {
	mu          sync.Mutex
	views       map[uuid.UUID]*models.ReportView
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{views: map[uuid.UUID]*models.ReportView{}}
}

func (c *fakeCache) GetReport(_ context.Context, id uuid.UUID) (*models.ReportView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	view, ok := c.views[id]
	return view, ok
}

func (c *fakeCache) SetReport(_ context.Context, view *models.ReportView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[view.Report.ID] = view
}

func (c *fakeCache) InvalidateReport(_ context.Context, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, id)
	c.invalidated++
}

type pushed struct {
	token, title string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []pushed
}

func (n *fakeNotifier) Notify(_ context.Context, token, title, _ string, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, pushed{token, title})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// recordingTrigger remembers which reports were handed to the ledger.
type recordingTrigger struct {
	mu      sync.Mutex
	reports []uuid.UUID
}

func (r *recordingTrigger) EvaluateReward(_ context.Context, reportID uuid.UUID) (*models.RewardOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, reportID)
	return &models.RewardOutcome{Outcome: models.OutcomeNotEligible}, nil
}

func (r *recordingTrigger) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}
