package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionReward       TransactionType = "reward"
	TransactionSubscription TransactionType = "subscription"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// RewardTransaction is a ledger row. IdempotencyKey is unique, so a report can
// be paid at most once.
type RewardTransaction struct {
	Model
	UserID         uuid.UUID         `json:"user_id" gorm:"type:uuid;index;not null"`
	ReportID       *uuid.UUID        `json:"report_id" gorm:"type:uuid;index"`
	Type           TransactionType   `json:"type" gorm:"type:varchar(16);not null"`
	Amount         decimal.Decimal   `json:"amount" gorm:"type:numeric(12,2);not null"`
	Status         TransactionStatus `json:"status" gorm:"type:varchar(16);not null;default:pending"`
	IdempotencyKey string            `json:"-" gorm:"uniqueIndex;not null"`
	FailureReason  string            `json:"failure_reason,omitempty"`
}

func RewardKey(reportID uuid.UUID) string {
	return fmt.Sprintf("%s:reward", reportID)
}

func SubscriptionKey(paymentRef string) string {
	return fmt.Sprintf("%s:subscription", paymentRef)
}

type RewardOutcomeKind string

const (
	OutcomePaid        RewardOutcomeKind = "paid"
	OutcomeAlreadyPaid RewardOutcomeKind = "already_paid"
	OutcomeNotEligible RewardOutcomeKind = "not_eligible"
)

type RewardOutcome struct {
	Outcome RewardOutcomeKind `json:"outcome"`
	Reason  string            `json:"reason,omitempty"`
	Amount  decimal.Decimal   `json:"amount"`
}

// CreditResult is what the ledger repository reports after a credit attempt.
type CreditResult struct {
	Credited bool
	Status   TransactionStatus
}

type Wallet struct {
	TotalEarnings decimal.Decimal     `json:"total_earnings"`
	Points        int                 `json:"points"`
	Transactions  []RewardTransaction `json:"transactions"`
}
