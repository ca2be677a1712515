package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// ChallanPayment tracks settlement of the fine attached to a report.
type ChallanPayment struct {
	Model
	ReportID         uuid.UUID       `json:"report_id" gorm:"type:uuid;uniqueIndex;not null"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null;default:0"`
	Status           PaymentStatus   `json:"status" gorm:"type:varchar(16);not null;default:pending"`
	PaymentReference string          `json:"payment_reference"`
	PaidAt           *time.Time      `json:"paid_at"`
}

// SettlementEvent is posted by the payment provider when a challan is settled.
type SettlementEvent struct {
	ReportID  string          `json:"reportId" binding:"required,uuid" conform:"trim"`
	Amount    decimal.Decimal `json:"amount"`
	Status    PaymentStatus   `json:"status" binding:"required" conform:"trim,lower"`
	Reference string          `json:"reference" conform:"trim"`
}
