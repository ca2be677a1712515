package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionPlan struct {
	Model
	Name           string          `json:"name" gorm:"uniqueIndex;not null"`
	Price          decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	DurationMonths int             `json:"duration_months" gorm:"not null"`
}

type SubscriptionRequest struct {
	PlanID           string `json:"planId" binding:"required,uuid" conform:"trim"`
	PaymentReference string `json:"paymentReference" binding:"required" conform:"trim"`
}

type SubscriptionResponse struct {
	PlanName  string    `json:"plan_name"`
	StartsAt  time.Time `json:"starts_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
