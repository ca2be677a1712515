package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile is the reporter account as far as verification and payouts need it.
type Profile struct {
	ID                    uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Username              string          `json:"username"`
	IsSubscribed          bool            `json:"is_subscribed" gorm:"not null;default:false"`
	PlanName              string          `json:"plan_name"`
	SubscriptionStartsAt  *time.Time      `json:"subscription_starts_at"`
	SubscriptionExpiresAt *time.Time      `json:"subscription_expires_at"`
	Points                int             `json:"points" gorm:"not null;default:0"`
	TotalEarnings         decimal.Decimal `json:"total_earnings" gorm:"type:numeric(12,2);not null;default:0"`
	TotalReports          int             `json:"total_reports" gorm:"not null;default:0"`
	VerifiedReports       int             `json:"verified_reports" gorm:"not null;default:0"`
	DeviceToken           string          `json:"-"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// HasActiveSubscription reports whether the subscription covers now.
func (p *Profile) HasActiveSubscription(now time.Time) bool {
	if !p.IsSubscribed || p.SubscriptionExpiresAt == nil {
		return false
	}
	return p.SubscriptionExpiresAt.After(now)
}

// LeaderboardEntry is the public view of a reporter on the leaderboard.
type LeaderboardEntry struct {
	UserID          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	Points          int       `json:"points"`
	TotalReports    int       `json:"total_reports"`
	VerifiedReports int       `json:"verified_reports"`
}
