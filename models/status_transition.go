package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusTransition is one applied report status change.
type StatusTransition struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	ReportID  uuid.UUID        `json:"report_id" gorm:"type:uuid;index;not null"`
	From      ReportStatus     `json:"from" gorm:"column:from_status;type:varchar(32);not null"`
	To        ReportStatus     `json:"to" gorm:"column:to_status;type:varchar(32);not null"`
	Source    TransitionSource `json:"source" gorm:"type:varchar(16);not null"`
	CreatedAt time.Time        `json:"created_at"`
}

func (StatusTransition) TableName() string {
	return "report_status_transitions"
}
