package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/models"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	GetPaymentByReportID(ctx context.Context, reportID uuid.UUID) (*models.ChallanPayment, error)
	Settle(ctx context.Context, settlement Settlement) (bool, error)
}

// Settlement is a verified provider event for a report's challan.
type Settlement struct {
	ReportID  uuid.UUID
	Status    models.PaymentStatus
	Amount    decimal.Decimal
	Reference string
	At        time.Time
}

type paymentRepo struct {
	DB *gorm.DB
}

func NewPaymentRepo(db *GormDB) PaymentRepository {
	return &paymentRepo{db.DB}
}

func (p *paymentRepo) GetPaymentByReportID(ctx context.Context, reportID uuid.UUID) (*models.ChallanPayment, error) {
	var payment models.ChallanPayment
	if err := p.DB.WithContext(ctx).Where("report_id = ?", reportID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrPaymentNotFound
		}
		return nil, errors.Wrap(err, "get challan payment")
	}
	return &payment, nil
}

// Settle moves a challan payment to the settled status. A completed payment
// is final, so later events for it change nothing and Settle reports false.
func (p *paymentRepo) Settle(ctx context.Context, s Settlement) (bool, error) {
	updates := map[string]interface{}{
		"status":            s.Status,
		"payment_reference": s.Reference,
		"updated_at":        s.At,
	}
	if s.Status == models.PaymentCompleted {
		updates["paid_at"] = s.At
	}
	if s.Amount.IsPositive() {
		updates["amount"] = s.Amount
	}

	res := p.DB.WithContext(ctx).Model(&models.ChallanPayment{}).
		Where("report_id = ? AND status <> ?", s.ReportID, models.PaymentCompleted).
		Updates(updates)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "settle challan payment")
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	if _, err := p.GetPaymentByReportID(ctx, s.ReportID); err != nil {
		return false, err
	}
	return false, nil
}
