package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	errs "github.com/techagentng/challanx/errors"
	"github.com/techagentng/challanx/models"
	"gorm.io/gorm"
)

type PlanRepository interface {
	GetPlanByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
}

type planRepo struct {
	DB *gorm.DB
}

func NewPlanRepo(db *GormDB) PlanRepository {
	return &planRepo{db.DB}
}

func (p *planRepo) GetPlanByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := p.DB.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrPlanNotFound
		}
		return nil, errors.Wrap(err, "get plan")
	}
	return &plan, nil
}

func (p *planRepo) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := p.DB.WithContext(ctx).Order("price ASC").Find(&plans).Error; err != nil {
		return nil, errors.Wrap(err, "list plans")
	}
	return plans, nil
}
