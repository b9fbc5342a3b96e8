package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evalworks/audit-api/internal/models"
)

// ThresholdRuleRepository reads the threshold configuration. Rules are
// loaded fresh per evaluation; configuration changes must take effect on the
// next evaluation, so no caching happens at this layer or above it.
type ThresholdRuleRepository interface {
	ListActive(ctx context.Context, auditType string) ([]models.ThresholdRule, error)
}

type thresholdRuleRepository struct {
	db *gorm.DB
}

// NewThresholdRuleRepository constructs the threshold rule repository.
func NewThresholdRuleRepository(db *gorm.DB) ThresholdRuleRepository {
	return &thresholdRuleRepository{db: db}
}

func (r *thresholdRuleRepository) ListActive(ctx context.Context, auditType string) ([]models.ThresholdRule, error) {
	var rules []models.ThresholdRule
	if err := r.db.WithContext(ctx).
		Where("audit_type = ?", auditType).
		Where("active = ?", true).
		Order("id ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
