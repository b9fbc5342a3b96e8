package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/evalworks/audit-api/internal/models"
)

func setupThresholdTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ThresholdRule{}))
	return db
}

func TestListActiveFiltersTypeAndActivity(t *testing.T) {
	db := setupThresholdTestDB(t)
	repo := NewThresholdRuleRepository(db)

	rules := []models.ThresholdRule{
		{AuditType: models.AuditTypeWeekly, ThresholdType: models.OutcomePass, MinScore: scorePtr(3), Active: true},
		{AuditType: models.AuditTypeWeekly, ThresholdType: models.OutcomeRetrain, MinScore: scorePtr(2.29), MaxScore: scorePtr(3), Active: true},
		{AuditType: models.AuditTypeWeekly, ThresholdType: models.OutcomeTerminate, MaxScore: scorePtr(2.29), Active: false},
		{AuditType: models.AuditTypeMonthly, ThresholdType: models.OutcomePass, MinScore: scorePtr(3.5), Active: true},
	}
	require.NoError(t, db.Create(&rules).Error)

	active, err := repo.ListActive(context.Background(), models.AuditTypeWeekly)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, models.OutcomePass, active[0].ThresholdType, "rules come back in insertion order")
	require.Equal(t, models.OutcomeRetrain, active[1].ThresholdType)

	monthly, err := repo.ListActive(context.Background(), models.AuditTypeMonthly)
	require.NoError(t, err)
	require.Len(t, monthly, 1)

	none, err := repo.ListActive(context.Background(), models.AuditTypeHotcase)
	require.NoError(t, err)
	require.Empty(t, none)
}
