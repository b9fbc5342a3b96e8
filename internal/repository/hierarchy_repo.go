package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/evalworks/audit-api/internal/models"
)

// ItemScoreUpdate carries one item mutation inside a scoring batch. A nil
// Note leaves the stored note untouched.
type ItemScoreUpdate struct {
	Code  string
	Score float64
	Note  *string
}

// HierarchyRepository is the persistence boundary for the Process/Step/Item
// hierarchy. Mutations that must be atomic run through Transaction, which
// hands the callback a repository bound to the open transaction.
type HierarchyRepository interface {
	Transaction(ctx context.Context, fn func(HierarchyRepository) error) error

	GetProcess(ctx context.Context, code string) (models.AuditProcess, error)
	GetStep(ctx context.Context, code string) (models.AuditStep, error)
	GetStepForUpdate(ctx context.Context, code string) (models.AuditStep, error)
	ListStepsByProcess(ctx context.Context, processCode string) ([]models.AuditStep, error)
	ListItemsByStep(ctx context.Context, stepCode string) ([]models.ChecklistItem, error)
	ListItemsByProcess(ctx context.Context, processCode string) ([]models.ChecklistItem, error)
	FindItemCodes(ctx context.Context, codes []string) ([]string, error)
	CountUnscoredItems(ctx context.Context, stepCode string) (int64, error)

	AssignAuditor(ctx context.Context, processCode, auditorRef string) error
	SetStepLifecycle(ctx context.Context, code, status, progress string) error
	MarkProcessAudited(ctx context.Context, code string) error
	MarkItemsAuditingByStep(ctx context.Context, stepCode string) error
	MarkItemsAuditedByStep(ctx context.Context, stepCode string) error
	MarkProcessAuditing(ctx context.Context, code string) error

	ApplyScores(ctx context.Context, updates []ItemScoreUpdate) (int64, error)
	MarkItemsAuditingByCodes(ctx context.Context, codes []string) error
	DistinctStepCodesForItems(ctx context.Context, itemCodes []string) ([]string, error)
	DistinctProcessCodesForSteps(ctx context.Context, stepCodes []string) ([]string, error)
	MarkStepsAuditingByCodes(ctx context.Context, codes []string) error
	MarkProcessesAuditingByCodes(ctx context.Context, codes []string) error
}

type hierarchyRepository struct {
	db *gorm.DB
}

// NewHierarchyRepository constructs the gorm-backed hierarchy repository.
func NewHierarchyRepository(db *gorm.DB) HierarchyRepository {
	return &hierarchyRepository{db: db}
}

func (r *hierarchyRepository) Transaction(ctx context.Context, fn func(HierarchyRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&hierarchyRepository{db: tx})
	})
}

func (r *hierarchyRepository) GetProcess(ctx context.Context, code string) (models.AuditProcess, error) {
	var process models.AuditProcess
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&process).Error; err != nil {
		return models.AuditProcess{}, err
	}
	return process, nil
}

func (r *hierarchyRepository) GetStep(ctx context.Context, code string) (models.AuditStep, error) {
	var step models.AuditStep
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&step).Error; err != nil {
		return models.AuditStep{}, err
	}
	return step, nil
}

func (r *hierarchyRepository) GetStepForUpdate(ctx context.Context, code string) (models.AuditStep, error) {
	query := r.db.WithContext(ctx)
	// SQLite serialises writers on its own; FOR UPDATE is postgres-only syntax.
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var step models.AuditStep
	if err := query.Where("code = ?", code).First(&step).Error; err != nil {
		return models.AuditStep{}, err
	}
	return step, nil
}

func (r *hierarchyRepository) ListStepsByProcess(ctx context.Context, processCode string) ([]models.AuditStep, error) {
	var steps []models.AuditStep
	if err := r.db.WithContext(ctx).
		Where("process_code = ?", processCode).
		Order("id ASC").
		Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *hierarchyRepository) ListItemsByStep(ctx context.Context, stepCode string) ([]models.ChecklistItem, error) {
	var items []models.ChecklistItem
	if err := r.db.WithContext(ctx).
		Where("step_code = ?", stepCode).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *hierarchyRepository) ListItemsByProcess(ctx context.Context, processCode string) ([]models.ChecklistItem, error) {
	var items []models.ChecklistItem
	if err := r.db.WithContext(ctx).
		Joins("JOIN audit_steps ON audit_steps.code = checklist_items.step_code").
		Where("audit_steps.process_code = ?", processCode).
		Order("checklist_items.id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *hierarchyRepository) FindItemCodes(ctx context.Context, codes []string) ([]string, error) {
	var found []string
	if err := r.db.WithContext(ctx).
		Model(&models.ChecklistItem{}).
		Where("code IN ?", codes).
		Pluck("code", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func (r *hierarchyRepository) CountUnscoredItems(ctx context.Context, stepCode string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ChecklistItem{}).
		Where("step_code = ?", stepCode).
		Where("score IS NULL").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *hierarchyRepository) AssignAuditor(ctx context.Context, processCode, auditorRef string) error {
	update := r.db.WithContext(ctx).
		Model(&models.AuditProcess{}).
		Where("code = ?", processCode).
		Update("auditor_ref", auditorRef)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *hierarchyRepository) MarkProcessAudited(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.AuditProcess{}).
		Where("code = ?", code).
		Where("status <> ?", models.StatusAudited).
		Update("status", models.StatusAudited).Error
}

func (r *hierarchyRepository) SetStepLifecycle(ctx context.Context, code, status, progress string) error {
	update := r.db.WithContext(ctx).
		Model(&models.AuditStep{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{"status": status, "progress": progress})
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *hierarchyRepository) MarkItemsAuditingByStep(ctx context.Context, stepCode string) error {
	return r.db.WithContext(ctx).
		Model(&models.ChecklistItem{}).
		Where("step_code = ?", stepCode).
		Where("status <> ?", models.StatusAudited).
		Update("status", models.StatusAuditing).Error
}

func (r *hierarchyRepository) MarkItemsAuditedByStep(ctx context.Context, stepCode string) error {
	return r.db.WithContext(ctx).
		Model(&models.ChecklistItem{}).
		Where("step_code = ?", stepCode).
		Where("status <> ?", models.StatusAudited).
		Update("status", models.StatusAudited).Error
}

func (r *hierarchyRepository) MarkProcessAuditing(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.AuditProcess{}).
		Where("code = ?", code).
		Where("status = ?", models.StatusPending).
		Update("status", models.StatusAuditing).Error
}

// ApplyScores writes the whole batch in a single UPDATE built around CASE
// expressions, so the statement count stays flat regardless of batch size.
func (r *hierarchyRepository) ApplyScores(ctx context.Context, updates []ItemScoreUpdate) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	codes := make([]interface{}, 0, len(updates))
	var scoreCase strings.Builder
	var noteCase strings.Builder
	scoreArgs := make([]interface{}, 0, len(updates)*2)
	noteArgs := make([]interface{}, 0)

	scoreCase.WriteString("CASE code")
	noteCase.WriteString("CASE code")
	for _, u := range updates {
		codes = append(codes, u.Code)
		scoreCase.WriteString(" WHEN ? THEN ?")
		scoreArgs = append(scoreArgs, u.Code, u.Score)
		if u.Note != nil {
			noteCase.WriteString(" WHEN ? THEN ?")
			noteArgs = append(noteArgs, u.Code, *u.Note)
		}
	}
	scoreCase.WriteString(" END")
	noteCase.WriteString(" ELSE note END")

	sql := "UPDATE checklist_items SET score = " + scoreCase.String()
	args := scoreArgs
	if len(noteArgs) > 0 {
		sql += ", note = " + noteCase.String()
		args = append(args, noteArgs...)
	}
	sql += ", updated_at = ? WHERE code IN (" + placeholders(len(codes)) + ")"
	args = append(args, time.Now())
	args = append(args, codes...)

	result := r.db.WithContext(ctx).Exec(sql, args...)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *hierarchyRepository) MarkItemsAuditingByCodes(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ChecklistItem{}).
		Where("code IN ?", codes).
		Where("status <> ?", models.StatusAudited).
		Update("status", models.StatusAuditing).Error
}

func (r *hierarchyRepository) DistinctStepCodesForItems(ctx context.Context, itemCodes []string) ([]string, error) {
	if len(itemCodes) == 0 {
		return nil, nil
	}
	var stepCodes []string
	if err := r.db.WithContext(ctx).
		Model(&models.ChecklistItem{}).
		Distinct("step_code").
		Where("code IN ?", itemCodes).
		Pluck("step_code", &stepCodes).Error; err != nil {
		return nil, err
	}
	return stepCodes, nil
}

func (r *hierarchyRepository) DistinctProcessCodesForSteps(ctx context.Context, stepCodes []string) ([]string, error) {
	if len(stepCodes) == 0 {
		return nil, nil
	}
	var processCodes []string
	if err := r.db.WithContext(ctx).
		Model(&models.AuditStep{}).
		Distinct("process_code").
		Where("code IN ?", stepCodes).
		Pluck("process_code", &processCodes).Error; err != nil {
		return nil, err
	}
	return processCodes, nil
}

func (r *hierarchyRepository) MarkStepsAuditingByCodes(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.AuditStep{}).
		Where("code IN ?", codes).
		Where("status <> ?", models.StatusAudited).
		Update("status", models.StatusAuditing).Error
}

func (r *hierarchyRepository) MarkProcessesAuditingByCodes(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.AuditProcess{}).
		Where("code IN ?", codes).
		Where("status <> ?", models.StatusAudited).
		Update("status", models.StatusAuditing).Error
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
