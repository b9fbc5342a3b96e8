package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/evalworks/audit-api/internal/models"
)

// SessionFilter narrows session ledger queries.
type SessionFilter struct {
	ProcessCode string
	AuditType   string
	Status      string
	Page        int
	PageSize    int
}

// SessionRepository persists the audit session ledger. Entries are created
// and updated, never deleted.
type SessionRepository interface {
	Create(ctx context.Context, session *models.AuditSession) error
	GetByCode(ctx context.Context, code string) (models.AuditSession, error)
	GetByCodeForUpdate(ctx context.Context, code string) (models.AuditSession, error)
	Update(ctx context.Context, session *models.AuditSession) error
	List(ctx context.Context, filter SessionFilter) ([]models.AuditSession, int64, error)
	Transaction(ctx context.Context, fn func(SessionRepository) error) error
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs the session ledger repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Transaction(ctx context.Context, fn func(SessionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&sessionRepository{db: tx})
	})
}

func (r *sessionRepository) Create(ctx context.Context, session *models.AuditSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByCode(ctx context.Context, code string) (models.AuditSession, error) {
	var session models.AuditSession
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&session).Error; err != nil {
		return models.AuditSession{}, err
	}
	return session, nil
}

func (r *sessionRepository) GetByCodeForUpdate(ctx context.Context, code string) (models.AuditSession, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var session models.AuditSession
	if err := query.Where("code = ?", code).First(&session).Error; err != nil {
		return models.AuditSession{}, err
	}
	return session, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *models.AuditSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *sessionRepository) List(ctx context.Context, filter SessionFilter) ([]models.AuditSession, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditSession{})

	if filter.ProcessCode != "" {
		query = query.Where("process_code = ?", filter.ProcessCode)
	}
	if filter.AuditType != "" {
		query = query.Where("audit_type = ?", filter.AuditType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var sessions []models.AuditSession
	if err := query.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}
