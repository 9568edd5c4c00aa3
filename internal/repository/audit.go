package repository

import (
	"context"

	"github.com/pu-ac-cn/srm-backend/internal/model"
	"gorm.io/gorm"
)

// AuditRepository 审核记录仓库，只提供追加与查询
type AuditRepository interface {
	Create(ctx context.Context, record *model.AuditRecord) error
	// ListByTarget 按时间倒序返回目标的审核记录
	ListByTarget(ctx context.Context, targetTable, targetID string) ([]*model.AuditRecord, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository 创建审核记录仓库
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, record *model.AuditRecord) error {
	return conn(ctx, r.db).Create(record).Error
}

func (r *auditRepository) ListByTarget(ctx context.Context, targetTable, targetID string) ([]*model.AuditRecord, error) {
	var records []*model.AuditRecord
	err := conn(ctx, r.db).
		Where("target_table = ? AND target_id = ?", targetTable, targetID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
