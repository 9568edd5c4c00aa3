package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 审核类型
const (
	AuditTypeSupplierRegistration = "supplier_registration"
)

// 审核结果
const (
	AuditStatusApproved  = "approved"
	AuditStatusRejected  = "rejected"
	AuditStatusSuspended = "suspended"
)

// AuditCommentRestored 恢复合作时写入的备注
const AuditCommentRestored = "restored"

// AuditRecord 审核记录，只追加不修改
type AuditRecord struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	AuditType   string    `gorm:"type:varchar(50);not null" json:"audit_type"`
	TargetTable string    `gorm:"type:varchar(50);not null;index:idx_audit_target" json:"target_table"`
	TargetID    string    `gorm:"type:char(36);not null;index:idx_audit_target" json:"target_id"`
	Status      string    `gorm:"type:varchar(20);not null" json:"status"`
	SubmitterID string    `gorm:"type:char(36)" json:"submitter_id"`
	ReviewerID  string    `gorm:"type:char(36);index" json:"reviewer_id"`
	Comment     *string   `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AuditRecord) TableName() string {
	return "audit_records"
}

// BeforeCreate 创建前自动生成 UUID
func (a *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// NewSupplierAudit 构建供应商审核记录
func NewSupplierAudit(s *Supplier, status, reviewerID string, comment *string) *AuditRecord {
	return &AuditRecord{
		AuditType:   AuditTypeSupplierRegistration,
		TargetTable: Supplier{}.TableName(),
		TargetID:    s.ID,
		Status:      status,
		SubmitterID: s.UserID,
		ReviewerID:  reviewerID,
		Comment:     comment,
	}
}
