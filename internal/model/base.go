// Package model 定义数据模型
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 基础模型，包含通用字段
type BaseModel struct {
	ID        string         `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate 创建前自动生成 UUID
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// 账户状态常量
const (
	StatusActive   = "active"   // 启用
	StatusDisabled = "disabled" // 禁用
)

// AllModels 需要迁移的全部模型，按依赖顺序排列
func AllModels() []any {
	return []any{
		&User{},
		&UserRole{},
		&Supplier{},
		&Menu{},
		&Role{},
		&RoleMenu{},
		&UserBackendRole{},
		&AuditRecord{},
	}
}
