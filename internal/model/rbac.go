package model

import "time"

// Terminal 终端类型，每个终端拥有独立的菜单集合
type Terminal string

const (
	TerminalAdmin      Terminal = "admin"
	TerminalDepartment Terminal = "department"
	TerminalSupplier   Terminal = "supplier"
)

// Terminals 全部终端
func Terminals() []Terminal {
	return []Terminal{TerminalAdmin, TerminalDepartment, TerminalSupplier}
}

// Valid 检查终端是否合法
func (t Terminal) Valid() bool {
	switch t {
	case TerminalAdmin, TerminalDepartment, TerminalSupplier:
		return true
	}
	return false
}

// AppRole 终端对应的应用角色
func (t Terminal) AppRole() AppRole {
	return AppRole(t)
}

// DefaultRoleCode 终端默认后台角色代码，如 supplier_default
func (t Terminal) DefaultRoleCode() string {
	return string(t) + "_default"
}

// Role 后台角色（权限分组）
type Role struct {
	BaseModel
	Code        string   `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // 角色代码，如 supplier_default
	Name        string   `gorm:"type:varchar(100);not null" json:"name"`            // 角色名称
	Terminal    Terminal `gorm:"type:varchar(20);index;not null" json:"terminal"`   // 所属终端
	Description string   `gorm:"type:varchar(500)" json:"description"`              // 角色描述
	IsDefault   bool     `gorm:"not null" json:"is_default"`                        // 是否终端默认角色
	IsActive    bool     `gorm:"not null" json:"is_active"`                         // 是否启用
}

// TableName 指定表名
func (Role) TableName() string {
	return "backend_roles"
}

// DefaultRole 构建终端默认角色
func DefaultRole(t Terminal) *Role {
	return &Role{
		Code:        t.DefaultRoleCode(),
		Name:        defaultRoleNames[t],
		Terminal:    t,
		Description: "审核通过后自动分配，包含创建时该终端的全部启用菜单",
		IsDefault:   true,
		IsActive:    true,
	}
}

var defaultRoleNames = map[Terminal]string{
	TerminalAdmin:      "管理端默认角色",
	TerminalDepartment: "部门端默认角色",
	TerminalSupplier:   "供应商默认角色",
}

// RoleMenu 角色菜单关联，(role_id, menu_id) 唯一
type RoleMenu struct {
	RoleID    string    `gorm:"type:char(36);primaryKey" json:"role_id"`
	MenuID    string    `gorm:"type:char(36);primaryKey" json:"menu_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (RoleMenu) TableName() string {
	return "role_menu_permissions"
}

// UserBackendRole 用户后台角色分配，(user_id, role_id) 唯一
type UserBackendRole struct {
	UserID    string    `gorm:"type:char(36);primaryKey" json:"user_id"`
	RoleID    string    `gorm:"type:char(36);primaryKey" json:"role_id"`
	GrantedBy string    `gorm:"type:char(36)" json:"granted_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// TableName 指定表名
func (UserBackendRole) TableName() string {
	return "user_backend_roles"
}
