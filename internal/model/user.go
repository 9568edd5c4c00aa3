package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型
type User struct {
	BaseModel
	Username         string     `gorm:"type:varchar(100);uniqueIndex" json:"username"`
	Email            string     `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone            string     `gorm:"type:varchar(20);index" json:"phone,omitempty"`
	PasswordHash     string     `gorm:"type:varchar(255)" json:"-"`
	DisplayName      string     `gorm:"type:varchar(100)" json:"display_name"`
	Status           string     `gorm:"type:varchar(20);default:active" json:"status"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// SetPassword 设置密码（哈希存储）
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// VerifyPassword 验证密码
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsActive 检查用户是否启用
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// IsLocked 检查用户是否被锁定
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// IncrementFailedLogin 增加登录失败次数
func (u *User) IncrementFailedLogin() {
	u.FailedLoginCount++
	if u.FailedLoginCount >= 5 {
		lockTime := time.Now().Add(15 * time.Minute)
		u.LockedUntil = &lockTime
	}
}

// ResetFailedLogin 重置登录失败次数
func (u *User) ResetFailedLogin() {
	u.FailedLoginCount = 0
	u.LockedUntil = nil
}

// AppRole 应用角色，决定用户可进入的终端
type AppRole string

const (
	AppRoleAdmin      AppRole = "admin"      // 管理员
	AppRoleDepartment AppRole = "department" // 部门用户
	AppRoleSupplier   AppRole = "supplier"   // 供应商
)

// Valid 检查应用角色是否合法
func (r AppRole) Valid() bool {
	switch r {
	case AppRoleAdmin, AppRoleDepartment, AppRoleSupplier:
		return true
	}
	return false
}

// Terminal 应用角色对应的终端
func (r AppRole) Terminal() Terminal {
	return Terminal(r)
}

// UserRole 用户应用角色，(user_id, role) 唯一
type UserRole struct {
	UserID    string    `gorm:"type:char(36);primaryKey" json:"user_id"`
	Role      AppRole   `gorm:"type:varchar(20);primaryKey" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (UserRole) TableName() string {
	return "user_roles"
}
