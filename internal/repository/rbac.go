package repository

import (
	"context"
	"errors"

	"github.com/pu-ac-cn/srm-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRoleNotFound = errors.New("角色不存在")

// RoleRepository 后台角色仓库接口
type RoleRepository interface {
	// EnsureByCode 按 code 插入角色，已存在时不做修改并回填已有记录；created 表示本次是否新建
	EnsureByCode(ctx context.Context, role *model.Role) (created bool, err error)
	GetByID(ctx context.Context, id string) (*model.Role, error)
	GetByCode(ctx context.Context, code string) (*model.Role, error)
	List(ctx context.Context, terminal model.Terminal) ([]*model.Role, error)
	// AddMenus 绑定菜单，已绑定的跳过
	AddMenus(ctx context.Context, roleID string, menuIDs []string) error
	GetMenus(ctx context.Context, roleID string) ([]*model.Menu, error)
}

// UserRoleRepository 用户应用角色仓库接口
type UserRoleRepository interface {
	// Grant 授予应用角色，已存在时返回 false
	Grant(ctx context.Context, userID string, role model.AppRole) (bool, error)
	Revoke(ctx context.Context, userID string, role model.AppRole) error
	HasRole(ctx context.Context, userID string, role model.AppRole) (bool, error)
	ListRoles(ctx context.Context, userID string) ([]model.AppRole, error)
}

// UserBackendRoleRepository 用户后台角色仓库接口
type UserBackendRoleRepository interface {
	// Assign 分配后台角色，已存在时返回 false
	Assign(ctx context.Context, userID, roleID, grantedBy string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*model.UserBackendRole, error)
	// ListMenus 用户通过启用的后台角色可见的启用菜单
	ListMenus(ctx context.Context, userID string, terminal model.Terminal) ([]*model.Menu, error)
}

// roleRepository 后台角色仓库实现
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository 创建后台角色仓库
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) EnsureByCode(ctx context.Context, role *model.Role) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(role)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}
	existing, err := r.GetByCode(ctx, role.Code)
	if err != nil {
		return false, err
	}
	*role = *existing
	return false, nil
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*model.Role, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *roleRepository) GetByCode(ctx context.Context, code string) (*model.Role, error) {
	return r.first(ctx, "code = ?", code)
}

func (r *roleRepository) first(ctx context.Context, query string, arg any) (*model.Role, error) {
	var role model.Role
	if err := conn(ctx, r.db).Where(query, arg).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context, terminal model.Terminal) ([]*model.Role, error) {
	var roles []*model.Role
	query := conn(ctx, r.db).Model(&model.Role{})
	if terminal != "" {
		query = query.Where("terminal = ?", terminal)
	}
	if err := query.Order("created_at ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) AddMenus(ctx context.Context, roleID string, menuIDs []string) error {
	if len(menuIDs) == 0 {
		return nil
	}
	bindings := make([]model.RoleMenu, 0, len(menuIDs))
	for _, id := range menuIDs {
		bindings = append(bindings, model.RoleMenu{RoleID: roleID, MenuID: id})
	}
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(bindings, 100).Error
}

func (r *roleRepository) GetMenus(ctx context.Context, roleID string) ([]*model.Menu, error) {
	var menus []*model.Menu
	err := conn(ctx, r.db).
		Where("id IN (?)", conn(ctx, r.db).Model(&model.RoleMenu{}).Select("menu_id").Where("role_id = ?", roleID)).
		Order("sort_order ASC").
		Find(&menus).Error
	return menus, err
}

// userRoleRepository 用户应用角色仓库实现
type userRoleRepository struct {
	db *gorm.DB
}

// NewUserRoleRepository 创建用户应用角色仓库
func NewUserRoleRepository(db *gorm.DB) UserRoleRepository {
	return &userRoleRepository{db: db}
}

func (r *userRoleRepository) Grant(ctx context.Context, userID string, role model.AppRole) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserRole{UserID: userID, Role: role})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *userRoleRepository) Revoke(ctx context.Context, userID string, role model.AppRole) error {
	return conn(ctx, r.db).Where("user_id = ? AND role = ?", userID, role).Delete(&model.UserRole{}).Error
}

func (r *userRoleRepository) HasRole(ctx context.Context, userID string, role model.AppRole) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&model.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	return count > 0, err
}

func (r *userRoleRepository) ListRoles(ctx context.Context, userID string) ([]model.AppRole, error) {
	var roles []model.AppRole
	err := conn(ctx, r.db).Model(&model.UserRole{}).
		Where("user_id = ?", userID).
		Order("role ASC").
		Pluck("role", &roles).Error
	return roles, err
}

// userBackendRoleRepository 用户后台角色仓库实现
type userBackendRoleRepository struct {
	db *gorm.DB
}

// NewUserBackendRoleRepository 创建用户后台角色仓库
func NewUserBackendRoleRepository(db *gorm.DB) UserBackendRoleRepository {
	return &userBackendRoleRepository{db: db}
}

func (r *userBackendRoleRepository) Assign(ctx context.Context, userID, roleID, grantedBy string) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserBackendRole{UserID: userID, RoleID: roleID, GrantedBy: grantedBy})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *userBackendRoleRepository) ListByUser(ctx context.Context, userID string) ([]*model.UserBackendRole, error) {
	var assignments []*model.UserBackendRole
	err := conn(ctx, r.db).Preload("Role").Where("user_id = ?", userID).Find(&assignments).Error
	return assignments, err
}

func (r *userBackendRoleRepository) ListMenus(ctx context.Context, userID string, terminal model.Terminal) ([]*model.Menu, error) {
	db := conn(ctx, r.db)
	activeRoles := db.Model(&model.Role{}).Select("id").Where("is_active = ?", true)
	userRoles := db.Model(&model.UserBackendRole{}).Select("role_id").
		Where("user_id = ? AND role_id IN (?)", userID, activeRoles)
	menuIDs := db.Model(&model.RoleMenu{}).Select("menu_id").Where("role_id IN (?)", userRoles)

	var menus []*model.Menu
	err := db.Where("id IN (?) AND terminal = ? AND is_active = ?", menuIDs, terminal, true).
		Order("sort_order ASC").
		Find(&menus).Error
	return menus, err
}
