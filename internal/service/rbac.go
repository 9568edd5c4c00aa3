// Package service 业务逻辑层
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pu-ac-cn/srm-backend/internal/logger"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrInvalidAppRole  = errors.New("无效的应用角色")
	ErrInvalidTerminal = errors.New("无效的终端")
)

// RBACService 角色与菜单服务接口
type RBACService interface {
	// 应用角色
	HasRole(ctx context.Context, userID string, role model.AppRole) (bool, error)
	GetUserRoles(ctx context.Context, userID string) ([]model.AppRole, error)
	RevokeRole(ctx context.Context, userID string, role model.AppRole) error

	// 后台角色
	ListRoles(ctx context.Context, terminal model.Terminal) ([]*model.Role, error)
	GetRoleMenus(ctx context.Context, roleID string) ([]*model.Menu, error)
	GetUserBackendRoles(ctx context.Context, userID string) ([]*model.UserBackendRole, error)

	// 菜单
	CreateMenu(ctx context.Context, menu *model.Menu) error
	UpdateMenu(ctx context.Context, menu *model.Menu) error
	GetMenu(ctx context.Context, id string) (*model.Menu, error)
	ListMenus(ctx context.Context, terminal model.Terminal) ([]*model.Menu, error)
	GetUserMenus(ctx context.Context, userID string, terminal model.Terminal) ([]*model.Menu, error)
	InvalidateUserMenus(ctx context.Context, userID string) error

	// SeedMenus 写入内置菜单，返回新增数量
	SeedMenus(ctx context.Context) (int64, error)
}

type rbacService struct {
	roleRepo        repository.RoleRepository
	menuRepo        repository.MenuRepository
	userRoleRepo    repository.UserRoleRepository
	backendRoleRepo repository.UserBackendRoleRepository
	cache           *MenuCache
	log             *zap.Logger
}

// NewRBACService 创建角色与菜单服务
func NewRBACService(
	roleRepo repository.RoleRepository,
	menuRepo repository.MenuRepository,
	userRoleRepo repository.UserRoleRepository,
	backendRoleRepo repository.UserBackendRoleRepository,
	cache *MenuCache,
) RBACService {
	return &rbacService{
		roleRepo:        roleRepo,
		menuRepo:        menuRepo,
		userRoleRepo:    userRoleRepo,
		backendRoleRepo: backendRoleRepo,
		cache:           cache,
		log:             logger.L().Named("rbac"),
	}
}

// 应用角色

func (s *rbacService) HasRole(ctx context.Context, userID string, role model.AppRole) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.userRoleRepo.HasRole(ctx, userID, role)
}

func (s *rbacService) GetUserRoles(ctx context.Context, userID string) ([]model.AppRole, error) {
	return s.userRoleRepo.ListRoles(ctx, userID)
}

// RevokeRole 撤销应用角色，已分配的后台角色保留
func (s *rbacService) RevokeRole(ctx context.Context, userID string, role model.AppRole) error {
	if !role.Valid() {
		return ErrInvalidAppRole
	}
	if err := s.userRoleRepo.Revoke(ctx, userID, role); err != nil {
		return err
	}
	return s.InvalidateUserMenus(ctx, userID)
}

// 后台角色

func (s *rbacService) ListRoles(ctx context.Context, terminal model.Terminal) ([]*model.Role, error) {
	if terminal != "" && !terminal.Valid() {
		return nil, ErrInvalidTerminal
	}
	return s.roleRepo.List(ctx, terminal)
}

func (s *rbacService) GetRoleMenus(ctx context.Context, roleID string) ([]*model.Menu, error) {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.roleRepo.GetMenus(ctx, roleID)
}

func (s *rbacService) GetUserBackendRoles(ctx context.Context, userID string) ([]*model.UserBackendRole, error) {
	return s.backendRoleRepo.ListByUser(ctx, userID)
}

// 菜单

func (s *rbacService) CreateMenu(ctx context.Context, menu *model.Menu) error {
	if err := validateMenu(menu); err != nil {
		return err
	}
	return s.menuRepo.Create(ctx, menu)
}

// UpdateMenu 更新菜单并清除受影响终端的用户菜单缓存
func (s *rbacService) UpdateMenu(ctx context.Context, menu *model.Menu) error {
	if err := validateMenu(menu); err != nil {
		return err
	}
	existing, err := s.menuRepo.GetByID(ctx, menu.ID)
	if err != nil {
		return err
	}
	if err := s.menuRepo.Update(ctx, menu); err != nil {
		return err
	}

	terminals := []model.Terminal{menu.Terminal}
	if existing.Terminal != menu.Terminal {
		terminals = append(terminals, existing.Terminal)
	}
	for _, t := range terminals {
		if err := s.cache.InvalidateTerminal(ctx, t); err != nil {
			s.log.Warn("清除菜单缓存失败", zap.String("terminal", string(t)), zap.Error(err))
		}
	}
	return nil
}

func (s *rbacService) GetMenu(ctx context.Context, id string) (*model.Menu, error) {
	return s.menuRepo.GetByID(ctx, id)
}

func (s *rbacService) ListMenus(ctx context.Context, terminal model.Terminal) ([]*model.Menu, error) {
	if terminal != "" && !terminal.Valid() {
		return nil, ErrInvalidTerminal
	}
	return s.menuRepo.List(ctx, terminal)
}

// GetUserMenus 用户在终端可见的菜单，优先读缓存
func (s *rbacService) GetUserMenus(ctx context.Context, userID string, terminal model.Terminal) ([]*model.Menu, error) {
	if !terminal.Valid() {
		return nil, ErrInvalidTerminal
	}

	menus, hit, err := s.cache.Get(ctx, userID, terminal)
	if err != nil {
		s.log.Warn("读取菜单缓存失败", zap.String("user_id", userID), zap.Error(err))
	}
	if hit {
		return menus, nil
	}

	ok, err := s.userRoleRepo.HasRole(ctx, userID, terminal.AppRole())
	if err != nil {
		return nil, err
	}
	if !ok {
		menus = []*model.Menu{}
	} else {
		menus, err = s.backendRoleRepo.ListMenus(ctx, userID, terminal)
		if err != nil {
			return nil, err
		}
	}

	if err := s.cache.Set(ctx, userID, terminal, menus); err != nil {
		s.log.Warn("写入菜单缓存失败", zap.String("user_id", userID), zap.Error(err))
	}
	return menus, nil
}

func (s *rbacService) InvalidateUserMenus(ctx context.Context, userID string) error {
	return s.cache.Invalidate(ctx, userID)
}

func (s *rbacService) SeedMenus(ctx context.Context) (int64, error) {
	return s.menuRepo.Seed(ctx, model.DefaultMenus())
}

func validateMenu(menu *model.Menu) error {
	if menu == nil {
		return NewValidationError("", "菜单不能为空")
	}
	if !menu.Terminal.Valid() {
		return NewValidationError("terminal", "无效的终端")
	}
	menu.Code = strings.TrimSpace(menu.Code)
	if menu.Code == "" {
		return NewValidationError("code", "不能为空")
	}
	menu.Name = strings.TrimSpace(menu.Name)
	if menu.Name == "" {
		return NewValidationError("name", "不能为空")
	}
	return nil
}
