package service

import (
	"context"

	"github.com/pu-ac-cn/srm-backend/internal/logger"
	"github.com/pu-ac-cn/srm-backend/internal/metrics"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
	"go.uber.org/zap"
)

// ProvisioningService 终端权限开通
type ProvisioningService interface {
	// EnsureTerminalAccess 授予终端应用角色和默认后台角色，可重复调用
	EnsureTerminalAccess(ctx context.Context, userID string, terminal model.Terminal, grantedBy string) error
	// EnsureDefaultRole 获取或创建终端默认角色，仅新建时快照当前启用菜单
	EnsureDefaultRole(ctx context.Context, terminal model.Terminal) (*model.Role, error)
}

type provisioningService struct {
	tx              repository.Transactor
	userRoleRepo    repository.UserRoleRepository
	roleRepo        repository.RoleRepository
	menuRepo        repository.MenuRepository
	backendRoleRepo repository.UserBackendRoleRepository
	cache           *MenuCache
	log             *zap.Logger
}

// ProvisioningDeps 权限开通依赖
type ProvisioningDeps struct {
	Tx              repository.Transactor
	UserRoleRepo    repository.UserRoleRepository
	RoleRepo        repository.RoleRepository
	MenuRepo        repository.MenuRepository
	BackendRoleRepo repository.UserBackendRoleRepository
	Cache           *MenuCache
	Logger          *zap.Logger
}

// NewProvisioningService 创建权限开通服务
func NewProvisioningService(deps ProvisioningDeps) ProvisioningService {
	log := deps.Logger
	if log == nil {
		log = logger.L()
	}
	return &provisioningService{
		tx:              deps.Tx,
		userRoleRepo:    deps.UserRoleRepo,
		roleRepo:        deps.RoleRepo,
		menuRepo:        deps.MenuRepo,
		backendRoleRepo: deps.BackendRoleRepo,
		cache:           deps.Cache,
		log:             log.Named("provisioning"),
	}
}

func (s *provisioningService) EnsureTerminalAccess(ctx context.Context, userID string, terminal model.Terminal, grantedBy string) error {
	if !terminal.Valid() {
		return NewValidationError("terminal", "无效的终端")
	}

	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		granted, err := s.userRoleRepo.Grant(ctx, userID, terminal.AppRole())
		if err != nil {
			return &ProvisioningError{Step: StepGrantAppRole, Terminal: string(terminal), Err: err}
		}

		role, err := s.EnsureDefaultRole(ctx, terminal)
		if err != nil {
			return err
		}

		assigned, err := s.backendRoleRepo.Assign(ctx, userID, role.ID, grantedBy)
		if err != nil {
			return &ProvisioningError{Step: StepAssignRole, Terminal: string(terminal), Err: err}
		}

		s.log.Info("终端权限已开通",
			zap.String("user_id", userID),
			zap.String("terminal", string(terminal)),
			zap.String("role_code", role.Code),
			zap.Bool("app_role_granted", granted),
			zap.Bool("backend_role_assigned", assigned),
		)
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		// 缓存会按 TTL 过期，不影响开通结果
		s.log.Warn("清除菜单缓存失败", zap.String("user_id", userID), zap.Error(err))
		metrics.ProvisioningFailures.WithLabelValues(string(terminal), StepInvalidateCache).Inc()
	}
	return nil
}

func (s *provisioningService) EnsureDefaultRole(ctx context.Context, terminal model.Terminal) (*model.Role, error) {
	var role *model.Role
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		role = model.DefaultRole(terminal)
		created, err := s.roleRepo.EnsureByCode(ctx, role)
		if err != nil {
			return &ProvisioningError{Step: StepEnsureRole, Terminal: string(terminal), Err: err}
		}
		if !created {
			return nil
		}

		// 只在新建时快照，之后新增的菜单不会同步到该角色
		menus, err := s.menuRepo.ListActiveByTerminal(ctx, terminal)
		if err != nil {
			return &ProvisioningError{Step: StepSnapshotMenus, Terminal: string(terminal), Err: err}
		}
		ids := make([]string, 0, len(menus))
		for _, m := range menus {
			ids = append(ids, m.ID)
		}
		if err := s.roleRepo.AddMenus(ctx, role.ID, ids); err != nil {
			return &ProvisioningError{Step: StepSnapshotMenus, Terminal: string(terminal), Err: err}
		}
		s.log.Info("已创建终端默认角色",
			zap.String("terminal", string(terminal)),
			zap.String("role_code", role.Code),
			zap.Int("menu_count", len(ids)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}
