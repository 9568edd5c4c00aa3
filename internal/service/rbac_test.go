package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRoleRepository 应用角色仓库 Mock
type MockUserRoleRepository struct {
	mock.Mock
}

func (m *MockUserRoleRepository) Grant(ctx context.Context, userID string, role model.AppRole) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRoleRepository) Revoke(ctx context.Context, userID string, role model.AppRole) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockUserRoleRepository) HasRole(ctx context.Context, userID string, role model.AppRole) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRoleRepository) ListRoles(ctx context.Context, userID string) ([]model.AppRole, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.AppRole), args.Error(1)
}

// MockUserBackendRoleRepository 后台角色分配仓库 Mock
type MockUserBackendRoleRepository struct {
	mock.Mock
}

func (m *MockUserBackendRoleRepository) Assign(ctx context.Context, userID, roleID, grantedBy string) (bool, error) {
	args := m.Called(ctx, userID, roleID, grantedBy)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserBackendRoleRepository) ListByUser(ctx context.Context, userID string) ([]*model.UserBackendRole, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*model.UserBackendRole), args.Error(1)
}

func (m *MockUserBackendRoleRepository) ListMenus(ctx context.Context, userID string, terminal model.Terminal) ([]*model.Menu, error) {
	args := m.Called(ctx, userID, terminal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Menu), args.Error(1)
}

type rbacFixture struct {
	svc          RBACService
	userRoleRepo *MockUserRoleRepository
	backendRepo  *MockUserBackendRoleRepository
	menuRepo     *memMenuRepo
	redis        *miniredis.Miniredis
}

func newRBACFixture(t *testing.T) *rbacFixture {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := newMemStore()
	f := &rbacFixture{
		userRoleRepo: new(MockUserRoleRepository),
		backendRepo:  new(MockUserBackendRoleRepository),
		menuRepo:     &memMenuRepo{store},
		redis:        mr,
	}
	f.svc = NewRBACService(&memRoleRepo{store}, f.menuRepo, f.userRoleRepo, f.backendRepo, NewMenuCache(client, time.Minute))
	return f
}

// 测试用例

func TestRBACService_GetUserMenus_Cached(t *testing.T) {
	ctx := context.Background()
	f := newRBACFixture(t)

	menus := []*model.Menu{{Terminal: model.TerminalSupplier, Code: "profile", Name: "企业资料", IsActive: true}}
	f.userRoleRepo.On("HasRole", ctx, "user-1", model.AppRoleSupplier).Return(true, nil).Once()
	f.backendRepo.On("ListMenus", ctx, "user-1", model.TerminalSupplier).Return(menus, nil).Once()

	got, err := f.svc.GetUserMenus(ctx, "user-1", model.TerminalSupplier)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, f.redis.Exists("user_menus:user-1:supplier"))

	// 第二次命中缓存，不再查询仓库
	got, err = f.svc.GetUserMenus(ctx, "user-1", model.TerminalSupplier)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "profile", got[0].Code)

	f.userRoleRepo.AssertExpectations(t)
	f.backendRepo.AssertExpectations(t)
}

func TestRBACService_GetUserMenus_WithoutAppRole(t *testing.T) {
	ctx := context.Background()
	f := newRBACFixture(t)

	f.userRoleRepo.On("HasRole", ctx, "user-2", model.AppRoleDepartment).Return(false, nil).Once()

	got, err := f.svc.GetUserMenus(ctx, "user-2", model.TerminalDepartment)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	f.backendRepo.AssertNotCalled(t, "ListMenus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRBACService_GetUserMenus_InvalidTerminal(t *testing.T) {
	f := newRBACFixture(t)

	_, err := f.svc.GetUserMenus(context.Background(), "user-1", model.Terminal("portal"))
	assert.ErrorIs(t, err, ErrInvalidTerminal)
}

func TestRBACService_GetUserMenus_RepositoryError(t *testing.T) {
	ctx := context.Background()
	f := newRBACFixture(t)

	dbErr := errors.New("db down")
	f.userRoleRepo.On("HasRole", ctx, "user-3", model.AppRoleAdmin).Return(true, nil).Once()
	f.backendRepo.On("ListMenus", ctx, "user-3", model.TerminalAdmin).Return(nil, dbErr).Once()

	_, err := f.svc.GetUserMenus(ctx, "user-3", model.TerminalAdmin)
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, f.redis.Exists("user_menus:user-3:admin"))
}

// 缓存不可用时直接查询仓库
func TestRBACService_GetUserMenus_CacheDown(t *testing.T) {
	ctx := context.Background()
	f := newRBACFixture(t)
	f.redis.Close()

	f.userRoleRepo.On("HasRole", ctx, "user-4", model.AppRoleAdmin).Return(true, nil).Once()
	f.backendRepo.On("ListMenus", ctx, "user-4", model.TerminalAdmin).Return([]*model.Menu{}, nil).Once()

	_, err := f.svc.GetUserMenus(ctx, "user-4", model.TerminalAdmin)
	assert.NoError(t, err)
}

func TestRBACService_RevokeRole(t *testing.T) {
	ctx := context.Background()
	f := newRBACFixture(t)

	require.NoError(t, f.redis.Set("user_menus:user-5:department", "[]"))
	f.userRoleRepo.On("Revoke", ctx, "user-5", model.AppRoleDepartment).Return(nil).Once()

	require.NoError(t, f.svc.RevokeRole(ctx, "user-5", model.AppRoleDepartment))
	assert.False(t, f.redis.Exists("user_menus:user-5:department"))
	f.userRoleRepo.AssertExpectations(t)

	assert.ErrorIs(t, f.svc.RevokeRole(ctx, "user-5", model.AppRole("guest")), ErrInvalidAppRole)
}

func TestRBACService_HasRole_EmptyUser(t *testing.T) {
	f := newRBACFixture(t)

	ok, err := f.svc.HasRole(context.Background(), "", model.AppRoleAdmin)
	assert.NoError(t, err)
	assert.False(t, ok)
	f.userRoleRepo.AssertNotCalled(t, "HasRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestRBACService_CreateMenu(t *testing.T) {
	ctx := context.Background()
	f := newRBACFixture(t)

	tests := []struct {
		name    string
		menu    *model.Menu
		wantErr bool
	}{
		{"有效菜单", &model.Menu{Terminal: model.TerminalAdmin, Code: "reports", Name: "报表"}, false},
		{"无效终端", &model.Menu{Terminal: "portal", Code: "x", Name: "x"}, true},
		{"缺少标识", &model.Menu{Terminal: model.TerminalAdmin, Code: "  ", Name: "x"}, true},
		{"缺少名称", &model.Menu{Terminal: model.TerminalAdmin, Code: "y"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.CreateMenu(ctx, tt.menu)
			if tt.wantErr {
				assert.True(t, IsValidationError(err))
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, tt.menu.ID)
		})
	}
}

func TestRBACService_SeedMenus(t *testing.T) {
	ctx := context.Background()
	f := newRBACFixture(t)

	n, err := f.svc.SeedMenus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(model.DefaultMenus())), n)

	// 重复写入不新增
	n, err = f.svc.SeedMenus(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	menus, err := f.svc.ListMenus(ctx, model.TerminalSupplier)
	require.NoError(t, err)
	assert.NotEmpty(t, menus)

	_, err = f.svc.ListMenus(ctx, "portal")
	assert.ErrorIs(t, err, ErrInvalidTerminal)
}

func TestRBACService_UpdateMenu_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f := newRBACFixture(t)

	menu := &model.Menu{Terminal: model.TerminalSupplier, Code: "orders", Name: "订单", IsActive: true}
	require.NoError(t, f.svc.CreateMenu(ctx, menu))

	for _, key := range []string{"user_menus:u1:supplier", "user_menus:u2:supplier", "user_menus:u1:department", "user_menus:u1:admin"} {
		require.NoError(t, f.redis.Set(key, "[]"))
	}

	// 同终端内更新
	menu.Name = "采购订单"
	require.NoError(t, f.svc.UpdateMenu(ctx, menu))
	assert.False(t, f.redis.Exists("user_menus:u1:supplier"))
	assert.False(t, f.redis.Exists("user_menus:u2:supplier"))
	assert.True(t, f.redis.Exists("user_menus:u1:department"))
	assert.True(t, f.redis.Exists("user_menus:u1:admin"))

	// 迁移到其他终端时新旧终端都失效
	require.NoError(t, f.redis.Set("user_menus:u2:supplier", "[]"))
	moved := *menu
	moved.Terminal = model.TerminalDepartment
	require.NoError(t, f.svc.UpdateMenu(ctx, &moved))
	assert.False(t, f.redis.Exists("user_menus:u2:supplier"))
	assert.False(t, f.redis.Exists("user_menus:u1:department"))
	assert.True(t, f.redis.Exists("user_menus:u1:admin"))

	stored, err := f.svc.GetMenu(ctx, menu.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TerminalDepartment, stored.Terminal)
	assert.Equal(t, "采购订单", stored.Name)
}

func TestRBACService_UpdateMenu_NotFound(t *testing.T) {
	f := newRBACFixture(t)
	require.NoError(t, f.redis.Set("user_menus:u1:admin", "[]"))

	err := f.svc.UpdateMenu(context.Background(), &model.Menu{BaseModel: model.BaseModel{ID: "missing"}, Terminal: model.TerminalAdmin, Code: "x", Name: "x"})
	assert.ErrorIs(t, err, repository.ErrMenuNotFound)
	assert.True(t, f.redis.Exists("user_menus:u1:admin"))
}

func TestRBACService_UpdateMenu_CacheDown(t *testing.T) {
	ctx := context.Background()
	f := newRBACFixture(t)

	menu := &model.Menu{Terminal: model.TerminalAdmin, Code: "audit_log", Name: "审核日志"}
	require.NoError(t, f.svc.CreateMenu(ctx, menu))

	// 缓存不可用不影响更新结果
	f.redis.Close()
	menu.Name = "审核记录"
	require.NoError(t, f.svc.UpdateMenu(ctx, menu))

	stored, err := f.svc.GetMenu(ctx, menu.ID)
	require.NoError(t, err)
	assert.Equal(t, "审核记录", stored.Name)
}
