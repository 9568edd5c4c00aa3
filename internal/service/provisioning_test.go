package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisioningService_EnsureDefaultRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedMenus(t, model.TerminalAdmin, 4)

	// 停用的菜单不进入快照
	inactive := &model.Menu{Terminal: model.TerminalAdmin, Code: "legacy", Name: "旧菜单", IsActive: false}
	require.NoError(t, env.menuRepo.Create(ctx, inactive))
	env.seedMenus(t, model.TerminalSupplier, 2)

	role, err := env.provisioner.EnsureDefaultRole(ctx, model.TerminalAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin_default", role.Code)
	assert.Equal(t, model.TerminalAdmin, role.Terminal)
	assert.True(t, role.IsDefault)
	assert.True(t, role.IsActive)

	menus, err := env.rbac.GetRoleMenus(ctx, role.ID)
	require.NoError(t, err)
	assert.Len(t, menus, 4)
	for _, m := range menus {
		assert.Equal(t, model.TerminalAdmin, m.Terminal)
	}

	again, err := env.provisioner.EnsureDefaultRole(ctx, model.TerminalAdmin)
	require.NoError(t, err)
	assert.Equal(t, role.ID, again.ID)
	assert.Equal(t, 1, env.store.roleCount())
}

func TestProvisioningService_EnsureTerminalAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedMenus(t, model.TerminalDepartment, 1)
	user := env.newAccount(t, "dept_user")

	// 预先写入缓存，开通后应被清除
	require.NoError(t, env.cache.Set(ctx, user.ID, model.TerminalDepartment, []*model.Menu{}))

	require.NoError(t, env.provisioner.EnsureTerminalAccess(ctx, user.ID, model.TerminalDepartment, testAdminID))
	assert.False(t, env.redis.Exists("user_menus:"+user.ID+":department"))

	require.NoError(t, env.provisioner.EnsureTerminalAccess(ctx, user.ID, model.TerminalDepartment, "someone-else"))
	assert.Equal(t, 1, env.store.appRoleCount(user.ID))
	assert.Equal(t, 1, env.store.backendRoleCount(user.ID))

	roles, err := env.rbac.GetUserBackendRoles(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, testAdminID, roles[0].GrantedBy)

	err = env.provisioner.EnsureTerminalAccess(ctx, user.ID, model.Terminal("portal"), testAdminID)
	assert.True(t, IsValidationError(err))
}

func TestProvisioningService_StepError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.wire(&failingRoleRepo{env.roleRepo})

	err := env.provisioner.EnsureTerminalAccess(ctx, "user-x", model.TerminalSupplier, testAdminID)
	require.Error(t, err)

	var pe *ProvisioningError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StepEnsureRole, pe.Step)
	assert.Equal(t, string(model.TerminalSupplier), pe.Terminal)
	assert.Contains(t, pe.Error(), "connection reset")
}

// 缓存不可用不影响开通结果
func TestProvisioningService_CacheFailureIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.newAccount(t, "cacheless")
	env.redis.Close()

	require.NoError(t, env.provisioner.EnsureTerminalAccess(ctx, user.ID, model.TerminalAdmin, testAdminID))
	assert.Equal(t, 1, env.store.backendRoleCount(user.ID))
}
