package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// memStore 内存存储，模拟数据库中的唯一约束
type memStore struct {
	mu           sync.Mutex
	seq          int
	users        map[string]*model.User
	userRoles    map[string]map[model.AppRole]bool
	suppliers    map[string]*model.Supplier
	roles        map[string]*model.Role
	menus        map[string]*model.Menu
	roleMenus    map[string]map[string]bool
	backendRoles map[string]map[string]string
	audits       []*model.AuditRecord
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[string]*model.User),
		userRoles:    make(map[string]map[model.AppRole]bool),
		suppliers:    make(map[string]*model.Supplier),
		roles:        make(map[string]*model.Role),
		menus:        make(map[string]*model.Menu),
		roleMenus:    make(map[string]map[string]bool),
		backendRoles: make(map[string]map[string]string),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// 事务：直接执行

type fakeTx struct{}

func (fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// 用户

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return repository.ErrUserUsernameExists
		}
		if u.Email == user.Email {
			return repository.ErrUserEmailExists
		}
	}
	if user.ID == "" {
		user.ID = r.s.nextID("user")
	}
	user.CreatedAt = time.Now()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *memUserRepo) Update(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) List(ctx context.Context, filter *repository.UserFilter, page *repository.Pagination) ([]*model.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*model.User
	for _, u := range r.s.users {
		if filter != nil {
			if filter.Keyword != "" && !strings.Contains(u.Username, filter.Keyword) && !strings.Contains(u.Email, filter.Keyword) {
				continue
			}
			if filter.Status != "" && u.Status != filter.Status {
				continue
			}
			if filter.Role != "" && !r.s.userRoles[u.ID][filter.Role] {
				continue
			}
		}
		cp := *u
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, int64(len(result)), nil
}

func (r *memUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

// 供应商

type memSupplierRepo struct{ s *memStore }

func (r *memSupplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sup := range r.s.suppliers {
		if sup.UserID == supplier.UserID {
			return repository.ErrSupplierExists
		}
	}
	supplier.ID = r.s.nextID("supplier")
	supplier.CreatedAt = time.Now()
	cp := *supplier
	r.s.suppliers[supplier.ID] = &cp
	return nil
}

func (r *memSupplierRepo) GetByID(ctx context.Context, id string) (*model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sup, ok := r.s.suppliers[id]; ok {
		cp := *sup
		return &cp, nil
	}
	return nil, repository.ErrSupplierNotFound
}

func (r *memSupplierRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Supplier, error) {
	return r.GetByID(ctx, id)
}

func (r *memSupplierRepo) GetByUserID(ctx context.Context, userID string) (*model.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sup := range r.s.suppliers {
		if sup.UserID == userID {
			cp := *sup
			return &cp, nil
		}
	}
	return nil, repository.ErrSupplierNotFound
}

func (r *memSupplierRepo) Update(ctx context.Context, supplier *model.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.suppliers[supplier.ID]; !ok {
		return repository.ErrSupplierNotFound
	}
	cp := *supplier
	r.s.suppliers[supplier.ID] = &cp
	return nil
}

func (r *memSupplierRepo) List(ctx context.Context, filter *repository.SupplierFilter, page *repository.Pagination) ([]*model.Supplier, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*model.Supplier
	for _, sup := range r.s.suppliers {
		if filter != nil {
			if filter.Status != "" && sup.Status != filter.Status {
				continue
			}
			if filter.SupplierType != "" && sup.SupplierType != filter.SupplierType {
				continue
			}
			if filter.Keyword != "" && !strings.Contains(sup.CompanyName+sup.ContactName+sup.CreditCode, filter.Keyword) {
				continue
			}
		}
		cp := *sup
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if page == nil || page.PageSize == 0 {
		return all, total, nil
	}
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// 审核记录

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Create(ctx context.Context, record *model.AuditRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	record.ID = r.s.nextID("audit")
	record.CreatedAt = time.Now()
	cp := *record
	r.s.audits = append(r.s.audits, &cp)
	return nil
}

func (r *memAuditRepo) ListByTarget(ctx context.Context, targetTable, targetID string) ([]*model.AuditRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*model.AuditRecord
	for i := len(r.s.audits) - 1; i >= 0; i-- {
		a := r.s.audits[i]
		if a.TargetTable == targetTable && a.TargetID == targetID {
			cp := *a
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (s *memStore) auditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audits)
}

func (s *memStore) supplierCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.suppliers)
}

// 后台角色

type memRoleRepo struct{ s *memStore }

func (r *memRoleRepo) EnsureByCode(ctx context.Context, role *model.Role) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.Code == role.Code {
			*role = *existing
			return false, nil
		}
	}
	role.ID = r.s.nextID("role")
	cp := *role
	r.s.roles[role.ID] = &cp
	return true, nil
}

func (r *memRoleRepo) GetByID(ctx context.Context, id string) (*model.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if role, ok := r.s.roles[id]; ok {
		cp := *role
		return &cp, nil
	}
	return nil, repository.ErrRoleNotFound
}

func (r *memRoleRepo) GetByCode(ctx context.Context, code string) (*model.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, role := range r.s.roles {
		if role.Code == code {
			cp := *role
			return &cp, nil
		}
	}
	return nil, repository.ErrRoleNotFound
}

func (r *memRoleRepo) List(ctx context.Context, terminal model.Terminal) ([]*model.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*model.Role
	for _, role := range r.s.roles {
		if terminal == "" || role.Terminal == terminal {
			cp := *role
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *memRoleRepo) AddMenus(ctx context.Context, roleID string, menuIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.roleMenus[roleID] == nil {
		r.s.roleMenus[roleID] = make(map[string]bool)
	}
	for _, id := range menuIDs {
		r.s.roleMenus[roleID][id] = true
	}
	return nil
}

func (r *memRoleRepo) GetMenus(ctx context.Context, roleID string) ([]*model.Menu, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.menusOf(roleID, func(*model.Menu) bool { return true }), nil
}

func (s *memStore) menusOf(roleID string, keep func(*model.Menu) bool) []*model.Menu {
	var result []*model.Menu
	for id := range s.roleMenus[roleID] {
		if m, ok := s.menus[id]; ok && keep(m) {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result
}

// 菜单

type memMenuRepo struct{ s *memStore }

func (r *memMenuRepo) Create(ctx context.Context, menu *model.Menu) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.menus {
		if m.Terminal == menu.Terminal && m.Code == menu.Code {
			return repository.ErrMenuExists
		}
	}
	menu.ID = r.s.nextID("menu")
	cp := *menu
	r.s.menus[menu.ID] = &cp
	return nil
}

func (r *memMenuRepo) Seed(ctx context.Context, menus []model.Menu) (int64, error) {
	var n int64
	for i := range menus {
		if err := r.Create(ctx, &menus[i]); err == nil {
			n++
		}
	}
	return n, nil
}

func (r *memMenuRepo) GetByID(ctx context.Context, id string) (*model.Menu, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m, ok := r.s.menus[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, repository.ErrMenuNotFound
}

func (r *memMenuRepo) Update(ctx context.Context, menu *model.Menu) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.menus[menu.ID]; !ok {
		return repository.ErrMenuNotFound
	}
	cp := *menu
	r.s.menus[menu.ID] = &cp
	return nil
}

func (r *memMenuRepo) List(ctx context.Context, terminal model.Terminal) ([]*model.Menu, error) {
	return r.filter(func(m *model.Menu) bool { return terminal == "" || m.Terminal == terminal }), nil
}

func (r *memMenuRepo) ListActiveByTerminal(ctx context.Context, terminal model.Terminal) ([]*model.Menu, error) {
	return r.filter(func(m *model.Menu) bool { return m.Terminal == terminal && m.IsActive }), nil
}

func (r *memMenuRepo) filter(keep func(*model.Menu) bool) []*model.Menu {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*model.Menu
	for _, m := range r.s.menus {
		if keep(m) {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result
}

// 应用角色

type memUserRoleRepo struct{ s *memStore }

func (r *memUserRoleRepo) Grant(ctx context.Context, userID string, role model.AppRole) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userRoles[userID] == nil {
		r.s.userRoles[userID] = make(map[model.AppRole]bool)
	}
	if r.s.userRoles[userID][role] {
		return false, nil
	}
	r.s.userRoles[userID][role] = true
	return true, nil
}

func (r *memUserRoleRepo) Revoke(ctx context.Context, userID string, role model.AppRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.userRoles[userID], role)
	return nil
}

func (r *memUserRoleRepo) HasRole(ctx context.Context, userID string, role model.AppRole) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.userRoles[userID][role], nil
}

func (r *memUserRoleRepo) ListRoles(ctx context.Context, userID string) ([]model.AppRole, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var roles []model.AppRole
	for role := range r.s.userRoles[userID] {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles, nil
}

// 用户后台角色

type memBackendRoleRepo struct{ s *memStore }

func (r *memBackendRoleRepo) Assign(ctx context.Context, userID, roleID, grantedBy string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.backendRoles[userID] == nil {
		r.s.backendRoles[userID] = make(map[string]string)
	}
	if _, ok := r.s.backendRoles[userID][roleID]; ok {
		return false, nil
	}
	r.s.backendRoles[userID][roleID] = grantedBy
	return true, nil
}

func (r *memBackendRoleRepo) ListByUser(ctx context.Context, userID string) ([]*model.UserBackendRole, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*model.UserBackendRole
	for roleID, grantedBy := range r.s.backendRoles[userID] {
		ubr := &model.UserBackendRole{UserID: userID, RoleID: roleID, GrantedBy: grantedBy}
		if role, ok := r.s.roles[roleID]; ok {
			cp := *role
			ubr.Role = &cp
		}
		result = append(result, ubr)
	}
	return result, nil
}

func (r *memBackendRoleRepo) ListMenus(ctx context.Context, userID string, terminal model.Terminal) ([]*model.Menu, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]bool)
	var result []*model.Menu
	for roleID := range r.s.backendRoles[userID] {
		role, ok := r.s.roles[roleID]
		if !ok || !role.IsActive {
			continue
		}
		for _, m := range r.s.menusOf(roleID, func(m *model.Menu) bool { return m.Terminal == terminal && m.IsActive }) {
			if !seen[m.ID] {
				seen[m.ID] = true
				result = append(result, m)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (s *memStore) backendRoleCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.backendRoles[userID])
}

func (s *memStore) roleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.roles)
}

func (s *memStore) appRoleCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.userRoles[userID])
}

// testEnv 装配好内存仓库的服务集合
type testEnv struct {
	store        *memStore
	redis        *miniredis.Miniredis
	userRepo     *memUserRepo
	supplierRepo *memSupplierRepo
	auditRepo    *memAuditRepo
	roleRepo     *memRoleRepo
	menuRepo     *memMenuRepo
	userRoleRepo *memUserRoleRepo
	backendRepo  *memBackendRoleRepo
	cache        *MenuCache

	users        UserService
	rbac         RBACService
	provisioner  ProvisioningService
	registration RegistrationService
	audit        AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := newMemStore()
	env := &testEnv{
		store:        store,
		redis:        mr,
		userRepo:     &memUserRepo{store},
		supplierRepo: &memSupplierRepo{store},
		auditRepo:    &memAuditRepo{store},
		roleRepo:     &memRoleRepo{store},
		menuRepo:     &memMenuRepo{store},
		userRoleRepo: &memUserRoleRepo{store},
		backendRepo:  &memBackendRoleRepo{store},
		cache:        NewMenuCache(client, time.Minute),
	}
	env.wire(env.roleRepo)
	return env
}

// wire 按给定的角色仓库装配服务，便于注入故障
func (e *testEnv) wire(roleRepo repository.RoleRepository) {
	log := zap.NewNop()
	e.rbac = NewRBACService(roleRepo, e.menuRepo, e.userRoleRepo, e.backendRepo, e.cache)
	e.provisioner = NewProvisioningService(ProvisioningDeps{
		Tx:              fakeTx{},
		UserRoleRepo:    e.userRoleRepo,
		RoleRepo:        roleRepo,
		MenuRepo:        e.menuRepo,
		BackendRoleRepo: e.backendRepo,
		Cache:           e.cache,
		Logger:          log,
	})
	e.users = NewUserService(fakeTx{}, e.userRepo, e.rbac, e.provisioner)
	e.registration = NewRegistrationService(e.supplierRepo, log)
	e.audit = NewAuditService(AuditDeps{
		Tx:           fakeTx{},
		SupplierRepo: e.supplierRepo,
		AuditRepo:    e.auditRepo,
		UserRepo:     e.userRepo,
		Provisioner:  e.provisioner,
		Logger:       log,
	})
}

// seedMenus 为终端创建 n 个启用菜单
func (e *testEnv) seedMenus(t *testing.T, terminal model.Terminal, n int) {
	t.Helper()
	ctx := context.Background()
	existing, _ := e.menuRepo.List(ctx, terminal)
	for i := len(existing); i < len(existing)+n; i++ {
		menu := &model.Menu{
			Terminal:  terminal,
			Code:      fmt.Sprintf("menu_%d", i),
			Name:      fmt.Sprintf("菜单%d", i),
			SortOrder: i,
			IsActive:  true,
		}
		if err := e.menuRepo.Create(ctx, menu); err != nil {
			t.Fatalf("创建菜单失败: %v", err)
		}
	}
}

// newAccount 创建普通账户
func (e *testEnv) newAccount(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com"}
	if err := e.users.Create(context.Background(), user, "Passw0rd1"); err != nil {
		t.Fatalf("创建账户失败: %v", err)
	}
	return user
}

// registerEnterprise 提交企业注册
func (e *testEnv) registerEnterprise(t *testing.T, userID string) *model.Supplier {
	t.Helper()
	sup, err := e.registration.Register(context.Background(), userID, &EnterpriseForm{
		CompanyName:         "示例科技有限公司",
		CreditCode:          "91350100M000100Y43",
		LegalRepresentative: "张三",
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	return sup
}
