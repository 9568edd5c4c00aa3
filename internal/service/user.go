package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
)

var (
	ErrUserIDEmpty         = errors.New("用户 ID 不能为空")
	ErrUsernameEmpty       = errors.New("用户名不能为空")
	ErrUsernameInvalid     = errors.New("用户名只能包含字母、数字和下划线")
	ErrUsernameTooShort    = errors.New("用户名长度不能少于 3 个字符")
	ErrEmailEmpty          = errors.New("邮箱不能为空")
	ErrEmailInvalid        = errors.New("邮箱格式无效")
	ErrPasswordEmpty       = errors.New("密码不能为空")
	ErrPasswordWeak        = errors.New("密码强度不足，需要至少8位，包含大写字母、小写字母和数字")
	ErrInvalidStatus       = errors.New("无效的账户状态")
	ErrRoleNotAssignable   = errors.New("供应商角色需通过注册审核获得")
	ErrCannotDisableSelf   = errors.New("不能禁用自己的账户")
	ErrCannotRevokeOwnRole = errors.New("不能撤销自己的管理员角色")
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// UpdateUserInput 管理员更新账户
type UpdateUserInput struct {
	DisplayName *string
	Phone       *string
	Status      *string
}

// UserService 账户服务接口
type UserService interface {
	// Create 创建账户（公开注册），不附带任何应用角色
	Create(ctx context.Context, user *model.User, password string) error
	// CreateWithRole 管理员创建账户，admin/department 角色同时开通对应终端
	CreateWithRole(ctx context.Context, user *model.User, password string, role model.AppRole, operatorID string) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, filter *repository.UserFilter, page *repository.Pagination) ([]*model.User, int64, error)
	Update(ctx context.Context, operatorID, id string, input *UpdateUserInput) (*model.User, error)
	// GrantRole 授予 admin/department 角色并开通终端
	GrantRole(ctx context.Context, userID string, role model.AppRole, operatorID string) error
	RevokeRole(ctx context.Context, userID string, role model.AppRole, operatorID string) error
}

type userService struct {
	tx          repository.Transactor
	userRepo    repository.UserRepository
	rbac        RBACService
	provisioner ProvisioningService
}

// NewUserService 创建账户服务
func NewUserService(tx repository.Transactor, userRepo repository.UserRepository, rbac RBACService, provisioner ProvisioningService) UserService {
	return &userService{tx: tx, userRepo: userRepo, rbac: rbac, provisioner: provisioner}
}

func (s *userService) Create(ctx context.Context, user *model.User, password string) error {
	if err := validateUser(user); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return errors.New("密码加密失败")
	}
	if user.Status == "" {
		user.Status = model.StatusActive
	}
	return s.userRepo.Create(ctx, user)
}

func (s *userService) CreateWithRole(ctx context.Context, user *model.User, password string, role model.AppRole, operatorID string) error {
	if role != "" {
		if err := assignableRole(role); err != nil {
			return err
		}
	}
	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.Create(ctx, user, password); err != nil {
			return err
		}
		if role == "" {
			return nil
		}
		return s.provisioner.EnsureTerminalAccess(ctx, user.ID, role.Terminal(), operatorID)
	})
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrUserIDEmpty
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context, filter *repository.UserFilter, page *repository.Pagination) ([]*model.User, int64, error) {
	if page == nil {
		page = &repository.Pagination{Page: 1, PageSize: 20}
	}
	return s.userRepo.List(ctx, filter, page)
}

func (s *userService) Update(ctx context.Context, operatorID, id string, input *UpdateUserInput) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Status != nil {
		switch *input.Status {
		case model.StatusActive:
			user.ResetFailedLogin()
		case model.StatusDisabled:
			if id == operatorID {
				return nil, ErrCannotDisableSelf
			}
		default:
			return nil, ErrInvalidStatus
		}
		user.Status = *input.Status
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GrantRole(ctx context.Context, userID string, role model.AppRole, operatorID string) error {
	if err := assignableRole(role); err != nil {
		return err
	}
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.provisioner.EnsureTerminalAccess(ctx, userID, role.Terminal(), operatorID)
}

func (s *userService) RevokeRole(ctx context.Context, userID string, role model.AppRole, operatorID string) error {
	if !role.Valid() {
		return ErrInvalidAppRole
	}
	if role == model.AppRoleAdmin && userID == operatorID {
		return ErrCannotRevokeOwnRole
	}
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.rbac.RevokeRole(ctx, userID, role)
}

func assignableRole(role model.AppRole) error {
	if !role.Valid() {
		return ErrInvalidAppRole
	}
	if role == model.AppRoleSupplier {
		return ErrRoleNotAssignable
	}
	return nil
}

func validateUser(user *model.User) error {
	if user == nil {
		return errors.New("用户信息不能为空")
	}
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return ErrUsernameEmpty
	}
	if len(user.Username) < 3 {
		return ErrUsernameTooShort
	}
	if !usernameRegex.MatchString(user.Username) {
		return ErrUsernameInvalid
	}
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return ErrEmailEmpty
	}
	if !emailRegex.MatchString(user.Email) {
		return ErrEmailInvalid
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	if !IsPasswordStrong(password) {
		return ErrPasswordWeak
	}
	return nil
}
