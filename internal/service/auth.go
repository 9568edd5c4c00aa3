package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
)

// 认证相关错误
var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrAccountLocked      = errors.New("账户已锁定，请稍后再试")
	ErrAccountDisabled    = errors.New("账户已禁用")
	ErrUserNotFound       = errors.New("用户不存在")
)

// TokenPair 登录或刷新后签发的令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // 秒
}

// AuthService 认证服务接口
type AuthService interface {
	// Authenticate 验证凭据，account 为用户名或邮箱
	Authenticate(ctx context.Context, account, password string) (*model.User, error)
	// Login 验证凭据并签发令牌
	Login(ctx context.Context, account, password string) (*TokenPair, *model.User, error)
	// Refresh 使用刷新令牌换取新令牌，旧刷新令牌随即注销
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	// Logout 注销当前访问令牌
	Logout(ctx context.Context, claims *TokenClaims) error
	// ChangePassword 修改密码
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	// ResetPassword 重置密码（管理员操作）
	ResetPassword(ctx context.Context, userID, newPassword string) error
}

// authService 认证服务实现
type authService struct {
	userRepo repository.UserRepository
	tokenSvc TokenService
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repository.UserRepository, tokenSvc TokenService) AuthService {
	return &authService{userRepo: userRepo, tokenSvc: tokenSvc}
}

func (s *authService) Authenticate(ctx context.Context, account, password string) (*model.User, error) {
	account = strings.TrimSpace(account)
	var user *model.User
	var err error
	if strings.Contains(account, "@") {
		user, err = s.userRepo.GetByEmail(ctx, account)
	} else {
		user, err = s.userRepo.GetByUsername(ctx, account)
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.IsLocked() {
		return nil, ErrAccountLocked
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	if !user.VerifyPassword(password) {
		user.IncrementFailedLogin()
		_ = s.userRepo.Update(ctx, user)
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginCount > 0 {
		user.ResetFailedLogin()
		_ = s.userRepo.Update(ctx, user)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, account, password string) (*TokenPair, *model.User, error) {
	user, err := s.Authenticate(ctx, account, password)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.issue(ctx, user.ID, user.Username)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenSvc.ValidateToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh {
		return nil, ErrInvalidTokenType
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	if err := s.tokenSvc.RevokeToken(ctx, claims); err != nil {
		return nil, err
	}
	return s.issue(ctx, user.ID, user.Username)
}

func (s *authService) Logout(ctx context.Context, claims *TokenClaims) error {
	return s.tokenSvc.RevokeToken(ctx, claims)
}

func (s *authService) issue(ctx context.Context, userID, username string) (*TokenPair, error) {
	access, err := s.tokenSvc.GenerateAccessToken(ctx, &TokenClaims{UserID: userID, Username: username})
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokenSvc.GenerateRefreshToken(ctx, &TokenClaims{UserID: userID, Username: username})
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenSvc.AccessExpiry() / time.Second),
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidCredentials
	}
	if !IsPasswordStrong(newPassword) {
		return ErrPasswordWeak
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.userRepo.Update(ctx, user)
}

func (s *authService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	if !IsPasswordStrong(newPassword) {
		return ErrPasswordWeak
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	user.ResetFailedLogin()
	return s.userRepo.Update(ctx, user)
}

// IsPasswordStrong 检查密码强度
// 密码要求：最小 8 位，包含大写字母、小写字母、数字
func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		}
	}

	return hasUpper && hasLower && hasDigit
}
