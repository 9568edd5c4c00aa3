// Package handler HTTP 处理器
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/srm-backend/internal/middleware"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/service"
	"github.com/pu-ac-cn/srm-backend/pkg/response"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	userService service.UserService
	authService service.AuthService
	rbacService service.RBACService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(userSvc service.UserService, authSvc service.AuthService, rbacSvc service.RBACService) *AuthHandler {
	return &AuthHandler{
		userService: userSvc,
		authService: authSvc,
		rbacService: rbacSvc,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"` // 用户名或邮箱
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// Register 账户注册，注册后不具备任何应用角色
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user := &model.User{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Status:      model.StatusActive,
	}
	if err := h.userService.Create(c.Request.Context(), user, req.Password); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"message":  "注册成功",
	})
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	account := req.Username
	if account == "" {
		account = req.Email
	}
	if account == "" {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "请提供用户名或邮箱")
		return
	}

	pair, _, err := h.authService.Login(c.Request.Context(), account, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, pair)
}

// RefreshToken 刷新令牌
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.CodeInvalidRequest)
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrAccountDisabled) || errors.Is(err, service.ErrUserNotFound) {
			writeError(c, err)
			return
		}
		response.Error(c, response.CodeInvalidRefreshToken)
		return
	}
	response.Success(c, pair)
}

// Logout 用户登出，注销当前访问令牌
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.CurrentClaims(c)); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "登出成功"})
}

// GetCurrentUser 获取当前用户信息及应用角色
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, response.CodeUserNotFound)
		return
	}
	roles, err := h.rbacService.GetUserRoles(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, userView(user, roles))
}

// ChangePassword 修改密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "密码已修改"})
}

// userView 隐藏敏感字段
func userView(user *model.User, roles []model.AppRole) gin.H {
	if roles == nil {
		roles = []model.AppRole{}
	}
	return gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"phone":        user.Phone,
		"status":       user.Status,
		"roles":        roles,
		"created_at":   user.CreatedAt,
		"updated_at":   user.UpdatedAt,
	}
}
