package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/srm-backend/internal/middleware"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
	"github.com/pu-ac-cn/srm-backend/internal/service"
	"github.com/pu-ac-cn/srm-backend/pkg/response"
)

// UserHandler 账户管理处理器（管理端）
type UserHandler struct {
	userService service.UserService
	authService service.AuthService
	rbacService service.RBACService
}

// NewUserHandler 创建账户管理处理器
func NewUserHandler(userSvc service.UserService, authSvc service.AuthService, rbacSvc service.RBACService) *UserHandler {
	return &UserHandler{userService: userSvc, authService: authSvc, rbacService: rbacSvc}
}

// ListUsers 获取账户列表
// GET /api/v1/admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := &repository.UserFilter{
		Keyword: c.Query("keyword"),
		Status:  c.Query("status"),
		Role:    model.AppRole(c.Query("role")),
	}
	if filter.Role != "" && !filter.Role.Valid() {
		writeError(c, service.ErrInvalidAppRole)
		return
	}

	users, total, err := h.userService.List(c.Request.Context(), filter, &repository.Pagination{Page: page, PageSize: pageSize})
	if err != nil {
		writeError(c, err)
		return
	}

	list := make([]gin.H, len(users))
	for i, user := range users {
		roles, err := h.rbacService.GetUserRoles(c.Request.Context(), user.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		list[i] = userView(user, roles)
	}

	response.Success(c, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetUser 获取账户详情，包含后台角色
// GET /api/v1/admin/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.userService.GetByID(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	roles, err := h.rbacService.GetUserRoles(ctx, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	backendRoles, err := h.rbacService.GetUserBackendRoles(ctx, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	view := userView(user, roles)
	view["backend_roles"] = backendRoles
	response.Success(c, view)
}

// CreateUserRequest 创建账户请求
type CreateUserRequest struct {
	Username    string        `json:"username" binding:"required,min=3"`
	Email       string        `json:"email" binding:"required,email"`
	Password    string        `json:"password" binding:"required,min=8"`
	DisplayName string        `json:"display_name"`
	Phone       string        `json:"phone"`
	Role        model.AppRole `json:"role"` // admin 或 department，可为空
}

// UpdateUserRequest 更新账户请求，未提供的字段不修改
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
	Status      *string `json:"status"`
}

// CreateUser 创建账户，指定角色时同时开通对应终端
// POST /api/v1/admin/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user := &model.User{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
	}
	if err := h.userService.CreateWithRole(c.Request.Context(), user, req.Password, req.Role, middleware.CurrentUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	var roles []model.AppRole
	if req.Role != "" {
		roles = []model.AppRole{req.Role}
	}
	response.Success(c, userView(user, roles))
}

// UpdateUser 更新账户
// PUT /api/v1/admin/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), &service.UpdateUserInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Status:      req.Status,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, userView(user, nil))
}

// GrantRole 授予应用角色并开通终端
// POST /api/v1/admin/users/:id/roles/:role
func (h *UserHandler) GrantRole(c *gin.Context) {
	role := model.AppRole(c.Param("role"))
	if err := h.userService.GrantRole(c.Request.Context(), c.Param("id"), role, middleware.CurrentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "角色已授予"})
}

// RevokeRole 撤销应用角色
// DELETE /api/v1/admin/users/:id/roles/:role
func (h *UserHandler) RevokeRole(c *gin.Context) {
	role := model.AppRole(c.Param("role"))
	if err := h.userService.RevokeRole(c.Request.Context(), c.Param("id"), role, middleware.CurrentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "角色已撤销"})
}

// ResetPassword 重置密码并解除锁定
// POST /api/v1/admin/users/:id/password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.ResetPassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "密码已重置"})
}
