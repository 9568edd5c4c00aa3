package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/srm-backend/internal/middleware"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/service"
	"github.com/pu-ac-cn/srm-backend/pkg/response"
)

// RBACHandler 菜单与后台角色处理器
type RBACHandler struct {
	rbacService service.RBACService
}

// NewRBACHandler 创建菜单与后台角色处理器
func NewRBACHandler(rbacSvc service.RBACService) *RBACHandler {
	return &RBACHandler{rbacService: rbacSvc}
}

// MenuRequest 创建或更新菜单请求
type MenuRequest struct {
	Terminal  model.Terminal `json:"terminal" binding:"required"`
	Code      string         `json:"code" binding:"required"`
	Name      string         `json:"name" binding:"required"`
	ParentID  string         `json:"parent_id"`
	Path      string         `json:"path"`
	Icon      string         `json:"icon"`
	SortOrder int            `json:"sort_order"`
	IsActive  *bool          `json:"is_active"`
}

func (r *MenuRequest) apply(menu *model.Menu) {
	menu.Terminal = r.Terminal
	menu.Code = r.Code
	menu.Name = r.Name
	menu.ParentID = r.ParentID
	menu.Path = r.Path
	menu.Icon = r.Icon
	menu.SortOrder = r.SortOrder
	if r.IsActive != nil {
		menu.IsActive = *r.IsActive
	}
}

// MyMenus 当前用户在终端可见的菜单
// GET /api/v1/me/menus?terminal=supplier
func (h *RBACHandler) MyMenus(c *gin.Context) {
	terminal := model.Terminal(c.Query("terminal"))
	menus, err := h.rbacService.GetUserMenus(c.Request.Context(), middleware.CurrentUserID(c), terminal)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, menus)
}

// ListMenus 获取菜单列表
// GET /api/v1/admin/menus?terminal=
func (h *RBACHandler) ListMenus(c *gin.Context) {
	menus, err := h.rbacService.ListMenus(c.Request.Context(), model.Terminal(c.Query("terminal")))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, menus)
}

// CreateMenu 创建菜单，不会同步到已存在的默认角色
// POST /api/v1/admin/menus
func (h *RBACHandler) CreateMenu(c *gin.Context) {
	var req MenuRequest
	if !bindJSON(c, &req) {
		return
	}

	menu := &model.Menu{IsActive: true}
	req.apply(menu)
	if err := h.rbacService.CreateMenu(c.Request.Context(), menu); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, menu)
}

// UpdateMenu 更新菜单
// PUT /api/v1/admin/menus/:id
func (h *RBACHandler) UpdateMenu(c *gin.Context) {
	var req MenuRequest
	if !bindJSON(c, &req) {
		return
	}

	menu, err := h.rbacService.GetMenu(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	req.apply(menu)
	if err := h.rbacService.UpdateMenu(c.Request.Context(), menu); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, menu)
}

// ListRoles 获取后台角色列表
// GET /api/v1/admin/roles?terminal=
func (h *RBACHandler) ListRoles(c *gin.Context) {
	roles, err := h.rbacService.ListRoles(c.Request.Context(), model.Terminal(c.Query("terminal")))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, roles)
}

// GetRoleMenus 获取后台角色的菜单
// GET /api/v1/admin/roles/:id/menus
func (h *RBACHandler) GetRoleMenus(c *gin.Context) {
	menus, err := h.rbacService.GetRoleMenus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, menus)
}
