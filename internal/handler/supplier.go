package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/srm-backend/internal/middleware"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/service"
	"github.com/pu-ac-cn/srm-backend/pkg/response"
)

// SupplierHandler 供应商注册处理器
type SupplierHandler struct {
	registration service.RegistrationService
}

// NewSupplierHandler 创建供应商注册处理器
func NewSupplierHandler(registration service.RegistrationService) *SupplierHandler {
	return &SupplierHandler{registration: registration}
}

func supplierView(s *model.Supplier) gin.H {
	return gin.H{
		"supplier": s,
		"standing": s.Standing(),
	}
}

// Register 提交供应商注册，按 supplier_type 区分表单
// POST /api/v1/supplier/registration
func (h *SupplierHandler) Register(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, response.CodeInvalidRequest)
		return
	}
	form, err := service.DecodeRegistrationForm(body)
	if err != nil {
		writeError(c, err)
		return
	}

	supplier, err := h.registration.Register(c.Request.Context(), middleware.CurrentUserID(c), form)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMsg(c, "注册已提交，请等待审核", supplierView(supplier))
}

// GetMine 获取当前账户的供应商记录
// GET /api/v1/supplier/registration
func (h *SupplierHandler) GetMine(c *gin.Context) {
	supplier, err := h.registration.GetMine(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, supplierView(supplier))
}

// UpdateProfile 修改联系、地址、银行等资料
// PUT /api/v1/supplier/profile
func (h *SupplierHandler) UpdateProfile(c *gin.Context) {
	var input service.UpdateProfileInput
	if !bindJSON(c, &input) {
		return
	}

	supplier, err := h.registration.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, supplierView(supplier))
}
