package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/srm-backend/internal/logger"
	"github.com/pu-ac-cn/srm-backend/internal/middleware"
	"github.com/pu-ac-cn/srm-backend/internal/service"
	"github.com/pu-ac-cn/srm-backend/pkg/response"
	"go.uber.org/zap"
)

// AuditHandler 供应商审核网关
type AuditHandler struct {
	auditService service.AuditService
}

// NewAuditHandler 创建审核网关处理器
func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditSvc}
}

// Handle 执行 {action, ...params} 命令
// POST /api/v1/admin/audit
func (h *AuditHandler) Handle(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.ActionError(c, http.StatusBadRequest, "读取请求体失败")
		return
	}

	cmd, err := service.DecodeAuditCommand(body)
	if err != nil {
		status, msg := actionStatus(err)
		response.ActionError(c, status, msg)
		return
	}

	data, err := h.auditService.Dispatch(c.Request.Context(), middleware.CurrentUserID(c), cmd)
	if err != nil {
		status, msg := actionStatus(err)
		if status == http.StatusInternalServerError {
			logger.FromContext(c.Request.Context()).Error("审核操作失败",
				zap.String("action", cmd.Action()),
				zap.String("operator_id", middleware.CurrentUserID(c)),
				zap.Error(err),
			)
		}
		response.ActionError(c, status, msg)
		return
	}

	if data == nil {
		response.ActionSuccess(c)
		return
	}
	response.ActionData(c, data)
}
