package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/srm-backend/internal/logger"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
	"github.com/pu-ac-cn/srm-backend/internal/service"
	"github.com/pu-ac-cn/srm-backend/pkg/response"
	"go.uber.org/zap"
)

// 作为参数错误返回原始消息的业务错误
var badRequestErrors = []error{
	service.ErrUserIDEmpty,
	service.ErrUsernameEmpty,
	service.ErrUsernameInvalid,
	service.ErrUsernameTooShort,
	service.ErrEmailEmpty,
	service.ErrEmailInvalid,
	service.ErrPasswordEmpty,
	service.ErrInvalidStatus,
	service.ErrInvalidAppRole,
	service.ErrInvalidTerminal,
	service.ErrInvalidSupplierType,
}

// 错误到业务码的映射，按顺序匹配
var errorCodes = []struct {
	err  error
	code int
}{
	{service.ErrInvalidCredentials, response.CodeInvalidCredentials},
	{service.ErrAccountLocked, response.CodeAccountLocked},
	{service.ErrAccountDisabled, response.CodeAccountDisabled},
	{service.ErrPasswordWeak, response.CodeWeakPassword},
	{service.ErrRoleNotAssignable, response.CodeRoleNotAssignable},
	{service.ErrSupplierSuspended, response.CodeSupplierSuspended},
	{model.ErrInvalidTransition, response.CodeInvalidTransition},
	{service.ErrUserNotFound, response.CodeUserNotFound},
	{repository.ErrUserNotFound, response.CodeUserNotFound},
	{repository.ErrSupplierNotFound, response.CodeSupplierNotFound},
	{repository.ErrMenuNotFound, response.CodeMenuNotFound},
	{repository.ErrRoleNotFound, response.CodeRoleNotFound},
	{repository.ErrUserUsernameExists, response.CodeUserExists},
	{repository.ErrUserEmailExists, response.CodeEmailExists},
	{repository.ErrSupplierExists, response.CodeSupplierExists},
	{repository.ErrMenuExists, response.CodeMenuExists},
}

// writeError 按错误类型写入 {code,msg,data} 响应
func writeError(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, ve.Error())
		return
	}
	for _, e := range badRequestErrors {
		if errors.Is(err, e) {
			response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
			return
		}
	}
	if errors.Is(err, service.ErrCannotDisableSelf) || errors.Is(err, service.ErrCannotRevokeOwnRole) {
		response.ErrorWithMsg(c, response.CodeSelfOperation, err.Error())
		return
	}
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			response.Error(c, m.code)
			return
		}
	}

	logger.FromContext(c.Request.Context()).Error("请求处理失败",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	response.Error(c, response.CodeServerError)
}

// actionStatus 审核网关错误对应的 HTTP 状态码和消息
func actionStatus(err error) (int, string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, service.ErrUnknownAction):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrSupplierNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "服务器内部错误"
	}
}

// bindJSON 绑定请求体，失败时写入参数错误
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return false
	}
	return true
}
