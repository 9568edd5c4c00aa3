package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError 参数校验错误，对应 400
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError 创建参数校验错误
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError 判断是否参数校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 开通步骤
const (
	StepGrantAppRole    = "grant_app_role"
	StepEnsureRole      = "ensure_default_role"
	StepSnapshotMenus   = "snapshot_menus"
	StepAssignRole      = "assign_backend_role"
	StepInvalidateCache = "invalidate_menu_cache"
)

// ProvisioningError 权限开通某一步失败
type ProvisioningError struct {
	Step     string
	Terminal string
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("开通 %s 终端权限失败(%s): %v", e.Terminal, e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// translateValidation 将 validator 错误转为 ValidationError
func translateValidation(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return NewValidationError("", err.Error())
	}
	fe := errs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return NewValidationError(field, "不能为空")
	case "credit_code":
		return NewValidationError(field, "统一社会信用代码格式无效")
	case "id_card":
		return NewValidationError(field, "身份证号格式无效")
	case "email":
		return NewValidationError(field, "邮箱格式无效")
	case "max":
		return NewValidationError(field, "长度不能超过 "+fe.Param())
	default:
		return NewValidationError(field, strings.TrimSpace("格式无效 "+fe.Tag()))
	}
}
