package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 标准响应结构
// 字段顺序：code -> msg -> data
type Response struct {
	Code int         `json:"code"` // 业务状态码，0 表示成功
	Msg  string      `json:"msg"`  // 响应消息（中文）
	Data interface{} `json:"data"` // 响应数据
}

// 业务错误码
const (
	CodeSuccess = 0 // 操作成功

	// 参数错误 10xxx
	CodeInvalidRequest = 10001 // 请求参数无效
	CodeInvalidFormat  = 10002 // 参数格式错误
	CodeMissingParam   = 10003 // 必填参数缺失
	CodeWeakPassword   = 10004 // 密码强度不足

	// 认证错误 20xxx
	CodeInvalidCredentials  = 20001 // 用户名或密码错误
	CodeInvalidToken        = 20002 // 令牌无效或已过期
	CodeInvalidRefreshToken = 20003 // 刷新令牌无效或已过期
	CodeAccountLocked       = 20004 // 账户已被锁定
	CodeAccountDisabled     = 20005 // 账户已禁用
	CodeForbidden           = 20008 // 无权访问该资源

	// 业务状态错误 30xxx
	CodeInvalidTransition = 30001 // 当前状态不允许该操作
	CodeSupplierSuspended = 30002 // 供应商已暂停合作
	CodeRoleNotAssignable = 30003 // 角色不可直接分配
	CodeSelfOperation     = 30004 // 不能对自己执行该操作

	// 资源不存在 40xxx
	CodeUserNotFound       = 40001 // 用户不存在
	CodeSupplierNotFound   = 40002 // 供应商不存在
	CodeMenuNotFound       = 40003 // 菜单不存在
	CodeRoleNotFound       = 40004 // 角色不存在
	CodePermissionNotFound = 40005 // 权限不存在

	// 冲突错误 50xxx
	CodeUserExists     = 50001 // 该用户名已被注册
	CodeEmailExists    = 50002 // 该邮箱已被注册
	CodeSupplierExists = 50003 // 已提交过供应商注册
	CodeMenuExists     = 50004 // 菜单标识已存在

	// 服务器错误 90xxx
	CodeServerError = 90001 // 服务器内部错误
	CodeUnavailable = 90002 // 服务暂时不可用
	CodeTooManyReq  = 90003 // 请求过于频繁
)

// 错误码对应的消息
var codeMessages = map[int]string{
	CodeSuccess:             "操作成功",
	CodeInvalidRequest:      "请求参数无效",
	CodeInvalidFormat:       "参数格式错误",
	CodeMissingParam:        "必填参数缺失",
	CodeWeakPassword:        "密码强度不足，需要至少8位，包含大写字母、小写字母和数字",
	CodeInvalidCredentials:  "用户名或密码错误",
	CodeInvalidToken:        "令牌无效或已过期",
	CodeInvalidRefreshToken: "刷新令牌无效或已过期",
	CodeAccountLocked:       "账户已被锁定，请稍后重试",
	CodeAccountDisabled:     "账户已禁用",
	CodeForbidden:           "无权访问该资源",
	CodeInvalidTransition:   "当前状态不允许该操作",
	CodeSupplierSuspended:   "供应商已暂停合作，不能修改资料",
	CodeRoleNotAssignable:   "供应商角色需通过注册审核获得",
	CodeSelfOperation:       "不能对自己执行该操作",
	CodeUserNotFound:        "用户不存在",
	CodeSupplierNotFound:    "供应商不存在",
	CodeMenuNotFound:        "菜单不存在",
	CodeRoleNotFound:        "角色不存在",
	CodePermissionNotFound:  "权限不存在",
	CodeUserExists:          "该用户名已被注册",
	CodeEmailExists:         "该邮箱已被注册",
	CodeSupplierExists:      "该账户已提交过供应商注册",
	CodeMenuExists:          "菜单标识已存在",
	CodeServerError:         "服务器内部错误，请稍后重试",
	CodeUnavailable:         "服务暂时不可用",
	CodeTooManyReq:          "请求过于频繁，请稍后重试",
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeSuccess,
		Msg:  codeMessages[CodeSuccess],
		Data: data,
	})
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeSuccess,
		Msg:  msg,
		Data: data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int) {
	c.JSON(codeToHTTPStatus(code), Response{
		Code: code,
		Msg:  Message(code),
		Data: nil,
	})
}

// ErrorWithMsg 错误响应（自定义消息）
func ErrorWithMsg(c *gin.Context, code int, msg string) {
	c.JSON(codeToHTTPStatus(code), Response{
		Code: code,
		Msg:  msg,
		Data: nil,
	})
}

// Message 错误码对应的默认消息
func Message(code int) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return "未知错误"
}

// codeToHTTPStatus 业务错误码转 HTTP 状态码
func codeToHTTPStatus(code int) int {
	switch {
	case code == CodeSuccess:
		return http.StatusOK
	case code >= 10000 && code < 20000:
		return http.StatusBadRequest
	case code >= 20000 && code < 30000:
		if code == CodeInvalidToken || code == CodeInvalidRefreshToken || code == CodeInvalidCredentials {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case code >= 30000 && code < 40000:
		return http.StatusConflict
	case code >= 40000 && code < 50000:
		return http.StatusNotFound
	case code >= 50000 && code < 60000:
		return http.StatusConflict
	case code == CodeTooManyReq:
		return http.StatusTooManyRequests
	case code == CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 审核网关响应：{success} / {success, data} / {error}

// ActionResult 网关成功响应
type ActionResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ActionFailure 网关错误响应
type ActionFailure struct {
	Error string `json:"error"`
}

// ActionSuccess 变更操作成功
func ActionSuccess(c *gin.Context) {
	c.JSON(http.StatusOK, ActionResult{Success: true})
}

// ActionData 查询操作成功
func ActionData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, ActionResult{Success: true, Data: data})
}

// ActionError 网关错误
func ActionError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ActionFailure{Error: msg})
}
