// Package middleware 中间件
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/service"
	"github.com/pu-ac-cn/srm-backend/pkg/response"
	"go.uber.org/zap"
)

// RequireRole 应用角色检查中间件，需在 JWTAuth 之后使用
func RequireRole(rbacService service.RBACService, role model.AppRole) gin.HandlerFunc {
	return RequireAnyRole(rbacService, role)
}

// RequireAnyRole 拥有任一应用角色即可通过
func RequireAnyRole(rbacService service.RBACService, roles ...model.AppRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		if userID == "" {
			response.Error(c, response.CodeInvalidToken)
			c.Abort()
			return
		}

		for _, role := range roles {
			hasRole, err := rbacService.HasRole(c.Request.Context(), userID, role)
			if err != nil {
				requestLogger(c).Error("检查角色失败", zap.String("user_id", userID), zap.Error(err))
				response.Error(c, response.CodeServerError)
				c.Abort()
				return
			}
			if hasRole {
				c.Next()
				return
			}
		}

		response.ErrorWithMsg(c, response.CodeForbidden, "没有权限执行此操作")
		c.Abort()
	}
}

// GatewayAuth 审核网关的认证与角色检查，失败时返回 {error}
func GatewayAuth(tokenService service.TokenService, rbacService service.RBACService, role model.AppRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, reason := authenticate(c, tokenService)
		if claims == nil {
			response.ActionError(c, http.StatusUnauthorized, reason)
			return
		}
		setClaims(c, claims)

		hasRole, err := rbacService.HasRole(c.Request.Context(), claims.UserID, role)
		if err != nil {
			requestLogger(c).Error("检查角色失败", zap.String("user_id", claims.UserID), zap.Error(err))
			response.ActionError(c, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		if !hasRole {
			response.ActionError(c, http.StatusForbidden, "需要"+string(role)+"角色")
			return
		}
		c.Next()
	}
}
