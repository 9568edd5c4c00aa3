package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/srm-backend/internal/service"
	"github.com/pu-ac-cn/srm-backend/pkg/response"
)

// 上下文键
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextClaims   = "claims"
)

// bearerToken 从 Authorization 头解析令牌
func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "未提供认证令牌"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", "认证令牌格式错误"
	}
	return strings.TrimSpace(parts[1]), ""
}

// authenticate 验证访问令牌，返回失败原因
func authenticate(c *gin.Context, tokenService service.TokenService) (*service.TokenClaims, string) {
	token, reason := bearerToken(c)
	if reason != "" {
		return nil, reason
	}

	claims, err := tokenService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			return nil, "令牌已过期"
		case errors.Is(err, service.ErrTokenRevoked):
			return nil, "令牌已注销"
		default:
			return nil, "认证失败"
		}
	}

	// 刷新令牌不能访问接口
	if claims.Type != service.TokenTypeAccess {
		return nil, "无效的令牌类型"
	}
	return claims, ""
}

func setClaims(c *gin.Context, claims *service.TokenClaims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextClaims, claims)
}

// JWTAuth JWT 认证中间件
func JWTAuth(tokenService service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, reason := authenticate(c, tokenService)
		if claims == nil {
			response.ErrorWithMsg(c, response.CodeInvalidToken, reason)
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// CurrentUserID 当前登录用户 ID
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// CurrentClaims 当前访问令牌声明
func CurrentClaims(c *gin.Context) *service.TokenClaims {
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*service.TokenClaims); ok {
			return claims
		}
	}
	return nil
}
