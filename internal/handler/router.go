package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/srm-backend/internal/middleware"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/service"
	"github.com/pu-ac-cn/srm-backend/pkg/response"
)

// Services 路由依赖的服务
type Services struct {
	Token        service.TokenService
	Auth         service.AuthService
	User         service.UserService
	RBAC         service.RBACService
	Registration service.RegistrationService
	Audit        service.AuditService
}

// RegisterRoutes 注册 /api/v1 路由
func RegisterRoutes(router gin.IRouter, svc Services) {
	authHandler := NewAuthHandler(svc.User, svc.Auth, svc.RBAC)
	userHandler := NewUserHandler(svc.User, svc.Auth, svc.RBAC)
	rbacHandler := NewRBACHandler(svc.RBAC)
	supplierHandler := NewSupplierHandler(svc.Registration)
	auditHandler := NewAuditHandler(svc.Audit)

	api := router.Group("/api/v1")
	{
		api.GET("/ping", func(c *gin.Context) {
			response.Success(c, "pong")
		})

		// 认证路由（公开）
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}

		// 审核网关使用 {success}/{error} 响应，单独做认证
		api.POST("/admin/audit", middleware.GatewayAuth(svc.Token, svc.RBAC, model.AppRoleAdmin), auditHandler.Handle)

		// 需要认证的路由
		authRequired := api.Group("")
		authRequired.Use(middleware.JWTAuth(svc.Token))
		{
			authRequired.POST("/auth/logout", authHandler.Logout)
			authRequired.GET("/auth/me", authHandler.GetCurrentUser)
			authRequired.PUT("/auth/password", authHandler.ChangePassword)
			authRequired.GET("/me/menus", rbacHandler.MyMenus)

			// 任何已登录账户都可提交注册
			supplier := authRequired.Group("/supplier")
			{
				supplier.POST("/registration", supplierHandler.Register)
				supplier.GET("/registration", supplierHandler.GetMine)
				supplier.PUT("/profile", supplierHandler.UpdateProfile)
			}

			admin := authRequired.Group("/admin")
			admin.Use(middleware.RequireRole(svc.RBAC, model.AppRoleAdmin))
			{
				admin.GET("/users", userHandler.ListUsers)
				admin.POST("/users", userHandler.CreateUser)
				admin.GET("/users/:id", userHandler.GetUser)
				admin.PUT("/users/:id", userHandler.UpdateUser)
				admin.POST("/users/:id/password", userHandler.ResetPassword)
				admin.POST("/users/:id/roles/:role", userHandler.GrantRole)
				admin.DELETE("/users/:id/roles/:role", userHandler.RevokeRole)

				admin.GET("/menus", rbacHandler.ListMenus)
				admin.POST("/menus", rbacHandler.CreateMenu)
				admin.PUT("/menus/:id", rbacHandler.UpdateMenu)
				admin.GET("/roles", rbacHandler.ListRoles)
				admin.GET("/roles/:id/menus", rbacHandler.GetRoleMenus)
			}
		}
	}
}
