package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pu-ac-cn/srm-backend/internal/config"
	"github.com/pu-ac-cn/srm-backend/internal/database"
	"github.com/pu-ac-cn/srm-backend/internal/handler"
	"github.com/pu-ac-cn/srm-backend/internal/logger"
	"github.com/pu-ac-cn/srm-backend/internal/metrics"
	"github.com/pu-ac-cn/srm-backend/internal/middleware"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/redis"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
	"github.com/pu-ac-cn/srm-backend/internal/service"
	"github.com/pu-ac-cn/srm-backend/pkg/response"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Sync()
	lg := logger.L()

	// 初始化数据库连接
	if err := database.Init(&cfg.Database); err != nil {
		lg.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer database.Close()
	lg.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))

	// 初始化 Redis 连接
	if err := redis.Init(&cfg.Redis); err != nil {
		lg.Fatal("初始化 Redis 失败", zap.Error(err))
	}
	defer redis.Close()
	lg.Info("Redis 连接成功", zap.String("addr", cfg.Redis.Addr))

	// 自动迁移数据库表
	if err := database.AutoMigrate(model.AllModels()...); err != nil {
		lg.Fatal("数据库迁移失败", zap.Error(err))
	}
	lg.Info("数据库迁移完成")

	db := database.GetDB()
	redisClient := redis.GetClient()

	// 初始化 Repository
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	userRoleRepo := repository.NewUserRoleRepository(db)
	backendRoleRepo := repository.NewUserBackendRoleRepository(db)

	// 未配置私钥文件时生成临时密钥，重启后已签发令牌失效
	privateKey, err := service.LoadPrivateKey(cfg.JWT.PrivateKeyPath)
	if err != nil {
		lg.Fatal("加载 RSA 私钥失败", zap.Error(err))
	}
	if cfg.JWT.PrivateKeyPath == "" {
		lg.Warn("未配置 jwt.private_key_path，使用临时生成的密钥")
	}

	// 初始化 Service
	menuCache := service.NewMenuCache(redisClient, cfg.Redis.MenuCacheTTL)
	tokenService := service.NewTokenService(&service.TokenServiceConfig{
		PrivateKey:    privateKey,
		KeyID:         cfg.JWT.KeyID,
		Issuer:        cfg.JWT.Issuer,
		AccessExpiry:  cfg.JWT.AccessExpiry,
		RefreshExpiry: cfg.JWT.RefreshExpiry,
		Redis:         redisClient,
	})
	rbacService := service.NewRBACService(roleRepo, menuRepo, userRoleRepo, backendRoleRepo, menuCache)
	provisioner := service.NewProvisioningService(service.ProvisioningDeps{
		Tx:              tx,
		UserRoleRepo:    userRoleRepo,
		RoleRepo:        roleRepo,
		MenuRepo:        menuRepo,
		BackendRoleRepo: backendRoleRepo,
		Cache:           menuCache,
	})
	authService := service.NewAuthService(userRepo, tokenService)
	userService := service.NewUserService(tx, userRepo, rbacService, provisioner)
	registrationService := service.NewRegistrationService(supplierRepo, nil)
	auditService := service.NewAuditService(service.AuditDeps{
		Tx:           tx,
		SupplierRepo: supplierRepo,
		AuditRepo:    auditRepo,
		UserRepo:     userRepo,
		Provisioner:  provisioner,
	})

	// 内置菜单只补缺，不覆盖已有修改
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if n, err := rbacService.SeedMenus(seedCtx); err != nil {
		lg.Warn("写入内置菜单失败", zap.Error(err))
	} else if n > 0 {
		lg.Info("已写入内置菜单", zap.Int64("count", n))
	}
	cancelSeed()

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()

	// 全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins...))
	router.Use(middleware.Metrics())

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		if err := database.Ping(); err != nil {
			dbStatus = "error"
		}

		redisStatus := "ok"
		if err := redis.Ping(c.Request.Context()); err != nil {
			redisStatus = "error"
		}

		response.Success(c, gin.H{
			"status":   "ok",
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
			"redis":    redisStatus,
		})
	})

	if cfg.Metrics.Enable {
		router.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	handler.RegisterRoutes(router, handler.Services{
		Token:        tokenService,
		Auth:         authService,
		User:         userService,
		RBAC:         rbacService,
		Registration: registrationService,
		Audit:        auditService,
	})

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		lg.Info("服务启动", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("正在关闭服务...")

	// 优雅关闭，等待 5 秒
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("服务关闭失败", zap.Error(err))
	}

	lg.Info("服务已关闭")
}
