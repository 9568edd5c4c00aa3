// 为现有用户开通管理端权限的工具
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pu-ac-cn/srm-backend/internal/config"
	"github.com/pu-ac-cn/srm-backend/internal/database"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/redis"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
	"github.com/pu-ac-cn/srm-backend/internal/service"
)

// 命令行操作的授权人标识
const operator = "system"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("用法: assign-admin <用户名或邮箱>")
		fmt.Println("示例: assign-admin admin@example.com")
		os.Exit(1)
	}

	username := os.Args[1]

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()

	// Redis 不可用时跳过菜单缓存失效，缓存到期后自然刷新
	var cache *service.MenuCache
	if err := redis.Init(&cfg.Redis); err != nil {
		log.Printf("Redis 不可用，跳过菜单缓存失效: %v", err)
	} else {
		defer redis.Close()
		cache = service.NewMenuCache(redis.GetClient(), cfg.Redis.MenuCacheTTL)
	}

	ctx := context.Background()
	db := database.GetDB()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	menuRepo := repository.NewMenuRepository(db)

	// 确保内置菜单已写入，开通时才能生成角色菜单快照
	if _, err := menuRepo.Seed(ctx, model.DefaultMenus()); err != nil {
		log.Printf("写入内置菜单失败: %v", err)
	}

	provisioner := service.NewProvisioningService(service.ProvisioningDeps{
		Tx:              repository.NewTransactor(db),
		UserRoleRepo:    repository.NewUserRoleRepository(db),
		RoleRepo:        repository.NewRoleRepository(db),
		MenuRepo:        menuRepo,
		BackendRoleRepo: repository.NewUserBackendRoleRepository(db),
		Cache:           cache,
	})

	// 查找用户
	user, err := userRepo.GetByUsername(ctx, username)
	if err != nil {
		user, err = userRepo.GetByEmail(ctx, username)
		if err != nil {
			log.Fatalf("用户不存在: %s", username)
		}
	}

	// 授予 admin 角色并开通管理端
	if err := provisioner.EnsureTerminalAccess(ctx, user.ID, model.TerminalAdmin, operator); err != nil {
		log.Fatalf("开通管理端权限失败: %v", err)
	}

	fmt.Printf("成功为用户 %s (%s) 开通管理端权限\n", user.Username, user.Email)
}
