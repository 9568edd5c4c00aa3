// Package main 数据库迁移工具
package main

import (
	"context"
	"flag"
	"log"

	"github.com/pu-ac-cn/srm-backend/internal/config"
	"github.com/pu-ac-cn/srm-backend/internal/database"
	"github.com/pu-ac-cn/srm-backend/internal/model"
	"github.com/pu-ac-cn/srm-backend/internal/repository"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "", "配置文件路径")
	seed := flag.Bool("seed", true, "是否写入内置菜单")
	flag.Parse()

	// 加载配置
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()
	log.Println("数据库连接成功")

	log.Println("开始执行数据库迁移...")
	for _, m := range model.AllModels() {
		if err := database.AutoMigrate(m); err != nil {
			log.Fatalf("迁移失败: %v", err)
		}
		log.Printf("  - %T", m)
	}
	log.Println("数据库迁移完成！")

	if !*seed {
		return
	}

	// 内置菜单按 (terminal, code) 去重，重复执行不会产生重复记录
	menuRepo := repository.NewMenuRepository(database.GetDB())
	n, err := menuRepo.Seed(context.Background(), model.DefaultMenus())
	if err != nil {
		log.Fatalf("写入内置菜单失败: %v", err)
	}
	log.Printf("内置菜单写入完成，新增 %d 条", n)
}
