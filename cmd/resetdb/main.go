package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/pu-ac-cn/srm-backend/internal/config"
	"github.com/pu-ac-cn/srm-backend/internal/database"
	"github.com/pu-ac-cn/srm-backend/internal/model"
)

// 只清理本项目业务表的重置工具：
// - 按依赖顺序 Drop 表，然后可选地 AutoMigrate 重建。
// - 不会删除数据库、账户或其它非本项目的表。
// 用法：
//   go run ./cmd/resetdb -force
// 可选参数：
//   -recreate  重建表（默认 true）
//   -force     必须为 true 才会执行（安全开关）
func main() {
	recreate := flag.Bool("recreate", true, "是否在清空后重建表")
	force := flag.Bool("force", false, "确认执行清空操作")
	flag.Parse()

	if !*force {
		log.Fatal("为避免误操作，请加上 -force 参数：go run ./cmd/resetdb -force")
	}

	// 加载配置并连接数据库
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()

	m := database.GetDB().Migrator()

	// AllModels 自父表到子表排列，倒序删除
	models := model.AllModels()

	fmt.Println("开始清空数据库中的业务表...")
	for i := len(models) - 1; i >= 0; i-- {
		t := models[i]
		if m.HasTable(t) {
			if err := m.DropTable(t); err != nil {
				log.Fatalf("删除表失败: %v", err)
			}
			fmt.Printf("已删除表: %T\n", t)
		}
	}

	if *recreate {
		for _, t := range models {
			if err := m.AutoMigrate(t); err != nil {
				log.Fatalf("创建表失败: %v", err)
			}
			fmt.Printf("已创建/更新表: %T\n", t)
		}
	}

	fmt.Println("完成。")
}
