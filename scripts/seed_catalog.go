// 手动导入种子数据脚本
//
// 服务启动时在非 release 模式下会自动导入；此脚本用于 release 环境首次部署。
// 只写入空表，重复执行不会产生重复数据。
//
// 用法: go run scripts/seed_catalog.go [-file configs/seed.yaml]

package main

import (
	"flag"
	"log"
	"math_missions_backend/internal/config"
	"math_missions_backend/pkg/database"
	"math_missions_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "种子文件路径，默认使用配置中的 seed.file")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	cfg.ForceMigrate = true

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("数据库连接失败", zap.Error(err))
	}

	path := cfg.Seed.File
	if *file != "" {
		path = *file
	}
	seed, err := database.LoadSeedFile(path)
	if err != nil {
		logger.Log.Fatal("读取种子文件失败", zap.String("file", path), zap.Error(err))
	}

	if err := database.SeedCatalog(db, seed); err != nil {
		logger.Log.Fatal("导入种子数据失败", zap.Error(err))
	}
	if err := database.EnsureAdmin(db, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
		logger.Log.Fatal("创建管理员失败", zap.Error(err))
	}

	logger.Log.Info("种子数据导入完成", zap.String("file", path))
}
