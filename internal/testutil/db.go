package testutil

import (
	"fmt"
	"math_missions_backend/internal/model"
	"math_missions_backend/pkg/database"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB 为每个测试创建独立的内存 SQLite 库并完成迁移
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// NewFileTestDB 基于临时文件的 SQLite 库，允许多个连接并发写入
func NewFileTestDB(t *testing.T, maxConns int) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "missions.db") + "?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, name string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8]),
		Password: "x",
		Role:     role,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func CreateSkill(t *testing.T, db *gorm.DB, name string) *model.Skill {
	t.Helper()
	s := &model.Skill{Name: name}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create skill: %v", err)
	}
	return s
}

// CreateMission createdAt 决定排序，skill 可为 nil
func CreateMission(t *testing.T, db *gorm.DB, title string, op model.OperationType, active bool, createdAt time.Time, skill *model.Skill) *model.Mission {
	t.Helper()
	m := &model.Mission{
		Title:         title,
		OperationType: op,
		Active:        active,
		CreatedAt:     createdAt,
	}
	if skill != nil {
		m.SkillID = &skill.ID
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("create mission: %v", err)
	}
	return m
}

func CreateContentItem(t *testing.T, db *gorm.DB, title string, typ model.ContentType, active bool) *model.ContentItem {
	t.Helper()
	item := &model.ContentItem{
		Title:       title,
		Description: title + " description",
		Solution:    "12",
		Type:        typ,
		Active:      active,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create content item: %v", err)
	}
	return item
}
