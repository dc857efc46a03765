package testutil

import (
	"math_missions_backend/internal/config"
	"time"
)

// TestConfig 与默认配置一致的最小配置，不读取文件
func TestConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: "test"},
		Database:  config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		JWT:       config.JWTConfig{Secret: "test-secret-test-secret-test-secret", ExpireTime: time.Hour},
		Storage:   config.StorageConfig{Type: "local", LocalPath: "uploads"},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
		Missions:  config.MissionsConfig{PerTypeCap: 10, CacheTTLSeconds: 300},
		Polya:     config.PolyaConfig{MaxConfidence: 5},
		Quiz:      config.QuizConfig{Spread: 10, Choices: 4},
	}
}
