package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math_missions_backend/internal/config"
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/util"
	"math_missions_backend/pkg/logger"
	"math_missions_backend/pkg/monitoring"
	"math_missions_backend/pkg/tracing"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MissionService struct {
	MissionRepo *repository.MissionRepository
	AttemptRepo *repository.AttemptRepository
	SkillRepo   *repository.SkillRepository
	Redis       *redis.Client

	mu         sync.RWMutex
	perTypeCap int
	cacheTTL   time.Duration
}

func NewMissionService(
	missionRepo *repository.MissionRepository,
	attemptRepo *repository.AttemptRepository,
	skillRepo *repository.SkillRepository,
	rdb *redis.Client,
	cfg *config.Config,
) *MissionService {
	return &MissionService{
		MissionRepo: missionRepo,
		AttemptRepo: attemptRepo,
		SkillRepo:   skillRepo,
		Redis:       rdb,
		perTypeCap:  cfg.Missions.PerTypeCap,
		cacheTTL:    cfg.Missions.CacheTTL(),
	}
}

// MissionWithStatus 学生视角的任务，附带其最新尝试状态
type MissionWithStatus struct {
	model.Mission
	Status model.AttemptStatus `json:"status"`
}

type MissionListView struct {
	Missions []MissionWithStatus `json:"missions"`
	Skills   []model.Skill       `json:"skills"`
}

type ProgressMapEntry struct {
	Mission model.Mission         `json:"mission"`
	Status  model.AttemptStatus   `json:"status"`
	Attempt *model.MissionAttempt `json:"attempt"`
}

type ProgressMapView struct {
	Entries           []ProgressMapEntry `json:"entries"`
	Total             int                `json:"total"`
	Completed         int                `json:"completed"`
	CompletionPercent int                `json:"completionPercent"`
}

type MissionInput struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	OperationType *model.OperationType `json:"operationType"`
	SkillID       *uint                `json:"skillId"`
	Active        *bool                `json:"active"`
}

// ApplyConfig 配置热更新回调，上限或缓存时长变化时清空缓存
func (s *MissionService) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	changed := s.perTypeCap != cfg.Missions.PerTypeCap
	s.perTypeCap = cfg.Missions.PerTypeCap
	s.cacheTTL = cfg.Missions.CacheTTL()
	s.mu.Unlock()

	if changed {
		logger.Log.Info("Mission per-type cap changed", zap.Int("perTypeCap", cfg.Missions.PerTypeCap))
		s.invalidateCache(context.Background())
	}
}

func (s *MissionService) settings() (int, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perTypeCap, s.cacheTTL
}

// OrderedMissions 返回编排后的启用任务，优先读 Redis 缓存
func (s *MissionService) OrderedMissions(ctx context.Context) ([]model.Mission, error) {
	ctx, span := tracing.StartSpan(ctx, "MissionService.OrderedMissions")
	defer span.End()

	perTypeCap, ttl := s.settings()

	if s.Redis != nil {
		cached, err := s.Redis.Get(ctx, util.CacheKeyOrderedMissions).Bytes()
		if err == nil {
			var missions []model.Mission
			if err := json.Unmarshal(cached, &missions); err == nil {
				monitoring.MissionListCache.WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return missions, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Read ordered missions cache failed", zap.Error(err))
		}
		monitoring.MissionListCache.WithLabelValues("miss").Inc()
	}

	active, err := s.MissionRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list active missions: %w", err)
	}
	ordered := ComposeOrderedMissions(active, perTypeCap)
	span.SetAttributes(
		attribute.Int("missions.active", len(active)),
		attribute.Int("missions.per_type_cap", perTypeCap),
	)

	if s.Redis != nil && ttl > 0 {
		if data, err := json.Marshal(ordered); err == nil {
			if err := s.Redis.Set(ctx, util.CacheKeyOrderedMissions, data, ttl).Err(); err != nil {
				logger.Log.Warn("Write ordered missions cache failed", zap.Error(err))
			}
		}
	}
	return ordered, nil
}

// ListForStudent 编排后的任务列表，一次批量查询附加状态，无尝试记录时为 pending
func (s *MissionService) ListForStudent(ctx context.Context, userID uint) (*MissionListView, error) {
	missions, err := s.OrderedMissions(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(missions))
	for i, m := range missions {
		ids[i] = m.ID
	}
	statuses, err := s.AttemptRepo.LatestStatuses(userID, ids)
	if err != nil {
		return nil, fmt.Errorf("load attempt statuses: %w", err)
	}

	view := &MissionListView{Missions: make([]MissionWithStatus, 0, len(missions))}
	for _, m := range missions {
		status, ok := statuses[m.ID]
		if !ok {
			status = model.AttemptPending
		}
		view.Missions = append(view.Missions, MissionWithStatus{Mission: m, Status: status})
	}

	if view.Skills, err = s.SkillRepo.List(); err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return view, nil
}

var statusRank = map[model.AttemptStatus]int{
	model.AttemptCompleted:  4,
	model.AttemptInProgress: 3,
	model.AttemptPending:    2,
	model.AttemptRejected:   1,
}

// ProgressMap 全部任务按创建顺序，每个任务取优先级最高的状态
func (s *MissionService) ProgressMap(userID uint) (*ProgressMapView, error) {
	missions, err := s.MissionRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	attempts, err := s.AttemptRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	best := make(map[uint]model.AttemptStatus)
	latest := make(map[uint]*model.MissionAttempt)
	for i := range attempts {
		a := &attempts[i]
		if statusRank[a.Status] > statusRank[best[a.MissionID]] {
			best[a.MissionID] = a.Status
		}
		// attempts 已按时间倒序
		if _, ok := latest[a.MissionID]; !ok {
			latest[a.MissionID] = a
		}
	}

	view := &ProgressMapView{
		Entries: make([]ProgressMapEntry, 0, len(missions)),
		Total:   len(missions),
	}
	for _, m := range missions {
		status, ok := best[m.ID]
		if !ok {
			status = model.AttemptNotStarted
		}
		if status == model.AttemptCompleted {
			view.Completed++
		}
		view.Entries = append(view.Entries, ProgressMapEntry{
			Mission: m,
			Status:  status,
			Attempt: latest[m.ID],
		})
	}
	if view.Total > 0 {
		view.CompletionPercent = view.Completed * 100 / view.Total
	}
	return view, nil
}

func (s *MissionService) ListAll() ([]model.Mission, error) {
	return s.MissionRepo.ListAll()
}

func (s *MissionService) GetMission(id uint) (*model.Mission, error) {
	m, err := s.MissionRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrMissionNotFound
	}
	return m, err
}

func (s *MissionService) CreateMission(ctx context.Context, input MissionInput) (*model.Mission, error) {
	if input.Title == nil || *input.Title == "" {
		return nil, util.InvalidInput("title is required")
	}
	if input.OperationType == nil {
		return nil, util.InvalidInput("operationType is required")
	}

	m := &model.Mission{Active: true}
	if err := s.applyMissionInput(m, input); err != nil {
		return nil, err
	}
	if err := s.MissionRepo.Create(m); err != nil {
		return nil, fmt.Errorf("create mission: %w", err)
	}

	logger.Log.Info("Mission created", zap.Uint("missionID", m.ID), zap.String("operation", string(m.OperationType)))
	s.invalidateCache(ctx)
	return m, nil
}

func (s *MissionService) UpdateMission(ctx context.Context, id uint, input MissionInput) (*model.Mission, error) {
	m, err := s.GetMission(id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil && *input.Title == "" {
		return nil, util.InvalidInput("title cannot be empty")
	}
	if err := s.applyMissionInput(m, input); err != nil {
		return nil, err
	}
	m.Skill = nil
	if err := s.MissionRepo.Update(m); err != nil {
		return nil, fmt.Errorf("update mission: %w", err)
	}

	s.invalidateCache(ctx)
	return m, nil
}

func (s *MissionService) applyMissionInput(m *model.Mission, input MissionInput) error {
	if input.OperationType != nil {
		if !input.OperationType.Valid() {
			return util.ErrInvalidOperation
		}
		m.OperationType = *input.OperationType
	}
	if input.Title != nil {
		m.Title = *input.Title
	}
	if input.Description != nil {
		m.Description = *input.Description
	}
	if input.SkillID != nil {
		if *input.SkillID == 0 {
			m.SkillID = nil
		} else {
			if _, err := s.SkillRepo.FindByID(*input.SkillID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return util.ErrSkillNotFound
				}
				return err
			}
			id := *input.SkillID
			m.SkillID = &id
		}
	}
	if input.Active != nil {
		m.Active = *input.Active
	}
	return nil
}

func (s *MissionService) invalidateCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, util.CacheKeyOrderedMissions).Err(); err != nil {
		logger.Log.Warn("Invalidate ordered missions cache failed", zap.Error(err))
	}
}
