package service

import (
	"errors"
	"fmt"
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/util"
	"math_missions_backend/pkg/logger"
	"math_missions_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AttemptService struct {
	AttemptRepo *repository.AttemptRepository
	MissionRepo *repository.MissionRepository
	Progress    *SkillProgressService
	Now         func() time.Time
}

func NewAttemptService(
	attemptRepo *repository.AttemptRepository,
	missionRepo *repository.MissionRepository,
	progress *SkillProgressService,
) *AttemptService {
	return &AttemptService{
		AttemptRepo: attemptRepo,
		MissionRepo: missionRepo,
		Progress:    progress,
		Now:         time.Now,
	}
}

// RecordAttempt 写入 (user, mission) 的当前尝试，已存在则覆盖。
// 任务不存在时返回 ErrMissionNotFound 且不写库；status 为空时记为 in_progress。
func (s *AttemptService) RecordAttempt(userID, missionID uint, status model.AttemptStatus, proposedSolution string) (*model.MissionAttempt, error) {
	if status == "" {
		status = model.AttemptInProgress
	}
	if !status.Valid() {
		return nil, util.ErrInvalidStatus
	}

	exists, err := s.MissionRepo.Exists(missionID)
	if err != nil {
		return nil, fmt.Errorf("check mission: %w", err)
	}
	if !exists {
		return nil, util.ErrMissionNotFound
	}

	attempt := &model.MissionAttempt{
		UserID:           userID,
		MissionID:        missionID,
		Status:           status,
		ProposedSolution: proposedSolution,
		AttemptedAt:      s.Now(),
	}
	if err := s.AttemptRepo.Upsert(attempt); err != nil {
		return nil, fmt.Errorf("save attempt: %w", err)
	}

	monitoring.AttemptsRecorded.WithLabelValues(string(attempt.Status)).Inc()
	logger.Log.Info("Mission attempt recorded",
		zap.Uint("userID", userID),
		zap.Uint("missionID", missionID),
		zap.Uint("attemptID", attempt.ID),
		zap.String("status", string(attempt.Status)),
	)

	s.recalculate(userID, missionID)
	return attempt, nil
}

// ListAttempts 某任务下所有用户的尝试，最新的在前
func (s *AttemptService) ListAttempts(missionID uint) ([]repository.AttemptRow, error) {
	exists, err := s.MissionRepo.Exists(missionID)
	if err != nil {
		return nil, fmt.Errorf("check mission: %w", err)
	}
	if !exists {
		return nil, util.ErrMissionNotFound
	}

	rows, err := s.AttemptRepo.ListByMission(missionID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if rows == nil {
		rows = []repository.AttemptRow{}
	}
	return rows, nil
}

// SetStatus 直接覆盖状态，任意状态之间都可以切换；status 为空时记为 pending
func (s *AttemptService) SetStatus(attemptID uint, status model.AttemptStatus) (*model.MissionAttempt, error) {
	if status == "" {
		status = model.AttemptPending
	}
	if !status.Valid() {
		return nil, util.ErrInvalidStatus
	}

	attempt, err := s.AttemptRepo.UpdateStatus(attemptID, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("update attempt status: %w", err)
	}

	monitoring.AttemptStatusChanges.WithLabelValues(string(status)).Inc()
	s.recalculate(attempt.UserID, attempt.MissionID)
	return attempt, nil
}

// LatestAttempt 没有记录时返回 nil, nil
func (s *AttemptService) LatestAttempt(userID, missionID uint) (*model.MissionAttempt, error) {
	attempt, err := s.AttemptRepo.FindLatest(userID, missionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest attempt: %w", err)
	}
	return attempt, nil
}

// recalculate 进度是派生数据，失败只记录日志
func (s *AttemptService) recalculate(userID, missionID uint) {
	if s.Progress == nil {
		return
	}
	if err := s.Progress.Recalculate(userID, missionID); err != nil {
		logger.Log.Error("Recalculate skill progress failed",
			zap.Uint("userID", userID),
			zap.Uint("missionID", missionID),
			zap.Error(err),
		)
	}
}
