package service

import (
	"errors"
	"fmt"
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SkillProgressService struct {
	SkillRepo   *repository.SkillRepository
	MissionRepo *repository.MissionRepository
	AttemptRepo *repository.AttemptRepository
}

func NewSkillProgressService(
	skillRepo *repository.SkillRepository,
	missionRepo *repository.MissionRepository,
	attemptRepo *repository.AttemptRepository,
) *SkillProgressService {
	return &SkillProgressService{
		SkillRepo:   skillRepo,
		MissionRepo: missionRepo,
		AttemptRepo: attemptRepo,
	}
}

// SkillProgressView 技能及当前用户的完成度
type SkillProgressView struct {
	SkillID    uint   `json:"skillId"`
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
	HasSkill   bool   `json:"hasSkill"`
}

// Recalculate 技能进度 = 该技能下已完成的启用任务数 / 启用任务数 × 100（向下取整）
func (s *SkillProgressService) Recalculate(userID, missionID uint) error {
	mission, err := s.MissionRepo.FindByID(missionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if mission.SkillID == nil {
		return nil
	}
	skillID := *mission.SkillID

	missionIDs, err := s.MissionRepo.ActiveIDsBySkill(skillID)
	if err != nil {
		return fmt.Errorf("list skill missions: %w", err)
	}

	percentage := 0
	if len(missionIDs) > 0 {
		completed, err := s.AttemptRepo.CompletedMissionIDs(userID, missionIDs)
		if err != nil {
			return fmt.Errorf("list completed missions: %w", err)
		}
		percentage = len(completed) * 100 / len(missionIDs)
	}

	if err := s.SkillRepo.UpsertProgress(userID, skillID, percentage); err != nil {
		return fmt.Errorf("save skill progress: %w", err)
	}
	logger.Log.Debug("Skill progress recalculated",
		zap.Uint("userID", userID),
		zap.Uint("skillID", skillID),
		zap.Int("percentage", percentage),
	)
	return nil
}

// ForUser 全部技能，未记录进度的为 0
func (s *SkillProgressService) ForUser(userID uint) ([]SkillProgressView, error) {
	skills, err := s.SkillRepo.List()
	if err != nil {
		return nil, err
	}
	progress, err := s.SkillRepo.ProgressByUser(userID)
	if err != nil {
		return nil, err
	}
	return mergeSkillProgress(skills, progress), nil
}

func mergeSkillProgress(skills []model.Skill, progress map[uint]int) []SkillProgressView {
	views := make([]SkillProgressView, 0, len(skills))
	for _, sk := range skills {
		p := progress[sk.ID]
		views = append(views, SkillProgressView{
			SkillID:    sk.ID,
			Name:       sk.Name,
			Percentage: p,
			HasSkill:   p > 0,
		})
	}
	return views
}
