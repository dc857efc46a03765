package repository

import (
	"math_missions_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// AttemptRow 任务尝试列表行，附带最少的用户身份信息
type AttemptRow struct {
	AttemptID        uint                `json:"attemptId"`
	Status           model.AttemptStatus `json:"status"`
	AttemptedAt      time.Time           `json:"timestamp"`
	ProposedSolution string              `json:"proposedSolution"`
	UserID           uint                `json:"userId"`
	UserName         string              `json:"userName"`
}

// Upsert 以 (user_id, mission_id) 唯一键原子写入，已存在则覆盖状态、答案和时间
func (r *AttemptRepository) Upsert(attempt *model.MissionAttempt) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		row := *attempt
		row.ID = 0
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "mission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "proposed_solution", "attempted_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}

		// 冲突更新时驱动返回的自增 ID 不可靠，按唯一键回读
		var stored model.MissionAttempt
		if err := tx.Where("user_id = ? AND mission_id = ?", attempt.UserID, attempt.MissionID).
			First(&stored).Error; err != nil {
			return err
		}
		*attempt = stored
		return nil
	})
}

func (r *AttemptRepository) FindByID(id uint) (*model.MissionAttempt, error) {
	var a model.MissionAttempt
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindLatest 返回用户在该任务上最近的一次尝试，兼容历史重复数据
func (r *AttemptRepository) FindLatest(userID, missionID uint) (*model.MissionAttempt, error) {
	var a model.MissionAttempt
	err := r.DB.Where("user_id = ? AND mission_id = ?", userID, missionID).
		Order("attempted_at DESC").Order("id DESC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) ListByMission(missionID uint) ([]AttemptRow, error) {
	var rows []AttemptRow
	err := r.DB.Table("mission_attempts").
		Select("mission_attempts.id AS attempt_id, mission_attempts.status, mission_attempts.attempted_at, " +
			"mission_attempts.proposed_solution, users.id AS user_id, users.name AS user_name").
		Joins("JOIN users ON users.id = mission_attempts.user_id").
		Where("mission_attempts.mission_id = ?", missionID).
		Order("mission_attempts.attempted_at DESC").Order("mission_attempts.id DESC").
		Scan(&rows).Error
	return rows, err
}

// UpdateStatus 直接覆盖状态，不做状态流转校验
func (r *AttemptRepository) UpdateStatus(id uint, status model.AttemptStatus) (*model.MissionAttempt, error) {
	var a model.MissionAttempt
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&a).Update("status", status).Error; err != nil {
			return err
		}
		a.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LatestStatuses 一次查询取回用户在一组任务上的最新状态
func (r *AttemptRepository) LatestStatuses(userID uint, missionIDs []uint) (map[uint]model.AttemptStatus, error) {
	statuses := make(map[uint]model.AttemptStatus, len(missionIDs))
	if len(missionIDs) == 0 {
		return statuses, nil
	}

	var attempts []model.MissionAttempt
	err := r.DB.Select("id", "mission_id", "status", "attempted_at").
		Where("user_id = ? AND mission_id IN ?", userID, missionIDs).
		Order("attempted_at ASC").Order("id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	// 升序遍历，后写入的覆盖先写入的
	for _, a := range attempts {
		statuses[a.MissionID] = a.Status
	}
	return statuses, nil
}

func (r *AttemptRepository) ListByUser(userID uint) ([]model.MissionAttempt, error) {
	var attempts []model.MissionAttempt
	err := r.DB.Where("user_id = ?", userID).
		Order("attempted_at DESC").Order("id DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListByUsers(userIDs []uint) ([]model.MissionAttempt, error) {
	var attempts []model.MissionAttempt
	if len(userIDs) == 0 {
		return attempts, nil
	}
	err := r.DB.Where("user_id IN ?", userIDs).
		Order("attempted_at DESC").Order("id DESC").
		Find(&attempts).Error
	return attempts, err
}

// ListRecent 全部尝试，最新的在前，附带用户和任务
func (r *AttemptRepository) ListRecent(limit int) ([]model.MissionAttempt, error) {
	var attempts []model.MissionAttempt
	q := r.DB.Preload("User").Preload("Mission").
		Order("attempted_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&attempts).Error
	return attempts, err
}

// CountCompletedBetween 统计区间 [from, to) 内完成的尝试数
func (r *AttemptRepository) CountCompletedBetween(userID uint, from, to time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.MissionAttempt{}).
		Where("user_id = ? AND status = ? AND attempted_at >= ? AND attempted_at < ?",
			userID, model.AttemptCompleted, from, to).
		Count(&count).Error
	return count, err
}

// CompletedMissionIDs 用户已完成的任务 ID（去重）
func (r *AttemptRepository) CompletedMissionIDs(userID uint, missionIDs []uint) ([]uint, error) {
	var ids []uint
	if len(missionIDs) == 0 {
		return ids, nil
	}
	err := r.DB.Model(&model.MissionAttempt{}).
		Where("user_id = ? AND status = ? AND mission_id IN ?", userID, model.AttemptCompleted, missionIDs).
		Distinct().
		Pluck("mission_id", &ids).Error
	return ids, err
}
