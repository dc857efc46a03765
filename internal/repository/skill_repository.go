package repository

import (
	"math_missions_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SkillRepository struct {
	DB *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: db}
}

func (r *SkillRepository) List() ([]model.Skill, error) {
	var skills []model.Skill
	err := r.DB.Order("name ASC").Find(&skills).Error
	return skills, err
}

func (r *SkillRepository) FindByID(id uint) (*model.Skill, error) {
	var skill model.Skill
	if err := r.DB.First(&skill, id).Error; err != nil {
		return nil, err
	}
	return &skill, nil
}

func (r *SkillRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Skill{}).Count(&count).Error
	return count, err
}

// ProgressByUser skillID -> 百分比
func (r *SkillRepository) ProgressByUser(userID uint) (map[uint]int, error) {
	var rows []model.SkillProgress
	if err := r.DB.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	progress := make(map[uint]int, len(rows))
	for _, p := range rows {
		progress[p.SkillID] = p.Percentage
	}
	return progress, nil
}

// ProgressByUsers 批量读取多个学生的技能进度，附带技能名称
func (r *SkillRepository) ProgressByUsers(userIDs []uint) ([]model.SkillProgress, error) {
	var rows []model.SkillProgress
	if len(userIDs) == 0 {
		return rows, nil
	}
	err := r.DB.Preload("Skill").
		Where("user_id IN ?", userIDs).
		Order("user_id ASC").Order("skill_id ASC").
		Find(&rows).Error
	return rows, err
}

// UpsertProgress 以 (user_id, skill_id) 唯一键原子写入
func (r *SkillRepository) UpsertProgress(userID, skillID uint, percentage int) error {
	row := &model.SkillProgress{
		UserID:     userID,
		SkillID:    skillID,
		Percentage: percentage,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "skill_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"percentage"}),
	}).Create(row).Error
}
