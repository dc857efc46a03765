package repository

import (
	"math_missions_backend/internal/model"

	"gorm.io/gorm"
)

type MissionRepository struct {
	DB *gorm.DB
}

func NewMissionRepository(db *gorm.DB) *MissionRepository {
	return &MissionRepository{DB: db}
}

func (r *MissionRepository) Create(mission *model.Mission) error {
	return r.DB.Create(mission).Error
}

func (r *MissionRepository) Update(mission *model.Mission) error {
	return r.DB.Save(mission).Error
}

func (r *MissionRepository) FindByID(id uint) (*model.Mission, error) {
	var m model.Mission
	if err := r.DB.Preload("Skill").First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MissionRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Mission{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ListActive 全部启用的任务，按创建时间升序
func (r *MissionRepository) ListActive() ([]model.Mission, error) {
	var missions []model.Mission
	err := r.DB.Preload("Skill").
		Where("active = ?", true).
		Order("created_at ASC").Order("id ASC").
		Find(&missions).Error
	return missions, err
}

// ListAll 包含停用任务，进度地图使用
func (r *MissionRepository) ListAll() ([]model.Mission, error) {
	var missions []model.Mission
	err := r.DB.Preload("Skill").
		Order("created_at ASC").Order("id ASC").
		Find(&missions).Error
	return missions, err
}

func (r *MissionRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Mission{}).Count(&count).Error
	return count, err
}

// ActiveIDsBySkill 某技能下启用任务的 ID
func (r *MissionRepository) ActiveIDsBySkill(skillID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Mission{}).
		Where("skill_id = ? AND active = ?", skillID, true).
		Pluck("id", &ids).Error
	return ids, err
}
