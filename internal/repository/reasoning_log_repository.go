package repository

import (
	"math_missions_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReasoningLogRepository struct {
	DB *gorm.DB
}

func NewReasoningLogRepository(db *gorm.DB) *ReasoningLogRepository {
	return &ReasoningLogRepository{DB: db}
}

var reasoningLogColumns = []string{
	"question", "known_data", "unknowns", "representation",
	"main_strategy", "plan",
	"development", "intermediate_results",
	"review", "alternative_check", "conclusion",
	"tactic_similar", "tactic_decompose", "tactic_equations", "tactic_formula",
	"updated_at",
}

// Upsert 以 (user_id, target_kind, target_id) 唯一键原子写入。
// updateConfidence 为 false 时冲突更新不触碰 confidence 列。
func (r *ReasoningLogRepository) Upsert(log *model.ReasoningLog, updateConfidence bool) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return upsertReasoningLog(tx, log, updateConfidence)
	})
}

// Save 在同一事务中写入工作表并整体替换加数列表，任一步失败都整体回滚
func (r *ReasoningLogRepository) Save(log *model.ReasoningLog, updateConfidence bool, values []string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := upsertReasoningLog(tx, log, updateConfidence); err != nil {
			return err
		}
		return replaceSubValues(tx, log.ID, values)
	})
}

func upsertReasoningLog(tx *gorm.DB, log *model.ReasoningLog, updateConfidence bool) error {
	columns := reasoningLogColumns
	if updateConfidence {
		columns = append(append([]string{}, reasoningLogColumns...), "confidence")
	}

	row := *log
	row.ID = ""
	row.SubValues = nil
	err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "target_kind"}, {Name: "target_id"},
		},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&row).Error
	if err != nil {
		return err
	}

	// 冲突时新生成的 UUID 被丢弃，按唯一键回读
	var stored model.ReasoningLog
	if err := tx.Where("user_id = ? AND target_kind = ? AND target_id = ?",
		log.UserID, log.TargetKind, log.TargetID).
		First(&stored).Error; err != nil {
		return err
	}
	*log = stored
	return nil
}

func (r *ReasoningLogRepository) FindByUserAndTarget(userID uint, target model.ReasoningTarget) (*model.ReasoningLog, error) {
	var log model.ReasoningLog
	err := r.DB.Preload("SubValues", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, target.Kind, target.ID).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *ReasoningLogRepository) Exists(id string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ReasoningLog{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ReplaceSubValues 删除全部旧值后按顺序重新插入，values 中不应包含空串
func (r *ReasoningLogRepository) ReplaceSubValues(logID string, values []string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return replaceSubValues(tx, logID, values)
	})
}

func replaceSubValues(tx *gorm.DB, logID string, values []string) error {
	if err := tx.Where("reasoning_log_id = ?", logID).
		Delete(&model.ReasoningLogSubValue{}).Error; err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	rows := make([]model.ReasoningLogSubValue, 0, len(values))
	for i, v := range values {
		rows = append(rows, model.ReasoningLogSubValue{
			ReasoningLogID: logID,
			Position:       i,
			Value:          v,
		})
	}
	return tx.Create(&rows).Error
}

func (r *ReasoningLogRepository) SubValues(logID string) ([]string, error) {
	var values []string
	err := r.DB.Model(&model.ReasoningLogSubValue{}).
		Where("reasoning_log_id = ?", logID).
		Order("position ASC").
		Pluck("value", &values).Error
	return values, err
}

func (r *ReasoningLogRepository) CountByKind(kind model.TargetKind) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ReasoningLog{}).Where("target_kind = ?", kind).Count(&count).Error
	return count, err
}
