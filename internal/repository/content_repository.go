package repository

import (
	"math_missions_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

// ContentFilter 管理端列表筛选条件，零值表示不过滤
type ContentFilter struct {
	Query  string
	Type   model.ContentType
	Active *bool
}

func (r *ContentRepository) Create(item *model.ContentItem) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		detail := item.Detail
		item.Detail = nil
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		if detail != nil && item.Type == model.ContentTheory {
			detail.ContentItemID = item.ID
			if err := tx.Create(detail).Error; err != nil {
				return err
			}
			item.Detail = detail
		}
		return nil
	})
}

func (r *ContentRepository) FindByID(id uint) (*model.ContentItem, error) {
	var item model.ContentItem
	if err := r.DB.Preload("Detail").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ContentRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ContentItem{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *ContentRepository) List(filter ContentFilter) ([]model.ContentItem, error) {
	var items []model.ContentItem
	db := r.DB.Model(&model.ContentItem{})
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		db = db.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Active != nil {
		db = db.Where("active = ?", *filter.Active)
	}
	err := db.Order("created_at DESC").Order("id DESC").Find(&items).Error
	return items, err
}

// ListActive 图书馆展示用，按类型、标题排序
func (r *ContentRepository) ListActive() ([]model.ContentItem, error) {
	var items []model.ContentItem
	err := r.DB.Where("active = ?", true).
		Order("type ASC").Order("title ASC").
		Find(&items).Error
	return items, err
}

func (r *ContentRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.ContentItem{}).Count(&count).Error
	return count, err
}

// Update 保存条目本身，Content 类型同时写入详情，其它类型删除残留详情
func (r *ContentRepository) Update(item *model.ContentItem) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		detail := item.Detail
		item.Detail = nil
		if err := tx.Save(item).Error; err != nil {
			return err
		}

		if item.Type != model.ContentTheory {
			return tx.Where("content_item_id = ?", item.ID).Delete(&model.ContentItemDetail{}).Error
		}
		if detail == nil {
			return nil
		}
		detail.ContentItemID = item.ID
		if detail.ID != 0 {
			if err := tx.Save(detail).Error; err != nil {
				return err
			}
			item.Detail = detail
			return nil
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"theory", "steps", "example"}),
		}).Create(detail).Error
		if err != nil {
			return err
		}
		item.Detail = detail
		return nil
	})
}

// Delete 删除条目及其详情、浏览记录和该条目的推理工作表
func (r *ContentRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var item model.ContentItem
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}

		logIDs := tx.Model(&model.ReasoningLog{}).
			Select("id").
			Where("target_kind = ? AND target_id = ?", model.TargetContent, id)
		if err := tx.Where("reasoning_log_id IN (?)", logIDs).
			Delete(&model.ReasoningLogSubValue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_kind = ? AND target_id = ?", model.TargetContent, id).
			Delete(&model.ReasoningLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_item_id = ?", id).Delete(&model.ContentViewState{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_item_id = ?", id).Delete(&model.ContentItemDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
}

// MarkViewed 以 (user_id, content_item_id) 复合主键原子写入
func (r *ContentRepository) MarkViewed(userID, itemID uint) error {
	state := &model.ContentViewState{
		UserID:        userID,
		ContentItemID: itemID,
		Seen:          true,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"seen"}),
	}).Create(state).Error
}

// SeenMap contentItemID -> 是否看过
func (r *ContentRepository) SeenMap(userID uint) (map[uint]bool, error) {
	var states []model.ContentViewState
	if err := r.DB.Where("user_id = ? AND seen = ?", userID, true).Find(&states).Error; err != nil {
		return nil, err
	}
	seen := make(map[uint]bool, len(states))
	for _, s := range states {
		seen[s.ContentItemID] = true
	}
	return seen, nil
}
