package model

import "time"

type ContentType string

const (
	ContentPractice ContentType = "Practice"
	ContentGame     ContentType = "Game"
	ContentTheory   ContentType = "Content"
)

// ContentTypes 图书馆列表的分组顺序
var ContentTypes = []ContentType{ContentPractice, ContentGame, ContentTheory}

func (t ContentType) Valid() bool {
	switch t {
	case ContentPractice, ContentGame, ContentTheory:
		return true
	}
	return false
}

// ContentItem 图书馆条目（练习、游戏、内容）
// swagger:model ContentItem
type ContentItem struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Solution    string      `gorm:"type:text" json:"solution"`
	Type        ContentType `gorm:"size:20;index;not null" json:"type"`
	Active      bool        `gorm:"not null;index" json:"active"`
	AuthorID    *uint       `gorm:"index" json:"authorId,omitempty"`
	ImageURL    string      `gorm:"size:255" json:"imageUrl,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	Author *User              `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Detail *ContentItemDetail `gorm:"foreignKey:ContentItemID" json:"detail,omitempty"`
}

func (ContentItem) TableName() string {
	return "content_items"
}

// ContentItemDetail 只有 Content 类型的条目才有
// swagger:model ContentItemDetail
type ContentItemDetail struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ContentItemID uint   `gorm:"uniqueIndex;not null" json:"contentItemId"`
	Theory        string `gorm:"type:text" json:"theory"`
	Steps         string `gorm:"type:text" json:"steps"`
	Example       string `gorm:"type:text" json:"example"`
}

func (ContentItemDetail) TableName() string {
	return "content_item_details"
}

// ContentViewState 用户是否看过某个条目
type ContentViewState struct {
	UserID        uint `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	ContentItemID uint `gorm:"primaryKey;autoIncrement:false;index" json:"contentItemId"`
	Seen          bool `gorm:"not null" json:"seen"`
}

func (ContentViewState) TableName() string {
	return "content_view_states"
}
