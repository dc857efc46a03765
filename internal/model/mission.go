package model

import "time"

type OperationType string

const (
	OperationSum      OperationType = "sum"
	OperationSubtract OperationType = "subtract"
	OperationMultiply OperationType = "multiply"
	OperationDivide   OperationType = "divide"
)

// OperationPriority 学生任务列表中各运算类型的展示顺序
var OperationPriority = []OperationType{
	OperationSum,
	OperationSubtract,
	OperationMultiply,
	OperationDivide,
}

func (o OperationType) Valid() bool {
	for _, op := range OperationPriority {
		if o == op {
			return true
		}
	}
	return false
}

// Mission 算术任务
// swagger:model Mission
type Mission struct {
	ID            uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string        `gorm:"size:255;not null" json:"title"`
	Description   string        `gorm:"type:text" json:"description"`
	OperationType OperationType `gorm:"size:20;index;not null" json:"operationType"`
	SkillID       *uint         `gorm:"index" json:"skillId,omitempty"`
	Active        bool          `gorm:"not null;index" json:"active"`
	CreatedAt     time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`

	Skill *Skill `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
}

func (Mission) TableName() string {
	return "missions"
}
