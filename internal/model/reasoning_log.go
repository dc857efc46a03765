package model

type TargetKind string

const (
	TargetMission TargetKind = "mission"
	TargetContent TargetKind = "content"
)

// ReasoningTarget 波利亚工作表所属对象
type ReasoningTarget struct {
	Kind TargetKind
	ID   uint
}

func MissionTarget(id uint) ReasoningTarget {
	return ReasoningTarget{Kind: TargetMission, ID: id}
}

func ContentTarget(id uint) ReasoningTarget {
	return ReasoningTarget{Kind: TargetContent, ID: id}
}

// ReasoningLog 波利亚四步解题工作表，(user_id, target_kind, target_id) 唯一
// swagger:model ReasoningLog
type ReasoningLog struct {
	UUIDBase
	UserID     uint       `gorm:"uniqueIndex:idx_reasoning_user_target;not null" json:"userId"`
	TargetKind TargetKind `gorm:"uniqueIndex:idx_reasoning_user_target;size:20;not null" json:"targetKind"`
	TargetID   uint       `gorm:"uniqueIndex:idx_reasoning_user_target;not null" json:"targetId"`

	// 理解问题
	Question       string `gorm:"type:text" json:"question"`
	KnownData      string `gorm:"type:text" json:"knownData"`
	Unknowns       string `gorm:"type:text" json:"unknowns"`
	Representation string `gorm:"type:text" json:"representation"`
	// 制定计划
	MainStrategy string `gorm:"type:text" json:"mainStrategy"`
	Plan         string `gorm:"type:text" json:"plan"`
	// 执行计划
	Development         string `gorm:"type:text" json:"development"`
	IntermediateResults string `gorm:"type:text" json:"intermediateResults"`
	// 回顾
	Review           string `gorm:"type:text" json:"review"`
	AlternativeCheck string `gorm:"type:text" json:"alternativeCheck"`
	Conclusion       string `gorm:"type:text" json:"conclusion"`

	// 仅任务工作表使用
	TacticSimilar   bool `gorm:"default:false" json:"tacticSimilar"`
	TacticDecompose bool `gorm:"default:false" json:"tacticDecompose"`
	TacticEquations bool `gorm:"default:false" json:"tacticEquations"`
	TacticFormula   bool `gorm:"default:false" json:"tacticFormula"`

	Confidence *int `json:"confidence"`

	SubValues []ReasoningLogSubValue `gorm:"foreignKey:ReasoningLogID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ReasoningLog) TableName() string {
	return "reasoning_logs"
}

func (l *ReasoningLog) Target() ReasoningTarget {
	return ReasoningTarget{Kind: l.TargetKind, ID: l.TargetID}
}

// ReasoningLogSubValue 工作表中的加数，每次保存整体替换
type ReasoningLogSubValue struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ReasoningLogID string `gorm:"type:varchar(36);index;not null" json:"reasoningLogId"`
	Position       int    `gorm:"not null" json:"position"`
	Value          string `gorm:"type:text;not null" json:"value"`
}

func (ReasoningLogSubValue) TableName() string {
	return "reasoning_log_sub_values"
}
