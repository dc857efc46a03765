package model

// Skill 数学技能（如加法、两位数乘法）
// swagger:model Skill
type Skill struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Skill) TableName() string {
	return "skills"
}

// SkillProgress 用户在某项技能上的完成百分比
// swagger:model SkillProgress
type SkillProgress struct {
	ID         uint `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint `gorm:"uniqueIndex:idx_user_skill;not null" json:"userId"`
	SkillID    uint `gorm:"uniqueIndex:idx_user_skill;not null" json:"skillId"`
	Percentage int  `gorm:"default:0" json:"percentage"`

	Skill *Skill `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
}

func (SkillProgress) TableName() string {
	return "skill_progresses"
}
