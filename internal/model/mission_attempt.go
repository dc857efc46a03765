package model

import "time"

type AttemptStatus string

const (
	AttemptPending    AttemptStatus = "pending"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptRejected   AttemptStatus = "rejected"
)

// AttemptNotStarted 仅用于进度地图展示，不会写入数据库
const AttemptNotStarted AttemptStatus = "not_started"

func (s AttemptStatus) Valid() bool {
	switch s {
	case AttemptPending, AttemptInProgress, AttemptCompleted, AttemptRejected:
		return true
	}
	return false
}

// MissionAttempt 用户对任务的当前尝试，(user_id, mission_id) 唯一
// swagger:model MissionAttempt
type MissionAttempt struct {
	ID               uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint          `gorm:"uniqueIndex:idx_attempt_user_mission;not null" json:"userId"`
	MissionID        uint          `gorm:"uniqueIndex:idx_attempt_user_mission;index;not null" json:"missionId"`
	Status           AttemptStatus `gorm:"size:20;not null;default:pending" json:"status"`
	ProposedSolution string        `gorm:"type:text" json:"proposedSolution"`
	AttemptedAt      time.Time     `gorm:"index" json:"attemptedAt"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Mission *Mission `gorm:"foreignKey:MissionID" json:"mission,omitempty"`
}

func (MissionAttempt) TableName() string {
	return "mission_attempts"
}
