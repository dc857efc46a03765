package service

import (
	"fmt"
	"math"
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"time"
)

type ReportService struct {
	UserRepo    *repository.UserRepository
	MissionRepo *repository.MissionRepository
	AttemptRepo *repository.AttemptRepository
	SkillRepo   *repository.SkillRepository
}

func NewReportService(
	userRepo *repository.UserRepository,
	missionRepo *repository.MissionRepository,
	attemptRepo *repository.AttemptRepository,
	skillRepo *repository.SkillRepository,
) *ReportService {
	return &ReportService{
		UserRepo:    userRepo,
		MissionRepo: missionRepo,
		AttemptRepo: attemptRepo,
		SkillRepo:   skillRepo,
	}
}

type StudentReportRow struct {
	UserID            uint                `json:"userId"`
	Name              string              `json:"name"`
	Email             string              `json:"email"`
	CompletedMissions int                 `json:"completedMissions"`
	MissionsAttempted int                 `json:"missionsAttempted"`
	Progress          int                 `json:"progress"`
	Average           float64             `json:"average"`
	LastActivity      *time.Time          `json:"lastActivity"`
	Skills            []SkillProgressView `json:"skills"`
}

type AttemptFeedRow struct {
	AttemptID    uint                `json:"attemptId"`
	UserID       uint                `json:"userId"`
	UserName     string              `json:"userName"`
	MissionID    uint                `json:"missionId"`
	MissionTitle string              `json:"missionTitle"`
	Status       model.AttemptStatus `json:"status"`
	Timestamp    time.Time           `json:"timestamp"`
}

type StudentReport struct {
	Students      []StudentReportRow `json:"students"`
	TotalMissions int                `json:"totalMissions"`
	Attempts      []AttemptFeedRow   `json:"attempts"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// StudentReport 启用学生的完成情况，query 按姓名或 ID 过滤；feedLimit<=0 时返回全部尝试
func (s *ReportService) StudentReport(query string, feedLimit int) (*StudentReport, error) {
	students, err := s.UserRepo.ListActiveStudents(query)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	active, err := s.MissionRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	skills, err := s.SkillRepo.List()
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}

	ids := make([]uint, len(students))
	for i, u := range students {
		ids[i] = u.ID
	}
	attempts, err := s.AttemptRepo.ListByUsers(ids)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	progressRows, err := s.SkillRepo.ProgressByUsers(ids)
	if err != nil {
		return nil, fmt.Errorf("list skill progress: %w", err)
	}

	byUser := make(map[uint][]model.MissionAttempt, len(students))
	for _, a := range attempts {
		byUser[a.UserID] = append(byUser[a.UserID], a)
	}
	progressByUser := make(map[uint]map[uint]int, len(students))
	for _, p := range progressRows {
		if progressByUser[p.UserID] == nil {
			progressByUser[p.UserID] = make(map[uint]int)
		}
		progressByUser[p.UserID][p.SkillID] = p.Percentage
	}

	report := &StudentReport{
		Students:      make([]StudentReportRow, 0, len(students)),
		TotalMissions: len(active),
	}
	for _, u := range students {
		report.Students = append(report.Students, buildReportRow(u, byUser[u.ID], len(active), mergeSkillProgress(skills, progressByUser[u.ID])))
	}

	recent, err := s.AttemptRepo.ListRecent(feedLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent attempts: %w", err)
	}
	report.Attempts = toFeed(recent)
	return report, nil
}

// buildReportRow attempts 需按时间倒序
func buildReportRow(u model.User, attempts []model.MissionAttempt, totalMissions int, skills []SkillProgressView) StudentReportRow {
	completed := make(map[uint]bool)
	attempted := make(map[uint]bool)
	for _, a := range attempts {
		attempted[a.MissionID] = true
		if a.Status == model.AttemptCompleted {
			completed[a.MissionID] = true
		}
	}

	row := StudentReportRow{
		UserID:            u.ID,
		Name:              u.Name,
		Email:             u.Email,
		CompletedMissions: len(completed),
		MissionsAttempted: len(attempted),
		LastActivity:      u.LastSeen,
		Skills:            skills,
	}
	if totalMissions > 0 {
		row.Progress = len(completed) * 100 / totalMissions
		row.Average = round1(float64(len(completed)) / float64(totalMissions) * 10)
	}
	if len(attempts) > 0 {
		last := attempts[0].AttemptedAt
		row.LastActivity = &last
	}
	return row
}

func toFeed(attempts []model.MissionAttempt) []AttemptFeedRow {
	feed := make([]AttemptFeedRow, 0, len(attempts))
	for _, a := range attempts {
		row := AttemptFeedRow{
			AttemptID: a.ID,
			UserID:    a.UserID,
			MissionID: a.MissionID,
			Status:    a.Status,
			Timestamp: a.AttemptedAt,
		}
		if a.User != nil {
			row.UserName = a.User.Name
		}
		if a.Mission != nil {
			row.MissionTitle = a.Mission.Title
		}
		feed = append(feed, row)
	}
	return feed
}
