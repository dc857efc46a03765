package service

import (
	"fmt"
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/util"
	"time"
)

type DashboardService struct {
	UserRepo    *repository.UserRepository
	MissionRepo *repository.MissionRepository
	AttemptRepo *repository.AttemptRepository
	SkillRepo   *repository.SkillRepository
	ContentRepo *repository.ContentRepository
	LogRepo     *repository.ReasoningLogRepository
	Progress    *SkillProgressService
	Reports     *ReportService
	Now         func() time.Time
}

func NewDashboardService(
	userRepo *repository.UserRepository,
	missionRepo *repository.MissionRepository,
	attemptRepo *repository.AttemptRepository,
	skillRepo *repository.SkillRepository,
	contentRepo *repository.ContentRepository,
	logRepo *repository.ReasoningLogRepository,
	progress *SkillProgressService,
	reports *ReportService,
) *DashboardService {
	return &DashboardService{
		UserRepo:    userRepo,
		MissionRepo: missionRepo,
		AttemptRepo: attemptRepo,
		SkillRepo:   skillRepo,
		ContentRepo: contentRepo,
		LogRepo:     logRepo,
		Progress:    progress,
		Reports:     reports,
		Now:         time.Now,
	}
}

type Trend struct {
	Percentage float64 `json:"percentage"`
	Text       string  `json:"text"`
	Class      string  `json:"class"`
}

type StudentDashboard struct {
	TotalMissions        int                 `json:"totalMissions"`
	CompletedMissions    int                 `json:"completedMissions"`
	InProgressMissions   int                 `json:"inProgressMissions"`
	TotalSkills          int                 `json:"totalSkills"`
	SuccessRate          float64             `json:"successRate"`
	CompletionPercentage float64             `json:"completionPercentage"`
	CompletedThisWeek    int64               `json:"completedThisWeek"`
	CompletedLastWeek    int64               `json:"completedLastWeek"`
	Trend                Trend               `json:"trend"`
	Skills               []SkillProgressView `json:"skills"`
}

type TeacherDashboard struct {
	StudentCount    int              `json:"studentCount"`
	TotalMissions   int              `json:"totalMissions"`
	AverageProgress float64          `json:"averageProgress"`
	RecentAttempts  []AttemptFeedRow `json:"recentAttempts"`
}

type AdminDashboard struct {
	Users                map[model.UserRole]int64 `json:"users"`
	Missions             int64                    `json:"missions"`
	ContentItems         int64                    `json:"contentItems"`
	Skills               int64                    `json:"skills"`
	MissionReasoningLogs int64                    `json:"missionReasoningLogs"`
	ContentReasoningLogs int64                    `json:"contentReasoningLogs"`
}

// DashboardView 按角色只填充其中一项
type DashboardView struct {
	Role    model.UserRole    `json:"role"`
	Student *StudentDashboard `json:"student,omitempty"`
	Teacher *TeacherDashboard `json:"teacher,omitempty"`
	Admin   *AdminDashboard   `json:"admin,omitempty"`
}

const teacherFeedSize = 10

func (s *DashboardService) ForUser(userID uint, role model.UserRole) (*DashboardView, error) {
	view := &DashboardView{Role: role}
	var err error
	switch role {
	case model.Student:
		view.Student, err = s.Student(userID)
	case model.Teacher:
		view.Teacher, err = s.Teacher()
	case model.Admin:
		view.Admin, err = s.Admin()
	default:
		return nil, util.ErrPermissionDenied
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *DashboardService) Student(userID uint) (*StudentDashboard, error) {
	active, err := s.MissionRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	attempts, err := s.AttemptRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	skills, err := s.Progress.ForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}

	completed := make(map[uint]bool)
	inProgress := make(map[uint]bool)
	completedAttempts := 0
	for _, a := range attempts {
		switch a.Status {
		case model.AttemptCompleted:
			completed[a.MissionID] = true
			completedAttempts++
		case model.AttemptInProgress:
			inProgress[a.MissionID] = true
		}
	}

	d := &StudentDashboard{
		TotalMissions:      len(active),
		CompletedMissions:  len(completed),
		InProgressMissions: len(inProgress),
		TotalSkills:        len(skills),
		Skills:             skills,
	}
	if len(attempts) > 0 {
		d.SuccessRate = round1(float64(completedAttempts) / float64(len(attempts)) * 100)
	}
	if len(active) > 0 {
		d.CompletionPercentage = round1(float64(len(completed)) / float64(len(active)) * 100)
	}

	thisWeek := WeekStart(s.Now())
	lastWeek := thisWeek.AddDate(0, 0, -7)
	if d.CompletedThisWeek, err = s.AttemptRepo.CountCompletedBetween(userID, thisWeek, thisWeek.AddDate(0, 0, 7)); err != nil {
		return nil, err
	}
	if d.CompletedLastWeek, err = s.AttemptRepo.CountCompletedBetween(userID, lastWeek, thisWeek); err != nil {
		return nil, err
	}
	d.Trend = WeeklyTrend(d.CompletedThisWeek, d.CompletedLastWeek)
	return d, nil
}

func (s *DashboardService) Teacher() (*TeacherDashboard, error) {
	report, err := s.Reports.StudentReport("", teacherFeedSize)
	if err != nil {
		return nil, err
	}

	d := &TeacherDashboard{
		StudentCount:   len(report.Students),
		TotalMissions:  report.TotalMissions,
		RecentAttempts: report.Attempts,
	}
	if len(report.Students) > 0 {
		sum := 0
		for _, row := range report.Students {
			sum += row.Progress
		}
		d.AverageProgress = round1(float64(sum) / float64(len(report.Students)))
	}
	return d, nil
}

func (s *DashboardService) Admin() (*AdminDashboard, error) {
	d := &AdminDashboard{}
	var err error
	if d.Users, err = s.UserRepo.CountByRole(); err != nil {
		return nil, err
	}
	if d.Missions, err = s.MissionRepo.Count(); err != nil {
		return nil, err
	}
	if d.ContentItems, err = s.ContentRepo.Count(); err != nil {
		return nil, err
	}
	if d.Skills, err = s.SkillRepo.Count(); err != nil {
		return nil, err
	}
	if d.MissionReasoningLogs, err = s.LogRepo.CountByKind(model.TargetMission); err != nil {
		return nil, err
	}
	if d.ContentReasoningLogs, err = s.LogRepo.CountByKind(model.TargetContent); err != nil {
		return nil, err
	}
	return d, nil
}

// WeekStart 返回 t 所在 ISO 周的周一零点
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeeklyTrend 本周相对上周的完成数变化；上周为 0 时有完成即视为增长 100%
func WeeklyTrend(thisWeek, lastWeek int64) Trend {
	var pct float64
	switch {
	case lastWeek > 0:
		pct = round1(float64(thisWeek-lastWeek) / float64(lastWeek) * 100)
	case thisWeek > 0:
		pct = 100
	}

	switch {
	case pct > 0:
		return Trend{Percentage: pct, Text: "increase", Class: "success"}
	case pct < 0:
		return Trend{Percentage: -pct, Text: "decrease", Class: "danger"}
	default:
		return Trend{Percentage: 0, Text: "no change", Class: "secondary"}
	}
}
