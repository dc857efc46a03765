package service

import (
	"testing"
	"time"

	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDashboardService(t *testing.T) (*DashboardService, *gorm.DB) {
	db := testutil.NewTestDB(t)
	userRepo := repository.NewUserRepository(db)
	missionRepo := repository.NewMissionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	progress := NewSkillProgressService(skillRepo, missionRepo, attemptRepo)
	reports := NewReportService(userRepo, missionRepo, attemptRepo, skillRepo)
	svc := NewDashboardService(
		userRepo, missionRepo, attemptRepo, skillRepo,
		repository.NewContentRepository(db),
		repository.NewReasoningLogRepository(db),
		progress, reports,
	)
	return svc, db
}

func TestWeekStart(t *testing.T) {
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	cases := []time.Time{
		time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 17, 23, 59, 59, 0, time.UTC),
	}
	for _, c := range cases {
		assert.True(t, WeekStart(c).Equal(monday), "week start of %s", c)
	}
	assert.True(t, WeekStart(time.Date(2024, 3, 18, 1, 0, 0, 0, time.UTC)).Equal(monday.AddDate(0, 0, 7)))
}

func TestWeeklyTrend(t *testing.T) {
	cases := []struct {
		this, last int64
		want       Trend
	}{
		{3, 0, Trend{Percentage: 100, Text: "increase", Class: "success"}},
		{0, 0, Trend{Percentage: 0, Text: "no change", Class: "secondary"}},
		{2, 2, Trend{Percentage: 0, Text: "no change", Class: "secondary"}},
		{3, 2, Trend{Percentage: 50, Text: "increase", Class: "success"}},
		{1, 2, Trend{Percentage: 50, Text: "decrease", Class: "danger"}},
		{1, 3, Trend{Percentage: 66.7, Text: "decrease", Class: "danger"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, WeeklyTrend(tc.this, tc.last), "this=%d last=%d", tc.this, tc.last)
	}
}

func TestStudentDashboard(t *testing.T) {
	svc, db := newDashboardService(t)
	svc.Now = fixedClock(time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC))
	user := testutil.CreateUser(t, db, "ana", model.Student)
	testutil.CreateSkill(t, db, "Sumas")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var missions []*model.Mission
	for i := 0; i < 4; i++ {
		missions = append(missions, testutil.CreateMission(t, db, "m", model.OperationSum, true, base, nil))
	}
	testutil.CreateMission(t, db, "inactive", model.OperationSum, false, base, nil)

	thisWeek := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	lastWeek := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	recordStatus(t, db, user.ID, missions[0].ID, model.AttemptCompleted, thisWeek)
	recordStatus(t, db, user.ID, missions[1].ID, model.AttemptCompleted, thisWeek)
	recordStatus(t, db, user.ID, missions[2].ID, model.AttemptCompleted, lastWeek)
	recordStatus(t, db, user.ID, missions[3].ID, model.AttemptInProgress, thisWeek)

	view, err := svc.ForUser(user.ID, model.Student)
	require.NoError(t, err)
	require.NotNil(t, view.Student)
	assert.Nil(t, view.Teacher)

	d := view.Student
	assert.Equal(t, 4, d.TotalMissions)
	assert.Equal(t, 3, d.CompletedMissions)
	assert.Equal(t, 1, d.InProgressMissions)
	assert.Equal(t, 1, d.TotalSkills)
	assert.Equal(t, 75.0, d.SuccessRate)
	assert.Equal(t, 75.0, d.CompletionPercentage)
	assert.Equal(t, int64(2), d.CompletedThisWeek)
	assert.Equal(t, int64(1), d.CompletedLastWeek)
	assert.Equal(t, "increase", d.Trend.Text)
	assert.Equal(t, 100.0, d.Trend.Percentage)
}

func TestStudentDashboardWithoutActivity(t *testing.T) {
	svc, db := newDashboardService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)

	d, err := svc.Student(user.ID)
	require.NoError(t, err)
	assert.Zero(t, d.SuccessRate)
	assert.Zero(t, d.CompletionPercentage)
	assert.Equal(t, "no change", d.Trend.Text)
	assert.NotNil(t, d.Skills)
}

func TestTeacherAndAdminDashboards(t *testing.T) {
	svc, db := newDashboardService(t)
	teacher := testutil.CreateUser(t, db, "profe", model.Teacher)
	ana := testutil.CreateUser(t, db, "ana", model.Student)
	testutil.CreateUser(t, db, "luis", model.Student)
	testutil.CreateContentItem(t, db, "c", model.ContentGame, true)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m1 := testutil.CreateMission(t, db, "m1", model.OperationSum, true, base, nil)
	testutil.CreateMission(t, db, "m2", model.OperationSum, true, base, nil)
	recordStatus(t, db, ana.ID, m1.ID, model.AttemptCompleted, base)

	view, err := svc.ForUser(teacher.ID, model.Teacher)
	require.NoError(t, err)
	require.NotNil(t, view.Teacher)
	assert.Equal(t, 2, view.Teacher.StudentCount)
	assert.Equal(t, 2, view.Teacher.TotalMissions)
	assert.Equal(t, 25.0, view.Teacher.AverageProgress)
	require.Len(t, view.Teacher.RecentAttempts, 1)
	assert.Equal(t, "m1", view.Teacher.RecentAttempts[0].MissionTitle)

	admin, err := svc.Admin()
	require.NoError(t, err)
	assert.Equal(t, int64(2), admin.Users[model.Student])
	assert.Equal(t, int64(1), admin.Users[model.Teacher])
	assert.Equal(t, int64(2), admin.Missions)
	assert.Equal(t, int64(1), admin.ContentItems)

	_, err = svc.ForUser(teacher.ID, model.UserRole("guest"))
	assert.Error(t, err)
}
