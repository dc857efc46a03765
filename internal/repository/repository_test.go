package repository

import (
	"errors"
	"testing"
	"time"

	"math_missions_backend/internal/model"
	"math_missions_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAttemptUpsertKeepsOneRowPerUserMission(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAttemptRepository(db)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)

	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	first := &model.MissionAttempt{UserID: user.ID, MissionID: mission.ID, Status: model.AttemptPending, AttemptedAt: t0}
	require.NoError(t, repo.Upsert(first))

	second := &model.MissionAttempt{UserID: user.ID, MissionID: mission.ID, Status: model.AttemptCompleted, ProposedSolution: "8", AttemptedAt: t0.Add(time.Hour)}
	require.NoError(t, repo.Upsert(second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.AttemptCompleted, second.Status)
	assert.Equal(t, "8", second.ProposedSolution)

	var count int64
	db.Model(&model.MissionAttempt{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestLatestStatuses(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAttemptRepository(db)
	ana := testutil.CreateUser(t, db, "ana", model.Student)
	luis := testutil.CreateUser(t, db, "luis", model.Student)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m1 := testutil.CreateMission(t, db, "m1", model.OperationSum, true, base, nil)
	m2 := testutil.CreateMission(t, db, "m2", model.OperationSum, true, base, nil)
	m3 := testutil.CreateMission(t, db, "m3", model.OperationSum, true, base, nil)

	require.NoError(t, repo.Upsert(&model.MissionAttempt{UserID: ana.ID, MissionID: m1.ID, Status: model.AttemptCompleted, AttemptedAt: base}))
	require.NoError(t, repo.Upsert(&model.MissionAttempt{UserID: ana.ID, MissionID: m2.ID, Status: model.AttemptRejected, AttemptedAt: base}))
	require.NoError(t, repo.Upsert(&model.MissionAttempt{UserID: luis.ID, MissionID: m3.ID, Status: model.AttemptInProgress, AttemptedAt: base}))

	statuses, err := repo.LatestStatuses(ana.ID, []uint{m1.ID, m2.ID, m3.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]model.AttemptStatus{
		m1.ID: model.AttemptCompleted,
		m2.ID: model.AttemptRejected,
	}, statuses)

	empty, err := repo.LatestStatuses(ana.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMissionOrderingAndSkillIDs(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewMissionRepository(db)
	skill := testutil.CreateSkill(t, db, "Sumas")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	late := testutil.CreateMission(t, db, "late", model.OperationSum, true, base.Add(time.Hour), skill)
	early := testutil.CreateMission(t, db, "early", model.OperationDivide, true, base, skill)
	off := testutil.CreateMission(t, db, "off", model.OperationSum, false, base, skill)

	active, err := repo.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, early.ID, active[0].ID)
	assert.Equal(t, late.ID, active[1].ID)

	all, err := repo.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ids, err := repo.ActiveIDsBySkill(skill.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{early.ID, late.ID}, ids)
	assert.NotContains(t, ids, off.ID)
}

func TestMarkViewedIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewContentRepository(db)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	item := testutil.CreateContentItem(t, db, "c", model.ContentPractice, true)

	require.NoError(t, repo.MarkViewed(user.ID, item.ID))
	require.NoError(t, repo.MarkViewed(user.ID, item.ID))

	var count int64
	db.Model(&model.ContentViewState{}).Count(&count)
	assert.Equal(t, int64(1), count)

	seen, err := repo.SeenMap(user.ID)
	require.NoError(t, err)
	assert.True(t, seen[item.ID])
}

func TestReasoningLogUpsertPreservesConfidence(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewReasoningLogRepository(db)
	user := testutil.CreateUser(t, db, "ana", model.Student)

	four := 4
	first := &model.ReasoningLog{UserID: user.ID, TargetKind: model.TargetMission, TargetID: 1, Plan: "a", Confidence: &four}
	require.NoError(t, repo.Upsert(first, true))
	require.NotEmpty(t, first.ID)

	second := &model.ReasoningLog{UserID: user.ID, TargetKind: model.TargetMission, TargetID: 1, Plan: "b"}
	require.NoError(t, repo.Upsert(second, false))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "b", second.Plan)
	require.NotNil(t, second.Confidence)
	assert.Equal(t, 4, *second.Confidence)

	require.NoError(t, repo.ReplaceSubValues(second.ID, []string{"9", "1"}))
	values, err := repo.SubValues(second.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "1"}, values)

	n, err := repo.CountByKind(model.TargetMission)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReasoningLogSaveRollsBackOnSubValueFailure(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewReasoningLogRepository(db)
	user := testutil.CreateUser(t, db, "ana", model.Student)

	first := &model.ReasoningLog{UserID: user.ID, TargetKind: model.TargetMission, TargetID: 1, Plan: "a"}
	require.NoError(t, repo.Save(first, false, []string{"1", "2"}))

	failSubValues := true
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_sub_values", func(tx *gorm.DB) {
		if failSubValues && tx.Statement.Schema != nil && tx.Statement.Schema.Table == "reasoning_log_sub_values" {
			tx.AddError(errors.New("sub-value insert failed"))
		}
	}))

	second := &model.ReasoningLog{UserID: user.ID, TargetKind: model.TargetMission, TargetID: 1, Plan: "b"}
	assert.Error(t, repo.Save(second, false, []string{"7"}))
	failSubValues = false

	stored, err := repo.FindByUserAndTarget(user.ID, model.ReasoningTarget{Kind: model.TargetMission, ID: 1})
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Plan)
	values, err := repo.SubValues(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, values)
}

func TestListActiveStudents(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ana := testutil.CreateUser(t, db, "Ana", model.Student)
	testutil.CreateUser(t, db, "Luis", model.Student)
	testutil.CreateUser(t, db, "Profe", model.Teacher)
	disabled := testutil.CreateUser(t, db, "Anabel", model.Student)
	require.NoError(t, db.Model(disabled).Update("disabled", true).Error)

	all, err := repo.ListActiveStudents("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byName, err := repo.ListActiveStudents("an")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, ana.ID, byName[0].ID)

	roles, err := repo.CountByRole()
	require.NoError(t, err)
	assert.Equal(t, int64(3), roles[model.Student])
	assert.Equal(t, int64(1), roles[model.Teacher])
}
