package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/testutil"
	"math_missions_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func newAttemptService(t *testing.T) (*AttemptService, *gorm.DB) {
	db := testutil.NewTestDB(t)
	missionRepo := repository.NewMissionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	progress := NewSkillProgressService(repository.NewSkillRepository(db), missionRepo, attemptRepo)
	return NewAttemptService(attemptRepo, missionRepo, progress), db
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecordAttemptConcurrentWritersKeepOneRow(t *testing.T) {
	db := testutil.NewFileTestDB(t, 8)
	missionRepo := repository.NewMissionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	progress := NewSkillProgressService(repository.NewSkillRepository(db), missionRepo, attemptRepo)
	svc := NewAttemptService(attemptRepo, missionRepo, progress)

	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)

	statuses := []model.AttemptStatus{model.AttemptInProgress, model.AttemptCompleted, model.AttemptPending}
	var g errgroup.Group
	for i := 0; i < 24; i++ {
		g.Go(func() error {
			_, err := svc.RecordAttempt(user.ID, mission.ID, statuses[i%len(statuses)], fmt.Sprint(i))
			return err
		})
	}
	require.NoError(t, g.Wait())

	var count int64
	require.NoError(t, db.Model(&model.MissionAttempt{}).
		Where("user_id = ? AND mission_id = ?", user.ID, mission.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	latest, err := svc.LatestAttempt(user.ID, mission.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Contains(t, statuses, latest.Status)
}

func TestRecordAttemptUnknownMissionWritesNothing(t *testing.T) {
	svc, db := newAttemptService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)

	_, err := svc.RecordAttempt(user.ID, 404, model.AttemptCompleted, "7")
	assert.True(t, errors.Is(err, util.ErrMissionNotFound))
	assert.True(t, errors.Is(err, util.ErrNotFound))

	var count int64
	db.Model(&model.MissionAttempt{}).Count(&count)
	assert.Zero(t, count)
}

func TestRecordAttemptOverwritesSingleRow(t *testing.T) {
	svc, db := newAttemptService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)

	t0 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	svc.Now = fixedClock(t0)
	first, err := svc.RecordAttempt(user.ID, mission.ID, "", "5")
	require.NoError(t, err)
	assert.Equal(t, model.AttemptInProgress, first.Status)

	svc.Now = fixedClock(t0.Add(time.Hour))
	second, err := svc.RecordAttempt(user.ID, mission.ID, model.AttemptCompleted, "7")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.AttemptCompleted, second.Status)
	assert.Equal(t, "7", second.ProposedSolution)
	assert.True(t, second.AttemptedAt.Equal(t0.Add(time.Hour)))

	var count int64
	db.Model(&model.MissionAttempt{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRecordAttemptRejectsUnknownStatus(t *testing.T) {
	svc, db := newAttemptService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)

	_, err := svc.RecordAttempt(user.ID, mission.ID, "done", "")
	assert.True(t, errors.Is(err, util.ErrInvalidInput))
}

func TestListAttemptsNewestFirst(t *testing.T) {
	svc, db := newAttemptService(t)
	ana := testutil.CreateUser(t, db, "ana", model.Student)
	luis := testutil.CreateUser(t, db, "luis", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)

	t0 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	svc.Now = fixedClock(t0)
	_, err := svc.RecordAttempt(ana.ID, mission.ID, model.AttemptPending, "")
	require.NoError(t, err)
	svc.Now = fixedClock(t0.Add(time.Minute))
	_, err = svc.RecordAttempt(luis.ID, mission.ID, model.AttemptCompleted, "9")
	require.NoError(t, err)

	rows, err := svc.ListAttempts(mission.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "luis", rows[0].UserName)
	assert.Equal(t, model.AttemptCompleted, rows[0].Status)
	assert.Equal(t, "ana", rows[1].UserName)

	empty := testutil.CreateMission(t, db, "empty", model.OperationSum, true, time.Now(), nil)
	rows, err = svc.ListAttempts(empty.ID)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	_, err = svc.ListAttempts(999)
	assert.True(t, errors.Is(err, util.ErrMissionNotFound))
}

func TestSetStatus(t *testing.T) {
	svc, db := newAttemptService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)

	attempt, err := svc.RecordAttempt(user.ID, mission.ID, model.AttemptCompleted, "7")
	require.NoError(t, err)

	// 任意状态之间都可以切换
	updated, err := svc.SetStatus(attempt.ID, model.AttemptRejected)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptRejected, updated.Status)

	updated, err = svc.SetStatus(attempt.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.AttemptPending, updated.Status)

	_, err = svc.SetStatus(attempt.ID, "approved")
	assert.True(t, errors.Is(err, util.ErrInvalidInput))

	_, err = svc.SetStatus(999, model.AttemptCompleted)
	assert.True(t, errors.Is(err, util.ErrAttemptNotFound))
}

func TestAttemptsRecalculateSkillProgress(t *testing.T) {
	svc, db := newAttemptService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	skill := testutil.CreateSkill(t, db, "Sumas")
	now := time.Now()
	m1 := testutil.CreateMission(t, db, "m1", model.OperationSum, true, now, skill)
	testutil.CreateMission(t, db, "m2", model.OperationSum, true, now, skill)
	testutil.CreateMission(t, db, "m3", model.OperationSum, true, now, skill)
	testutil.CreateMission(t, db, "inactive", model.OperationSum, false, now, skill)

	attempt, err := svc.RecordAttempt(user.ID, m1.ID, model.AttemptCompleted, "")
	require.NoError(t, err)

	progress, err := repository.NewSkillRepository(db).ProgressByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, progress[skill.ID])

	_, err = svc.SetStatus(attempt.ID, model.AttemptRejected)
	require.NoError(t, err)

	progress, err = repository.NewSkillRepository(db).ProgressByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, progress[skill.ID])
}

func TestLatestAttempt(t *testing.T) {
	svc, db := newAttemptService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)

	latest, err := svc.LatestAttempt(user.ID, mission.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = svc.RecordAttempt(user.ID, mission.ID, model.AttemptInProgress, "4")
	require.NoError(t, err)

	latest, err = svc.LatestAttempt(user.ID, mission.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "4", latest.ProposedSolution)
}
