package service

import (
	"errors"
	"testing"
	"time"

	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/testutil"
	"math_missions_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReasoningLogService(t *testing.T) (*ReasoningLogService, *gorm.DB) {
	db := testutil.NewTestDB(t)
	svc := NewReasoningLogService(
		repository.NewReasoningLogRepository(db),
		repository.NewMissionRepository(db),
		repository.NewContentRepository(db),
		repository.NewUserRepository(db),
		repository.NewAttemptRepository(db),
		testutil.TestConfig(),
	)
	return svc, db
}

func TestSaveLogUpsertsSingleRow(t *testing.T) {
	svc, db := newReasoningLogService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)
	target := model.MissionTarget(mission.ID)

	first, err := svc.SaveLog(user.ID, target, ReasoningLogInput{
		Question:      "¿Cuántas manzanas?",
		Plan:          "sumar",
		TacticSimilar: true,
		Confidence:    float64(3),
	})
	require.NoError(t, err)

	second, err := svc.SaveLog(user.ID, target, ReasoningLogInput{
		Question:   "¿Cuántas peras?",
		Conclusion: "12",
		Confidence: "4",
	})
	require.NoError(t, err)

	var count int64
	db.Model(&model.ReasoningLog{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, first.ID, second.ID)

	view, err := svc.FetchLog(user.ID, target)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "¿Cuántas peras?", view.Question)
	assert.Equal(t, "", view.Plan)
	assert.Equal(t, "12", view.Conclusion)
	require.NotNil(t, view.Confidence)
	assert.Equal(t, 4, *view.Confidence)
	require.NotNil(t, view.Tactics)
	assert.False(t, view.Tactics.Similar)
}

func TestSaveLogIgnoresUnparseableConfidence(t *testing.T) {
	svc, db := newReasoningLogService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)
	target := model.MissionTarget(mission.ID)

	_, err := svc.SaveLog(user.ID, target, ReasoningLogInput{Confidence: "2"})
	require.NoError(t, err)

	for _, raw := range []interface{}{"abc", nil, float64(9), float64(2.5), true, "0"} {
		view, err := svc.SaveLog(user.ID, target, ReasoningLogInput{Question: "q", Confidence: raw})
		require.NoError(t, err, "confidence %v", raw)
		require.NotNil(t, view.Confidence)
		assert.Equal(t, 2, *view.Confidence, "confidence %v", raw)
	}
}

func TestSaveLogWithoutConfidenceStoresNull(t *testing.T) {
	svc, db := newReasoningLogService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	item := testutil.CreateContentItem(t, db, "c", model.ContentPractice, true)

	view, err := svc.SaveLog(user.ID, model.ContentTarget(item.ID), ReasoningLogInput{
		Question:      "q",
		Confidence:    "abc",
		TacticFormula: true,
	})
	require.NoError(t, err)
	assert.Nil(t, view.Confidence)
	assert.Nil(t, view.Tactics)
	assert.Equal(t, model.TargetContent, view.TargetKind)
	assert.Equal(t, []string{}, view.SubValues)
}

func TestReplaceSubValuesDropsEmptyAndKeepsOrder(t *testing.T) {
	svc, db := newReasoningLogService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)
	target := model.MissionTarget(mission.ID)

	view, err := svc.SaveLog(user.ID, target, ReasoningLogInput{SubValues: []string{"1", "2", "9"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "9"}, view.SubValues)

	require.NoError(t, svc.ReplaceSubValues(view.ID, []string{"3", "", "5"}))

	view, err = svc.FetchLog(user.ID, target)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "5"}, view.SubValues)

	var count int64
	db.Model(&model.ReasoningLogSubValue{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestReplaceSubValuesUnknownLog(t *testing.T) {
	svc, _ := newReasoningLogService(t)

	err := svc.ReplaceSubValues("missing", []string{"1"})
	assert.True(t, errors.Is(err, util.ErrNotFound))
}

func TestFetchLogReturnsNilOnFirstVisit(t *testing.T) {
	svc, db := newReasoningLogService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)

	view, err := svc.LoadForTarget(user.ID, model.MissionTarget(mission.ID))
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestSaveLogUnknownTarget(t *testing.T) {
	svc, db := newReasoningLogService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)

	_, err := svc.SaveLog(user.ID, model.MissionTarget(999), ReasoningLogInput{})
	assert.True(t, errors.Is(err, util.ErrMissionNotFound))

	_, err = svc.SaveLog(user.ID, model.ContentTarget(999), ReasoningLogInput{})
	assert.True(t, errors.Is(err, util.ErrContentItemNotFound))

	var count int64
	db.Model(&model.ReasoningLog{}).Count(&count)
	assert.Zero(t, count)
}

func TestLogsAreSeparatedByTargetKind(t *testing.T) {
	svc, db := newReasoningLogService(t)
	user := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)
	item := testutil.CreateContentItem(t, db, "c", model.ContentGame, true)
	require.Equal(t, mission.ID, item.ID)

	_, err := svc.SaveLog(user.ID, model.MissionTarget(mission.ID), ReasoningLogInput{Question: "mission"})
	require.NoError(t, err)
	_, err = svc.SaveLog(user.ID, model.ContentTarget(item.ID), ReasoningLogInput{Question: "content"})
	require.NoError(t, err)

	m, err := svc.FetchLog(user.ID, model.MissionTarget(mission.ID))
	require.NoError(t, err)
	c, err := svc.FetchLog(user.ID, model.ContentTarget(item.ID))
	require.NoError(t, err)
	assert.Equal(t, "mission", m.Question)
	assert.Equal(t, "content", c.Question)
}

func TestStudentWorksheet(t *testing.T) {
	svc, db := newReasoningLogService(t)
	student := testutil.CreateUser(t, db, "ana", model.Student)
	mission := testutil.CreateMission(t, db, "m", model.OperationSum, true, time.Now(), nil)

	sheet, err := svc.StudentWorksheet(mission.ID, student.ID)
	require.NoError(t, err)
	assert.Nil(t, sheet.Log)
	assert.Nil(t, sheet.Attempt)

	_, err = svc.SaveLog(student.ID, model.MissionTarget(mission.ID), ReasoningLogInput{Plan: "sumar"})
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.MissionAttempt{
		UserID: student.ID, MissionID: mission.ID, Status: model.AttemptCompleted, AttemptedAt: time.Now(),
	}).Error)

	sheet, err = svc.StudentWorksheet(mission.ID, student.ID)
	require.NoError(t, err)
	require.NotNil(t, sheet.Log)
	assert.Equal(t, "sumar", sheet.Log.Plan)
	require.NotNil(t, sheet.Attempt)
	assert.Equal(t, model.AttemptCompleted, sheet.Attempt.Status)

	_, err = svc.StudentWorksheet(mission.ID, 999)
	assert.True(t, errors.Is(err, util.ErrUserNotFound))
}
