package controller

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"math_missions_backend/internal/middleware"
	"math_missions_backend/internal/model"
	"math_missions_backend/internal/repository"
	"math_missions_backend/internal/service"
	"math_missions_backend/internal/testutil"
	"math_missions_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	user   *model.User
}

// fakeAuth 直接写入当前用户，跳过 JWT
func fakeAuth(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", &util.Claims{UserID: user.ID, Role: user.Role, Name: user.Name})
		c.Next()
	}
}

func newTestServer(t *testing.T, role model.UserRole) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, util.RegisterValidators())

	db := testutil.NewTestDB(t)
	cfg := testutil.TestConfig()
	cfg.Storage.LocalPath = t.TempDir()

	userRepo := repository.NewUserRepository(db)
	missionRepo := repository.NewMissionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	contentRepo := repository.NewContentRepository(db)
	logRepo := repository.NewReasoningLogRepository(db)

	progress := service.NewSkillProgressService(skillRepo, missionRepo, attemptRepo)
	attempts := NewAttemptController(service.NewAttemptService(attemptRepo, missionRepo, progress))
	logs := NewReasoningLogController(service.NewReasoningLogService(logRepo, missionRepo, contentRepo, userRepo, attemptRepo, cfg))
	quiz := NewQuizController(service.NewQuizServiceWithRand(cfg, rand.New(rand.NewPCG(1, 2))))
	missions := NewMissionController(service.NewMissionService(missionRepo, attemptRepo, skillRepo, nil, cfg))
	auth := NewAuthController(service.NewAuthService(userRepo, cfg))

	user := testutil.CreateUser(t, db, "ana", role)

	r := gin.New()
	r.POST("/api/login", auth.Login)
	secured := r.Group("/api")
	secured.GET("/me", middleware.AuthMiddleware(cfg), auth.Me)

	api := r.Group("/api", fakeAuth(user))
	api.GET("/missions", missions.ListMissions)
	api.POST("/attempts", attempts.RecordAttempt)
	api.GET("/missions/:id/attempts/latest", attempts.LatestAttempt)
	api.GET("/missions/:id/reasoning-log", logs.GetMissionLog)
	api.PUT("/missions/:id/reasoning-log", logs.SaveMissionLog)
	api.POST("/library/quiz", quiz.GenerateQuiz)

	teacher := api.Group("/teacher", middleware.RoleMiddleware(model.Teacher))
	teacher.GET("/missions/:id/attempts", attempts.ListAttempts)
	teacher.PATCH("/attempts/:id/status", attempts.SetStatus)

	return &testServer{router: r, db: db, user: user}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestRecordAttemptEnvelope(t *testing.T) {
	s := newTestServer(t, model.Student)
	mission := testutil.CreateMission(t, s.db, "m", model.OperationSum, true, time.Now(), nil)

	w, env := s.do(t, http.MethodPost, "/api/attempts", gin.H{"missionId": 999, "status": "completed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, util.KindNotFound, env.Error)

	w, env = s.do(t, http.MethodPost, "/api/attempts", gin.H{"missionId": mission.ID, "status": "done"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, util.KindInvalidInput, env.Error)

	w, env = s.do(t, http.MethodPost, "/api/attempts", gin.H{"missionId": mission.ID, "proposedSolution": "7"})
	require.Equal(t, http.StatusOK, w.Code)
	var created recordAttemptResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, model.AttemptInProgress, created.Status)
	assert.NotZero(t, created.AttemptID)

	w, env = s.do(t, http.MethodGet, "/api/missions/1/attempts/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var latest model.MissionAttempt
	require.NoError(t, json.Unmarshal(env.Data, &latest))
	assert.Equal(t, "7", latest.ProposedSolution)
}

func TestReasoningLogNullThenSaved(t *testing.T) {
	s := newTestServer(t, model.Student)
	testutil.CreateMission(t, s.db, "m", model.OperationSum, true, time.Now(), nil)

	w, env := s.do(t, http.MethodGet, "/api/missions/1/reasoning-log", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(env.Data))

	w, env = s.do(t, http.MethodPut, "/api/missions/1/reasoning-log", gin.H{
		"question":      "¿Cuánto suman?",
		"tacticFormula": true,
		"confidence":    "3",
		"subValues":     []string{"4", "", "8"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var view service.ReasoningLogView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "¿Cuánto suman?", view.Question)
	assert.Equal(t, []string{"4", "8"}, view.SubValues)
	require.NotNil(t, view.Confidence)
	assert.Equal(t, 3, *view.Confidence)
	require.NotNil(t, view.Tactics)
	assert.True(t, view.Tactics.Formula)

	w, env = s.do(t, http.MethodGet, "/api/missions/abc/reasoning-log", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, util.KindInvalidInput, env.Error)

	w, _ = s.do(t, http.MethodGet, "/api/missions/42/reasoning-log", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateQuiz(t *testing.T) {
	s := newTestServer(t, model.Student)

	w, env := s.do(t, http.MethodPost, "/api/library/quiz", gin.H{"description": "Una resta", "solution": 12})
	require.Equal(t, http.StatusOK, w.Code)
	var q service.QuizQuestion
	require.NoError(t, json.Unmarshal(env.Data, &q))
	assert.Equal(t, 12, q.Choices[q.CorrectIndex])
	assert.Equal(t, model.OperationSubtract, q.Operation)

	w, env = s.do(t, http.MethodPost, "/api/library/quiz", gin.H{"description": "Una resta", "solution": "doce"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, util.KindInvalidInput, env.Error)

	w, _ = s.do(t, http.MethodPost, "/api/library/quiz", gin.H{"solution": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTeacherRoutesRequireRole(t *testing.T) {
	s := newTestServer(t, model.Student)
	testutil.CreateMission(t, s.db, "m", model.OperationSum, true, time.Now(), nil)

	w, env := s.do(t, http.MethodGet, "/api/teacher/missions/1/attempts", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, util.KindForbidden, env.Error)
}

func TestTeacherSetStatus(t *testing.T) {
	s := newTestServer(t, model.Teacher)
	student := testutil.CreateUser(t, s.db, "luis", model.Student)
	mission := testutil.CreateMission(t, s.db, "m", model.OperationSum, true, time.Now(), nil)
	attempt := &model.MissionAttempt{UserID: student.ID, MissionID: mission.ID, Status: model.AttemptCompleted, AttemptedAt: time.Now()}
	require.NoError(t, s.db.Create(attempt).Error)

	w, env := s.do(t, http.MethodPatch, "/api/teacher/attempts/1/status", gin.H{"status": "rejected"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, string(env.Data))

	w, env = s.do(t, http.MethodGet, "/api/teacher/missions/1/attempts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []repository.AttemptRow
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, model.AttemptRejected, rows[0].Status)
	assert.Equal(t, "luis", rows[0].UserName)

	w, _ = s.do(t, http.MethodPatch, "/api/teacher/attempts/99/status", gin.H{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t, model.Student)
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{Name: "Marta", Email: "marta@example.com", Password: string(hash), Role: model.Teacher}
	require.NoError(t, s.db.Create(user).Error)

	w, env := s.do(t, http.MethodPost, "/api/login", gin.H{"email": "marta@example.com", "password": "mal"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, util.KindUnauthorized, env.Error)

	w, env = s.do(t, http.MethodPost, "/api/login", gin.H{"email": "marta@example.com", "password": "secreto"})
	require.Equal(t, http.StatusOK, w.Code)
	var result service.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(t, result.Token)

	w, env = s.do(t, http.MethodGet, "/api/me", nil, "Authorization", "Bearer "+result.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var me model.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "Marta", me.Name)

	w, _ = s.do(t, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
