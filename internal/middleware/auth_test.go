package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"math_missions_backend/internal/model"
	"math_missions_backend/internal/testutil"
	"math_missions_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveAs(claims *util.Claims, handlers ...gin.HandlerFunc) int {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := []gin.HandlerFunc{func(c *gin.Context) {
		if claims != nil {
			c.Set("user", claims)
		}
		c.Next()
	}}
	chain = append(chain, handlers...)
	chain = append(chain, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/", chain...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w.Code
}

func TestRoleMiddleware(t *testing.T) {
	teacherOnly := RoleMiddleware(model.Teacher)

	assert.Equal(t, http.StatusNoContent, serveAs(&util.Claims{Role: model.Teacher}, teacherOnly))
	assert.Equal(t, http.StatusNoContent, serveAs(&util.Claims{Role: model.Admin}, teacherOnly))
	assert.Equal(t, http.StatusForbidden, serveAs(&util.Claims{Role: model.Student}, teacherOnly))
	assert.Equal(t, http.StatusUnauthorized, serveAs(nil, teacherOnly))
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testutil.TestConfig()
	user := &model.User{Name: "ana", Role: model.Student}
	user.ID = 7
	token, err := util.GenerateJWT(user, cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)
	expired, err := util.GenerateJWT(user, cfg.JWT.Secret, -time.Minute)
	require.NoError(t, err)
	forged, err := util.GenerateJWT(user, "another-secret", time.Hour)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", AuthMiddleware(cfg), func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": claims.UserID})
	})

	cases := map[string]int{
		"Bearer " + token:   http.StatusOK,
		"Bearer " + expired: http.StatusUnauthorized,
		"Bearer " + forged:  http.StatusUnauthorized,
		"":                  http.StatusUnauthorized,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, header)
	}
}

type recordingRepo struct {
	mu   sync.Mutex
	ids  []uint
	done chan struct{}
}

func (r *recordingRepo) UpdateLastSeen(userID uint) error {
	r.mu.Lock()
	r.ids = append(r.ids, userID)
	r.mu.Unlock()
	close(r.done)
	return nil
}

func TestActivityMiddlewareUpdatesLastSeen(t *testing.T) {
	repo := &recordingRepo{done: make(chan struct{})}
	assert.Equal(t, http.StatusNoContent, serveAs(&util.Claims{UserID: 3, Role: model.Student}, ActivityMiddleware(repo)))

	select {
	case <-repo.done:
	case <-time.After(time.Second):
		t.Fatal("last seen was not updated")
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, []uint{3}, repo.ids)
}
