package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blueprep_backend/internal/config"
	"blueprep_backend/internal/repository/memory"
	"blueprep_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "router-test-secret-router-test-secret"

type harness struct {
	t      *testing.T
	router *gin.Engine
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		JWT:       config.JWTConfig{Secret: jwtSecret},
		Storage:   config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
		RateLimit: config.RateLimitConfig{MaxRequests: 0},
		Scheduler: config.SchedulerConfig{SweepInterval: time.Minute},
		Admin:     config.AdminConfig{Operators: []config.Operator{{ID: 1, Email: "ops@example.com"}}},
		Notify:    config.NotifyConfig{Driver: util.NotifyLog, Concurrency: 2},
	}

	a := &App{Config: cfg, Store: memory.NewStore()}
	a.services = a.initServices(a.Store, cfg, nil)
	c := a.initControllers(a.services)

	h := &harness{t: t, now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return h.now }
	c.test.Now = clock
	c.submission.Now = clock

	router := gin.New()
	a.setupMiddlewares(router, cfg)
	a.registerRoutes(router, c, a.services)
	h.router = router
	return h
}

func (h *harness) call(method, path string, user int64, body interface{}) (*httptest.ResponseRecorder, util.Response) {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != 0 {
		token, err := util.GenerateJWT(user, util.RoleParticipant, jwtSecret, time.Hour)
		require.NoError(h.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var resp util.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func dataField(t *testing.T, resp util.Response, key string) interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return m[key]
}

func TestRoutes_FullTestFlow(t *testing.T) {
	h := newHarness(t)
	const operator, student = int64(1), int64(500)

	w, resp := h.call(http.MethodPost, "/api/admin/tests", student, gin.H{"title": "T1", "numQuestions": 3, "durationHours": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = h.call(http.MethodPost, "/api/admin/tests", operator, gin.H{"title": "T1", "numQuestions": 3, "durationHours": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int(dataField(t, resp, "id").(float64))
	base := fmt.Sprintf("/api/admin/tests/%d", id)

	w, _ = h.call(http.MethodPost, base+"/activate", operator, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "no key yet")

	w, resp = h.call(http.MethodPut, base+"/answer-key", operator, gin.H{"key": "1a 2b"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "length_mismatch", dataField(t, resp, "reason"))

	w, _ = h.call(http.MethodPut, base+"/answer-key", operator, gin.H{"key": "1a 2b 3c"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = h.call(http.MethodPost, base+"/activate", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = h.call(http.MethodPost, "/api/submissions", student, gin.H{"text": fmt.Sprintf("%d*abc", id)})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "unregistered", dataField(t, resp, "reason"))

	w, _ = h.call(http.MethodPost, "/api/participants/register", student, gin.H{"fullName": "Student", "username": "stud"})
	require.Equal(t, http.StatusOK, w.Code)

	h.now = h.now.Add(20 * time.Minute)
	w, resp = h.call(http.MethodPost, "/api/submissions", student, gin.H{"text": fmt.Sprintf("%d*abc", id)})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 100.0, dataField(t, resp, "percent"))

	w, resp = h.call(http.MethodPost, "/api/submissions", student, gin.H{"testId": id, "answers": "abd"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate", dataField(t, resp, "reason"))

	w, resp = h.call(http.MethodGet, fmt.Sprintf("/api/submissions/%d", id), student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ABC", dataField(t, resp, "normalizedAnswers"))

	h.now = h.now.Add(time.Hour)
	w, resp = h.call(http.MethodPost, "/api/admin/sweep", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, dataField(t, resp, "reported"))

	w, _ = h.call(http.MethodPost, base+"/end", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = h.call(http.MethodGet, base+"/leaderboard?format=csv", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "Student")
}

func TestRoutes_SubmissionAfterWindow(t *testing.T) {
	h := newHarness(t)
	const operator, student = int64(1), int64(7)

	_, resp := h.call(http.MethodPost, "/api/admin/tests", operator, gin.H{"numQuestions": 1, "durationHours": 1})
	id := int(dataField(t, resp, "id").(float64))
	assert.Equal(t, util.DefaultTestTitle, dataField(t, resp, "title"))
	base := fmt.Sprintf("/api/admin/tests/%d", id)
	h.call(http.MethodPut, base+"/answer-key", operator, gin.H{"key": "a"})
	h.call(http.MethodPost, base+"/activate", operator, nil)
	h.call(http.MethodPost, "/api/participants/register", student, gin.H{"fullName": "Late"})

	h.now = h.now.Add(61 * time.Minute)
	w, resp := h.call(http.MethodPost, "/api/submissions", student, gin.H{"text": fmt.Sprintf("%d*a", id)})
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "window_expired", dataField(t, resp, "reason"))

	w, _ = h.call(http.MethodPost, "/api/submissions", student, gin.H{"text": "no separator"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_RequireToken(t *testing.T) {
	h := newHarness(t)
	w, _ := h.call(http.MethodGet, "/api/participants/me", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.call(http.MethodGet, "/api/health", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_LeaderboardFormats(t *testing.T) {
	h := newHarness(t)
	const operator, student = int64(1), int64(900)

	_, resp := h.call(http.MethodPost, "/api/admin/tests", operator, gin.H{"title": "Boards", "numQuestions": 2, "durationHours": 1})
	id := int(dataField(t, resp, "id").(float64))
	base := fmt.Sprintf("/api/admin/tests/%d", id)
	h.call(http.MethodPut, base+"/answer-key", operator, gin.H{"key": "ab"})
	h.call(http.MethodPost, base+"/activate", operator, nil)
	h.call(http.MethodPost, "/api/participants/register", student, gin.H{"fullName": "Runner", "username": "run"})
	w, _ := h.call(http.MethodPost, "/api/submissions", student, gin.H{"text": fmt.Sprintf("%d*ac", id)})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp = h.call(http.MethodGet, base+"/leaderboard?format=json", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries, ok := dataField(t, resp, "entries").([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, 1.0, entry["rank"])
	assert.Equal(t, 50.0, entry["percent"])

	w, _ = h.call(http.MethodGet, base+"/leaderboard", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<td>@run</td><td>900</td>")

	w, _ = h.call(http.MethodGet, base+"/leaderboard?format=pdf", operator, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
