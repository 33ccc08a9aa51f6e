package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	quotaservice "github.com/Deehands24/laymen-terms/internal/quota/service"
	subrepo "github.com/Deehands24/laymen-terms/internal/subscription/repository"
	"github.com/Deehands24/laymen-terms/internal/translation/gateway"
	"github.com/Deehands24/laymen-terms/internal/translation/repository"
	"github.com/Deehands24/laymen-terms/internal/translation/service"
	"github.com/Deehands24/laymen-terms/internal/user"
	"github.com/Deehands24/laymen-terms/pkg/jwt"
	"github.com/Deehands24/laymen-terms/pkg/middleware"
)

const secret = "translate-secret"

type users struct{}

func (users) GetByID(_ context.Context, id int64) (*user.User, error) {
	return &user.User{ID: id, Username: "demo_user"}, nil
}

type countingTranslator struct {
	calls int32
	fail  bool
}

func (c *countingTranslator) Translate(_ context.Context, text string, _ gateway.Options) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.fail {
		return "", errors.New("upstream down")
	}
	return "simple: " + text, nil
}

type env struct {
	router http.Handler
	subs   *subrepo.StaticSubscriptionRepository
	repo   *repository.StaticRepository
	tr     *countingTranslator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	subs := subrepo.NewStaticSubscriptionRepository()
	repo := repository.NewStaticRepository(users{})
	q := quotaservice.NewService(subs, subrepo.NewStaticPlanRepository(subrepo.DefaultPlans()), repo)
	tr := &countingTranslator{}
	svc := service.NewService(repo, q, tr, service.Config{})
	h := NewHandler(svc, false, nil)

	r := chi.NewRouter()
	r.With(middleware.OptionalJWTAuth(secret)).Post("/translate", h.Translate)
	r.With(middleware.OptionalJWTAuth(secret)).Get("/history", h.History)
	r.Get("/models", h.Models)
	return &env{router: r, subs: subs, repo: repo, tr: tr}
}

func (e *env) do(t *testing.T, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestTranslateEndpoint(t *testing.T) {
	e := newEnv(t)
	_, err := e.subs.AssignPlan(context.Background(), 1, 2)
	require.NoError(t, err)

	rec, body := e.do(t, http.MethodPost, "/translate", `{"userId":1,"medicalText":"Hypertension"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "simple: Hypertension", data["explanation"])
	assert.Equal(t, false, data["partial"])
	sub := data["subscription"].(map[string]interface{})
	assert.Equal(t, float64(49), sub["remaining"])
	assert.Equal(t, float64(50), sub["limit"])
}

func TestTranslateQuotaExceeded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.subs.AssignPlan(ctx, 1, 1)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := e.repo.SaveSubmission(ctx, 1, "earlier text")
		require.NoError(t, err)
	}

	rec, body := e.do(t, http.MethodPost, "/translate", `{"userId":1,"medicalText":"Hypertension"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, float64(0), body["subscription"].(map[string]interface{})["remaining"])
	assert.Equal(t, int32(0), atomic.LoadInt32(&e.tr.calls))
}

func TestTranslateGatewayDownIsPartial(t *testing.T) {
	e := newEnv(t)
	e.tr.fail = true

	rec, body := e.do(t, http.MethodPost, "/translate", `{"userId":1,"medicalText":"Atrial fibrillation"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["partial"])
	assert.Contains(t, data["explanation"], "Atrial fibrillation")
	assert.Equal(t, float64(-1), data["submissionId"])
}

func TestTranslateValidation(t *testing.T) {
	e := newEnv(t)

	rec, _ := e.do(t, http.MethodPost, "/translate", `{"userId":1}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/translate", `{"medicalText":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/translate", `{"userId":1,"medicalText":"x","model":"gpt-9"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranslateTokenMismatch(t *testing.T) {
	e := newEnv(t)
	tok, err := jwt.GenerateToken(secret, 2, "test_user", time.Hour)
	require.NoError(t, err)

	rec, _ := e.do(t, http.MethodPost, "/translate", `{"userId":1,"medicalText":"x"}`, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/history?userId=1", "", tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHistoryAndModels(t *testing.T) {
	e := newEnv(t)

	rec, body := e.do(t, http.MethodGet, "/history?userId=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 3)

	rec, _ = e.do(t, http.MethodGet, "/history?userId=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = e.do(t, http.MethodGet, "/models", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 4)
}
