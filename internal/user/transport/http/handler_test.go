package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	subrepo "github.com/Deehands24/laymen-terms/internal/subscription/repository"
	tokenrepo "github.com/Deehands24/laymen-terms/internal/token/repository"
	"github.com/Deehands24/laymen-terms/internal/user/repository"
	"github.com/Deehands24/laymen-terms/internal/user/service"
	"github.com/Deehands24/laymen-terms/pkg/hash"
	"github.com/Deehands24/laymen-terms/pkg/middleware"
)

const secret = "handler-secret"

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	hash.Cost = bcrypt.MinCost

	users, err := repository.NewStaticUserRepository()
	require.NoError(t, err)
	svc := service.NewUserService(users, tokenrepo.NewStaticRefreshTokenRepository(),
		subrepo.NewStaticSubscriptionRepository(), secret, time.Hour, nil)
	h := NewHandler(svc, false, nil)

	r := chi.NewRouter()
	r.Post("/auth", h.Auth)
	r.Post("/auth/refresh", h.Refresh)
	r.With(middleware.JWTAuth(secret)).Get("/auth/me", h.Me)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRegisterAndLogin(t *testing.T) {
	r := newRouter(t)

	rec, body := do(t, r, http.MethodPost, "/auth", `{"action":"register","username":"carol","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "carol", data["username"])

	rec, _ = do(t, r, http.MethodPost, "/auth", `{"action":"register","username":"carol","password":"secret123"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/auth", `{"action":"login","username":"carol","password":"badpassword"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = do(t, r, http.MethodPost, "/auth", `{"action":"login","username":"carol","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data = body["data"].(map[string]interface{})
	accessToken := data["token"].(string)
	refreshToken := data["refreshToken"].(string)
	assert.NotEmpty(t, accessToken)

	rec, body = do(t, r, http.MethodGet, "/auth/me", "", accessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "carol", body["data"].(map[string]interface{})["username"])

	rec, _ = do(t, r, http.MethodPost, "/auth/refresh", `{"refreshToken":"`+refreshToken+`"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/auth/refresh", `{"refreshToken":"`+refreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsBadInput(t *testing.T) {
	r := newRouter(t)

	rec, _ := do(t, r, http.MethodPost, "/auth", `{"action":"delete","username":"carol","password":"secret123"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/auth", `{"action":"login","username":"","password":""}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/auth", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeRequiresToken(t *testing.T) {
	r := newRouter(t)

	rec, _ := do(t, r, http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, r, http.MethodGet, "/auth/me", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
