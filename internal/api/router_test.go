package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskhub/internal/api"
	"github.com/charlesng35/taskhub/internal/auth"
	"github.com/charlesng35/taskhub/internal/database/testutil"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Count int `json:"count"`
	} `json:"meta"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	jwtService, err := auth.NewJWTService("router-test-secret")
	require.NoError(t, err)

	router, err := api.NewRouter(db, jwtService, api.Config{
		AuthRateLimit:  1000,
		AuthRateWindow: time.Minute,
	})
	require.NoError(t, err)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func registerUser(t *testing.T, router *gin.Engine, email string) (token, userID string) {
	t.Helper()

	rec, env := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":      email,
		"password":   "s3cret-pass",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token, data.User.ID
}

func createTeam(t *testing.T, router *gin.Engine, token, name string) string {
	t.Helper()

	rec, env := doJSON(t, router, http.MethodPost, "/api/teams", token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var team struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &team))
	return team.ID
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t)

	token, _ := registerUser(t, router, "flow@example.com")

	t.Run("login", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
			"email":    "flow@example.com",
			"password": "s3cret-pass",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, env.Success)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
			"email":    "flow@example.com",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, env.Success)
		require.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
	})

	t.Run("me", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, env.Success)

		var user struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &user))
		require.Equal(t, "flow@example.com", user.Email)
		require.Empty(t, user.Password, "password hash never leaves the API")
	})

	t.Run("me without token", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/api/auth/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "UNAUTHORIZED", env.Error.Code)
	})

	t.Run("register with invalid email", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
			"email":      "not-an-email",
			"password":   "s3cret-pass",
			"first_name": "X",
			"last_name":  "Y",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "BAD_REQUEST", env.Error.Code)
	})
}

func TestTeamEndpoints(t *testing.T) {
	router := newTestRouter(t)

	adminToken, _ := registerUser(t, router, "admin@example.com")
	memberToken, memberID := registerUser(t, router, "member@example.com")
	outsiderToken, _ := registerUser(t, router, "outsider@example.com")

	teamID := createTeam(t, router, adminToken, "Platform")

	t.Run("list includes meta count", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/api/teams", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, env.Meta)
		require.Equal(t, 1, env.Meta.Count)
	})

	t.Run("outsider get returns 404", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/api/teams/"+teamID, outsiderToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "TEAM_NOT_FOUND", env.Error.Code)
	})

	t.Run("add member", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/teams/%s/members", teamID), adminToken, gin.H{
			"email": "member@example.com",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("duplicate member conflicts", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/teams/%s/members", teamID), adminToken, gin.H{
			"email": "member@example.com",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "TEAM_MEMBER_EXISTS", env.Error.Code)
	})

	t.Run("member cannot add members", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/teams/%s/members", teamID), memberToken, gin.H{
			"email": "outsider@example.com",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "FORBIDDEN", env.Error.Code)
	})

	t.Run("remove member", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/teams/%s/members/%s", teamID, memberID), adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("last admin self-removal conflicts", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/api/auth/me", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var me struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &me))

		rec, env = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/teams/%s/members/%s", teamID, me.ID), adminToken, nil)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "TEAM_LAST_ADMIN", env.Error.Code)
	})
}

func TestTaskEndpoints(t *testing.T) {
	router := newTestRouter(t)

	token, _ := registerUser(t, router, "dev@example.com")
	outsiderToken, _ := registerUser(t, router, "outsider@example.com")
	teamID := createTeam(t, router, token, "Platform")

	rec, env := doJSON(t, router, http.MethodPost, "/api/tasks", token, gin.H{
		"title":   "Ship it",
		"team_id": teamID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var task struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Priority string `json:"priority"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &task))
	require.Equal(t, "todo", task.Status)
	require.Equal(t, "medium", task.Priority)

	t.Run("partial update leaves absent fields alone", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPut, "/api/tasks/"+task.ID, token, gin.H{
			"status": "done",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &updated))
		require.Equal(t, "done", updated.Status)
		require.Equal(t, "Ship it", updated.Title)
	})

	t.Run("explicit null clears nullable field", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPut, "/api/tasks/"+task.ID, token, gin.H{
			"due_date": "2026-09-15T12:00:00Z",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, env := doJSON(t, router, http.MethodPut, "/api/tasks/"+task.ID, token, map[string]any{
			"due_date": nil,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated struct {
			DueDate *time.Time `json:"due_date"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &updated))
		require.Nil(t, updated.DueDate)
	})

	t.Run("empty body rejected", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPut, "/api/tasks/"+task.ID, token, gin.H{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "BAD_REQUEST", env.Error.Code)
	})

	t.Run("outsider sees 404", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodGet, "/api/tasks/"+task.ID, outsiderToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "TASK_NOT_FOUND", env.Error.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodDelete, "/api/tasks/"+task.ID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, env := doJSON(t, router, http.MethodGet, "/api/tasks/"+task.ID, token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "TASK_NOT_FOUND", env.Error.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)
}
