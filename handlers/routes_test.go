package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quest-progression-system/models"
	"quest-progression-system/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("AT_SECRET", "test-access-secret")
	t.Setenv("RT_SECRET", "test-refresh-secret")
	t.Setenv("BASE_URL", "http://localhost:5200")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Quest{}, &models.SweepRun{}))

	app := fiber.New()
	SetupAuthRoutes(app, services.NewAuthService(db))
	SetupQuestRoutes(app, services.NewQuestService(db), services.NewSweepService(db))
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func registerUser(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp, body := doJSON(t, app, "POST", "/auth/register", "", map[string]string{
		"name":     "Tester",
		"email":    email,
		"password": "pw",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	tokens := body["tokens"].(map[string]interface{})
	return tokens["access_token"].(string)
}

func TestQuestRoutesFlow(t *testing.T) {
	app, _ := newTestApp(t)

	ownerToken := registerUser(t, app, "owner@example.com")
	strangerToken := registerUser(t, app, "stranger@example.com")

	t.Run("secured routes require a token", func(t *testing.T) {
		resp, _ := doJSON(t, app, "POST", "/quest/create", "", map[string]interface{}{"title": "x"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	var questID string
	t.Run("create", func(t *testing.T) {
		resp, body := doJSON(t, app, "POST", "/quest/create", ownerToken, map[string]interface{}{
			"title":         "Meditate",
			"description":   "Ten minutes of silence",
			"xp":            30,
			"stat_points":   0,
			"health_points": 0,
			"frequency":     "DAILY",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		created := body["createQuest"].(map[string]interface{})
		questID = created["id"].(string)
		assert.Equal(t, "PENDING", created["status"])
		assert.Equal(t, "meditate", created["slug"])
	})

	t.Run("create with missing rewards is a 400", func(t *testing.T) {
		resp, _ := doJSON(t, app, "POST", "/quest/create", ownerToken, map[string]interface{}{
			"title":       "Broken",
			"description": "no rewards",
			"frequency":   "ONCE",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("public read by id", func(t *testing.T) {
		resp, body := doJSON(t, app, "GET", "/quest/get-quest/"+questID, "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		fetched := body["quest"].(map[string]interface{})
		assert.Equal(t, "Meditate", fetched["title"])
	})

	t.Run("non-owner update is a 403", func(t *testing.T) {
		resp, _ := doJSON(t, app, "PUT", "/quest/update/"+questID, strangerToken, map[string]interface{}{
			"title": "hijacked",
		})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("unknown quest is a 404", func(t *testing.T) {
		resp, _ := doJSON(t, app, "PUT", "/quest/update/nope", ownerToken, map[string]interface{}{
			"title": "x",
		})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("completion returns quest and user", func(t *testing.T) {
		resp, body := doJSON(t, app, "PUT", "/quest/update-status/"+questID, ownerToken, map[string]interface{}{
			"status": "COMPLETED",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "Quest completed", body["message"])

		updatedUser := body["updatedUser"].(map[string]interface{})
		assert.EqualValues(t, 30, updatedUser["xp"])
	})

	t.Run("re-completion is a 409", func(t *testing.T) {
		resp, _ := doJSON(t, app, "PUT", "/quest/update-status/"+questID, ownerToken, map[string]interface{}{
			"status": "COMPLETED",
		})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("public listing", func(t *testing.T) {
		resp, body := doJSON(t, app, "GET", "/quest/get-quests?page=1", "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 1, body["total"])
	})

	t.Run("page out of range is a 400", func(t *testing.T) {
		resp, _ := doJSON(t, app, "GET", "/quest/get-quests?page=99", "", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("manual sweep trigger", func(t *testing.T) {
		resp, _ := doJSON(t, app, "GET", "/quest/refresh-quest", "", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestAuthRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	t.Run("duplicate registration is a 409", func(t *testing.T) {
		registerUser(t, app, "dup@example.com")
		resp, _ := doJSON(t, app, "POST", "/auth/register", "", map[string]string{
			"name": "Dup", "email": "dup@example.com", "password": "pw",
		})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("login and get-user", func(t *testing.T) {
		registerUser(t, app, "login@example.com")

		resp, body := doJSON(t, app, "POST", "/auth/login", "", map[string]string{
			"email": "login@example.com", "password": "pw",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		token := body["tokens"].(map[string]interface{})["access_token"].(string)

		resp, body = doJSON(t, app, "GET", "/auth/get-user", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "login@example.com", body["email"])
		assert.EqualValues(t, 1, body["level"])
		assert.EqualValues(t, 100, body["health"])
	})

	t.Run("bad credentials are a 400 with a generic message", func(t *testing.T) {
		resp, body := doJSON(t, app, "POST", "/auth/login", "", map[string]string{
			"email": "login@example.com", "password": "wrong",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "invalid email or password")
	})

	t.Run("update-stats without points is a 400", func(t *testing.T) {
		token := registerUser(t, app, "fresh@example.com")
		resp, _ := doJSON(t, app, "PUT", "/auth/update-stats", token, map[string]interface{}{
			"stat_strength": 1,
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
