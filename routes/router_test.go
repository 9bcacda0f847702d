package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/moodstreak/config"
	"github.com/cppla/moodstreak/models"
	"github.com/cppla/moodstreak/services"
	"github.com/cppla/moodstreak/utils"
)

const testSecret = "router-test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := config.AppConfig{
		JWTSecret:          testSecret,
		RateLimitPerMinute: 600,
		AllowedOrigins:     []string{"*"},
		GinMode:            "test",
		GinPath:            filepath.Join(t.TempDir(), "gin.log"),
		DBDriver:           "sqlite",
		DBPath:             "file:" + name + "?mode=memory&cache=shared",
		LogLevel:           "silent",
		Timezone:           "UTC",
	}
	db, err := config.OpenDatabase(cfg, &models.CheckInStreak{}, &models.Badge{}, &models.UserBadge{})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	bus := services.NewEventBus(nil)
	badges := services.NewGormBadgeStore(db)
	catalog := services.NewBadgeCatalog(badges, nil, nil)
	_, err = catalog.InitializeCatalog(context.Background())
	require.NoError(t, err)
	awards := services.NewAwardEngine(catalog, badges, nil)
	aggregator := services.NewAchievementAggregator(awards, nil)
	aggregator.Attach(bus)

	r := SetupRouter(cfg, Deps{
		Streaks:    services.NewStreakEngine(services.NewGormStreakStore(db), bus, services.NewBusNotifier(bus, nil), time.UTC, nil),
		Catalog:    catalog,
		Awards:     awards,
		Aggregator: aggregator,
		Bus:        bus,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := utils.GenerateToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return tok
}

func call(t *testing.T, method, url, tok string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, body := call(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)

	resp, body = call(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "moodstreak_http_requests_total")
}

func TestRouter_AuthRequired(t *testing.T) {
	srv := newTestServer(t)

	resp, body := call(t, http.MethodGet, srv.URL+"/api/v1/streaks", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "40101")

	resp, _ = call(t, http.MethodGet, srv.URL+"/api/v1/streaks", "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	bad, err := utils.GenerateToken("other-secret", "u1", time.Hour)
	require.NoError(t, err)
	resp, _ = call(t, http.MethodGet, srv.URL+"/api/v1/streaks", bad)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = call(t, http.MethodGet, srv.URL+"/api/v1/streaks", token(t, "u1"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_PublicCatalog(t *testing.T) {
	srv := newTestServer(t)

	resp, body := call(t, http.MethodGet, srv.URL+"/api/v1/badges", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, services.WelcomeBadge)

	resp, _ = call(t, http.MethodGet, srv.URL+"/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_EventStreamDeliversOwnEvents(t *testing.T) {
	srv := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/events?access_token=" + token(t, "u1")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// another user's check-in must not reach u1
	resp, _ := call(t, http.MethodPost, srv.URL+"/api/v1/streaks/evening/check-in", token(t, "u2"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = call(t, http.MethodPost, srv.URL+"/api/v1/streaks/morning/check-in", token(t, "u1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt services.Event
	require.NoError(t, json.Unmarshal(raw, &evt))
	assert.Equal(t, services.EventStreakUpdated, evt.Type)
	assert.Equal(t, "u1", evt.UserID)
	require.NotNil(t, evt.Streak)
	assert.Equal(t, models.PeriodMorning, evt.Streak.Period)
	assert.True(t, evt.Streak.IsFirstCheckIn)
}
