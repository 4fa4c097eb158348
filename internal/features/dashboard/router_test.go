package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seabot/internal/common/clock"
	"seabot/internal/common/config"
	commanddelivery "seabot/internal/features/command/delivery/http"
	commandmodels "seabot/internal/features/command/models"
	commandmemory "seabot/internal/features/command/repository/memory"
	commandservice "seabot/internal/features/command/service"
	"seabot/internal/features/media"
	mediadelivery "seabot/internal/features/media/delivery/http"
	"seabot/internal/features/outbox"
	userdelivery "seabot/internal/features/user/delivery/http"
	usermodels "seabot/internal/features/user/models"
	usermemory "seabot/internal/features/user/repository/memory"
	userservice "seabot/internal/features/user/service"
	"seabot/internal/platform/redis"
)

const (
	ownerJID = "6285709557572@s.whatsapp.net"
	aliceJID = "6281111111111@s.whatsapp.net"
	bobJID   = "6282222222222@s.whatsapp.net"
)

var now = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	router   *gin.Engine
	users    *usermemory.Repository
	commands *commandmemory.Repository
	resolver *userservice.Resolver
	redis    *goredis.Client
	media    *media.Store
	ready    error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.Origin = "http://localhost:3000"
	cfg.Dashboard.Username = "admin"
	cfg.Dashboard.Password = "secret"

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		users:    usermemory.NewRepository(),
		commands: commandmemory.NewRepository(),
		redis:    client,
		media:    media.NewStore(redis.Wrap(client), "http://localhost:8080", time.Minute),
	}

	clk := clock.NewMockClock(now)
	log := zerolog.Nop()
	f.resolver = userservice.NewResolver(f.users, userservice.ResolverConfig{
		OwnerIDs:   []string{"6285709557572"},
		DailyLimit: 30,
	}, clk, log)
	ledger := userservice.NewLedger(f.users, clk, log)

	require.NoError(t, f.commands.Seed(context.Background(), []commandmodels.Descriptor{
		{Name: "ping", Category: commandmodels.CategoryGeneral, IsActive: true},
		{Name: "brat", Category: commandmodels.CategoryFun, Cooldown: 5, IsActive: true},
	}))

	stats := NewStatsService(f.users, f.commands, nil, clk, log)
	f.router = NewRouter(RouterDeps{
		Config: cfg,
		Handlers: []RouteRegistrar{
			userdelivery.NewUserHandler(userservice.NewUserService(f.users, f.resolver, ledger), log),
			commanddelivery.NewCommandHandler(commandservice.NewCommandService(f.commands, nil, log), log),
			NewHandler(stats, outbox.NewPublisher(redis.Wrap(client)), log),
		},
		Ready: map[string]Pinger{
			"postgres": func(context.Context) error { return f.ready },
		},
		Connected: func() bool { return true },
		Log:       log,
		Public: []RouteRegistrar{
			mediadelivery.NewMediaHandler(f.media, log),
		},
	})
	return f
}

func (f *fixture) resolve(t *testing.T, jid, name string) *usermodels.User {
	t.Helper()
	u, err := f.resolver.Resolve(context.Background(), jid, name)
	require.NoError(t, err)
	return u
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error.Code
}

func TestAPIRequiresCredentials(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.SetBasicAuth("admin", "wrong")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProbesArePublic(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]interface{}](t, w)["whatsapp_connected"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	f.ready = errors.New("connection refused")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "postgres unavailable", decode[map[string]interface{}](t, w)["error"])

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserEndpoints(t *testing.T) {
	f := newFixture(t)
	f.resolve(t, ownerJID, "Owner")
	alice := f.resolve(t, aliceJID, "Alice")

	w := f.do(http.MethodGet, "/api/v1/users?page=1&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[usermodels.UsersResponse](t, w)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, alice.ID, page.Items[0].ID, "newest first")

	w = f.do(http.MethodGet, "/api/v1/users/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "users.json")
	assert.Len(t, decode[[]usermodels.User](t, w), 2)

	w = f.do(http.MethodPut, "/api/v1/users/"+itoa(alice.ID), map[string]interface{}{
		"tier":       "premium",
		"limit_used": 0,
		"balance":    900,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[usermodels.User](t, w)
	assert.Equal(t, usermodels.TierPremium, updated.Tier)
	assert.Equal(t, int64(900), updated.Balance)
	assert.Equal(t, "Alice", updated.DisplayName)

	w = f.do(http.MethodPut, "/api/v1/users/"+itoa(alice.ID), map[string]interface{}{"tier": "god"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = f.do(http.MethodGet, "/api/v1/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodDelete, "/api/v1/users/"+itoa(alice.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodGet, "/api/v1/users/"+itoa(alice.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestLinkIdentifierMergesAccounts(t *testing.T) {
	f := newFixture(t)
	alice := f.resolve(t, aliceJID, "Alice")
	f.resolve(t, bobJID, "Bob")

	w := f.do(http.MethodPost, "/api/v1/users/"+itoa(alice.ID)+"/alternates", map[string]string{"identifier": bobJID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	merged := decode[usermodels.User](t, w)
	assert.Contains(t, merged.AlternateIDs, bobJID)

	n, err := f.users.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w = f.do(http.MethodPost, "/api/v1/users/"+itoa(alice.ID)+"/alternates", map[string]string{"identifier": aliceJID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/v1/users/"+itoa(alice.ID)+"/alternates", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetLimits(t *testing.T) {
	f := newFixture(t)
	alice := f.resolve(t, aliceJID, "Alice")
	require.NoError(t, f.users.IncrementLimitUsed(context.Background(), alice.ID))

	w := f.do(http.MethodPost, "/api/v1/limits/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[usermodels.ResetResponse](t, w).Reset)

	got, err := f.users.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Zero(t, got.LimitUsed)
}

func TestCommandEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/commands", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[commandmodels.CommandsResponse](t, w).Items, 2)

	w = f.do(http.MethodPut, "/api/v1/commands/BRAT", map[string]interface{}{"is_active": false, "cooldown": 60})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[commandmodels.Descriptor](t, w)
	assert.False(t, d.IsActive)
	assert.Equal(t, 60, d.Cooldown)

	w = f.do(http.MethodPut, "/api/v1/commands/brat", map[string]interface{}{"cooldown": 7200})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/api/v1/commands/nope", map[string]interface{}{"is_active": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.resolve(t, ownerJID, "Owner")
	alice := f.resolve(t, aliceJID, "Alice")
	f.resolve(t, bobJID, "Bob")

	ctx := context.Background()
	require.NoError(t, f.users.TouchLastCommand(ctx, alice.ID, now.Add(-time.Hour)))
	require.NoError(t, f.commands.RecordUsage(ctx, "ping"))
	require.NoError(t, f.commands.RecordUsage(ctx, "ping"))

	w := f.do(http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[Stats](t, w)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 1, stats.UsersByTier[usermodels.TierOwner])
	assert.Equal(t, 2, stats.UsersByTier[usermodels.TierStandard])
	assert.Equal(t, 1, stats.ActiveUsers)
	assert.Equal(t, int64(2), stats.TotalCommands)
	assert.Equal(t, int64(2), stats.CommandUsage["ping"])
}

func TestEnqueueOutbox(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/outbox", map[string]string{
		"type": "send_text",
		"chat": aliceJID,
		"text": "Maintenance at 22:00",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[outbox.Event](t, w).ID)

	n, err := f.redis.XLen(context.Background(), outbox.StreamKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	w = f.do(http.MethodPost, "/api/v1/outbox", map[string]string{"type": "send_text", "chat": aliceJID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestMediaRouteIsPublic(t *testing.T) {
	f := newFixture(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

	item, err := f.media.Put(context.Background(), png)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/"+item.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, png, w.Body.Bytes())

	require.NoError(t, f.media.Delete(context.Background(), item.ID))
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/"+item.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}
