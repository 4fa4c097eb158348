package bot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"seabot/internal/common/clock"
	apperrors "seabot/internal/common/errors"
	"seabot/internal/features/command/models"
	commandmemory "seabot/internal/features/command/repository/memory"
	commandservice "seabot/internal/features/command/service"
	"seabot/internal/features/gate"
	usermodels "seabot/internal/features/user/models"
	usermemory "seabot/internal/features/user/repository/memory"
	userservice "seabot/internal/features/user/service"
	"seabot/internal/platform/whatsapp"
	"seabot/internal/platform/whatsapp/whatsapptest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerNumber = "6285709557572"
	ownerJID    = ownerNumber + "@s.whatsapp.net"
	aliceJID    = "6281111111111@s.whatsapp.net"
	groupJID    = "120363025246125888@g.us"
)

var testNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

type countingHandler struct {
	desc    models.Descriptor
	calls   atomic.Int32
	started atomic.Int64
	err     error
}

func (h *countingHandler) Descriptor() models.Descriptor { return h.desc }

func (h *countingHandler) Handle(ctx context.Context, req *commandservice.Request) error {
	h.calls.Add(1)
	h.started.Store(req.Start.UnixNano())
	if h.err != nil {
		return h.err
	}
	_, err := req.Reply(ctx, "ok "+req.Name)
	return err
}

type harness struct {
	pipeline  *Pipeline
	messenger *whatsapptest.Messenger
	users     *usermemory.Repository
	clock     *clock.MockClock
	echo      *countingHandler
	broken    *countingHandler
	admin     *countingHandler
	off       *countingHandler
	commands  commandservice.CommandService
}

type options struct {
	dailyLimit int
	perMinute  int
}

func newHarness(t *testing.T, opts options) *harness {
	t.Helper()
	if opts.dailyLimit == 0 {
		opts.dailyLimit = 30
	}
	if opts.perMinute == 0 {
		opts.perMinute = 20
	}

	clk := clock.NewMockClock(testNow)
	users := usermemory.NewRepository()
	resolver := userservice.NewResolver(users, userservice.ResolverConfig{
		OwnerIDs:       []string{ownerNumber},
		DailyLimit:     opts.dailyLimit,
		DefaultBalance: 50,
		DefaultBonus:   100,
	}, clk, zerolog.Nop())

	h := &harness{
		messenger: whatsapptest.New(),
		users:     users,
		clock:     clk,
		echo:      &countingHandler{desc: models.Descriptor{Name: "echo", IsActive: true}},
		broken:    &countingHandler{desc: models.Descriptor{Name: "broken", IsActive: true}, err: errors.New("boom")},
		admin:     &countingHandler{desc: models.Descriptor{Name: "admin", IsActive: true, OwnerOnly: true}},
		off:       &countingHandler{desc: models.Descriptor{Name: "off", IsActive: false}},
		commands:  commandservice.NewCommandService(commandmemory.NewRepository(), nil, zerolog.Nop()),
	}

	registry := commandservice.NewRegistry()
	registry.MustRegister(h.echo, h.broken, h.admin, h.off)
	require.NoError(t, h.commands.Seed(context.Background(), registry))

	h.pipeline = NewPipeline(Deps{
		Prefixes: []string{".", "!"},
		Users:    users,
		Resolver: resolver,
		Ledger:   userservice.NewLedger(users, clk, zerolog.Nop()),
		Gate: gate.New(gate.NewMemoryStore(), gate.Config{
			Cooldown:    2 * time.Second,
			PerMinute:   opts.perMinute,
			PerHour:     1000,
			BanDuration: time.Hour,
		}, clk, zerolog.Nop()),
		Registry:   registry,
		Commands:   h.commands,
		Dispatcher: commandservice.NewDispatcher(time.Second, zerolog.Nop()),
		Messenger:  h.messenger,
		Clock:      clk,
		Log:        zerolog.Nop(),
	})
	return h
}

func (h *harness) send(t *testing.T, sender, text string) error {
	t.Helper()
	return h.pipeline.Handle(context.Background(), whatsapp.Message{
		ID: "IN", Chat: sender, Sender: sender, PushName: "Alice", Text: text,
	})
}

func (h *harness) user(t *testing.T, primaryID string) *usermodels.User {
	t.Helper()
	u, err := h.users.GetByPrimaryID(context.Background(), primaryID)
	require.NoError(t, err)
	return u
}

func TestOwnerFirstMessage(t *testing.T) {
	h := newHarness(t, options{})
	require.NoError(t, h.send(t, ownerJID, "hello"))

	u := h.user(t, ownerJID)
	assert.Equal(t, usermodels.TierOwner, u.Tier)
	assert.Equal(t, int64(50), u.Balance)
	assert.Empty(t, u.AlternateIDs)
	assert.Empty(t, h.messenger.Sent(), "plain text is not a command")
}

func TestIgnoresOwnAndEmptyMessages(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	require.NoError(t, h.pipeline.Handle(ctx, whatsapp.Message{Chat: aliceJID, Sender: aliceJID, Text: ".echo", IsFromMe: true}))
	require.NoError(t, h.pipeline.Handle(ctx, whatsapp.Message{Chat: aliceJID, Sender: aliceJID, Text: "   "}))

	_, err := h.users.GetByPrimaryID(ctx, aliceJID)
	assert.Error(t, err, "no user is created")
	assert.Zero(t, h.echo.calls.Load())
}

func TestDispatchUsesLimitAndTouchesCooldown(t *testing.T) {
	h := newHarness(t, options{})
	require.NoError(t, h.send(t, aliceJID, ".ECHO some args"))

	assert.Equal(t, []string{"ok echo"}, h.messenger.Texts())
	u := h.user(t, aliceJID)
	assert.Equal(t, 1, u.LimitUsed)
	require.NotNil(t, u.LastCommandAt)
	assert.True(t, u.LastCommandAt.Equal(testNow))

	resp, err := h.commands.ListCommands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
}

func TestCooldownRejectsSecondCommand(t *testing.T) {
	h := newHarness(t, options{})
	require.NoError(t, h.send(t, aliceJID, ".echo"))

	h.clock.Advance(time.Second)
	err := h.send(t, aliceJID, ".echo")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCooldown))
	assert.Equal(t, []string{"ok echo", cooldownNotice}, h.messenger.Texts())
	assert.Equal(t, int32(1), h.echo.calls.Load())
	assert.Equal(t, 1, h.user(t, aliceJID).LimitUsed)

	h.clock.Advance(time.Second)
	require.NoError(t, h.send(t, aliceJID, ".echo"))
	assert.Equal(t, int32(2), h.echo.calls.Load())
}

func TestQuotaExhausted(t *testing.T) {
	h := newHarness(t, options{dailyLimit: 2})
	for i := 0; i < 2; i++ {
		require.NoError(t, h.send(t, aliceJID, ".echo"))
		h.clock.Advance(3 * time.Second)
	}

	err := h.send(t, aliceJID, ".echo")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeQuotaExceeded))
	assert.Equal(t, quotaNotice, h.messenger.Texts()[2])
	assert.Equal(t, int32(2), h.echo.calls.Load())

	// a day later the rolling reset lets the user in again
	h.clock.Advance(24 * time.Hour)
	require.NoError(t, h.send(t, aliceJID, ".echo"))
	assert.Equal(t, 1, h.user(t, aliceJID).LimitUsed)
}

func TestOwnerNeverUsesLimit(t *testing.T) {
	h := newHarness(t, options{dailyLimit: 1})
	for i := 0; i < 3; i++ {
		require.NoError(t, h.send(t, ownerJID, ".echo"))
		h.clock.Advance(3 * time.Second)
	}
	assert.Equal(t, 0, h.user(t, ownerJID).LimitUsed)
	assert.Equal(t, int32(3), h.echo.calls.Load())
}

func TestHandlerErrorIsIsolated(t *testing.T) {
	h := newHarness(t, options{})

	err := h.send(t, aliceJID, ".broken")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeHandlerError))
	assert.Equal(t, []string{commandservice.FailureNotice}, h.messenger.Texts())
	assert.Equal(t, 0, h.user(t, aliceJID).LimitUsed, "failed commands do not use quota")

	h.clock.Advance(3 * time.Second)
	require.NoError(t, h.send(t, aliceJID, ".echo"))
}

func TestSilentRejections(t *testing.T) {
	h := newHarness(t, options{})

	assert.True(t, apperrors.HasCode(h.send(t, aliceJID, ".nope"), apperrors.ErrCodeUnknownCommand))
	assert.True(t, apperrors.HasCode(h.send(t, aliceJID, ".off"), apperrors.ErrCodeCommandDisabled))
	assert.NoError(t, h.send(t, aliceJID, "echo without prefix"))

	assert.Empty(t, h.messenger.Sent())
	assert.Zero(t, h.off.calls.Load())
}

func TestDisabledAtRuntime(t *testing.T) {
	h := newHarness(t, options{})
	off := false
	_, err := h.commands.UpdateCommand(context.Background(), "echo", models.DescriptorUpdate{IsActive: &off})
	require.NoError(t, err)

	assert.True(t, apperrors.HasCode(h.send(t, aliceJID, ".echo"), apperrors.ErrCodeCommandDisabled))
	assert.Zero(t, h.echo.calls.Load())
}

func TestOwnerOnly(t *testing.T) {
	h := newHarness(t, options{})

	err := h.send(t, aliceJID, ".admin")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeOwnerOnly))
	assert.Equal(t, []string{ownerOnlyNotice}, h.messenger.Texts())

	require.NoError(t, h.send(t, ownerJID, ".admin"))
	assert.Equal(t, int32(1), h.admin.calls.Load())
}

func TestRateLimitBanIsSilent(t *testing.T) {
	h := newHarness(t, options{perMinute: 3})

	for i := 0; i < 3; i++ {
		h.clock.Advance(3 * time.Second)
		require.NoError(t, h.send(t, aliceJID, ".echo"))
	}
	h.messenger.Reset()

	h.clock.Advance(3 * time.Second)
	err := h.send(t, aliceJID, ".echo")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRateLimited))

	h.clock.Advance(10 * time.Minute)
	err = h.send(t, aliceJID, ".echo")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRateLimited), "still banned")

	assert.Empty(t, h.messenger.Sent())
	assert.Equal(t, int32(3), h.echo.calls.Load())
}

func TestResolutionFailureIsSilent(t *testing.T) {
	h := newHarness(t, options{})
	h.users.Err = errors.New("database down")

	err := h.send(t, aliceJID, ".echo")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeResolutionFailure))
	assert.Empty(t, h.messenger.Sent())
	assert.Zero(t, h.echo.calls.Load())
}

func TestGroupMessageResolvesParticipant(t *testing.T) {
	h := newHarness(t, options{})
	err := h.pipeline.Handle(context.Background(), whatsapp.Message{
		Chat: groupJID, Sender: "6281111111111:7@s.whatsapp.net", IsGroup: true, Text: "!echo",
	})
	require.NoError(t, err)

	u := h.user(t, aliceJID)
	assert.Equal(t, 1, u.LimitUsed)
	sent := h.messenger.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, groupJID, sent[0].Key.Chat)
}

func TestSenderAltLinksAccounts(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	require.NoError(t, h.send(t, aliceJID, ".echo"))
	h.clock.Advance(3 * time.Second)

	lid := "99887766@lid"
	require.NoError(t, h.pipeline.Handle(ctx, whatsapp.Message{
		Chat: lid, Sender: lid, SenderAlt: aliceJID, PushName: "Alice", Text: ".echo",
	}))

	u := h.user(t, aliceJID)
	assert.Contains(t, u.AlternateIDs, lid)
	assert.Equal(t, 2, u.LimitUsed, "usage lands on the original account")

	_, err := h.users.GetByPrimaryID(ctx, lid)
	assert.Error(t, err, "temporary account was merged away")
}

func TestSenderAltKeepsOwnerAccount(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	lid := "99887766@lid"
	require.NoError(t, h.send(t, lid, "hi"))
	require.NoError(t, h.send(t, ownerJID, "hi"))

	require.NoError(t, h.pipeline.Handle(ctx, whatsapp.Message{
		Chat: lid, Sender: lid, SenderAlt: ownerJID, PushName: "Owner", Text: ".admin",
	}))
	assert.Equal(t, int32(1), h.admin.calls.Load(), "owner command runs from the hidden id")

	owner := h.user(t, ownerJID)
	assert.Equal(t, usermodels.TierOwner, owner.Tier)
	assert.Contains(t, owner.AlternateIDs, lid)
	assert.Zero(t, owner.LimitUsed)

	_, err := h.users.GetByPrimaryID(ctx, lid)
	assert.Error(t, err, "standard account was merged into the owner")
}

func TestRequestStartUsesClock(t *testing.T) {
	h := newHarness(t, options{})

	require.NoError(t, h.send(t, aliceJID, ".echo"))
	assert.Equal(t, testNow.UnixNano(), h.echo.started.Load())
}

func TestSubmitAfterShutdownIsDropped(t *testing.T) {
	h := newHarness(t, options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.pipeline.Submit(ctx, whatsapp.Message{Chat: aliceJID, Sender: aliceJID, Text: ".echo"})
	h.pipeline.Wait()

	h.pipeline.Submit(context.Background(), whatsapp.Message{Chat: aliceJID, Sender: aliceJID, Text: ".echo"})
	h.pipeline.Wait()

	assert.Zero(t, h.echo.calls.Load())
	assert.Empty(t, h.messenger.Sent())
}

func TestSubmitHandlesConcurrently(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		jid := fmt.Sprintf("62812000000%02d@s.whatsapp.net", i)
		h.pipeline.Submit(ctx, whatsapp.Message{Chat: jid, Sender: jid, Text: ".echo"})
	}
	h.pipeline.Wait()

	assert.Equal(t, int32(10), h.echo.calls.Load())
	assert.Len(t, h.messenger.Sent(), 10)
}

func TestAnnounceOnline(t *testing.T) {
	m := whatsapptest.New()
	AnnounceOnline(context.Background(), m, "SeaBot", []string{ownerNumber, "123@g.us"}, zerolog.Nop())

	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, ownerJID, sent[0].Key.Chat)
	assert.Contains(t, sent[0].Text, "SeaBot is online")
}
