package service

import (
	"context"
	"testing"

	"seabot/internal/features/command/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var prefixes = []string{".", "!", "#", "/"}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		ok       bool
		command  string
		args     []string
		prefixes []string
	}{
		{name: "with args", text: ".ping extra args", ok: true, command: "ping", args: []string{"extra", "args"}},
		{name: "no prefix", text: "ping", ok: false},
		{name: "lowercased", text: "!PiNg", ok: true, command: "ping", args: []string{}},
		{name: "collapses whitespace", text: "#brat  hello \t world ", ok: true, command: "brat", args: []string{"hello", "world"}},
		{name: "space after prefix", text: ". menu", ok: true, command: "menu", args: []string{}},
		{name: "prefix only", text: ".", ok: false},
		{name: "empty", text: "", ok: false},
		{name: "first prefix wins", text: "!!ping", ok: true, command: "!ping", args: []string{}, prefixes: []string{"!", "!!"}},
		{name: "multi char prefix", text: "!!ping", ok: true, command: "ping", args: []string{}, prefixes: []string{"!!", "!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.prefixes
			if p == nil {
				p = prefixes
			}
			inv, ok := Parse(tt.text, p)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.command, inv.Name)
			assert.Equal(t, tt.args, inv.Args)
		})
	}
}

type stubHandler struct {
	desc models.Descriptor
	fn   func(ctx context.Context, req *Request) error
}

func (h *stubHandler) Descriptor() models.Descriptor { return h.desc }

func (h *stubHandler) Handle(ctx context.Context, req *Request) error {
	if h.fn == nil {
		return nil
	}
	return h.fn(ctx, req)
}

func stub(name string) *stubHandler {
	return &stubHandler{desc: models.Descriptor{Name: name, Category: models.CategoryGeneral, IsActive: true}}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stub("ping")))
	require.NoError(t, r.Register(stub("Menu")))

	assert.ErrorIs(t, r.Register(stub("ping")), ErrDuplicateCommand)
	assert.Error(t, r.Register(stub("")))

	h, ok := r.Lookup("menu")
	require.True(t, ok)
	assert.Equal(t, "Menu", h.Descriptor().Name)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	names := []string{}
	for _, d := range r.Descriptors() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"menu", "ping"}, names)
}
