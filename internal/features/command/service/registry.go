package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"seabot/internal/features/command/models"
	usermodels "seabot/internal/features/user/models"
	"seabot/internal/platform/whatsapp"

	"github.com/rs/zerolog"
)

var ErrDuplicateCommand = errors.New("command already registered")

// Request carries one parsed command invocation to its handler.
type Request struct {
	Messenger whatsapp.Messenger
	Message   whatsapp.Message
	User      *usermodels.User
	Prefix    string
	Name      string
	Args      []string
	Start     time.Time
	Log       zerolog.Logger
}

// Reply sends text to the chat the command came from.
func (r *Request) Reply(ctx context.Context, text string) (whatsapp.MessageKey, error) {
	return r.Messenger.SendText(ctx, r.Message.Chat, text)
}

// Handler implements one chat command. Handlers send their own replies;
// a returned error is reported to the user as a generic failure.
type Handler interface {
	Descriptor() models.Descriptor
	Handle(ctx context.Context, req *Request) error
}

// Registry maps lowercase command names to handlers. It is filled at
// startup and read-only afterwards.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) error {
	name := strings.ToLower(h.Descriptor().Name)
	if name == "" {
		return fmt.Errorf("command without a name: %T", h)
	}
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	r.handlers[name] = h
	return nil
}

func (r *Registry) MustRegister(handlers ...Handler) {
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Descriptors returns the built-in descriptors sorted by name.
func (r *Registry) Descriptors() []models.Descriptor {
	out := make([]models.Descriptor, 0, len(r.handlers))
	for name, h := range r.handlers {
		d := h.Descriptor()
		d.Name = name
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invocation is a parsed command line.
type Invocation struct {
	Prefix string
	Name   string
	Args   []string
}

// Parse splits text into a command invocation. The first prefix in
// prefixes that text starts with is used. Text without a known prefix or
// without a command name yields false.
func Parse(text string, prefixes []string) (Invocation, bool) {
	for _, prefix := range prefixes {
		if prefix == "" || !strings.HasPrefix(text, prefix) {
			continue
		}
		fields := strings.Fields(text[len(prefix):])
		if len(fields) == 0 {
			return Invocation{}, false
		}
		return Invocation{
			Prefix: prefix,
			Name:   strings.ToLower(fields[0]),
			Args:   fields[1:],
		}, true
	}
	return Invocation{}, false
}
