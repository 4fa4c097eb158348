// Package commands holds the chat commands served by the bot.
package commands

import (
	"seabot/internal/common/config"
	"seabot/internal/features/command/models"
	commandservice "seabot/internal/features/command/service"
	"seabot/internal/features/media"
	"seabot/internal/features/provider"
	userservice "seabot/internal/features/user/service"

	"github.com/rs/zerolog"
)

// Deps are the collaborators shared by command handlers.
type Deps struct {
	Config   *config.Config
	Resolver *userservice.Resolver
	Ledger   *userservice.Ledger
	Commands commandservice.CommandService
	HTTP     *provider.Client
	Log      zerolog.Logger

	// Media hosts photos for maker APIs that take an image URL. Optional.
	Media *media.Store
}

func (d Deps) prefix() string {
	if len(d.Config.Bot.Prefixes) == 0 {
		return "."
	}
	return d.Config.Bot.Prefixes[0]
}

func (d Deps) providerOptions() provider.Options {
	return provider.Options{MaxTries: d.Config.APIs.MaxTries}
}

type base struct {
	desc models.Descriptor
}

func (b base) Descriptor() models.Descriptor {
	return b.desc
}

func describe(name, description string, category models.Category, usage string, cooldown int) base {
	return base{desc: models.Descriptor{
		Name:        name,
		Description: description,
		Category:    category,
		Usage:       usage,
		Cooldown:    cooldown,
		IsActive:    true,
	}}
}

// Register adds every built-in command to registry.
func Register(registry *commandservice.Registry, deps Deps) {
	registry.MustRegister(
		NewPing(),
		NewMenu(deps),
		NewProfile(deps),
		NewLimit(deps),
		NewGetLID(),
		NewLinkJID(deps),
		NewHidetag(),
		NewBrat(deps),
		NewPatrick(deps),
		NewHitamkan(deps),
		NewStalkIG(deps),
		NewStalkTT(deps),
		NewStalkML(deps),
	)
}
