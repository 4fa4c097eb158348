package commands

import (
	"context"
	"net/url"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/features/command/models"
	commandservice "seabot/internal/features/command/service"
	"seabot/internal/features/provider"
)

type Patrick struct {
	base
	deps Deps
}

func NewPatrick(deps Deps) *Patrick {
	return &Patrick{
		base: describe("patrick", "Send a random Patrick sticker", models.CategoryFun, "patrick", 5),
		deps: deps,
	}
}

func (p *Patrick) Handle(ctx context.Context, req *commandservice.Request) error {
	loading, err := req.Reply(ctx, "🌟 Generating Patrick sticker...")
	if err != nil {
		return err
	}

	apis := p.deps.Config.APIs
	chain := provider.NewChain(p.deps.providerOptions(), req.Log,
		provider.Attempt[[]byte]{Name: "botcahx", Fetch: func(ctx context.Context) ([]byte, error) {
			return p.deps.fetchImage(ctx, apis.BotCahXURL+"/api/sticker/patrick", url.Values{"apikey": {apis.BotCahXKey}})
		}},
		provider.Attempt[[]byte]{Name: "betabotz", Fetch: func(ctx context.Context) ([]byte, error) {
			return p.deps.fetchImage(ctx, apis.BetaBotzURL+"/api/sticker/patrick", url.Values{"apikey": {apis.BetaBotzKey}})
		}},
	)

	res, err := chain.Run(ctx)
	if delErr := req.Messenger.Delete(ctx, loading); delErr != nil {
		req.Log.Warn().Err(delErr).Msg("Failed to delete loading message")
	}
	if err != nil {
		return apperrors.NewExternalAPIError("patrick", err)
	}

	req.Log.Info().Str("provider", res.Source).Int("bytes", len(res.Value)).Msg("Patrick sticker fetched")
	return sendSticker(ctx, req, res.Value)
}
