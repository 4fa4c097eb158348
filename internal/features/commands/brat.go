package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/features/command/models"
	commandservice "seabot/internal/features/command/service"
	"seabot/internal/features/provider"
)

type Brat struct {
	base
	deps Deps
}

func NewBrat(deps Deps) *Brat {
	return &Brat{
		base: describe("brat", "Create a brat style sticker from text", models.CategoryFun, "brat <text>", 5),
		deps: deps,
	}
}

func (b *Brat) Handle(ctx context.Context, req *commandservice.Request) error {
	if len(req.Args) == 0 {
		_, err := req.Reply(ctx, fmt.Sprintf("❌ Please provide text!\n\nUsage: %[1]sbrat <text>\nExample: %[1]sbrat hello world", req.Prefix))
		return err
	}
	text := strings.Join(req.Args, " ")

	loading, err := req.Reply(ctx, "⏳ Creating brat sticker...")
	if err != nil {
		return err
	}

	apis := b.deps.Config.APIs
	chain := provider.NewChain(b.deps.providerOptions(), req.Log,
		provider.Attempt[[]byte]{Name: "betabotz", Fetch: func(ctx context.Context) ([]byte, error) {
			return b.fetch(ctx, apis.BetaBotzURL, apis.BetaBotzKey, text)
		}},
		provider.Attempt[[]byte]{Name: "botcahx", Fetch: func(ctx context.Context) ([]byte, error) {
			return b.fetch(ctx, apis.BotCahXURL, apis.BotCahXKey, text)
		}},
	)

	res, err := chain.Run(ctx)
	if err != nil {
		return apperrors.NewExternalAPIError("brat", err)
	}

	if err := sendSticker(ctx, req, res.Value); err != nil {
		return err
	}

	if err := req.Messenger.Delete(ctx, loading); err != nil {
		req.Log.Warn().Err(err).Msg("Failed to delete loading message")
	}
	return nil
}

func (b *Brat) fetch(ctx context.Context, baseURL, key, text string) ([]byte, error) {
	return b.deps.fetchImage(ctx, baseURL+"/api/maker/brat", url.Values{
		"text":   {text},
		"apikey": {key},
	})
}
