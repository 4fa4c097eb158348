package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/features/command/models"
	commandservice "seabot/internal/features/command/service"
	"seabot/internal/features/provider"
)

var errMediaDisabled = errors.New("media hosting is not configured")

type Hitamkan struct {
	base
	deps Deps
}

func NewHitamkan(deps Deps) *Hitamkan {
	return &Hitamkan{
		base: describe("hitamkan", "Darken the skin tone in a photo", models.CategoryFun, "hitamkan", 10),
		deps: deps,
	}
}

// Handle hosts the attached or quoted photo, hands its URL to the maker
// APIs and sends back their result.
func (h *Hitamkan) Handle(ctx context.Context, req *commandservice.Request) error {
	if req.Message.Image == nil {
		_, err := req.Reply(ctx, fmt.Sprintf(`❌ *Usage:* %[1]shitamkan

📋 *Methods:*
1. Send a photo with the caption %[1]shitamkan
2. Reply to a photo with %[1]shitamkan`, req.Prefix))
		return err
	}
	if h.deps.Media == nil {
		return apperrors.NewExternalAPIError("hitamkan", errMediaDisabled)
	}

	data, err := req.Messenger.DownloadImage(ctx, req.Message)
	if err != nil {
		return err
	}

	item, err := h.deps.Media.Put(ctx, data)
	if err != nil {
		return err
	}
	defer func() {
		if err := h.deps.Media.Delete(context.WithoutCancel(ctx), item.ID); err != nil {
			req.Log.Warn().Err(err).Msg("Failed to delete hosted image")
		}
	}()

	if _, err := req.Reply(ctx, "🎨 Processing image..."); err != nil {
		return err
	}

	apis := h.deps.Config.APIs
	maker := func(baseURL, key, effect string) func(context.Context) ([]byte, error) {
		return func(ctx context.Context) ([]byte, error) {
			return h.deps.fetchImage(ctx, baseURL+"/api/maker/"+effect, url.Values{
				"url":    {item.URL},
				"apikey": {key},
			})
		}
	}
	chain := provider.NewChain(h.deps.providerOptions(), req.Log,
		provider.Attempt[[]byte]{Name: "betabotz", Fetch: maker(apis.BetaBotzURL, apis.BetaBotzKey, "jadihitam")},
		provider.Attempt[[]byte]{Name: "botcahx", Fetch: maker(apis.BotCahXURL, apis.BotCahXKey, "jadihitam")},
		provider.Attempt[[]byte]{Name: "betabotz-blackpink", Fetch: maker(apis.BetaBotzURL, apis.BetaBotzKey, "blackpink")},
	)

	res, err := chain.Run(ctx)
	if err != nil {
		return apperrors.NewExternalAPIError("hitamkan", err)
	}

	caption := fmt.Sprintf("🎨 *IMAGE DARKENED*\n\n✅ *Processed by:* %s", res.Source)
	_, err = req.Messenger.SendImage(ctx, req.Message.Chat, res.Value, mimeOf(res.Value), caption)
	return err
}
