package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/validation"
	"seabot/internal/features/command/models"
	commandservice "seabot/internal/features/command/service"
	"seabot/internal/features/provider"
)

// flexText renders a JSON scalar that some APIs send as a number and others as a string.
func flexText(raw json.RawMessage, fallback string) string {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return fallback
	}
	return s
}

// formatCount groups digits in thousands: 1234567 -> 1,234,567.
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// --- Instagram ---

type StalkIG struct {
	base
	deps Deps
}

func NewStalkIG(deps Deps) *StalkIG {
	return &StalkIG{
		base: describe("stalkig", "Look up an Instagram profile", models.CategoryUtility, "stalkig <username>", 5),
		deps: deps,
	}
}

type igCount struct {
	Count int64 `json:"count"`
}

type igUser struct {
	FullName   string  `json:"full_name"`
	Username   string  `json:"username"`
	Biography  string  `json:"biography"`
	FollowedBy igCount `json:"edge_followed_by"`
	Follow     igCount `json:"edge_follow"`
	Media      igCount `json:"edge_owner_to_timeline_media"`
	IsPrivate  bool    `json:"is_private"`
	IsVerified bool    `json:"is_verified"`
}

func (s *StalkIG) Handle(ctx context.Context, req *commandservice.Request) error {
	if len(req.Args) == 0 {
		_, err := req.Reply(ctx, fmt.Sprintf("❌ *Usage:* %[1]sstalkig <username>\n\n📋 *Example:* %[1]sstalkig not.funn_\n\n💡 Enter the Instagram username without @.", req.Prefix))
		return err
	}
	username, err := validation.NormalizeSocialUsername(req.Args[0])
	if err != nil {
		_, err := req.Reply(ctx, "❌ Invalid Instagram username!")
		return err
	}

	igURL := strings.TrimRight(s.deps.Config.APIs.InstagramURL, "/")
	chain := provider.NewChain(s.deps.providerOptions(), req.Log,
		provider.Attempt[igUser]{Name: "instagram", Fetch: func(ctx context.Context) (igUser, error) {
			var resp struct {
				GraphQL struct {
					User *igUser `json:"user"`
				} `json:"graphql"`
			}
			if err := s.deps.HTTP.GetJSON(ctx, igURL+"/"+url.PathEscape(username)+"/", url.Values{"__a": {"1"}}, &resp); err != nil {
				return igUser{}, err
			}
			if resp.GraphQL.User == nil {
				return igUser{}, fmt.Errorf("%w: no user", provider.ErrInvalidResponse)
			}
			return *resp.GraphQL.User, nil
		}},
	)

	res, err := chain.Run(ctx)
	if provider.NotFound(err) {
		_, err := req.Reply(ctx, fmt.Sprintf("❌ *Username \"%s\" was not found on Instagram.*", username))
		return err
	}
	if err != nil {
		return apperrors.NewExternalAPIError("instagram", err)
	}

	p := res.Value
	bio := p.Biography
	if bio == "" {
		bio = "No bio"
	}
	text := fmt.Sprintf(`*Name:* %s
*Username:* @%s
*Bio:* %s
*Followers:* %s
*Following:* %s
*Posts:* %s
*Private:* %s
*Verified:* %s
*Link:* https://www.instagram.com/%s/`,
		p.FullName, p.Username, bio,
		formatCount(p.FollowedBy.Count), formatCount(p.Follow.Count), formatCount(p.Media.Count),
		yesNo(p.IsPrivate), yesNo(p.IsVerified), p.Username)

	_, err = req.Reply(ctx, text)
	return err
}

// --- TikTok ---

type StalkTT struct {
	base
	deps Deps
}

func NewStalkTT(deps Deps) *StalkTT {
	return &StalkTT{
		base: describe("stalktt", "Look up a TikTok profile", models.CategoryUtility, "stalktt <username>", 5),
		deps: deps,
	}
}

type ttProfile struct {
	Username    string          `json:"username"`
	Description string          `json:"description"`
	Likes       json.RawMessage `json:"likes"`
	Followers   json.RawMessage `json:"followers"`
	Following   json.RawMessage `json:"following"`
	TotalPosts  json.RawMessage `json:"totalPosts"`
	Profile     string          `json:"profile"`
}

type ttResponse struct {
	Code   int        `json:"code"`
	Status bool       `json:"status"`
	Result *ttProfile `json:"result"`
}

func (s *StalkTT) Handle(ctx context.Context, req *commandservice.Request) error {
	if len(req.Args) == 0 {
		_, err := req.Reply(ctx, fmt.Sprintf("❌ *Usage:* %[1]sstalktt <username>\n\n📋 *Example:* %[1]sstalktt whttss\n\n💡 Enter the TikTok username without @.", req.Prefix))
		return err
	}
	username, err := validation.NormalizeSocialUsername(req.Args[0])
	if err != nil {
		_, err := req.Reply(ctx, "❌ Invalid TikTok username! Use letters, digits, dots and underscores only.")
		return err
	}

	if _, err := req.Reply(ctx, "🔍 Looking up TikTok user..."); err != nil {
		return err
	}

	apis := s.deps.Config.APIs
	lookup := func(baseURL, key string, valid func(ttResponse) bool) func(context.Context) (*ttProfile, error) {
		return func(ctx context.Context) (*ttProfile, error) {
			var resp ttResponse
			err := s.deps.HTTP.GetJSON(ctx, baseURL+"/api/stalk/tt", url.Values{"username": {username}, "apikey": {key}}, &resp)
			if err != nil {
				return nil, err
			}
			if resp.Result == nil || !valid(resp) {
				return nil, fmt.Errorf("%w: no profile", provider.ErrInvalidResponse)
			}
			return resp.Result, nil
		}
	}

	chain := provider.NewChain(s.deps.providerOptions(), req.Log,
		provider.Attempt[*ttProfile]{Name: "betabotz", Fetch: lookup(apis.BetaBotzURL, apis.BetaBotzKey,
			func(r ttResponse) bool { return r.Code == 200 })},
		provider.Attempt[*ttProfile]{Name: "botcahx", Fetch: lookup(apis.BotCahXURL, apis.BotCahXKey,
			func(r ttResponse) bool { return r.Status })},
	)

	res, err := chain.Run(ctx)
	if err != nil {
		return apperrors.NewExternalAPIError("tiktok", err)
	}
	req.Log.Debug().Str("source", res.Source).Msg("TikTok profile found")

	p := res.Value
	name := p.Username
	if name == "" {
		name = "Unknown"
	}
	desc := p.Description
	if desc == "" {
		desc = "No description"
	}
	text := fmt.Sprintf(`🎵 *TIKTOK PROFILE INFO*

👤 *Username:* %s
📝 *Description:* %s
❤️ *Likes:* %s
👥 *Followers:* %s
➕ *Following:* %s
📱 *Total Posts:* %s

🔗 *Profile:* https://tiktok.com/@%s`,
		name, desc,
		flexText(p.Likes, "0"), flexText(p.Followers, "0"), flexText(p.Following, "0"), flexText(p.TotalPosts, "0"),
		username)

	if p.Profile != "" {
		img, mimeType, err := s.deps.HTTP.GetBytes(ctx, p.Profile, nil)
		if err == nil {
			if mimeType == "" {
				mimeType = "image/jpeg"
			}
			if _, err = req.Messenger.SendImage(ctx, req.Message.Chat, img, mimeType, text); err == nil {
				return nil
			}
		}
		req.Log.Warn().Err(err).Msg("Failed to send profile picture, sending text")
	}

	_, err = req.Reply(ctx, text)
	return err
}

// --- Mobile Legends ---

type StalkML struct {
	base
	deps Deps
}

func NewStalkML(deps Deps) *StalkML {
	return &StalkML{
		base: describe("stalkml", "Look up a Mobile Legends player", models.CategoryUtility, "stalkml <id> <server>", 5),
		deps: deps,
	}
}

type mlStalkInfo struct {
	StalkData string          `json:"stalk_data"`
	UserID    json.RawMessage `json:"user_id"`
	Region    json.RawMessage `json:"region"`
}

type mlResponse struct {
	Status bool `json:"status"`
	Result *struct {
		Success bool `json:"success"`
		Data    *struct {
			StalkInfo *mlStalkInfo `json:"stalk_info"`
		} `json:"data"`
	} `json:"result"`
}

type mlPlayer struct {
	Nickname string
	UserID   string
	Server   string
	Country  string
}

func parseMLPlayer(info *mlStalkInfo, userID, serverID string) mlPlayer {
	p := mlPlayer{
		Nickname: "Unknown",
		UserID:   flexText(info.UserID, userID),
		Server:   flexText(info.Region, serverID),
		Country:  "Unknown",
	}
	for _, line := range strings.Split(info.StalkData, "\n") {
		if _, v, ok := strings.Cut(line, "In-Game Nickname: "); ok && v != "" {
			p.Nickname = strings.TrimSpace(v)
		}
		if _, v, ok := strings.Cut(line, "Country: "); ok && v != "" {
			p.Country = strings.TrimSpace(v)
		}
	}
	return p
}

func (s *StalkML) Handle(ctx context.Context, req *commandservice.Request) error {
	if len(req.Args) < 2 {
		_, err := req.Reply(ctx, fmt.Sprintf(`❌ *Usage:* %[1]sstalkml <id> <server>

📌 *Example:* %[1]sstalkml 268046855 9408

💡 Enter your Mobile Legends user ID and server ID.`, req.Prefix))
		return err
	}

	userID, serverID := req.Args[0], req.Args[1]
	if err := validation.ValidateGameAccount(userID, serverID); err != nil {
		_, err := req.Reply(ctx, "❌ User ID and Server ID must be numbers!")
		return err
	}

	if _, err := req.Reply(ctx, "🔍 Looking up Mobile Legends player..."); err != nil {
		return err
	}

	apis := s.deps.Config.APIs
	lookup := func(baseURL, key string, requireStatus bool) func(context.Context) (mlPlayer, error) {
		return func(ctx context.Context) (mlPlayer, error) {
			var resp mlResponse
			err := s.deps.HTTP.GetJSON(ctx, baseURL+"/api/stalk/ml-v2", url.Values{
				"apikey": {key},
				"id":     {userID},
				"server": {serverID},
			}, &resp)
			if err != nil {
				return mlPlayer{}, err
			}
			if (requireStatus && !resp.Status) || resp.Result == nil || !resp.Result.Success ||
				resp.Result.Data == nil || resp.Result.Data.StalkInfo == nil {
				return mlPlayer{}, fmt.Errorf("%w: player not found", provider.ErrInvalidResponse)
			}
			return parseMLPlayer(resp.Result.Data.StalkInfo, userID, serverID), nil
		}
	}

	chain := provider.NewChain(s.deps.providerOptions(), req.Log,
		provider.Attempt[mlPlayer]{Name: "betabotz", Fetch: lookup(apis.BetaBotzURL, apis.BetaBotzKey, false)},
		provider.Attempt[mlPlayer]{Name: "botcahx", Fetch: lookup(apis.BotCahXURL, apis.BotCahXKey, true)},
	)

	res, err := chain.Run(ctx)
	if err != nil {
		return apperrors.NewExternalAPIError("mobile-legends", err)
	}

	p := res.Value
	text := fmt.Sprintf(`🎮 *MOBILE LEGENDS PLAYER INFO*

👤 *Nickname:* %s
🆔 *User ID:* %s
🌐 *Server ID:* %s
🌍 *Country:* %s`, p.Nickname, p.UserID, p.Server, p.Country)

	_, err = req.Reply(ctx, text)
	return err
}
