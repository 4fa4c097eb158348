package commands

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	commandservice "seabot/internal/features/command/service"
	"seabot/internal/features/provider"

	"github.com/gabriel-vasile/mimetype"
)

type makerResponse struct {
	Status  *bool           `json:"status"`
	Result  json.RawMessage `json:"result"`
	URL     string          `json:"url"`
	Message string          `json:"message"`
}

// fetchImage calls a maker endpoint, which answers either with the image
// itself or with JSON carrying an image URL or a base64 payload.
func (d Deps) fetchImage(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	data, _, err := d.HTTP.GetBytes(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	mime := mimetype.Detect(data)
	if strings.HasPrefix(mime.String(), "image/") {
		return data, nil
	}
	if !mime.Is("application/json") {
		return nil, fmt.Errorf("%w: unexpected content %s", provider.ErrInvalidResponse, mime.String())
	}

	var resp makerResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrInvalidResponse, err)
	}
	if resp.Status != nil && !*resp.Status {
		return nil, fmt.Errorf("%w: %s", provider.ErrInvalidResponse, resp.Message)
	}

	var result string
	if len(resp.Result) > 0 {
		_ = json.Unmarshal(resp.Result, &result)
	}
	if result == "" {
		result = resp.URL
	}
	if result == "" {
		return nil, fmt.Errorf("%w: no result", provider.ErrInvalidResponse)
	}

	if strings.HasPrefix(result, "http") {
		img, _, err := d.HTTP.GetBytes(ctx, result, nil)
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(mimetype.Detect(img).String(), "image/") {
			return nil, fmt.Errorf("%w: result is not an image", provider.ErrInvalidResponse)
		}
		return img, nil
	}

	if _, payload, ok := strings.Cut(result, "base64,"); ok {
		result = payload
	}
	img, err := base64.StdEncoding.DecodeString(result)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64 image", provider.ErrInvalidResponse)
	}
	return img, nil
}

func mimeOf(data []byte) string {
	return mimetype.Detect(data).String()
}

// sendSticker sends WebP data as a sticker and anything else as an image.
func sendSticker(ctx context.Context, req *commandservice.Request, data []byte) error {
	mime := mimetype.Detect(data)
	var err error
	if mime.Is("image/webp") {
		_, err = req.Messenger.SendSticker(ctx, req.Message.Chat, data, mime.String())
	} else {
		_, err = req.Messenger.SendImage(ctx, req.Message.Chat, data, mime.String(), "")
	}
	return err
}
