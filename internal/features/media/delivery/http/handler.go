package http

import (
	"errors"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/middleware"
	"seabot/internal/features/media"
)

type MediaHandler struct {
	store *media.Store
	log   zerolog.Logger
}

func NewMediaHandler(store *media.Store, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{store: store, log: log}
}

// RegisterRoutes mounts the public media route. It is not under /api/v1
// since the fetching APIs hold no dashboard credentials.
func (h *MediaHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/media/:id", h.GetMedia)
}

// GetMedia serves a hosted image with its sniffed content type.
func (h *MediaHandler) GetMedia(c *gin.Context) {
	data, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, media.ErrNotFound) {
		middleware.SendError(c, apperrors.NewNotFoundError("media", c.Param("id")), h.log)
		return
	}
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}
