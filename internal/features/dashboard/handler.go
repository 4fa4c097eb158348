package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/middleware"
	"seabot/internal/features/outbox"
)

const serviceName = "seabot"

// Pinger is a dependency checked by /ready.
type Pinger func(ctx context.Context) error

type Handler struct {
	stats     *StatsService
	publisher *outbox.Publisher
	log       zerolog.Logger
}

func NewHandler(stats *StatsService, publisher *outbox.Publisher, log zerolog.Logger) *Handler {
	return &Handler{stats: stats, publisher: publisher, log: log}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stats", h.GetStats)
	router.POST("/outbox", h.Enqueue)
}

// @Summary Dashboard statistics
// @Description User counts by tier, active users in the last 24h and command usage
// @Tags stats
// @Produce json
// @Security BasicAuth
// @Success 200 {object} dashboard.Stats
// @Failure 500 {object} middleware.ErrorResponse
// @Router /stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.Get(c.Request.Context())
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Queue outbox event
// @Description Queue a text message for the bot to send, or a cache invalidation
// @Tags outbox
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param event body outbox.Event true "Event (id and created_at are assigned)"
// @Success 202 {object} outbox.Event
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /outbox [post]
func (h *Handler) Enqueue(c *gin.Context) {
	if h.publisher == nil {
		middleware.SendError(c, apperrors.New(apperrors.ErrCodeCacheError, "Outbox is not configured"), h.log)
		return
	}

	var input outbox.Event
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"), h.log)
		return
	}

	event, err := h.publisher.Publish(c.Request.Context(), input)
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}

	h.log.Info().
		Str("event_id", event.ID).
		Str("type", string(event.Type)).
		Str("operator", c.GetString("operator")).
		Msg("Outbox event queued")
	c.JSON(http.StatusAccepted, event)
}

// Health reports liveness plus the WhatsApp connection state when known.
func Health(connected func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		}
		if connected != nil {
			body["whatsapp_connected"] = connected()
		}
		c.JSON(http.StatusOK, body)
	}
}

// Ready fails with 503 naming the first dependency that does not answer.
func Ready(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   name + " unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	}
}
