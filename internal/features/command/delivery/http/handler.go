package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/middleware"
	"seabot/internal/features/command/models"
	"seabot/internal/features/command/service"
)

type CommandHandler struct {
	service service.CommandService
	log     zerolog.Logger
}

func NewCommandHandler(service service.CommandService, log zerolog.Logger) *CommandHandler {
	return &CommandHandler{service: service, log: log}
}

func (h *CommandHandler) RegisterRoutes(router *gin.RouterGroup) {
	commands := router.Group("/commands")
	{
		commands.GET("", h.ListCommands)
		commands.PUT("/:name", h.UpdateCommand)
	}
}

// @Summary List commands
// @Description Every registered command with its runtime settings and usage count
// @Tags commands
// @Produce json
// @Security BasicAuth
// @Success 200 {object} models.CommandsResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /commands [get]
func (h *CommandHandler) ListCommands(c *gin.Context) {
	resp, err := h.service.ListCommands(c.Request.Context())
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Update command
// @Description Enable or disable a command, change its cooldown or owner restriction. Takes effect within a minute.
// @Tags commands
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param name path string true "Command name"
// @Param command body models.DescriptorUpdate true "Fields to change"
// @Success 200 {object} models.Descriptor
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /commands/{name} [put]
func (h *CommandHandler) UpdateCommand(c *gin.Context) {
	var input models.DescriptorUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"), h.log)
		return
	}

	name := strings.ToLower(c.Param("name"))
	d, err := h.service.UpdateCommand(c.Request.Context(), name, input)
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}

	h.log.Info().
		Str("command", name).
		Bool("active", d.IsActive).
		Int("cooldown", d.Cooldown).
		Str("operator", c.GetString("operator")).
		Msg("Command settings updated")
	c.JSON(http.StatusOK, d)
}
