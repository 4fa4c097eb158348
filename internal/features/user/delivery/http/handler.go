package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/middleware"
	"seabot/internal/features/user/models"
	"seabot/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
	log     zerolog.Logger
}

func NewUserHandler(service service.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/export", h.ExportUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.POST("/:id/alternates", h.LinkIdentifier)
	}

	router.POST("/limits/reset", h.ResetLimits)
}

// @Summary List users
// @Description Paginated list of bot users, newest first
// @Tags users
// @Produce json
// @Security BasicAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 100)" default(20)
// @Success 200 {object} models.UsersResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultPageSize)))

	resp, err := h.service.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Export users
// @Description Every user as a JSON attachment
// @Tags users
// @Produce json
// @Security BasicAuth
// @Success 200 {array} models.User
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /users/export [get]
func (h *UserHandler) ExportUsers(c *gin.Context) {
	users, err := h.service.ExportUsers(c.Request.Context())
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="users.json"`)
	c.JSON(http.StatusOK, users)
}

// @Summary Get user by ID
// @Tags users
// @Produce json
// @Security BasicAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Update user
// @Description Partial edit; omitted fields are left unchanged
// @Tags users
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param id path int true "User ID"
// @Param user body models.UserUpdate true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	var input models.UserUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"), h.log)
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), id, input)
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Delete user
// @Tags users
// @Security BasicAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		middleware.SendError(c, err, h.log)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Link identifier
// @Description Attach a secondary identifier to the user, merging the account that owns it
// @Tags users
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param id path int true "User ID"
// @Param link body models.LinkRequest true "Identifier to link"
// @Success 200 {object} models.User
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /users/{id}/alternates [post]
func (h *UserHandler) LinkIdentifier(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	var input models.LinkRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.SendError(c, apperrors.NewValidationError("identifier", "is required"), h.log)
		return
	}

	user, err := h.service.LinkIdentifier(c.Request.Context(), id, input.Identifier)
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Reset daily limits
// @Description Zero limit_used for every standard user now instead of at midnight
// @Tags limits
// @Produce json
// @Security BasicAuth
// @Success 200 {object} models.ResetResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /limits/reset [post]
func (h *UserHandler) ResetLimits(c *gin.Context) {
	n, err := h.service.ResetDailyLimits(c.Request.Context())
	if err != nil {
		middleware.SendError(c, err, h.log)
		return
	}

	h.log.Info().Int64("reset", n).Str("operator", c.GetString("operator")).Msg("Daily limits reset manually")
	c.JSON(http.StatusOK, models.ResetResponse{Reset: n})
}

func (h *UserHandler) userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.SendError(c, apperrors.NewValidationError("id", "must be a positive integer"), h.log)
		return 0, false
	}
	return id, true
}
