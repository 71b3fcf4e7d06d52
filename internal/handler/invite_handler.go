package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/service"
	"github.com/noah-isme/classops-api/internal/utils"
)

// InviteHandler manages invite issuance and redemption endpoints.
type InviteHandler struct {
	service service.InviteService
	logger  zerolog.Logger
}

// NewInviteHandler builds an invite handler instance.
func NewInviteHandler(service service.InviteService, logger zerolog.Logger) *InviteHandler {
	return &InviteHandler{
		service: service,
		logger:  logger.With().Str("component", "invite_handler").Logger(),
	}
}

// RegisterClassRoutes attaches the class-scoped routes.
func (h *InviteHandler) RegisterClassRoutes(router fiber.Router) {
	router.Post("/:id/invites", h.issue)
}

// RegisterAccept attaches the authenticated redemption route.
func (h *InviteHandler) RegisterAccept(router fiber.Router) {
	router.Post("/accept-invite/:token", h.accept)
}

// RegisterPublic attaches the unauthenticated invite info route.
func (h *InviteHandler) RegisterPublic(router fiber.Router) {
	router.Get("/invite-info/:token", h.info)
}

func (h *InviteHandler) issue(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.InviteIssueRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	results, err := h.service.Issue(c.UserContext(), classID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "invites processed", results)
}

func (h *InviteHandler) accept(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid token")
	}

	result, err := h.service.Accept(c.UserContext(), token, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "invite accepted", result)
}

func (h *InviteHandler) info(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid token")
	}

	info, err := h.service.Info(c.UserContext(), token)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "invite retrieved", info)
}

func (h *InviteHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrInviteNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "invite not found")
	case errors.Is(err, service.ErrInviteEmailMismatch):
		return utils.SendError(c, fiber.StatusForbidden, "invite was issued to a different email address")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
