package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/service"
	"github.com/noah-isme/classops-api/internal/utils"
)

// ClassHandler manages class and enrollment endpoints.
type ClassHandler struct {
	service service.ClassService
	logger  zerolog.Logger
}

// NewClassHandler builds a class handler instance.
func NewClassHandler(service service.ClassService, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		logger:  logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ClassHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.listMine)
	router.Post("/:id/join", h.join)
	router.Get("/:id/members", h.listMembers)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	var payload dto.ClassCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	class, err := h.service.Create(c.UserContext(), userIDFromContext(c), globalRoleFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "class created", class)
}

func (h *ClassHandler) listMine(c *fiber.Ctx) error {
	classes, err := h.service.ListMine(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "classes retrieved", classes)
}

func (h *ClassHandler) join(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Join(c.UserContext(), userIDFromContext(c), classID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "joined class", nil)
}

func (h *ClassHandler) listMembers(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	members, err := h.service.ListMembers(c.UserContext(), classID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "members retrieved", members)
}

func (h *ClassHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "already enrolled in this class")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
