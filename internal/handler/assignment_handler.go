package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/service"
	"github.com/noah-isme/classops-api/internal/utils"
)

// AssignmentHandler manages assignment endpoints.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// RegisterClassRoutes attaches the class-scoped routes.
func (h *AssignmentHandler) RegisterClassRoutes(router fiber.Router) {
	router.Post("/:id/assignments", h.create)
	router.Get("/:id/assignments", h.listForClass)
}

// RegisterAssignmentRoutes attaches the assignment-scoped routes.
func (h *AssignmentHandler) RegisterAssignmentRoutes(router fiber.Router) {
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.remove)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	// The attachment is optional; fiber returns an error when absent.
	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	assignment, err := h.service.Create(c.UserContext(), classID, userIDFromContext(c), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "assignment created", assignment)
}

func (h *AssignmentHandler) listForClass(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignments, err := h.service.ListForClass(c.UserContext(), classID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignmentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	assignment, err := h.service.Update(c.UserContext(), id, userIDFromContext(c), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment deleted", nil)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
