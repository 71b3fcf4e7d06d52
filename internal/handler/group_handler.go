package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/service"
	"github.com/noah-isme/classops-api/internal/utils"
)

// GroupHandler manages group endpoints. Routes are split across the class
// scope (creation, listing) and the group scope (membership mutations).
type GroupHandler struct {
	service service.GroupService
	logger  zerolog.Logger
}

// NewGroupHandler builds a group handler instance.
func NewGroupHandler(service service.GroupService, logger zerolog.Logger) *GroupHandler {
	return &GroupHandler{
		service: service,
		logger:  logger.With().Str("component", "group_handler").Logger(),
	}
}

// RegisterClassRoutes attaches the class-scoped routes.
func (h *GroupHandler) RegisterClassRoutes(router fiber.Router) {
	router.Post("/:id/groups", h.create)
	router.Get("/:id/groups", h.listForClass)
	router.Get("/:id/groups/available-students", h.listAvailableStudents)
}

// RegisterGroupRoutes attaches the group-scoped routes.
func (h *GroupHandler) RegisterGroupRoutes(router fiber.Router) {
	router.Delete("/:id", h.remove)
	router.Post("/:id/members", h.addMember)
	router.Post("/:id/leader", h.assignLeader)
	router.Delete("/:groupId/members/:userId", h.removeMember)
}

func (h *GroupHandler) create(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GroupCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.service.Create(c.UserContext(), classID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "group created", group)
}

func (h *GroupHandler) listForClass(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	groups, err := h.service.ListForClass(c.UserContext(), classID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "groups retrieved", groups)
}

func (h *GroupHandler) listAvailableStudents(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	students, err := h.service.ListAvailableStudents(c.UserContext(), classID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "available students retrieved", students)
}

func (h *GroupHandler) remove(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), groupID, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "group deleted", nil)
}

func (h *GroupHandler) addMember(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GroupMemberRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.AddMember(c.UserContext(), groupID, userIDFromContext(c), payload.UserID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "member added", nil)
}

func (h *GroupHandler) assignLeader(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GroupMemberRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.AssignLeader(c.UserContext(), groupID, userIDFromContext(c), payload.UserID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "leader assigned", nil)
}

func (h *GroupHandler) removeMember(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "groupId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.RemoveMember(c.UserContext(), groupID, userIDFromContext(c), userID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "member removed", nil)
}

func (h *GroupHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "group not found")
	case errors.Is(err, service.ErrNotAStudent):
		return utils.SendError(c, fiber.StatusBadRequest, "user is not a student of this class")
	case errors.Is(err, service.ErrAlreadyGrouped):
		return utils.SendError(c, fiber.StatusConflict, "user already belongs to a group in this class")
	case errors.Is(err, service.ErrNotInGroup):
		return utils.SendError(c, fiber.StatusNotFound, "user is not a member of this group")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
