package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/service"
	"github.com/noah-isme/classops-api/internal/utils"
)

// SubmissionHandler manages submission endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterAssignmentRoutes attaches the assignment-scoped routes.
func (h *SubmissionHandler) RegisterAssignmentRoutes(router fiber.Router) {
	router.Post("/:id/submissions", h.create)
	router.Get("/:id/submissions/mine", h.getMine)
	router.Get("/:id/submissions", h.listForAssignment)
}

// RegisterSubmissionRoutes attaches the submission-scoped routes.
func (h *SubmissionHandler) RegisterSubmissionRoutes(router fiber.Router) {
	router.Put("/:id", h.update)
	router.Delete("/:id", h.remove)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	submission, err := h.service.Create(c.UserContext(), assignmentID, userIDFromContext(c), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "submission created", submission)
}

func (h *SubmissionHandler) getMine(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.GetMine(c.UserContext(), assignmentID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	if submission == nil {
		return utils.SendSuccess(c, "no submission yet", nil)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) listForAssignment(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	sortBy := c.Query("sortBy", "latest")
	if sortBy != "latest" && sortBy != "earliest" {
		return utils.SendError(c, fiber.StatusBadRequest, "sortBy must be latest or earliest")
	}

	submissions, err := h.service.ListForAssignment(c.UserContext(), assignmentID, userIDFromContext(c), sortBy == "latest")
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	submission, err := h.service.Edit(c.UserContext(), id, userIDFromContext(c), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission updated", submission)
}

func (h *SubmissionHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission deleted", nil)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrOnlyLeaderMaySubmit):
		return utils.SendError(c, fiber.StatusForbidden, "only the group leader can submit")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, "already submitted for this assignment")
	case errors.Is(err, service.ErrEmptySubmission):
		return utils.SendError(c, fiber.StatusBadRequest, "submission requires content or a file")
	case errors.Is(err, service.ErrUploadFailed):
		return utils.SendError(c, fiber.StatusBadGateway, "file upload failed")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
