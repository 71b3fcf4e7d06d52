package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/service"
	"github.com/noah-isme/classops-api/internal/utils"
)

// EvaluationHandler manages grading endpoints.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler builds an evaluation handler instance.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// RegisterSubmissionRoutes attaches the submission-scoped routes.
func (h *EvaluationHandler) RegisterSubmissionRoutes(router fiber.Router) {
	router.Post("/:id/evaluations", h.create)
	router.Get("/:id/evaluations", h.list)
	router.Post("/:id/evaluations/ai", h.preGrade)
}

// RegisterEvaluationRoutes attaches the evaluation-scoped routes.
func (h *EvaluationHandler) RegisterEvaluationRoutes(router fiber.Router) {
	router.Put("/:id", h.update)
}

func (h *EvaluationHandler) create(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.service.Create(c.UserContext(), submissionID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "evaluation recorded", evaluation)
}

func (h *EvaluationHandler) list(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluations, err := h.service.ListForSubmission(c.UserContext(), submissionID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluations retrieved", evaluations)
}

func (h *EvaluationHandler) preGrade(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluation, err := h.service.PreGrade(c.UserContext(), submissionID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "ai evaluation recorded", evaluation)
}

func (h *EvaluationHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.service.Update(c.UserContext(), id, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation updated", evaluation)
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
	case errors.Is(err, service.ErrEmptyEvaluation):
		return utils.SendError(c, fiber.StatusBadRequest, "evaluation requires a score or feedback")
	case errors.Is(err, service.ErrAIUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "ai evaluation is not configured")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
