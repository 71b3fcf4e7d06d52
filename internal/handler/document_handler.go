package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/service"
	"github.com/noah-isme/classops-api/internal/utils"
)

// DocumentHandler resolves typed document references to stored file URLs.
type DocumentHandler struct {
	service service.DocumentService
	logger  zerolog.Logger
}

// NewDocumentHandler builds a document handler instance.
func NewDocumentHandler(service service.DocumentService, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Get("/:typedId", h.resolve)
}

func (h *DocumentHandler) resolve(c *fiber.Ctx) error {
	document, err := h.service.Resolve(c.UserContext(), c.Params("typedId"), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "document resolved", document)
}

func (h *DocumentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrBadDocumentRef):
		return utils.SendError(c, fiber.StatusBadRequest, "malformed document reference")
	case errors.Is(err, service.ErrDocumentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "document not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
