package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/repository"
)

// ErrBadDocumentRef indicates a malformed typed document reference.
var ErrBadDocumentRef = errors.New("malformed document reference")

// ErrDocumentNotFound indicates the entity exists but carries no stored file,
// or does not exist at all.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentService resolves typed references of the form "{type}-{id}" to the
// file stored for that entity. "classwork" is accepted as an alias of
// "assignment" for older clients.
type DocumentService interface {
	Resolve(ctx context.Context, typedID string, callerID uint) (dto.DocumentResponse, error)
}

type documentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	classes     repository.ClassRepository
	logger      zerolog.Logger
}

// NewDocumentService constructs a DocumentService instance.
func NewDocumentService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, classes repository.ClassRepository, logger zerolog.Logger) DocumentService {
	return &documentService{
		assignments: assignments,
		submissions: submissions,
		classes:     classes,
		logger:      logger.With().Str("component", "document_service").Logger(),
	}
}

func (s *documentService) Resolve(ctx context.Context, typedID string, callerID uint) (dto.DocumentResponse, error) {
	kind, id, err := parseTypedID(typedID)
	if err != nil {
		return dto.DocumentResponse{}, err
	}

	switch kind {
	case "assignment":
		return s.resolveAssignment(ctx, id, callerID)
	case "submission":
		return s.resolveSubmission(ctx, id, callerID)
	default:
		return dto.DocumentResponse{}, ErrBadDocumentRef
	}
}

func (s *documentService) resolveAssignment(ctx context.Context, id, callerID uint) (dto.DocumentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.DocumentResponse{}, ErrDocumentNotFound
		}
		return dto.DocumentResponse{}, err
	}

	if _, err := s.classes.RoleOf(ctx, callerID, assignment.ClassID); err != nil {
		if repository.IsNotFound(err) {
			return dto.DocumentResponse{}, ErrForbidden
		}
		return dto.DocumentResponse{}, err
	}

	if assignment.FileURL == "" {
		return dto.DocumentResponse{}, ErrDocumentNotFound
	}

	return dto.DocumentResponse{Type: "assignment", ID: id, URL: assignment.FileURL}, nil
}

func (s *documentService) resolveSubmission(ctx context.Context, id, callerID uint) (dto.DocumentResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.DocumentResponse{}, ErrDocumentNotFound
		}
		return dto.DocumentResponse{}, err
	}

	if _, err := s.classes.RoleOf(ctx, callerID, submission.Assignment.ClassID); err != nil {
		if repository.IsNotFound(err) {
			return dto.DocumentResponse{}, ErrForbidden
		}
		return dto.DocumentResponse{}, err
	}

	if submission.FileURL == "" {
		return dto.DocumentResponse{}, ErrDocumentNotFound
	}

	return dto.DocumentResponse{
		Type:     "submission",
		ID:       id,
		FileName: submission.FileName,
		URL:      submission.FileURL,
	}, nil
}

// parseTypedID splits "{type}-{id}". The id is everything after the last
// hyphen so the type itself may contain hyphens in the future.
func parseTypedID(typedID string) (string, uint, error) {
	cut := strings.LastIndex(typedID, "-")
	if cut <= 0 || cut == len(typedID)-1 {
		return "", 0, ErrBadDocumentRef
	}

	kind := strings.ToLower(typedID[:cut])
	if kind == "classwork" {
		kind = "assignment"
	}

	id, err := strconv.ParseUint(typedID[cut+1:], 10, 32)
	if err != nil || id == 0 {
		return "", 0, ErrBadDocumentRef
	}

	return kind, uint(id), nil
}
