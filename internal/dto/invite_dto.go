package dto

import "github.com/noah-isme/classops-api/internal/models"

// InviteIssueRequest carries the batch of addresses to invite. Addresses are
// normalized and validated individually by the service, so a malformed entry
// gets its own result instead of failing the batch.
type InviteIssueRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,max=20"`
}

// InviteResultStatus enumerates per-address outcomes of an invite batch.
const (
	InviteResultSent            = "sent"
	InviteResultAlreadyEnrolled = "already_enrolled"
	InviteResultAlreadyInvited  = "already_invited"
	InviteResultEmailFailed     = "email_failed"
	InviteResultInvalidEmail    = "invalid_email"
)

// InviteResult is one address's outcome within a batch.
type InviteResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// InviteAcceptResponse identifies the class a redeemed token grants access to.
type InviteAcceptResponse struct {
	ClassID         uint `json:"class_id"`
	AlreadyAccepted bool `json:"already_accepted"`
}

// InviteInfoResponse is the public pre-login view of an invite.
type InviteInfoResponse struct {
	ClassTitle string `json:"class_title"`
	InvitedBy  string `json:"invited_by"`
	Email      string `json:"email"`
	Status     string `json:"status"`
}

// NewInviteInfoResponse converts a model (with preloaded class and inviter)
// into the public DTO.
func NewInviteInfoResponse(invite models.ClassInvite) InviteInfoResponse {
	return InviteInfoResponse{
		ClassTitle: invite.Class.Title,
		InvitedBy:  invite.Inviter.Username,
		Email:      invite.Email,
		Status:     string(invite.Status),
	}
}
