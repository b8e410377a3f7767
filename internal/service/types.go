package service

import (
	"time"

	"github.com/rembayung/waitroom/internal/models"
)

type EnterInput struct {
	VisitorID string `json:"visitor_id"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

// AccessOutput describes where a visitor stands: still queued with a live
// evaluation, or admitted with an access token.
type AccessOutput struct {
	VisitorID            string                  `json:"visitor_id"`
	Status               models.AccessStatus     `json:"status"`
	Ticket               *models.QueueTicket     `json:"ticket,omitempty"`
	Evaluation           *models.QueueEvaluation `json:"evaluation,omitempty"`
	EstimatedAdmissionAt *time.Time              `json:"estimated_admission_at,omitempty"`
	StreamURL            string                  `json:"stream_url,omitempty"`
	SessionID            string                  `json:"session_id,omitempty"`
	AccessToken          string                  `json:"access_token,omitempty"`
	AdmittedAt           *time.Time              `json:"admitted_at,omitempty"`
	ExpiresAt            *time.Time              `json:"expires_at,omitempty"`
}

type AccessClaims struct {
	VisitorID string    `json:"visitor_id"`
	SessionID string    `json:"session_id"`
	TicketID  string    `json:"ticket_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
