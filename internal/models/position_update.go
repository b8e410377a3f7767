package models

import "time"

type UpdateType string

const (
	UpdateTypePosition UpdateType = "position"
	UpdateTypeAdmitted UpdateType = "admitted"
)

// PositionUpdate is pushed to a waiting visitor on every evaluation tick.
type PositionUpdate struct {
	VisitorID    string           `json:"visitor_id"`
	TicketID     string           `json:"ticket_id,omitempty"`
	Type         UpdateType       `json:"type"`
	Evaluation   *QueueEvaluation `json:"evaluation,omitempty"`
	TotalTraffic int64            `json:"total_traffic,omitempty"`
	AccessToken  string           `json:"access_token,omitempty"`
	ExpiresAt    *time.Time       `json:"expires_at,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}
