package models

import "time"

type AccessStatus string

const (
	AccessStatusQueued   AccessStatus = "queued"
	AccessStatusAdmitted AccessStatus = "admitted"
)

// AdmittedSession is the time-bounded pass a visitor gets once their ticket
// reaches the front of the queue.
type AdmittedSession struct {
	ID          string    `json:"id"`
	VisitorID   string    `json:"visitor_id"`
	TicketID    string    `json:"ticket_id"`
	AccessToken string    `json:"access_token"`
	AdmittedAt  time.Time `json:"admitted_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *AdmittedSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *AdmittedSession) Remaining(now time.Time) time.Duration {
	if s.IsExpired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
