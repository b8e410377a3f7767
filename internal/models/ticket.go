package models

import "errors"

var ErrTicketMalformed = errors.New("queue ticket is malformed")

// QueueTicket is an issued claim to a place in the virtual queue. It is never
// mutated after issuance; live state is derived from (ticket, now).
type QueueTicket struct {
	ID                  string `json:"id"`
	IssuedAtEpochMillis int64  `json:"issued_at_epoch_millis"`
	StartPosition       int64  `json:"start_position"`
	TotalTraffic        int64  `json:"total_traffic"`
	ProcessingRate      int64  `json:"processing_rate_users_per_second"`
}

// Validate checks a ticket rehydrated from storage before it is evaluated.
func (t *QueueTicket) Validate() error {
	switch {
	case t == nil:
		return ErrTicketMalformed
	case t.ID == "":
		return ErrTicketMalformed
	case t.IssuedAtEpochMillis <= 0:
		return ErrTicketMalformed
	case t.StartPosition < 0 || t.TotalTraffic < 0:
		return ErrTicketMalformed
	case t.ProcessingRate <= 0:
		return ErrTicketMalformed
	}
	return nil
}

type QueueEvaluation struct {
	CurrentPosition      int64   `json:"current_position"`
	EstimatedWaitMinutes int64   `json:"estimated_wait_minutes"`
	ProgressFraction     float64 `json:"progress_fraction"`
	IsAdmitted           bool    `json:"is_admitted"`
}
