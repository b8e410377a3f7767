package kafka

import "time"

// Events published BY Waitroom Service

type TicketIssuedEvent struct {
	VisitorID      string    `json:"visitor_id"`
	TicketID       string    `json:"ticket_id"`
	StartPosition  int64     `json:"start_position"`
	ProcessingRate int64     `json:"processing_rate"`
	TrafficWindow  string    `json:"traffic_window"`
	UserAgent      string    `json:"user_agent,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	IssuedAt       time.Time `json:"issued_at"`
	Timestamp      time.Time `json:"timestamp"`
}

type VisitorAdmittedEvent struct {
	VisitorID  string    `json:"visitor_id"`
	TicketID   string    `json:"ticket_id"`
	SessionID  string    `json:"session_id"`
	WaitedSec  int64     `json:"waited_seconds"`
	AdmittedAt time.Time `json:"admitted_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Timestamp  time.Time `json:"timestamp"`
}

type SessionResetEvent struct {
	VisitorID string    `json:"visitor_id"`
	SessionID string    `json:"session_id,omitempty"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Reason    string    `json:"reason"`
	ResetAt   time.Time `json:"reset_at"`
	Timestamp time.Time `json:"timestamp"`
}
