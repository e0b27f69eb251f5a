package domain

import "time"

// Event is a session lifecycle event. It is published to the event stream as JSON and recorded as an
// OTel log record.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	SessionID  string            `json:"session_id,omitempty"`
	UserID     int64             `json:"user_id,omitempty"`
	AccountID  *int64            `json:"account_id,omitempty"`
	Source     string            `json:"source"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Event types emitted by the session manager.
const (
	EventSessionIssued    = "session_issued"
	EventSessionRefreshed = "session_refreshed"
	EventSessionRevoked   = "session_revoked"
	EventSessionExpired   = "session_expired"
	EventAccountSwitched  = "account_switched"
)
