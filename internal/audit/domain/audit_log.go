package domain

import "time"

// AuditLog represents an authentication or authorization event.
type AuditLog struct {
	ID        string    `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	AccountID *int64    `json:"account_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Actions recorded by the auth service.
const (
	ActionLoginSuccess  = "login_success"
	ActionLoginFailure  = "login_failure"
	ActionLogout        = "logout"
	ActionRefresh       = "refresh"
	ActionSwitchAccount = "switch_account"
)

// Resources audited by the auth service; admin routes derive theirs from the route.
const (
	ResourceSession = "session"
	ResourceAccount = "account"
)
