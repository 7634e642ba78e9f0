package schema

import "time"

// Status defaults shown by a fresh session.
const (
	DefaultSecurityLevel  = "HIGH"
	DefaultFirewallStatus = "ACTIVE"
	DefaultUptime         = "365d 12h 43m"
)

// StatusSnapshot is the cosmetic status of a session.
type StatusSnapshot struct {
	SecurityLevel  string  `json:"security_level"`
	FirewallStatus string  `json:"firewall_status"`
	Intrusions     int     `json:"intrusions"`
	Uptime         string  `json:"uptime"`
	ScanProgress   float64 `json:"scan_progress"`
	Scanning       bool    `json:"scanning"`
	MatrixMode     bool    `json:"matrix_mode"`
}

// DefaultStatus returns the status of a new session.
func DefaultStatus() StatusSnapshot {
	return StatusSnapshot{
		SecurityLevel:  DefaultSecurityLevel,
		FirewallStatus: DefaultFirewallStatus,
		Uptime:         DefaultUptime,
	}
}

// TranscriptSnapshot represents the current transcript view.
type TranscriptSnapshot struct {
	SessionID    SessionID        `json:"session_id"`
	Lines        []TranscriptLine `json:"lines"`
	TotalLines   int              `json:"total_lines"`
	ScrollOffset int              `json:"scroll_offset"`
	AtBottom     bool             `json:"at_bottom"`
	// Revision is the transcript revision the lines reflect. Transcript
	// events at or below it are already included.
	Revision uint64 `json:"revision"`
}

// SessionSnapshot is a read-only view of session state for transports.
type SessionSnapshot struct {
	ID            SessionID      `json:"id"`
	Input         string         `json:"input"`
	HistoryCursor int            `json:"history_cursor"`
	HistoryLen    int            `json:"history_len"`
	Status        StatusSnapshot `json:"status"`
	OpenedAt      time.Time      `json:"opened_at"`
}
