package scheduler

import (
	"time"
)

// RotationResult captures the outcome of one rotation step
type RotationResult struct {
	Screen    string
	StartTime time.Time
	EndTime   time.Time
	Success   bool
	Refreshed bool // the screen's source was reloaded before it was shown
	Error     error
}

// ScreenHistory tracks how often a screen was rotated in and how it went
type ScreenHistory struct {
	Screen       string    `json:"screen"`
	LastShown    time.Time `json:"last_shown"`
	LastStatus   string    `json:"last_status"` // "success", "failure", "timeout"
	LastDuration int64     `json:"last_duration_ms"`
	ShowCount    int       `json:"show_count"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
}
