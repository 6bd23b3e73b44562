package deadletter

import (
	"time"
)

// DeadLetter is the terminal registry entry for a task that exhausted its
// retry budget. Entries never expire on their own; remediation is a manual
// retry, which re-submits the URL as a fresh task.
type DeadLetter struct {
	ID           string    `json:"id"`
	TaskID       string    `json:"task_id"`
	URL          string    `json:"url"`
	LastError    string    `json:"last_error"`
	AttemptCount int       `json:"attempt_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message is the payload published to the dead-letter topic, carrying the
// full error trail for external consumers.
type Message struct {
	TaskID       string `json:"task_id"`
	URL          string `json:"url"`
	LastError    string `json:"last_error"`
	AttemptCount int    `json:"attempt_count"`
	FailedAt     string `json:"failed_at"`
}
