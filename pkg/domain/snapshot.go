package domain

import "time"

// Snapshot is a stored FeedDocument produced by a scheduled pipeline run
type Snapshot struct {
	ID        int64
	RunID     string
	Document  FeedDocument
	CreatedAt time.Time
}

// RunStatus describes the last pipeline run, successful or not
type RunStatus struct {
	RunID     string        `json:"runId"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Posts     int           `json:"posts"`
	Error     string        `json:"error,omitempty"`
}

// OK tells if the run produced a document
func (s RunStatus) OK() bool { return s.Error == "" && s.RunID != "" }
