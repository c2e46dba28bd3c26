package importrun

import "time"

type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerJob      Trigger = "job"
	TriggerSelected Trigger = "selected"
	TriggerTXT      Trigger = "txt"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// SourceOutcome is the per-feed part of a run.
type SourceOutcome struct {
	SourceID    string `json:"sourceId"`
	SourceURL   string `json:"sourceUrl"`
	Name        string `json:"name"`
	Added       int    `json:"added"`
	Skipped     int    `json:"skipped"`
	OutOfWindow int    `json:"outOfWindow"`
	Warnings    int    `json:"warnings"`
	Error       string `json:"error,omitempty"`
}

// Run records one import execution.
type Run struct {
	ID          string
	Trigger     Trigger
	Status      Status
	Overwrite   bool
	Added       int
	Skipped     int
	OutOfWindow int
	Sources     []SourceOutcome
	Errors      []string
	StartedAt   time.Time
	FinishedAt  time.Time
	TraceID     string
}
