package model

import "time"

// HealthStatus represents the health check status
type HealthStatus struct {
	Status  string      `json:"status"`
	Service string      `json:"service"`
	Version string      `json:"version"`
	Running bool        `json:"running"`
	LastRun *RunSummary `json:"last_run,omitempty"`
}

// RunSummary is the public view of a finished run
type RunSummary struct {
	RunID      string     `json:"run_id"`
	Tag        ReleaseTag `json:"tag,omitempty"`
	State      State      `json:"state"`
	FailedStep Step       `json:"failed_step,omitempty"`
	FinishedAt time.Time  `json:"finished_at"`
}

// Summary returns the public view of the report
func (r *RunReport) Summary() *RunSummary {
	return &RunSummary{
		RunID:      r.RunID,
		Tag:        r.Tag,
		State:      r.State,
		FailedStep: r.FailedStep,
		FinishedAt: r.FinishedAt,
	}
}
