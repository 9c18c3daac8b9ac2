// Package pipeline orchestrates the dubbing flow for a batch of URLs:
// download, transcribe, assemble, combine.
package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Status is a job's position in the pipeline.
type Status string

const (
	StatusPending      Status = "pending"
	StatusDownloading  Status = "downloading"
	StatusTranscribing Status = "transcribing"
	StatusAssembling   Status = "assembling"
	StatusCombining    Status = "combining"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Job tracks one URL through the pipeline.
type Job struct {
	ID         string
	URL        string
	Channel    string
	WorkDir    string
	OutputPath string
	Status     Status
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewJob creates a pending job for a URL.
func NewJob(url string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		URL:       url,
		Status:    StatusPending,
		StartedAt: time.Now(),
	}
}

// SetStatus advances the job to a new phase.
func (j *Job) SetStatus(s Status) {
	j.Status = s
}

// Complete marks the job finished with its final output path.
func (j *Job) Complete(outputPath string) {
	j.OutputPath = outputPath
	j.Status = StatusCompleted
	j.FinishedAt = time.Now()
}

// Fail marks the job failed. The first error sticks.
func (j *Job) Fail(err error) {
	if j.Err == nil {
		j.Err = err
	}
	j.Status = StatusFailed
	j.FinishedAt = time.Now()
}

// Elapsed returns how long the job ran. For unfinished jobs it counts up
// to now.
func (j *Job) Elapsed() time.Duration {
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
