package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/ironsheep/sheetscan/internal/blueprint"
)

// Job is one sheet extraction request.
type Job struct {
	// ID identifies this delivery in logs. Assigned by NewJob; duplicate
	// deliveries of the same submission carry distinct IDs.
	ID string

	SubmissionID  uint
	QuestionCount int

	// Mode is the capture mode: scan, photo, or auto.
	Mode string

	// ImagePath locates the captured sheet on local storage.
	ImagePath string

	// LegacyQuestions, when set, substitutes for a failed blueprint fetch.
	// Carried by jobs originating from pre-template callers.
	LegacyQuestions []blueprint.Question
	LegacyPage      blueprint.PageSize
}

// NewJob builds a job with a fresh delivery ID.
func NewJob(submissionID uint, questionCount int, mode, imagePath string) *Job {
	return &Job{
		ID:            uuid.New().String(),
		SubmissionID:  submissionID,
		QuestionCount: questionCount,
		Mode:          mode,
		ImagePath:     imagePath,
	}
}

// Source hands jobs to the worker. Next blocks until a job is available or
// ctx ends; implementations deliver at least once and may redeliver after
// a processing error.
type Source interface {
	Next(ctx context.Context) (*Job, error)
}

// Queue is an in-process, channel-backed Source. Submit blocks when the
// buffer is full, which is the backpressure mechanism: intake slows down
// rather than jobs being dropped.
type Queue struct {
	jobs chan *Job
}

// NewQueue builds a queue holding up to size pending jobs.
func NewQueue(size int) *Queue {
	return &Queue{jobs: make(chan *Job, size)}
}

// Submit enqueues a job, blocking until there is room or ctx ends.
func (q *Queue) Submit(ctx context.Context, job *Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next implements Source.
func (q *Queue) Next(ctx context.Context) (*Job, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
