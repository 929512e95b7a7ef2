// Package engine runs long geoprocessing and raster computations off the
// interactive path. A submitted operation returns a Job handle immediately;
// the caller polls or waits while a worker computes. Inputs are immutable
// layer snapshots, so workers take no locks; the only exclusive step is
// publishing a finished layer into the stack. Cancelled or failed runs
// publish nothing.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/geocore/internal/gerr"
	"github.com/sells-group/geocore/internal/layer"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ProgressFunc receives completion counts from the running operation.
type ProgressFunc func(done, total int)

// OpFunc is a unit of engine work: it computes a new layer from immutable
// inputs captured in its closure. It must observe ctx for cancellation and
// may report progress. A nil layer with a nil error is a valid empty
// outcome that publishes nothing.
type OpFunc func(ctx context.Context, report ProgressFunc) (layer.Layer, error)

// Job is the future handle for one submitted operation.
type Job struct {
	ID        uuid.UUID `json:"id"`
	Operation string    `json:"operation"`

	mu         sync.Mutex
	status     Status
	done, total int
	err        error
	out        layer.Layer
	entryID    uuid.UUID
	started    time.Time
	finished   time.Time

	cancel context.CancelFunc
	doneCh chan struct{}
}

// Status returns the current lifecycle state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Progress returns completion counts reported so far.
func (j *Job) Progress() (done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done, j.total
}

// Err returns the terminal error, nil while running or on success.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Layer returns the published output layer and its stack entry ID, nil
// until the job succeeds.
func (j *Job) Layer() (layer.Layer, uuid.UUID) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.out, j.entryID
}

// Duration returns the job runtime so far, or the final runtime once done.
func (j *Job) Duration() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started.IsZero() {
		return 0
	}
	if j.finished.IsZero() {
		return time.Since(j.started)
	}
	return j.finished.Sub(j.started)
}

// Cancel requests a cooperative abort. Safe to call at any time and more
// than once.
func (j *Job) Cancel() { j.cancel() }

// Done returns a channel closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.doneCh }

// Wait blocks until the job finishes or waitCtx expires, returning the
// job's terminal error.
func (j *Job) Wait(waitCtx context.Context) error {
	select {
	case <-j.doneCh:
		return j.Err()
	case <-waitCtx.Done():
		return waitCtx.Err()
	}
}

func (j *Job) setRunning() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusRunning
	j.started = time.Now()
}

func (j *Job) report(done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.done, j.total = done, total
}

func (j *Job) finish(out layer.Layer, entryID uuid.UUID, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finished = time.Now()
	switch {
	case err == nil:
		j.status = StatusSucceeded
		j.out = out
		j.entryID = entryID
	case errors.Is(err, gerr.ErrCancelled) || errors.Is(err, context.Canceled):
		j.status = StatusCancelled
		j.err = err
	default:
		j.status = StatusFailed
		j.err = err
	}
	close(j.doneCh)
}
