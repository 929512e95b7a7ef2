package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/layer"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geocore_jobs_total",
		Help: "Engine jobs by operation and terminal status.",
	}, []string{"operation", "status"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geocore_job_duration_seconds",
		Help:    "Engine job runtime by operation.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"operation"})
)

// Manager owns the worker pool and the job registry, and publishes
// finished layers into the stack it was built with.
type Manager struct {
	stack *layer.LayerStack

	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job

	sem chan struct{}
}

// NewManager creates a manager running at most workers jobs concurrently.
func NewManager(stack *layer.LayerStack, workers int) *Manager {
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		stack: stack,
		jobs:  make(map[uuid.UUID]*Job),
		sem:   make(chan struct{}, workers),
	}
}

// Stack returns the layer stack jobs publish into.
func (m *Manager) Stack() *layer.LayerStack { return m.stack }

// Submit queues an operation and returns its handle immediately. The job
// runs on its own context so it outlives the submitting request; callers
// stop it through the handle, not by cancelling their own context.
func (m *Manager) Submit(operation string, op OpFunc) *Job {
	jctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:        uuid.New(),
		Operation: operation,
		status:    StatusQueued,
		cancel:    cancel,
		doneCh:    make(chan struct{}),
	}
	m.mu.Lock()
	m.jobs[j.ID] = j
	m.mu.Unlock()

	go m.run(jctx, j, op)
	return j
}

func (m *Manager) run(ctx context.Context, j *Job, op OpFunc) {
	m.sem <- struct{}{}
	defer func() { <-m.sem }()
	defer j.cancel()

	log := zap.L().With(zap.String("job", j.ID.String()), zap.String("operation", j.Operation))

	// The job may have been cancelled while queued.
	select {
	case <-ctx.Done():
		j.finish(nil, uuid.Nil, ctx.Err())
		jobsTotal.WithLabelValues(j.Operation, string(j.Status())).Inc()
		log.Info("job cancelled before start")
		return
	default:
	}

	j.setRunning()
	out, err := op(ctx, j.report)

	var entryID uuid.UUID
	if err == nil && out != nil {
		// The single brief exclusive step: publish the result. Everything
		// before this point touched only worker-private state.
		entryID = m.stack.Add(out)
	}
	j.finish(out, entryID, err)

	status := j.Status()
	jobsTotal.WithLabelValues(j.Operation, string(status)).Inc()
	jobDuration.WithLabelValues(j.Operation).Observe(j.Duration().Seconds())

	switch status {
	case StatusSucceeded:
		log.Info("job complete", zap.Duration("took", j.Duration()))
	case StatusCancelled:
		log.Info("job cancelled", zap.Duration("took", j.Duration()))
	default:
		log.Error("job failed", zap.Error(err), zap.Duration("took", j.Duration()))
	}
}

// Get returns a job handle by ID.
func (m *Manager) Get(id uuid.UUID) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	return j, ok
}

// Cancel requests an abort of the job with the given ID.
func (m *Manager) Cancel(id uuid.UUID) bool {
	j, ok := m.Get(id)
	if !ok {
		return false
	}
	j.Cancel()
	return true
}

// Jobs returns all known job handles.
func (m *Manager) Jobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out
}
