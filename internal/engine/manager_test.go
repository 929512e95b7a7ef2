package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geocore/internal/gerr"
	"github.com/sells-group/geocore/internal/layer"
)

func resultLayer(t *testing.T, name string) *layer.VectorLayer {
	t.Helper()
	l, err := layer.NewVectorLayer(name, layer.WGS84, layer.Schema{}, nil)
	require.NoError(t, err)
	return l
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSubmit_SuccessPublishesToStack(t *testing.T) {
	stack := layer.NewLayerStack()
	m := NewManager(stack, 2)
	out := resultLayer(t, "buffered")

	j := m.Submit("buffer", func(ctx context.Context, report ProgressFunc) (layer.Layer, error) {
		report(1, 1)
		return out, nil
	})

	require.NoError(t, j.Wait(waitCtx(t)))
	assert.Equal(t, StatusSucceeded, j.Status())

	got, entryID := j.Layer()
	assert.Same(t, out, got)

	e, ok := stack.Get(entryID)
	require.True(t, ok)
	assert.Equal(t, "buffered", e.Layer.LayerName())

	done, total := j.Progress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 1, total)
}

func TestSubmit_FailurePublishesNothing(t *testing.T) {
	stack := layer.NewLayerStack()
	m := NewManager(stack, 1)

	j := m.Submit("clip", func(ctx context.Context, report ProgressFunc) (layer.Layer, error) {
		return nil, eris.New("boundary is not polygonal")
	})

	err := j.Wait(waitCtx(t))
	require.Error(t, err)
	assert.Equal(t, StatusFailed, j.Status())
	assert.Equal(t, 0, stack.Len())
}

func TestSubmit_NilLayerSuccessPublishesNothing(t *testing.T) {
	stack := layer.NewLayerStack()
	m := NewManager(stack, 1)

	j := m.Submit("clip", func(ctx context.Context, report ProgressFunc) (layer.Layer, error) {
		return nil, nil
	})

	require.NoError(t, j.Wait(waitCtx(t)))
	assert.Equal(t, StatusSucceeded, j.Status())
	assert.Equal(t, 0, stack.Len())
}

func TestCancel_RunningJob(t *testing.T) {
	stack := layer.NewLayerStack()
	m := NewManager(stack, 1)
	started := make(chan struct{})

	j := m.Submit("ndvi", func(ctx context.Context, report ProgressFunc) (layer.Layer, error) {
		close(started)
		<-ctx.Done()
		return nil, eris.Wrap(gerr.ErrCancelled, ctx.Err().Error())
	})

	<-started
	require.True(t, m.Cancel(j.ID))

	err := j.Wait(waitCtx(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, gerr.ErrCancelled)
	assert.Equal(t, StatusCancelled, j.Status())
	assert.Equal(t, 0, stack.Len())
}

func TestCancel_QueuedJob(t *testing.T) {
	stack := layer.NewLayerStack()
	m := NewManager(stack, 1)

	// Occupy the single worker so the second job stays queued.
	blockerStarted := make(chan struct{})
	release := make(chan struct{})
	blocker := m.Submit("resample", func(ctx context.Context, report ProgressFunc) (layer.Layer, error) {
		close(blockerStarted)
		<-release
		return nil, nil
	})
	<-blockerStarted

	queued := m.Submit("buffer", func(ctx context.Context, report ProgressFunc) (layer.Layer, error) {
		t.Error("queued job must not run after cancellation")
		return nil, nil
	})
	assert.Equal(t, StatusQueued, queued.Status())
	queued.Cancel()
	close(release)

	require.Error(t, queued.Wait(waitCtx(t)))
	assert.Equal(t, StatusCancelled, queued.Status())
	require.NoError(t, blocker.Wait(waitCtx(t)))
}

func TestManager_GetAndJobs(t *testing.T) {
	m := NewManager(layer.NewLayerStack(), 1)

	j := m.Submit("uhi", func(ctx context.Context, report ProgressFunc) (layer.Layer, error) {
		return nil, nil
	})
	require.NoError(t, j.Wait(waitCtx(t)))

	got, ok := m.Get(j.ID)
	require.True(t, ok)
	assert.Same(t, j, got)
	assert.Len(t, m.Jobs(), 1)

	assert.False(t, m.Cancel(uuid.Nil))
}

func TestWait_ContextExpiry(t *testing.T) {
	m := NewManager(layer.NewLayerStack(), 1)
	release := make(chan struct{})
	defer close(release)

	j := m.Submit("overlay", func(ctx context.Context, report ProgressFunc) (layer.Layer, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, j.Wait(ctx), context.DeadlineExceeded)
}
