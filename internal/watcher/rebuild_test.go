package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingBuild struct {
	mu      sync.Mutex
	batches [][]FileEvent
	active  int
	overlap bool
	block   chan struct{}
	err     error
}

func (r *recordingBuild) build(ctx context.Context, batch []FileEvent) error {
	r.mu.Lock()
	r.active++
	if r.active > 1 {
		r.overlap = true
	}
	r.batches = append(r.batches, batch)
	block := r.block
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}

	r.mu.Lock()
	r.active--
	r.mu.Unlock()
	return r.err
}

func (r *recordingBuild) snapshot() [][]FileEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]FileEvent(nil), r.batches...)
}

func paths(batch []FileEvent) []string {
	out := make([]string, len(batch))
	for i, e := range batch {
		out[i] = e.Path
	}
	return out
}

func TestRebuilder_OneBuildPerBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Given: two batches, then the channel closes
	rec := &recordingBuild{}
	events := make(chan []FileEvent)
	r := NewRebuilder(rec.build)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), events) }()

	events <- []FileEvent{{Path: "a.html", Operation: OpModify}}
	require.Eventually(t, func() bool { return r.Runs() == 1 }, time.Second, 5*time.Millisecond)
	events <- []FileEvent{{Path: "b.html", Operation: OpCreate}}
	close(events)

	// Then: each batch built once
	require.NoError(t, <-done)
	batches := rec.snapshot()
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a.html"}, paths(batches[0]))
	assert.Equal(t, []string{"b.html"}, paths(batches[1]))
	assert.Equal(t, int64(2), r.Runs())
}

func TestRebuilder_MergesBatchesQueuedDuringBuild(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Given: a build that blocks until released
	rec := &recordingBuild{block: make(chan struct{})}
	events := make(chan []FileEvent, 10)
	r := NewRebuilder(rec.build)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), events) }()

	events <- []FileEvent{{Path: "first.html", Operation: OpModify}}
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	// When: three batches queue up while the first build runs
	events <- []FileEvent{{Path: "b.html", Operation: OpCreate}}
	events <- []FileEvent{{Path: "a.html", Operation: OpModify}}
	events <- []FileEvent{{Path: "b.html", Operation: OpDelete}}
	close(rec.block)
	close(events)

	// Then: they are merged into one follow-up build, latest op per path
	require.NoError(t, <-done)
	batches := rec.snapshot()
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a.html", "b.html"}, paths(batches[1]))
	assert.Equal(t, OpDelete, batches[1][1].Operation)
	assert.False(t, rec.overlap, "builds must not overlap")
}

func TestRebuilder_FailureDoesNotStopLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recordingBuild{err: errors.New("parse failed")}
	events := make(chan []FileEvent, 2)
	events <- []FileEvent{{Path: "a.html"}}
	r := NewRebuilder(rec.build)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), events) }()
	require.Eventually(t, func() bool { return r.Failures() == 1 }, time.Second, 5*time.Millisecond)

	events <- []FileEvent{{Path: "b.html"}}
	require.Eventually(t, func() bool { return r.Runs() == 2 }, time.Second, 5*time.Millisecond)
	close(events)

	require.NoError(t, <-done)
	assert.Equal(t, int64(2), r.Failures())
}

func TestRebuilder_ContextCancelStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan []FileEvent)
	r := NewRebuilder((&recordingBuild{}).build)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, events) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("rebuilder did not stop")
	}
	assert.Zero(t, r.Runs())
}

func TestDrain_MergesAndReportsClose(t *testing.T) {
	events := make(chan []FileEvent, 3)
	events <- []FileEvent{{Path: "b.html", Operation: OpModify}}
	close(events)

	merged, closed := drain(events, []FileEvent{{Path: "a.html"}, {Path: "b.html", Operation: OpCreate}})

	assert.True(t, closed)
	assert.Equal(t, []string{"a.html", "b.html"}, paths(merged))
	assert.Equal(t, OpModify, merged[1].Operation)
}
