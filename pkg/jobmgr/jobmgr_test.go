package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reports struct {
	mu   sync.Mutex
	msgs []string
}

func (r *reports) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, s)
}

func (r *reports) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func blockUntilCancelled(started chan<- struct{}) func(context.Context) error {
	return func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}
}

func TestStartAndStop(t *testing.T) {
	var rep reports
	jm := NewManager(context.Background(), rep.add)

	started := make(chan struct{})
	require.NoError(t, jm.StartAsync("sweeper", blockUntilCancelled(started)))
	<-started

	assert.Equal(t, []string{"sweeper"}, jm.List())
	assert.Equal(t, "Running jobs: sweeper", jm.Status())
	assert.Error(t, jm.StartAsync("sweeper", func(context.Context) error { return nil }))

	require.NoError(t, jm.Stop("sweeper"))
	jm.Wait()

	assert.Empty(t, jm.List())
	assert.Equal(t, "No jobs are running.", jm.Status())
	assert.Equal(t, []string{"running:sweeper", "done:sweeper"}, rep.all())
	assert.Error(t, jm.Stop("sweeper"))
}

func TestErrorIsReported(t *testing.T) {
	var rep reports
	jm := NewManager(context.Background(), rep.add)

	require.NoError(t, jm.StartAsync("broken", func(context.Context) error {
		return errors.New("disk full")
	}))
	jm.Wait()

	assert.Contains(t, rep.all(), "error:broken:disk full")
	assert.Empty(t, jm.List())
}

func TestParentCancellationStopsJobs(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	jm := NewManager(parent, nil)

	started := make(chan struct{})
	require.NoError(t, jm.StartAsync("a", blockUntilCancelled(started)))
	<-started

	cancel()
	done := make(chan struct{})
	go func() {
		jm.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop after parent cancellation")
	}
}

func TestStopAll(t *testing.T) {
	jm := NewManager(nil, nil)

	a, b := make(chan struct{}), make(chan struct{})
	require.NoError(t, jm.StartAsync("a", blockUntilCancelled(a)))
	require.NoError(t, jm.StartAsync("b", blockUntilCancelled(b)))
	<-a
	<-b
	assert.Equal(t, []string{"a", "b"}, jm.List())

	jm.StopAll()
	jm.Wait()
	assert.Empty(t, jm.List())
}

func TestRestartAfterStopKeepsNewJob(t *testing.T) {
	jm := NewManager(context.Background(), nil)

	first := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, jm.StartAsync("job", func(ctx context.Context) error {
		close(first)
		<-ctx.Done()
		<-release
		return nil
	}))
	<-first
	require.NoError(t, jm.Stop("job"))

	second := make(chan struct{})
	require.NoError(t, jm.StartAsync("job", blockUntilCancelled(second)))
	<-second

	close(release)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"job"}, jm.List())

	jm.StopAll()
	jm.Wait()
}
