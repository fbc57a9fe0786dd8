package schedule

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/stepscript/internal/engine"
	"github.com/calder/stepscript/internal/runlog"
	"github.com/calder/stepscript/internal/script"
	"github.com/calder/stepscript/internal/testutil"
)

func program(t *testing.T, def *script.Definition, q *testutil.StubQuery) *engine.Program {
	t.Helper()
	opts := []engine.Option{}
	if q != nil {
		opts = append(opts, engine.WithQueryExecutor(q))
	}
	p, err := engine.New(def, opts...)
	require.NoError(t, err)
	return p
}

func TestAdd_InvalidCronExpression(t *testing.T) {
	s := New()
	p := program(t, &script.Definition{
		Name: "bad", Schedule: "not a cron", Steps: []any{},
	}, nil)
	err := s.Add(p)
	require.Error(t, err)
	var se *ScheduleError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bad", se.Script)
	assert.Equal(t, "not a cron", se.Expression)
}

func TestAdd_AcceptsSecondsField(t *testing.T) {
	s := New()
	p := program(t, &script.Definition{
		Name: "secs", Schedule: "*/5 * * * * *", Steps: []any{},
	}, nil)
	require.NoError(t, s.Add(p))

	p = program(t, &script.Definition{
		Name: "five-field", Schedule: "*/5 * * * *", Steps: []any{},
	}, nil)
	require.NoError(t, s.Add(p))
}

func TestAdd_UnscheduledProgramIsAccepted(t *testing.T) {
	s := New()
	p := program(t, &script.Definition{Name: "manual", Steps: []any{}}, nil)
	require.NoError(t, s.Add(p))
}

func TestRun_StartupTrigger(t *testing.T) {
	q := &testutil.StubQuery{}
	s := New(WithStartupDelay(10 * time.Millisecond))
	p := program(t, &script.Definition{
		Name: "boot", RunOnStartup: true,
		Steps: []any{map[string]any{"query": "ping"}},
	}, q)
	require.NoError(t, s.Add(p))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(q.Calls()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_StartupTriggerRecordsRun(t *testing.T) {
	store, err := runlog.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	q := &testutil.StubQuery{Results: []any{"pong"}}
	s := New(WithStartupDelay(10*time.Millisecond), WithRunLog(store))
	p := program(t, &script.Definition{
		Name: "boot", RunOnStartup: true,
		Steps: []any{map[string]any{"query": "ping"}},
	}, q)
	require.NoError(t, s.Add(p))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		runs, err := store.List(context.Background(), "boot", 0)
		return err == nil && len(runs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	runs, err := store.List(context.Background(), "boot", 0)
	require.NoError(t, err)
	assert.Equal(t, runlog.StatusOK, runs[0].Status)
}

func TestTrigger_SkipsBusyProgram(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := &testutil.StubQuery{Fn: func(context.Context, any, map[string]any) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil, nil
	}}
	p := program(t, &script.Definition{
		Name: "slow", Steps: []any{map[string]any{"query": "x"}},
	}, q)

	s := New()
	e := &entry{program: p}

	go s.trigger(context.Background(), e, "test")
	<-started

	// Second tick while the first is still in flight is dropped.
	s.trigger(context.Background(), e, "test")
	assert.Len(t, q.Calls(), 1)

	close(release)
	require.Eventually(t, func() bool { return !p.Busy() }, 2*time.Second, 5*time.Millisecond)
}

func TestStop_UnblocksRun(t *testing.T) {
	s := New()
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.started
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
