package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/pageverify/internal/browser"
	"github.com/neboloop/pageverify/internal/logging"
	"github.com/neboloop/pageverify/internal/verify"
)

func init() {
	logging.Disable()
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func result(id string, started time.Time, status verify.Status) *verify.Result {
	return &verify.Result{
		ID:         id,
		Plan:       verify.DefaultPlanName,
		Input:      "index.html",
		URL:        "file:///srv/index.html",
		Driver:     browser.DriverPlaywright,
		Status:     status,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Checks: []verify.CheckResult{
			{Check: verify.Check{Locator: browser.Heading("Secure Scribble IDE")}, Status: verify.CheckPassed, Timeout: 5 * time.Second, Duration: 40 * time.Millisecond},
			{Check: verify.Check{Locator: browser.Heading("Failed Tests"), Timeout: 10 * time.Second}, Status: verify.CheckFailed, Timeout: 10 * time.Second, Error: "timeout"},
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	started := time.UnixMilli(1_760_000_000_000)

	res := result("run-1", started, verify.StatusFailed)
	res.Error = "check 2 failed"
	require.NoError(t, s.Record(ctx, res))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, verify.StatusFailed, got.Status)
	assert.Equal(t, "file:///srv/index.html", got.URL)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Equal(t, 1500*time.Millisecond, got.Duration())
	assert.Equal(t, "check 2 failed", got.Error)
	assert.Equal(t, res.Checks, got.Checks)
}

func TestGetUnknown(t *testing.T) {
	s := openStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	started := time.UnixMilli(1_760_000_000_000)

	require.NoError(t, s.Record(ctx, result("run-1", started, verify.StatusFailed)))
	res := result("run-1", started, verify.StatusPassed)
	res.Screenshot = "jules-scratch/verification/verification.png"
	res.ScreenshotBytes = 2048
	require.NoError(t, s.Record(ctx, res))

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, verify.StatusPassed, runs[0].Status)
	assert.Equal(t, 2048, runs[0].ScreenshotBytes)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_760_000_000_000)

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("run-%d", i)
		require.NoError(t, s.Record(ctx, result(id, base.Add(time.Duration(i)*time.Minute), verify.StatusPassed)))
	}

	runs, err := s.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-4", runs[0].ID)
	assert.Equal(t, "run-3", runs[1].ID)
	assert.Equal(t, "run-2", runs[2].ID)
}

func TestReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, result("run-1", time.UnixMilli(1_760_000_000_000), verify.StatusPassed)))
	require.NoError(t, s.Close())

	// Migrations are idempotent on an existing database
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunResult(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	res := result("run-1", time.UnixMilli(1_760_000_000_000), verify.StatusFailed)
	require.NoError(t, s.Record(ctx, res))

	run, err := s.Get(ctx, "run-1")
	require.NoError(t, err)

	back := run.Result()
	assert.Equal(t, res.ID, back.ID)
	assert.Equal(t, res.Checks, back.Checks)
	assert.Equal(t, res.Duration(), back.Duration())
	assert.Empty(t, back.Snapshot)
}
