package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/neboloop/pageverify/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Disable()
	goleak.VerifyTestMain(m)
}

// recorder collects triggers from RunFunc calls.
type recorder struct {
	mu       sync.Mutex
	triggers []Trigger
	notify   chan Trigger
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan Trigger, 16)}
}

func (r *recorder) run(_ context.Context, trigger Trigger) {
	r.mu.Lock()
	r.triggers = append(r.triggers, trigger)
	r.mu.Unlock()
	r.notify <- trigger
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.triggers)
}

func (r *recorder) wait(t *testing.T, timeout time.Duration) Trigger {
	t.Helper()
	select {
	case tr := <-r.notify:
		return tr
	case <-time.After(timeout):
		t.Fatalf("no run within %s", timeout)
		return ""
	}
}

// start runs fn in a goroutine and returns a stop func that cancels it and
// waits for it to return.
func start(t *testing.T, fn func(ctx context.Context) error) (stop func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("did not stop")
			return nil
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	writeFile(t, page, "<h1>v0</h1>")

	rec := newRecorder()
	w := NewWatcher([]string{page}, 100*time.Millisecond, rec.run)
	stop := start(t, w.Watch)

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		writeFile(t, page, "<h1>burst</h1>")
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, TriggerChange, rec.wait(t, 3*time.Second))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, rec.count())

	require.NoError(t, stop())
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	writeFile(t, page, "<h1>v0</h1>")

	rec := newRecorder()
	w := NewWatcher([]string{page}, 50*time.Millisecond, rec.run)
	stop := start(t, w.Watch)

	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "notes.txt"), "unrelated")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "jules-scratch"), 0755))
	time.Sleep(300 * time.Millisecond)

	assert.Equal(t, 0, rec.count())
	require.NoError(t, stop())
}

func TestWatcherSeesReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	writeFile(t, page, "<h1>v0</h1>")

	rec := newRecorder()
	w := NewWatcher([]string{page}, 50*time.Millisecond, rec.run)
	stop := start(t, w.Watch)

	time.Sleep(100 * time.Millisecond)
	tmp := filepath.Join(dir, ".index.html.swp")
	writeFile(t, tmp, "<h1>v1</h1>")
	require.NoError(t, os.Rename(tmp, page))

	assert.Equal(t, TriggerChange, rec.wait(t, 3*time.Second))
	require.NoError(t, stop())
}

func TestWatcherMissingDir(t *testing.T) {
	w := NewWatcher([]string{filepath.Join(t.TempDir(), "gone", "index.html")}, 0, newRecorder().run)
	err := w.Watch(context.Background())
	assert.ErrorContains(t, err, "watch")
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("every tuesday", newRecorder().run)
	assert.ErrorContains(t, err, "invalid cron expression")
}

func TestSchedulerRuns(t *testing.T) {
	rec := newRecorder()
	s, err := NewScheduler("@every 1s", rec.run)
	require.NoError(t, err)

	stop := start(t, s.Start)
	assert.Equal(t, TriggerSchedule, rec.wait(t, 3*time.Second))
	require.NoError(t, stop())
}

func TestRunRequiresTrigger(t *testing.T) {
	err := Run(context.Background(), Options{}, newRecorder().run)
	assert.ErrorContains(t, err, "nothing to watch")
}

func TestRunInvalidCron(t *testing.T) {
	rec := newRecorder()
	err := Run(context.Background(), Options{Cron: "61 * * * *", RunOnStart: true}, rec.run)
	assert.ErrorContains(t, err, "invalid cron expression")
	assert.Equal(t, 0, rec.count())
}

func TestRunOnStartThenWatch(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	writeFile(t, page, "<h1>v0</h1>")

	rec := newRecorder()
	stop := start(t, func(ctx context.Context) error {
		return Run(ctx, Options{Paths: []string{page}, Debounce: 50 * time.Millisecond, RunOnStart: true}, rec.run)
	})

	assert.Equal(t, TriggerStart, rec.wait(t, time.Second))

	time.Sleep(100 * time.Millisecond)
	writeFile(t, page, "<h1>v1</h1>")
	assert.Equal(t, TriggerChange, rec.wait(t, 3*time.Second))

	require.NoError(t, stop())
}
