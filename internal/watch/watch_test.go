package watch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"go.uber.org/goleak"
)

const wait = 3 * time.Second

func newWatcher(t *testing.T, debounce time.Duration) (*Watcher, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fsnotify keeps background goroutines on windows")
	}
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte("elements: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := New(path, WithDebounce(debounce))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return w, path
}

func expectChange(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Changes():
	case <-time.After(wait):
		t.Fatal("no change reported")
	}
}

func expectQuiet(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	select {
	case <-w.Changes():
		t.Fatal("unexpected change reported")
	case <-time.After(d):
	}
}

func TestWatcherReportsWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, path := newWatcher(t, 20*time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("dpr: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectChange(t, w)

	if got := w.Stats(); got.Events == 0 || got.Notifications != 1 {
		t.Errorf("Stats() = %+v, want events > 0 and 1 notification", got)
	}
}

func TestWatcherReportsAtomicSave(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, path := newWatcher(t, 20*time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte("dpr: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	expectChange(t, w)
}

func TestWatcherDebounces(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, path := newWatcher(t, 300*time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("dpr: 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	expectChange(t, w)
	expectQuiet(t, w, 500*time.Millisecond)

	if got := w.Stats().Notifications; got != 1 {
		t.Errorf("Notifications = %d, want 1", got)
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, path := newWatcher(t, 10*time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	other := filepath.Join(filepath.Dir(path), "other.txt")
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, w, 300*time.Millisecond)
}

func TestWatcherContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, _ := newWatcher(t, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(wait):
		t.Fatal("event loop did not exit on cancel")
	}
	w.Stop()
}

func TestWatcherStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, _ := newWatcher(t, 10*time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Errorf("second Start() error: %v", err)
	}
	w.Stop()
	w.Stop()

	if err := w.Start(context.Background()); err == nil {
		t.Error("Start() after Stop succeeded, want error")
	}
}

func TestStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, _ := newWatcher(t, 10*time.Millisecond)
	w.Stop()
}
