package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/labreport-signatures/internal/pipeline"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"b.pdf",
		"a.PDF",
		"notes.txt",
		"sub/c.pdf",
		".hidden/d.pdf",
		".e.pdf",
		"scan.png",
	} {
		touch(t, filepath.Join(root, p))
	}

	tests := []struct {
		name       string
		exts       []string
		skipHidden bool
		want       []string
	}{
		{"pdf default skip hidden", nil, true, []string{"a.PDF", "b.pdf", "sub/c.pdf"}},
		{"pdf default with hidden", nil, false, []string{".e.pdf", ".hidden/d.pdf", "a.PDF", "b.pdf", "sub/c.pdf"}},
		{"explicit extensions", []string{".png", " PDF "}, true, []string{"a.PDF", "b.pdf", "scan.png", "sub/c.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats, err := Scan(root, tt.exts, tt.skipHidden)
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			want := make([]string, len(tt.want))
			for i, p := range tt.want {
				want[i] = filepath.Join(root, filepath.FromSlash(p))
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
			if stats.Matched != len(want) {
				t.Errorf("matched = %d, want %d", stats.Matched, len(want))
			}
		})
	}
}

func TestScanErrors(t *testing.T) {
	if _, _, err := Scan("  ", nil, true); err == nil {
		t.Error("expected error for empty root")
	}
	if _, _, err := Scan(filepath.Join(t.TempDir(), "missing"), nil, true); err == nil {
		t.Error("expected error for missing root")
	}
}

type mockProcessor struct {
	mu     sync.Mutex
	seen   []string
	fail   map[string]error
	delay  time.Duration
	active atomic.Int32
	peak   atomic.Int32
}

func (m *mockProcessor) Process(ctx context.Context, path string, _ pipeline.Options) (*pipeline.Result, error) {
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(m.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	m.mu.Lock()
	m.seen = append(m.seen, path)
	m.mu.Unlock()
	if err := m.fail[path]; err != nil {
		return nil, err
	}
	return &pipeline.Result{DocumentPath: path}, nil
}

func TestQueueProcessesInSubmissionOrder(t *testing.T) {
	boom := errors.New("boom")
	proc := &mockProcessor{delay: 5 * time.Millisecond, fail: map[string]error{"r3.pdf": boom}}
	q := NewQueue(context.Background(), proc, pipeline.Options{}, nil, WithWorkers(3), WithQueueSize(2))

	paths := []string{"r0.pdf", "r1.pdf", "r2.pdf", "r3.pdf", "r4.pdf", "r5.pdf", "r6.pdf"}
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), p); err != nil {
			t.Fatalf("Enqueue(%s): %v", p, err)
		}
	}
	outcomes, err := q.Shutdown(context.Background())
	if err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if len(outcomes) != len(paths) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(paths))
	}
	for i, o := range outcomes {
		if o.Path != paths[i] {
			t.Errorf("outcome %d path = %s, want %s", i, o.Path, paths[i])
		}
		if o.TraceID == "" {
			t.Errorf("outcome %d has no trace id", i)
		}
		if o.Path == "r3.pdf" {
			if !errors.Is(o.Err, boom) {
				t.Errorf("r3 err = %v, want boom", o.Err)
			}
			continue
		}
		if o.Err != nil || o.Result == nil || o.Result.DocumentPath != o.Path {
			t.Errorf("outcome %d = %+v", i, o)
		}
	}
	if peak := proc.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	q := NewQueue(context.Background(), &mockProcessor{}, pipeline.Options{}, nil)
	if _, err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := q.Enqueue(context.Background(), "late.pdf"); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("err = %v, want ErrQueueClosed", err)
	}
	if _, err := q.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestQueueProcessTimeout(t *testing.T) {
	proc := &mockProcessor{delay: time.Second}
	q := NewQueue(context.Background(), proc, pipeline.Options{}, nil, WithProcessTimeout(10*time.Millisecond))
	if err := q.Enqueue(context.Background(), "slow.pdf"); err != nil {
		t.Fatal(err)
	}
	outcomes, err := q.Shutdown(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 || !errors.Is(outcomes[0].Err, context.DeadlineExceeded) {
		t.Fatalf("outcomes = %+v, want one deadline error", outcomes)
	}
}
