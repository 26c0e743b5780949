package reload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/quire/internal/templates"
	"github.com/starford/quire/internal/testutil"
)

// fakeTarget records reloads and fails while failing is set.
type fakeTarget struct {
	set     *templates.Set
	calls   atomic.Int32
	active  atomic.Int32
	overlap atomic.Bool
	delay   time.Duration
	failing atomic.Bool
}

func (f *fakeTarget) Reload() (*templates.Set, error) {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.active.Add(-1)
	f.calls.Add(1)
	time.Sleep(f.delay)
	if f.failing.Load() {
		return nil, errors.New("broken template")
	}
	return f.set, nil
}

type fakeAssets struct {
	calls atomic.Int32
	err   error
}

func (a *fakeAssets) Build(context.Context) error {
	a.calls.Add(1)
	return a.err
}

func testSet(t *testing.T) *templates.Set {
	t.Helper()
	dir := testutil.TestTemplates(t, map[string]string{"index.html": "hi"})
	set, err := templates.Build(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestRebuild_Success(t *testing.T) {
	target := &fakeTarget{set: testSet(t)}
	assets := &fakeAssets{}
	var got []Cycle
	r := New(target, WithAssets(assets), WithLogger(testutil.Logger()), WithObserver(func(c Cycle) {
		got = append(got, c)
	}))

	c := r.Rebuild(context.Background())
	if !c.OK() || c.Templates != 1 || c.Seq != 1 {
		t.Errorf("cycle = %+v", c)
	}
	if assets.calls.Load() != 1 || target.calls.Load() != 1 {
		t.Errorf("assets=%d target=%d, want 1 each", assets.calls.Load(), target.calls.Load())
	}
	if len(got) != 1 || got[0] != c {
		t.Errorf("observer got %+v", got)
	}
	if r.State() != StateIdle {
		t.Errorf("state = %s, want idle", r.State())
	}
}

func TestRebuild_AssetFailureDoesNotBlockReload(t *testing.T) {
	target := &fakeTarget{set: testSet(t)}
	r := New(target, WithAssets(&fakeAssets{err: errors.New("tailwind missing")}), WithLogger(testutil.Logger()))

	c := r.Rebuild(context.Background())
	if target.calls.Load() != 1 {
		t.Fatal("template reload skipped after asset failure")
	}
	if !c.OK() || !strings.Contains(c.AssetError, "tailwind missing") {
		t.Errorf("cycle = %+v", c)
	}
}

func TestRebuild_FailureReported(t *testing.T) {
	target := &fakeTarget{set: testSet(t)}
	target.failing.Store(true)
	r := New(target, WithLogger(testutil.Logger()))

	c := r.Rebuild(context.Background())
	if c.OK() || c.Error != "broken template" {
		t.Errorf("cycle = %+v", c)
	}
	if r.State() != StateIdle {
		t.Errorf("state = %s, want idle after failure", r.State())
	}
}

func TestRun_SequentialUnderBurst(t *testing.T) {
	target := &fakeTarget{set: testSet(t), delay: 20 * time.Millisecond}
	r := New(target, WithLogger(testutil.Logger()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx, signals)
		close(done)
	}()

	for i := 0; i < 50; i++ {
		notify(signals)
		time.Sleep(time.Millisecond)
	}

	testutil.Eventually(t, 5*time.Second, 10*time.Millisecond, func() bool {
		return len(signals) == 0 && r.State() == StateIdle && target.calls.Load() > 0
	}, "reloader did not drain signals")

	if target.overlap.Load() {
		t.Error("rebuilds overlapped")
	}
	if n := target.calls.Load(); n >= 50 {
		t.Errorf("calls = %d, expected bursts to coalesce", n)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ClosedChannel(t *testing.T) {
	r := New(&fakeTarget{set: testSet(t)}, WithLogger(testutil.Logger()))
	signals := make(chan struct{})
	close(signals)
	if err := r.Run(context.Background(), signals); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestStoreReloadThroughReloader(t *testing.T) {
	dir := testutil.TestTemplates(t, map[string]string{"index.html": "v1"})
	store, err := templates.NewStore(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	r := New(store, WithLogger(testutil.Logger()))

	testutil.WriteFiles(t, dir, map[string]string{"index.html": "{% if %}"})
	if c := r.Rebuild(context.Background()); c.OK() {
		t.Fatal("expected failed cycle")
	}
	if out, _ := store.Render("index", nil); out != "v1" {
		t.Errorf("after failure index = %q, want v1", out)
	}

	testutil.WriteFiles(t, dir, map[string]string{"index.html": "v2"})
	if c := r.Rebuild(context.Background()); !c.OK() {
		t.Fatalf("cycle failed: %s", c.Error)
	}
	if out, _ := store.Render("index", nil); out != "v2" {
		t.Errorf("after success index = %q, want v2", out)
	}
}

func TestWatch_SignalsOnChange(t *testing.T) {
	dir := testutil.TestTemplates(t, map[string]string{"index.html": "v1"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = Watch(ctx, dir, testutil.Logger(), signals)
	}()
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "index.html"), []byte("v2"), 0o644)
	select {
	case <-signals:
	case <-time.After(5 * time.Second):
		t.Fatal("no signal after file write")
	}

	// Drain anything left from the first write before checking the subdir.
	time.Sleep(100 * time.Millisecond)
	select {
	case <-signals:
	default:
	}

	sub := filepath.Join(dir, "partials")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(200 * time.Millisecond)
	select {
	case <-signals:
	default:
	}
	_ = os.WriteFile(filepath.Join(sub, "nav.html"), []byte("nav"), 0o644)
	select {
	case <-signals:
	case <-time.After(5 * time.Second):
		t.Fatal("no signal for file in new subdirectory")
	}

	cancel()
	wg.Wait()
}

func TestShellBuilder(t *testing.T) {
	dir := t.TempDir()
	ok := ShellBuilder{Command: "echo built > out.css", Dir: dir}
	if err := ok.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out.css"))
	if err != nil || strings.TrimSpace(string(data)) != "built" {
		t.Errorf("out.css = %q, %v", data, err)
	}

	bad := ShellBuilder{Command: "echo nope >&2; exit 3", Dir: dir}
	err = bad.Build(context.Background())
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("err = %v, want failure with output", err)
	}

	slow := ShellBuilder{Command: "sleep 5", Timeout: 50 * time.Millisecond}
	if err := slow.Build(context.Background()); err == nil {
		t.Error("expected timeout error")
	}

	if err := (ShellBuilder{}).Build(context.Background()); err != nil {
		t.Errorf("empty command: %v", err)
	}
}
