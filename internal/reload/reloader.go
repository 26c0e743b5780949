package reload

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/quire/internal/templates"
)

// State is the reloader's position in its cycle.
type State int32

const (
	StateIdle State = iota
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRebuilding:
		return "rebuilding"
	default:
		return "unknown"
	}
}

// AssetBuilder regenerates derived assets (e.g. compiled stylesheets)
// before templates are rebuilt.
type AssetBuilder interface {
	Build(ctx context.Context) error
}

// TemplateReloader rebuilds a template set and makes it live, leaving the
// previous set in place on failure. *templates.Store implements it.
type TemplateReloader interface {
	Reload() (*templates.Set, error)
}

// Cycle records the outcome of one rebuild.
type Cycle struct {
	Seq        int64         `json:"seq"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Templates  int           `json:"templates"`
	AssetError string        `json:"asset_error,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// OK reports whether the new template set went live.
func (c Cycle) OK() bool { return c.Error == "" }

// Observer is told about every finished cycle, on the reloader goroutine.
type Observer func(Cycle)

// Option configures a Reloader.
type Option func(*Reloader)

// WithAssets runs b at the start of every cycle.
func WithAssets(b AssetBuilder) Option {
	return func(r *Reloader) { r.assets = b }
}

// WithObserver registers o for cycle outcomes.
func WithObserver(o Observer) Option {
	return func(r *Reloader) { r.observers = append(r.observers, o) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reloader) { r.logger = l }
}

// Reloader turns change signals into sequential template rebuilds.
type Reloader struct {
	target    TemplateReloader
	assets    AssetBuilder
	observers []Observer
	logger    *slog.Logger

	mu    sync.Mutex // held for the duration of a cycle
	state atomic.Int32
	seq   atomic.Int64
}

// New creates a Reloader for target.
func New(target TemplateReloader, opts ...Option) *Reloader {
	r := &Reloader{target: target, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state.
func (r *Reloader) State() State {
	return State(r.state.Load())
}

// Cycles returns how many cycles have completed.
func (r *Reloader) Cycles() int64 {
	return r.seq.Load()
}

// Run consumes signals until ctx is cancelled or signals is closed, running
// one full cycle per received signal. Signals arriving during a cycle wait
// in the channel and are handled after it; cycles never overlap.
func (r *Reloader) Run(ctx context.Context, signals <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			r.Rebuild(ctx)
		}
	}
}

// Rebuild runs one cycle: asset build (failure logged, not fatal), then a
// full template rebuild. On failure the previous set stays live.
func (r *Reloader) Rebuild(ctx context.Context) Cycle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Store(int32(StateRebuilding))
	defer r.state.Store(int32(StateIdle))

	c := Cycle{StartedAt: time.Now()}

	if r.assets != nil {
		if err := r.assets.Build(ctx); err != nil {
			c.AssetError = err.Error()
			r.logger.Warn("reload: asset build failed", slog.String("error", err.Error()))
		}
	}

	set, err := r.target.Reload()
	if err != nil {
		c.Error = err.Error()
		r.logger.Error("reload: template rebuild failed, keeping previous set", slog.String("error", err.Error()))
	} else {
		c.Templates = len(set.Files())
	}
	c.Duration = time.Since(c.StartedAt)
	c.Seq = r.seq.Add(1)

	if c.OK() {
		r.logger.Info("reload: templates reloaded",
			slog.Int64("seq", c.Seq),
			slog.Int("templates", c.Templates),
			slog.Duration("duration", c.Duration))
	}

	for _, o := range r.observers {
		o(c)
	}
	return c
}
