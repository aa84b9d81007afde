// Package loader models the run-time side of the registry: a loader that
// finds root elements declaring feature modules, resolves the names through
// the registry, loads each module once and initializes it once per root.
// The audit command uses it to check rendered markup against the registry.
package loader

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Initializer is a loaded module's init function
type Initializer func(ctx context.Context, root *Element) error

// Thunk lazily loads a module and yields its initializer
type Thunk func(ctx context.Context) (Initializer, error)

// Registry maps module names to lazy loaders
type Registry map[string]Thunk

// Names returns the registered names in sorted order
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options configures a Loader
type Options struct {
	// Concurrency limits simultaneous loads and initializations; zero means
	// unlimited
	Concurrency int
	// Logger defaults to a no-op logger
	Logger *zap.Logger
}

// Stats summarizes one Attach call
type Stats struct {
	// Initialized counts (module, root) pairs whose initializer returned
	Initialized int
	// Skipped counts pairs already initialized by this loader
	Skipped int
	// Failed counts pairs whose load or initializer returned an error
	Failed int
	// Missing lists declared names absent from the registry, sorted
	Missing []string
}

// moduleLoad holds the result of loading one module
type moduleLoad struct {
	once sync.Once
	init Initializer
	err  error
}

type pair struct {
	module string
	root   *Element
}

// Loader attaches feature modules to root elements. A Loader corresponds to
// one page load: each (module, root) pair is initialized at most once over
// its lifetime and each module is loaded at most once.
type Loader struct {
	registry Registry
	options  Options
	logger   *zap.Logger

	mu      sync.Mutex
	modules map[string]*moduleLoad
	claimed map[pair]bool
}

// New creates a loader for registry
func New(registry Registry, options Options) *Loader {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		registry: registry,
		options:  options,
		logger:   logger,
		modules:  make(map[string]*moduleLoad),
		claimed:  make(map[pair]bool),
	}
}

// Attach initializes every module declared by roots. Names missing from the
// registry are logged and skipped. Distinct modules and roots are handled
// concurrently, so a hanging initializer holds up only its own pair; Attach
// returns ctx.Err() with partial stats if ctx ends before all pairs finish.
func (l *Loader) Attach(ctx context.Context, roots []*Element) (*Stats, error) {
	stats := &Stats{}
	var statsMu sync.Mutex
	missing := make(map[string]bool)

	g, gctx := errgroup.WithContext(ctx)
	if l.options.Concurrency > 0 {
		g.SetLimit(l.options.Concurrency)
	}

	for _, root := range roots {
		for _, name := range root.Modules {
			thunk, ok := l.registry[name]
			if !ok {
				if !missing[name] {
					missing[name] = true
					l.logger.Warn("module not in registry", zap.String("module", name), zap.Stringer("root", root))
				}
				continue
			}
			if !l.claim(name, root) {
				stats.Skipped++
				continue
			}

			name, root := name, root
			g.Go(func() error {
				err := l.initialize(gctx, name, thunk, root)

				statsMu.Lock()
				defer statsMu.Unlock()
				if err != nil {
					stats.Failed++
					l.logger.Error("module initialization failed",
						zap.String("module", name), zap.Stringer("root", root), zap.Error(err))
				} else {
					stats.Initialized++
				}
				return nil
			})
		}
	}

	for name := range missing {
		stats.Missing = append(stats.Missing, name)
	}
	sort.Strings(stats.Missing)

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return stats, nil
	case <-ctx.Done():
		statsMu.Lock()
		partial := *stats
		statsMu.Unlock()
		return &partial, ctx.Err()
	}
}

// claim marks a pair as initialized and reports whether it was new
func (l *Loader) claim(module string, root *Element) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := pair{module: module, root: root}
	if l.claimed[key] {
		return false
	}
	l.claimed[key] = true
	return true
}

func (l *Loader) initialize(ctx context.Context, name string, thunk Thunk, root *Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	load, ok := l.modules[name]
	if !ok {
		load = &moduleLoad{}
		l.modules[name] = load
	}
	l.mu.Unlock()

	load.once.Do(func() {
		load.init, load.err = thunk(ctx)
	})
	if load.err != nil {
		return load.err
	}
	return load.init(ctx, root)
}
