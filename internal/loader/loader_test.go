package loader

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder counts loads and initializations per module
type recorder struct {
	mu    sync.Mutex
	loads map[string]int
	inits map[string][]*Element
}

func newRecorder() *recorder {
	return &recorder{loads: make(map[string]int), inits: make(map[string][]*Element)}
}

func (r *recorder) thunk(name string) Thunk {
	return func(ctx context.Context) (Initializer, error) {
		r.mu.Lock()
		r.loads[name]++
		r.mu.Unlock()
		return func(ctx context.Context, root *Element) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.inits[name] = append(r.inits[name], root)
			return nil
		}, nil
	}
}

func TestScanMarkup(t *testing.T) {
	markup := `<!doctype html>
<html><body>
  <div id="upload" data-js-module="xliff-upload">...</div>
  <ul data-js-module="tree-drag  bulk-select tree-drag"><li>x</li></ul>
  <input data-js-module="autocomplete" />
  <span data-js-module="   "></span>
  <p data-other="tree-drag"></p>
</body></html>`

	elements, err := ScanMarkup(strings.NewReader(markup), "")
	require.NoError(t, err)
	require.Len(t, elements, 3)

	assert.Equal(t, "div", elements[0].Tag)
	assert.Equal(t, "upload", elements[0].ID)
	assert.Equal(t, []string{"xliff-upload"}, elements[0].Modules)

	assert.Equal(t, []string{"tree-drag", "bulk-select"}, elements[1].Modules)
	assert.Equal(t, 1, elements[1].Index)

	assert.Equal(t, "input", elements[2].Tag)
	assert.Equal(t, "<input> #2", elements[2].String())
	assert.Equal(t, `<div id="upload">`, elements[0].String())
}

func TestScanMarkup_CustomAttribute(t *testing.T) {
	elements, err := ScanMarkup(strings.NewReader(`<p data-module="a"></p><p data-js-module="b"></p>`), "data-module")
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, []string{"a"}, elements[0].Modules)
}

func TestAttach_InitializesEachPairOnce(t *testing.T) {
	rec := newRecorder()
	registry := Registry{
		"tree-drag":   rec.thunk("tree-drag"),
		"bulk-select": rec.thunk("bulk-select"),
	}
	a := &Element{Index: 0, Tag: "ul", Modules: []string{"tree-drag", "bulk-select"}}
	b := &Element{Index: 1, Tag: "ul", Modules: []string{"tree-drag"}}

	l := New(registry, Options{})
	stats, err := l.Attach(context.Background(), []*Element{a, b})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Initialized)
	assert.Equal(t, 0, stats.Skipped)
	assert.Empty(t, stats.Missing)
	assert.Equal(t, 1, rec.loads["tree-drag"], "a module is loaded once")
	assert.ElementsMatch(t, []*Element{a, b}, rec.inits["tree-drag"])

	// a declares two modules and appears twice: 2 + 1 + 2 pairs
	stats, err = l.Attach(context.Background(), []*Element{a, b, a})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Initialized)
	assert.Equal(t, 5, stats.Skipped)
	assert.Equal(t, 1, rec.loads["tree-drag"])
	assert.Len(t, rec.inits["tree-drag"], 2)
}

func TestAttach_MissingNamesAreNonFatal(t *testing.T) {
	rec := newRecorder()
	l := New(Registry{"known": rec.thunk("known")}, Options{})

	roots := []*Element{
		{Tag: "div", Modules: []string{"unknown", "known"}},
		{Tag: "div", Modules: []string{"unknown", "other"}},
	}
	stats, err := l.Attach(context.Background(), roots)
	require.NoError(t, err)

	assert.Equal(t, []string{"other", "unknown"}, stats.Missing)
	assert.Equal(t, 1, stats.Initialized)
}

func TestAttach_FailuresAreCounted(t *testing.T) {
	loadErr := errors.New("chunk failed")
	registry := Registry{
		"broken-load": func(ctx context.Context) (Initializer, error) { return nil, loadErr },
		"broken-init": func(ctx context.Context) (Initializer, error) {
			return func(ctx context.Context, root *Element) error { return errors.New("boom") }, nil
		},
		"fine": newRecorder().thunk("fine"),
	}
	roots := []*Element{{Modules: []string{"broken-load", "broken-init", "fine"}}}

	stats, err := New(registry, Options{}).Attach(context.Background(), roots)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 1, stats.Initialized)
}

func TestAttach_HangingInitializerDoesNotBlockOthers(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	var finished atomic.Int32
	registry := Registry{
		"hangs": func(ctx context.Context) (Initializer, error) {
			return func(ctx context.Context, root *Element) error {
				<-release
				return nil
			}, nil
		},
		"quick": func(ctx context.Context) (Initializer, error) {
			return func(ctx context.Context, root *Element) error {
				finished.Add(1)
				return nil
			}, nil
		},
	}
	roots := []*Element{
		{Index: 0, Modules: []string{"hangs"}},
		{Index: 1, Modules: []string{"quick"}},
		{Index: 2, Modules: []string{"quick"}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	stats, err := New(registry, Options{}).Attach(ctx, roots)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(2), finished.Load())
	assert.Equal(t, 2, stats.Initialized)
}

func TestAttach_ConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	slow := func(ctx context.Context) (Initializer, error) {
		return func(ctx context.Context, root *Element) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		}, nil
	}

	var roots []*Element
	for i := 0; i < 10; i++ {
		roots = append(roots, &Element{Index: i, Modules: []string{"slow"}})
	}

	stats, err := New(Registry{"slow": slow}, Options{Concurrency: 2}).Attach(context.Background(), roots)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Initialized)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRegistryNames(t *testing.T) {
	r := Registry{"b": nil, "a": nil}
	assert.Equal(t, []string{"a", "b"}, r.Names())
}
