package query

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// DefaultDebounceWindow is the quiet period before a query runs.
const DefaultDebounceWindow = 300 * time.Millisecond

// SearchFunc runs one search. Engine.Search satisfies it.
type SearchFunc func(ctx context.Context, q string) ([]Entry, error)

// Update is the outcome of one debounced query.
type Update struct {
	Query      string
	Generation uint64
	Entries    []Entry
	Err        error
}

// DebounceOptions configures a Debouncer.
type DebounceOptions struct {
	Window         time.Duration
	MinQueryLength int
}

// Debouncer runs a search once the query has been stable for the window.
// Every submission starts a new generation; an update is delivered only
// while its generation is still the latest, and starting a new search
// cancels the one in flight.
type Debouncer struct {
	search SearchFunc
	window time.Duration
	minLen int

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	output  chan Update
	stopped bool
	wg      sync.WaitGroup
}

// NewDebouncer creates a Debouncer over search.
func NewDebouncer(search SearchFunc, opts DebounceOptions) *Debouncer {
	if opts.Window <= 0 {
		opts.Window = DefaultDebounceWindow
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	return &Debouncer{
		search: search,
		window: opts.Window,
		minLen: opts.MinQueryLength,
		output: make(chan Update, 16),
	}
}

// Submit records the latest query and restarts the window. A query below
// the minimum length clears the results right away without searching.
func (d *Debouncer) Submit(q string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.cancelInFlight()

	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < d.minLen {
		d.deliver(Update{Query: q, Generation: gen})
		return
	}

	d.timer = time.AfterFunc(d.window, func() {
		d.fire(q, gen)
	})
}

// Generation returns the current generation.
func (d *Debouncer) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

func (d *Debouncer) fire(q string, gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.cancelInFlight()
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer cancel()

		entries, err := d.search(ctx, q)

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.stopped || gen != d.gen {
			slog.Debug("stale_search_discarded", slog.String("query", q), slog.Uint64("generation", gen))
			return
		}
		d.deliver(Update{Query: q, Generation: gen, Entries: entries, Err: err})
	}()
}

// cancelInFlight must be called with mu held.
func (d *Debouncer) cancelInFlight() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// deliver must be called with mu held.
func (d *Debouncer) deliver(u Update) {
	select {
	case d.output <- u:
	default:
		slog.Warn("debouncer output full, dropping update",
			slog.String("query", u.Query),
			slog.Uint64("generation", u.Generation))
	}
}

// Results returns the channel of delivered updates. It is closed by Stop.
func (d *Debouncer) Results() <-chan Update {
	return d.output
}

// Stop cancels pending work, waits for the in-flight search and closes the
// results channel. Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.cancelInFlight()
	d.mu.Unlock()

	d.wg.Wait()
	close(d.output)
}
