package paging

import (
	"context"
	"sync"
)

// State is where a Pager is in its load cycle.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Query is the parameter set a Pager loads.  Filter is free-text search.
// Fresh is set only on the query handed to the Loader by Refresh.
type Query struct {
	Table     string
	Page      int
	PageSize  int
	OrderBy   string
	Ascending bool
	Filter    string
	Fresh     bool
}

// Result is one loaded page.
type Result[T any] struct {
	Rows  []T
	Total int64
}

// Loader fetches the page described by q.  It must honor ctx cancellation.
type Loader[T any] func(ctx context.Context, q Query) (Result[T], error)

// Snapshot is a copy of the Pager's observable state.
type Snapshot[T any] struct {
	State      State
	Query      Query
	Rows       []T
	Total      int64
	HasMore    bool
	TotalPages int
	Err        error
	Seq        uint64
}

// Pager drives page loads for one list.  Every parameter change starts a
// new load and cancels the one in flight; results from a superseded load
// are dropped.  When a load fails the previous rows stay visible next to
// Err.
type Pager[T any] struct {
	mu       sync.Mutex
	parent   context.Context
	load     Loader[T]
	onChange func(Snapshot[T])

	q     Query
	state State
	rows  []T
	total int64
	err   error

	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}

	notifyMu    sync.Mutex
	notifiedSeq uint64
	settled     bool
}

// Option configures a Pager.
type Option[T any] func(*Pager[T])

// WithOnChange registers fn to be called after every state transition.
// fn runs without the Pager's lock held, one call at a time.  Snapshots
// of a superseded load are not delivered.
func WithOnChange[T any](fn func(Snapshot[T])) Option[T] {
	return func(p *Pager[T]) { p.onChange = fn }
}

// NewPager returns an idle Pager.  Loads run under ctx.
func NewPager[T any](ctx context.Context, load Loader[T], q Query, opts ...Option[T]) *Pager[T] {
	if q.Page < 1 {
		q.Page = 1
	}
	p := &Pager[T]{parent: ctx, load: load, q: q}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start issues the first load.
func (p *Pager[T]) Start() { p.update(func(*Query) bool { return true }) }

// Refresh reloads the current query, asking the Loader to skip caches.
func (p *Pager[T]) Refresh() {
	p.update(func(q *Query) bool {
		q.Fresh = true
		return true
	})
}

// SetPage jumps to page n.  Pages below 1 are ignored.
func (p *Pager[T]) SetPage(n int) bool {
	return p.update(func(q *Query) bool {
		if n < 1 {
			return false
		}
		q.Page = n
		return true
	})
}

// Next advances one page unless the current page is the last.
func (p *Pager[T]) Next() bool {
	return p.updateWithTotal(func(q *Query, total int64) bool {
		if q.Page >= TotalPages(q.PageSize, total) {
			return false
		}
		q.Page++
		return true
	})
}

// Prev goes back one page unless already on page 1.
func (p *Pager[T]) Prev() bool {
	return p.update(func(q *Query) bool {
		if q.Page <= 1 {
			return false
		}
		q.Page--
		return true
	})
}

// SetFilter changes the search text and returns to page 1.
func (p *Pager[T]) SetFilter(f string) bool {
	return p.update(func(q *Query) bool {
		q.Filter = f
		q.Page = 1
		return true
	})
}

// SetOrder changes the sort column and direction.
func (p *Pager[T]) SetOrder(col string, asc bool) bool {
	return p.update(func(q *Query) bool {
		q.OrderBy, q.Ascending = col, asc
		return true
	})
}

// SetTable switches to another table, clearing rows, filter and order.
func (p *Pager[T]) SetTable(table string) bool {
	return p.update(func(q *Query) bool {
		if q.Table == table {
			return false
		}
		p.rows, p.total, p.err = nil, 0, nil
		*q = Query{Table: table, Page: 1, PageSize: q.PageSize}
		return true
	})
}

func (p *Pager[T]) update(fn func(*Query) bool) bool {
	return p.updateWithTotal(func(q *Query, _ int64) bool { return fn(q) })
}

func (p *Pager[T]) updateWithTotal(fn func(*Query, int64) bool) bool {
	p.mu.Lock()
	q := p.q
	if !fn(&q, p.total) {
		p.mu.Unlock()
		return false
	}
	p.q = q
	p.q.Fresh = false
	seq, ctx := p.beginLocked()
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.notify(snap)
	go p.run(ctx, seq, q)
	return true
}

// beginLocked supersedes any load in flight and opens a new one.
func (p *Pager[T]) beginLocked() (uint64, context.Context) {
	if p.cancel != nil {
		p.cancel()
	}
	if p.state == Loading && p.done != nil {
		close(p.done)
	}
	p.seq++
	ctx, cancel := context.WithCancel(p.parent)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.state = Loading
	return p.seq, ctx
}

func (p *Pager[T]) run(ctx context.Context, seq uint64, q Query) {
	res, err := p.load(ctx, q)

	p.mu.Lock()
	if seq != p.seq {
		p.mu.Unlock()
		return
	}
	if err != nil {
		p.state, p.err = Failed, err
	} else {
		p.state, p.err = Loaded, nil
		p.rows, p.total = res.Rows, res.Total
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	close(p.done)
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.notify(snap)
}

func (p *Pager[T]) notify(s Snapshot[T]) {
	if p.onChange == nil {
		return
	}
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	if s.Seq < p.notifiedSeq || (s.Seq == p.notifiedSeq && p.settled && s.State == Loading) {
		return
	}
	p.notifiedSeq, p.settled = s.Seq, s.State != Loading
	p.onChange(s)
}

// Snapshot returns the current state without blocking.
func (p *Pager[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Pager[T]) snapshotLocked() Snapshot[T] {
	rows := make([]T, len(p.rows))
	copy(rows, p.rows)
	return Snapshot[T]{
		State:      p.state,
		Query:      p.q,
		Rows:       rows,
		Total:      p.total,
		HasMore:    HasMore(p.q.Page, p.q.PageSize, p.total),
		TotalPages: TotalPages(p.q.PageSize, p.total),
		Err:        p.err,
		Seq:        p.seq,
	}
}

// Wait blocks until the most recent load settles or ctx is done.
func (p *Pager[T]) Wait(ctx context.Context) (Snapshot[T], error) {
	for {
		p.mu.Lock()
		if p.state != Loading {
			s := p.snapshotLocked()
			p.mu.Unlock()
			return s, nil
		}
		done := p.done
		p.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return p.Snapshot(), ctx.Err()
		}
	}
}

// Close cancels any load in flight.
func (p *Pager[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
