// Package dashboard holds the state behind the user and blog management
// screens: the loaded collection, the filter criteria, the visible subset
// and the selection.  Each list owns its own state.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hospital-admin/internal/filter"
)

// List is one collection with its criteria and selection.  Every change
// of either the collection or the criteria recomputes the visible subset
// before returning.  It satisfies bulk.Target.
type List[T any] struct {
	mu       sync.Mutex
	load     func(ctx context.Context) ([]T, error)
	fields   filter.Fields[T]
	engine   *filter.Engine[T]
	log      logrus.FieldLogger
	all      []T
	criteria filter.Criteria
	visible  []T
	selected []int64

	// gen counts changes of all or criteria; a recompute only lands when
	// nothing changed while it ran.  loaded is the newest applied load.
	gen    uint64
	loads  uint64
	loaded uint64
}

func newList[T any](load func(ctx context.Context) ([]T, error), f filter.Fields[T], search filter.SearchFunc[T], log logrus.FieldLogger) *List[T] {
	return &List[T]{load: load, fields: f, engine: filter.New(f, search, log), log: log}
}

// Refresh refetches the collection and recomputes the visible subset.
// Selected ids that no longer exist are dropped.
func (l *List[T]) Refresh(ctx context.Context) error {
	l.mu.Lock()
	l.loads++
	seq := l.loads
	l.mu.Unlock()

	items, err := l.load(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	if seq < l.loaded {
		// a newer load already landed
		l.mu.Unlock()
		return nil
	}
	l.loaded = seq
	l.all = items
	l.pruneSelection()
	l.gen++
	gen, c := l.gen, l.criteria
	l.mu.Unlock()
	l.recompute(ctx, gen, items, c)
	return nil
}

func (l *List[T]) recompute(ctx context.Context, gen uint64, all []T, c filter.Criteria) {
	visible := l.engine.Run(ctx, all, c)
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return
	}
	l.visible = visible
}

// SetCriteria replaces the criteria and returns the new visible subset.
func (l *List[T]) SetCriteria(ctx context.Context, c filter.Criteria) []T {
	l.mu.Lock()
	l.criteria = c
	l.gen++
	gen, all := l.gen, l.all
	l.mu.Unlock()
	l.recompute(ctx, gen, all, c)
	return l.Visible()
}

func (l *List[T]) SetTerm(ctx context.Context, term string) []T {
	c := l.Criteria()
	c.Term = term
	return l.SetCriteria(ctx, c)
}

// SetFilter sets one categorical filter; "all" removes it.
func (l *List[T]) SetFilter(ctx context.Context, name, value string) []T {
	return l.SetCriteria(ctx, l.Criteria().Set(name, value))
}

func (l *List[T]) SetDateRange(ctx context.Context, from, to time.Time) []T {
	c := l.Criteria()
	c.From, c.To = from, to
	return l.SetCriteria(ctx, c)
}

// ClearFilters drops every criterion; the visible subset becomes the whole
// collection in its loaded order.
func (l *List[T]) ClearFilters(ctx context.Context) []T {
	return l.SetCriteria(ctx, filter.Criteria{})
}

func (l *List[T]) Criteria() filter.Criteria {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.criteria
}

// All returns a copy of the loaded collection.
func (l *List[T]) All() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.all...)
}

// Visible returns a copy of the visible subset.
func (l *List[T]) Visible() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.visible...)
}

// Item looks an id up in the loaded collection.
func (l *List[T]) Item(id int64) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.find(id)
}

func (l *List[T]) find(id int64) (T, bool) {
	for _, v := range l.all {
		if l.fields.ID(v) == id {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Select adds ids of loaded items to the selection, keeping the order
// they were first selected in.  Unknown ids are ignored.
func (l *List[T]) Select(ids ...int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		if _, ok := l.find(id); !ok || l.isSelected(id) {
			continue
		}
		l.selected = append(l.selected, id)
	}
}

// SelectVisible selects every visible item.
func (l *List[T]) SelectVisible() {
	vis := l.Visible()
	ids := make([]int64, 0, len(vis))
	for _, v := range vis {
		ids = append(ids, l.fields.ID(v))
	}
	l.Select(ids...)
}

func (l *List[T]) Deselect(ids ...int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := l.selected[:0]
	for _, id := range l.selected {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	l.selected = kept
}

func (l *List[T]) Selection() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int64(nil), l.selected...)
}

func (l *List[T]) ClearSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = nil
}

func (l *List[T]) isSelected(id int64) bool {
	for _, s := range l.selected {
		if s == id {
			return true
		}
	}
	return false
}

func (l *List[T]) pruneSelection() {
	kept := l.selected[:0]
	for _, id := range l.selected {
		if _, ok := l.find(id); ok {
			kept = append(kept, id)
		}
	}
	l.selected = kept
}
