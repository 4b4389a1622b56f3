// Package filter computes the visible subset of a collection from a set of
// independent criteria.  Every criterion is a predicate and the result is
// their conjunction, so the order they are applied in never matters and
// the relative order of the collection is kept.
package filter

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hospital-admin/internal/logging"
)

// All is the filter value that means "no filter".
const All = "all"

// Criteria is the declarative filter state of one list.
type Criteria struct {
	Term    string            // case-insensitive substring over the text fields
	Filters map[string]string // categorical equality by field name
	From    time.Time         // inclusive lower bound on creation time; zero is open
	To      time.Time         // inclusive up to the end of that day; zero is open
}

// Empty reports whether c narrows nothing.
func (c Criteria) Empty() bool {
	return len(c.active()) == 0 && term(c.Term) == "" && c.From.IsZero() && c.To.IsZero()
}

// Set returns a copy of c with one categorical filter replaced.  "" and
// "all" remove it.
func (c Criteria) Set(field, value string) Criteria {
	out := c
	out.Filters = make(map[string]string, len(c.Filters)+1)
	for k, v := range c.Filters {
		out.Filters[k] = v
	}
	if absent(value) {
		delete(out.Filters, field)
	} else {
		out.Filters[field] = strings.TrimSpace(value)
	}
	return out
}

// Get returns the value of a categorical filter, "" when it is absent.
func (c Criteria) Get(field string) string { return c.active()[field] }

// active drops the filters that mean "all".
func (c Criteria) active() map[string]string {
	out := map[string]string{}
	for k, v := range c.Filters {
		if !absent(v) {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

func absent(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}

func term(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Fields describes how a record kind is filtered.
type Fields[T any] struct {
	ID      func(T) int64
	Text    func(T) []string          // searchable text fields
	Values  map[string]func(T) string // categorical fields by filter name
	Created func(T) time.Time

	// RemoteFilter names the categorical filter that remote search
	// receives along with the term.
	RemoteFilter string
}

// Predicate is one criterion.
type Predicate[T any] func(T) bool

// Predicates turns c into its independent criteria.  Unknown filter names
// are ignored.
func Predicates[T any](c Criteria, f Fields[T]) []Predicate[T] {
	var ps []Predicate[T]
	if t := term(c.Term); t != "" {
		ps = append(ps, TextPredicate(t, f))
	}
	ps = append(ps, categorical(c, f)...)
	if p := DateRange(c.From, c.To, f.Created); p != nil {
		ps = append(ps, p)
	}
	return ps
}

func categorical[T any](c Criteria, f Fields[T]) []Predicate[T] {
	var ps []Predicate[T]
	for name, want := range c.active() {
		get, ok := f.Values[name]
		if !ok {
			continue
		}
		want := want
		ps = append(ps, func(v T) bool { return strings.EqualFold(get(v), want) })
	}
	return ps
}

// TextPredicate matches records whose text fields contain t, ignoring case.
func TextPredicate[T any](t string, f Fields[T]) Predicate[T] {
	t = term(t)
	return func(v T) bool {
		for _, s := range f.Text(v) {
			if strings.Contains(strings.ToLower(s), t) {
				return true
			}
		}
		return false
	}
}

// DateRange matches creation times within [from, end of to's day].  It is
// nil when both bounds are open.
func DateRange[T any](from, to time.Time, created func(T) time.Time) Predicate[T] {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	var end time.Time
	if !to.IsZero() {
		y, m, d := to.Date()
		end = time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), to.Location())
	}
	return func(v T) bool {
		at := created(v)
		if !from.IsZero() && at.Before(from) {
			return false
		}
		if !end.IsZero() && at.After(end) {
			return false
		}
		return true
	}
}

// Apply keeps the items that satisfy every predicate, in their original
// order.  The result never aliases items.
func Apply[T any](items []T, ps []Predicate[T]) []T {
	out := make([]T, 0, len(items))
next:
	for _, v := range items {
		for _, p := range ps {
			if !p(v) {
				continue next
			}
		}
		out = append(out, v)
	}
	return out
}

// Local filters items entirely in memory.
func Local[T any](items []T, c Criteria, f Fields[T]) []T {
	return Apply(items, Predicates(c, f))
}

// SearchFunc is a server-side search by term and one categorical value.
type SearchFunc[T any] func(ctx context.Context, term, value string) ([]T, error)

// Engine prefers the server for term matching and falls back to local
// filtering when the server cannot answer.
type Engine[T any] struct {
	fields Fields[T]
	search SearchFunc[T]
	log    logrus.FieldLogger
}

// New returns an engine.  A nil search makes it purely local.
func New[T any](f Fields[T], search SearchFunc[T], log logrus.FieldLogger) *Engine[T] {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine[T]{fields: f, search: search, log: log}
}

// Run computes the visible subset of all under c.  With a term and a
// search function the term match comes from the server; its answer is
// intersected with all so membership and order stay those of the local
// collection.  Any search failure falls back to local matching.
func (e *Engine[T]) Run(ctx context.Context, all []T, c Criteria) []T {
	t := term(c.Term)
	if t == "" || e.search == nil {
		return Local(all, c, e.fields)
	}
	rest := append(categorical(c, e.fields), e.dateRange(c)...)
	found, err := e.search(ctx, strings.TrimSpace(c.Term), c.Get(e.fields.RemoteFilter))
	if err != nil {
		e.log.WithError(err).WithField("term", t).Warn("remote search failed; filtering locally")
		return Apply(all, append([]Predicate[T]{TextPredicate(t, e.fields)}, rest...))
	}
	ids := make(map[int64]struct{}, len(found))
	for _, v := range found {
		ids[e.fields.ID(v)] = struct{}{}
	}
	inResult := func(v T) bool {
		_, ok := ids[e.fields.ID(v)]
		return ok
	}
	return Apply(all, append([]Predicate[T]{inResult}, rest...))
}

func (e *Engine[T]) dateRange(c Criteria) []Predicate[T] {
	if p := DateRange(c.From, c.To, e.fields.Created); p != nil {
		return []Predicate[T]{p}
	}
	return nil
}
