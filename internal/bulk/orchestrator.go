package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/hospital-admin/internal/logging"
	"github.com/iliyamo/hospital-admin/internal/notify"
)

// Target is the list a bulk action works on.  It owns the selection and
// the collection; the orchestrator only reads the selection, clears it
// once and asks for a refresh.
type Target[T any] interface {
	Selection() []int64
	Item(id int64) (T, bool)
	ClearSelection()
	Refresh(ctx context.Context) error
}

// Result is the outcome of one completed invocation.
type Result struct {
	Kind      Kind
	Requested int // selected ids
	Attempted int // ids the action was sent for
	Succeeded int
	Failed    int
	Skipped   int  // protected items, e.g. admins on deactivate
	Ignored   int  // items the action does not apply to
	Batched   bool // one bulk call instead of per-item calls

	RefreshErr error
}

// Config wires an Orchestrator.
type Config[T any] struct {
	Noun      string // singular, e.g. "user"
	Executor  Executor
	Rules     map[Kind]Rule[T]
	Confirmer Confirmer
	Notifier  notify.Notifier
	Log       logrus.FieldLogger

	// Concurrency bounds in-flight per-item calls; below 2 they run one
	// after another.
	Concurrency int
	// Batch tries the executor's bulk call before per-item calls.
	Batch bool

	OnTransition func(from, to State)
}

// Orchestrator runs bulk actions for one list.  It is not shared between
// lists.
type Orchestrator[T any] struct {
	cfg Config[T]
	log logrus.FieldLogger

	mu           sync.Mutex
	state        State
	running      bool
	onTransition func(from, to State)
}

func New[T any](cfg Config[T]) *Orchestrator[T] {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Confirmer == nil {
		cfg.Confirmer = AlwaysConfirm
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Func(func(notify.Notification) {})
	}
	log := cfg.Log
	if log == nil {
		log = logging.Discard()
	}
	if cfg.Noun == "" {
		cfg.Noun = "item"
	}
	return &Orchestrator[T]{cfg: cfg, log: log, state: Idle, onTransition: cfg.OnTransition}
}

type plan struct {
	selected int
	ids      []int64
	skipped  int
	ignored  int
}

// Run applies kind to the target's selection.  Guard rejections,
// cancellation and a concurrent invocation return an error without any
// network call.  Once execution starts the invocation always completes:
// per-item failures are counted, the selection is cleared and the target
// refreshed before Run returns.  Exactly one notification is sent.
func (o *Orchestrator[T]) Run(ctx context.Context, t Target[T], kind Kind) (Result, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		o.cfg.Notifier.Notify(notify.Notification{Level: notify.Warning, Message: ErrBusy.Error()})
		return Result{}, ErrBusy
	}
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	p, err := o.guard(t, kind)
	if err != nil {
		o.reject(err)
		return Result{}, err
	}

	o.move(Confirming)
	ok, err := o.cfg.Confirmer.Confirm(ctx, o.prompt(kind, p))
	if err != nil || !ok {
		if err != nil {
			o.log.WithError(err).Debug("confirmation failed")
		}
		o.move(Cancelled)
		o.cfg.Notifier.Notify(notify.Notification{Level: notify.Info, Message: fmt.Sprintf("%s cancelled", kind)})
		o.move(Idle)
		return Result{}, ErrCancelled
	}

	o.move(Executing)
	// in-flight calls are never aborted
	run := context.WithoutCancel(ctx)
	res := Result{
		Kind:      kind,
		Requested: p.selected,
		Attempted: len(p.ids),
		Skipped:   p.skipped,
		Ignored:   p.ignored,
	}
	o.execute(run, kind, p.ids, &res)
	o.move(Completed)

	t.ClearSelection()
	if err := t.Refresh(run); err != nil {
		o.log.WithError(err).Warn("refresh after bulk action failed")
		res.RefreshErr = err
	}
	o.cfg.Notifier.Notify(o.summary(res))
	o.move(Idle)
	return res, nil
}

func (o *Orchestrator[T]) guard(t Target[T], kind Kind) (plan, error) {
	if !o.cfg.Executor.Supports(kind) {
		return plan{}, &GuardError{Err: ErrUnsupportedAction, Message: fmt.Sprintf("cannot %s a %s", kind, o.cfg.Noun)}
	}
	sel := t.Selection()
	if len(sel) == 0 {
		return plan{}, &GuardError{Err: ErrEmptySelection, Message: fmt.Sprintf("no %ss selected", o.cfg.Noun), Warning: true}
	}
	rule, hasRule := o.cfg.Rules[kind]
	if !hasRule {
		return plan{selected: len(sel), ids: append([]int64(nil), sel...)}, nil
	}
	p := plan{selected: len(sel)}
	for _, id := range sel {
		v, ok := t.Item(id)
		switch {
		case !ok:
			p.ignored++
		case rule.protected(v):
			p.skipped++
		case !rule.eligible(v):
			p.ignored++
		default:
			p.ids = append(p.ids, id)
		}
	}
	if len(p.ids) > 0 {
		return p, nil
	}
	if p.skipped > 0 && rule.ProtectedMessage != "" {
		return plan{}, &GuardError{Err: ErrNoEligible, Message: rule.ProtectedMessage}
	}
	msg := rule.NoneEligible
	if msg == "" {
		msg = fmt.Sprintf("no %ss to %s", o.cfg.Noun, kind)
	}
	return plan{}, &GuardError{Err: ErrNoEligible, Message: msg, Warning: true}
}

func (o *Orchestrator[T]) reject(err error) {
	level := notify.Error
	var ge *GuardError
	if errors.As(err, &ge) && ge.Warning {
		level = notify.Warning
	}
	o.cfg.Notifier.Notify(notify.Notification{Level: level, Message: err.Error()})
}

func (o *Orchestrator[T]) prompt(kind Kind, p plan) string {
	s := fmt.Sprintf("%s %s?", kind.Title(), plural(len(p.ids), o.cfg.Noun))
	if p.skipped > 0 {
		s += fmt.Sprintf(" %s will be skipped.", plural(p.skipped, o.cfg.Rules[kind].ProtectedNoun))
	}
	return s
}

func (o *Orchestrator[T]) execute(ctx context.Context, kind Kind, ids []int64, res *Result) {
	log := o.log.WithField("action", string(kind))
	if be, ok := o.cfg.Executor.(BatchExecutor); ok && o.cfg.Batch {
		n, err := be.ApplyBatch(ctx, kind, ids)
		switch {
		case err == nil:
			if n > len(ids) {
				n = len(ids)
			}
			res.Batched = true
			res.Succeeded = n
			res.Failed = len(ids) - n
			return
		case errors.Is(err, ErrBatchUnsupported):
			log.WithError(err).Debug("batch endpoint unavailable; applying per item")
		default:
			log.WithError(err).WithField("count", len(ids)).Warn("bulk call failed")
			res.Batched = true
			res.Failed = len(ids)
			return
		}
	}

	errs := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := o.cfg.Executor.Apply(ctx, kind, id); err != nil {
				log.WithError(err).WithField("id", id).Warn("bulk item failed")
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err == nil {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
}

func (o *Orchestrator[T]) summary(r Result) notify.Notification {
	parts := []string{fmt.Sprintf("%d %s", r.Succeeded, r.Kind.Done())}
	if r.Skipped > 0 {
		parts = append(parts, plural(r.Skipped, o.cfg.Rules[r.Kind].ProtectedNoun)+" skipped")
	}
	if r.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", r.Failed))
	}
	msg := strings.Join(parts, ", ")
	level := notify.Success
	switch {
	case r.Failed > 0 && r.Succeeded == 0:
		level = notify.Error
	case r.Failed > 0:
		level = notify.Warning
	}
	if r.RefreshErr != nil {
		msg += "; list not refreshed: " + r.RefreshErr.Error()
		if level == notify.Success {
			level = notify.Warning
		}
	}
	return notify.Notification{Level: level, Message: msg}
}
