// Package notify delivers the one summary message every operator action
// ends with.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

type Notification struct {
	Level   Level
	Message string
}

// Notifier shows a notification to the operator.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Console writes notifications as single lines and mirrors them to the log.
type Console struct {
	W   io.Writer
	Log logrus.FieldLogger
}

var prefixes = map[Level]string{Info: "i", Success: "ok", Warning: "!", Error: "x"}

func (c Console) Notify(n Notification) {
	fmt.Fprintf(c.W, "[%s] %s\n", prefixes[n.Level], n.Message)
	if c.Log == nil {
		return
	}
	entry := c.Log.WithField("level_ui", string(n.Level))
	switch n.Level {
	case Error:
		entry.Error(n.Message)
	case Warning:
		entry.Warn(n.Message)
	default:
		entry.Debug(n.Message)
	}
}

// Recorder keeps every notification; tests read them back.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the latest notification, or the zero value.
func (r *Recorder) Last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}
	}
	return r.items[len(r.items)-1]
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
