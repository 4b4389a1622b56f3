package dashboard

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hospital-admin/internal/bulk"
	"github.com/iliyamo/hospital-admin/internal/logging"
	"github.com/iliyamo/hospital-admin/internal/notify"
)

// Options are shared by the list controllers.
type Options struct {
	Notifier    notify.Notifier
	Confirmer   bulk.Confirmer
	Log         logrus.FieldLogger
	Concurrency int
	Batch       bool
}

func (o Options) withDefaults() Options {
	if o.Notifier == nil {
		o.Notifier = notify.Func(func(notify.Notification) {})
	}
	if o.Confirmer == nil {
		o.Confirmer = bulk.AlwaysConfirm
	}
	if o.Log == nil {
		o.Log = logging.Discard()
	}
	return o
}

func (o Options) success(msg string) {
	o.Notifier.Notify(notify.Notification{Level: notify.Success, Message: msg})
}

func (o Options) fail(err error) {
	level := notify.Error
	var ge *bulk.GuardError
	if errors.As(err, &ge) && ge.Warning {
		level = notify.Warning
	}
	o.Notifier.Notify(notify.Notification{Level: level, Message: err.Error()})
}
