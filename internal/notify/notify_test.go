package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hospital-admin/internal/logging"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := Console{W: &buf, Log: logging.Discard()}
	c.Notify(Notification{Level: Success, Message: "2 deactivated"})
	c.Notify(Notification{Level: Warning, Message: "no users selected"})
	assert.Equal(t, "[ok] 2 deactivated\n[!] no users selected\n", buf.String())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	assert.Equal(t, Notification{}, r.Last())
	r.Notify(Notification{Level: Error, Message: "boom"})
	r.Notify(Notification{Level: Info, Message: "done"})
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "done", r.Last().Message)
	assert.Equal(t, Error, r.All()[0].Level)
}
