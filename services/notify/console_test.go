package notifysvc

import (
	"bytes"
	"testing"

	"github.com/trezcool/mahudhurio/core"
)

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	svc := &consoleNotifier{out: &buf}

	svc.Notify(core.Notification{Level: core.NotifySuccess, Message: "attendance recorded", Context: "Algorithms 101"})
	svc.Notify(core.Notification{Level: core.NotifyError, Message: "check-in rejected"})

	want := "[success] attendance recorded (Algorithms 101)\n[error] check-in rejected\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q; want %q", got, want)
	}
}
