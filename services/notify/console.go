package notifysvc

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/trezcool/mahudhurio/core"
)

// consoleNotifier prints notifications to a terminal; lines obviously never
// expire, the timeout only applies to graphical sinks.
type consoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

var _ core.Notifier = (*consoleNotifier)(nil)

func NewConsoleNotifier() core.Notifier {
	return &consoleNotifier{out: os.Stdout}
}

func (svc *consoleNotifier) Notify(n core.Notification) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if n.Context != "" {
		_, _ = fmt.Fprintf(svc.out, "[%s] %s (%s)\n", n.Level, n.Message, n.Context)
		return
	}
	_, _ = fmt.Fprintf(svc.out, "[%s] %s\n", n.Level, n.Message)
}
