package attendance

import (
	"testing"
	"time"
)

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out: %s", msg)
}

func recvToken(t *testing.T, ch <-chan RotatingToken, d time.Duration) RotatingToken {
	t.Helper()
	select {
	case tok := <-ch:
		return tok
	case <-time.After(d):
		t.Fatal("timed out waiting for a token update")
		return RotatingToken{}
	}
}
