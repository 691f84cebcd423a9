package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func openerFor(c *CaptureMock) CaptureOpener {
	return func() (Capture, error) { return c, nil }
}

func TestScannerDecodeExactlyOnce(t *testing.T) {
	capture := NewCaptureMock()
	sc := NewScanner(openerFor(capture), LoggerMock{})

	go func() {
		<-capture.Started()
		// frame decoders keep firing until Stop takes effect
		capture.EmitDecode("tok-1")
		capture.EmitDecode("tok-1")
		capture.EmitDecode("tok-2")
	}()

	ev, err := sc.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if ev.RawPayload != "tok-1" {
		t.Errorf("payload = %q; want tok-1 (first decode wins)", ev.RawPayload)
	}
	if ev.DecodedAt.IsZero() {
		t.Error("DecodedAt not set")
	}
	if calls := capture.StopCalls(); calls != 1 {
		t.Errorf("Stop calls = %d; want 1", calls)
	}
	if calls := capture.ReleaseCalls(); calls != 1 {
		t.Errorf("Release calls = %d; want 1", calls)
	}
	if st := sc.State(); st != ScanIdle {
		t.Errorf("state = %v; want idle", st)
	}

	// the device is free again: a fresh scan works
	capture2 := NewCaptureMock()
	sc2 := NewScanner(openerFor(capture2), LoggerMock{})
	go func() {
		<-capture2.Started()
		capture2.EmitDecode("tok-3")
	}()
	ev, err = sc2.Scan(context.Background())
	if err != nil {
		t.Fatalf("second Scan() failed: %v", err)
	}
	if ev.RawPayload != "tok-3" {
		t.Errorf("payload = %q; want tok-3", ev.RawPayload)
	}
}

func TestScannerEmptyDecodeIgnored(t *testing.T) {
	capture := NewCaptureMock()
	sc := NewScanner(openerFor(capture), LoggerMock{})

	go func() {
		<-capture.Started()
		capture.EmitDecode("")
		capture.EmitDecode("tok-1")
	}()

	ev, err := sc.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if ev.RawPayload != "tok-1" {
		t.Errorf("payload = %q; want tok-1 (empty frames skipped)", ev.RawPayload)
	}
}

func TestScannerCancelDuringAcquire(t *testing.T) {
	capture := NewCaptureMock()
	grant := make(chan struct{})
	sc := NewScanner(func() (Capture, error) {
		<-grant // permission prompt pending
		return capture, nil
	}, LoggerMock{})

	errc := make(chan error, 1)
	go func() {
		_, err := sc.Scan(context.Background())
		errc <- err
	}()

	waitUntil(t, time.Second, func() bool { return sc.State() == ScanAcquiring }, "scanner acquiring")
	sc.Cancel()
	close(grant) // the grant arrives after the cancel

	if err := <-errc; !errors.Is(err, ErrScanCancelled) {
		t.Errorf("Scan() error = %v; want ErrScanCancelled", err)
	}
	if calls := capture.StartCalls(); calls != 0 {
		t.Errorf("Start calls = %d; want 0 (Scanning must never be entered)", calls)
	}
	if calls := capture.ReleaseCalls(); calls != 1 {
		t.Errorf("Release calls = %d; want 1 (granted handle must be freed)", calls)
	}
	if st := sc.State(); st != ScanIdle {
		t.Errorf("state = %v; want idle", st)
	}
}

func TestScannerCancelMidScan(t *testing.T) {
	capture := NewCaptureMock()
	sc := NewScanner(openerFor(capture), LoggerMock{})

	errc := make(chan error, 1)
	go func() {
		_, err := sc.Scan(context.Background())
		errc <- err
	}()

	<-capture.Started()
	sc.Cancel()

	if err := <-errc; !errors.Is(err, ErrScanCancelled) {
		t.Errorf("Scan() error = %v; want ErrScanCancelled", err)
	}
	if calls := capture.ReleaseCalls(); calls != 1 {
		t.Errorf("Release calls = %d; want 1", calls)
	}
}

func TestScannerTeardownMidScan(t *testing.T) {
	capture := NewCaptureMock()
	sc := NewScanner(openerFor(capture), LoggerMock{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := sc.Scan(ctx)
		errc <- err
	}()

	<-capture.Started()
	cancel() // component torn down mid-scan

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v; want context.Canceled", err)
	}
	waitUntil(t, time.Second, func() bool { return capture.ReleaseCalls() == 1 }, "device released on teardown")
	if st := sc.State(); st != ScanIdle {
		t.Errorf("state = %v; want idle", st)
	}
}

func TestScannerAcquireFailures(t *testing.T) {
	tests := []struct {
		name    string
		openErr error
		wantErr error
	}{
		{name: "permission denied", openErr: ErrPermissionDenied, wantErr: ErrPermissionDenied},
		{name: "device unavailable", openErr: ErrDeviceUnavailable, wantErr: ErrDeviceUnavailable},
		{name: "unclassified", openErr: fmt.Errorf("NotReadableError"), wantErr: ErrDeviceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := NewScanner(func() (Capture, error) { return nil, tt.openErr }, LoggerMock{})
			if _, err := sc.Scan(context.Background()); !errors.Is(err, tt.wantErr) {
				t.Errorf("Scan() error = %v; want %v", err, tt.wantErr)
			}
			if st := sc.State(); st != ScanIdle {
				t.Errorf("state = %v; want idle (user must be able to retry)", st)
			}
		})
	}
}

func TestScannerToleratesReleaseErrors(t *testing.T) {
	capture := NewCaptureMock()
	capture.StopErr = fmt.Errorf("track already ended")
	capture.ReleaseErr = fmt.Errorf("device gone")
	sc := NewScanner(openerFor(capture), LoggerMock{})

	go func() {
		<-capture.Started()
		capture.EmitDecode("tok-1")
	}()

	ev, err := sc.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if ev.RawPayload != "tok-1" {
		t.Errorf("payload = %q; want tok-1", ev.RawPayload)
	}
	// handle was nilled on first release: the teardown pass must not retry
	if calls := capture.ReleaseCalls(); calls != 1 {
		t.Errorf("Release calls = %d; want 1", calls)
	}
}

func TestScannerDeviceErrorMidScan(t *testing.T) {
	capture := NewCaptureMock()
	sc := NewScanner(openerFor(capture), LoggerMock{})

	go func() {
		<-capture.Started()
		capture.EmitError(fmt.Errorf("camera unplugged"))
	}()

	if _, err := sc.Scan(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("Scan() error = %v; want ErrDeviceUnavailable", err)
	}
	if calls := capture.ReleaseCalls(); calls != 1 {
		t.Errorf("Release calls = %d; want 1", calls)
	}
}

func TestScannerSecondHolderTearsDownFirst(t *testing.T) {
	capture1 := NewCaptureMock()
	sc1 := NewScanner(openerFor(capture1), LoggerMock{})

	errc := make(chan error, 1)
	go func() {
		_, err := sc1.Scan(context.Background())
		errc <- err
	}()
	<-capture1.Started()

	capture2 := NewCaptureMock()
	sc2 := NewScanner(openerFor(capture2), LoggerMock{})
	go func() {
		<-capture2.Started()
		capture2.EmitDecode("tok-2")
	}()

	ev, err := sc2.Scan(context.Background())
	if err != nil {
		t.Fatalf("second scanner failed: %v", err)
	}
	if ev.RawPayload != "tok-2" {
		t.Errorf("payload = %q; want tok-2", ev.RawPayload)
	}
	if err := <-errc; !errors.Is(err, ErrScanCancelled) {
		t.Errorf("first scanner error = %v; want ErrScanCancelled", err)
	}
	if calls := capture1.ReleaseCalls(); calls != 1 {
		t.Errorf("first capture Release calls = %d; want 1 (no two live capture sessions)", calls)
	}
}

func TestScannerRejectsConcurrentScan(t *testing.T) {
	capture := NewCaptureMock()
	sc := NewScanner(openerFor(capture), LoggerMock{})

	go func() {
		<-capture.Started()
		// hold the scan open long enough for the second call below
		time.Sleep(20 * time.Millisecond)
		capture.EmitDecode("tok-1")
	}()

	errc := make(chan error, 1)
	go func() {
		_, err := sc.Scan(context.Background())
		errc <- err
	}()
	<-capture.Started()

	if _, err := sc.Scan(context.Background()); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("second Scan() error = %v; want ErrScanInProgress", err)
	}
	if err := <-errc; err != nil {
		t.Errorf("first Scan() failed: %v", err)
	}
}
