package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	ErrScanCancelled     = errors.New("scan cancelled")
	ErrScanInProgress    = errors.New("a scan is already in progress")
)

type ScanState int

const (
	ScanIdle ScanState = iota
	ScanAcquiring
	ScanScanning
	ScanDecoded
	ScanCancelled
	ScanFailed
)

func (st ScanState) String() string {
	switch st {
	case ScanAcquiring:
		return "acquiring"
	case ScanScanning:
		return "scanning"
	case ScanDecoded:
		return "decoded"
	case ScanCancelled:
		return "cancelled"
	case ScanFailed:
		return "failed"
	default:
		return "idle"
	}
}

type (
	// Capture is a live handle on the platform camera. onDecode may fire more
	// than once before Stop takes effect (frame decoders do that); callers
	// must de-duplicate.
	Capture interface {
		Start(onDecode func(payload string), onError func(err error)) error
		Stop() error
		Release() error
	}

	// CaptureOpener requests the device, driving any permission prompt, and
	// returns a live handle. It reports failures with ErrPermissionDenied or
	// ErrDeviceUnavailable.
	CaptureOpener func() (Capture, error)
)

// the camera is exclusive: one live holder at a time, app-wide
var (
	deviceMu     sync.Mutex
	deviceHolder *Scanner
)

func claimDevice(s *Scanner) {
	deviceMu.Lock()
	prev := deviceHolder
	deviceHolder = s
	deviceMu.Unlock()
	if prev != nil && prev != s {
		prev.Cancel()
	}
}

func yieldDevice(s *Scanner) {
	deviceMu.Lock()
	if deviceHolder == s {
		deviceHolder = nil
	}
	deviceMu.Unlock()
}

// Scanner drives one scan lifecycle at a time:
// Idle → Acquiring → Scanning → {Decoded | Cancelled | Failed} → Idle.
// Whatever the exit, the capture handle is stopped, released and nilled
// before the scanner returns to Idle.
type Scanner struct {
	open   CaptureOpener
	logger core.Logger

	mu      sync.Mutex
	state   ScanState
	capture Capture
	handled bool // decode latch; set synchronously on the first decode

	decoded   chan ScanEvent
	failed    chan error
	cancelled chan struct{}
}

func NewScanner(open CaptureOpener, logger core.Logger) *Scanner {
	return &Scanner{open: open, logger: logger}
}

func (s *Scanner) State() ScanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Scan acquires the camera and blocks until a frame decodes, the scan is
// cancelled, the device fails, or ctx is done. It must be user-triggered;
// it is never started automatically.
func (s *Scanner) Scan(ctx context.Context) (ScanEvent, error) {
	s.mu.Lock()
	if s.state != ScanIdle {
		s.mu.Unlock()
		return ScanEvent{}, ErrScanInProgress
	}
	s.state = ScanAcquiring
	s.handled = false
	s.decoded = make(chan ScanEvent, 1)
	s.failed = make(chan error, 1)
	s.cancelled = make(chan struct{})
	decoded, failed, cancelled := s.decoded, s.failed, s.cancelled
	s.mu.Unlock()

	claimDevice(s)
	defer yieldDevice(s)
	defer s.teardown() // release on every exit path

	capture, err := s.open()
	if err != nil {
		s.fail()
		return ScanEvent{}, classifyAcquireError(err)
	}

	s.mu.Lock()
	if s.state != ScanAcquiring {
		// cancelled while the permission prompt was pending; shut the
		// granted handle down and never enter Scanning
		s.capture = capture
		s.releaseLocked()
		s.mu.Unlock()
		return ScanEvent{}, ErrScanCancelled
	}
	s.capture = capture
	s.state = ScanScanning
	s.mu.Unlock()

	if err := capture.Start(s.onDecode, s.onError); err != nil {
		s.fail()
		return ScanEvent{}, pkgerrors.Wrap(ErrDeviceUnavailable, err.Error())
	}

	select {
	case ev := <-decoded:
		return ev, nil
	case err := <-failed:
		return ScanEvent{}, err
	case <-cancelled:
		return ScanEvent{}, ErrScanCancelled
	case <-ctx.Done(): // forced teardown mid-scan
		s.Cancel()
		return ScanEvent{}, ctx.Err()
	}
}

// Cancel dismisses the scan in progress. A permission grant arriving after
// Cancel observes the cancellation and never starts scanning. No-op when idle.
func (s *Scanner) Cancel() {
	s.mu.Lock()
	switch s.state {
	case ScanAcquiring:
		s.state = ScanCancelled
	case ScanScanning:
		s.state = ScanCancelled
		s.releaseLocked()
	default:
		s.mu.Unlock()
		return
	}
	cancelled := s.cancelled
	s.mu.Unlock()
	close(cancelled)
}

func (s *Scanner) onDecode(payload string) {
	if payload == "" {
		return
	}
	s.mu.Lock()
	if s.state != ScanScanning || s.handled {
		// late callback from a decoder still flushing frames; first one won
		s.mu.Unlock()
		return
	}
	s.handled = true
	s.state = ScanDecoded
	ev := ScanEvent{RawPayload: payload, DecodedAt: nowFunc()}
	s.releaseLocked() // release begins immediately after latching
	decoded := s.decoded
	s.mu.Unlock()

	decoded <- ev
}

func (s *Scanner) onError(err error) {
	s.mu.Lock()
	if s.state != ScanScanning {
		s.mu.Unlock()
		return
	}
	s.state = ScanFailed
	s.releaseLocked()
	failed := s.failed
	s.mu.Unlock()

	s.logger.Warn(fmt.Sprintf("capture failed: %v", err), err)
	failed <- ErrDeviceUnavailable
}

func (s *Scanner) fail() {
	s.mu.Lock()
	if s.state == ScanAcquiring || s.state == ScanScanning {
		s.state = ScanFailed
	}
	s.mu.Unlock()
}

// teardown releases the device if still held and returns the scanner to
// Idle so the next scan can start.
func (s *Scanner) teardown() {
	s.mu.Lock()
	s.releaseLocked()
	s.state = ScanIdle
	s.handled = false
	s.mu.Unlock()
}

// releaseLocked stops capture and frees the device. Errors are tolerated
// (the OS may have torn the camera down already) and the handle is nilled
// so a second release is a safe no-op.
func (s *Scanner) releaseLocked() {
	if s.capture == nil {
		return
	}
	if err := s.capture.Stop(); err != nil {
		s.logger.Warn(fmt.Sprintf("stopping capture: %v", err), err)
	}
	if err := s.capture.Release(); err != nil {
		s.logger.Warn(fmt.Sprintf("releasing capture: %v", err), err)
	}
	s.capture = nil
}

func classifyAcquireError(err error) error {
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
		return err
	}
	return pkgerrors.Wrap(ErrDeviceUnavailable, err.Error())
}
