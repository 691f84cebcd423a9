package attendance

import (
	"errors"
	"sync"

	pkgerrors "github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

var errNoToken = errors.New("no token fetched yet")

const maskedSessionID = "••••••••"

// Presenter renders a session's current rotating token as a scannable code.
// Opening it starts the scheduler, closing it stops it; the two lifecycles
// are coupled 1:1 so a closed presenter can never leave a poll behind.
type Presenter struct {
	sched     *Scheduler
	sessionID string

	mu       sync.Mutex
	revealed bool
	closed   bool
	onClose  func()
}

// NewPresenter opens a presenter for sessionID and starts its scheduler.
func NewPresenter(sched *Scheduler, sessionID string, onClose func()) *Presenter {
	p := &Presenter{sched: sched, sessionID: sessionID, onClose: onClose}
	sched.Start(sessionID)
	return p
}

func (p *Presenter) Current() RotatingToken        { return p.sched.Current() }
func (p *Presenter) Updates() <-chan RotatingToken { return p.sched.Updates() }

// PNG renders the current token as a QR graphic of size x size pixels.
func (p *Presenter) PNG(size int) ([]byte, error) {
	tok := p.sched.Current()
	if tok.IsZero() {
		return nil, errNoToken
	}
	png, err := qrcode.Encode(tok.Value, qrcode.Medium, size)
	return png, pkgerrors.Wrap(err, "encoding token")
}

// ASCII renders the current token as a terminal-printable QR code.
func (p *Presenter) ASCII() (string, error) {
	tok := p.sched.Current()
	if tok.IsZero() {
		return "", errNoToken
	}
	q, err := qrcode.New(tok.Value, qrcode.Medium)
	if err != nil {
		return "", pkgerrors.Wrap(err, "encoding token")
	}
	return q.ToSmallString(false), nil
}

// DisplaySessionID returns the raw session id only while revealed; it is
// masked by default (shoulder-surfing control).
func (p *Presenter) DisplaySessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.revealed {
		return p.sessionID
	}
	return maskedSessionID
}

func (p *Presenter) RevealSessionID(show bool) {
	p.mu.Lock()
	p.revealed = show
	p.mu.Unlock()
}

// Close stops the scheduler and releases the presenter. Safe to call repeatedly.
func (p *Presenter) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	onClose := p.onClose
	p.mu.Unlock()

	p.sched.Stop()
	if onClose != nil {
		onClose()
	}
}

func (p *Presenter) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
