package attendance

import (
	"context"
	"sync"

	"github.com/trezcool/mahudhurio/core"
)

// PortalMock is a scriptable Portal. Unset funcs return zero values; every
// call is counted.
type PortalMock struct {
	mu sync.Mutex

	CreateSessionFn    func(ns NewSession) (Session, error)
	SetSessionActiveFn func(sessionID string, active bool) (Session, error)
	DeleteSessionFn    func(sessionID string) error
	QuerySessionsFn    func(courseID string) ([]Session, error)
	CurrentTokenFn     func(sessionID string) (RotatingToken, error)
	RedeemFn           func(req RedemptionRequest) (RedemptionResult, error)

	createCalls int
	toggleCalls int
	deleteCalls int
	queryCalls  int
	tokenCalls  int
	redeemed    []RedemptionRequest
}

var _ Portal = (*PortalMock)(nil)

func (m *PortalMock) CreateSession(_ context.Context, ns NewSession) (Session, error) {
	m.mu.Lock()
	m.createCalls++
	fn := m.CreateSessionFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ns)
	}
	return Session{}, nil
}

func (m *PortalMock) SetSessionActive(_ context.Context, sessionID string, active bool) (Session, error) {
	m.mu.Lock()
	m.toggleCalls++
	fn := m.SetSessionActiveFn
	m.mu.Unlock()
	if fn != nil {
		return fn(sessionID, active)
	}
	return Session{}, nil
}

func (m *PortalMock) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	m.deleteCalls++
	fn := m.DeleteSessionFn
	m.mu.Unlock()
	if fn != nil {
		return fn(sessionID)
	}
	return nil
}

func (m *PortalMock) QuerySessions(_ context.Context, courseID string) ([]Session, error) {
	m.mu.Lock()
	m.queryCalls++
	fn := m.QuerySessionsFn
	m.mu.Unlock()
	if fn != nil {
		return fn(courseID)
	}
	return nil, nil
}

func (m *PortalMock) CurrentToken(_ context.Context, sessionID string) (RotatingToken, error) {
	m.mu.Lock()
	m.tokenCalls++
	fn := m.CurrentTokenFn
	m.mu.Unlock()
	if fn != nil {
		return fn(sessionID)
	}
	return RotatingToken{}, nil
}

func (m *PortalMock) Redeem(_ context.Context, req RedemptionRequest) (RedemptionResult, error) {
	m.mu.Lock()
	m.redeemed = append(m.redeemed, req)
	fn := m.RedeemFn
	m.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return RedemptionResult{Outcome: OutcomeSuccess}, nil
}

func (m *PortalMock) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

func (m *PortalMock) ToggleCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.toggleCalls
}

func (m *PortalMock) QueryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryCalls
}

func (m *PortalMock) TokenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenCalls
}

func (m *PortalMock) RedeemCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redeemed)
}

func (m *PortalMock) RedeemedRequests() []RedemptionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RedemptionRequest, len(m.redeemed))
	copy(out, m.redeemed)
	return out
}

// CaptureMock is a scriptable capture handle; decode/error callbacks are
// emitted by the test.
type CaptureMock struct {
	mu sync.Mutex

	StartFn    func(onDecode func(string), onError func(error)) error
	StopErr    error
	ReleaseErr error

	onDecode     func(string)
	onError      func(error)
	started      chan struct{}
	startCalls   int
	stopCalls    int
	releaseCalls int
}

var _ Capture = (*CaptureMock)(nil)

func NewCaptureMock() *CaptureMock {
	return &CaptureMock{started: make(chan struct{})}
}

func (c *CaptureMock) Start(onDecode func(string), onError func(error)) error {
	c.mu.Lock()
	c.startCalls++
	c.onDecode = onDecode
	c.onError = onError
	started := c.started
	fn := c.StartFn
	c.mu.Unlock()
	if started != nil {
		close(started)
	}
	if fn != nil {
		return fn(onDecode, onError)
	}
	return nil
}

func (c *CaptureMock) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCalls++
	return c.StopErr
}

func (c *CaptureMock) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseCalls++
	return c.ReleaseErr
}

// Started unblocks once Start has been called.
func (c *CaptureMock) Started() <-chan struct{} { return c.started }

func (c *CaptureMock) EmitDecode(payload string) {
	c.mu.Lock()
	fn := c.onDecode
	c.mu.Unlock()
	if fn != nil {
		fn(payload)
	}
}

func (c *CaptureMock) EmitError(err error) {
	c.mu.Lock()
	fn := c.onError
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (c *CaptureMock) StartCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startCalls
}

func (c *CaptureMock) StopCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopCalls
}

func (c *CaptureMock) ReleaseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseCalls
}

// NotifierMock records notifications instead of displaying them.
type NotifierMock struct {
	mu            sync.Mutex
	notifications []core.Notification
}

var _ core.Notifier = (*NotifierMock)(nil)

func (n *NotifierMock) Notify(notif core.Notification) {
	n.mu.Lock()
	n.notifications = append(n.notifications, notif)
	n.mu.Unlock()
}

func (n *NotifierMock) Notifications() []core.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]core.Notification, len(n.notifications))
	copy(out, n.notifications)
	return out
}

func (n *NotifierMock) Reset() {
	n.mu.Lock()
	n.notifications = nil
	n.mu.Unlock()
}

// LoggerMock discards everything.
type LoggerMock struct{}

var _ core.Logger = (*LoggerMock)(nil)

func (LoggerMock) Enable(bool)                  {}
func (LoggerMock) Debug(string, ...interface{}) {}
func (LoggerMock) Info(string, ...interface{})  {}
func (LoggerMock) Warn(string, ...interface{})  {}
func (LoggerMock) Error(string, ...interface{}) {}
func (LoggerMock) Fatal(string, ...interface{}) {}
