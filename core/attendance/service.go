package attendance

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

// Service is the owner-side controller for attendance sessions: it creates,
// toggles and deletes them against the portal, and owns the presenter/
// scheduler pair for the session currently on display.
type Service struct {
	portal   Portal
	notifier core.Notifier
	logger   core.Logger
	conf     *core.Config
	identity core.Identity

	mu         sync.Mutex
	presenters map[string]*Presenter // one handle per displayed session
}

func NewService(portal Portal, notifier core.Notifier, logger core.Logger, conf *core.Config, identity core.Identity) *Service {
	return &Service{
		portal:     portal,
		notifier:   notifier,
		logger:     logger,
		conf:       conf,
		identity:   identity,
		presenters: make(map[string]*Presenter),
	}
}

// Create validates and creates a session, then hands the new session id to a
// freshly started scheduler and opens its presenter. A missing course blocks
// locally with a ValidationError; no call is made. Like the other mutations
// it returns the re-fetched course list, even when the create itself failed.
func (svc *Service) Create(ctx context.Context, ns NewSession) (Session, []Session, *Presenter, error) {
	ns.CourseID = core.CleanString(ns.CourseID)
	if err := core.ValidateStruct(ns); err != nil {
		return Session{}, nil, nil, err
	}

	sess, err := svc.portal.CreateSession(ctx, ns)
	if err != nil {
		svc.fail("creating session", err)
		sessions, _ := svc.List(ctx, ns.CourseID)
		return Session{}, sessions, nil, pkgerrors.Wrap(ErrOperationFailed, err.Error())
	}

	sessions, err := svc.List(ctx, ns.CourseID)
	return sess, sessions, svc.Present(sess.ID), err
}

// SetActive toggles a session and returns the re-fetched course list; the
// list is re-fetched even on failure so the view cannot diverge from the
// portal's canonical state.
func (svc *Service) SetActive(ctx context.Context, courseID, sessionID string, active bool) ([]Session, error) {
	var opErr error
	if _, err := svc.portal.SetSessionActive(ctx, core.CleanString(sessionID), active); err != nil {
		svc.fail("updating session", err)
		opErr = pkgerrors.Wrap(ErrOperationFailed, err.Error())
	}

	sessions, err := svc.List(ctx, courseID)
	if opErr != nil {
		return sessions, opErr
	}
	return sessions, err
}

// Delete removes a session (terminal, irreversible) and returns the
// re-fetched course list. A presenter still displaying the session is closed.
func (svc *Service) Delete(ctx context.Context, courseID, sessionID string) ([]Session, error) {
	sessionID = core.CleanString(sessionID)

	var opErr error
	if err := svc.portal.DeleteSession(ctx, sessionID); err != nil {
		svc.fail("deleting session", err)
		opErr = pkgerrors.Wrap(ErrOperationFailed, err.Error())
	} else {
		svc.closePresenter(sessionID)
	}

	sessions, err := svc.List(ctx, courseID)
	if opErr != nil {
		return sessions, opErr
	}
	return sessions, err
}

// List returns the owner's sessions for a course, newest first.
func (svc *Service) List(ctx context.Context, courseID string) ([]Session, error) {
	sessions, err := svc.portal.QuerySessions(ctx, core.CleanString(courseID))
	return sessions, pkgerrors.Wrap(err, "querying sessions")
}

// Present opens the presenter for sessionID, starting its token scheduler.
// One session is displayed at a time: a presenter already open for another
// session is closed (stopping its scheduler) first.
func (svc *Service) Present(sessionID string) *Presenter {
	svc.mu.Lock()
	if p, ok := svc.presenters[sessionID]; ok {
		svc.mu.Unlock()
		return p
	}
	stale := make([]*Presenter, 0, len(svc.presenters))
	for _, p := range svc.presenters {
		stale = append(stale, p)
	}
	svc.mu.Unlock()

	for _, p := range stale {
		p.Close()
	}

	sched := NewScheduler(svc.portal, svc.notifier, svc.logger, svc.conf.TokenRefreshInterval)
	p := NewPresenter(sched, sessionID, func() {
		svc.mu.Lock()
		delete(svc.presenters, sessionID)
		svc.mu.Unlock()
	})
	svc.mu.Lock()
	svc.presenters[sessionID] = p
	svc.mu.Unlock()
	return p
}

// ClosePresenters stops every open presenter and scheduler; call on teardown.
func (svc *Service) ClosePresenters() {
	svc.mu.Lock()
	open := make([]*Presenter, 0, len(svc.presenters))
	for _, p := range svc.presenters {
		open = append(open, p)
	}
	svc.mu.Unlock()

	for _, p := range open {
		p.Close()
	}
}

func (svc *Service) closePresenter(sessionID string) {
	svc.mu.Lock()
	p := svc.presenters[sessionID]
	svc.mu.Unlock()
	if p != nil {
		p.Close()
	}
}

func (svc *Service) fail(op string, err error) {
	svc.logger.Error(fmt.Sprintf("%s: %v", op, err), err, svc.identity)
	svc.notifier.Notify(core.Notification{Level: core.NotifyError, Message: op + " failed"})
}
