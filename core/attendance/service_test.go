package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
)

func newTestService(portal Portal, notifier core.Notifier) *Service {
	conf := &core.Config{TokenRefreshInterval: time.Minute}
	return NewService(portal, notifier, LoggerMock{}, conf, core.Identity{SubjectID: "own-1"})
}

var (
	fixtureTime = time.Date(2021, 3, 15, 9, 0, 0, 0, time.UTC)

	testSessions = []Session{ // newest first, the portal's canonical order
		{ID: "s2", CourseID: "crs-1", IsActive: true, CreatedAt: fixtureTime},
		{ID: "s1", CourseID: "crs-1", IsActive: false, CreatedAt: fixtureTime.Add(-time.Hour)},
	}
)

func TestServiceCreateRequiresCourse(t *testing.T) {
	portal := &PortalMock{}
	svc := newTestService(portal, &NotifierMock{})

	_, _, _, err := svc.Create(context.Background(), NewSession{Date: time.Now(), DurationMinutes: 60})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v; want a ValidationError", err)
	}
	if calls := portal.CreateCalls(); calls != 0 {
		t.Errorf("create calls = %d; want 0 (validation must block the call)", calls)
	}
}

func TestServiceCreateOpensPresenter(t *testing.T) {
	portal := &PortalMock{
		CreateSessionFn: func(ns NewSession) (Session, error) {
			return Session{ID: "s9", CourseID: ns.CourseID, IsActive: true}, nil
		},
	}
	svc := newTestService(portal, &NotifierMock{})
	defer svc.ClosePresenters()

	sess, _, pres, err := svc.Create(context.Background(), NewSession{
		CourseID:        "crs-1",
		Date:            time.Now(),
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if sess.ID != "s9" {
		t.Errorf("session id = %q; want s9", sess.ID)
	}
	if pres == nil || pres.Closed() {
		t.Fatal("Create() did not open a live presenter")
	}
	waitUntil(t, time.Second, func() bool { return portal.TokenCalls() >= 1 }, "scheduler fetching")

	pres.Close()
	calls := portal.TokenCalls()
	time.Sleep(10 * time.Millisecond) // give a stale timer a chance to misfire
	if portal.TokenCalls() != calls {
		t.Error("token fetches continued after the presenter closed")
	}
}

func TestServiceCreateRefreshesList(t *testing.T) {
	portal := &PortalMock{
		CreateSessionFn: func(ns NewSession) (Session, error) {
			return Session{ID: "s3", CourseID: ns.CourseID, IsActive: true}, nil
		},
		QuerySessionsFn: func(courseID string) ([]Session, error) { return testSessions, nil },
	}
	svc := newTestService(portal, &NotifierMock{})
	defer svc.ClosePresenters()

	_, sessions, _, err := svc.Create(context.Background(), NewSession{
		CourseID:        "crs-1",
		Date:            time.Now(),
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	assert.Equal(t, testSessions, sessions)
	if calls := portal.QueryCalls(); calls != 1 {
		t.Errorf("query calls = %d; want 1 (mutations must refresh the list)", calls)
	}
}

func TestServiceSetActiveRefreshesList(t *testing.T) {
	portal := &PortalMock{
		QuerySessionsFn: func(courseID string) ([]Session, error) { return testSessions, nil },
	}
	svc := newTestService(portal, &NotifierMock{})

	sessions, err := svc.SetActive(context.Background(), "crs-1", "s1", true)
	if err != nil {
		t.Fatalf("SetActive() failed: %v", err)
	}
	assert.Equal(t, testSessions, sessions)
	if calls := portal.QueryCalls(); calls != 1 {
		t.Errorf("query calls = %d; want 1 (mutations must refresh the list)", calls)
	}
}

func TestServiceMutationFailureStillRefreshes(t *testing.T) {
	portal := &PortalMock{
		SetSessionActiveFn: func(sessionID string, active bool) (Session, error) {
			return Session{}, fmt.Errorf("portal says no")
		},
		QuerySessionsFn: func(courseID string) ([]Session, error) { return testSessions, nil },
	}
	notifier := &NotifierMock{}
	svc := newTestService(portal, notifier)

	sessions, err := svc.SetActive(context.Background(), "crs-1", "s1", false)
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("error = %v; want ErrOperationFailed", err)
	}
	// state re-fetched to avoid client/server divergence
	assert.Equal(t, testSessions, sessions)

	notifs := notifier.Notifications()
	if len(notifs) != 1 || notifs[0].Level != core.NotifyError {
		t.Errorf("notifications = %+v; want one inline error", notifs)
	}
}

func TestServiceDeleteClosesPresenter(t *testing.T) {
	portal := &PortalMock{
		QuerySessionsFn: func(courseID string) ([]Session, error) { return nil, nil },
	}
	svc := newTestService(portal, &NotifierMock{})

	pres := svc.Present("s1")
	if _, err := svc.Delete(context.Background(), "crs-1", "s1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !pres.Closed() {
		t.Error("presenter left open for a deleted session")
	}
}

func TestServicePresentDisplaysOneSession(t *testing.T) {
	svc := newTestService(&PortalMock{}, &NotifierMock{})
	defer svc.ClosePresenters()

	pa := svc.Present("a")
	pb := svc.Present("b")
	if !pa.Closed() {
		t.Error("presenter for a still open after displaying b")
	}
	if pb.Closed() {
		t.Error("presenter for b is closed")
	}
	if again := svc.Present("b"); again != pb {
		t.Error("Present() for the displayed session returned a new presenter")
	}
}
