package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

// Redeemer submits credentials (a scanned token or a manually typed session
// id) for redemption. Both paths converge on the same call and result
// handling; at most one submission is in flight at a time.
type Redeemer struct {
	portal   Portal
	notifier core.Notifier
	logger   core.Logger
	identity core.Identity

	mu            sync.Mutex
	inFlight      bool
	manualEntry   string
	sessionStates map[string]bool // last-known active state by session id
}

func NewRedeemer(portal Portal, notifier core.Notifier, logger core.Logger, identity core.Identity) *Redeemer {
	return &Redeemer{
		portal:        portal,
		notifier:      notifier,
		logger:        logger,
		identity:      identity,
		sessionStates: make(map[string]bool),
	}
}

// EnterSessionID stores the manually typed session id.
func (r *Redeemer) EnterSessionID(id string) {
	r.mu.Lock()
	r.manualEntry = core.CleanString(id)
	r.mu.Unlock()
}

func (r *Redeemer) ManualEntry() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.manualEntry
}

// NoteSessionState records the last-known active state of a session, used to
// short-circuit redemptions against sessions known to be inactive.
func (r *Redeemer) NoteSessionState(sessionID string, active bool) {
	r.mu.Lock()
	r.sessionStates[sessionID] = active
	r.mu.Unlock()
}

// RedeemScan consumes a scan event. The token is single-use and time-boxed:
// nothing is retained, a failed redemption needs a fresh scan.
func (r *Redeemer) RedeemScan(ctx context.Context, ev ScanEvent) (RedemptionResult, error) {
	return r.RedeemToken(ctx, ev.RawPayload)
}

func (r *Redeemer) RedeemToken(ctx context.Context, token string) (RedemptionResult, error) {
	req := RedemptionRequest{Token: core.CleanString(token), SubjectID: r.identity.SubjectID}
	return r.redeem(ctx, req)
}

// SubmitManual redeems the typed session id. The input is cleared once the
// submission settles, whatever the outcome, so a stale id cannot be
// resubmitted by accident.
func (r *Redeemer) SubmitManual(ctx context.Context) (RedemptionResult, error) {
	r.mu.Lock()
	id := r.manualEntry
	r.mu.Unlock()

	res, err := r.redeem(ctx, RedemptionRequest{SessionID: id, SubjectID: r.identity.SubjectID})
	if errors.Is(err, ErrRedemptionInFlight) {
		// the outstanding submission clears the input when it settles
		return res, err
	}
	r.mu.Lock()
	r.manualEntry = ""
	r.mu.Unlock()
	return res, err
}

func (r *Redeemer) redeem(ctx context.Context, req RedemptionRequest) (RedemptionResult, error) {
	if err := core.ValidateStruct(req); err != nil {
		return RedemptionResult{}, err // blocked locally, no call made
	}

	// single-flight: overlapping triggers collapse into a no-op
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return RedemptionResult{}, ErrRedemptionInFlight
	}
	r.inFlight = true
	r.mu.Unlock()
	defer func() {
		// released only once the call settles, never optimistically
		r.mu.Lock()
		r.inFlight = false
		r.mu.Unlock()
	}()

	// pre-flight short-circuit: never call out for a session we know is inactive
	if req.SessionID != "" {
		r.mu.Lock()
		active, known := r.sessionStates[req.SessionID]
		r.mu.Unlock()
		if known && !active {
			res := RedemptionResult{Outcome: OutcomeRejected, Reason: ReasonSessionInactive}
			r.project(res, nil)
			return res, nil
		}
	}

	req.AttemptID = uuid.New().String()
	res, err := r.portal.Redeem(ctx, req)
	if err != nil {
		err = pkgerrors.Wrap(err, "redeeming credential")
		r.project(RedemptionResult{}, err)
		return RedemptionResult{}, err
	}
	r.project(res, nil)
	return res, nil
}

// project turns the settled outcome into a transient notification. No retry
// is ever automatic.
func (r *Redeemer) project(res RedemptionResult, err error) {
	switch {
	case err != nil:
		r.logger.Error(fmt.Sprintf("redemption: %v", err), err)
		r.notifier.Notify(core.Notification{
			Level:   core.NotifyError,
			Message: "check-in failed; check your connection and try again",
		})
	case res.Succeeded():
		r.notifier.Notify(core.Notification{
			Level:   core.NotifySuccess,
			Message: "attendance recorded",
			Context: res.Context,
		})
	default:
		r.notifier.Notify(core.Notification{Level: core.NotifyError, Message: reasonMessage(res.Reason)})
	}
}

func reasonMessage(reason Reason) string {
	switch reason {
	case ReasonSessionInactive:
		return "this session is not accepting check-ins"
	case ReasonTokenExpired:
		return "this code has expired; scan the current one"
	case ReasonAlreadyRedeemed:
		return "attendance already recorded for this session"
	case ReasonNotEligible:
		return "you are not enrolled in this course"
	default:
		return "check-in rejected"
	}
}
