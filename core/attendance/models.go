package attendance

import (
	"time"
)

// Redemption outcomes
const (
	OutcomeSuccess  = Outcome("success")
	OutcomeRejected = Outcome("rejected")
)

// Rejection reason codes, surfaced verbatim by the portal.
const (
	ReasonSessionInactive = Reason("session_inactive")
	ReasonTokenExpired    = Reason("token_expired")
	ReasonAlreadyRedeemed = Reason("already_redeemed")
	ReasonNotEligible     = Reason("not_eligible")
)

type (
	Outcome string
	Reason  string
)

// Session is an owner-created, time-boxed record against which attendees
// redeem credentials. Only an active session accepts redemptions; deletion is
// terminal. The portal is the authority on all of it, this is a projection.
type Session struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	OwnerID   string    `json:"owner_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewSession struct {
	CourseID        string    `json:"course_id" validate:"required"`
	Date            time.Time `json:"date" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
}

// RotatingToken is the short-lived opaque credential reissued by the portal on
// a cadence. The client never inspects Value, it only transports it.
type RotatingToken struct {
	SessionID string    `json:"session_id"`
	Value     string    `json:"value"`
	IssuedAt  time.Time `json:"issued_at"`
}

func (t RotatingToken) IsZero() bool { return t.Value == "" }

// ScanEvent is produced exactly once per successful camera decode; producing
// it terminates the scan lifecycle.
type ScanEvent struct {
	RawPayload string
	DecodedAt  time.Time
}

// RedemptionRequest carries exactly one credential: a scanned token or a
// manually entered session id. AttemptID is client-generated so the portal can
// tell a retried submission from a new one.
type RedemptionRequest struct {
	AttemptID string `json:"attempt_id"`
	Token     string `json:"token,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	SubjectID string `json:"subject_id" validate:"required"`
}

type RedemptionResult struct {
	Outcome Outcome `json:"outcome"`
	Reason  Reason  `json:"reason_code,omitempty"`
	Context string  `json:"context,omitempty"` // e.g. the course checked into
}

func (res RedemptionResult) Succeeded() bool { return res.Outcome == OutcomeSuccess }
