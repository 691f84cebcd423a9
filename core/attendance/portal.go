package attendance

import (
	"context"
	"errors"
)

var (
	// errors
	ErrSessionNotFound    = errors.New("attendance session not found")
	ErrOperationFailed    = errors.New("operation failed")
	ErrRedemptionInFlight = errors.New("a redemption is already in flight")
)

// Portal is the server-held side of the check-in protocol. Both sides of the
// client rendezvous only through it; it is consumed here, never implemented.
type Portal interface {
	CreateSession(ctx context.Context, ns NewSession) (Session, error)
	SetSessionActive(ctx context.Context, sessionID string, active bool) (Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	// QuerySessions returns the owner's sessions for a course, newest first.
	QuerySessions(ctx context.Context, courseID string) ([]Session, error)
	CurrentToken(ctx context.Context, sessionID string) (RotatingToken, error)
	// Redeem exchanges a credential for an attendance record. Semantic
	// rejections come back in the result; an error means transport failure.
	Redeem(ctx context.Context, req RedemptionRequest) (RedemptionResult, error)
}
