package session

import (
	"context"
	"errors"
)

// ErrExpiredPreSession is returned by Create when the pre-session's expiry is
// already in the past.
var ErrExpiredPreSession = errors.New("pre-session already expired")

// Store persists sessions. Implementations must be safe for concurrent use.
//
// Get returns (nil, nil) when no live session exists for the id — absence is
// not an error. Delete reports whether a record existed and was removed, so
// callers can distinguish "logged out" from "was never logged in".
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Create(ctx context.Context, pre PreSession) (*Session, error)
	Delete(ctx context.Context, id string) (bool, error)
}
