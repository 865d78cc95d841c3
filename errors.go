package phenyl

import (
	"encoding/json"
	"errors"
)

// ErrorKind classifies a pipeline failure. Anything a hook or collaborator
// raises without a kind of its own collapses to KindInternal at the Run
// boundary.
type ErrorKind uint8

const (
	// KindInternal is the generic kind for uncaught failures.
	KindInternal ErrorKind = iota
	// KindInvalidRequest marks a malformed command shape.
	KindInvalidRequest
	// KindUnauthorized marks an ACL rejection or failed credential verification.
	KindUnauthorized
	// KindBadRequest marks failed semantic validation or logout of an unknown session.
	KindBadRequest
	// KindNotFound marks an unrecognized command variant or a missing entity.
	KindNotFound
)

// String returns the wire name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindUnauthorized:
		return "Unauthorized"
	case KindBadRequest:
		return "BadRequest"
	case KindNotFound:
		return "NotFound"
	default:
		return "InternalServer"
	}
}

// Error is the typed error payload carried inside a [Result]. It implements
// the error interface so collaborators can return one through a plain error
// value and have the kind survive to the caller.
type Error struct {
	Kind    ErrorKind
	Message string
}

// NewError builds a typed error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// MarshalJSON emits the wire form {"ok":0,"type":...,"message":...}.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OK      int    `json:"ok"`
		Type    string `json:"type"`
		Message string `json:"message"`
	}{0, e.Kind.String(), e.Message})
}

// AsError converts any error to a typed *Error. Errors that already carry a
// kind pass through verbatim; everything else becomes KindInternal.
func AsError(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return &Error{Kind: KindInternal, Message: err.Error()}
}
