// Package failure classifies errors returned by the bot's collaborators
// (generation, delivery, storage, rendering) so callers can branch on a
// kind instead of string-matching errors.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type Kind int

const (
	None Kind = iota
	Timeout
	Transport
	Malformed
	Unavailable
	Rejected
	Internal
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Timeout:
		return "timeout"
	case Transport:
		return "transport"
	case Malformed:
		return "malformed"
	case Unavailable:
		return "unavailable"
	case Rejected:
		return "rejected"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error tags an underlying error with a Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap tags err with the kind KindOf would infer, falling back to def.
func Wrap(op string, def Kind, err error) error {
	if err == nil {
		return nil
	}
	k := KindOf(err)
	if k == Internal {
		k = def
	}
	return &Error{Kind: k, Op: op, Err: err}
}

// KindOf reports the kind of err. Deadlines map to Timeout, network errors
// to Transport, untagged errors to Internal.
func KindOf(err error) Kind {
	if err == nil {
		return None
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return Timeout
		}
		return Transport
	}
	return Internal
}
