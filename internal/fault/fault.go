package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is the category of a classified error.
type Kind int

const (
	// Other is any error without a more specific category.
	Other Kind = iota
	// Conflict means the resource already exists or changed concurrently.
	Conflict
	// NotFound means the resource is absent.
	NotFound
	// Busy means the resource is in use or locked and the call may succeed later.
	Busy
	// Transient means the peer could not be reached (refused, reset, timeout).
	Transient
)

func (k Kind) String() string {
	switch k {
	case Conflict:
		return "conflict"
	case NotFound:
		return "not-found"
	case Busy:
		return "resource-busy"
	case Transient:
		return "transient-network"
	default:
		return "other"
	}
}

// Error is an error tagged with a Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap tags err with kind and op. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// New builds a classified error from a message.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// KindOf returns the kind of the outermost classified error in the chain,
// falling back to Classify for unclassified network errors.
func KindOf(err error) Kind {
	if err == nil {
		return Other
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Classify(err)
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsNotFound(err error) bool  { return Is(err, NotFound) }
func IsConflict(err error) bool  { return Is(err, Conflict) }
func IsBusy(err error) bool      { return Is(err, Busy) }
func IsTransient(err error) bool { return Is(err, Transient) }

// Classify inspects raw transport errors. Connection refused, reset, no
// route, network timeouts and gRPC Unavailable/DeadlineExceeded are
// Transient; everything else is Other.
func Classify(err error) Kind {
	if err == nil {
		return Other
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Transient
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded:
			return Transient
		case codes.NotFound:
			return NotFound
		case codes.AlreadyExists:
			return Conflict
		}
	}

	return Other
}
