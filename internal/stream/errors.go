package stream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/llehouerou/streamwave/internal/catalog"
)

// Kind classifies a resolution failure.
type Kind int

const (
	KindRemote Kind = iota
	KindNoConnectivity
	KindTimeout
	KindNotPlayable
	KindNoPlayableStream
)

func (k Kind) String() string {
	switch k {
	case KindNoConnectivity:
		return "no connectivity"
	case KindTimeout:
		return "timeout"
	case KindNotPlayable:
		return "not playable"
	case KindNoPlayableStream:
		return "no playable stream"
	default:
		return "remote error"
	}
}

// Player error codes carried by ResolutionError.Code.
const (
	CodeRemote            = 1001
	CodeConnectionFailed  = 2001
	CodeConnectionTimeout = 2002
	CodeNoStream          = 1000001
)

// Sentinels for errors.Is against a *ResolutionError of the matching kind.
var (
	ErrNoConnectivity   = errors.New("no connectivity")
	ErrTimeout          = errors.New("timeout")
	ErrRemote           = errors.New("remote error")
	ErrNotPlayable      = errors.New("not playable")
	ErrNoPlayableStream = errors.New("no playable stream")

	// ErrNoMediaID is returned when Resolve is called without a track id.
	ErrNoMediaID = errors.New("no media id")
)

// ResolutionError is the typed failure returned by Resolve.
type ResolutionError struct {
	Kind   Kind
	Code   int
	Reason string // remote-provided reason for KindNotPlayable
	Err    error
}

func (e *ResolutionError) Error() string {
	msg := e.Kind.String()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *ResolutionError) Is(target error) bool {
	switch target {
	case ErrNoConnectivity:
		return e.Kind == KindNoConnectivity
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrRemote:
		return e.Kind == KindRemote
	case ErrNotPlayable:
		return e.Kind == KindNotPlayable
	case ErrNoPlayableStream:
		return e.Kind == KindNoPlayableStream
	}
	return false
}

// classify maps a transport or catalog failure to a ResolutionError.
func classify(err error) *ResolutionError {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ResolutionError{Kind: KindTimeout, Code: CodeConnectionTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ResolutionError{Kind: KindTimeout, Code: CodeConnectionTimeout, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return &ResolutionError{Kind: KindNoConnectivity, Code: CodeConnectionFailed, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &ResolutionError{Kind: KindNoConnectivity, Code: CodeConnectionFailed, Err: err}
	}

	code := CodeRemote
	var statusErr *catalog.StatusError
	if errors.As(err, &statusErr) {
		code = statusErr.Code
	}
	return &ResolutionError{Kind: KindRemote, Code: code, Err: err}
}

func notPlayable(reason string) *ResolutionError {
	return &ResolutionError{Kind: KindNotPlayable, Code: CodeRemote, Reason: reason}
}

func noPlayableStream(id string) *ResolutionError {
	return &ResolutionError{Kind: KindNoPlayableStream, Code: CodeNoStream, Err: fmt.Errorf("track %s", id)}
}
