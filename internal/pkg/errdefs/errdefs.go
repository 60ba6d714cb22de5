package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the remediation it needs: fix the
// configuration, retry the provider later, or look at the database.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindTransport
	KindProviderResponse
	KindStorage
	KindChunkingDegenerate
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindProviderResponse:
		return "provider_response"
	case KindStorage:
		return "storage"
	case KindChunkingDegenerate:
		return "chunking_degenerate"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap keeps the underlying error reachable through errors.Is/As; storage
// wrappers rely on this to preserve the engine message verbatim.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsConfiguration(err error) bool {
	return KindOf(err) == KindConfiguration
}

func IsTransport(err error) bool {
	return KindOf(err) == KindTransport
}

func IsProviderResponse(err error) bool {
	return KindOf(err) == KindProviderResponse
}

func IsStorage(err error) bool {
	return KindOf(err) == KindStorage
}

func IsChunkingDegenerate(err error) bool {
	return KindOf(err) == KindChunkingDegenerate
}
