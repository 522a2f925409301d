package api

import (
	"errors"
	"net/http"

	jobqueue "github.com/okian/rinkcast/internal/adapters/mq/queue"
	"github.com/okian/rinkcast/internal/adapters/repository"
	service "github.com/okian/rinkcast/internal/app"
	"github.com/okian/rinkcast/internal/domain/situation"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInternal     = errors.New("internal error")
)

// Error carries the failing operation, a sentinel kind and the cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both kind and cause to errors.Is.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap annotates err with op and a kind derived from the error chain.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kindOf(err), Err: err}
}

// WrapKind annotates err with op and an explicit kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error that is only op and kind.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// kindOf maps downstream sentinels onto API kinds.
func kindOf(err error) error {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrRosterTooLarge),
		errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, situation.ErrInvalidCode):
		return ErrBadRequest
	case errors.Is(err, ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNoData):
		return ErrNotFound
	case errors.Is(err, ErrBackpressure), errors.Is(err, jobqueue.ErrFull):
		return ErrBackpressure
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, service.ErrNotStarted),
		errors.Is(err, jobqueue.ErrClosed):
		return ErrUnavailable
	default:
		return ErrInternal
	}
}

// statusOf returns the HTTP status and error code for err.
func statusOf(err error) (int, string) {
	switch kindOf(err) {
	case ErrBadRequest:
		return http.StatusBadRequest, "bad_request"
	case ErrNotFound:
		return http.StatusNotFound, "not_found"
	case ErrBackpressure:
		return http.StatusTooManyRequests, "backpressure"
	case ErrUnavailable:
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
