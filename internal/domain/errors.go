package domain

import (
	"context"
	"errors"
)

var (
	ErrTransport            = errors.New("transport error")
	ErrDataUnavailable      = errors.New("data unavailable")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrPersistence          = errors.New("persistence error")
	ErrUnsupportedPair      = errors.New("unsupported pair")
	ErrUnsupportedTimeframe = errors.New("unsupported timeframe")
)

type ErrorKind string

const (
	KindTransport       ErrorKind = "transport"
	KindDataUnavailable ErrorKind = "data_unavailable"
	KindInsufficient    ErrorKind = "insufficient_data"
	KindPersistence     ErrorKind = "persistence"
	KindInvalidRequest  ErrorKind = "invalid_request"
	KindUnknown         ErrorKind = "unknown"
)

// KindOf maps err onto the error taxonomy. Context expiry counts as transport.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedPair), errors.Is(err, ErrUnsupportedTimeframe):
		return KindInvalidRequest
	case errors.Is(err, ErrDataUnavailable):
		return KindDataUnavailable
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficient
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case errors.Is(err, ErrTransport),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindTransport
	}
	return KindUnknown
}
