package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSaveRequest  = errors.New("invalid save request")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrAppendRecordsFailed = errors.New("append domain records failed")
	ErrLoadEventsFailed    = errors.New("load events failed")

	ErrNotFoundInRegistry   = errors.New("event type not found in registry")
	ErrMarshalEventFailed   = errors.New("marshal event failed")
	ErrUnmarshalEventFailed = errors.New("unmarshal event failed")
)

// Err wraps the given sentinel error with the aggregate ID and optional extra infos.
func Err(err error, aggID string, extra ...interface{}) error {
	if len(extra) == 0 {
		return fmt.Errorf("%w: aggregate=%s", err, aggID)
	}
	return fmt.Errorf("%w: aggregate=%s extra=%v", err, aggID, extra)
}
