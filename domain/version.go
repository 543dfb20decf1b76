package domain

import (
	"strconv"
)

// VersionAny is the expected-version sentinel meaning "no expectation":
// the save is accepted whatever the aggregate's current version is.
// It is the right value for aggregate creation.
const VersionAny int64 = -1

// VersionResolver decides the version number to assign to the next event of
// an aggregate, or signals a concurrency conflict. It is a pure collaborator,
// injected into the store; it holds no state of its own.
type VersionResolver interface {
	// Next returns the version to assign given the number of events already
	// persisted for the aggregate and the version the caller expects it to be at.
	// A mismatch fails with ErrConcurrencyConflict.
	Next(aggID string, current, expected int64) (int64, error)
}

type versionResolver struct{}

var _ VersionResolver = versionResolver{}

func NewVersionResolver() VersionResolver {
	return versionResolver{}
}

// Next implements the Next method of the VersionResolver interface.
func (versionResolver) Next(aggID string, current, expected int64) (int64, error) {
	if expected == VersionAny {
		return current + 1, nil
	}
	if expected != current {
		return 0, Err(ErrConcurrencyConflict, aggID,
			"expected version "+strconv.FormatInt(expected, 10)+
				", current "+strconv.FormatInt(current, 10))
	}
	return current + 1, nil
}
