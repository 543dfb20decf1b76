package domain

import (
	"github.com/google/uuid"
)

// Command is a request to change an aggregate's state.
// Its payload is persisted next to the events it produced, in the same atomic unit.
type Command struct {
	ID          string
	AggregateID string
	// Type tag of the payload; defaults to TypeOf(Payload) when empty.
	Type    string
	Payload interface{}
	// ExpectedVersion is the version the caller believed the aggregate was at
	// when it issued the command. VersionAny disables the concurrency check.
	ExpectedVersion int64
}

// NewCommand returns a command with a generated ID and no version expectation.
func NewCommand(aggID string, payload interface{}) Command {
	return Command{
		ID:              uuid.NewString(),
		AggregateID:     aggID,
		Payload:         payload,
		ExpectedVersion: VersionAny,
	}
}

// WithExpectedVersion returns a copy of the command carrying the given expectation.
func (c Command) WithExpectedVersion(ver int64) Command {
	c.ExpectedVersion = ver
	return c
}

// SaveRequest carries a command and the ordered events produced by applying it
// to an aggregate. The event list may be empty when the command caused no
// state change; the command record is still written.
type SaveRequest struct {
	AggregateType string
	Command       Command
	Events        []interface{}
}

func (r SaveRequest) validate() error {
	if r.AggregateType == "" {
		return Err(ErrInvalidSaveRequest, r.Command.AggregateID, "empty aggregate type")
	}
	if r.Command.AggregateID == "" {
		return Err(ErrInvalidSaveRequest, "", "empty aggregate ID")
	}
	if r.Command.ID == "" {
		return Err(ErrInvalidSaveRequest, r.Command.AggregateID, "empty command ID")
	}
	if r.Command.Payload == nil {
		return Err(ErrInvalidSaveRequest, r.Command.AggregateID, "empty command payload")
	}
	if r.Command.ExpectedVersion < VersionAny {
		return Err(ErrInvalidSaveRequest, r.Command.AggregateID,
			"invalid expected version", r.Command.ExpectedVersion)
	}
	for _, evt := range r.Events {
		if evt == nil {
			return Err(ErrInvalidSaveRequest, r.Command.AggregateID, "nil event in batch")
		}
	}
	return nil
}
