package domain

import (
	"time"
)

// AggregateRecord marks the existence of an aggregate instance.
// It is created once, on the aggregate's first write, and never mutated.
type AggregateRecord struct {
	ID   string
	Type string
}

// CommandRecord is the storable shape of a command. Immutable once written.
type CommandRecord struct {
	ID          string
	AggregateID string
	Type        string
	Data        []byte
	CreatedAt   time.Time
}

// EventRecord is the storable shape of a domain event. Versions of an
// aggregate's records form a contiguous 1-based sequence; records are never
// updated or deleted.
type EventRecord struct {
	ID          string
	AggregateID string
	Version     int64
	Type        string
	Data        []byte
	CreatedAt   time.Time
}

// RecordFactory turns domain objects into storable records.
// Implementations are pure transformations and must not perform I/O.
type RecordFactory interface {
	AggregateRecord(aggType, aggID string) (AggregateRecord, error)
	CommandRecord(cmd Command) (CommandRecord, error)
	EventRecord(aggID string, version int64, evt interface{}) (EventRecord, error)
}

type FactoryConfig struct {
	Clock func() time.Time
}

// WithClock overrides the factory's timestamp source, mainly used in tests.
func WithClock(clock func() time.Time) func(*FactoryConfig) {
	return func(cfg *FactoryConfig) {
		cfg.Clock = clock
	}
}

type recordFactory struct {
	serializer Serializer

	*FactoryConfig
}

var _ RecordFactory = &recordFactory{}

// NewRecordFactory returns a record factory based on the given serializer.
func NewRecordFactory(ser Serializer, opts ...func(*FactoryConfig)) RecordFactory {
	f := &recordFactory{
		serializer: ser,
		FactoryConfig: &FactoryConfig{
			Clock: func() time.Time { return time.Now().UTC() },
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(f.FactoryConfig)
	}
	return f
}

// AggregateRecord implements the AggregateRecord method of the RecordFactory interface.
func (f *recordFactory) AggregateRecord(aggType, aggID string) (AggregateRecord, error) {
	return AggregateRecord{
		ID:   aggID,
		Type: aggType,
	}, nil
}

// CommandRecord implements the CommandRecord method of the RecordFactory interface.
func (f *recordFactory) CommandRecord(cmd Command) (CommandRecord, error) {
	b, err := f.serializer.Marshal(cmd.Payload)
	if err != nil {
		return CommandRecord{}, err
	}
	cmdType := cmd.Type
	if cmdType == "" {
		cmdType = TypeOf(cmd.Payload)
	}
	return CommandRecord{
		ID:          cmd.ID,
		AggregateID: cmd.AggregateID,
		Type:        cmdType,
		Data:        b,
		CreatedAt:   f.Clock(),
	}, nil
}

// EventRecord implements the EventRecord method of the RecordFactory interface.
func (f *recordFactory) EventRecord(aggID string, version int64, evt interface{}) (EventRecord, error) {
	b, err := f.serializer.Marshal(evt)
	if err != nil {
		return EventRecord{}, err
	}
	return EventRecord{
		ID:          UID().String(),
		AggregateID: aggID,
		Version:     version,
		Type:        TypeOf(evt),
		Data:        b,
		CreatedAt:   f.Clock(),
	}, nil
}
