package domain

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Event is a replayed stream entry: the typed domain event plus its position
// in the aggregate's history.
type Event struct {
	AggregateID string
	Version     int64
	Type        string
	At          time.Time
	// Data is a pointer to the reconstructed domain event.
	Data interface{}
}

// Store is the persistence core of the domain model: it durably records the
// aggregate, the command, and the ordered events the command produced, as one
// atomic unit, under optimistic concurrency control.
//
// Conflict resolution is the caller's job: on ErrConcurrencyConflict, re-derive
// the events against the current aggregate state and resubmit. The store never
// retries on its own.
type Store interface {
	Save(ctx context.Context, req SaveRequest, opts ...SaveOption) error
	// LoadEvents returns the aggregate's typed event history in version order.
	// An aggregate with no history yields an empty slice, not an error.
	LoadEvents(ctx context.Context, aggID string) ([]Event, error)
}

type StoreConfig struct {
	Factory  RecordFactory
	Resolver VersionResolver
	Logger   *zap.Logger
}

type StoreOption func(cfg *StoreConfig)

// WithRecordFactory overrides the default record factory.
func WithRecordFactory(f RecordFactory) StoreOption {
	return func(cfg *StoreConfig) {
		cfg.Factory = f
	}
}

// WithVersionResolver overrides the default version resolver.
func WithVersionResolver(r VersionResolver) StoreOption {
	return func(cfg *StoreConfig) {
		cfg.Resolver = r
	}
}

// WithLogger sets the store logger. The default is a nop logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(cfg *StoreConfig) {
		cfg.Logger = l
	}
}

type saveConfig struct {
	scope Scope
}

type SaveOption func(cfg *saveConfig)

// WithScope makes the save join the given, already-open scope instead of
// opening its own. The scope's owner keeps control of Commit/Rollback;
// the saved records only become visible once the owner commits.
func WithScope(sc Scope) SaveOption {
	return func(cfg *saveConfig) {
		cfg.scope = sc
	}
}

type store struct {
	provider   Provider
	serializer Serializer

	*StoreConfig
}

var _ Store = &store{}

// NewStore returns a domain store on top of the given storage provider.
// It may panic if any of the required parameters is missing.
func NewStore(p Provider, ser Serializer, opts ...StoreOption) Store {
	if p == nil {
		panic("domain store invalid storage provider: nil value")
	}
	if ser == nil {
		panic("domain store invalid serializer: nil value")
	}
	s := &store{
		provider:   p,
		serializer: ser,
		StoreConfig: &StoreConfig{
			Resolver: NewVersionResolver(),
			Logger:   zap.NewNop(),
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s.StoreConfig)
	}
	if s.Factory == nil {
		s.Factory = NewRecordFactory(ser)
	}
	return s
}

// Save implements the Save method of the Store interface.
//
// Either all records (aggregate-if-new, command, all events) become durable
// together, or none do. On a version conflict or storage failure an owned
// scope is rolled back entirely; a joined scope is left to its owner.
func (s *store) Save(ctx context.Context, req SaveRequest, opts ...SaveOption) error {
	if err := req.validate(); err != nil {
		return err
	}
	cfg := saveConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	aggID := req.Command.AggregateID

	sc, owned := cfg.scope, cfg.scope == nil
	if owned {
		var err error
		if sc, err = s.provider.Scope(ctx); err != nil {
			return Err(ErrAppendRecordsFailed, aggID, err)
		}
	}
	fail := func(err error) error {
		if owned {
			if rerr := sc.Rollback(ctx); rerr != nil {
				s.Logger.Warn("rollback failed",
					zap.String("aggregate_id", aggID), zap.Error(rerr))
			}
		}
		return err
	}
	wrap := func(err error) error {
		if errors.Is(err, ErrConcurrencyConflict) {
			return err
		}
		return Err(ErrAppendRecordsFailed, aggID, err)
	}

	agg, err := s.Factory.AggregateRecord(req.AggregateType, aggID)
	if err != nil {
		return fail(wrap(err))
	}
	if err := sc.EnsureAggregate(ctx, agg); err != nil {
		return fail(wrap(err))
	}

	cmd, err := s.Factory.CommandRecord(req.Command)
	if err != nil {
		return fail(wrap(err))
	}
	if err := sc.InsertCommand(ctx, cmd); err != nil {
		return fail(wrap(err))
	}

	// The expectation advances with the count so that a batch of N events
	// assigns N consecutive versions under a single caller expectation.
	expected := req.Command.ExpectedVersion
	for _, evt := range req.Events {
		current, err := sc.CountEvents(ctx, aggID)
		if err != nil {
			return fail(wrap(err))
		}
		next, err := s.Resolver.Next(aggID, current, expected)
		if err != nil {
			return fail(err)
		}
		if expected != VersionAny {
			expected++
		}
		rec, err := s.Factory.EventRecord(aggID, next, evt)
		if err != nil {
			return fail(wrap(err))
		}
		if err := sc.InsertEvent(ctx, rec); err != nil {
			return fail(wrap(err))
		}
	}

	if owned {
		if err := sc.Commit(ctx); err != nil {
			return fail(wrap(err))
		}
	}

	s.Logger.Debug("saved domain records",
		zap.String("aggregate_id", aggID),
		zap.String("command_id", req.Command.ID),
		zap.Int("events", len(req.Events)),
		zap.Bool("joined_scope", !owned),
	)
	return nil
}

// LoadEvents implements the LoadEvents method of the Store interface.
func (s *store) LoadEvents(ctx context.Context, aggID string) ([]Event, error) {
	if aggID == "" {
		return nil, Err(ErrLoadEventsFailed, "", "empty aggregate ID")
	}
	sc, err := s.provider.Scope(ctx)
	if err != nil {
		return nil, Err(ErrLoadEventsFailed, aggID, err)
	}
	// read-only use of the scope
	defer func() {
		if rerr := sc.Rollback(ctx); rerr != nil {
			s.Logger.Warn("rollback of read scope failed",
				zap.String("aggregate_id", aggID), zap.Error(rerr))
		}
	}()

	recs, err := sc.LoadEvents(ctx, aggID)
	if err != nil {
		return nil, Err(ErrLoadEventsFailed, aggID, err)
	}

	evts := make([]Event, 0, len(recs))
	for _, rec := range recs {
		data, err := s.serializer.UnmarshalEvent(rec.Type, rec.Data)
		if err != nil {
			return nil, err
		}
		evts = append(evts, Event{
			AggregateID: rec.AggregateID,
			Version:     rec.Version,
			Type:        rec.Type,
			At:          rec.CreatedAt,
			Data:        data,
		})
	}
	return evts, nil
}
