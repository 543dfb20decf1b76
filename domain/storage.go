package domain

import (
	"context"
)

// Provider opens transactional scopes over the underlying storage engine.
type Provider interface {
	Scope(ctx context.Context) (Scope, error)
}

// Scope is an atomic unit of work over domain records.
//
// All record writes buffered or performed within a scope become durably
// visible together at Commit, or not at all. Reads within a scope observe
// the scope's own pending writes.
//
// A scope is either owned by the store for the duration of a single save,
// or supplied by an external caller via WithScope; in the latter case the
// caller controls Commit/Rollback and the store never calls them.
//
// Implementations must guarantee that two scopes concurrently appending the
// same (aggregate ID, version) pair cannot both commit: the loser fails with
// an error matching ErrConcurrencyConflict.
type Scope interface {
	// EnsureAggregate inserts the aggregate record if absent. Never duplicates.
	EnsureAggregate(ctx context.Context, r AggregateRecord) error
	InsertCommand(ctx context.Context, r CommandRecord) error
	InsertEvent(ctx context.Context, r EventRecord) error
	// CountEvents returns the number of event records of the aggregate,
	// including records pending in this scope.
	CountEvents(ctx context.Context, aggID string) (int64, error)
	// LoadEvents returns the aggregate's event records ordered ascending by version.
	LoadEvents(ctx context.Context, aggID string) ([]EventRecord, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
