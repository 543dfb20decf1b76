package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ln80/domainstore/domain"
)

var (
	ErrScopeClosed = errors.New("scope already committed or rolled back")
)

// provider is an in-memory storage provider, mainly used in tests and local dev.
// Scopes buffer their writes and apply them atomically at commit, re-validating
// version uniqueness under the provider lock.
type provider struct {
	mu         sync.Mutex
	aggregates map[string]domain.AggregateRecord
	commands   map[string]domain.CommandRecord
	events     map[string][]domain.EventRecord
}

var _ domain.Provider = &provider{}

// NewProvider returns an in-memory storage provider.
func NewProvider() domain.Provider {
	return &provider{
		aggregates: make(map[string]domain.AggregateRecord),
		commands:   make(map[string]domain.CommandRecord),
		events:     make(map[string][]domain.EventRecord),
	}
}

func (p *provider) Scope(ctx context.Context) (domain.Scope, error) {
	return &scope{
		p:          p,
		aggregates: make(map[string]domain.AggregateRecord),
	}, nil
}

type scope struct {
	p *provider

	aggregates map[string]domain.AggregateRecord
	commands   []domain.CommandRecord
	events     []domain.EventRecord

	closed bool
}

var _ domain.Scope = &scope{}

// EnsureAggregate implements the EnsureAggregate method of the domain.Scope interface.
func (s *scope) EnsureAggregate(ctx context.Context, r domain.AggregateRecord) error {
	if s.closed {
		return ErrScopeClosed
	}
	s.p.mu.Lock()
	_, ok := s.p.aggregates[r.ID]
	s.p.mu.Unlock()
	if ok {
		return nil
	}
	s.aggregates[r.ID] = r
	return nil
}

// InsertCommand implements the InsertCommand method of the domain.Scope interface.
func (s *scope) InsertCommand(ctx context.Context, r domain.CommandRecord) error {
	if s.closed {
		return ErrScopeClosed
	}
	s.commands = append(s.commands, r)
	return nil
}

// InsertEvent implements the InsertEvent method of the domain.Scope interface.
func (s *scope) InsertEvent(ctx context.Context, r domain.EventRecord) error {
	if s.closed {
		return ErrScopeClosed
	}
	for _, pending := range s.events {
		if pending.AggregateID == r.AggregateID && pending.Version == r.Version {
			return domain.Err(domain.ErrConcurrencyConflict, r.AggregateID,
				"version already pending", r.Version)
		}
	}
	s.events = append(s.events, r)
	return nil
}

// CountEvents implements the CountEvents method of the domain.Scope interface.
func (s *scope) CountEvents(ctx context.Context, aggID string) (int64, error) {
	if s.closed {
		return 0, ErrScopeClosed
	}
	s.p.mu.Lock()
	count := int64(len(s.p.events[aggID]))
	s.p.mu.Unlock()
	for _, pending := range s.events {
		if pending.AggregateID == aggID {
			count++
		}
	}
	return count, nil
}

// LoadEvents implements the LoadEvents method of the domain.Scope interface.
func (s *scope) LoadEvents(ctx context.Context, aggID string) ([]domain.EventRecord, error) {
	if s.closed {
		return nil, ErrScopeClosed
	}
	s.p.mu.Lock()
	recs := append([]domain.EventRecord{}, s.p.events[aggID]...)
	s.p.mu.Unlock()
	for _, pending := range s.events {
		if pending.AggregateID == aggID {
			recs = append(recs, pending)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Version < recs[j].Version
	})
	return recs, nil
}

// Commit implements the Commit method of the domain.Scope interface.
// Version checks are re-validated under the provider lock right before the
// buffered records are applied, so concurrent scopes that both read the same
// current version cannot both commit.
func (s *scope) Commit(ctx context.Context) error {
	if s.closed {
		return ErrScopeClosed
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.closed = true

	for _, r := range s.events {
		for _, committed := range s.p.events[r.AggregateID] {
			if committed.Version == r.Version {
				return domain.Err(domain.ErrConcurrencyConflict, r.AggregateID,
					"version already committed", r.Version)
			}
		}
	}

	for id, r := range s.aggregates {
		if _, ok := s.p.aggregates[id]; !ok {
			s.p.aggregates[id] = r
		}
	}
	for _, r := range s.commands {
		s.p.commands[r.ID] = r
	}
	for _, r := range s.events {
		s.p.events[r.AggregateID] = append(s.p.events[r.AggregateID], r)
		sort.Slice(s.p.events[r.AggregateID], func(i, j int) bool {
			return s.p.events[r.AggregateID][i].Version < s.p.events[r.AggregateID][j].Version
		})
	}
	return nil
}

// Rollback implements the Rollback method of the domain.Scope interface.
func (s *scope) Rollback(ctx context.Context) error {
	s.closed = true
	s.aggregates = nil
	s.commands = nil
	s.events = nil
	return nil
}
