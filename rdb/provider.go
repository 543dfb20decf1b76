package rdb

import (
	"context"

	"github.com/ln80/domainstore/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// provider implements the domain.Provider interface on top of a relational
// database through gorm. Postgres and SQLite dialects are supported.
type provider struct {
	db *gorm.DB
}

var _ domain.Provider = &provider{}

// NewProvider returns a relational storage provider over the given gorm handle.
// It may panic if the handle is missing.
func NewProvider(db *gorm.DB) domain.Provider {
	if db == nil {
		panic("rdb provider invalid db handle: nil value")
	}
	return &provider{db: db}
}

// Scope implements the Scope method of the domain.Provider interface.
func (p *provider) Scope(ctx context.Context) (domain.Scope, error) {
	tx := p.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &scope{tx: tx}, nil
}

// Join returns a scope over an already-open gorm transaction. The transaction
// owner keeps control of Commit/Rollback; saves joining this scope only become
// visible once the owner commits.
func Join(tx *gorm.DB) domain.Scope {
	return &scope{tx: tx}
}

type scope struct {
	tx *gorm.DB
}

var _ domain.Scope = &scope{}

// EnsureAggregate implements the EnsureAggregate method of the domain.Scope interface.
func (s *scope) EnsureAggregate(ctx context.Context, r domain.AggregateRecord) error {
	m := toAggregate(r)
	return s.tx.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&m).Error
}

// InsertCommand implements the InsertCommand method of the domain.Scope interface.
func (s *scope) InsertCommand(ctx context.Context, r domain.CommandRecord) error {
	m := toCommand(r)
	return s.tx.Create(&m).Error
}

// InsertEvent implements the InsertEvent method of the domain.Scope interface.
// A concurrent writer that already took the version surfaces here, or at
// commit, as a unique violation on (aggregate_id, version).
func (s *scope) InsertEvent(ctx context.Context, r domain.EventRecord) error {
	m := toEvent(r)
	if err := s.tx.Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Err(domain.ErrConcurrencyConflict, r.AggregateID,
				"version already taken", r.Version)
		}
		return err
	}
	return nil
}

// CountEvents implements the CountEvents method of the domain.Scope interface.
// The count runs inside the transaction and reflects rows inserted earlier in
// the same scope.
func (s *scope) CountEvents(ctx context.Context, aggID string) (int64, error) {
	var count int64
	err := s.tx.Model(&Event{}).
		Where("aggregate_id = ?", aggID).
		Count(&count).Error
	return count, err
}

// LoadEvents implements the LoadEvents method of the domain.Scope interface.
func (s *scope) LoadEvents(ctx context.Context, aggID string) ([]domain.EventRecord, error) {
	var ms []Event
	if err := s.tx.
		Where("aggregate_id = ?", aggID).
		Order("version ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	recs := make([]domain.EventRecord, len(ms))
	for i, m := range ms {
		recs[i] = fromEvent(m)
	}
	return recs, nil
}

// Commit implements the Commit method of the domain.Scope interface.
func (s *scope) Commit(ctx context.Context) error {
	if err := s.tx.Commit().Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Err(domain.ErrConcurrencyConflict, "", err)
		}
		return err
	}
	return nil
}

// Rollback implements the Rollback method of the domain.Scope interface.
func (s *scope) Rollback(ctx context.Context) error {
	return s.tx.Rollback().Error
}
