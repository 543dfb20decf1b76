package rdb

import (
	"time"

	"github.com/ln80/domainstore/domain"
)

// Aggregate is the relational shape of a domain.AggregateRecord.
type Aggregate struct {
	ID   string `gorm:"primaryKey;size:128"`
	Type string `gorm:"size:255;not null"`
}

// Command is the relational shape of a domain.CommandRecord.
type Command struct {
	ID          string `gorm:"primaryKey;size:128"`
	AggregateID string `gorm:"size:128;index;not null"`
	Type        string `gorm:"size:255;not null"`
	Data        []byte
	CreatedAt   time.Time
}

// Event is the relational shape of a domain.EventRecord.
// The composite primary key on (aggregate_id, version) is what makes
// concurrent writers of the same version physically unable to both commit.
type Event struct {
	AggregateID string `gorm:"primaryKey;size:128"`
	Version     int64  `gorm:"primaryKey;autoIncrement:false"`
	ID          string `gorm:"size:64;not null"`
	Type        string `gorm:"size:255;not null"`
	Data        []byte
	CreatedAt   time.Time
}

func toAggregate(r domain.AggregateRecord) Aggregate {
	return Aggregate{ID: r.ID, Type: r.Type}
}

func toCommand(r domain.CommandRecord) Command {
	return Command{
		ID:          r.ID,
		AggregateID: r.AggregateID,
		Type:        r.Type,
		Data:        r.Data,
		CreatedAt:   r.CreatedAt,
	}
}

func toEvent(r domain.EventRecord) Event {
	return Event{
		AggregateID: r.AggregateID,
		Version:     r.Version,
		ID:          r.ID,
		Type:        r.Type,
		Data:        r.Data,
		CreatedAt:   r.CreatedAt,
	}
}

func fromEvent(m Event) domain.EventRecord {
	return domain.EventRecord{
		ID:          m.ID,
		AggregateID: m.AggregateID,
		Version:     m.Version,
		Type:        m.Type,
		Data:        m.Data,
		CreatedAt:   m.CreatedAt,
	}
}
