// Package bus defines the outbound integration messaging collaborator at its
// interface boundary. Publishing is a separate, externally composed step:
// the domain store itself never publishes.
package bus

import (
	"context"
	"errors"
	"strconv"

	"github.com/ln80/domainstore/domain"
)

var (
	ErrDestinationRequired = errors.New("destination name is mandatory")
)

// Message is an outbound integration message built from a persisted record.
type Message struct {
	ID   string
	Type string
	Body []byte
	// Attributes carries broker metadata, ex: aggregate ID, version.
	Attributes map[string]string
}

// Publisher dispatches messages to a named destination (queue or topic,
// depending on the transport). Delivery guarantees are the transport's concern.
type Publisher interface {
	Publish(ctx context.Context, dest string, msgs []Message) error
}

// MessageFrom builds an integration message from a persisted event record.
func MessageFrom(rec domain.EventRecord) Message {
	return Message{
		ID:   rec.ID,
		Type: rec.Type,
		Body: rec.Data,
		Attributes: map[string]string{
			"AggID": rec.AggregateID,
			"Ver":   strconv.FormatInt(rec.Version, 10),
		},
	}
}
