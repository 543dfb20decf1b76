package json

import (
	"encoding/json"

	"github.com/ln80/domainstore/domain"
)

// serializer implements the domain.Serializer interface.
// It uses json serialization and is based on the event registry
// to reconstruct typed events from stored payloads.
type serializer struct {
	registry domain.Register
}

var _ domain.Serializer = &serializer{}

// NewSerializer returns a json payload serializer.
func NewSerializer() domain.Serializer {
	return &serializer{
		registry: domain.NewRegister(),
	}
}

// Marshal implements the Marshal method of the domain.Serializer interface.
func (s *serializer) Marshal(v interface{}) (b []byte, err error) {
	if v == nil {
		return nil, domain.Err(domain.ErrMarshalEventFailed, "", "empty payload")
	}
	b, err = json.Marshal(v)
	if err != nil {
		err = domain.Err(domain.ErrMarshalEventFailed, "", err)
	}
	return
}

// UnmarshalEvent implements the UnmarshalEvent method of the domain.Serializer interface.
func (s *serializer) UnmarshalEvent(tag string, b []byte) (interface{}, error) {
	v, err := s.registry.Get(tag)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return nil, domain.Err(domain.ErrUnmarshalEventFailed, "", "event type: "+tag, err)
	}
	return v, nil
}

// ContentType implements the ContentType method of the domain.Serializer interface.
func (s *serializer) ContentType() string {
	return "application/json"
}
