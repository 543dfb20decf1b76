package domain

import (
	"reflect"
	"sync"
)

var (
	regMu    sync.RWMutex
	registry = make(map[string]func() interface{})
)

// Register defines the registry service for domain event types.
// Stored events only carry a string type tag; the registry maps the tag back
// to a constructor of the concrete type, so the stream reader never has to
// guess types at decode time. Reading an unregistered tag is an explicit failure.
type Register interface {
	// Set registers the given event type in the registry under its TypeOf tag.
	Set(event interface{}) Register
	// SetWithTag registers a constructor under an explicit tag. It mainly serves
	// renamed types that must keep decoding their historical tag.
	SetWithTag(tag string, ctor func() interface{}) Register
	// Get returns a new empty instance (pointer) of the type registered under tag.
	Get(tag string) (interface{}, error)
	// clear the registry. Only used in internal tests.
	clear()
}

type register struct{}

// NewRegister returns the process-wide event type registry.
// It is meant to be populated at startup, before any load or save occurs.
func NewRegister() Register {
	return &register{}
}

// Set implements the Set method of the Register interface.
// The constructor is captured once at registration; lookups do not resolve
// types dynamically afterward.
func (r *register) Set(evt interface{}) Register {
	rType, name := resolveType(evt)
	return r.SetWithTag(name, func() interface{} {
		return reflect.New(rType).Interface()
	})
}

// SetWithTag implements the SetWithTag method of the Register interface.
func (r *register) SetWithTag(tag string, ctor func() interface{}) Register {
	regMu.Lock()
	defer regMu.Unlock()
	registry[tag] = ctor
	return r
}

// Get implements the Get method of the Register interface.
func (r *register) Get(tag string) (interface{}, error) {
	regMu.RLock()
	defer regMu.RUnlock()

	ctor, ok := registry[tag]
	if !ok {
		return nil, Err(ErrNotFoundInRegistry, "", "event type: "+tag)
	}
	return ctor(), nil
}

// clear implements the clear method of the Register interface.
func (r *register) clear() {
	regMu.Lock()
	defer regMu.Unlock()
	registry = make(map[string]func() interface{})
}
