package domain

import (
	"errors"
	"testing"
)

func TestRegister(t *testing.T) {

	type Event struct{ Val string }
	type Event2 struct{ Val string }

	reg := NewRegister()
	defer reg.clear()

	reg.
		Set(&Event{}).
		Set(&Event2{})

	// get an unregistered event type
	if _, err := reg.Get("domain.NoEvent"); !errors.Is(err, ErrNotFoundInRegistry) {
		t.Fatalf("expect err be %v, got %v", ErrNotFoundInRegistry, err)
	}

	// successfully find Event in reg
	e, err := reg.Get(TypeOf(&Event{}))
	if err != nil {
		t.Fatal("expect err be nil, got", err)
	}
	if _, ok := e.(*Event); !ok {
		t.Fatalf("expect casting to %s be ok, got false", TypeOf(&Event{}))
	}

	// a renamed type keeps decoding its historical tag
	reg.SetWithTag("domain.OldEvent", func() interface{} { return &Event2{} })
	e, err = reg.Get("domain.OldEvent")
	if err != nil {
		t.Fatal("expect err be nil, got", err)
	}
	if _, ok := e.(*Event2); !ok {
		t.Fatal("expect casting to *Event2 be ok, got false")
	}
}
