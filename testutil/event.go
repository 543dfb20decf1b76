package testutil

import (
	"fmt"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/ln80/domainstore/domain"
)

type Event1 struct {
	Val string
}
type Event2 struct {
	Val string
}

type Command1 struct {
	Val string
}

// RegisterEvents registers the test event types in the domain registry.
func RegisterEvents() {
	domain.NewRegister().
		Set(&Event1{}).
		Set(&Event2{})
}

func GenEvts(count int) []interface{} {
	evts := make([]interface{}, count)
	for i := 0; i < count; i++ {
		var evt interface{}
		if i%2 == 0 {
			evt = &Event2{"val " + strconv.Itoa(i)}
		} else {
			evt = &Event1{"val " + strconv.Itoa(i)}
		}

		evts[i] = evt
	}
	return evts
}

func FormatEvt(evt domain.Event) string {
	return fmt.Sprintf(`
		aggID: %s
		version: %d
		type: %s
		at: %v
		data: %s
	`, evt.AggregateID, evt.Version, evt.Type, evt.At.UnixNano(), spew.Sdump(evt.Data))
}
