package domain

import (
	"github.com/rs/xid"
)

type ID interface {
	String() string
}

// UID returns a sortable unique ID, used as event record identity.
func UID() ID {
	return xid.New()
}
