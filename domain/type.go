package domain

import (
	"reflect"
)

// resolveType of the given value (mainly an event or a command payload).
func resolveType(v interface{}) (reflect.Type, string) {
	rType := reflect.TypeOf(v)
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType, rType.String()
}

// TypeOf returns the type tag of a value or its pointer.
// The tag is {package name}.{value type name}, and is stable across restarts
// as long as the type is not moved or renamed.
func TypeOf(v interface{}) (vtype string) {
	if v == nil {
		return ""
	}
	_, vtype = resolveType(v)
	return
}
