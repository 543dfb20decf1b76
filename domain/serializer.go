package domain

// Serializer provides a standard encoding/decoding interface for command and
// event payloads. Payloads are stored opaque, next to their type tag.
type Serializer interface {
	// Marshal returns the binary form of the given command or event payload.
	Marshal(v interface{}) ([]byte, error)

	// UnmarshalEvent reconstructs a typed domain event from its stored type tag
	// and raw payload. It fails with ErrNotFoundInRegistry if the tag is unknown,
	// and with ErrUnmarshalEventFailed if the payload does not fit the type.
	UnmarshalEvent(tag string, b []byte) (interface{}, error)

	// ContentType returns the equivalent MIME type of serialized payloads, ex: application/json
	ContentType() string
}
