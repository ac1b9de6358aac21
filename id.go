package courier

import "github.com/google/uuid"

// NewID generates a globally unique, time-sortable UUIDv7 (RFC 9562).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewCancelToken returns the opaque token binding one cancel button to one
// in-flight session.
func NewCancelToken() string {
	return NewID()
}
