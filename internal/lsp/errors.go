package lsp

import "fmt"

// SerializationError is returned when a message cannot be encoded as JSON,
// for example because its params hold a non-finite number or a cycle.
type SerializationError struct {
	Method string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize %q message: %v", e.Method, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
