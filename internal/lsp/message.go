// Package lsp builds JSON-RPC messages and frames them the way the Language
// Server Protocol base protocol does, so they can be fed to a language
// server for manual testing.
package lsp

import "reflect"

// Version is the JSON-RPC protocol version carried by every message.
const Version = "2.0"

// Message is a JSON-RPC request or notification. A request carries an ID; a
// notification does not. ID and Params are left out of the encoded body
// when unset.
type Message struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      *ID    `json:"id,omitempty"`
	Params  any    `json:"params,omitempty"`
}

// Option sets an optional field on a Message.
type Option func(*Message)

// WithID makes the message a request with the given ID.
func WithID(id ID) Option {
	return func(m *Message) {
		m.ID = &id
	}
}

// WithParams sets the message params. A nil value, including a typed nil
// pointer, map, slice or interface, leaves params unset.
func WithParams(params any) Option {
	return func(m *Message) {
		if !isNil(params) {
			m.Params = params
		}
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// NewMessage builds a message for method. Any method, ID or params value is
// accepted as is.
func NewMessage(method string, opts ...Option) Message {
	m := Message{
		JSONRPC: Version,
		Method:  method,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// IsRequest reports whether the message expects a response.
func (m Message) IsRequest() bool {
	return m.ID != nil
}
