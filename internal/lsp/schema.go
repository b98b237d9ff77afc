package lsp

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// messageSchema describes the request and notification bodies this package
// produces.
const messageSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["jsonrpc", "method"],
  "properties": {
    "jsonrpc": {"const": "2.0"},
    "method": {"type": "string"},
    "id": {"type": ["integer", "string"]},
    "params": {"type": ["object", "array"]}
  },
  "additionalProperties": false
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(messageSchema))
	})
	return schema, schemaErr
}

// ValidateBody checks a message body against the JSON-RPC request schema.
// It returns one string per violation; an empty slice means the body is
// valid. The error is non-nil only when the body is not JSON at all.
func ValidateBody(body []byte) ([]string, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling message schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validating message body: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}
