package lsp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a request. It is either an integer or a string and keeps
// that type through encoding and decoding.
type ID struct {
	number int64
	name   string
	isName bool
}

// IntID returns an integer request ID.
func IntID(v int64) ID {
	return ID{number: v}
}

// StringID returns a string request ID.
func StringID(v string) ID {
	return ID{name: v, isName: true}
}

// IsString reports whether the ID is a string.
func (id ID) IsString() bool {
	return id.isName
}

// Int returns the integer value. ok is false for string IDs.
func (id ID) Int() (v int64, ok bool) {
	return id.number, !id.isName
}

// Name returns the string value. ok is false for integer IDs.
func (id ID) Name() (v string, ok bool) {
	return id.name, id.isName
}

// Value returns the ID as an int64 or a string.
func (id ID) Value() any {
	if id.isName {
		return id.name
	}
	return id.number
}

func (id ID) String() string {
	if id.isName {
		return strconv.Quote(id.name)
	}
	return strconv.FormatInt(id.number, 10)
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.isName {
		return []byte(strconv.FormatInt(id.number, 10)), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(id.name); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// UnmarshalJSON implements json.Unmarshaler. Only integers and strings are
// accepted.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s: must be an integer or a string", data)
	}
	*id = IntID(n)
	return nil
}
