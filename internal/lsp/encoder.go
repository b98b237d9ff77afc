package lsp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ucarion/jcs"
	"github.com/valyala/bytebufferpool"
)

const (
	headerContentLength = "Content-Length: "
	headerTerminator    = "\r\n\r\n"
	bodyTerminator      = "\r\n"
)

// Framing selects what follows the body of a frame.
type Framing int

const (
	// FramingCompat writes bodies with ", " and ": " separators and appends
	// "\r\n" after the body, as existing test scripts do. Tolerant readers
	// skip the extra line.
	FramingCompat Framing = iota
	// FramingStrict writes compact bodies and ends the frame with the body,
	// as the LSP base protocol specifies.
	FramingStrict
)

// ParseFraming converts a config or flag value into a Framing.
func ParseFraming(s string) (Framing, error) {
	switch s {
	case "", "compat":
		return FramingCompat, nil
	case "strict":
		return FramingStrict, nil
	default:
		return 0, fmt.Errorf("unknown framing %q (expected compat or strict)", s)
	}
}

func (f Framing) String() string {
	if f == FramingStrict {
		return "strict"
	}
	return "compat"
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithFraming sets the frame layout.
func WithFraming(f Framing) EncoderOption {
	return func(e *Encoder) {
		e.framing = f
	}
}

// WithCanonicalJSON makes the encoder emit RFC 8785 canonical JSON bodies.
// Canonical bodies are compact in either framing mode.
func WithCanonicalJSON(enabled bool) EncoderOption {
	return func(e *Encoder) {
		e.canonical = enabled
	}
}

// Encoder serializes messages and wraps them in Content-Length frames.
// It holds no state between calls and is safe for concurrent use.
type Encoder struct {
	framing   Framing
	canonical bool
}

// NewEncoder returns an Encoder using compat framing unless configured
// otherwise.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{framing: FramingCompat}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Framing returns the frame layout used by the encoder.
func (e *Encoder) Framing() Framing {
	return e.framing
}

// Body returns the serialized message body.
func (e *Encoder) Body(m Message) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := e.appendBody(buf, m); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.B...), nil
}

// Encode returns the complete frame for m.
func (e *Encoder) Encode(m Message) ([]byte, error) {
	frame := bytebufferpool.Get()
	defer bytebufferpool.Put(frame)

	if err := e.appendFrame(frame, m); err != nil {
		return nil, err
	}
	return append([]byte(nil), frame.B...), nil
}

// Write encodes m and writes the frame to w with a single Write call.
// Nothing is written when serialization fails.
func (e *Encoder) Write(w io.Writer, m Message) (int, error) {
	frame := bytebufferpool.Get()
	defer bytebufferpool.Put(frame)

	if err := e.appendFrame(frame, m); err != nil {
		return 0, err
	}
	return w.Write(frame.B)
}

func (e *Encoder) appendFrame(frame *bytebufferpool.ByteBuffer, m Message) error {
	body := bytebufferpool.Get()
	defer bytebufferpool.Put(body)

	if err := e.appendBody(body, m); err != nil {
		return err
	}

	frame.B = append(frame.B, headerContentLength...)
	frame.B = strconv.AppendInt(frame.B, int64(len(body.B)), 10)
	frame.B = append(frame.B, headerTerminator...)
	frame.B = append(frame.B, body.B...)
	if e.framing == FramingCompat {
		frame.B = append(frame.B, bodyTerminator...)
	}
	return nil
}

func (e *Encoder) appendBody(buf *bytebufferpool.ByteBuffer, m Message) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return &SerializationError{Method: m.Method, Err: err}
	}
	// json.Encoder terminates every value with a newline.
	buf.B = bytes.TrimSuffix(buf.B, []byte{'\n'})

	if !e.canonical {
		if e.framing == FramingCompat {
			spaced := bytebufferpool.Get()
			spaced.B = appendSpaced(spaced.B, buf.B)
			buf.B = append(buf.B[:0], spaced.B...)
			bytebufferpool.Put(spaced)
		}
		return nil
	}

	var generic any
	if err := json.Unmarshal(buf.B, &generic); err != nil {
		return &SerializationError{Method: m.Method, Err: err}
	}
	canonical, err := jcs.Format(generic)
	if err != nil {
		return &SerializationError{Method: m.Method, Err: err}
	}
	buf.Reset()
	buf.B = append(buf.B, canonical...)
	return nil
}

// appendSpaced appends compact JSON src to dst with a space after every
// ',' and ':' outside string literals, the separators existing feeder
// scripts write.
func appendSpaced(dst, src []byte) []byte {
	inString, escaped := false, false
	for _, c := range src {
		dst = append(dst, c)
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && (c == ',' || c == ':'):
			dst = append(dst, ' ')
		}
	}
	return dst
}
