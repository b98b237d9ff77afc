package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.lsp.dev/jsonrpc2"
)

// Frame is a single decoded Content-Length frame.
type Frame struct {
	// Headers holds every header line, keyed by lower-cased name.
	Headers map[string]string
	// Length is the declared Content-Length.
	Length int
	// Body holds exactly Length bytes.
	Body []byte
}

// Message decodes the frame body.
func (f Frame) Message() (Message, error) {
	var m Message
	if err := json.Unmarshal(f.Body, &m); err != nil {
		return Message{}, fmt.Errorf("invalid message body: %w", err)
	}
	return m, nil
}

// Reader reads Content-Length frames from a byte stream. Blank lines between
// frames are skipped, so output written with either framing mode decodes.
type Reader struct {
	rd *bufio.Reader
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{rd: bufio.NewReader(r)}
}

// ReadFrame reads the next frame. It returns io.EOF when the stream ends
// cleanly between frames.
func (r *Reader) ReadFrame() (Frame, error) {
	headers := make(map[string]string)
	started := false

	for {
		raw, err := r.rd.ReadString('\n')
		line := strings.TrimRight(raw, "\r\n")

		if line == "" {
			if err == io.EOF {
				if started {
					return Frame{}, io.ErrUnexpectedEOF
				}
				return Frame{}, io.EOF
			}
			if err != nil {
				return Frame{}, err
			}
			if !started {
				// Terminator left over from the previous frame.
				continue
			}
			break
		}

		started = true
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return Frame{}, fmt.Errorf("malformed header line %q", line)
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)

		if err == io.EOF {
			return Frame{}, io.ErrUnexpectedEOF
		}
		if err != nil {
			return Frame{}, err
		}
	}

	clen, ok := headers["content-length"]
	if !ok {
		return Frame{}, errors.New("missing Content-Length header")
	}
	size, err := strconv.Atoi(clen)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid Content-Length %q: %w", clen, err)
	}
	if size < 0 {
		return Frame{}, fmt.Errorf("negative Content-Length %d", size)
	}

	// The buffer grows with the bytes that arrive, not with the declared
	// length.
	var body bytes.Buffer
	if _, err := io.CopyN(&body, r.rd, int64(size)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("reading %d byte body: %w", size, err)
	}

	return Frame{Headers: headers, Length: size, Body: body.Bytes()}, nil
}

// ReadAll reads frames until the stream ends.
func (r *Reader) ReadAll() ([]Frame, error) {
	var frames []Frame
	for {
		f, err := r.ReadFrame()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}

// Kind names a JSON-RPC message shape.
type Kind string

const (
	KindRequest      Kind = "request"
	KindNotification Kind = "notification"
	KindResponse     Kind = "response"
	KindInvalid      Kind = "invalid"
)

// Classify reports the JSON-RPC kind of a message body.
func Classify(body []byte) Kind {
	msg, err := jsonrpc2.DecodeMessage(body)
	if err != nil {
		return KindInvalid
	}
	switch msg.(type) {
	case *jsonrpc2.Call:
		return KindRequest
	case *jsonrpc2.Notification:
		return KindNotification
	case *jsonrpc2.Response:
		return KindResponse
	default:
		return KindInvalid
	}
}
