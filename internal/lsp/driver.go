package lsp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Driver writes a script to an output stream, one frame per message.
type Driver struct {
	enc    *Encoder
	logger *zap.Logger
}

// NewDriver creates a Driver. A nil logger disables logging.
func NewDriver(enc *Encoder, logger *zap.Logger) *Driver {
	if enc == nil {
		enc = NewEncoder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{enc: enc, logger: logger}
}

// Run encodes each message of script in order and writes it to w. It stops
// at the first failure and returns the number of frames fully written.
// A message that fails to serialize leaves no bytes behind on w.
func (d *Driver) Run(ctx context.Context, w io.Writer, script Script) (int, error) {
	for i, m := range script {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		n, err := d.enc.Write(w, m)
		if err != nil {
			d.logger.Error("failed to send message",
				zap.Int("index", i),
				zap.String("method", m.Method),
				zap.Error(err),
			)
			var serr *SerializationError
			if errors.As(err, &serr) {
				return i, err
			}
			return i, fmt.Errorf("failed to write %q frame: %w", m.Method, err)
		}

		fields := []zap.Field{
			zap.Int("index", i),
			zap.String("method", m.Method),
			zap.Int("bytes", n),
		}
		if m.ID != nil {
			fields = append(fields, zap.Stringer("id", m.ID))
		}
		d.logger.Debug("sent message", fields...)
	}
	return len(script), nil
}
