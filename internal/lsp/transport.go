package lsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// DefaultExitTimeout is how long a spawned server gets to exit after its
// input is closed.
const DefaultExitTimeout = 2 * time.Second

// Target selects where frames are sent. At most one of TCP, WebSocket and
// Exec may be set; with none set frames go to Stdout.
type Target struct {
	// Stdout receives frames when no remote target is set. Defaults to
	// os.Stdout.
	Stdout    io.Writer
	TCP       string
	WebSocket string
	Exec      []string
	// Timeout bounds dialing and, for Exec, waiting for the server to exit.
	Timeout time.Duration
}

// IsStdout reports whether frames go to the local output stream.
func (t Target) IsStdout() bool {
	return t.TCP == "" && t.WebSocket == "" && len(t.Exec) == 0
}

// Name describes the target for logs.
func (t Target) Name() string {
	switch {
	case t.TCP != "":
		return "tcp://" + t.TCP
	case t.WebSocket != "":
		return t.WebSocket
	case len(t.Exec) > 0:
		return "exec:" + t.Exec[0]
	default:
		return "stdout"
	}
}

// Open connects to the target.
func Open(ctx context.Context, t Target, logger *zap.Logger) (io.WriteCloser, error) {
	set := 0
	for _, ok := range []bool{t.TCP != "", t.WebSocket != "", len(t.Exec) > 0} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return nil, errors.New("only one of tcp, websocket and exec may be set")
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultExitTimeout
	}

	switch {
	case t.TCP != "":
		return DialTCP(ctx, t.TCP, timeout)
	case t.WebSocket != "":
		return DialWebSocket(ctx, t.WebSocket, timeout)
	case len(t.Exec) > 0:
		p, err := StartProcess(ctx, t.Exec, timeout, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		if t.Stdout != nil {
			return nopCloser{Writer: t.Stdout}, nil
		}
		return Stdout(), nil
	}
}

// Stdout returns the process standard output. Closing it is a no-op; the
// stream is left for process exit to flush and close.
func Stdout() io.WriteCloser {
	return nopCloser{Writer: os.Stdout}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// DialTCP connects to a language server listening on addr.
func DialTCP(ctx context.Context, addr string, timeout time.Duration) (io.WriteCloser, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn, nil
}

// wsWriter sends each Write as one binary websocket message.
type wsWriter struct {
	conn *websocket.Conn
}

// DialWebSocket connects to a language server behind a websocket endpoint.
// Each frame is sent as a single binary message.
func DialWebSocket(ctx context.Context, url string, timeout time.Duration) (io.WriteCloser, error) {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = timeout

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return &wsWriter{conn: conn}, nil
}

func (w *wsWriter) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsWriter) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return w.conn.Close()
}

// pipeRWC joins the pipes of a child process into the io.ReadWriteCloser a
// jsonrpc2 stream expects.
type pipeRWC struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (p pipeRWC) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipeRWC) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p pipeRWC) Close() error {
	werr := p.w.Close()
	if err := p.r.Close(); err != nil {
		return err
	}
	return werr
}

// Process is a language server started as a child process. Frames written
// to it go to the server's stdin; messages the server sends back are read
// from its stdout and logged.
type Process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stream  jsonrpc2.Stream
	logger  *zap.Logger
	timeout time.Duration
	done    chan struct{}

	mu       sync.Mutex
	received []jsonrpc2.Message
}

// StartProcess runs command and connects to its stdio. The server's stderr
// is passed through to ours.
func StartProcess(ctx context.Context, command []string, timeout time.Duration, logger *zap.Logger) (*Process, error) {
	if len(command) == 0 {
		return nil, errors.New("no command given")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin of %s: %w", command[0], err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout of %s: %w", command[0], err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", command[0], err)
	}

	p := &Process{
		cmd:     cmd,
		stdin:   stdin,
		stream:  jsonrpc2.NewStream(pipeRWC{r: stdout, w: stdin}),
		logger:  logger.With(zap.String("server", command[0]), zap.Int("pid", cmd.Process.Pid)),
		timeout: timeout,
		done:    make(chan struct{}),
	}
	go p.readMessages(ctx)

	p.logger.Info("started language server")
	return p, nil
}

func (p *Process) readMessages(ctx context.Context) {
	defer close(p.done)

	for {
		msg, n, err := p.stream.Read(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				p.logger.Warn("failed to read server message", zap.Error(err))
			}
			return
		}

		p.mu.Lock()
		p.received = append(p.received, msg)
		p.mu.Unlock()

		switch m := msg.(type) {
		case *jsonrpc2.Response:
			p.logger.Info("received response",
				zap.String("id", fmt.Sprintf("%v", m.ID())),
				zap.Int64("bytes", n),
				zap.NamedError("rpc_error", m.Err()),
			)
		case *jsonrpc2.Notification:
			p.logger.Info("received notification", zap.String("method", m.Method()), zap.Int64("bytes", n))
		case *jsonrpc2.Call:
			p.logger.Info("received request", zap.String("method", m.Method()), zap.Int64("bytes", n))
		}
	}
}

// Write sends frame bytes to the server's stdin.
func (p *Process) Write(b []byte) (int, error) {
	return p.stdin.Write(b)
}

// Received returns the messages the server has sent so far.
func (p *Process) Received() []jsonrpc2.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]jsonrpc2.Message(nil), p.received...)
}

// Close closes the server's stdin and waits for it to exit. A server still
// running after the timeout is killed and an error is returned.
func (p *Process) Close() error {
	if err := p.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		p.logger.Warn("failed to close server stdin", zap.Error(err))
	}

	killed := false
	select {
	case <-p.done:
	case <-time.After(p.timeout):
		p.logger.Warn("language server did not exit, killing it", zap.Duration("timeout", p.timeout))
		if err := p.cmd.Process.Kill(); err != nil {
			p.logger.Error("failed to kill language server", zap.Error(err))
		}
		killed = true
		<-p.done
	}

	err := p.cmd.Wait()
	if killed {
		return fmt.Errorf("language server still running %s after exit", p.timeout)
	}
	if err != nil {
		return fmt.Errorf("language server exited: %w", err)
	}
	p.logger.Info("language server exited", zap.Int("messages", len(p.Received())))
	return nil
}
