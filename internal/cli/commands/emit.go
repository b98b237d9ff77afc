package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/conduit-lang/lspfeed/internal/cli/config"
	"github.com/conduit-lang/lspfeed/internal/cli/ui"
	"github.com/conduit-lang/lspfeed/internal/lsp"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type emitOptions struct {
	configPath string
	scriptPath string
	openPath   string
}

// NewEmitCommand creates the emit command
func NewEmitCommand() *cobra.Command {
	opts := &emitOptions{}

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Write framed JSON-RPC messages",
		Long: `Build JSON-RPC messages, wrap each one in a Content-Length frame and write
the frames in order.

Without --script the initialize / shutdown / exit handshake is sent.
Frames go to stdout unless --tcp, --ws or --exec selects a language server.

Examples:
  lspfeed emit                                  # Handshake to stdout
  lspfeed emit | taplo lsp stdio                # Pipe into a server
  lspfeed emit --framing strict                 # No CRLF after each body
  lspfeed emit --script session.yaml            # Messages from a YAML script
  lspfeed emit --open Cargo.toml --exec "taplo lsp stdio"
  lspfeed emit --tcp localhost:9181`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to config file (default ./lspfeed.yaml)")
	cmd.Flags().StringVarP(&opts.scriptPath, "script", "s", "", "YAML message script to send instead of the handshake (- for stdin)")
	cmd.Flags().StringVar(&opts.openPath, "open", "", "Open this file after initialize and close it before shutdown")
	cmd.Flags().String("language-id", "", "Language ID for --open (default from config, toml)")
	cmd.Flags().String("framing", "", "Frame layout: compat (CRLF after body) or strict")
	cmd.Flags().Bool("canonical", false, "Encode bodies as RFC 8785 canonical JSON")
	cmd.Flags().String("tcp", "", "Send frames to a server listening on host:port")
	cmd.Flags().String("ws", "", "Send frames to a websocket endpoint (ws:// or wss://)")
	cmd.Flags().String("exec", "", "Start a server command and send frames to its stdin")
	cmd.Flags().Duration("timeout", 0, "Dial timeout, and how long an --exec server gets to exit")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")

	return cmd
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("framing") {
		cfg.Framing, _ = flags.GetString("framing")
	}
	if flags.Changed("canonical") {
		cfg.Canonical, _ = flags.GetBool("canonical")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("language-id") {
		cfg.Document.LanguageID, _ = flags.GetString("language-id")
	}
	if flags.Changed("timeout") {
		cfg.Transport.Timeout, _ = flags.GetDuration("timeout")
	}

	// A transport flag replaces whatever transport the config selected.
	for _, name := range []string{"tcp", "ws", "exec"} {
		if !flags.Changed(name) {
			continue
		}
		cfg.Transport.TCP, cfg.Transport.WebSocket, cfg.Transport.Exec = "", "", ""
		break
	}
	if flags.Changed("tcp") {
		cfg.Transport.TCP, _ = flags.GetString("tcp")
	}
	if flags.Changed("ws") {
		cfg.Transport.WebSocket, _ = flags.GetString("ws")
	}
	if flags.Changed("exec") {
		cfg.Transport.Exec, _ = flags.GetString("exec")
	}
}

func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, &configError{err: err}
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, &configError{err: err}
	}
	return cfg, nil
}

func loadScript(cmd *cobra.Command, opts *emitOptions, cfg *config.Config) (lsp.Script, error) {
	script := lsp.Handshake()

	if opts.scriptPath != "" {
		var r io.Reader
		if opts.scriptPath == "-" {
			r = cmd.InOrStdin()
		} else {
			f, err := os.Open(opts.scriptPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open script: %w", err)
			}
			defer f.Close()
			r = f
		}

		loaded, err := lsp.LoadScript(r)
		if err != nil {
			return nil, err
		}
		script = loaded
	}

	if opts.openPath != "" {
		text, err := os.ReadFile(opts.openPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		script = script.WithDocument(absPath(opts.openPath), cfg.Document.LanguageID, string(text))
	}

	return script, nil
}

func runEmit(cmd *cobra.Command, opts *emitOptions) error {
	cfg, err := loadConfig(cmd, opts.configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return &configError{err: err}
	}
	defer logger.Sync()
	logger = logger.With(zap.String("session", uuid.NewString()))

	script, err := loadScript(cmd, opts, cfg)
	if err != nil {
		return err
	}

	framing, err := lsp.ParseFraming(cfg.Framing)
	if err != nil {
		return &configError{err: err}
	}
	enc := lsp.NewEncoder(lsp.WithFraming(framing), lsp.WithCanonicalJSON(cfg.Canonical))

	target := lsp.Target{
		Stdout:    cmd.OutOrStdout(),
		TCP:       cfg.Transport.TCP,
		WebSocket: cfg.Transport.WebSocket,
		Exec:      cfg.ExecCommand(),
		Timeout:   cfg.Transport.Timeout,
	}

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("sending script",
		zap.String("target", target.Name()),
		zap.Int("messages", len(script)),
		zap.Stringer("framing", framing),
		zap.Bool("canonical", cfg.Canonical),
	)

	out, err := lsp.Open(ctx, target, logger)
	if err != nil {
		return &transportError{target: target.Name(), err: err}
	}

	n, runErr := lsp.NewDriver(enc, logger).Run(ctx, out, script)
	closeErr := out.Close()

	if runErr != nil {
		var serr *lsp.SerializationError
		if errors.As(runErr, &serr) || target.IsStdout() {
			return runErr
		}
		return &transportError{target: target.Name(), err: runErr}
	}
	if closeErr != nil {
		return &transportError{target: target.Name(), err: closeErr}
	}

	if !target.IsStdout() {
		ui.WriteSuccess(cmd.ErrOrStderr(), fmt.Sprintf("%d frames sent to %s", n, target.Name()), color.NoColor)
		if p, ok := out.(*lsp.Process); ok {
			if received := len(p.Received()); received > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %d messages received from the server\n", received)
			} else {
				io.WriteString(cmd.ErrOrStderr(), ui.Warning("the language server sent no messages",
					[]string{"rerun with --log-level debug", "check that the server reads stdio"}, color.NoColor))
			}
		}
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
