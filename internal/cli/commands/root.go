package commands

import (
	"errors"
	"io"
	"runtime"

	"github.com/conduit-lang/lspfeed/internal/cli/ui"
	"github.com/conduit-lang/lspfeed/internal/lsp"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lspfeed",
		Short: "Build and send framed JSON-RPC messages to a language server",
		Long: color.CyanString(`lspfeed - Language Server Protocol message feeder

lspfeed builds JSON-RPC messages, wraps them in Content-Length frames and
writes them to stdout or straight to a language server, for manual testing.

Features:
  • Default initialize / shutdown / exit handshake
  • Message scripts in YAML
  • Compat (trailing CRLF) or strict LSP framing
  • stdout, TCP, WebSocket and child-process transports
  • Frame decoding and schema checks`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}
	}

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewEmitCommand())
	rootCmd.AddCommand(NewDecodeCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the lspfeed version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)
			out := cmd.OutOrStdout()

			titleColor.Fprint(out, "lspfeed version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		writeError(rootCmd.ErrOrStderr(), err)
		return err
	}
	return nil
}

// configError wraps a configuration failure.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// transportError wraps a failure to reach or write to a target.
type transportError struct {
	target string
	err    error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// frameError wraps malformed framing on input.
type frameError struct{ err error }

func (e *frameError) Error() string { return e.err.Error() }
func (e *frameError) Unwrap() error { return e.err }

// writeError renders err for the terminal.
func writeError(w io.Writer, err error) {
	noColor := color.NoColor

	var (
		serr *lsp.SerializationError
		cerr *configError
		terr *transportError
		ferr *frameError
	)
	switch {
	case errors.As(err, &serr):
		io.WriteString(w, ui.SerializationError(serr.Error(), noColor))
	case errors.As(err, &cerr):
		io.WriteString(w, ui.ConfigError(cerr.Error(), noColor))
	case errors.As(err, &terr):
		io.WriteString(w, ui.TransportError(terr.target, terr.Error(), noColor))
	case errors.As(err, &ferr):
		io.WriteString(w, ui.FrameError(ferr.Error(), noColor))
	default:
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(w, "Error: %v\n", err)
	}
}
