package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/conduit-lang/lspfeed/internal/cli/ui"
	"github.com/conduit-lang/lspfeed/internal/lsp"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type decodeOptions struct {
	validate bool
	bodies   bool
}

// NewDecodeCommand creates the decode command
func NewDecodeCommand() *cobra.Command {
	opts := &decodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode Content-Length frames and list the messages",
		Long: `Read a stream of Content-Length frames from a file or stdin and print one
row per frame. Output of either framing mode is accepted.

Examples:
  lspfeed emit | lspfeed decode
  lspfeed decode --validate session.bin
  lspfeed emit --script session.yaml | lspfeed decode --bodies`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Check each body against the JSON-RPC message schema")
	cmd.Flags().BoolVar(&opts.bodies, "bodies", false, "Print each message body after the table")

	return cmd
}

func runDecode(cmd *cobra.Command, args []string, opts *decodeOptions) error {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	frames, err := lsp.NewReader(r).ReadAll()
	if err != nil {
		return &frameError{err: fmt.Errorf("frame %d: %w", len(frames)+1, err)}
	}

	out := cmd.OutOrStdout()
	noColor := color.NoColor

	if len(frames) == 0 {
		io.WriteString(out, ui.Info("no frames found in input", noColor))
		return nil
	}

	headers := []string{"#", "Length", "Kind", "Method", "ID"}
	if opts.validate {
		headers = append(headers, "Valid")
	}
	table := ui.NewTable(out, headers, &ui.TableOptions{NoColor: noColor})

	var (
		invalid  int
		problems []string
		total    int
	)
	for i, f := range frames {
		total += f.Length

		method, id := "-", "-"
		if m, err := f.Message(); err == nil {
			if m.Method != "" {
				method = m.Method
			}
			if m.ID != nil {
				id = m.ID.String()
			}
		}

		row := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(f.Length),
			string(lsp.Classify(f.Body)),
			method,
			id,
		}

		if opts.validate {
			violations, err := lsp.ValidateBody(f.Body)
			if err != nil {
				violations = []string{err.Error()}
			}
			if len(violations) == 0 {
				row = append(row, "yes")
			} else {
				row = append(row, "no")
				invalid++
				for _, v := range violations {
					problems = append(problems, fmt.Sprintf("frame %d: %s", i+1, v))
				}
			}
		}

		table.AddRow(row...)
	}

	if err := table.Render(); err != nil {
		return err
	}

	summary := ui.NewKeyValueTable(out, noColor)
	summary.AddRow("Frames", strconv.Itoa(len(frames)))
	summary.AddRow("Body bytes", strconv.Itoa(total))
	fmt.Fprintln(out)
	summary.Render()

	if opts.bodies {
		for i, f := range frames {
			fmt.Fprintf(out, "\n--- frame %d ---\n%s\n", i+1, f.Body)
		}
	}

	if invalid > 0 {
		return &frameError{err: fmt.Errorf("%d of %d frames failed validation:\n  %s",
			invalid, len(frames), strings.Join(problems, "\n  "))}
	}
	return nil
}
