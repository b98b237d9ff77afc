package lsp

import (
	"errors"
	"fmt"
	"io"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"gopkg.in/yaml.v3"
)

// Script is an ordered list of messages to send.
type Script []Message

// Handshake returns the minimal session: initialize with empty client
// capabilities, shutdown, then the exit notification.
func Handshake() Script {
	return Script{
		NewMessage(protocol.MethodInitialize,
			WithID(IntID(1)),
			WithParams(map[string]any{"capabilities": map[string]any{}}),
		),
		NewMessage(protocol.MethodShutdown, WithID(IntID(2))),
		NewMessage(protocol.MethodExit),
	}
}

// WithDocument returns a copy of s that opens a document after initialize
// and closes it before shutdown. The initialized notification is sent
// ahead of the open, since servers ignore document events before it.
func (s Script) WithDocument(path, languageID, text string) Script {
	docURI := protocol.DocumentURI(uri.File(path))

	open := NewMessage(protocol.MethodTextDocumentDidOpen, WithParams(protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        docURI,
			LanguageID: protocol.LanguageIdentifier(languageID),
			Version:    1,
			Text:       text,
		},
	}))
	closeDoc := NewMessage(protocol.MethodTextDocumentDidClose, WithParams(protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	}))
	initialized := NewMessage(protocol.MethodInitialized, WithParams(map[string]any{}))

	out := make(Script, 0, len(s)+3)
	opened := false
	for _, m := range s {
		if m.Method == protocol.MethodShutdown && opened {
			out = append(out, closeDoc)
			opened = false
		}
		out = append(out, m)
		if m.Method == protocol.MethodInitialize && !opened {
			out = append(out, initialized, open)
			opened = true
		}
	}
	if opened {
		out = append(out, closeDoc)
	}
	return out
}

// scriptEntry is the YAML form of a message.
type scriptEntry struct {
	Method string    `yaml:"method"`
	ID     yaml.Node `yaml:"id"`
	Params any       `yaml:"params"`
}

// LoadScript reads a YAML list of messages:
//
//	- method: initialize
//	  id: 1
//	  params: {capabilities: {}}
//	- method: exit
func LoadScript(r io.Reader) (Script, error) {
	var entries []scriptEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return Script{}, nil
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	script := make(Script, 0, len(entries))
	for i, e := range entries {
		if e.Method == "" {
			return nil, fmt.Errorf("script entry %d: method is required", i+1)
		}

		opts := []Option{WithParams(e.Params)}
		if e.ID.Kind != 0 && e.ID.Tag != "!!null" {
			id, err := scriptID(&e.ID)
			if err != nil {
				return nil, fmt.Errorf("script entry %d: %w", i+1, err)
			}
			opts = append(opts, WithID(id))
		}
		script = append(script, NewMessage(e.Method, opts...))
	}
	return script, nil
}

func scriptID(n *yaml.Node) (ID, error) {
	if n.Kind != yaml.ScalarNode {
		return ID{}, fmt.Errorf("id must be an integer or a string")
	}
	switch n.Tag {
	case "!!int":
		var v int64
		if err := n.Decode(&v); err != nil {
			return ID{}, fmt.Errorf("invalid id %q: %w", n.Value, err)
		}
		return IntID(v), nil
	case "!!str":
		return StringID(n.Value), nil
	default:
		return ID{}, fmt.Errorf("invalid id %q: must be an integer or a string", n.Value)
	}
}
