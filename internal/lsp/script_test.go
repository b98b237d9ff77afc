package lsp

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func methods(s Script) []string {
	out := make([]string, 0, len(s))
	for _, m := range s {
		out = append(out, m.Method)
	}
	return out
}

func TestHandshake(t *testing.T) {
	s := Handshake()
	require.Len(t, s, 3)

	assert.Equal(t, []string{"initialize", "shutdown", "exit"}, methods(s))

	require.NotNil(t, s[0].ID)
	assert.Equal(t, int64(1), s[0].ID.Value())
	assert.Equal(t, map[string]any{"capabilities": map[string]any{}}, s[0].Params)

	require.NotNil(t, s[1].ID)
	assert.Equal(t, int64(2), s[1].ID.Value())
	assert.Nil(t, s[1].Params)

	assert.Nil(t, s[2].ID)
	assert.Nil(t, s[2].Params)
}

func TestScriptWithDocument(t *testing.T) {
	s := Handshake().WithDocument("/tmp/project/Cargo.toml", "toml", "[package]\nname = \"x\"\n")

	assert.Equal(t, []string{
		protocol.MethodInitialize,
		protocol.MethodInitialized,
		protocol.MethodTextDocumentDidOpen,
		protocol.MethodTextDocumentDidClose,
		protocol.MethodShutdown,
		protocol.MethodExit,
	}, methods(s))

	for _, m := range s[1:4] {
		assert.False(t, m.IsRequest(), "%s must be a notification", m.Method)
	}

	body, err := NewEncoder().Body(s[2])
	require.NoError(t, err)

	var open struct {
		Params struct {
			TextDocument struct {
				URI        string `json:"uri"`
				LanguageID string `json:"languageId"`
				Version    int    `json:"version"`
				Text       string `json:"text"`
			} `json:"textDocument"`
		} `json:"params"`
	}
	require.NoError(t, json.Unmarshal(body, &open))
	assert.Equal(t, "file:///tmp/project/Cargo.toml", open.Params.TextDocument.URI)
	assert.Equal(t, "toml", open.Params.TextDocument.LanguageID)
	assert.Equal(t, 1, open.Params.TextDocument.Version)
	assert.Equal(t, "[package]\nname = \"x\"\n", open.Params.TextDocument.Text)

	// The receiver is left untouched.
	assert.Len(t, Handshake(), 3)
}

func TestScriptWithDocumentWithoutShutdown(t *testing.T) {
	s := Script{NewMessage(protocol.MethodInitialize, WithID(IntID(1)))}.WithDocument("/a.toml", "toml", "")

	assert.Equal(t, []string{
		protocol.MethodInitialize,
		protocol.MethodInitialized,
		protocol.MethodTextDocumentDidOpen,
		protocol.MethodTextDocumentDidClose,
	}, methods(s))
}

func TestLoadScript(t *testing.T) {
	input := `
- method: initialize
  id: 1
  params:
    capabilities: {}
- method: custom/ping
  id: "ping-1"
  params: [1, 2]
- method: shutdown
  id: 2
- method: exit
  id: null
`
	s, err := LoadScript(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, s, 4)

	assert.Equal(t, []string{"initialize", "custom/ping", "shutdown", "exit"}, methods(s))

	require.NotNil(t, s[0].ID)
	assert.Equal(t, int64(1), s[0].ID.Value())
	assert.Equal(t, map[string]any{"capabilities": map[string]any{}}, s[0].Params)

	require.NotNil(t, s[1].ID)
	assert.Equal(t, "ping-1", s[1].ID.Value())
	assert.Equal(t, []any{1, 2}, s[1].Params)

	assert.Nil(t, s[2].Params)
	assert.Nil(t, s[3].ID)

	// A script matching the handshake encodes identically to it.
	enc := NewEncoder()
	for i, m := range []Message{s[0], s[2]} {
		want, err := enc.Encode(Handshake()[i])
		require.NoError(t, err)
		got, err := enc.Encode(m)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestLoadScriptErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing method", input: "- id: 1\n"},
		{name: "float id", input: "- method: a\n  id: 1.5\n"},
		{name: "map id", input: "- method: a\n  id: {x: 1}\n"},
		{name: "not a list", input: "method: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScript(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadScriptEmpty(t *testing.T) {
	s, err := LoadScript(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, s)
}
