package transcript

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "transcript-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	RegisterMCP(srv, DefaultSelectors())

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCall(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

func decodeResult(t *testing.T, res *mcp.CallToolResult) Result {
	t.Helper()
	if err := res.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var r Result
	if err := json.Unmarshal([]byte(tc.Text), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return r
}

func TestMCP_Normalize(t *testing.T) {
	session := mcpSession(t)
	r := decodeResult(t, mcpCall(t, session, "transcript_normalize", map[string]any{
		"segments": []string{"Hello", "Hello", "world.", "i think"},
	}))
	if r.Text != "Hello world. I think" {
		t.Errorf("text: got %q", r.Text)
	}
	if r.Segments != 4 {
		t.Errorf("segments: got %d", r.Segments)
	}
}

func TestMCP_ExtractHTMLFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.html")
	if err := os.WriteFile(path, []byte(panelHTML), 0o644); err != nil {
		t.Fatal(err)
	}

	session := mcpSession(t)
	r := decodeResult(t, mcpCall(t, session, "transcript_extract_html", map[string]any{"path": path}))
	if r.Text != "Hello world. I think" {
		t.Errorf("text: got %q", r.Text)
	}
}

func TestMCP_ExtractHTMLNoPanel(t *testing.T) {
	session := mcpSession(t)
	res := mcpCall(t, session, "transcript_extract_html", map[string]any{"html": "<html><body></body></html>"})
	if res.GetError() == nil {
		t.Fatal("expected tool error for a page without a transcript")
	}
}

func TestMCP_ExtractHTMLMissingArgs(t *testing.T) {
	session := mcpSession(t)
	res := mcpCall(t, session, "transcript_extract_html", map[string]any{})
	if res.GetError() == nil {
		t.Fatal("expected tool error without path or html")
	}
}
