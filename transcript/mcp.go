package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/ytcopy/dom/htmldoc"
)

// RegisterMCP registers the transcript tools on an MCP server. sel is used
// by the HTML extraction tool.
func RegisterMCP(srv *mcp.Server, sel Selectors) {
	registerNormalizeTool(srv)
	registerExtractHTMLTool(srv, sel)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool wires a typed endpoint onto srv: arguments are decoded into a
// fresh Req, the endpoint result is returned as JSON text, and every error is
// reported as a tool error rather than a protocol error.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, endpoint func(context.Context, *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r Req
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}

		resp, err := endpoint(ctx, &r)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// Result is the payload returned by the transcript tools.
type Result struct {
	Text     string `json:"text"`
	Segments int    `json:"segments"`
}

// --- normalize ---

type normalizeReq struct {
	Segments []string `json:"segments"`
}

func registerNormalizeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "transcript_normalize",
		Description: "Join caption lines into one transcript: drops empty and adjacent duplicate lines, fixes spacing after punctuation and the lowercase pronoun i.",
		InputSchema: inputSchema(map[string]any{
			"segments": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Caption lines in display order"},
		}, []string{"segments"}),
	}

	addTool(srv, tool, func(_ context.Context, r *normalizeReq) (any, error) {
		return Result{Text: NormalizeText(r.Segments), Segments: len(r.Segments)}, nil
	})
}

// --- extract from saved page ---

type extractHTMLReq struct {
	Path string `json:"path,omitempty"`
	HTML string `json:"html,omitempty"`
}

func registerExtractHTMLTool(srv *mcp.Server, sel Selectors) {
	tool := &mcp.Tool{
		Name:        "transcript_extract_html",
		Description: "Extract the normalized transcript from a saved watch page with an open transcript panel. Pass either a file path or the raw HTML.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "Path to a saved HTML page"},
			"html": map[string]any{"type": "string", "description": "Raw HTML of the page"},
		}, nil),
	}

	addTool(srv, tool, func(ctx context.Context, r *extractHTMLReq) (any, error) {
		var doc *htmldoc.Document
		var err error
		switch {
		case r.Path != "":
			f, ferr := os.Open(r.Path)
			if ferr != nil {
				return nil, fmt.Errorf("transcript: open %s: %w", r.Path, ferr)
			}
			defer f.Close()
			doc, err = htmldoc.Parse(f)
		case strings.TrimSpace(r.HTML) != "":
			doc, err = htmldoc.ParseString(r.HTML)
		default:
			return nil, errors.New("path or html is required")
		}
		if err != nil {
			return nil, err
		}

		segments, err := Collect(ctx, doc, sel)
		if err != nil {
			return nil, err
		}
		return Result{Text: Normalize(segments), Segments: len(segments)}, nil
	})
}
