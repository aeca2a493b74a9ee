// Command ytcopy adds "Show Transcript" and "Copy Transcript" controls to a
// video watch page and copies the cleaned transcript.
//
// Usage:
//
//	ytcopy -config ytcopy.yaml             # augment the page from a YAML config
//	ytcopy -url https://www.youtube.com/watch?v=...   # quick run, page clipboard + stdout
//	ytcopy -extract page.html [-copy]      # print the transcript of a saved page
//	ytcopy -mcp                            # transcript tools over stdio MCP
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/ytcopy/agent"
	"github.com/hazyhaar/ytcopy/clipboard"
	"github.com/hazyhaar/ytcopy/dom/htmldoc"
	"github.com/hazyhaar/ytcopy/transcript"
)

func main() {
	configPath := flag.String("config", "", "path to ytcopy.yaml config file")
	pageURL := flag.String("url", "", "augment a single watch page with default settings")
	extractPath := flag.String("extract", "", "print the transcript of a saved watch page and exit")
	copyOut := flag.Bool("copy", false, "with -extract, also copy the transcript to the system clipboard")
	statusAddr := flag.String("status", "", "serve the status API on this address")
	mcpMode := flag.Bool("mcp", false, "serve the transcript tools over stdio MCP")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case *mcpMode:
		err = runMCP(ctx, logger)
	case *extractPath != "":
		err = runExtract(ctx, *extractPath, *copyOut)
	case *pageURL != "":
		err = runSingle(ctx, logger, *pageURL, *statusAddr)
	case *configPath != "":
		err = runConfig(ctx, logger, *configPath, *statusAddr)
	default:
		fmt.Fprintln(os.Stderr, "usage: ytcopy -config <file> | -url <watch url> | -extract <page.html> [-copy] | -mcp")
		os.Exit(2)
	}
	if err != nil {
		logger.Error("ytcopy: fatal", "error", err)
		os.Exit(1)
	}
}

func runExtract(ctx context.Context, path string, copyOut bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := htmldoc.Parse(f)
	if err != nil {
		return err
	}
	text, err := transcript.Extract(ctx, doc, transcript.DefaultSelectors())
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	fmt.Fprintln(os.Stdout, text)
	if copyOut {
		if err := clipboard.NewSystem().Write(ctx, text); err != nil {
			return fmt.Errorf("copy: %w", err)
		}
	}
	return nil
}

func runMCP(ctx context.Context, logger *slog.Logger) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "ytcopy",
		Version: "1.0.0",
	}, nil)
	transcript.RegisterMCP(srv, transcript.DefaultSelectors())

	logger.Info("ytcopy: mcp server on stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func runSingle(ctx context.Context, logger *slog.Logger, url, statusAddr string) error {
	cfg := agent.DefaultConfig()
	cfg.Page.URL = url
	cfg.Clipboard = []agent.ClipboardConfig{{Type: "page"}, {Type: "stdout"}}
	cfg.Status.Addr = statusAddr
	return runAgent(ctx, logger, cfg)
}

func runConfig(ctx context.Context, logger *slog.Logger, path, statusAddr string) error {
	cfg, err := agent.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if statusAddr != "" {
		cfg.Status.Addr = statusAddr
	}
	return runAgent(ctx, logger, cfg)
}

func runAgent(ctx context.Context, logger *slog.Logger, cfg *agent.Config) error {
	a := agent.New(cfg, logger)
	if err := a.Start(ctx); err != nil {
		a.Stop()
		return fmt.Errorf("start: %w", err)
	}

	<-ctx.Done()
	a.Stop()
	return nil
}
