// Package agent runs the transcript augmenter against a live watch page: it
// owns Chrome, the tab, the bridged document, the clipboard destinations
// and the reconciliation controller.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/hazyhaar/ytcopy/agent/internal/browser"
	"github.com/hazyhaar/ytcopy/clipboard"
	"github.com/hazyhaar/ytcopy/dom/roddoc"
	"github.com/hazyhaar/ytcopy/reconcile"
)

// Agent is the top-level orchestrator. Create one per watch page.
type Agent struct {
	cfg    *Config
	logger *slog.Logger
	mgr    *browser.Manager
	extra  []clipboard.Writer

	mu     sync.Mutex
	tab    *browser.Tab
	doc    *roddoc.Document
	clip   *clipboard.Router
	ctrl   *reconcile.Controller
	status *http.Server
}

// New creates an Agent. writers are added to the destinations listed in
// the configuration.
func New(cfg *Config, logger *slog.Logger, writers ...clipboard.Writer) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ApplyDefaults()

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Bin:              cfg.Browser.Bin,
		Mode:             browser.ParseMode(cfg.Browser.Mode),
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Logger:           logger,
	})

	return &Agent{cfg: cfg, logger: logger, mgr: mgr, extra: writers}
}

// Start launches Chrome, opens the watch page with the bridge installed
// and starts reconciling. The status API is served when configured.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cfg.Page.URL == "" {
		return errors.New("agent: page url is required")
	}
	if a.ctrl != nil {
		return errors.New("agent: already started")
	}

	if _, err := a.mgr.Start(ctx); err != nil {
		return fmt.Errorf("agent: start browser: %w", err)
	}

	tab, err := browser.NewTab(a.mgr)
	if err != nil {
		return fmt.Errorf("agent: open tab: %w", err)
	}

	doc := roddoc.New(tab.Page, roddoc.Options{
		NavigationEvents: a.cfg.Selectors.NavigationEvents,
		Logger:           a.logger,
	})
	if err := doc.Install(ctx); err != nil {
		tab.Close()
		return fmt.Errorf("agent: install bridge: %w", err)
	}

	writers, err := a.buildWriters(tab)
	if err != nil {
		doc.Close()
		tab.Close()
		return err
	}
	clip := clipboard.NewRouter(a.logger, writers...)

	ctrl, err := reconcile.New(doc, reconcile.Options{
		Selectors: a.cfg.Selectors,
		Timing:    a.cfg.Timing,
		Labels:    a.cfg.Feedback,
		Clipboard: clip,
		Logger:    a.logger,
	})
	if err != nil {
		doc.Close()
		tab.Close()
		return fmt.Errorf("agent: controller: %w", err)
	}

	if err := tab.Navigate(ctx, a.cfg.Page.URL, a.cfg.Page.LoadTimeout); err != nil {
		doc.Close()
		tab.Close()
		return fmt.Errorf("agent: %w", err)
	}
	if err := ctrl.Start(ctx); err != nil {
		doc.Close()
		tab.Close()
		return fmt.Errorf("agent: start controller: %w", err)
	}

	a.tab, a.doc, a.clip, a.ctrl = tab, doc, clip, ctrl

	if addr := a.cfg.Status.Addr; addr != "" {
		a.status = &http.Server{
			Addr:              addr,
			Handler:           NewStatusHandler(ctrl, a.cfg.Selectors.Transcript),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("agent: status server", "addr", srv.Addr, "error", err)
			}
		}(a.status)
		a.logger.Info("agent: status api listening", "addr", addr)
	}

	a.logger.Info("agent: augmenting page", "url", a.cfg.Page.URL, "writers", len(writers))
	return nil
}

// Snapshot reports the reconciler state. It is the zero State before Start.
func (a *Agent) Snapshot() reconcile.State {
	a.mu.Lock()
	ctrl := a.ctrl
	a.mu.Unlock()
	if ctrl == nil {
		return reconcile.State{Phase: reconcile.PhaseIdle.String()}
	}
	return ctrl.Snapshot()
}

// Stop shuts down the status API, the controller, the tab and Chrome.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.status.Shutdown(ctx); err != nil {
			a.logger.Warn("agent: status shutdown", "error", err)
		}
		cancel()
		a.status = nil
	}
	if a.ctrl != nil {
		a.ctrl.Close()
		a.ctrl = nil
	}
	if a.clip != nil {
		a.clip.Close()
		a.clip = nil
	}
	if a.doc != nil {
		if err := a.doc.Close(); err != nil {
			a.logger.Debug("agent: close document", "error", err)
		}
		a.doc = nil
	}
	if a.tab != nil {
		if err := a.tab.Close(); err != nil {
			a.logger.Debug("agent: close tab", "error", err)
		}
		a.tab = nil
	}
	if err := a.mgr.Close(); err != nil {
		a.logger.Warn("agent: close browser", "error", err)
	}
	a.logger.Info("agent: stopped")
}

func (a *Agent) buildWriters(tab *browser.Tab) ([]clipboard.Writer, error) {
	var writers []clipboard.Writer
	for i, cc := range a.cfg.Clipboard {
		switch cc.Type {
		case "page":
			writers = append(writers, roddoc.NewClipboard(tab.Page, a.logger))
		case "system":
			sys := clipboard.NewSystem()
			if !sys.Available() {
				a.logger.Warn("agent: system clipboard unavailable", "index", i)
			}
			writers = append(writers, sys)
		case "stdout":
			writers = append(writers, clipboard.NewStdout(os.Stdout, a.cfg.Page.URL))
		case "webhook":
			writers = append(writers, clipboard.NewWebhook(cc.URL,
				clipboard.WithWebhookRetries(cc.Retries),
				clipboard.WithWebhookBackoff(cc.Backoff),
				clipboard.WithWebhookLogger(a.logger),
				clipboard.WithWebhookPageURL(a.cfg.Page.URL)))
		default:
			return nil, fmt.Errorf("agent: clipboard[%d]: unknown type %q", i, cc.Type)
		}
	}
	return append(writers, a.extra...), nil
}
