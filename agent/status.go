package agent

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/ytcopy/dom"
	"github.com/hazyhaar/ytcopy/dom/htmldoc"
	"github.com/hazyhaar/ytcopy/reconcile"
	"github.com/hazyhaar/ytcopy/transcript"
)

// maxBodyBytes caps request bodies on the status API.
const maxBodyBytes = 10 << 20

// StateSource reports the reconciler state.
type StateSource interface {
	Snapshot() reconcile.State
}

// NewStatusHandler builds the local status API:
//
//	GET  /health     liveness
//	GET  /state      reconciler phase and counters
//	POST /normalize  {"segments": [...]} -> normalized transcript
//	POST /extract    saved watch page HTML -> normalized transcript
func NewStatusHandler(src StateSource, sel transcript.Selectors) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(apiHeaders)
	r.Use(maxBody(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/state", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, src.Snapshot())
	})

	r.Post("/normalize", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Segments []string `json:"segments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, transcript.Result{
			Text:     transcript.NormalizeText(req.Segments),
			Segments: len(req.Segments),
		})
	})

	r.Post("/extract", func(w http.ResponseWriter, r *http.Request) {
		doc, err := htmldoc.Parse(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		segments, err := transcript.Collect(r.Context(), doc, sel)
		if err != nil {
			code := http.StatusInternalServerError
			if isMissing(err) {
				code = http.StatusUnprocessableEntity
			}
			writeError(w, code, err)
			return
		}
		writeJSON(w, http.StatusOK, transcript.Result{
			Text:     transcript.Normalize(segments),
			Segments: len(segments),
		})
	})

	return r
}

// apiHeaders sets the response headers of a JSON-only API that must never
// be framed or sniffed by a browser.
func apiHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func maxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

func isMissing(err error) bool {
	return errors.Is(err, transcript.ErrEmpty) || errors.Is(err, dom.ErrNotFound)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
