package agent

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/ytcopy/reconcile"
	"github.com/hazyhaar/ytcopy/transcript"
)

type fixedState reconcile.State

func (f fixedState) Snapshot() reconcile.State { return reconcile.State(f) }

func newStatusServer(t *testing.T) *httptest.Server {
	t.Helper()
	src := fixedState{Phase: "active", RetryCount: 2, Subscribed: true, Copies: 3}
	srv := httptest.NewServer(NewStatusHandler(src, transcript.DefaultSelectors()))
	t.Cleanup(srv.Close)
	return srv
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestStatus_Health(t *testing.T) {
	srv := newStatusServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]string
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: %d %v", resp.StatusCode, body)
	}
}

func TestStatus_State(t *testing.T) {
	srv := newStatusServer(t)
	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	var st reconcile.State
	decode(t, resp, &st)
	if st.Phase != "active" || st.RetryCount != 2 || !st.Subscribed || st.Copies != 3 {
		t.Fatalf("state: %+v", st)
	}
}

func TestStatus_Normalize(t *testing.T) {
	srv := newStatusServer(t)
	resp, err := http.Post(srv.URL+"/normalize", "application/json",
		strings.NewReader(`{"segments":["Hello","Hello","world.","i think"]}`))
	if err != nil {
		t.Fatal(err)
	}
	var res transcript.Result
	decode(t, resp, &res)
	if res.Text != "Hello world. I think" || res.Segments != 4 {
		t.Fatalf("normalize: %+v", res)
	}
}

func TestStatus_NormalizeBadJSON(t *testing.T) {
	srv := newStatusServer(t)
	resp, err := http.Post(srv.URL+"/normalize", "application/json", strings.NewReader(`{`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestStatus_Extract(t *testing.T) {
	srv := newStatusServer(t)
	page := `<html><body><ytd-transcript-segment-list-renderer>
<ytd-transcript-segment-renderer><div class="segment-timestamp">0:01</div><yt-formatted-string class="segment-text">so,i said</yt-formatted-string></ytd-transcript-segment-renderer>
<ytd-transcript-segment-renderer><div class="segment-timestamp">0:02</div><yt-formatted-string class="segment-text">hi</yt-formatted-string></ytd-transcript-segment-renderer>
</ytd-transcript-segment-list-renderer></body></html>`

	resp, err := http.Post(srv.URL+"/extract", "text/html", strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	var res transcript.Result
	decode(t, resp, &res)
	if res.Text != "so, I said hi" || res.Segments != 2 {
		t.Fatalf("extract: %+v", res)
	}
}

func TestStatus_ExtractWithoutTranscript(t *testing.T) {
	srv := newStatusServer(t)
	resp, err := http.Post(srv.URL+"/extract", "text/html", strings.NewReader(`<html><body><p>nothing</p></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", resp.StatusCode)
	}
}

func TestStatus_Headers(t *testing.T) {
	srv := newStatusServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: %q", got)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type: %q", got)
	}
}
