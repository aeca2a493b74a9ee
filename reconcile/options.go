package reconcile

import (
	"log/slog"
	"time"

	"github.com/hazyhaar/ytcopy/clipboard"
	"github.com/hazyhaar/ytcopy/transcript"
)

// Kind is the kind of an injected control.
type Kind int

const (
	KindShowTranscript Kind = iota
	KindCopyTranscript
)

func (k Kind) String() string {
	switch k {
	case KindShowTranscript:
		return "show_transcript"
	case KindCopyTranscript:
		return "copy_transcript"
	default:
		return "unknown"
	}
}

// Selectors are the ordered host selector lists. Earlier entries win.
type Selectors struct {
	// ShowAnchors are the candidate parents of the ShowTranscript control.
	ShowAnchors []string `yaml:"show_anchors" json:"show_anchors"`
	// NativeControls are the host's own transcript buttons, tried in order.
	NativeControls []string `yaml:"native_controls" json:"native_controls"`
	// PanelOpened holds once the host transcript panel is rendered.
	PanelOpened string `yaml:"panel_opened" json:"panel_opened"`
	// PanelContainers are the candidate hosts of the CopyTranscript control.
	PanelContainers []string `yaml:"panel_containers" json:"panel_containers"`
	// PanelHeader locates the header inside a panel container.
	PanelHeader string `yaml:"panel_header" json:"panel_header"`
	// NavigationEvents are the host's soft-navigation event names.
	NavigationEvents []string `yaml:"navigation_events" json:"navigation_events"`

	Transcript transcript.Selectors `yaml:"transcript" json:"transcript"`
}

// Timing holds every delay used by the controller.
type Timing struct {
	ReadyDelay         time.Duration `yaml:"ready_delay" json:"ready_delay"`
	NavigationDebounce time.Duration `yaml:"navigation_debounce" json:"navigation_debounce"`
	RetryBase          time.Duration `yaml:"retry_base" json:"retry_base"`
	RetryStep          time.Duration `yaml:"retry_step" json:"retry_step"`
	MaxRetries         int           `yaml:"max_retries" json:"max_retries"`
	Settle             time.Duration `yaml:"settle" json:"settle"`
	Feedback           time.Duration `yaml:"feedback" json:"feedback"`
}

// Labels are the texts and colors shown on injected controls.
type Labels struct {
	Show        string `yaml:"show" json:"show"`
	Copy        string `yaml:"copy" json:"copy"`
	Copied      string `yaml:"copied" json:"copied"`
	Failed      string `yaml:"failed" json:"failed"`
	CopiedColor string `yaml:"copied_color" json:"copied_color"`
	FailedColor string `yaml:"failed_color" json:"failed_color"`
}

// Markers are the classes that identify each injected control.
type Markers struct {
	Show string `yaml:"show" json:"show"`
	Copy string `yaml:"copy" json:"copy"`
}

// Options configures a Controller. Zero fields take the defaults.
type Options struct {
	Selectors Selectors
	Timing    Timing
	Labels    Labels
	Markers   Markers

	// Clipboard receives copied transcripts. Required.
	Clipboard clipboard.Writer
	Logger    *slog.Logger
}

// DefaultSelectors match the current watch-page markup.
func DefaultSelectors() Selectors {
	return Selectors{
		ShowAnchors: []string{
			"#top-level-buttons-computed",
			"#menu-container .top-level-buttons",
			"#actions-inner.ytd-watch-metadata",
			".ytd-video-primary-info-renderer .yt-spec-button-shape-next",
		},
		NativeControls: []string{
			`button[aria-label*="transcript" i]`,
			"#primary-button button",
			".ytp-button.ytp-transcript",
			`tp-yt-paper-button[aria-label*="transcript" i]`,
		},
		PanelOpened: "ytd-transcript-renderer, ytd-engagement-panel-transcript-renderer",
		PanelContainers: []string{
			"ytd-transcript-renderer",
			"ytd-engagement-panel-transcript-renderer",
			"#engagement-panel-transcript",
		},
		PanelHeader:      "#header, .header, .panel-header",
		NavigationEvents: []string{"yt-navigate-finish", "yt-page-data-updated"},
		Transcript:       transcript.DefaultSelectors(),
	}
}

// DefaultTiming returns the stock delays.
func DefaultTiming() Timing {
	return Timing{
		ReadyDelay:         1000 * time.Millisecond,
		NavigationDebounce: 500 * time.Millisecond,
		RetryBase:          500 * time.Millisecond,
		RetryStep:          200 * time.Millisecond,
		MaxRetries:         20,
		Settle:             1500 * time.Millisecond,
		Feedback:           2000 * time.Millisecond,
	}
}

// DefaultLabels returns the stock texts and colors.
func DefaultLabels() Labels {
	return Labels{
		Show:        "Show Transcript",
		Copy:        "Copy Transcript",
		Copied:      "Copied!",
		Failed:      "Error!",
		CopiedColor: "#0a8043",
		FailedColor: "#d93025",
	}
}

// DefaultMarkers returns the stock marker classes.
func DefaultMarkers() Markers {
	return Markers{Show: "yt-show-transcript-btn", Copy: "yt-copy-transcript-btn"}
}

// ApplyDefaults fills empty selector lists with the stock ones.
func (s *Selectors) ApplyDefaults() {
	ds := DefaultSelectors()
	if len(s.ShowAnchors) == 0 {
		s.ShowAnchors = ds.ShowAnchors
	}
	if len(s.NativeControls) == 0 {
		s.NativeControls = ds.NativeControls
	}
	if s.PanelOpened == "" {
		s.PanelOpened = ds.PanelOpened
	}
	if len(s.PanelContainers) == 0 {
		s.PanelContainers = ds.PanelContainers
	}
	if s.PanelHeader == "" {
		s.PanelHeader = ds.PanelHeader
	}
	if len(s.NavigationEvents) == 0 {
		s.NavigationEvents = ds.NavigationEvents
	}
	if len(s.Transcript.Containers) == 0 {
		s.Transcript.Containers = ds.Transcript.Containers
	}
	if len(s.Transcript.Items) == 0 {
		s.Transcript.Items = ds.Transcript.Items
	}
	if len(s.Transcript.Text) == 0 {
		s.Transcript.Text = ds.Transcript.Text
	}
}

// ApplyDefaults replaces non-positive values with the stock ones.
func (t *Timing) ApplyDefaults() {
	dt := DefaultTiming()
	if t.ReadyDelay <= 0 {
		t.ReadyDelay = dt.ReadyDelay
	}
	if t.NavigationDebounce <= 0 {
		t.NavigationDebounce = dt.NavigationDebounce
	}
	if t.RetryBase <= 0 {
		t.RetryBase = dt.RetryBase
	}
	if t.RetryStep <= 0 {
		t.RetryStep = dt.RetryStep
	}
	if t.MaxRetries <= 0 {
		t.MaxRetries = dt.MaxRetries
	}
	if t.Settle <= 0 {
		t.Settle = dt.Settle
	}
	if t.Feedback <= 0 {
		t.Feedback = dt.Feedback
	}
}

// ApplyDefaults fills empty texts and colors.
func (l *Labels) ApplyDefaults() {
	dl := DefaultLabels()
	if l.Show == "" {
		l.Show = dl.Show
	}
	if l.Copy == "" {
		l.Copy = dl.Copy
	}
	if l.Copied == "" {
		l.Copied = dl.Copied
	}
	if l.Failed == "" {
		l.Failed = dl.Failed
	}
	if l.CopiedColor == "" {
		l.CopiedColor = dl.CopiedColor
	}
	if l.FailedColor == "" {
		l.FailedColor = dl.FailedColor
	}
}

func (o *Options) applyDefaults() {
	o.Selectors.ApplyDefaults()
	o.Timing.ApplyDefaults()
	o.Labels.ApplyDefaults()
	if o.Markers.Show == "" {
		o.Markers.Show = DefaultMarkers().Show
	}
	if o.Markers.Copy == "" {
		o.Markers.Copy = DefaultMarkers().Copy
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}
