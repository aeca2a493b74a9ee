package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/ytcopy/clipboard"
	"github.com/hazyhaar/ytcopy/dom"
	"github.com/hazyhaar/ytcopy/transcript"
)

// copyTranscript extracts the transcript from the whole document and writes
// it to the clipboard, flashing the outcome on ctrl.
func (c *Controller) copyTranscript(ctrl dom.Control) {
	ctx := c.ctx
	if err := ctrl.SetDisabled(ctx, true); err != nil {
		c.logger.Warn("reconcile: disable control", "error", err)
	}
	defer func() {
		if err := ctrl.SetDisabled(ctx, false); err != nil {
			c.logger.Warn("reconcile: enable control", "error", err)
		}
	}()

	text, err := transcript.Extract(ctx, c.doc, c.opts.Selectors.Transcript)
	if err == nil {
		err = c.turn.await(func() error { return c.opts.Clipboard.Write(ctx, text) })
		if err != nil && !errors.Is(err, clipboard.ErrRejected) {
			err = fmt.Errorf("%w: %w", clipboard.ErrRejected, err)
		}
	}
	if err != nil {
		c.stats.copyFailures.Add(1)
		c.logger.Warn("reconcile: copy failed", "error", err)
		c.flash(ctrl, c.opts.Labels.Failed, c.opts.Labels.FailedColor, c.opts.Timing.Feedback)
		return
	}

	c.stats.copies.Add(1)
	c.logger.Info("reconcile: transcript copied", "chars", len(text))
	c.flash(ctrl, c.opts.Labels.Copied, c.opts.Labels.CopiedColor, c.opts.Timing.Feedback)
}

// flash shows text on a color background for d, then restores the label and
// background read when flash was called. Overlapping flashes each restore
// their own snapshot, so the last revert to fire wins.
func (c *Controller) flash(ctrl dom.Control, text, color string, d time.Duration) {
	ctx := c.ctx
	label, err := ctrl.Label(ctx)
	if err != nil {
		c.logger.Warn("reconcile: read label", "error", err)
		return
	}
	bg, err := ctrl.Background(ctx)
	if err != nil {
		c.logger.Warn("reconcile: read background", "error", err)
		return
	}
	if err := ctrl.SetLabel(ctx, text); err != nil {
		c.logger.Warn("reconcile: set label", "error", err)
		return
	}
	if err := ctrl.SetBackground(ctx, color); err != nil {
		c.logger.Warn("reconcile: set background", "error", err)
	}

	c.after(d, func() {
		if err := ctrl.SetLabel(ctx, label); err != nil {
			c.logger.Warn("reconcile: restore label", "error", err)
		}
		if err := ctrl.SetBackground(ctx, bg); err != nil {
			c.logger.Warn("reconcile: restore background", "error", err)
		}
	})
}

// Flash shows text on ctrl for d. See flash for overlap semantics.
func (c *Controller) Flash(ctrl dom.Control, text, color string, d time.Duration) {
	c.turn.run(func() {
		if c.closed {
			return
		}
		c.flash(ctrl, text, color, d)
	})
}
