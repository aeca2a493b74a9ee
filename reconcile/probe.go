package reconcile

import (
	"fmt"

	"github.com/hazyhaar/ytcopy/dom"
)

// ensureControl inserts the control of kind unless it already exists. A
// call made while another insertion is in flight is dropped. scope is the
// panel container for KindCopyTranscript and ignored otherwise.
func (c *Controller) ensureControl(kind Kind, scope dom.Element) error {
	if !c.injecting.CompareAndSwap(false, true) {
		c.stats.dropped.Add(1)
		return nil
	}
	defer c.injecting.Store(false)

	switch kind {
	case KindShowTranscript:
		return c.insertShowControl()
	case KindCopyTranscript:
		return c.insertCopyControl(scope)
	}
	return fmt.Errorf("reconcile: unknown control kind %d", kind)
}

func (c *Controller) insertShowControl() error {
	ctx := c.ctx
	existing, err := c.doc.QuerySelector(ctx, "."+c.opts.Markers.Show)
	if err != nil {
		return fmt.Errorf("reconcile: find show control: %w", err)
	}
	if existing != nil {
		return nil
	}

	anchor, sel, err := dom.First(ctx, c.doc, c.opts.Selectors.ShowAnchors)
	if err != nil {
		return fmt.Errorf("reconcile: find anchor: %w", err)
	}
	if anchor == nil {
		c.logger.Debug("reconcile: no anchor for show control")
		return nil
	}

	ctrl, err := c.doc.CreateControl(ctx, dom.ControlSpec{Marker: c.opts.Markers.Show, Label: c.opts.Labels.Show})
	if err != nil {
		return fmt.Errorf("reconcile: create show control: %w", err)
	}

	n, err := anchor.ChildElementCount(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: inspect anchor: %w", err)
	}
	if n > 0 {
		err = anchor.InsertBeforeLast(ctx, ctrl)
	} else {
		err = anchor.Append(ctx, ctrl)
	}
	if err != nil {
		return fmt.Errorf("reconcile: insert show control: %w", err)
	}
	// Registered last so a control that never reached the page holds no handler.
	ctrl.OnClick(c.handler(func() { c.openTranscript(ctrl) }))

	c.stats.inserted.Add(1)
	c.logger.Info("reconcile: control inserted", "kind", KindShowTranscript.String(), "anchor", sel)
	return nil
}

func (c *Controller) insertCopyControl(container dom.Element) error {
	if container == nil {
		return fmt.Errorf("reconcile: copy control: %w", dom.ErrNotFound)
	}
	ctx := c.ctx
	existing, err := container.QuerySelector(ctx, "."+c.opts.Markers.Copy)
	if err != nil {
		return fmt.Errorf("reconcile: find copy control: %w", err)
	}
	if existing != nil {
		return nil
	}

	ctrl, err := c.doc.CreateControl(ctx, dom.ControlSpec{Marker: c.opts.Markers.Copy, Label: c.opts.Labels.Copy})
	if err != nil {
		return fmt.Errorf("reconcile: create copy control: %w", err)
	}

	header, err := container.QuerySelector(ctx, c.opts.Selectors.PanelHeader)
	if err != nil {
		return fmt.Errorf("reconcile: find panel header: %w", err)
	}
	where := "header"
	if header != nil {
		err = header.Append(ctx, ctrl)
	} else {
		where = "panel"
		err = container.Prepend(ctx, ctrl)
	}
	if err != nil {
		return fmt.Errorf("reconcile: insert copy control: %w", err)
	}
	ctrl.OnClick(c.handler(func() { c.copyTranscript(ctrl) }))

	c.stats.inserted.Add(1)
	c.logger.Info("reconcile: control inserted", "kind", KindCopyTranscript.String(), "into", where)
	return nil
}

// handler wraps a click handler so it runs in the turn.
func (c *Controller) handler(fn func()) func() {
	return func() {
		c.turn.run(func() {
			if c.closed {
				return
			}
			fn()
		})
	}
}

// openTranscript clicks the host's native transcript controls in order
// until the panel is open. Every existing candidate up to that point is
// clicked, so a candidate that toggles something else fires as well.
func (c *Controller) openTranscript(ctrl dom.Control) {
	ctx := c.ctx
	if err := ctrl.SetDisabled(ctx, true); err != nil {
		c.logger.Warn("reconcile: disable control", "error", err)
	}
	defer func() {
		if err := ctrl.SetDisabled(ctx, false); err != nil {
			c.logger.Warn("reconcile: enable control", "error", err)
		}
	}()

	for _, sel := range c.opts.Selectors.NativeControls {
		native, err := c.doc.QuerySelector(ctx, sel)
		if err != nil {
			c.logger.Warn("reconcile: find native control", "selector", sel, "error", err)
			return
		}
		if native == nil {
			continue
		}
		if err := native.Click(ctx); err != nil {
			c.logger.Warn("reconcile: click native control", "selector", sel, "error", err)
			return
		}
		if err := c.turn.sleep(ctx, c.opts.Timing.Settle); err != nil {
			return
		}
		opened, err := c.doc.QuerySelector(ctx, c.opts.Selectors.PanelOpened)
		if err != nil {
			c.logger.Warn("reconcile: check panel", "error", err)
			return
		}
		if opened != nil {
			c.logger.Info("reconcile: transcript panel opened", "via", sel)
			return
		}
	}
	c.logger.Debug("reconcile: transcript panel did not open")
}
