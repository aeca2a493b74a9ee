package reconcile

import (
	"fmt"

	"github.com/hazyhaar/ytcopy/mutation"
)

// subscribe attaches the mutation watcher. Every batch re-checks both
// controls; batches are not debounced, so a host emitting a burst of
// changes costs one probe and one panel scan per batch.
func (c *Controller) subscribe() error {
	c.subGen++
	gen := c.subGen
	sub, err := c.doc.Subscribe(c.ctx, func(b mutation.Batch) {
		c.turn.run(func() {
			if c.closed || gen != c.subGen {
				return
			}
			c.onBatch(b)
		})
	})
	if err != nil {
		return fmt.Errorf("reconcile: subscribe: %w", err)
	}
	c.sub = sub
	return nil
}

func (c *Controller) releaseWatcher() {
	c.subGen++
	if c.sub == nil {
		return
	}
	c.sub.Unsubscribe()
	c.sub = nil
}

func (c *Controller) onBatch(b mutation.Batch) {
	c.stats.batches.Add(1)
	c.logger.Debug("reconcile: mutation batch", "seq", b.Seq, "added", b.Added(), "removed", b.Removed())
	if err := c.ensureControl(KindShowTranscript, nil); err != nil {
		c.logger.Warn("reconcile: ensure show control", "error", err)
	}
	if err := c.detectPanel(); err != nil {
		c.logger.Warn("reconcile: detect panel", "error", err)
	}
}

// detectPanel gives the first panel container lacking a copy control one.
func (c *Controller) detectPanel() error {
	for _, sel := range c.opts.Selectors.PanelContainers {
		container, err := c.doc.QuerySelector(c.ctx, sel)
		if err != nil {
			return fmt.Errorf("reconcile: find panel %q: %w", sel, err)
		}
		if container == nil {
			continue
		}
		existing, err := container.QuerySelector(c.ctx, "."+c.opts.Markers.Copy)
		if err != nil {
			return fmt.Errorf("reconcile: find copy control: %w", err)
		}
		if existing == nil {
			return c.ensureControl(KindCopyTranscript, container)
		}
	}
	return nil
}
