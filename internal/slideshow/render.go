package slideshow

import (
	"go.uber.org/zap"

	"signage-player/internal/media"
)

// Mount attaches the controller to its input source and renderer, draws
// the current item and starts scheduling. Mounting an already mounted
// controller does nothing, so key bindings are never registered twice.
func (c *Controller) Mount(input InputSource) {
	c.update(func() bool {
		if c.mounted {
			return false
		}
		c.mounted = true
		if input != nil {
			c.unsubscribe = input.Subscribe(c.HandleKey)
		}
		c.refreshLocked(true)
		c.log.Info("mounted")
		return true
	})
}

// Unmount cancels the advance timer, detaches the video completion
// watcher, destroys the panorama viewer, releases acquired sources and
// unsubscribes from input. It waits for watcher goroutines to exit.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	c.cancelScheduleLocked()
	c.teardownLocked(true)
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.mu.Unlock()

	// Watchers may be blocked on the lock; wait only after releasing it.
	c.watchers.Wait()
	c.log.Info("unmounted")
}

// refreshLocked re-derives everything that depends on the cursor, the
// playing flag or the group's items. rerender is false when only the
// playing flag changed, so a video is paused or resumed in place.
func (c *Controller) refreshLocked(rerender bool) {
	if !c.mounted {
		return
	}
	c.cancelScheduleLocked()
	if rerender {
		c.renderLocked()
	} else if c.video != nil {
		c.video.SetPaused(!c.playing)
	}
	c.scheduleLocked()
}

// teardownLocked releases what the previous item acquired. The panorama
// viewer survives only when the next item is a panorama too.
func (c *Controller) teardownLocked(destroyPanorama bool) {
	if destroyPanorama && c.pano != nil {
		c.pano.Destroy()
		c.pano = nil
	}
	if c.video != nil {
		c.video.Close()
		c.video = nil
	}
	if c.release != nil {
		c.release()
		c.release = nil
	}
}

func (c *Controller) renderLocked() {
	it := c.currentItemLocked()
	kind := media.Classify(it)
	c.teardownLocked(kind != media.Panorama)

	if it == nil {
		c.renderer.ShowMessage(MsgNoMedia)
		return
	}
	if kind == media.Unsupported || it.Source == nil {
		c.renderer.ShowMessage(MsgUnsupported)
		return
	}

	src, release := c.resolver.Acquire(it.Source.Location(), it.Source.IsLocal())
	c.release = release
	log := c.log.With(zap.String("item", it.Name()), zap.Stringer("kind", kind))

	switch kind {
	case media.Panorama:
		if c.pano != nil {
			if err := c.pano.SetSource(src); err != nil {
				log.Warn("panorama switch failed", zap.Error(err))
			}
			return
		}
		if c.panoramas == nil {
			c.renderer.ShowMessage(MsgUnsupported)
			return
		}
		p, err := c.panoramas.NewPanorama(src)
		if err != nil {
			log.Warn("panorama viewer failed", zap.Error(err))
			return
		}
		c.pano = p
	case media.Video:
		v, err := c.renderer.PlayVideo(src, c.playing)
		if err != nil {
			log.Warn("video failed", zap.Error(err))
			return
		}
		c.video = v
	case media.Image:
		if err := c.renderer.ShowImage(src); err != nil {
			log.Warn("image failed", zap.Error(err))
		}
	}
}

// scheduleLocked arms exactly one advance trigger for the current item:
// the video completion watcher for videos, the slide timer otherwise.
func (c *Controller) scheduleLocked() {
	if !c.playing || c.currentItemLocked() == nil {
		return
	}
	gen := c.gen

	if c.video != nil {
		ended := c.video.Ended()
		done := make(chan struct{})
		c.watchDone = done
		c.watchers.Add(1)
		go func() {
			defer c.watchers.Done()
			select {
			case <-ended:
				c.update(func() bool { return c.advanceLocked(gen) })
			case <-done:
			}
		}()
		return
	}

	c.cancelTimer = c.schedule(c.interval, func() {
		c.update(func() bool { return c.advanceLocked(gen) })
	})
}

// advanceLocked is the trigger callback. A trigger from an earlier
// generation, or one that fires after a pause, is stale and ignored.
func (c *Controller) advanceLocked(gen uint64) bool {
	if !c.mounted || !c.playing || gen != c.gen {
		return false
	}
	return c.nextLocked()
}

func (c *Controller) cancelScheduleLocked() {
	c.gen++
	if c.cancelTimer != nil {
		c.cancelTimer()
		c.cancelTimer = nil
	}
	if c.watchDone != nil {
		close(c.watchDone)
		c.watchDone = nil
	}
}
