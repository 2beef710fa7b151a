package app

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Step runs one host tick. The window backend calls it from ebiten's Update.
func (c *Core) Step() (exit bool, err error) {
	c.Metrics.Ticks.Inc()
	before := c.Engine.Seq()
	exit, err = c.Sched.Update()
	c.tickFrames.Store(c.Engine.Seq() - before)
	if err != nil {
		c.log.Error().Err(err).Msg("tick aborted")
	}
	return exit, err
}

// Run ticks tps times per second on clock until exit, a fatal frame error or
// ctx is done.
func (c *Core) Run(ctx context.Context, clock clockwork.Clock, tps int) error {
	if tps <= 0 {
		tps = 60
	}
	ticker := clock.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			exit, err := c.Step()
			if err != nil {
				return err
			}
			if exit {
				return nil
			}
		}
	}
}
