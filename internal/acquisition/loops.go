package acquisition

import (
	"context"
	"fmt"
	"time"
)

// Trigger sources.
const (
	TriggerSourceKeyboard = "keyboard"
	TriggerSourceTimer    = "timer"
	TriggerSourceAPI      = "api"
)

// minTriggerInterval bounds the polled trigger loop for rates close to 1 kHz.
const minTriggerInterval = time.Millisecond

// StopReason says why Run returned.
type StopReason string

// Stop reasons.
const (
	StopExitKey   StopReason = "exit key pressed"
	StopCancelled StopReason = "interrupt signal detected"
)

// TriggerInterval returns the polled trigger period for rate: one frame
// period minus one millisecond of slack for the trigger round trip.
func TriggerInterval(rate float64) time.Duration {
	d := time.Duration(float64(time.Second)/rate) - time.Millisecond
	return max(d, minTriggerInterval)
}

// Run drives the interaction loop for the configured mode until Enter is
// read from keys or ctx is cancelled. keys may be nil or closed when no
// terminal is attached; the loop then runs until ctx is done.
func (c *Controller) Run(ctx context.Context, keys <-chan byte) (StopReason, error) {
	if st := c.State(); st != StateRunning {
		return "", lifecycleError("run", fmt.Errorf("%w: %s", ErrInvalidState, st))
	}

	var reason StopReason
	switch c.settings.Mode {
	case ModeSoftwareTriggerKeyboard:
		reason = c.keyboardLoop(ctx, keys)
	case ModeSoftwareTriggerPolled:
		reason = c.polledLoop(ctx, keys, TriggerInterval(c.settings.FrameRate))
	default:
		reason = c.waitLoop(ctx, keys)
	}

	c.logger.Info("Shutting down", "reason", string(reason))
	return reason, nil
}

func isEnter(k byte) bool {
	return k == '\n' || k == '\r'
}

func (c *Controller) waitLoop(ctx context.Context, keys <-chan byte) StopReason {
	for {
		select {
		case <-ctx.Done():
			return StopCancelled
		case k, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if isEnter(k) {
				return StopExitKey
			}
		}
	}
}

func (c *Controller) keyboardLoop(ctx context.Context, keys <-chan byte) StopReason {
	for {
		select {
		case <-ctx.Done():
			return StopCancelled
		case k, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			switch {
			case k == 'f' || k == 'F':
				_ = c.TriggerFrame(TriggerSourceKeyboard)
			case isEnter(k):
				return StopExitKey
			}
		}
	}
}

// polledLoop triggers on a fixed schedule. When a trigger is late by more
// than a full interval the schedule restarts from now instead of bursting.
func (c *Controller) polledLoop(ctx context.Context, keys <-chan byte, interval time.Duration) StopReason {
	next := time.Now().Add(interval)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return StopCancelled
		case k, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if isEnter(k) {
				return StopExitKey
			}
		case now := <-timer.C:
			_ = c.TriggerFrame(TriggerSourceTimer)
			next = next.Add(interval)
			if now.After(next) {
				next = now.Add(interval)
			}
			timer.Reset(time.Until(next))
		}
	}
}
