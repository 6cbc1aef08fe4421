// Package door runs the hardware-facing session: it drives the lock
// actuator, watches the reed switch, and is the only writer of lock and
// door state onto the bus.
package door

import (
	"context"
	"time"

	"github.com/muurk/doorctl/internal/bus"
	"github.com/muurk/doorctl/internal/hal"
	"github.com/muurk/doorctl/internal/logging"
	"github.com/muurk/doorctl/internal/state"
)

// DefaultDebounce is how long the reed line must hold a new level
// before the change is believed. Reed switches bounce on the order of
// milliseconds; 50ms is comfortably past that without adding visible
// latency.
const DefaultDebounce = 50 * time.Millisecond

// Door owns the two GPIO lines. Commands arrive on cmds from the web
// and MQTT sessions; state changes go out on the bus.
type Door struct {
	lockPin  hal.OutputPin
	reedPin  hal.InputPin
	cmds     <-chan state.Lock
	bus      *bus.Bus
	debounce time.Duration

	lock state.Lock
	reed bool
}

// New wires a Door to its pins and channels.
func New(lockPin hal.OutputPin, reedPin hal.InputPin, cmds <-chan state.Lock, b *bus.Bus) *Door {
	return &Door{
		lockPin:  lockPin,
		reedPin:  reedPin,
		cmds:     cmds,
		bus:      b,
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the reed settle time. Zero disables debouncing.
func (d *Door) SetDebounce(dur time.Duration) {
	d.debounce = dur
}

// Run executes the session until ctx is cancelled. The door starts
// locked regardless of what state the actuator was left in.
func (d *Door) Run(ctx context.Context) error {
	d.lock = state.Locked
	d.lockPin.Set(false)
	d.bus.Publish(state.LockChange(state.Locked))

	d.reed = d.reedPin.Level()
	d.bus.Publish(state.DoorChange(doorFromLevel(d.reed)))
	logging.LogStateChange("door", doorFromLevel(d.reed).String())

	// The timer is created stopped and armed per edge. Multiple edges
	// inside the settle window just re-arm it; only the final level
	// matters.
	settle := time.NewTimer(time.Hour)
	if !settle.Stop() {
		<-settle.C
	}
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd, ok := <-d.cmds:
			if !ok {
				return nil
			}
			d.applyLock(cmd)

		case <-d.reedPin.Edges():
			if d.debounce == 0 {
				d.checkReed()
				continue
			}
			if !settle.Stop() {
				select {
				case <-settle.C:
				default:
				}
			}
			settle.Reset(d.debounce)

		case <-settle.C:
			d.checkReed()
		}
	}
}

func (d *Door) applyLock(cmd state.Lock) {
	if cmd == d.lock {
		return
	}
	// Active low: driving the line low engages the bolt.
	d.lockPin.Set(cmd == state.Unlocked)
	d.lock = cmd
	d.bus.Publish(state.LockChange(cmd))
	logging.LogStateChange("door", cmd.String())
}

func (d *Door) checkReed() {
	level := d.reedPin.Level()
	if level == d.reed {
		return
	}
	d.reed = level
	ds := doorFromLevel(level)
	d.bus.Publish(state.DoorChange(ds))
	logging.LogStateChange("door", ds.String())
}

// The reed circuit pulls the line high when the magnet is near, so a
// rising edge means the door closed.
func doorFromLevel(level bool) state.Door {
	if level {
		return state.Closed
	}
	return state.Open
}
