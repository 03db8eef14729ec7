package hatkit

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/hubertat/hatkit/drivers"
)

// ErrBrightness is returned when a requested brightness value lies
// outside the 0.0-1.0 range.
var ErrBrightness = errors.New("brightness out of range (must be within 0.0-1.0)")

// ErrChannel is returned when a led channel index lies outside the
// 18 channels the driver chip offers.
var ErrChannel = errors.New("led channel out of range")

// LedMux owns the handle to the led driver chip and the authoritative
// brightness of every channel. The chip is programmed as a whole, so
// every update recomputes the full output buffer plus enable mask from
// the stored state and flushes both in one transaction pair. A single
// lock covers the whole read-modify-flush cycle: concurrent leds never
// clobber each other and no partial update reaches the hardware.
//
// Wrappers never share a channel; the mux is what they share. Tests can
// run any number of independent muxes against mock drivers.
type LedMux struct {
	driver drivers.LedDriver

	lock     sync.Mutex
	channels map[int]byte
}

func NewLedMux(driver drivers.LedDriver) *LedMux {
	return &LedMux{
		driver:   driver,
		channels: make(map[int]byte),
	}
}

// SetChannel stores the brightness for one channel and flushes the whole
// bank to hardware. Brightness converts to a hardware byte by
// round(value * 255). Out of range arguments are rejected before any
// state changes. When the transport fails the in-memory state keeps the
// update anyway: there is no rollback, the logical and physical state
// may diverge until the next successful flush.
func (lm *LedMux) SetChannel(channel int, brightness float64) error {
	if brightness < 0.0 || brightness > 1.0 {
		return errors.Wrapf(ErrBrightness, "cannot set channel %d to %v", channel, brightness)
	}
	if channel < 0 || channel >= drivers.LedChannelCount {
		return errors.Wrapf(ErrChannel, "cannot set channel %d", channel)
	}

	lm.lock.Lock()
	defer lm.lock.Unlock()

	if lm.channels == nil {
		lm.channels = make(map[int]byte)
	}
	lm.channels[channel] = byte(math.Round(brightness * 255))

	return lm.flush()
}

// Snapshot returns the output buffer and enable mask the current state
// flushes as. Channels never set are zero.
func (lm *LedMux) Snapshot() (values [drivers.LedChannelCount]byte, mask uint32) {
	lm.lock.Lock()
	defer lm.lock.Unlock()

	for channel, value := range lm.channels {
		if channel < 0 || channel >= drivers.LedChannelCount {
			continue
		}
		values[channel] = value
		if value > 0 {
			mask |= 1 << channel
		}
	}
	return
}

// flush programs the hardware with the full channel state: enable bits
// first, then the output values. Callers must hold the lock.
func (lm *LedMux) flush() error {
	var values [drivers.LedChannelCount]byte
	var mask uint32

	for channel, value := range lm.channels {
		if channel < 0 || channel >= drivers.LedChannelCount {
			return errors.Wrapf(ErrChannel, "channel %d found in led state", channel)
		}
		values[channel] = value
		if value > 0 {
			mask |= 1 << channel
		}
	}

	if err := lm.driver.Enable(mask); err != nil {
		return errors.Wrap(err, "led enable transaction failed")
	}
	if err := lm.driver.Output(values); err != nil {
		return errors.Wrap(err, "led output transaction failed")
	}

	return nil
}
