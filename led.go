package hatkit

import "github.com/pkg/errors"

// Led is a handle to one channel of the led bank. Copying a Led gives an
// equivalent handle: both drive the same channel through the same mux,
// each keeps its own cached brightness until its next set. The mux is
// the only holder of channel state, a Led never mutates anything
// directly.
type Led struct {
	mux     *LedMux
	channel int

	brightness float64
}

func NewLed(mux *LedMux, channel int) Led {
	return Led{mux: mux, channel: channel}
}

// On sets full brightness.
func (l *Led) On() error {
	return l.SetBrightness(1.0)
}

// Off turns the led dark.
func (l *Led) Off() error {
	return l.SetBrightness(0.0)
}

// Toggle turns the led on when the cached brightness is zero, off in
// every other case. Two toggles in a row land back on an on/off state,
// intermediate dim levels do not survive a toggle pair.
func (l *Led) Toggle() error {
	if l.brightness == 0.0 {
		return l.On()
	}
	return l.Off()
}

// Set is an alias for SetBrightness.
func (l *Led) Set(brightness float64) error {
	return l.SetBrightness(brightness)
}

// SetBrightness forwards the value to the mux. Values outside 0.0-1.0
// fail with ErrBrightness before any state changes. The cached value
// updates before the hardware flush, mirroring the mux discipline of
// keeping the intent on transport failure.
func (l *Led) SetBrightness(brightness float64) error {
	if brightness < 0.0 || brightness > 1.0 {
		return errors.Wrapf(ErrBrightness, "cannot set led on channel %d to %v", l.channel, brightness)
	}

	l.brightness = brightness
	return l.mux.SetChannel(l.channel, brightness)
}

// Brightness returns the last value this handle set.
func (l *Led) Brightness() float64 {
	return l.brightness
}

// Channel returns the mux channel this led drives.
func (l *Led) Channel() int {
	return l.channel
}
