package hatkit

import (
	"fmt"
	"hash/fnv"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// StatusLight is one of the standalone board leds (power, comms, warn)
// with no peripheral behind it. It is driven directly, by the
// application or from HomeKit.
type StatusLight struct {
	Name       string
	Brightness float64

	DisableHomekit bool

	led *Led

	hk           *accessory.Lightbulb
	hkBrightness *characteristic.Brightness
}

func (sl *StatusLight) GetUniqueId() uint64 {
	hash := fnv.New64()
	hash.Write([]byte("StatusLight_" + sl.Name))
	return hash.Sum64()
}

// AttachLed binds the board led. Call before Init.
func (sl *StatusLight) AttachLed(led Led) {
	sl.led = &led
}

func (sl *StatusLight) Init() error {
	if sl.led == nil {
		return fmt.Errorf("Init failed, no led attached")
	}

	if sl.DisableHomekit {
		return nil
	}

	info := accessory.Info{
		Name:         sl.Name,
		SerialNumber: fmt.Sprintf("status_light:%02d", sl.led.Channel()),
	}
	sl.hk = accessory.NewLightbulb(info)

	sl.hkBrightness = characteristic.NewBrightness()
	sl.hk.Lightbulb.AddC(sl.hkBrightness.C)

	sl.hk.Lightbulb.On.OnValueRemoteUpdate(func(on bool) {
		var err error
		if on {
			err = sl.On()
		} else {
			err = sl.Off()
		}
		if err != nil {
			log.Error("remote status light switch failed", "light", sl.Name, "error", err)
		}
	})
	sl.hkBrightness.OnValueRemoteUpdate(func(percent int) {
		err := sl.SetBrightness(float64(percent) / 100)
		if err != nil {
			log.Error("remote status light dim failed", "light", sl.Name, "error", err)
		}
	})

	return nil
}

// SetBrightness drives the board led and keeps the HomeKit
// characteristics in step.
func (sl *StatusLight) SetBrightness(brightness float64) error {
	if err := sl.led.SetBrightness(brightness); err != nil {
		return errors.Wrapf(err, "failed to set status light %s", sl.Name)
	}
	sl.Brightness = brightness

	if sl.hk != nil {
		sl.hk.Lightbulb.On.SetValue(brightness > 0)
		sl.hkBrightness.SetValue(int(brightness * 100))
	}

	return nil
}

// On sets full brightness.
func (sl *StatusLight) On() error {
	return sl.SetBrightness(1.0)
}

// Off turns the light dark.
func (sl *StatusLight) Off() error {
	return sl.SetBrightness(0.0)
}

// Toggle turns the light on when dark, off otherwise.
func (sl *StatusLight) Toggle() error {
	if sl.Brightness == 0.0 {
		return sl.On()
	}
	return sl.Off()
}

// Sync has no hardware state to pull, the leds are write only.
func (sl *StatusLight) Sync() error {
	return nil
}

func (sl *StatusLight) GetHk() *accessory.A {
	if sl.hk == nil {
		return nil
	}
	return sl.hk.A
}

func (sl *StatusLight) GetValue() float64 {
	return sl.Brightness
}
