package hatkit

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/service"
	"github.com/pkg/errors"

	"github.com/hubertat/hatkit/drivers"
)

// AnalogIn wraps one converter channel. Readings are normalized against
// MaxRaw, the calibration ceiling in raw counts: the ceiling maps to 1.0
// and stronger signals read above 1.0, the wrapper never clamps what it
// returns. The indicator led shows the reading proportionally, clamped
// into its own 0.0-1.0 range.
type AnalogIn struct {
	Name       string
	Value      float64
	DriverName string
	Channel    uint8
	MaxRaw     float64
	AutoLight  bool

	DisableHomekit bool

	led *Led
	adc drivers.AdcDriver

	hkAccessory *accessory.A
	hkService   *service.HumiditySensor
}

func (ai *AnalogIn) GetDriverName() string {
	return ai.DriverName
}

func (ai *AnalogIn) GetUniqueId() uint64 {
	hash := fnv.New64()
	hash.Write([]byte("AnalogIn_" + ai.Name))
	return hash.Sum64()
}

// AttachLed binds an indicator to this input. Call before Init.
func (ai *AnalogIn) AttachLed(led Led) {
	ai.led = &led
}

func (ai *AnalogIn) Init(adc drivers.AdcDriver) error {
	if !strings.EqualFold(adc.String(), ai.DriverName) {
		return fmt.Errorf("Init failed, mismatched or incorrect driver")
	}

	if !adc.IsReady() {
		return fmt.Errorf("Init failed, driver not ready")
	}

	if ai.MaxRaw <= 0 {
		return fmt.Errorf("Init failed, calibration ceiling (MaxRaw) not set")
	}

	if ai.Channel >= drivers.AdcChannelCount {
		return fmt.Errorf("Init failed, adc channel %d out of range", ai.Channel)
	}

	ai.adc = adc

	if ai.DisableHomekit {
		return nil
	}

	info := accessory.Info{
		Name:         ai.Name,
		SerialNumber: fmt.Sprintf("analog_in:%s:%02d", ai.DriverName, ai.Channel),
	}
	ai.hkAccessory = accessory.New(info, accessory.TypeSensor)
	ai.hkService = service.NewHumiditySensor()
	ai.hkAccessory.AddS(ai.hkService.S)

	return nil
}

// Read converts the channel once and returns the normalized reading. A
// converter failure short-circuits before the indicator is touched. With
// AutoLight set and a led bound, the indicator then takes the clamped
// reading; an indicator failure is reported, but the returned value is
// still valid.
func (ai *AnalogIn) Read() (float64, error) {
	raw, err := ai.adc.ReadChannel(ai.Channel)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read analog input %s", ai.Name)
	}

	value := float64(raw) / ai.MaxRaw
	ai.Value = value

	if ai.AutoLight && ai.led != nil {
		if err := ai.led.SetBrightness(clamp01(value)); err != nil {
			return value, errors.Wrapf(err, "analog input %s read ok, indicator update failed", ai.Name)
		}
	}

	return value, nil
}

func (ai *AnalogIn) Sync() error {
	_, err := ai.Read()

	if ai.hkService != nil {
		ai.hkService.CurrentRelativeHumidity.SetValue(clamp01(ai.Value) * 100)
	}

	return err
}

func (ai *AnalogIn) GetHk() *accessory.A {
	return ai.hkAccessory
}

func (ai *AnalogIn) GetValue() float64 {
	return ai.Value
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
