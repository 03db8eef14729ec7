package hatkit

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
	"github.com/pkg/errors"

	"github.com/hubertat/hatkit/drivers"
)

// DigitalIn wraps one buffered input channel of the board. The optional
// indicator led mirrors the input level on every read when AutoLight is
// set.
type DigitalIn struct {
	Name       string
	State      bool
	DriverName string
	InPin      uint16
	AutoLight  bool

	DisableHomekit bool

	led    *Led
	input  drivers.DigitalInput
	driver drivers.IoDriver

	hkAccessory *accessory.A
	hkService   *service.ContactSensor
}

func (di *DigitalIn) GetDriverName() string {
	return di.DriverName
}

func (di *DigitalIn) GetUniqueId() uint64 {
	hash := fnv.New64()
	hash.Write([]byte("DigitalIn_" + di.Name))
	return hash.Sum64()
}

// AttachLed binds an indicator to this input. Call before Init.
func (di *DigitalIn) AttachLed(led Led) {
	di.led = &led
}

func (di *DigitalIn) Init(driver drivers.IoDriver) error {
	if !strings.EqualFold(driver.String(), di.DriverName) {
		return fmt.Errorf("Init failed, mismatched or incorrect driver")
	}

	if !driver.IsReady() {
		return fmt.Errorf("Init failed, driver not ready")
	}

	var err error

	di.driver = driver
	di.input, err = driver.GetInput(di.InPin)
	if err != nil {
		return errors.Wrap(err, "Init failed on getting input")
	}

	initState, err := di.input.GetState()
	if err != nil {
		return errors.Wrap(err, "Init failed, on reading state")
	}
	di.State = initState

	if di.DisableHomekit {
		return nil
	}

	info := accessory.Info{
		Name:         di.Name,
		SerialNumber: fmt.Sprintf("digital_in:%s:%02d", di.DriverName, di.InPin),
	}

	di.hkAccessory = accessory.New(info, accessory.TypeSensor)
	di.hkService = service.NewContactSensor()
	di.hkAccessory.AddS(di.hkService.S)
	di.hkService.ContactSensorState.SetValue(contactState(initState))

	return nil
}

// Read returns the current pin level. A pin failure short-circuits
// before the indicator is touched. With AutoLight set and a led bound,
// a successful pin read then drives the indicator to full or dark; an
// indicator failure is reported, but the returned state is still valid.
func (di *DigitalIn) Read() (bool, error) {
	state, err := di.input.GetState()
	if err != nil {
		return false, errors.Wrapf(err, "failed to read input %s", di.Name)
	}
	di.State = state

	if di.AutoLight && di.led != nil {
		brightness := 0.0
		if state {
			brightness = 1.0
		}
		if err := di.led.SetBrightness(brightness); err != nil {
			return state, errors.Wrapf(err, "input %s read ok, indicator update failed", di.Name)
		}
	}

	return state, nil
}

func (di *DigitalIn) Sync() error {
	_, err := di.Read()

	if di.hkService != nil {
		di.hkService.ContactSensorState.SetValue(contactState(di.State))
	}

	return err
}

func (di *DigitalIn) GetHk() *accessory.A {
	return di.hkAccessory
}

func (di *DigitalIn) GetValue() bool {
	return di.State
}

// contactState maps an active input to the HomeKit contact sensor
// characteristic: a present signal reads as contact open.
func contactState(active bool) int {
	if active {
		return characteristic.ContactSensorStateContactNotDetected
	}
	return characteristic.ContactSensorStateContactDetected
}
