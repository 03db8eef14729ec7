package hatkit

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/brutella/hap/accessory"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/hatkit/drivers"
)

// DigitalOut wraps one sinking output channel of the board. With
// AutoLight set the bound indicator is committed before the pin: the
// intent is declared on the led first, and an indicator failure aborts
// the write leaving the pin untouched.
type DigitalOut struct {
	Name       string
	State      bool
	DriverName string
	OutPin     uint16
	AutoLight  bool

	DisableHomekit bool

	led    *Led
	output drivers.DigitalOutput
	driver drivers.IoDriver

	hk *accessory.Switch

	lock sync.Mutex
}

func (do *DigitalOut) GetDriverName() string {
	return do.DriverName
}

func (do *DigitalOut) GetUniqueId() uint64 {
	hash := fnv.New64()
	hash.Write([]byte("DigitalOut_" + do.Name))
	return hash.Sum64()
}

// AttachLed binds an indicator to this output. Call before Init.
func (do *DigitalOut) AttachLed(led Led) {
	do.led = &led
}

func (do *DigitalOut) Init(driver drivers.IoDriver) error {
	if !strings.EqualFold(driver.String(), do.DriverName) {
		return fmt.Errorf("Init failed, mismatched or incorrect driver")
	}

	if !driver.IsReady() {
		return fmt.Errorf("Init failed, driver not ready")
	}

	var err error

	do.driver = driver
	do.output, err = driver.GetOutput(do.OutPin)
	if err != nil {
		return errors.Wrap(err, "Init failed on getting output")
	}

	if do.DisableHomekit {
		return nil
	}

	info := accessory.Info{
		Name:         do.Name,
		SerialNumber: fmt.Sprintf("digital_out:%s:%02d", do.DriverName, do.OutPin),
	}
	do.hk = accessory.NewSwitch(info)
	do.hk.Switch.On.OnValueRemoteUpdate(do.SetValue)

	return nil
}

// Write drives the output high or low. Indicator first, pin second: when
// the indicator update fails the pin keeps its previous level and the
// indicator error is returned.
func (do *DigitalOut) Write(on bool) error {
	do.lock.Lock()
	defer do.lock.Unlock()

	if do.AutoLight && do.led != nil {
		brightness := 0.0
		if on {
			brightness = 1.0
		}
		if err := do.led.SetBrightness(brightness); err != nil {
			return errors.Wrapf(err, "output %s indicator update failed, pin left unchanged", do.Name)
		}
	}

	if err := do.output.Set(on); err != nil {
		return errors.Wrapf(err, "failed to set output %s", do.Name)
	}
	do.State = on

	return nil
}

// On drives the output high.
func (do *DigitalOut) On() error {
	return do.Write(true)
}

// Off drives the output low.
func (do *DigitalOut) Off() error {
	return do.Write(false)
}

// Toggle inverts the last written state.
func (do *DigitalOut) Toggle() error {
	return do.Write(!do.State)
}

func (do *DigitalOut) Sync() error {
	do.lock.Lock()
	defer do.lock.Unlock()

	state, err := do.output.GetState()
	if err != nil {
		return errors.Wrapf(err, "failed to sync output %s", do.Name)
	}

	oldState := do.State
	do.State = state

	if oldState != state && do.hk != nil {
		do.hk.Switch.On.SetValue(state)
	}

	return nil
}

func (do *DigitalOut) GetHk() *accessory.A {
	if do.hk == nil {
		return nil
	}
	return do.hk.A
}

// SetValue adapts Write for remote updates, errors land in the log.
func (do *DigitalOut) SetValue(on bool) {
	err := do.Write(on)
	if err != nil {
		log.Error("remote output write failed", "output", do.Name, "error", err)
	}
}

func (do *DigitalOut) GetValue() bool {
	return do.State
}
