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

// Relay wraps one relay channel together with its pair of contact
// indicators: NO lit while the relay is energized, NC lit while it
// rests. Indicator updates are best effort and never block the coil,
// switching the contacts matters more than lighting a led. Only a
// failed pin write fails the call.
type Relay struct {
	Name       string
	State      bool
	DriverName string
	OutPin     uint16
	AutoLight  bool

	DisableHomekit bool

	noLed  *Led
	ncLed  *Led
	output drivers.DigitalOutput
	driver drivers.IoDriver

	hk *accessory.Switch

	lock sync.Mutex
}

func (re *Relay) GetDriverName() string {
	return re.DriverName
}

func (re *Relay) GetUniqueId() uint64 {
	hash := fnv.New64()
	hash.Write([]byte("Relay_" + re.Name))
	return hash.Sum64()
}

// AttachLeds binds the normally-open and normally-closed contact
// indicators. Call before Init.
func (re *Relay) AttachLeds(no, nc Led) {
	re.noLed = &no
	re.ncLed = &nc
}

func (re *Relay) Init(driver drivers.IoDriver) error {
	if !strings.EqualFold(driver.String(), re.DriverName) {
		return fmt.Errorf("Init failed, mismatched or incorrect driver")
	}

	if !driver.IsReady() {
		return fmt.Errorf("Init failed, driver not ready")
	}

	var err error

	re.driver = driver
	re.output, err = driver.GetOutput(re.OutPin)
	if err != nil {
		return errors.Wrap(err, "Init failed on getting output")
	}

	if re.DisableHomekit {
		return nil
	}

	info := accessory.Info{
		Name:         re.Name,
		SerialNumber: fmt.Sprintf("relay:%s:%02d", re.DriverName, re.OutPin),
	}
	re.hk = accessory.NewSwitch(info)
	re.hk.Switch.On.OnValueRemoteUpdate(re.SetValue)

	return nil
}

// Write energizes or releases the relay coil. When AutoLight is set the
// contact indicators are updated first: NO full and NC dark while
// energized, the inverse at rest. Indicator failures are logged and the
// coil is driven regardless.
func (re *Relay) Write(open bool) error {
	re.lock.Lock()
	defer re.lock.Unlock()

	if re.AutoLight {
		noBrightness, ncBrightness := 0.0, 1.0
		if open {
			noBrightness, ncBrightness = 1.0, 0.0
		}
		if re.noLed != nil {
			if err := re.noLed.SetBrightness(noBrightness); err != nil {
				log.Warn("relay NO indicator update failed", "relay", re.Name, "error", err)
			}
		}
		if re.ncLed != nil {
			if err := re.ncLed.SetBrightness(ncBrightness); err != nil {
				log.Warn("relay NC indicator update failed", "relay", re.Name, "error", err)
			}
		}
	}

	if err := re.output.Set(open); err != nil {
		return errors.Wrapf(err, "failed to switch relay %s", re.Name)
	}
	re.State = open

	return nil
}

// On energizes the coil.
func (re *Relay) On() error {
	return re.Write(true)
}

// Off releases the coil.
func (re *Relay) Off() error {
	return re.Write(false)
}

// Toggle inverts the last written state.
func (re *Relay) Toggle() error {
	return re.Write(!re.State)
}

func (re *Relay) Sync() error {
	re.lock.Lock()
	defer re.lock.Unlock()

	state, err := re.output.GetState()
	if err != nil {
		return errors.Wrapf(err, "failed to sync relay %s", re.Name)
	}

	oldState := re.State
	re.State = state

	if oldState != state && re.hk != nil {
		re.hk.Switch.On.SetValue(state)
	}

	return nil
}

func (re *Relay) GetHk() *accessory.A {
	if re.hk == nil {
		return nil
	}
	return re.hk.A
}

// SetValue adapts Write for remote updates, errors land in the log.
func (re *Relay) SetValue(open bool) {
	err := re.Write(open)
	if err != nil {
		log.Error("remote relay write failed", "relay", re.Name, "error", err)
	}
}

func (re *Relay) GetValue() bool {
	return re.State
}
