package drivers

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const sn3218DriverName = "sn3218"

const sn3218Addr = 0x54

// SN3218 register map. The chip latches PWM and control registers only
// after a write to the update register.
const (
	sn3218RegShutdown = 0x00
	sn3218RegPwm      = 0x01
	sn3218RegControl  = 0x13
	sn3218RegUpdate   = 0x16
	sn3218RegReset    = 0x17
)

// Sn3218 drives the 18-channel LED driver over I2C.
type Sn3218 struct {
	Bus  string
	Addr uint16

	bus     i2c.BusCloser
	dev     *i2c.Dev
	isReady bool
}

func (sn *Sn3218) Setup() error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to init periph host")
	}

	addr := sn.Addr
	if addr == 0 {
		addr = sn3218Addr
	}

	bus, err := i2creg.Open(sn.Bus)
	if err != nil {
		return errors.Wrapf(err, "failed to open i2c bus %q for sn3218", sn.Bus)
	}

	sn.bus = bus
	sn.dev = &i2c.Dev{Bus: bus, Addr: addr}

	if err = sn.writeBlock(sn3218RegReset, 0xFF); err != nil {
		return errors.Wrap(err, "sn3218 reset failed")
	}
	if err = sn.writeBlock(sn3218RegShutdown, 0x01); err != nil {
		return errors.Wrap(err, "sn3218 enable failed")
	}

	sn.isReady = true
	return nil
}

func (sn *Sn3218) writeBlock(reg byte, data ...byte) error {
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, reg)
	buf = append(buf, data...)
	return sn.dev.Tx(buf, nil)
}

// Enable programs the per-channel enable bits. The mask carries one bit
// per channel, split 6 bits per control register.
func (sn *Sn3218) Enable(mask uint32) error {
	err := sn.writeBlock(sn3218RegControl,
		byte(mask&0x3F),
		byte((mask>>6)&0x3F),
		byte((mask>>12)&0x3F))
	if err != nil {
		return errors.Wrap(err, "sn3218 enable register write failed")
	}

	err = sn.writeBlock(sn3218RegUpdate, 0xFF)
	if err != nil {
		return errors.Wrap(err, "sn3218 update after enable failed")
	}
	return nil
}

// Output pushes the brightness value of every channel and latches them.
func (sn *Sn3218) Output(values [LedChannelCount]byte) error {
	err := sn.writeBlock(sn3218RegPwm, values[:]...)
	if err != nil {
		return errors.Wrap(err, "sn3218 pwm register write failed")
	}

	err = sn.writeBlock(sn3218RegUpdate, 0xFF)
	if err != nil {
		return errors.Wrap(err, "sn3218 update after output failed")
	}
	return nil
}

func (sn *Sn3218) String() string {
	return sn3218DriverName
}

func (sn *Sn3218) IsReady() bool {
	return sn.isReady
}

func (sn *Sn3218) Close() error {
	sn.isReady = false
	if sn.dev != nil {
		sn.writeBlock(sn3218RegShutdown, 0x00)
	}
	if sn.bus == nil {
		return nil
	}
	return sn.bus.Close()
}
