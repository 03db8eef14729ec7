package drivers

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const ads1015DriverName = "ads1015"

const ads1015Addr = 0x48

const (
	ads1015RegConversion = 0x00
	ads1015RegConfig     = 0x01
)

// Config word for a single-shot conversion: OS set, single-ended mux,
// +-4.096V range, 1600 samples per second, comparator disabled.
const (
	ads1015ConfigStart      = 0x8000
	ads1015ConfigMuxSingle  = 0x4000
	ads1015ConfigGain4V     = 0x0200
	ads1015ConfigModeSingle = 0x0100
	ads1015ConfigRate1600   = 0x0080
	ads1015ConfigCompOff    = 0x0003
)

const ads1015ConversionTimeout = 10 * time.Millisecond

// Ads1015 reads the four-channel analog to digital converter over I2C.
// Conversions are single-shot, one channel at a time; the mutex keeps
// select and read of a conversion in one critical section.
type Ads1015 struct {
	Bus  string
	Addr uint16

	bus     i2c.BusCloser
	dev     *i2c.Dev
	lock    sync.Mutex
	isReady bool
}

func (ads *Ads1015) Setup() error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to init periph host")
	}

	addr := ads.Addr
	if addr == 0 {
		addr = ads1015Addr
	}

	bus, err := i2creg.Open(ads.Bus)
	if err != nil {
		return errors.Wrapf(err, "failed to open i2c bus %q for ads1015", ads.Bus)
	}

	ads.bus = bus
	ads.dev = &i2c.Dev{Bus: bus, Addr: addr}
	ads.isReady = true
	return nil
}

// ReadChannel triggers a conversion on the given channel and returns the
// signed 12 bit result in raw counts.
func (ads *Ads1015) ReadChannel(channel uint8) (int32, error) {
	if channel >= AdcChannelCount {
		return 0, errors.Errorf("ads1015 channel %d out of range", channel)
	}

	ads.lock.Lock()
	defer ads.lock.Unlock()

	config := uint16(ads1015ConfigStart | ads1015ConfigMuxSingle |
		ads1015ConfigGain4V | ads1015ConfigModeSingle |
		ads1015ConfigRate1600 | ads1015ConfigCompOff)
	config |= uint16(channel) << 12

	err := ads.dev.Tx([]byte{ads1015RegConfig, byte(config >> 8), byte(config)}, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "ads1015 channel %d select failed", channel)
	}

	if err = ads.waitConversion(); err != nil {
		return 0, errors.Wrapf(err, "ads1015 channel %d conversion failed", channel)
	}

	buf := make([]byte, 2)
	err = ads.dev.Tx([]byte{ads1015RegConversion}, buf)
	if err != nil {
		return 0, errors.Wrapf(err, "ads1015 channel %d read failed", channel)
	}

	raw := int32(buf[0])<<4 | int32(buf[1])>>4
	if raw&0x800 != 0 {
		raw -= 0x1000
	}
	return raw, nil
}

// waitConversion polls the config register until the OS bit reports the
// conversion done. At 1600 samples per second one conversion takes well
// under a millisecond.
func (ads *Ads1015) waitConversion() error {
	deadline := time.Now().Add(ads1015ConversionTimeout)
	buf := make([]byte, 2)
	for {
		if err := ads.dev.Tx([]byte{ads1015RegConfig}, buf); err != nil {
			return err
		}
		if buf[0]&0x80 != 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("timeout waiting for conversion")
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func (ads *Ads1015) String() string {
	return ads1015DriverName
}

func (ads *Ads1015) IsReady() bool {
	return ads.isReady
}

func (ads *Ads1015) Close() error {
	ads.isReady = false
	if ads.bus == nil {
		return nil
	}
	return ads.bus.Close()
}
