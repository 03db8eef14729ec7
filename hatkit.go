package hatkit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	dnslog "github.com/brutella/dnssd/log"
	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	hklog "github.com/brutella/hap/log"
	"github.com/pkg/errors"

	"github.com/hubertat/hatkit/drivers"
	"github.com/hubertat/hatkit/mqtt"
)

const defaultHomeKitDirectory = "./homekit"
const homeKitBridgeName = "hatkit"
const homeKitBridgeAuthor = "github.com/hubertat"

// HatKit assembles one expansion board: the io driver for the pins, the
// led driver behind the mux, the converter driver, and the peripherals
// generated from the board tables. The exported fields come from the
// JSON config.
type HatKit struct {
	Name     string
	Board    string
	Revision string

	// AutoLight overrides the variant default when set.
	AutoLight *bool

	Inputs       []*DigitalIn
	Outputs      []*DigitalOut
	Relays       []*Relay
	Analogs      []*AnalogIn
	StatusLights []*StatusLight

	HkPin       string
	HkDirectory string
	HkAddress   string
	HkDebug     bool

	MqttBroker string

	HttpAddr  string
	HttpToken string

	Influx *InfluxRecorder

	Cdev       *drivers.CdevIO
	Gpio       *drivers.GpIO
	Mcp23017   *drivers.McpIO
	FakeDriver *drivers.MockIoDriver

	Sn3218  *drivers.Sn3218
	FakeLed *drivers.MockLedDriver

	Ads1015 *drivers.Ads1015
	FakeAdc *drivers.MockAdcDriver

	// BoardDriver names the io driver that owns the board pins. Left
	// empty, the first configured driver is used.
	BoardDriver string

	mux        *LedMux
	ledDriver  drivers.LedDriver
	adcDriver  drivers.AdcDriver
	ioDrivers  map[string]drivers.IoDriver
	mqttClient *mqtt.MqttClient
	ticker     *time.Ticker
	httpServer *http.Server
	httpErr    chan error
}

type IO interface {
	Init(driver drivers.IoDriver) error
	GetDriverName() string
	Sync() error
}

type HkThing interface {
	GetHk() *accessory.A
	GetUniqueId() uint64
}

func (hk *HatKit) clientName() string {
	if len(hk.Name) > 0 {
		return hk.Name
	}
	return homeKitBridgeName
}

func (hk *HatKit) boardDriverName() string {
	if len(hk.BoardDriver) > 0 {
		return hk.BoardDriver
	}
	if hk.Cdev != nil {
		return hk.Cdev.String()
	}
	if hk.Gpio != nil {
		return hk.Gpio.String()
	}
	if hk.Mcp23017 != nil {
		return hk.Mcp23017.String()
	}
	if hk.FakeDriver != nil {
		return hk.FakeDriver.String()
	}
	return ""
}

func (hk *HatKit) adcDriverName() string {
	if hk.Ads1015 != nil {
		return hk.Ads1015.String()
	}
	if hk.FakeAdc != nil {
		return hk.FakeAdc.String()
	}
	return ""
}

func (hk *HatKit) getInPins(driverName string) (pins []uint16) {
	for _, io := range hk.Inputs {
		if strings.EqualFold(io.DriverName, driverName) {
			pins = append(pins, io.InPin)
		}
	}

	return
}

func (hk *HatKit) getOutPins(driverName string) (pins []uint16) {
	for _, io := range hk.Outputs {
		if strings.EqualFold(io.DriverName, driverName) {
			pins = append(pins, io.OutPin)
		}
	}
	for _, io := range hk.Relays {
		if strings.EqualFold(io.DriverName, driverName) {
			pins = append(pins, io.OutPin)
		}
	}

	return
}

func (hk *HatKit) getIos() []IO {
	ios := []IO{}
	for _, in := range hk.Inputs {
		ios = append(ios, in)
	}
	for _, out := range hk.Outputs {
		ios = append(ios, out)
	}
	for _, relay := range hk.Relays {
		ios = append(ios, relay)
	}

	return ios
}

func (hk *HatKit) getHkThings() (things []HkThing) {
	for _, th := range hk.Inputs {
		things = append(things, th)
	}
	for _, th := range hk.Outputs {
		things = append(things, th)
	}
	for _, th := range hk.Relays {
		things = append(things, th)
	}
	for _, th := range hk.Analogs {
		things = append(things, th)
	}
	for _, th := range hk.StatusLights {
		things = append(things, th)
	}

	return
}

// Mux returns the led mux, nil on boards without leds.
func (hk *HatKit) Mux() *LedMux {
	return hk.mux
}

// InitDrivers sets up the configured transports and generates the board
// peripherals: first the led driver (the mux indicators hang off it),
// then the converter, then the io drivers with the pins the generated
// peripherals claim.
func (hk *HatKit) InitDrivers(ctx context.Context) error {
	if hk.Sn3218 != nil {
		hk.ledDriver = hk.Sn3218
	} else if hk.FakeLed != nil {
		hk.ledDriver = hk.FakeLed
	}
	if hk.ledDriver != nil {
		if err := hk.ledDriver.Setup(); err != nil {
			return errors.Wrapf(err, "failed to setup %s led driver", hk.ledDriver)
		}
		hk.mux = NewLedMux(hk.ledDriver)
	}

	if hk.Ads1015 != nil {
		hk.adcDriver = hk.Ads1015
	} else if hk.FakeAdc != nil {
		hk.adcDriver = hk.FakeAdc
	}
	if hk.adcDriver != nil {
		if err := hk.adcDriver.Setup(); err != nil {
			return errors.Wrapf(err, "failed to setup %s adc driver", hk.adcDriver)
		}
	}

	if hk.Influx != nil {
		if err := hk.Influx.Setup(ctx); err != nil {
			return errors.Wrap(err, "failed to setup influx recorder")
		}
	}

	if err := hk.Build(hk.mux); err != nil {
		return errors.Wrap(err, "failed to build board peripherals")
	}

	hk.ioDrivers = make(map[string]drivers.IoDriver)

	if hk.Cdev != nil {
		hk.ioDrivers[hk.Cdev.String()] = hk.Cdev
	}

	if hk.Gpio != nil {
		hk.ioDrivers[hk.Gpio.String()] = hk.Gpio
	}

	if hk.Mcp23017 != nil {
		hk.ioDrivers[hk.Mcp23017.String()] = hk.Mcp23017
	}

	if hk.FakeDriver != nil {
		hk.ioDrivers[hk.FakeDriver.String()] = hk.FakeDriver
	}

	for _, driver := range hk.ioDrivers {
		err := driver.Setup(ctx, hk.getInPins(driver.String()), hk.getOutPins(driver.String()))
		if err != nil {
			return errors.Wrapf(err, "failed to setup %s driver", driver)
		}
	}

	for _, io := range hk.getIos() {
		_, driverFound := hk.ioDrivers[io.GetDriverName()]
		if !driverFound {
			return errors.Errorf("driver %s not set up", io.GetDriverName())
		}
	}

	return nil
}

// InitIos binds every peripheral to its driver: pin peripherals to the
// io driver, analog inputs to the converter, status lights to their
// leds.
func (hk *HatKit) InitIos() error {
	for _, io := range hk.getIos() {
		err := io.Init(hk.ioDrivers[io.GetDriverName()])
		if err != nil {
			return errors.Wrapf(err, "failed to init io")
		}
	}

	for _, analog := range hk.Analogs {
		if hk.adcDriver == nil {
			return errors.Errorf("analog input %s configured but no adc driver present", analog.Name)
		}
		err := analog.Init(hk.adcDriver)
		if err != nil {
			return errors.Wrapf(err, "failed to init analog input %s", analog.Name)
		}
	}

	for _, light := range hk.StatusLights {
		err := light.Init()
		if err != nil {
			return errors.Wrapf(err, "failed to init status light %s", light.Name)
		}
	}

	return nil
}

// StartTicker runs the sync loop: every interval the pin peripherals and
// analog inputs refresh their state (driving indicators and HomeKit
// characteristics along the way); every telemetryInterval the current
// board state goes out to MQTT and InfluxDB when configured. Blocks
// forever.
func (hk *HatKit) StartTicker(interval, telemetryInterval time.Duration) {
	hk.ticker = time.NewTicker(interval)

	var telemetry <-chan time.Time
	if telemetryInterval > 0 {
		telemetryTicker := time.NewTicker(telemetryInterval)
		defer telemetryTicker.Stop()
		telemetry = telemetryTicker.C
	}

	for {
		select {
		case <-hk.ticker.C:
			for _, io := range hk.getIos() {
				err := io.Sync()
				if err != nil {
					log.Error("io sync failed", "error", err)
				}
			}
			for _, analog := range hk.Analogs {
				err := analog.Sync()
				if err != nil {
					log.Error("analog sync failed", "error", err)
				}
			}
		case <-telemetry:
			hk.publishTelemetry()
		}
	}
}

func (hk *HatKit) publishTelemetry() {
	if hk.mqttClient != nil {
		hk.publishStates()
	}

	if hk.Influx != nil {
		err := hk.Influx.WriteFields(context.Background(), hk.telemetryTags(), hk.telemetryFields())
		if err != nil {
			log.Warn("influx telemetry write failed", "error", err)
		}
	}
}

func (hk *HatKit) telemetryTags() map[string]string {
	return map[string]string{
		"kit":   hk.clientName(),
		"board": hk.Board,
	}
}

func (hk *HatKit) telemetryFields() map[string]interface{} {
	fields := make(map[string]interface{})
	for _, in := range hk.Inputs {
		fields[topicSlug(in.Name)] = in.State
	}
	for _, out := range hk.Outputs {
		fields[topicSlug(out.Name)] = out.State
	}
	for _, relay := range hk.Relays {
		fields[topicSlug(relay.Name)] = relay.State
	}
	for _, analog := range hk.Analogs {
		fields[topicSlug(analog.Name)] = analog.Value
	}
	for _, light := range hk.StatusLights {
		fields[topicSlug(light.Name)] = light.Brightness
	}
	if hk.mux != nil {
		_, mask := hk.mux.Snapshot()
		fields["led_mask"] = int64(mask)
	}

	return fields
}

func (hk *HatKit) Close() (err error) {
	if hk.httpServer != nil {
		closeErr := hk.httpServer.Close()
		if closeErr != nil {
			err = errors.Wrap(closeErr, "http server close failed")
		}
	}

	for _, driver := range hk.ioDrivers {
		if driver != nil {
			closeErr := driver.Close()
			if closeErr != nil {
				err = errors.Wrap(closeErr, "io driver close failed")
			}
		}
	}

	if hk.adcDriver != nil {
		closeErr := hk.adcDriver.Close()
		if closeErr != nil {
			err = errors.Wrap(closeErr, "adc driver close failed")
		}
	}

	if hk.ledDriver != nil {
		closeErr := hk.ledDriver.Close()
		if closeErr != nil {
			err = errors.Wrap(closeErr, "led driver close failed")
		}
	}

	if hk.Influx != nil {
		closeErr := hk.Influx.Close()
		if closeErr != nil {
			err = errors.Wrap(closeErr, "influx recorder close failed")
		}
	}

	return
}

func (hk *HatKit) PrintIoStatus(writer io.Writer) {
	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "=== active io drivers ===")
	for driverName, driver := range hk.ioDrivers {
		fmt.Fprintln(writer, "________")
		fmt.Fprintf(writer, "| driver: %s\n", driverName)
		inputs, outputs := driver.GetAllIo()
		fmt.Fprintf(writer, "| in pins: ")
		for _, inpin := range inputs {
			fmt.Fprintf(writer, "%d, ", inpin)
		}
		fmt.Fprintf(writer, "\n| out pins: ")
		for _, outpin := range outputs {
			fmt.Fprintf(writer, "%d, ", outpin)
		}
		fmt.Fprintln(writer)
		fmt.Fprintln(writer, "--------")
	}
	if hk.ledDriver != nil {
		values, mask := hk.mux.Snapshot()
		fmt.Fprintln(writer, "________")
		fmt.Fprintf(writer, "| led driver: %s\n", hk.ledDriver)
		fmt.Fprintf(writer, "| enable mask: %018b\n", mask)
		fmt.Fprintf(writer, "| values: %v\n", values)
		fmt.Fprintln(writer, "--------")
	}
	if hk.adcDriver != nil {
		fmt.Fprintln(writer, "________")
		fmt.Fprintf(writer, "| adc driver: %s (%d channels)\n", hk.adcDriver, drivers.AdcChannelCount)
		fmt.Fprintln(writer, "--------")
	}
	fmt.Fprintln(writer, "-----------------------------")
	fmt.Fprintln(writer)
}

func (hk *HatKit) GetHkAccessories(firmwareVersion string) (acc []*accessory.A) {
	acc = []*accessory.A{}

	for _, th := range hk.getHkThings() {
		accessory := th.GetHk()
		if accessory != nil {
			if accessory.Info != nil && accessory.Info.FirmwareRevision != nil {
				accessory.Info.FirmwareRevision.SetValue(firmwareVersion)
			}
			accessory.Id = th.GetUniqueId()
			acc = append(acc, accessory)
		}
	}

	return
}

func (hk *HatKit) StartHomeKit(ctx context.Context, firmwareVersion string) error {
	bridge := accessory.NewBridge(accessory.Info{
		Name:         hk.clientName(),
		Manufacturer: homeKitBridgeAuthor,
		Firmware:     firmwareVersion,
	})

	var store hap.Store
	if len(hk.HkDirectory) > 1 {
		store = hap.NewFsStore(hk.HkDirectory)
	} else {
		store = hap.NewFsStore(defaultHomeKitDirectory)
	}
	hkServer, err := hap.NewServer(store, bridge.A, hk.GetHkAccessories(firmwareVersion)...)
	if err != nil {
		return errors.Wrap(err, "failed to create HomeKit server")
	}
	hkServer.Pin = hk.HkPin
	if len(hk.HkAddress) > 0 {
		hkServer.Addr = hk.HkAddress
	}

	if hk.HkDebug {
		hklog.Debug.Enable()
		dnslog.Debug.Enable()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-c
		// Stop delivering signals.
		signal.Stop(c)
		// Cancel the context to stop the server.
		cancel()
	}()

	return hkServer.ListenAndServe(ctx)
}

func (hk *HatKit) InitMqtt() (err error) {
	if len(hk.MqttBroker) == 0 {
		err = errors.New("mqtt broker not set")
		return
	}

	mc, err := mqtt.NewMqttClient(hk.MqttBroker, hk.clientName())
	if err != nil {
		err = errors.Wrap(err, "failed to create mqtt client")
		return
	}

	hk.mqttClient = mc

	err = mc.Connect(hk.mqttHandlers())
	if err != nil {
		err = errors.Wrap(err, "failed to connect to mqtt broker")
	}

	return
}
