package hatkit

import "github.com/pkg/errors"

// BoardVariant selects the expansion board form factor. The full size
// board carries three relays, indicator leds for every channel and the
// three status lights; the smaller variants carry a single relay and no
// leds at all.
type BoardVariant string

const (
	BoardAutomationHat     BoardVariant = "automationhat"
	BoardAutomationPhat    BoardVariant = "automationphat"
	BoardAutomationHatMini BoardVariant = "automationhatmini"
)

// WiringRevision selects the relay pin mapping. Two wirings exist in the
// field, differing only in which BCM pin drives relay one and three.
type WiringRevision string

const (
	WiringBcmA WiringRevision = "bcm-a"
	WiringBcmB WiringRevision = "bcm-b"
)

// Led channels of the SN3218 bank, as routed on the full size board.
// Input leds run in reverse channel order.
const (
	ledChannelAnalogOne    = 0
	ledChannelAnalogTwo    = 1
	ledChannelAnalogThree  = 2
	ledChannelOutputOne    = 3
	ledChannelOutputTwo    = 4
	ledChannelOutputThree  = 5
	ledChannelRelayOneNO   = 6
	ledChannelRelayOneNC   = 7
	ledChannelRelayTwoNO   = 8
	ledChannelRelayTwoNC   = 9
	ledChannelRelayThreeNO = 10
	ledChannelRelayThreeNC = 11
	ledChannelInputThree   = 12
	ledChannelInputTwo     = 13
	ledChannelInputOne     = 14
	ledChannelWarn         = 15
	ledChannelComms        = 16
	ledChannelPower        = 17
)

// BCM pin numbers, identical on every variant and revision.
var boardInputPins = [3]uint16{26, 20, 21}
var boardOutputPins = [3]uint16{5, 12, 6}

// adcMaxRaw is the converter reading matching the 25.85V ceiling of the
// divided analog inputs: 3.3V at the converter pin, 12 bit conversion
// at the 4.096V range.
const adcMaxRaw = 1649.0

var numberNames = [3]string{"One", "Two", "Three"}

type boardLayout struct {
	hasLeds    bool
	autoLight  bool
	relayCount int
}

func layoutFor(variant BoardVariant) (boardLayout, error) {
	switch variant {
	case BoardAutomationHat:
		return boardLayout{hasLeds: true, autoLight: true, relayCount: 3}, nil
	case BoardAutomationPhat:
		return boardLayout{hasLeds: false, autoLight: true, relayCount: 1}, nil
	case BoardAutomationHatMini:
		return boardLayout{hasLeds: false, autoLight: false, relayCount: 1}, nil
	}

	return boardLayout{}, errors.Errorf("unknown board variant %q", variant)
}

// relayPinsFor returns the BCM pins of relays one, two and three for a
// wiring revision. Revision bcm-a is the default.
func relayPinsFor(revision WiringRevision) ([3]uint16, error) {
	switch revision {
	case WiringBcmA, "":
		return [3]uint16{13, 19, 16}, nil
	case WiringBcmB:
		return [3]uint16{16, 19, 13}, nil
	}

	return [3]uint16{}, errors.Errorf("unknown wiring revision %q", revision)
}

// Build populates the peripheral slices from the board tables: three
// inputs, three outputs, three analog channels, relays per variant and
// on the full size board the status lights plus every indicator led.
// Peripherals already present are left alone, so a config may override
// or extend the generated set. Build wires indicators only when mux is
// not nil.
func (hk *HatKit) Build(mux *LedMux) error {
	layout, err := layoutFor(BoardVariant(hk.Board))
	if err != nil {
		return err
	}
	relayPins, err := relayPinsFor(WiringRevision(hk.Revision))
	if err != nil {
		return err
	}

	autoLight := layout.autoLight
	if hk.AutoLight != nil {
		autoLight = *hk.AutoLight
	}
	withLeds := layout.hasLeds && mux != nil

	pinDriver := hk.boardDriverName()
	adcDriver := hk.adcDriverName()

	inputLedChannels := [3]int{ledChannelInputOne, ledChannelInputTwo, ledChannelInputThree}
	outputLedChannels := [3]int{ledChannelOutputOne, ledChannelOutputTwo, ledChannelOutputThree}
	analogLedChannels := [3]int{ledChannelAnalogOne, ledChannelAnalogTwo, ledChannelAnalogThree}
	relayNoChannels := [3]int{ledChannelRelayOneNO, ledChannelRelayTwoNO, ledChannelRelayThreeNO}
	relayNcChannels := [3]int{ledChannelRelayOneNC, ledChannelRelayTwoNC, ledChannelRelayThreeNC}

	if len(hk.Inputs) == 0 {
		for i := 0; i < 3; i++ {
			input := &DigitalIn{
				Name:       "Input " + numberNames[i],
				DriverName: pinDriver,
				InPin:      boardInputPins[i],
				AutoLight:  autoLight,
			}
			if withLeds {
				input.AttachLed(NewLed(mux, inputLedChannels[i]))
			}
			hk.Inputs = append(hk.Inputs, input)
		}
	}

	if len(hk.Outputs) == 0 {
		for i := 0; i < 3; i++ {
			output := &DigitalOut{
				Name:       "Output " + numberNames[i],
				DriverName: pinDriver,
				OutPin:     boardOutputPins[i],
				AutoLight:  autoLight,
			}
			if withLeds {
				output.AttachLed(NewLed(mux, outputLedChannels[i]))
			}
			hk.Outputs = append(hk.Outputs, output)
		}
	}

	if len(hk.Relays) == 0 {
		// Relay three is present on every variant; one and two only on
		// the full size board.
		first := 3 - layout.relayCount
		for i := first; i < 3; i++ {
			relay := &Relay{
				Name:       "Relay " + numberNames[i],
				DriverName: pinDriver,
				OutPin:     relayPins[i],
				AutoLight:  autoLight,
			}
			if withLeds {
				relay.AttachLeds(NewLed(mux, relayNoChannels[i]), NewLed(mux, relayNcChannels[i]))
			}
			hk.Relays = append(hk.Relays, relay)
		}
	}

	if len(hk.Analogs) == 0 {
		for i := 0; i < 3; i++ {
			analog := &AnalogIn{
				Name:       "Analog " + numberNames[i],
				DriverName: adcDriver,
				Channel:    uint8(i),
				MaxRaw:     adcMaxRaw,
				AutoLight:  autoLight,
			}
			if withLeds {
				analog.AttachLed(NewLed(mux, analogLedChannels[i]))
			}
			hk.Analogs = append(hk.Analogs, analog)
		}
	}

	if len(hk.StatusLights) == 0 && withLeds {
		for _, light := range []struct {
			name    string
			channel int
		}{
			{"Power", ledChannelPower},
			{"Comms", ledChannelComms},
			{"Warn", ledChannelWarn},
		} {
			statusLight := &StatusLight{Name: light.name}
			statusLight.AttachLed(NewLed(mux, light.channel))
			hk.StatusLights = append(hk.StatusLights, statusLight)
		}
	}

	return nil
}
