package hatkit

import (
	"testing"

	"github.com/hubertat/hatkit/drivers"
)

func TestBuildAutomationHat(t *testing.T) {
	mux, _ := muxWithMock(t)
	hk := &HatKit{
		Board:      "automationhat",
		FakeDriver: &drivers.MockIoDriver{},
		FakeAdc:    &drivers.MockAdcDriver{},
	}

	if err := hk.Build(mux); err != nil {
		t.Fatal(err)
	}

	if len(hk.Inputs) != 3 || len(hk.Outputs) != 3 || len(hk.Relays) != 3 ||
		len(hk.Analogs) != 3 || len(hk.StatusLights) != 3 {
		t.Fatalf("got %d/%d/%d/%d/%d peripherals want 3 of each",
			len(hk.Inputs), len(hk.Outputs), len(hk.Relays), len(hk.Analogs), len(hk.StatusLights))
	}

	wantInputPins := []uint16{26, 20, 21}
	wantInputLeds := []int{14, 13, 12}
	for i, in := range hk.Inputs {
		if in.InPin != wantInputPins[i] {
			t.Errorf("input %d got pin %d want %d", i, in.InPin, wantInputPins[i])
		}
		if in.led == nil || in.led.Channel() != wantInputLeds[i] {
			t.Errorf("input %d indicator not on channel %d", i, wantInputLeds[i])
		}
		if !in.AutoLight {
			t.Errorf("input %d AutoLight off", i)
		}
		if in.DriverName != "mock_driver" {
			t.Errorf("input %d got driver %s want mock_driver", i, in.DriverName)
		}
	}
	if hk.Inputs[0].Name != "Input One" || hk.Inputs[2].Name != "Input Three" {
		t.Errorf("unexpected input names %s, %s", hk.Inputs[0].Name, hk.Inputs[2].Name)
	}

	wantOutputPins := []uint16{5, 12, 6}
	wantOutputLeds := []int{3, 4, 5}
	for i, out := range hk.Outputs {
		if out.OutPin != wantOutputPins[i] {
			t.Errorf("output %d got pin %d want %d", i, out.OutPin, wantOutputPins[i])
		}
		if out.led == nil || out.led.Channel() != wantOutputLeds[i] {
			t.Errorf("output %d indicator not on channel %d", i, wantOutputLeds[i])
		}
	}

	wantRelayPins := []uint16{13, 19, 16}
	wantNoLeds := []int{6, 8, 10}
	wantNcLeds := []int{7, 9, 11}
	for i, relay := range hk.Relays {
		if relay.OutPin != wantRelayPins[i] {
			t.Errorf("relay %d got pin %d want %d", i, relay.OutPin, wantRelayPins[i])
		}
		if relay.noLed == nil || relay.noLed.Channel() != wantNoLeds[i] {
			t.Errorf("relay %d NO indicator not on channel %d", i, wantNoLeds[i])
		}
		if relay.ncLed == nil || relay.ncLed.Channel() != wantNcLeds[i] {
			t.Errorf("relay %d NC indicator not on channel %d", i, wantNcLeds[i])
		}
	}

	wantAnalogLeds := []int{0, 1, 2}
	for i, analog := range hk.Analogs {
		if analog.Channel != uint8(i) {
			t.Errorf("analog %d got channel %d", i, analog.Channel)
		}
		if analog.MaxRaw != adcMaxRaw {
			t.Errorf("analog %d got ceiling %v want %v", i, analog.MaxRaw, adcMaxRaw)
		}
		if analog.led == nil || analog.led.Channel() != wantAnalogLeds[i] {
			t.Errorf("analog %d indicator not on channel %d", i, wantAnalogLeds[i])
		}
		if analog.DriverName != "mock_adc" {
			t.Errorf("analog %d got driver %s want mock_adc", i, analog.DriverName)
		}
	}

	wantLights := []struct {
		name    string
		channel int
	}{
		{"Power", 17},
		{"Comms", 16},
		{"Warn", 15},
	}
	for i, light := range hk.StatusLights {
		if light.Name != wantLights[i].name {
			t.Errorf("status light %d got name %s want %s", i, light.Name, wantLights[i].name)
		}
		if light.led == nil || light.led.Channel() != wantLights[i].channel {
			t.Errorf("status light %d not on channel %d", i, wantLights[i].channel)
		}
	}
}

func TestBuildSmallVariants(t *testing.T) {
	t.Run("automationphat", func(t *testing.T) {
		hk := &HatKit{Board: "automationphat", FakeDriver: &drivers.MockIoDriver{}}
		if err := hk.Build(nil); err != nil {
			t.Fatal(err)
		}

		if len(hk.Relays) != 1 {
			t.Fatalf("got %d relays want 1", len(hk.Relays))
		}
		if hk.Relays[0].Name != "Relay Three" || hk.Relays[0].OutPin != 16 {
			t.Errorf("got relay %s on pin %d want Relay Three on 16", hk.Relays[0].Name, hk.Relays[0].OutPin)
		}
		if len(hk.StatusLights) != 0 {
			t.Error("got status lights on a board without leds")
		}
		if hk.Inputs[0].led != nil {
			t.Error("got an input indicator on a board without leds")
		}
		if !hk.Inputs[0].AutoLight {
			t.Error("AutoLight default flipped off")
		}
	})

	t.Run("automationhatmini", func(t *testing.T) {
		hk := &HatKit{Board: "automationhatmini", FakeDriver: &drivers.MockIoDriver{}}
		if err := hk.Build(nil); err != nil {
			t.Fatal(err)
		}

		if len(hk.Relays) != 1 {
			t.Fatalf("got %d relays want 1", len(hk.Relays))
		}
		if hk.Inputs[0].AutoLight {
			t.Error("AutoLight default on, mini has none")
		}
	})
}

func TestBuildWiringRevision(t *testing.T) {
	t.Run("bcm-b", func(t *testing.T) {
		hk := &HatKit{Board: "automationhat", Revision: "bcm-b", FakeDriver: &drivers.MockIoDriver{}}
		if err := hk.Build(nil); err != nil {
			t.Fatal(err)
		}

		want := []uint16{16, 19, 13}
		for i, relay := range hk.Relays {
			if relay.OutPin != want[i] {
				t.Errorf("relay %d got pin %d want %d", i, relay.OutPin, want[i])
			}
		}
	})

	t.Run("unknown", func(t *testing.T) {
		hk := &HatKit{Board: "automationhat", Revision: "bcm-c"}
		if err := hk.Build(nil); err == nil {
			t.Error("expected unknown revision error")
		}
	})
}

func TestBuildUnknownBoard(t *testing.T) {
	hk := &HatKit{Board: "automationhat2"}
	if err := hk.Build(nil); err == nil {
		t.Error("expected unknown board error")
	}
}

func TestBuildKeepsConfigured(t *testing.T) {
	hk := &HatKit{
		Board:      "automationhat",
		FakeDriver: &drivers.MockIoDriver{},
		Inputs:     []*DigitalIn{{Name: "Custom", DriverName: "mock_driver", InPin: 4}},
	}

	if err := hk.Build(nil); err != nil {
		t.Fatal(err)
	}

	if len(hk.Inputs) != 1 || hk.Inputs[0].Name != "Custom" {
		t.Error("configured inputs replaced by generated set")
	}
	if len(hk.Outputs) != 3 {
		t.Error("outputs not generated alongside configured inputs")
	}
}

func TestBuildAutoLightOverride(t *testing.T) {
	off := false
	hk := &HatKit{Board: "automationhat", AutoLight: &off, FakeDriver: &drivers.MockIoDriver{}}

	if err := hk.Build(nil); err != nil {
		t.Fatal(err)
	}

	if hk.Inputs[0].AutoLight || hk.Relays[0].AutoLight {
		t.Error("AutoLight override ignored")
	}
}
