package hatkit

import (
	"testing"
)

func TestStatusLightInitRequiresLed(t *testing.T) {
	sl := &StatusLight{Name: "Power"}
	if err := sl.Init(); err == nil {
		t.Error("expected error without an attached led")
	}
}

func TestStatusLightDrive(t *testing.T) {
	mux, ledDriver := muxWithMock(t)

	sl := &StatusLight{Name: "Power", DisableHomekit: true}
	sl.AttachLed(NewLed(mux, ledChannelPower))
	if err := sl.Init(); err != nil {
		t.Fatal(err)
	}

	if err := sl.On(); err != nil {
		t.Fatal(err)
	}
	if ledDriver.LastOutput()[ledChannelPower] != 255 {
		t.Error("On did not light the led")
	}
	if sl.Brightness != 1.0 {
		t.Errorf("got brightness %v want 1.0", sl.Brightness)
	}

	if err := sl.SetBrightness(0.5); err != nil {
		t.Fatal(err)
	}
	if ledDriver.LastOutput()[ledChannelPower] != 128 {
		t.Errorf("got byte %d want 128", ledDriver.LastOutput()[ledChannelPower])
	}

	if err := sl.Off(); err != nil {
		t.Fatal(err)
	}
	if ledDriver.LastOutput()[ledChannelPower] != 0 {
		t.Error("Off did not dark the led")
	}

	if err := sl.Toggle(); err != nil {
		t.Fatal(err)
	}
	if sl.Brightness != 1.0 {
		t.Error("toggle from dark did not land on full")
	}

	if err := sl.Sync(); err != nil {
		t.Errorf("sync returned %v, leds are write only", err)
	}
}

func TestStatusLightHomeKit(t *testing.T) {
	mux, _ := muxWithMock(t)

	sl := &StatusLight{Name: "Warn"}
	sl.AttachLed(NewLed(mux, ledChannelWarn))
	if err := sl.Init(); err != nil {
		t.Fatal(err)
	}

	if sl.GetHk() == nil {
		t.Fatal("expected HomeKit accessory")
	}
	if sl.GetUniqueId() == 0 {
		t.Error("expected nonzero accessory id")
	}

	if err := sl.SetBrightness(0.4); err != nil {
		t.Fatal(err)
	}
	if !sl.hk.Lightbulb.On.Value() {
		t.Error("HomeKit On characteristic not in step")
	}
	if sl.hkBrightness.Value() != 40 {
		t.Errorf("got HomeKit brightness %d want 40", sl.hkBrightness.Value())
	}
}
