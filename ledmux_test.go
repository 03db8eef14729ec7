package hatkit

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hubertat/hatkit/drivers"
)

func muxWithMock(t *testing.T) (*LedMux, *drivers.MockLedDriver) {
	t.Helper()

	driver := &drivers.MockLedDriver{}
	err := driver.Setup()
	if err != nil {
		t.Fatal(err)
	}

	return NewLedMux(driver), driver
}

func TestLedMuxSetChannel(t *testing.T) {
	mux, driver := muxWithMock(t)

	err := mux.SetChannel(5, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	values := driver.LastOutput()
	if values[5] != 128 {
		t.Errorf("channel 5 got byte %d want 128", values[5])
	}
	for channel, value := range values {
		if channel != 5 && value != 0 {
			t.Errorf("channel %d got byte %d want 0", channel, value)
		}
	}

	if driver.LastEnable() != 1<<5 {
		t.Errorf("got mask %018b want %018b", driver.LastEnable(), 1<<5)
	}
}

func TestLedMuxKeepsOtherChannels(t *testing.T) {
	mux, driver := muxWithMock(t)

	if err := mux.SetChannel(3, 1.0); err != nil {
		t.Fatal(err)
	}
	if err := mux.SetChannel(7, 0.25); err != nil {
		t.Fatal(err)
	}

	values := driver.LastOutput()
	if values[3] != 255 {
		t.Errorf("channel 3 got byte %d want 255", values[3])
	}
	if values[7] != 64 {
		t.Errorf("channel 7 got byte %d want 64", values[7])
	}

	want := uint32(1<<3 | 1<<7)
	if driver.LastEnable() != want {
		t.Errorf("got mask %018b want %018b", driver.LastEnable(), want)
	}
}

func TestLedMuxValidation(t *testing.T) {
	mux, driver := muxWithMock(t)

	if err := mux.SetChannel(2, 0.8); err != nil {
		t.Fatal(err)
	}
	flushes := len(driver.OutputCalls)

	t.Run("brightness", func(t *testing.T) {
		for _, brightness := range []float64{-0.1, 1.01, 255} {
			err := mux.SetChannel(2, brightness)
			if !errors.Is(err, ErrBrightness) {
				t.Errorf("brightness %v: got %v want ErrBrightness", brightness, err)
			}
		}
	})

	t.Run("channel", func(t *testing.T) {
		for _, channel := range []int{-1, drivers.LedChannelCount, 100} {
			err := mux.SetChannel(channel, 0.5)
			if !errors.Is(err, ErrChannel) {
				t.Errorf("channel %d: got %v want ErrChannel", channel, err)
			}
		}
	})

	if len(driver.OutputCalls) != flushes {
		t.Error("rejected arguments reached the driver")
	}

	values, mask := mux.Snapshot()
	if values[2] != 204 || mask != 1<<2 {
		t.Errorf("rejected arguments changed state: byte %d mask %018b", values[2], mask)
	}
}

func TestLedMuxZeroClearsEnableBit(t *testing.T) {
	mux, driver := muxWithMock(t)

	if err := mux.SetChannel(4, 1.0); err != nil {
		t.Fatal(err)
	}
	if err := mux.SetChannel(9, 0.5); err != nil {
		t.Fatal(err)
	}
	if err := mux.SetChannel(4, 0.0); err != nil {
		t.Fatal(err)
	}

	if driver.LastEnable() != 1<<9 {
		t.Errorf("got mask %018b want %018b", driver.LastEnable(), 1<<9)
	}
	if driver.LastOutput()[4] != 0 {
		t.Errorf("channel 4 got byte %d want 0", driver.LastOutput()[4])
	}
}

func TestLedMuxByteConversion(t *testing.T) {
	cases := []struct {
		brightness float64
		want       byte
	}{
		{0.0, 0},
		{1.0, 255},
		{0.5, 128},
		{0.25, 64},
		{0.001, 0},
		{0.002, 1},
		{0.998, 254},
		{0.999, 255},
	}

	for _, c := range cases {
		mux, driver := muxWithMock(t)

		err := mux.SetChannel(0, c.brightness)
		if err != nil {
			t.Fatal(err)
		}

		got := driver.LastOutput()[0]
		if got != c.want {
			t.Errorf("brightness %v: got byte %d want %d", c.brightness, got, c.want)
		}
	}
}

func TestLedMuxTransportFailure(t *testing.T) {
	mux, driver := muxWithMock(t)

	driver.FailOutput = fmt.Errorf("bus gone")
	err := mux.SetChannel(6, 1.0)
	if err == nil {
		t.Fatal("expected transport error")
	}

	// the update stays in memory, the next successful flush resends it
	driver.FailOutput = nil
	if err := mux.SetChannel(1, 0.5); err != nil {
		t.Fatal(err)
	}

	if driver.LastOutput()[6] != 255 {
		t.Errorf("channel 6 got byte %d want 255 after recovery", driver.LastOutput()[6])
	}
	want := uint32(1<<6 | 1<<1)
	if driver.LastEnable() != want {
		t.Errorf("got mask %018b want %018b", driver.LastEnable(), want)
	}
}

func TestLedMuxEnableBeforeOutput(t *testing.T) {
	mux, driver := muxWithMock(t)

	driver.FailEnable = fmt.Errorf("bus gone")
	err := mux.SetChannel(0, 1.0)
	if err == nil {
		t.Fatal("expected transport error")
	}

	if len(driver.OutputCalls) != 0 {
		t.Error("output transaction ran although enable failed")
	}
}

func TestLedMuxConcurrentSets(t *testing.T) {
	mux, _ := muxWithMock(t)

	var wg sync.WaitGroup
	for channel := 0; channel < drivers.LedChannelCount; channel++ {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()
			if err := mux.SetChannel(channel, 1.0); err != nil {
				t.Error(err)
			}
		}(channel)
	}
	wg.Wait()

	_, mask := mux.Snapshot()
	want := uint32(1<<drivers.LedChannelCount - 1)
	if mask != want {
		t.Errorf("got mask %018b want %018b", mask, want)
	}
}
