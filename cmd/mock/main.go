package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/hubertat/hatkit"
	"github.com/hubertat/hatkit/drivers"
)

var (
	Version string
	Build   string
)

func main() {
	var err error

	log.Println("hatkit started")
	log.Println("mock instance for testing purposes, should work on MacOs")

	syncDuration := 250 * time.Millisecond
	log.Println("syncDuration is ", syncDuration)
	telemetryDuration := 2 * time.Minute
	log.Println("telemetryDuration is ", telemetryDuration)

	hk := &hatkit.HatKit{}

	hk.HkPin = "88008800"
	hk.Board = "automationhat"

	hk.FakeDriver = &drivers.MockIoDriver{}
	hk.FakeLed = &drivers.MockLedDriver{}
	hk.FakeAdc = &drivers.MockAdcDriver{}

	hk.FakeAdc.Raw[0] = 824
	hk.FakeAdc.Raw[1] = 1649

	log.Println("will init hatkit drivers...")
	err = hk.InitDrivers(context.Background())
	defer hk.Close()
	if err != nil {
		panic(err)
	}
	log.Println("will init hatkit IOs...")
	err = hk.InitIos()
	if err != nil {
		panic(err)
	}

	hk.FakeDriver.MonitorStateChanges(os.Stdout)

	hk.PrintIoStatus(os.Stdout)

	log.Println("starting mock with HomeKit service")

	go hk.StartTicker(syncDuration, telemetryDuration)

	hk.HkDirectory = "./mock_homekit"
	log.Fatal(hk.StartHomeKit(context.Background(), "mock: "+Version))

}
