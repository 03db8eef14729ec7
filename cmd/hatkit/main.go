package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/hubertat/servicemaker"

	"github.com/hubertat/hatkit"
)

const defaultSyncInterval = "330ms"
const defaultTelemetryInterval = "30s"

var (
	Version string
	Build   string

	config            = flag.String("config", "config.json", "path of the configuration file")
	flagInstall       = flag.Bool("install", false, "Install service in os")
	syncInterval      = flag.String("sync", defaultSyncInterval, "sync interval (time.Duration)")
	telemetryInterval = flag.String("telemetry-sync", defaultTelemetryInterval, "telemetry publish interval (time.Duration)")

	hatService = servicemaker.ServiceMaker{
		User:               "hatkit",
		UserGroups:         []string{"gpio", "i2c"},
		ServicePath:        "/etc/systemd/system/hatkit.service",
		ServiceDescription: "HatKit service: HomeKit enabled automation hat controller. github.com/hubertat/hatkit",
		ExecDir:            "/srv/hatkit",
		ExecName:           "hatkit",
	}
)

func main() {
	log.Printf("hatkit %s started\n", Version)
	flag.Parse()

	if *flagInstall {
		err := hatService.InstallService()
		if err != nil {
			panic(err)
		} else {
			log.Println("service installed!")
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncDuration, err := time.ParseDuration(*syncInterval)
	if err != nil {
		panic(err)
	}

	telemetryDuration, err := time.ParseDuration(*telemetryInterval)
	if err != nil {
		panic(err)
	}

	hk := &hatkit.HatKit{}
	configFile, err := os.Open(*config)
	if err == nil {
		cBuff, err := io.ReadAll(configFile)
		if err != nil {
			log.Fatalf("failed reading config file: %v\n", err)
		}

		err = json.Unmarshal(cBuff, hk)
		if err != nil {
			log.Fatalf("failed unmarshalling json config: %v", err)
		}
	} else {
		log.Fatalf("can't find/open config file (%s), will terminate. Reason: \n%v\n", *config, err)
	}
	log.Println("will init hatkit drivers...")
	err = hk.InitDrivers(ctx)
	defer hk.Close()
	if err != nil {
		panic(err)
	}
	log.Println("will init hatkit IOs...")
	err = hk.InitIos()
	if err != nil {
		panic(err)
	}

	if len(hk.MqttBroker) > 0 {
		log.Println("will connect to mqtt broker...")
		err = hk.InitMqtt()
		if err != nil {
			log.Printf("mqtt init returned error: %v\n we will proceed...", err)
		} else {
			log.Println("mqtt OK!")
		}
	}

	if len(hk.HttpAddr) > 0 {
		log.Println("starting http status server...")
		err = hk.StartHttp()
		if err != nil {
			log.Printf("http server returned error: %v\n we will proceed...", err)
		}
	}

	hk.PrintIoStatus(os.Stdout)

	if len(hk.HkPin) == 8 {
		log.Println("Starting with HomeKit server")

		go hk.StartTicker(syncDuration, telemetryDuration)
		log.Fatal(hk.StartHomeKit(context.Background(), Version))
	} else {
		log.Println("HomeKit not configured, disabled")
		hk.StartTicker(syncDuration, telemetryDuration)
	}

}
