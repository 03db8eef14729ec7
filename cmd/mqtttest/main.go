package main

import (
	"flag"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/paho"
	"github.com/hubertat/hatkit/mqtt"
)

const clientID = "mq-hatkit-probe"

var (
	broker  = flag.String("broker", "mqtt://127.0.0.1:1883", "mqtt broker url")
	kit     = flag.String("kit", "+", "kit name segment to watch")
	target  = flag.String("target", "", "io slug to send -command to, e.g. relay_three")
	command = flag.String("command", "", "payload to publish to -target before watching")
)

type stateWatcher struct {
	topic string
}

func (sw *stateWatcher) MqttSubscribeTopic() string {
	return sw.topic
}

func (sw *stateWatcher) MqttHandle(pub *paho.Publish) {
	log.Info("state update", "topic", pub.Topic, "payload", string(pub.Payload))
}

func main() {
	flag.Parse()

	log.SetLevel(log.DebugLevel)

	mc, err := mqtt.NewMqttClient(*broker, clientID)
	if err != nil {
		log.Error("failed to create mqtt client", "error", err)
		return
	}

	watcher := &stateWatcher{topic: "hatkit/" + *kit + "/+/state"}

	err = mc.Connect([]mqtt.MqttHandler{watcher})
	if err != nil {
		log.Error("failed to connect to mqtt broker", "error", err)
		return
	}
	log.Info("mqtt client connected", "watching", watcher.topic)

	if len(*command) > 0 && len(*target) > 0 {
		commandTopic := "hatkit/" + *kit + "/" + *target + "/set"
		err = mc.Publish(commandTopic, []byte(*command))
		if err != nil {
			log.Error("failed to publish command", "error", err)
		} else {
			log.Info("command sent", "topic", commandTopic, "payload", *command)
		}
	}

	log.Info("sleeping for 10 hours")
	time.Sleep(10 * time.Hour)
}
