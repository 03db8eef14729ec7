package hatkit

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/paho"
	"github.com/pkg/errors"

	"github.com/hubertat/hatkit/mqtt"
)

// Switchable is every peripheral that can be driven on and off over a
// command topic.
type Switchable interface {
	On() error
	Off() error
	Toggle() error
}

// Dimmable accepts fractional levels on top of on/off.
type Dimmable interface {
	SetBrightness(brightness float64) error
}

// runSwitchCommand applies one lowercase command to a target: on/off
// (plus 1/0, true/false), toggle, or a float level for dimmable targets.
func runSwitchCommand(target Switchable, command string) error {
	switch command {
	case "on", "1", "true":
		return target.On()
	case "off", "0", "false":
		return target.Off()
	case "toggle":
		return target.Toggle()
	}

	dimmable, ok := target.(Dimmable)
	if !ok {
		return errors.Errorf("unknown command: %s", command)
	}

	value, err := strconv.ParseFloat(command, 64)
	if err != nil {
		return errors.Errorf("unknown command: %s", command)
	}

	return dimmable.SetBrightness(value)
}

// switchCommand routes one command topic onto one peripheral.
type switchCommand struct {
	topic  string
	name   string
	target Switchable
}

func (sc *switchCommand) MqttSubscribeTopic() string {
	return sc.topic
}

func (sc *switchCommand) MqttHandle(pub *paho.Publish) {
	command := strings.ToLower(strings.TrimSpace(string(pub.Payload)))

	err := runSwitchCommand(sc.target, command)
	if err != nil {
		log.Error("mqtt command failed", "target", sc.name, "error", err)
	}
}

func topicSlug(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

func (hk *HatKit) baseTopic() string {
	return "hatkit/" + topicSlug(hk.clientName())
}

func (hk *HatKit) commandTopic(name string) string {
	return hk.baseTopic() + "/" + topicSlug(name) + "/set"
}

func (hk *HatKit) stateTopic(name string) string {
	return hk.baseTopic() + "/" + topicSlug(name) + "/state"
}

func (hk *HatKit) mqttHandlers() (handlers []mqtt.MqttHandler) {
	for _, out := range hk.Outputs {
		handlers = append(handlers, &switchCommand{
			topic:  hk.commandTopic(out.Name),
			name:   out.Name,
			target: out,
		})
	}
	for _, relay := range hk.Relays {
		handlers = append(handlers, &switchCommand{
			topic:  hk.commandTopic(relay.Name),
			name:   relay.Name,
			target: relay,
		})
	}
	for _, light := range hk.StatusLights {
		handlers = append(handlers, &switchCommand{
			topic:  hk.commandTopic(light.Name),
			name:   light.Name,
			target: light,
		})
	}

	return
}

func (hk *HatKit) publishStates() {
	publish := func(name string, payload string) {
		err := hk.mqttClient.Publish(hk.stateTopic(name), []byte(payload))
		if err != nil {
			log.Warn("mqtt state publish failed", "target", name, "error", err)
		}
	}

	for _, in := range hk.Inputs {
		publish(in.Name, strconv.FormatBool(in.State))
	}
	for _, out := range hk.Outputs {
		publish(out.Name, strconv.FormatBool(out.State))
	}
	for _, relay := range hk.Relays {
		publish(relay.Name, strconv.FormatBool(relay.State))
	}
	for _, analog := range hk.Analogs {
		publish(analog.Name, strconv.FormatFloat(analog.Value, 'f', 4, 64))
	}
	for _, light := range hk.StatusLights {
		publish(light.Name, strconv.FormatFloat(light.Brightness, 'f', 2, 64))
	}
}
