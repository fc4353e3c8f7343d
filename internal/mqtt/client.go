package mqtt

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"github.com/berfenger/smile2mqtt/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"

	COMMAND_SWITCH      = "switch"
	COMMAND_SELECT      = "select"
	COMMAND_MODE        = "mode"
	COMMAND_TEMPERATURE = "temperature"
	COMMAND_PRESET      = "preset"
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("smile2mqtt_%d", rand.Intn(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client:               mqtt.NewClient(opts),
		cfg:                  cfg.MQTT,
		switchCommandRegexp:  switchCommandExtractor(cfg.MQTT.BaseTopic),
		selectCommandRegexp:  selectCommandExtractor(cfg.MQTT.BaseTopic),
		climateCommandRegexp: climateCommandExtractor(cfg.MQTT.BaseTopic),
	}
}

type MQTTClient struct {
	client               mqtt.Client
	cfg                  config.MQTTConfig
	switchCommandRegexp  *regexp.Regexp
	selectCommandRegexp  *regexp.Regexp
	climateCommandRegexp *regexp.Regexp
}

// ParsedMQTTCommand is a command topic publish decomposed into the target
// device, the addressed entity and the raw payload.
type ParsedMQTTCommand struct {
	DeviceId string
	ObjectId string
	Command  string
	Payload  string
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) SensorStateTopic(deviceId, sensorId string) string {
	return fmt.Sprintf("%s/%s/sensor/%s/state", c.baseTopic(), deviceId, sensorId)
}

func (c *MQTTClient) BinarySensorStateTopic(deviceId, sensorId string) string {
	return fmt.Sprintf("%s/%s/binary_sensor/%s/state", c.baseTopic(), deviceId, sensorId)
}

func (c *MQTTClient) SwitchStateTopic(deviceId, switchId string) string {
	return fmt.Sprintf("%s/%s/switch/%s/state", c.baseTopic(), deviceId, switchId)
}

func (c *MQTTClient) SwitchCommandTopic(deviceId, switchId string) string {
	return fmt.Sprintf("%s/%s/switch/%s/command", c.baseTopic(), deviceId, switchId)
}

func (c *MQTTClient) SelectStateTopic(deviceId, selectId string) string {
	return fmt.Sprintf("%s/%s/select/%s/state", c.baseTopic(), deviceId, selectId)
}

func (c *MQTTClient) SelectCommandTopic(deviceId, selectId string) string {
	return fmt.Sprintf("%s/%s/select/%s/set", c.baseTopic(), deviceId, selectId)
}

func (c *MQTTClient) ClimateStateTopic(deviceId, attribute string) string {
	return fmt.Sprintf("%s/%s/climate/%s/state", c.baseTopic(), deviceId, attribute)
}

func (c *MQTTClient) ClimateCommandTopic(deviceId, attribute string) string {
	return fmt.Sprintf("%s/%s/climate/%s/set", c.baseTopic(), deviceId, attribute)
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	if cmd, err := c.parseSwitchMQTTCommand(msg); err == nil {
		return cmd, nil
	}
	if cmd, err := c.parseSelectMQTTCommand(msg); err == nil {
		return cmd, nil
	}
	return c.parseClimateMQTTCommand(msg)
}

func (c *MQTTClient) parseSwitchMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	matches := c.switchCommandRegexp.FindAllStringSubmatch(msg.Topic(), 1)
	if len(matches) == 0 || len(matches[0]) != 3 {
		return nil, errors.New("invalid switch command")
	}
	return &ParsedMQTTCommand{
		DeviceId: matches[0][1],
		ObjectId: matches[0][2],
		Command:  COMMAND_SWITCH,
		Payload:  string(msg.Payload()),
	}, nil
}

func (c *MQTTClient) parseSelectMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	matches := c.selectCommandRegexp.FindAllStringSubmatch(msg.Topic(), 1)
	if len(matches) == 0 || len(matches[0]) != 3 {
		return nil, errors.New("invalid select command")
	}
	return &ParsedMQTTCommand{
		DeviceId: matches[0][1],
		ObjectId: matches[0][2],
		Command:  COMMAND_SELECT,
		Payload:  string(msg.Payload()),
	}, nil
}

func (c *MQTTClient) parseClimateMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	matches := c.climateCommandRegexp.FindAllStringSubmatch(msg.Topic(), 1)
	if len(matches) == 0 || len(matches[0]) != 3 {
		return nil, errors.New("invalid climate command")
	}
	attribute := matches[0][2]
	switch attribute {
	case COMMAND_TEMPERATURE, "temperature_high", "temperature_low":
		// setpoint payloads must be numeric
		if _, err := strconv.ParseFloat(string(msg.Payload()), 64); err != nil {
			return nil, err
		}
	case COMMAND_MODE, COMMAND_PRESET:
	default:
		return nil, errors.New("invalid climate command")
	}
	return &ParsedMQTTCommand{
		DeviceId: matches[0][1],
		ObjectId: attribute,
		Command:  "climate",
		Payload:  string(msg.Payload()),
	}, nil
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(c.commandTopic(), 1, handler, continuation, timeout)
}

func (c *MQTTClient) Unsubscribe(topic string, continuation func(error), timeout time.Duration) {
	token := c.client.Unsubscribe(topic)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT unsubscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) commandTopic() string {
	return fmt.Sprintf("%s/#", c.baseTopic())
}

func switchCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("%s/([a-zA-Z0-9_]+)/switch/([a-zA-Z0-9_]+)/command", baseTopic))
}

func selectCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("%s/([a-zA-Z0-9_]+)/select/([a-zA-Z0-9_]+)/set", baseTopic))
}

func climateCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("%s/([a-zA-Z0-9_]+)/climate/([a-zA-Z0-9_]+)/set", baseTopic))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
