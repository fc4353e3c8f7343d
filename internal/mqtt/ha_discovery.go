package mqtt

import (
	"fmt"

	"github.com/berfenger/smile2mqtt/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice `json:"device"`
	StateTopic        string            `json:"state_topic,omitempty"`
	CommandTopic      string            `json:"command_topic,omitempty"`
	StateClass        string            `json:"state_class,omitempty"`
	DeviceClass       string            `json:"device_class,omitempty"`
	UnitOfMeasurement string            `json:"unit_of_measurement,omitempty"`
	AvTopic           string            `json:"availability_topic,omitempty"`
	EntityCategory    string            `json:"entity_category,omitempty"`
	Name              string            `json:"name"`
	UniqueId          string            `json:"unique_id"`
	Platform          string            `json:"platform"`
	EnabledByDefault  *bool             `json:"enabled_by_default,omitempty"`
	PayloadOn         string            `json:"payload_on,omitempty"`
	PayloadOff        string            `json:"payload_off,omitempty"`
	Icon              string            `json:"icon,omitempty"`
	Options           []string          `json:"options,omitempty"`

	// climate platform attributes
	Modes                   []string `json:"modes,omitempty"`
	PresetModes             []string `json:"preset_modes,omitempty"`
	MinTemp                 float64  `json:"min_temp,omitempty"`
	MaxTemp                 float64  `json:"max_temp,omitempty"`
	TempStep                float64  `json:"temp_step,omitempty"`
	ModeStateTopic          string   `json:"mode_state_topic,omitempty"`
	ModeCommandTopic        string   `json:"mode_command_topic,omitempty"`
	ActionTopic             string   `json:"action_topic,omitempty"`
	CurrentTemperatureTopic string   `json:"current_temperature_topic,omitempty"`
	TemperatureStateTopic   string   `json:"temperature_state_topic,omitempty"`
	TemperatureCommandTopic string   `json:"temperature_command_topic,omitempty"`
	TempHighStateTopic      string   `json:"temperature_high_state_topic,omitempty"`
	TempHighCommandTopic    string   `json:"temperature_high_command_topic,omitempty"`
	TempLowStateTopic       string   `json:"temperature_low_state_topic,omitempty"`
	TempLowCommandTopic     string   `json:"temperature_low_command_topic,omitempty"`
	PresetModeStateTopic    string   `json:"preset_mode_state_topic,omitempty"`
	PresetModeCommandTopic  string   `json:"preset_mode_command_topic,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

func HADiscoverySensorTopic(sensor domain.GenericSensor) string {
	return fmt.Sprintf("homeassistant/%s/%s/%s/config", sensor.SensorType, sensor.Device.Id, sensor.Id)
}

func HADiscoverySwitchTopic(sensor domain.GenericSwitch) string {
	return fmt.Sprintf("homeassistant/switch/%s/%s/config", sensor.Device.Id, sensor.Id)
}

func HADiscoverySelectTopic(sel domain.GenericSelect) string {
	return fmt.Sprintf("homeassistant/select/%s/%s/config", sel.Device.Id, sel.Id)
}

func HADiscoveryClimateTopic(climate domain.GenericClimate) string {
	return fmt.Sprintf("homeassistant/climate/%s/%s/config", climate.Device.Id, climate.Id)
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	dev := device(sensor.Device)
	var topic string
	switch {
	case sensor.Id == domain.SENSOR_ID_BRIDGE_STATE:
		topic = client.BridgeStateTopic()
	case sensor.SensorType == domain.SENSOR_TYPE_SENSOR:
		topic = client.SensorStateTopic(sensor.Device.Id, sensor.Id)
	case sensor.SensorType == domain.SENSOR_TYPE_BINARY:
		topic = client.BinarySensorStateTopic(sensor.Device.Id, sensor.Id)
	}
	disConfig := HADiscoveryConfig{
		Device:            dev,
		StateTopic:        topic,
		StateClass:        sensor.StateClass,
		DeviceClass:       sensor.DeviceClass,
		UnitOfMeasurement: sensor.UnitOfMeasurement,
		AvTopic:           client.BridgeStateTopic(),
		EntityCategory:    sensor.EntityCategory,
		Name:              sensor.Name,
		UniqueId:          sensor.UniqueId,
		Icon:              sensor.Icon,
		EnabledByDefault:  sensor.EnabledByDefault,
		Platform:          "mqtt",
	}
	if sensor.Id == domain.SENSOR_ID_BRIDGE_STATE {
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
	} else if sensor.SensorType == domain.SENSOR_TYPE_BINARY {
		disConfig.PayloadOn = MQTT_PAYLOAD_ON
		disConfig.PayloadOff = MQTT_PAYLOAD_OFF
	}
	return disConfig
}

func GenericSwitchToHADiscoveryMessage(client *MQTTClient, _switch domain.GenericSwitch) HADiscoveryConfig {
	dev := device(_switch.Device)
	topic := client.SwitchStateTopic(_switch.Device.Id, _switch.Id)
	cmdTopic := client.SwitchCommandTopic(_switch.Device.Id, _switch.Id)
	disConfig := HADiscoveryConfig{
		Device:       dev,
		StateTopic:   topic,
		CommandTopic: cmdTopic,
		AvTopic:      client.BridgeStateTopic(),
		Name:         _switch.Name,
		UniqueId:     _switch.UniqueId,
		Icon:         _switch.Icon,
		Platform:     "mqtt",
		PayloadOn:    MQTT_PAYLOAD_ON,
		PayloadOff:   MQTT_PAYLOAD_OFF,
	}
	return disConfig
}

func GenericSelectToHADiscoveryMessage(client *MQTTClient, sel domain.GenericSelect) HADiscoveryConfig {
	dev := device(sel.Device)
	disConfig := HADiscoveryConfig{
		Device:       dev,
		StateTopic:   client.SelectStateTopic(sel.Device.Id, sel.Id),
		CommandTopic: client.SelectCommandTopic(sel.Device.Id, sel.Id),
		AvTopic:      client.BridgeStateTopic(),
		Name:         sel.Name,
		UniqueId:     sel.UniqueId,
		Icon:         sel.Icon,
		Options:      sel.Options,
		Platform:     "mqtt",
	}
	return disConfig
}

func GenericClimateToHADiscoveryMessage(client *MQTTClient, climate domain.GenericClimate) HADiscoveryConfig {
	dev := device(climate.Device)
	id := climate.Device.Id
	disConfig := HADiscoveryConfig{
		Device:                  dev,
		AvTopic:                 client.BridgeStateTopic(),
		Name:                    climate.Name,
		UniqueId:                climate.UniqueId,
		Platform:                "mqtt",
		Modes:                   climate.Modes,
		PresetModes:             climate.PresetModes,
		MinTemp:                 climate.MinTemp,
		MaxTemp:                 climate.MaxTemp,
		TempStep:                climate.TempStep,
		ModeStateTopic:          client.ClimateStateTopic(id, "mode"),
		ModeCommandTopic:        client.ClimateCommandTopic(id, "mode"),
		ActionTopic:             client.ClimateStateTopic(id, "action"),
		CurrentTemperatureTopic: client.ClimateStateTopic(id, "current_temperature"),
		PresetModeStateTopic:    client.ClimateStateTopic(id, "preset"),
		PresetModeCommandTopic:  client.ClimateCommandTopic(id, "preset"),
	}
	if climate.HeatCoolMode {
		disConfig.TempHighStateTopic = client.ClimateStateTopic(id, "temperature_high")
		disConfig.TempHighCommandTopic = client.ClimateCommandTopic(id, "temperature_high")
		disConfig.TempLowStateTopic = client.ClimateStateTopic(id, "temperature_low")
		disConfig.TempLowCommandTopic = client.ClimateCommandTopic(id, "temperature_low")
	} else {
		disConfig.TemperatureStateTopic = client.ClimateStateTopic(id, "temperature")
		disConfig.TemperatureCommandTopic = client.ClimateCommandTopic(id, "temperature")
	}
	return disConfig
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}
