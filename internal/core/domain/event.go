package domain

import "fmt"

type SensorUpdateEventMixIn struct {
	DeviceId string
	Id       string
}

type SensorUpdateEvent interface {
	SensorUpdateEvent() string
	SensorDeviceId() string
	SensorId() string
}

func (e SensorUpdateEventMixIn) SensorUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e SensorUpdateEventMixIn) SensorDeviceId() string {
	return e.DeviceId
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

type FloatSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}

type BinarySensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

type SwitchSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

type TextSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value string
}

type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

type SelectSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value string
}

// ClimateUpdateEvent carries the full thermostat state of a zone so the
// MQTT side can update every climate attribute topic in one go.
type ClimateUpdateEvent struct {
	SensorUpdateEventMixIn
	Mode               string
	Action             string
	CurrentTemperature *float64
	Setpoint           *float64
	SetpointHigh       *float64
	SetpointLow        *float64
	Preset             string
	Schedule           string
}
