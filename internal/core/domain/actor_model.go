package domain

import "github.com/berfenger/smile2mqtt/pkg/smile_xml"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_GATEWAY      = "gateway"
	ACTOR_ID_MONITOR      = "monitor"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type GetDevicesRequest struct {
	ActorRequestMixIn
}

type GetDevicesResponse struct {
	ActorResponseMixIn
	Snapshot *smile_xml.Snapshot
}

type RefreshRequest struct {
	ActorRequestMixIn
}

type RefreshResponse struct {
	ActorResponseMixIn
	Snapshot *smile_xml.Snapshot
}

type SetTemperatureRequest struct {
	ActorRequestMixIn
	DeviceId  string
	Setpoints map[string]float64
}

type SetTemperatureResponse struct {
	ActorResponseMixIn
}

type SetScheduleStateRequest struct {
	ActorRequestMixIn
	DeviceId string
	Schedule string
	Active   bool
}

type SetScheduleStateResponse struct {
	ActorResponseMixIn
}

type SetRelayStateRequest struct {
	ActorRequestMixIn
	DeviceId string
	On       bool
}

type SetRelayStateResponse struct {
	ActorResponseMixIn
}

type SetPresetRequest struct {
	ActorRequestMixIn
	DeviceId string
	Preset   string
}

type SetPresetResponse struct {
	ActorResponseMixIn
}

type SetRegulationModeRequest struct {
	ActorRequestMixIn
	Mode string
}

type SetRegulationModeResponse struct {
	ActorResponseMixIn
}

type SetGatewayModeRequest struct {
	ActorRequestMixIn
	Mode string
}

type SetGatewayModeResponse struct {
	ActorResponseMixIn
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors  []GenericSensor
	Switches []GenericSwitch
	Climates []GenericClimate
	Selects  []GenericSelect
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
