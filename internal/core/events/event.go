package events

import (
	"sort"
	"strings"

	. "github.com/berfenger/smile2mqtt/internal/core/domain"
	"github.com/berfenger/smile2mqtt/pkg/smile_xml"
)

// SnapshotToUpdateEvents flattens a gateway snapshot into the sensor update
// events the MQTT side publishes. Device order is sorted so a refresh always
// emits in the same order.
func SnapshotToUpdateEvents(snap *smile_xml.Snapshot) []any {
	var events []any
	ids := make([]string, 0, len(snap.Devices))
	for id := range snap.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		events = append(events, DeviceUpdateEvents(snap.Devices[id])...)
	}
	return events
}

func DeviceUpdateEvents(rec *smile_xml.DeviceRecord) []any {
	var events []any
	deviceId := MQTTDeviceId(rec.ID)

	for _, name := range sortedFloatKeys(rec.Sensors) {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				DeviceId: deviceId,
				Id:       name,
			},
			Value:    rec.Sensors[name],
			Decimals: sensorDecimals(name, rec.Sensors[name]),
		})
	}
	for _, name := range sortedBoolKeys(rec.BinarySensors) {
		events = append(events, BinarySensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				DeviceId: deviceId,
				Id:       name,
			},
			Value: rec.BinarySensors[name],
		})
	}
	for _, name := range sortedBoolKeys(rec.Switches) {
		events = append(events, SwitchSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				DeviceId: deviceId,
				Id:       name,
			},
			Value: rec.Switches[name],
		})
	}

	if rec.Thermostat != nil {
		events = append(events, climateUpdateEvent(deviceId, rec))
	}
	if len(rec.AvailableSchedules) > 0 {
		events = append(events, SelectSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				DeviceId: deviceId,
				Id:       SELECT_ID_SCHEDULE,
			},
			Value: rec.SelectedSchedule,
		})
	}
	if len(rec.RegulationModes) > 0 {
		events = append(events, SelectSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				DeviceId: deviceId,
				Id:       SELECT_ID_REGULATION_MODE,
			},
			Value: rec.SelectedRegulationMode,
		})
	}
	if len(rec.GatewayModes) > 0 {
		events = append(events, SelectSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				DeviceId: deviceId,
				Id:       SELECT_ID_GATEWAY_MODE,
			},
			Value: rec.SelectedGatewayMode,
		})
	}

	return events
}

func climateUpdateEvent(deviceId string, rec *smile_xml.DeviceRecord) ClimateUpdateEvent {
	ev := ClimateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			DeviceId: deviceId,
			Id:       CLIMATE_ID,
		},
		Mode:     rec.ClimateMode,
		Action:   rec.ControlState,
		Preset:   rec.ActivePreset,
		Schedule: rec.SelectedSchedule,
	}
	if temp, ok := rec.Sensors["temperature"]; ok {
		ev.CurrentTemperature = optionalFloat(temp)
	}
	if rec.Thermostat.HeatCool {
		ev.SetpointHigh = optionalFloat(rec.Thermostat.SetpointHigh)
		ev.SetpointLow = optionalFloat(rec.Thermostat.SetpointLow)
	} else {
		ev.Setpoint = optionalFloat(rec.Thermostat.Setpoint)
	}
	return ev
}

func BridgeStateEvent(online bool) any {
	return BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BRIDGE_STATE,
		},
		Value: online,
	}
}

// sensorDecimals keeps publishes as compact as the normalized values: energy
// counters carry three decimals, everything else at most two.
func sensorDecimals(name string, value float64) uint {
	if strings.Contains(name, "cumulative") {
		return 3
	}
	if value == float64(int64(value)) {
		return 0
	}
	return 2
}

func sortedFloatKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedBoolKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func optionalFloat(v float64) *float64 {
	return &v
}
