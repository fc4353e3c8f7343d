package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/berfenger/smile2mqtt/pkg/smile_xml"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE = "bridge"

	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"

	DEVICE_CLASS_BATTERY      = "battery"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	DEVICE_CLASS_ENERGY       = "energy"
	DEVICE_CLASS_GAS          = "gas"
	DEVICE_CLASS_HUMIDITY     = "humidity"
	DEVICE_CLASS_ILLUMINANCE  = "illuminance"
	DEVICE_CLASS_POWER        = "power"
	DEVICE_CLASS_PRESSURE     = "pressure"
	DEVICE_CLASS_TEMPERATURE  = "temperature"
	DEVICE_CLASS_VOLTAGE      = "voltage"

	ENTITY_CLASS_DIAGNOSTIC = "diagnostic"
	ENTITY_CLASS_CONFIG     = "config"

	SENSOR_TYPE_SENSOR = "sensor"
	SENSOR_TYPE_BINARY = "binary_sensor"

	SELECT_ID_SCHEDULE        = "select_schedule"
	SELECT_ID_REGULATION_MODE = "regulation_mode"
	SELECT_ID_GATEWAY_MODE    = "gateway_mode"
	CLIMATE_ID                = "climate"
)

type sensorMeta struct {
	unit        string
	stateClass  string
	deviceClass string
	icon        string
	diagnostic  bool
}

// sensorMetaTable maps normalized measurement names to Home Assistant
// presentation attributes. Names not listed fall back to suffix matching.
var sensorMetaTable = map[string]sensorMeta{
	"temperature":             {unit: "°C", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_TEMPERATURE},
	"setpoint":                {unit: "°C", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_TEMPERATURE},
	"outdoor_temperature":     {unit: "°C", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_TEMPERATURE},
	"water_temperature":       {unit: "°C", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_TEMPERATURE},
	"return_temperature":      {unit: "°C", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_TEMPERATURE},
	"dhw_temperature":         {unit: "°C", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_TEMPERATURE},
	"battery":                 {unit: "%", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_BATTERY, diagnostic: true},
	"illuminance":             {unit: "lx", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_ILLUMINANCE},
	"humidity":                {unit: "%", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_HUMIDITY},
	"modulation_level":        {unit: "%", stateClass: STATE_CLASS_MEASUREMENT, icon: "mdi:percent", diagnostic: true},
	"valve_position":          {unit: "%", stateClass: STATE_CLASS_MEASUREMENT, icon: "mdi:valve", diagnostic: true},
	"water_pressure":          {unit: "bar", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_PRESSURE, diagnostic: true},
	"electricity_consumed":    {unit: "W", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_POWER},
	"electricity_produced":    {unit: "W", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_POWER},
	"relative_humidity":       {unit: "%", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_HUMIDITY},
	"gas_consumed_cumulative": {unit: "m³", stateClass: STATE_CLASS_TOTAL_INCREASING, deviceClass: DEVICE_CLASS_GAS},
}

func metaForSensor(name string) sensorMeta {
	if m, ok := sensorMetaTable[name]; ok {
		return m
	}
	switch {
	case strings.Contains(name, "cumulative"):
		if strings.Contains(name, "gas") {
			return sensorMeta{unit: "m³", stateClass: STATE_CLASS_TOTAL_INCREASING, deviceClass: DEVICE_CLASS_GAS}
		}
		return sensorMeta{unit: "kWh", stateClass: STATE_CLASS_TOTAL_INCREASING, deviceClass: DEVICE_CLASS_ENERGY}
	case strings.Contains(name, "interval"):
		return sensorMeta{unit: "Wh", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_ENERGY}
	case strings.Contains(name, "voltage"):
		return sensorMeta{unit: "V", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_VOLTAGE, diagnostic: true}
	case strings.Contains(name, "electricity"):
		return sensorMeta{unit: "W", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_POWER}
	case strings.Contains(name, "temperature"):
		return sensorMeta{unit: "°C", stateClass: STATE_CLASS_MEASUREMENT, deviceClass: DEVICE_CLASS_TEMPERATURE}
	}
	return sensorMeta{stateClass: STATE_CLASS_MEASUREMENT}
}

// MQTTDeviceId is the stable topic-safe id a gateway device is published
// under. Gateway ids are hex already, hashing keeps them short and uniform.
func MQTTDeviceId(deviceId string) string {
	return fmt.Sprintf("smile_%s", md5HashShort(deviceId))
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("smile2mqtt_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Smile2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Smile2MQTT %s", md5HashShort(baseTopic)),
	}
}

func GatewayDevice(gw *smile_xml.GatewayContext) Device {
	name := gw.SmileName
	if name == "" {
		name = gw.SmileModel
	}
	return Device{
		Id:           MQTTDeviceId(gw.GatewayID),
		Version:      gw.FirmwareVersion.String(),
		Manufacturer: gw.VendorName,
		Model:        gw.SmileModel,
		Name:         name,
	}
}

func RecordDevice(rec *smile_xml.DeviceRecord, via Device) Device {
	name := rec.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", rec.Class, md5HashShort(rec.ID))
	}
	return Device{
		Id:           MQTTDeviceId(rec.ID),
		Version:      rec.Firmware,
		Manufacturer: rec.Vendor,
		Model:        rec.Model,
		Name:         name,
		ViaDevice:    via.Id,
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// DeviceSensors builds the discoverable sensor set of one device. Output
// order is deterministic so repeated discovery publishes are stable.
func DeviceSensors(device Device, rec *smile_xml.DeviceRecord) []GenericSensor {
	var sensors []GenericSensor

	for _, name := range sortedKeysFloat(rec.Sensors) {
		meta := metaForSensor(name)
		s := GenericSensor{
			Device:            device,
			Id:                name,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              displayName(name),
			StateClass:        meta.stateClass,
			DeviceClass:       meta.deviceClass,
			UnitOfMeasurement: meta.unit,
			Icon:              meta.icon,
			UniqueId:          uniqueId(device.Id, name),
		}
		if meta.diagnostic {
			s.EntityCategory = ENTITY_CLASS_DIAGNOSTIC
		}
		sensors = append(sensors, s)
	}

	for _, name := range sortedKeysBool(rec.BinarySensors) {
		sensors = append(sensors, GenericSensor{
			Device:         device,
			Id:             name,
			SensorType:     SENSOR_TYPE_BINARY,
			Name:           displayName(name),
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:       uniqueId(device.Id, name),
		})
	}

	return sensors
}

func DeviceSwitches(device Device, rec *smile_xml.DeviceRecord) []GenericSwitch {
	var switches []GenericSwitch

	for _, name := range sortedKeysBool(rec.Switches) {
		icon := "mdi:power-socket-eu"
		if name == "lock" {
			icon = "mdi:lock"
		}
		switches = append(switches, GenericSwitch{
			Device:   device,
			Id:       name,
			Name:     displayName(name),
			UniqueId: uniqueId(device.Id, name),
			Icon:     icon,
		})
	}

	return switches
}

func DeviceClimate(device Device, rec *smile_xml.DeviceRecord, modes []string) *GenericClimate {
	if rec.Thermostat == nil {
		return nil
	}
	return &GenericClimate{
		Device:       device,
		Id:           CLIMATE_ID,
		Name:         device.Name,
		UniqueId:     uniqueId(device.Id, CLIMATE_ID),
		Modes:        modes,
		PresetModes:  rec.PresetModes,
		MinTemp:      rec.Thermostat.LowerBound,
		MaxTemp:      rec.Thermostat.UpperBound,
		TempStep:     rec.Thermostat.Resolution,
		HeatCoolMode: rec.Thermostat.HeatCool,
	}
}

func DeviceSelects(device Device, rec *smile_xml.DeviceRecord) []GenericSelect {
	var selects []GenericSelect

	if len(rec.AvailableSchedules) > 0 {
		options := append([]string{}, rec.AvailableSchedules...)
		options = append(options, smile_xml.ScheduleOff)
		selects = append(selects, GenericSelect{
			Device:   device,
			Id:       SELECT_ID_SCHEDULE,
			Name:     "Schedule",
			UniqueId: uniqueId(device.Id, SELECT_ID_SCHEDULE),
			Icon:     "mdi:calendar-clock",
			Options:  options,
		})
	}
	if len(rec.RegulationModes) > 0 {
		selects = append(selects, GenericSelect{
			Device:   device,
			Id:       SELECT_ID_REGULATION_MODE,
			Name:     "Regulation mode",
			UniqueId: uniqueId(device.Id, SELECT_ID_REGULATION_MODE),
			Icon:     "mdi:hvac",
			Options:  append([]string{}, rec.RegulationModes...),
		})
	}
	if len(rec.GatewayModes) > 0 {
		selects = append(selects, GenericSelect{
			Device:   device,
			Id:       SELECT_ID_GATEWAY_MODE,
			Name:     "Gateway mode",
			UniqueId: uniqueId(device.Id, SELECT_ID_GATEWAY_MODE),
			Icon:     "mdi:cog-outline",
			Options:  append([]string{}, rec.GatewayModes...),
		})
	}

	return selects
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func displayName(id string) string {
	return strings.ToUpper(id[:1]) + strings.ReplaceAll(id[1:], "_", " ")
}

func sortedKeysFloat(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysBool(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
