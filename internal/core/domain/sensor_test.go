package domain

import (
	"testing"

	"github.com/berfenger/smile2mqtt/pkg/smile_xml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMQTTDeviceId(t *testing.T) {

	assert := assert.New(t)

	id := MQTTDeviceId("0123456789abcdef0123456789abcdef")
	assert.Contains(id, "smile_", "hashed id prefix")
	assert.Equal(id, MQTTDeviceId("0123456789abcdef0123456789abcdef"), "hash is stable")
	assert.NotEqual(id, MQTTDeviceId("another_device"), "different devices hash apart")
}

func TestMetaForSensor(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("°C", metaForSensor("temperature").unit)
	assert.Equal(DEVICE_CLASS_BATTERY, metaForSensor("battery").deviceClass)
	assert.True(metaForSensor("battery").diagnostic)

	// suffix fallbacks for names not in the table
	m := metaForSensor("electricity_produced_point")
	assert.Equal("W", m.unit)
	assert.Equal(DEVICE_CLASS_POWER, m.deviceClass)

	m = metaForSensor("electricity_consumed_off_peak_cumulative")
	assert.Equal("kWh", m.unit)
	assert.Equal(STATE_CLASS_TOTAL_INCREASING, m.stateClass)

	m = metaForSensor("electricity_consumed_interval")
	assert.Equal("Wh", m.unit)

	m = metaForSensor("intended_boiler_temperature")
	assert.Equal("°C", m.unit)

	// unknown names stay bare measurements
	m = metaForSensor("weather_description")
	assert.Equal("", m.unit)
	assert.Equal(STATE_CLASS_MEASUREMENT, m.stateClass)
}

func TestDeviceSensors(t *testing.T) {

	assert := assert.New(t)

	device := Device{Id: "smile_abc", Name: "Living room"}
	rec := &smile_xml.DeviceRecord{
		Sensors: map[string]float64{
			"temperature": 20.1,
			"battery":     67,
		},
		BinarySensors: map[string]bool{
			"low_battery": false,
		},
	}

	sensors := DeviceSensors(device, rec)
	require.Len(t, sensors, 3)

	// float sensors come first, sorted by name
	assert.Equal("battery", sensors[0].Id)
	assert.Equal(ENTITY_CLASS_DIAGNOSTIC, sensors[0].EntityCategory)
	assert.Equal("temperature", sensors[1].Id)
	assert.Equal(SENSOR_TYPE_SENSOR, sensors[1].SensorType)
	assert.Equal("Temperature", sensors[1].Name)
	assert.Equal("uid_smile_abc_temperature", sensors[1].UniqueId)

	assert.Equal("low_battery", sensors[2].Id)
	assert.Equal(SENSOR_TYPE_BINARY, sensors[2].SensorType)
	assert.Equal("Low battery", sensors[2].Name)
}

func TestDeviceClimate(t *testing.T) {

	assert := assert.New(t)

	device := Device{Id: "smile_abc", Name: "Living room"}
	modes := []string{"auto", "heat", "off"}

	assert.Nil(DeviceClimate(device, &smile_xml.DeviceRecord{}, modes), "no thermostat, no climate entity")

	rec := &smile_xml.DeviceRecord{
		Thermostat: &smile_xml.ThermostatInfo{
			Setpoint:   21,
			LowerBound: 4,
			UpperBound: 30,
			Resolution: 0.1,
		},
		PresetModes: []string{"home", "away"},
	}
	climate := DeviceClimate(device, rec, modes)
	require.NotNil(t, climate)
	assert.Equal(modes, climate.Modes)
	assert.Equal([]string{"home", "away"}, climate.PresetModes)
	assert.Equal(4.0, climate.MinTemp)
	assert.Equal(30.0, climate.MaxTemp)
	assert.Equal(0.1, climate.TempStep)
	assert.False(climate.HeatCoolMode)
}

func TestDeviceSelects(t *testing.T) {

	assert := assert.New(t)

	device := Device{Id: "smile_abc", Name: "Living room"}
	rec := &smile_xml.DeviceRecord{
		AvailableSchedules: []string{"Weekschema", "Vakantie"},
		SelectedSchedule:   "Weekschema",
	}

	selects := DeviceSelects(device, rec)
	require.Len(t, selects, 1)
	assert.Equal(SELECT_ID_SCHEDULE, selects[0].Id)
	assert.Equal([]string{"Weekschema", "Vakantie", smile_xml.ScheduleOff}, selects[0].Options)

	rec = &smile_xml.DeviceRecord{
		RegulationModes: []string{"heating", "off"},
		GatewayModes:    []string{"full", "away"},
	}
	selects = DeviceSelects(device, rec)
	require.Len(t, selects, 2)
	assert.Equal(SELECT_ID_REGULATION_MODE, selects[0].Id)
	assert.Equal(SELECT_ID_GATEWAY_MODE, selects[1].Id)
}
