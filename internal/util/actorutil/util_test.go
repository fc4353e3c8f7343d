package actorutil

import (
	"testing"

	"github.com/berfenger/smile2mqtt/internal/core/domain"
	"github.com/berfenger/smile2mqtt/internal/mqtt"
	"github.com/berfenger/smile2mqtt/pkg/smile_xml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayCommandToRequest(t *testing.T) {

	assert := assert.New(t)

	req, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: "relay",
		Command:  mqtt.COMMAND_SWITCH,
		Payload:  "on",
	})
	require.NoError(t, err)
	relay, ok := req.(domain.SetRelayStateRequest)
	require.True(t, ok)
	assert.Equal("smile_abc", relay.DeviceId)
	assert.True(relay.On)

	// lock switches are read only, command is dropped
	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: "lock",
		Command:  mqtt.COMMAND_SWITCH,
		Payload:  "on",
	})
	require.NoError(t, err)
	assert.Nil(req)
}

func TestScheduleSelectCommandToRequest(t *testing.T) {

	assert := assert.New(t)

	req, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: domain.SELECT_ID_SCHEDULE,
		Command:  mqtt.COMMAND_SELECT,
		Payload:  "Weekschema",
	})
	require.NoError(t, err)
	sched, ok := req.(domain.SetScheduleStateRequest)
	require.True(t, ok)
	assert.Equal("Weekschema", sched.Schedule)
	assert.True(sched.Active)

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: domain.SELECT_ID_SCHEDULE,
		Command:  mqtt.COMMAND_SELECT,
		Payload:  smile_xml.ScheduleOff,
	})
	require.NoError(t, err)
	sched, ok = req.(domain.SetScheduleStateRequest)
	require.True(t, ok)
	assert.False(sched.Active)
}

func TestModeSelectCommandsToRequest(t *testing.T) {

	assert := assert.New(t)

	req, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: domain.SELECT_ID_REGULATION_MODE,
		Command:  mqtt.COMMAND_SELECT,
		Payload:  "heating",
	})
	require.NoError(t, err)
	reg, ok := req.(domain.SetRegulationModeRequest)
	require.True(t, ok)
	assert.Equal("heating", reg.Mode)

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: domain.SELECT_ID_GATEWAY_MODE,
		Command:  mqtt.COMMAND_SELECT,
		Payload:  "away",
	})
	require.NoError(t, err)
	gwm, ok := req.(domain.SetGatewayModeRequest)
	require.True(t, ok)
	assert.Equal("away", gwm.Mode)
}

func TestClimateCommandsToRequest(t *testing.T) {

	assert := assert.New(t)

	req, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: "temperature",
		Command:  "climate",
		Payload:  "19.5",
	})
	require.NoError(t, err)
	temp, ok := req.(domain.SetTemperatureRequest)
	require.True(t, ok)
	assert.Equal(map[string]float64{smile_xml.SetpointKey: 19.5}, temp.Setpoints)

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: "temperature_high",
		Command:  "climate",
		Payload:  "24",
	})
	require.NoError(t, err)
	temp, ok = req.(domain.SetTemperatureRequest)
	require.True(t, ok)
	assert.Equal(map[string]float64{smile_xml.SetpointHighKey: 24.0}, temp.Setpoints)

	_, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: "temperature",
		Command:  "climate",
		Payload:  "warm",
	})
	assert.Error(err, "non numeric setpoint payload fails")

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: "preset",
		Command:  "climate",
		Payload:  "away",
	})
	require.NoError(t, err)
	preset, ok := req.(domain.SetPresetRequest)
	require.True(t, ok)
	assert.Equal("away", preset.Preset)
}

func TestClimateModeCommandToRequest(t *testing.T) {

	assert := assert.New(t)

	req, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: "mode",
		Command:  "climate",
		Payload:  "auto",
	})
	require.NoError(t, err)
	sched, ok := req.(domain.SetScheduleStateRequest)
	require.True(t, ok)
	assert.True(sched.Active, "auto mode re-enables the schedule")

	req, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "smile_abc",
		ObjectId: "mode",
		Command:  "climate",
		Payload:  "heat",
	})
	require.NoError(t, err)
	sched, ok = req.(domain.SetScheduleStateRequest)
	require.True(t, ok)
	assert.False(sched.Active, "manual mode disables the schedule")
}
