package events

import (
	"context"
	"testing"

	"github.com/berfenger/smile2mqtt/internal/core/domain"
	"github.com/berfenger/smile2mqtt/pkg/smile_xml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adamFixture = "../../../pkg/smile_xml/testdata/adam.xml"

func loadSnapshot(t *testing.T) *smile_xml.Snapshot {
	t.Helper()
	tr, err := smile_xml.NewFixtureTransport(adamFixture)
	require.NoError(t, err)
	snap, err := smile_xml.NewClient(tr).Refresh(context.Background())
	require.NoError(t, err)
	return snap
}

func TestSnapshotToUpdateEventsDeterministic(t *testing.T) {
	snap := loadSnapshot(t)

	first := SnapshotToUpdateEvents(snap)
	second := SnapshotToUpdateEvents(snap)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second, "same snapshot always yields the same event sequence")
}

func TestDeviceUpdateEventsCarryHashedDeviceId(t *testing.T) {
	snap := loadSnapshot(t)

	for _, ev := range SnapshotToUpdateEvents(snap) {
		sensorEv, ok := ev.(domain.SensorUpdateEvent)
		require.True(t, ok, "%T implements the sensor update interface", ev)
		assert.Contains(t, sensorEv.SensorDeviceId(), "smile_", "device ids are hashed for MQTT")
	}
}

func TestClimateUpdateEvent(t *testing.T) {
	snap := loadSnapshot(t)

	lisa, ok := snap.Device("app_lisa")
	require.True(t, ok)

	events := DeviceUpdateEvents(lisa)
	var climate *domain.ClimateUpdateEvent
	for _, ev := range events {
		if c, ok := ev.(domain.ClimateUpdateEvent); ok {
			climate = &c
			break
		}
	}
	require.NotNil(t, climate, "zone thermostats emit a climate event")

	assert.Equal(t, domain.MQTTDeviceId("app_lisa"), climate.DeviceId)
	assert.Equal(t, lisa.ClimateMode, climate.Mode)
	assert.Equal(t, lisa.ControlState, climate.Action)
	assert.Equal(t, lisa.ActivePreset, climate.Preset)
	require.NotNil(t, climate.CurrentTemperature)
	assert.Equal(t, 20.1, *climate.CurrentTemperature)
	require.NotNil(t, climate.Setpoint)
	assert.Equal(t, 21.0, *climate.Setpoint)
	assert.Nil(t, climate.SetpointHigh, "single setpoint zones carry no range")
	assert.Nil(t, climate.SetpointLow)
}

func TestScheduleSelectEvent(t *testing.T) {
	snap := loadSnapshot(t)

	lisa, ok := snap.Device("app_lisa")
	require.True(t, ok)
	require.NotEmpty(t, lisa.AvailableSchedules)

	var sel *domain.SelectSensorUpdateEvent
	for _, ev := range DeviceUpdateEvents(lisa) {
		if s, ok := ev.(domain.SelectSensorUpdateEvent); ok && s.Id == domain.SELECT_ID_SCHEDULE {
			sel = &s
			break
		}
	}
	require.NotNil(t, sel, "devices with schedules emit a schedule select event")
	assert.Equal(t, lisa.SelectedSchedule, sel.Value)
}

func TestSwitchUpdateEvents(t *testing.T) {
	snap := loadSnapshot(t)

	plug, ok := snap.Device("app_plug")
	require.True(t, ok)

	var ids []string
	for _, ev := range DeviceUpdateEvents(plug) {
		if s, ok := ev.(domain.SwitchSensorUpdateEvent); ok {
			ids = append(ids, s.Id)
		}
	}
	assert.Equal(t, []string{"lock", "relay"}, ids)
}

func TestSensorDecimals(t *testing.T) {
	assert.Equal(t, uint(3), sensorDecimals("electricity_consumed_cumulative", 12.3456))
	assert.Equal(t, uint(0), sensorDecimals("battery", 67))
	assert.Equal(t, uint(2), sensorDecimals("temperature", 20.1))
}
