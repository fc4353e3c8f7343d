package smile_xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleResolutionAdam(t *testing.T) {
	_, _, snap := loadSnapshot(t, "adam.xml")

	lisa, _ := snap.Device("app_lisa")
	assert.Equal(t, []string{"Vakantie", "Weekschema", "Zomerstand"}, lisa.AvailableSchedules)
	assert.Equal(t, "Weekschema", lisa.SelectedSchedule)
	// Zomerstand was modified last but lost its directives, so the newest
	// schedule that still carries a setpoint wins.
	assert.Equal(t, "Vakantie", lisa.LastActiveSchedule)
	assert.Equal(t, "auto", lisa.ClimateMode)
	assert.Equal(t, "home", lisa.ActivePreset)
	assert.Equal(t, []string{"home", "away", "asleep", "vacation", "no_frost"}, lisa.PresetModes)

	// Every thermostat in the zone resolves the same schedule set.
	tom, _ := snap.Device("app_tom")
	assert.Equal(t, lisa.AvailableSchedules, tom.AvailableSchedules)
	assert.Equal(t, lisa.LastActiveSchedule, tom.LastActiveSchedule)

	bath, _ := snap.Device("app_bath_lisa")
	assert.Empty(t, bath.AvailableSchedules)
	assert.Equal(t, ScheduleOff, bath.SelectedSchedule)
}

func TestScheduleResolutionUnzoned(t *testing.T) {
	_, _, snap := loadSnapshot(t, "anna_legacy.xml")
	anna, _ := snap.Device("app_anna")
	assert.Equal(t, []string{"Thermostat schedule"}, anna.AvailableSchedules)
	assert.Equal(t, ScheduleOff, anna.SelectedSchedule)
	assert.Equal(t, "Thermostat schedule", anna.LastActiveSchedule)
}

func TestSelectedScheduleAlwaysValid(t *testing.T) {
	for _, fixture := range []string{"adam.xml", "anna_legacy.xml", "p1.xml"} {
		_, _, snap := loadSnapshot(t, fixture)
		for id, d := range snap.Devices {
			if d.SelectedSchedule == "" {
				continue
			}
			valid := d.SelectedSchedule == ScheduleOff
			for _, s := range d.AvailableSchedules {
				if s == d.SelectedSchedule {
					valid = true
				}
			}
			require.True(t, valid, "%s: %s selected %q", fixture, id, d.SelectedSchedule)
		}
	}
}
