package smile_xml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSnapshot(t *testing.T, fixture string) (*Client, *TestTransport, *Snapshot) {
	t.Helper()
	tr := NewTestTransport(readFixture(t, fixture))
	c := NewClient(tr)
	snap, err := c.Refresh(context.Background())
	require.NoError(t, err)
	return c, tr, snap
}

func TestClassifyAdam(t *testing.T) {
	_, _, snap := loadSnapshot(t, "adam.xml")

	assert.Equal(t, "Adam", snap.Gateway.SmileName)
	assert.Equal(t, FamilyThermostat, snap.Gateway.Family)
	assert.False(t, snap.Gateway.Legacy)
	assert.True(t, snap.Gateway.OpenThermDevice)

	gw, ok := snap.Device("app_gw")
	require.True(t, ok)
	assert.Equal(t, ClassGateway, gw.Class)
	assert.Equal(t, 6.23, gw.Sensors["outdoor_temperature"])
	assert.Equal(t, []string{"heating", "off", "bleeding_hot"}, gw.RegulationModes)
	assert.Equal(t, "heating", gw.SelectedRegulationMode)
	assert.Equal(t, []string{"full", "away", "vacation"}, gw.GatewayModes)
	assert.Equal(t, "full", gw.SelectedGatewayMode)

	heater, ok := snap.Device("app_heater")
	require.True(t, ok)
	assert.Equal(t, ClassHeaterCentral, heater.Class)
	assert.Equal(t, 55.3, heater.Sensors["water_temperature"])
	assert.Equal(t, 1.57, heater.Sensors["water_pressure"])
	assert.Equal(t, float64(40), heater.Sensors["modulation_level"])
	assert.True(t, heater.BinarySensors["flame_state"])
	assert.True(t, heater.BinarySensors["heating_state"])

	lisa, ok := snap.Device("app_lisa")
	require.True(t, ok)
	assert.Equal(t, ClassZoneThermostat, lisa.Class)
	assert.Equal(t, "Lisa", lisa.Model)
	assert.Equal(t, "Plugwise", lisa.Vendor)
	assert.Equal(t, "000D6F000A111111", lisa.ZigbeeMAC)
	assert.Equal(t, float64(67), lisa.Sensors["battery"])
	assert.Equal(t, 20.1, lisa.Sensors["temperature"])
	require.NotNil(t, lisa.Thermostat)
	assert.Equal(t, 21.0, lisa.Thermostat.Setpoint)
	assert.Equal(t, 4.0, lisa.Thermostat.LowerBound)
	assert.Equal(t, 30.0, lisa.Thermostat.UpperBound)
	assert.Equal(t, 0.1, lisa.Thermostat.Resolution)
	// Battery powered devices do not report zigbee availability.
	assert.Nil(t, lisa.Available)

	tom, ok := snap.Device("app_tom")
	require.True(t, ok)
	assert.Equal(t, ClassThermostaticRadiatorValve, tom.Class)
	assert.Equal(t, "Tom/Floor", tom.Model)
	assert.Equal(t, float64(23), tom.Sensors["valve_position"])
	assert.True(t, tom.BinarySensors["low_battery"])

	pump, ok := snap.Device("app_pump")
	require.True(t, ok)
	assert.Equal(t, ClassPlug, pump.Class)
	assert.True(t, pump.Switches["relay"])
	assert.True(t, pump.RelayLocked())
	_, hasLockSwitch := pump.Switches["lock"]
	assert.False(t, hasLockSwitch, "special plug types never expose a lock switch")

	plug, ok := snap.Device("app_plug")
	require.True(t, ok)
	assert.Equal(t, "Plug", plug.Model)
	assert.True(t, plug.Switches["lock"])
	require.NotNil(t, plug.Available)
	assert.True(t, *plug.Available)

	group, ok := snap.Device("grp_switches")
	require.True(t, ok)
	assert.Equal(t, []string{"app_plug", "app_pump"}, group.Members)
	assert.True(t, group.Switches["relay"])
}

func TestOrphanApplianceExcluded(t *testing.T) {
	_, _, snap := loadSnapshot(t, "adam.xml")
	_, ok := snap.Device("app_orphan")
	assert.False(t, ok)
}

func TestCapabilityMapsNeverNil(t *testing.T) {
	for _, fixture := range []string{"adam.xml", "anna_legacy.xml", "p1.xml"} {
		_, _, snap := loadSnapshot(t, fixture)
		for id, d := range snap.Devices {
			assert.NotNil(t, d.Sensors, "%s: %s", fixture, id)
			assert.NotNil(t, d.BinarySensors, "%s: %s", fixture, id)
			assert.NotNil(t, d.Switches, "%s: %s", fixture, id)
		}
	}
}

func TestClassifyAnnaLegacy(t *testing.T) {
	_, _, snap := loadSnapshot(t, "anna_legacy.xml")

	assert.Equal(t, "Smile Anna", snap.Gateway.SmileName)
	assert.True(t, snap.Gateway.Legacy)
	assert.True(t, snap.Gateway.OnOffDevice)

	anna, ok := snap.Device("app_anna")
	require.True(t, ok)
	assert.Equal(t, ClassThermostat, anna.Class)
	assert.Equal(t, 17.0, anna.Sensors["temperature"])
	assert.Equal(t, 18.5, anna.Sensors["setpoint"])
	assert.Equal(t, 35.1, anna.Sensors["illuminance"])
	require.NotNil(t, anna.Thermostat)
	assert.Equal(t, 18.5, anna.Thermostat.Setpoint)
}

func TestClassifyP1(t *testing.T) {
	_, _, snap := loadSnapshot(t, "p1.xml")

	assert.Equal(t, FamilyPower, snap.Gateway.Family)

	meter, ok := snap.Device("mod_dsmr")
	require.True(t, ok)
	assert.Equal(t, ClassSmartmeter, meter.Class)
	assert.Equal(t, "Xemex", meter.Vendor)
	assert.Equal(t, float64(452), meter.Sensors["electricity_consumed_peak_point"])
	assert.Equal(t, float64(0), meter.Sensors["electricity_consumed_off_peak_point"])
	assert.Equal(t, float64(233), meter.Sensors["voltage_phase_one_point"])
	assert.Equal(t, 14231.023, meter.Sensors["electricity_consumed_peak_cumulative"])
	assert.Equal(t, 9883.341, meter.Sensors["electricity_consumed_off_peak_cumulative"])
	assert.Equal(t, float64(812), meter.Sensors["gas_consumed_cumulative"])
	assert.Equal(t, float64(322), meter.Sensors["electricity_consumed_peak_interval"])
}

func TestGroupRelayFollowsAnyMemberOn(t *testing.T) {
	doc := &DomainObjects{Groups: []Group{{
		ID:         "grp_mix",
		Name:       "Pumps",
		Type:       "switching",
		Appliances: []Ref{{ID: "app_on"}, {ID: "app_off"}},
	}}}
	devices := map[string]*DeviceRecord{
		"app_on":  newDeviceRecord("app_on", ClassPlug),
		"app_off": newDeviceRecord("app_off", ClassPlug),
	}
	devices["app_on"].Switches["relay"] = true
	devices["app_off"].Switches["relay"] = false

	classifyGroups(newObjectGraph(doc), devices)

	grp, ok := devices["grp_mix"]
	require.True(t, ok)
	assert.True(t, grp.Switches["relay"], "a single member on keeps the group on")

	devices["app_on"].Switches["relay"] = false
	delete(devices, "grp_mix")
	classifyGroups(newObjectGraph(doc), devices)
	assert.False(t, devices["grp_mix"].Switches["relay"])
}

func TestHeatPumpForcesCoolingPresent(t *testing.T) {
	doc := &DomainObjects{
		Gateway: &Gateway{
			ID:              "gw_anna",
			FirmwareVersion: "3.1.11",
			VendorName:      "Plugwise",
			VendorModel:     "smile_thermo",
		},
		Locations: []Location{{ID: "loc_home", Type: "building"}},
		Appliances: []Appliance{{
			ID:   "app_elga",
			Name: "Elga",
			Type: "heater_central",
			Logs: LogSet{PointLogs: []PointLog{{
				Type: "compressor_state",
				Period: &LogPeriod{Measurements: []Measurement{
					{LogDate: "2024-05-05T11:00:00+02:00", Value: "off"},
				}},
			}}},
		}},
	}
	ctx, err := resolveGatewayContext(doc)
	require.NoError(t, err)
	require.False(t, ctx.CoolingPresent)

	devices := classify(newObjectGraph(doc), ctx)

	assert.True(t, ctx.CoolingPresent, "a compressor means the cooling circuit exists even when idle")
	heater := devices["app_elga"]
	require.NotNil(t, heater)
	assert.True(t, heater.BinarySensors["cooling_enabled"])
	assert.False(t, heater.BinarySensors["compressor_state"])
}

func TestLegacyApplianceFallsBackToHomeLocation(t *testing.T) {
	doc := &DomainObjects{
		Gateway: &Gateway{
			ID:              "gw_anna",
			FirmwareVersion: "1.8.22",
			VendorName:      "Plugwise",
			VendorModel:     "smile_thermo",
		},
		Locations: []Location{{ID: "loc_home", Type: "building"}},
		Appliances: []Appliance{{
			ID:   "app_anna",
			Name: "Anna",
			Type: "thermostat",
		}},
	}
	ctx, err := resolveGatewayContext(doc)
	require.NoError(t, err)
	require.True(t, ctx.Legacy)

	devices := classify(newObjectGraph(doc), ctx)

	anna, ok := devices["app_anna"]
	require.True(t, ok, "legacy appliances without a location are not orphans")
	assert.Equal(t, "loc_home", anna.Location)
}
