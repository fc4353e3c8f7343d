package smile_xml

import (
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// classify walks the object graph and produces one DeviceRecord per usable
// device. Appliances whose location cannot be resolved are dropped; only the
// gateway and the heater central are exempt from that rule.
func classify(g *objectGraph, ctx *GatewayContext) map[string]*DeviceRecord {
	devices := make(map[string]*DeviceRecord)

	homeLocation := g.homeLocationID()

	gwRecord := classifyGateway(g, ctx, homeLocation)
	devices[gwRecord.ID] = gwRecord

	for i := range g.doc.Appliances {
		a := &g.doc.Appliances[i]
		class := applianceClass(a, ctx)
		if class == "" || class == ClassGateway {
			continue
		}
		locationID := ""
		if a.Location != nil {
			locationID = a.Location.ID
		}
		if _, ok := g.locationsByID[locationID]; !ok {
			if class == ClassHeaterCentral || ctx.Legacy {
				// Legacy gateways leave most appliances unlocated.
				locationID = homeLocation
			} else {
				log.WithFields(log.Fields{"appliance": a.ID, "class": class}).
					Debug("skipping appliance without resolvable location")
				continue
			}
		}
		rec := newDeviceRecord(a.ID, class)
		rec.Name = a.Name
		rec.Location = locationID
		fillModuleInfo(g, a, rec)
		fillMeasurements(g, a, rec, ctx)
		fillActuators(g, a, rec)
		if _, isThermostat := thermostatRank[class]; isThermostat {
			fillZoneActuators(g, locationID, rec)
		}
		devices[rec.ID] = rec

		if class == ClassHeaterCentral {
			ctx.HeaterID = rec.ID
			if strings.Contains(strings.ToLower(a.Name), "onoff") {
				ctx.OnOffDevice = true
			} else {
				ctx.OpenThermDevice = true
			}
			// Heat pumps keep their cooling circuit even when the
			// gateway does not advertise the cooling feature.
			_, elga := rec.Sensors["elga_status_code"]
			_, compressor := rec.BinarySensors["compressor_state"]
			if elga || compressor {
				ctx.CoolingPresent = true
				if _, ok := rec.BinarySensors["cooling_enabled"]; !ok {
					rec.BinarySensors["cooling_enabled"] = true
				}
			}
		}
	}

	electPrimaryThermostats(devices)

	if ctx.Family == FamilyPower {
		if rec := classifySmartmeter(g, homeLocation); rec != nil {
			devices[rec.ID] = rec
		}
	}

	classifyGroups(g, devices)

	ctx.ItemCount = len(devices)
	return devices
}

func (g *objectGraph) homeLocationID() string {
	for i := range g.doc.Locations {
		if g.doc.Locations[i].Type == "building" {
			return g.doc.Locations[i].ID
		}
	}
	if len(g.doc.Locations) > 0 {
		return g.doc.Locations[0].ID
	}
	return ""
}

func classifyGateway(g *objectGraph, ctx *GatewayContext, homeLocation string) *DeviceRecord {
	gw := g.doc.Gateway
	rec := newDeviceRecord(ctx.GatewayID, ClassGateway)
	rec.Name = ctx.SmileName
	rec.Model = ctx.SmileName
	rec.ModelID = gw.VendorModel
	rec.Vendor = gw.VendorName
	rec.Firmware = gw.FirmwareVersion
	rec.Hardware = gw.HardwareVersion
	rec.MACAddress = gw.MACAddress
	rec.Location = homeLocation

	// The gateway appliance, when present, carries the outdoor temperature
	// and the mode control actuators.
	for i := range g.doc.Appliances {
		a := &g.doc.Appliances[i]
		if a.Type != "gateway" {
			continue
		}
		rec.ID = a.ID
		fillMeasurements(g, a, rec, ctx)
		if a.Actuators != nil {
			if rm := a.Actuators.RegulationMode; rm != nil {
				rec.RegulationModes = append([]string{}, rm.AllowedModes...)
				rec.SelectedRegulationMode = rm.Mode
				rec.regulationActuatorID = rm.ID
			}
			if gm := a.Actuators.GatewayMode; gm != nil {
				rec.GatewayModes = append([]string{}, gm.AllowedModes...)
				rec.SelectedGatewayMode = gm.Mode
				rec.gatewayModeActuatorID = gm.ID
			}
		}
		break
	}
	ctx.GatewayID = rec.ID
	// Fall back to the home location logs for outdoor temperature.
	if _, ok := rec.Sensors["outdoor_temperature"]; !ok {
		if loc, exists := g.locationsByID[homeLocation]; exists {
			if v, found := latestPointFloat(loc.Logs, "outdoor_temperature"); found {
				val, _ := formatMeasure(v, unitCelsius)
				rec.Sensors["outdoor_temperature"] = val
			}
		}
	}
	return rec
}

func applianceClass(a *Appliance, ctx *GatewayContext) string {
	switch a.Type {
	case "gateway":
		return ClassGateway
	case "heater_central", "open_therm_gateway":
		return ClassHeaterCentral
	case "thermostat":
		return ClassThermostat
	case "zone_thermostat":
		return ClassZoneThermostat
	case "zone_thermometer":
		return ClassZoneThermometer
	case "thermostatic_radiator_valve":
		return ClassThermostaticRadiatorValve
	}
	if ctx.Family == FamilyStretch || hasRelay(a) {
		return ClassPlug
	}
	return ""
}

func hasRelay(a *Appliance) bool {
	if a.Actuators != nil && a.Actuators.Relay != nil {
		return true
	}
	_, ok := latestPointValue(a.Logs, "relay")
	return ok
}

func fillModuleInfo(g *objectGraph, a *Appliance, rec *DeviceRecord) {
	m := g.moduleFor(a)
	if m == nil {
		return
	}
	rec.Vendor = m.VendorName
	rec.ModelID = m.VendorModel
	rec.Firmware = m.FirmwareVersion
	rec.Hardware = m.HardwareVersion
	rec.Model = modelFromHardware(m.HardwareVersion)
	mac, reachable := g.zigbeeMAC(m)
	if mac != "" {
		rec.ZigbeeMAC = mac
		rec.Available = reachable
		if g.lowBatteryMACs[mac] {
			rec.BinarySensors["low_battery"] = true
		}
	}
}

func modelFromHardware(hw string) string {
	if hw == "" {
		return ""
	}
	if name, ok := hardwareModels[hw]; ok {
		return name
	}
	// Stretch hardware versions embed the model code as the middle digits.
	if len(hw) >= 10 {
		if name, ok := hardwareModels[hw[4:10]]; ok {
			return name
		}
	}
	return ""
}

func fillMeasurements(g *objectGraph, a *Appliance, rec *DeviceRecord, ctx *GatewayContext) {
	table := deviceMeasurements
	if rec.Class == ClassHeaterCentral {
		table = heaterCentralMeasurements
	}
	for _, l := range a.Logs.PointLogs {
		m, ok := table[l.Type]
		if !ok {
			continue
		}
		key := m.key(l.Type)
		switch m.kind {
		case kindSensor:
			v, found := latestPointFloat(a.Logs, l.Type)
			if !found {
				continue
			}
			if key == "water_pressure" && v > 3.5 {
				continue
			}
			val, _ := formatMeasure(v, m.unit)
			rec.Sensors[key] = val
		case kindBinary:
			if v, found := latestPointBool(a.Logs, l.Type); found {
				rec.BinarySensors[key] = v
			}
		case kindSwitch:
			if v, found := latestPointBool(a.Logs, l.Type); found {
				rec.Switches[key] = v
			}
		}
	}
	// A device with a battery log never reports zigbee availability.
	if _, ok := rec.Sensors["battery"]; ok {
		rec.Available = nil
	}
	_ = ctx
}

func fillActuators(g *objectGraph, a *Appliance, rec *DeviceRecord) {
	if a.Actuators == nil {
		return
	}
	if r := a.Actuators.Relay; r != nil {
		rec.relayActuatorID = r.ID
		rec.Switches["relay"] = strings.EqualFold(r.State, "on")
		if r.Lock != "" {
			rec.relayLocked = strings.EqualFold(r.Lock, "true")
			if !specialPlugTypes[a.Type] {
				rec.Switches["lock"] = rec.relayLocked
			}
		}
	}
	for i := range a.Actuators.Thermostat {
		tf := &a.Actuators.Thermostat[i]
		if tf.Type != "" && tf.Type != "thermostat" {
			continue
		}
		info := &ThermostatInfo{
			LowerBound: tf.LowerBound,
			UpperBound: tf.UpperBound,
			Resolution: tf.Resolution,
			actuatorID: tf.ID,
		}
		if v, ok := parseSetpoint(tf.Setpoint); ok {
			info.Setpoint = v
		}
		if v, ok := parseSetpoint(tf.SetpointHigh); ok {
			info.SetpointHigh = v
			info.HeatCool = true
		}
		if v, ok := parseSetpoint(tf.SetpointLow); ok {
			info.SetpointLow = v
		}
		if info.Resolution == 0 {
			info.Resolution = 0.1
		}
		if info.UpperBound == 0 {
			info.LowerBound, info.UpperBound = setpointMin, setpointMax
		}
		if tf.ControlState != "" {
			rec.ControlState = tf.ControlState
		}
		rec.Thermostat = info
		break
	}
}

// fillZoneActuators completes a thermostat record from its zone. On zoned
// gateways the setpoint actuator, the reported control state, the preset and
// the zone temperature live on the location rather than the appliance.
func fillZoneActuators(g *objectGraph, locationID string, rec *DeviceRecord) {
	loc, ok := g.locationsByID[locationID]
	if !ok {
		return
	}
	if rec.ActivePreset == "" {
		rec.ActivePreset = loc.Preset
	}
	if _, has := rec.Sensors["temperature"]; !has {
		if v, found := latestPointFloat(loc.Logs, "temperature"); found {
			val, _ := formatMeasure(v, unitCelsius)
			rec.Sensors["temperature"] = val
		}
	}
	if loc.Actuators == nil {
		return
	}
	for i := range loc.Actuators.Thermostat {
		tf := &loc.Actuators.Thermostat[i]
		if tf.Type != "" && tf.Type != "thermostat" {
			continue
		}
		if tf.ControlState != "" {
			rec.ControlState = tf.ControlState
		}
		if rec.Thermostat == nil {
			info := &ThermostatInfo{
				LowerBound:   tf.LowerBound,
				UpperBound:   tf.UpperBound,
				Resolution:   tf.Resolution,
				actuatorID:   tf.ID,
				zoneActuator: true,
			}
			if v, found := parseSetpoint(tf.Setpoint); found {
				info.Setpoint = v
			}
			if v, found := parseSetpoint(tf.SetpointHigh); found {
				info.SetpointHigh = v
				info.HeatCool = true
			}
			if v, found := parseSetpoint(tf.SetpointLow); found {
				info.SetpointLow = v
			}
			if info.Resolution == 0 {
				info.Resolution = 0.1
			}
			if info.UpperBound == 0 {
				info.LowerBound, info.UpperBound = setpointMin, setpointMax
			}
			rec.Thermostat = info
		}
		break
	}
}

// electPrimaryThermostats keeps the highest ranked thermostat per zone and
// demotes the rest to passive sensors.
func electPrimaryThermostats(devices map[string]*DeviceRecord) {
	type candidate struct {
		rec  *DeviceRecord
		rank int
	}
	byZone := map[string][]candidate{}
	for _, rec := range devices {
		rank, ok := thermostatRank[rec.Class]
		if !ok {
			continue
		}
		byZone[rec.Location] = append(byZone[rec.Location], candidate{rec, rank})
	}
	for _, cands := range byZone {
		if len(cands) < 2 {
			continue
		}
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].rank != cands[j].rank {
				return cands[i].rank > cands[j].rank
			}
			return cands[i].rec.ID < cands[j].rec.ID
		})
		for _, c := range cands[1:] {
			// Radiator valves keep their actuator even when secondary.
			if c.rec.Class == ClassThermostaticRadiatorValve {
				continue
			}
			c.rec.Class = ClassThermoSensor
			c.rec.Thermostat = nil
		}
	}
}

// classifySmartmeter builds the P1 metering device from the DSMR module and
// the home location logs.
func classifySmartmeter(g *objectGraph, homeLocation string) *DeviceRecord {
	loc, ok := g.locationsByID[homeLocation]
	if !ok {
		return nil
	}
	var dsmr *Module
	for i := range g.doc.Modules {
		if g.doc.Modules[i].Protocols != nil && g.doc.Modules[i].Protocols.DSMRMain != nil {
			dsmr = &g.doc.Modules[i]
			break
		}
	}
	if dsmr == nil {
		return nil
	}
	rec := newDeviceRecord(dsmr.ID, ClassSmartmeter)
	rec.Name = "P1"
	rec.Location = homeLocation
	rec.Vendor = dsmr.VendorName
	rec.ModelID = dsmr.VendorModel
	rec.Model = dsmr.VendorModel
	rec.Firmware = dsmr.FirmwareVersion
	rec.Hardware = dsmr.HardwareVersion

	for _, l := range loc.Logs.PointLogs {
		m, ok := meterMeasurements[l.Type]
		if !ok || l.Period == nil {
			continue
		}
		for _, ms := range l.Period.Measurements {
			addMeterValue(rec, l.Type, ms, m.unit, "point")
		}
	}
	for _, l := range loc.Logs.CumulativeLogs {
		m, ok := meterMeasurements[l.Type]
		if !ok || l.Period == nil {
			continue
		}
		for _, ms := range l.Period.Measurements {
			addMeterValue(rec, l.Type, ms, m.unit, "cumulative")
		}
	}
	for _, l := range loc.Logs.IntervalLogs {
		m, ok := meterMeasurements[l.Type]
		if !ok || l.Period == nil {
			continue
		}
		for _, ms := range l.Period.Measurements {
			addMeterValue(rec, l.Type, ms, m.unit, "interval")
		}
	}
	return rec
}

func addMeterValue(rec *DeviceRecord, logType string, m Measurement, unit, variant string) {
	v, ok := parseSetpoint(m.Value)
	if !ok {
		return
	}
	key := logType
	switch m.Tariff {
	case "nl_peak":
		key += "_peak"
	case "nl_offpeak":
		key += "_off_peak"
	}
	key += "_" + variant
	// Cumulative electricity totals come in Wh and publish as kWh.
	if variant == "cumulative" && unit == unitWatt {
		unit = unitWh
	}
	val, _ := formatMeasure(v, unit)
	rec.Sensors[key] = val
}

// classifyGroups materializes switch groups as devices with member lists.
func classifyGroups(g *objectGraph, devices map[string]*DeviceRecord) {
	for i := range g.doc.Groups {
		grp := &g.doc.Groups[i]
		if !switchGroupTypes[grp.Type] {
			continue
		}
		var members []string
		anyOn := false
		for _, ref := range grp.Appliances {
			member, ok := devices[ref.ID]
			if !ok {
				continue
			}
			members = append(members, ref.ID)
			if member.Switches["relay"] {
				anyOn = true
			}
		}
		if len(members) == 0 {
			continue
		}
		sort.Strings(members)
		rec := newDeviceRecord(grp.ID, "switch_group")
		rec.Name = grp.Name
		rec.Members = members
		// The group reads on while at least one member relay is on.
		rec.Switches["relay"] = anyOn
		devices[rec.ID] = rec
	}
}
