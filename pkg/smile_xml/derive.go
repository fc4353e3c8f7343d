package smile_xml

import "strings"

// Control states published on thermostat records.
const (
	StateOff        = "off"
	StateHeating    = "heating"
	StateCooling    = "cooling"
	StatePreheating = "preheating"
	StateIdle       = "idle"
)

// stateInputs holds everything the control state derivation may look at.
// Deriving twice from the same inputs always yields the same state.
type stateInputs struct {
	reported string
	legacy   bool

	climateOff     bool
	coolingPresent bool

	flame        bool
	flameKnown   bool
	heating      bool
	heatingKnown bool
	cooling      bool

	modulation      float64
	modulationKnown bool

	setpoint    float64
	temperature float64
	haveTemps   bool

	prev string
}

type controlStateRule struct {
	name    string
	applies func(in stateInputs) bool
	state   func(in stateInputs) string
}

// controlStateRules are evaluated in order; the first applicable rule wins.
var controlStateRules = []controlStateRule{
	{
		name:    "climate off",
		applies: func(in stateInputs) bool { return in.climateOff },
		state:   func(stateInputs) string { return StateOff },
	},
	{
		name:    "reported by gateway",
		applies: func(in stateInputs) bool { return in.reported != "" },
		state: func(in stateInputs) string {
			s := strings.ToLower(in.reported)
			if s == "none" {
				return StateIdle
			}
			return s
		},
	},
	{
		name:    "legacy heating demand",
		applies: func(in stateInputs) bool { return in.legacy && in.haveTemps },
		state: func(in stateInputs) string {
			if in.setpoint > in.temperature {
				return StateHeating
			}
			if in.coolingPresent && in.setpoint < in.temperature {
				return StateCooling
			}
			return StateIdle
		},
	},
	{
		name:    "active cooling",
		applies: func(in stateInputs) bool { return in.cooling },
		state:   func(stateInputs) string { return StateCooling },
	},
	{
		name: "active heating",
		applies: func(in stateInputs) bool {
			return in.heatingKnown && in.heating && (!in.flameKnown || in.flame)
		},
		state: func(stateInputs) string { return StateHeating },
	},
	{
		name: "preheating",
		applies: func(in stateInputs) bool {
			return in.haveTemps && in.setpoint > in.temperature &&
				in.flameKnown && !in.flame &&
				in.modulationKnown && in.modulation > 0
		},
		state: func(stateInputs) string { return StatePreheating },
	},
	{
		name:    "heat demand without flame",
		applies: func(in stateInputs) bool { return in.heatingKnown && in.heating },
		state: func(in stateInputs) string {
			// Flame dropped while the burner cycles. Hold the previous
			// heating state instead of flapping to idle.
			if in.prev == StateHeating {
				return StateHeating
			}
			return StateIdle
		},
	},
	{
		// Anna without a connected boiler reports no heater signals at
		// all; fall back to comparing the room against its setpoint.
		name: "heating demand by temperature",
		applies: func(in stateInputs) bool {
			return in.haveTemps && !in.heatingKnown && !in.flameKnown
		},
		state: func(in stateInputs) string {
			if in.temperature < in.setpoint {
				return StateHeating
			}
			if in.coolingPresent && in.temperature > in.setpoint {
				return StateCooling
			}
			return StateIdle
		},
	},
}

func deriveControlState(in stateInputs) string {
	for _, r := range controlStateRules {
		if r.applies(in) {
			return r.state(in)
		}
	}
	return StateIdle
}

// deriveStates fills ControlState and ClimateMode on every thermostat record.
// prev carries the control states of the previous snapshot, keyed by device
// id, for burner cycling hysteresis.
func deriveStates(devices map[string]*DeviceRecord, ctx *GatewayContext, prev map[string]string) {
	heater := devices[ctx.HeaterID]
	if heater != nil && ctx.OnOffDevice {
		if _, ok := heater.BinarySensors["heating_state"]; !ok {
			// City heating boilers report no burner state. Any open
			// zone valve means heat is being drawn.
			open := false
			for _, rec := range devices {
				if v, present := rec.Sensors["valve_position"]; present && v > 0 {
					open = true
					break
				}
			}
			heater.BinarySensors["heating_state"] = open
		}
	}
	for _, rec := range devices {
		if rec.Thermostat == nil {
			continue
		}
		in := stateInputs{
			reported: rec.ControlState,
			legacy:   ctx.Legacy,
			climateOff: rec.SelectedRegulationMode == StateOff ||
				(devices[ctx.GatewayID] != nil && devices[ctx.GatewayID].SelectedRegulationMode == StateOff),
			coolingPresent: ctx.CoolingPresent,
			prev:           prev[rec.ID],
		}
		in.setpoint = rec.Thermostat.Setpoint
		if t, ok := rec.Sensors["temperature"]; ok {
			in.temperature = t
			in.haveTemps = true
		}
		if heater != nil {
			if v, ok := heater.BinarySensors["flame_state"]; ok {
				in.flame, in.flameKnown = v, true
			}
			if v, ok := heater.BinarySensors["heating_state"]; ok {
				in.heating, in.heatingKnown = v, true
			}
			if v, ok := heater.BinarySensors["cooling_state"]; ok {
				in.cooling = v
			}
			if v, ok := heater.Sensors["modulation_level"]; ok {
				in.modulation, in.modulationKnown = v, true
			}
			// Elga heat pumps report cooling via full modulation while
			// the cooling circuit is enabled.
			if ctx.CoolingPresent && heater.BinarySensors["cooling_enabled"] &&
				in.modulationKnown && in.modulation == 100 {
				in.cooling = true
			}
		}
		rec.ControlState = deriveControlState(in)
		rec.ClimateMode = deriveClimateMode(rec, ctx)
	}
}

func deriveClimateMode(rec *DeviceRecord, ctx *GatewayContext) string {
	if rec.ControlState == StateOff {
		return StateOff
	}
	if rec.SelectedSchedule != "" && rec.SelectedSchedule != ScheduleOff {
		return "auto"
	}
	if rec.Thermostat != nil && rec.Thermostat.HeatCool {
		return "heat_cool"
	}
	if ctx.CoolingPresent && rec.ControlState == StateCooling {
		return "cool"
	}
	return "heat"
}
