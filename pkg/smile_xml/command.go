package smile_xml

import (
	"fmt"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Payload is a fully validated gateway write. Builders produce payloads
// without touching the snapshot; the transport delivers them.
type Payload struct {
	Target string
	Path   string
	Body   string
}

// LockPolicy decides what happens when a relay write hits a locked relay.
type LockPolicy int

const (
	// LockPolicyBlock drops the write. No payload, no error.
	LockPolicyBlock LockPolicy = iota
	// LockPolicyForce builds the payload anyway and logs the override.
	LockPolicyForce
)

// Setpoint value keys accepted by BuildSetTemperature.
const (
	SetpointKey     = "setpoint"
	SetpointHighKey = "setpoint_high"
	SetpointLowKey  = "setpoint_low"
)

// BuildSetTemperature validates a setpoint write against the device's
// actuator bounds and resolution. Heat/cool devices take setpoint_high and
// setpoint_low; everything else takes setpoint. Using the wrong key set for
// the device yields ErrWrongSetpointType.
func (s *Snapshot) BuildSetTemperature(deviceID string, values map[string]float64) (*Payload, error) {
	rec, ok := s.Devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: device %s", ErrUnknownTarget, deviceID)
	}
	info := rec.Thermostat
	if info == nil {
		return nil, fmt.Errorf("%w: device %s has no setpoint actuator", ErrUnsupportedOperation, deviceID)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no setpoint given", ErrWrongSetpointType)
	}
	for key := range values {
		switch key {
		case SetpointKey:
			if info.HeatCool {
				return nil, fmt.Errorf("%w: device %s requires %s/%s", ErrWrongSetpointType, deviceID, SetpointHighKey, SetpointLowKey)
			}
		case SetpointHighKey, SetpointLowKey:
			if !info.HeatCool {
				return nil, fmt.Errorf("%w: device %s only accepts %s", ErrWrongSetpointType, deviceID, SetpointKey)
			}
		default:
			return nil, fmt.Errorf("%w: unknown key %q", ErrWrongSetpointType, key)
		}
	}
	var elems strings.Builder
	for _, key := range []string{SetpointKey, SetpointHighKey, SetpointLowKey} {
		v, present := values[key]
		if !present {
			continue
		}
		if err := validateSetpoint(v, info); err != nil {
			return nil, err
		}
		fmt.Fprintf(&elems, "<%s>%s</%s>", key, formatSetpoint(v), key)
	}
	return &Payload{
		Target: deviceID,
		Path:   s.thermostatPath(rec),
		Body:   fmt.Sprintf("<thermostat_functionality>%s</thermostat_functionality>", elems.String()),
	}, nil
}

func validateSetpoint(v float64, info *ThermostatInfo) error {
	if v < info.LowerBound || v > info.UpperBound {
		return fmt.Errorf("%w: setpoint %s outside [%s, %s]",
			ErrOutOfRangeValue, formatSetpoint(v), formatSetpoint(info.LowerBound), formatSetpoint(info.UpperBound))
	}
	if info.Resolution > 0 {
		// The step grid starts at the lower bound, which is not itself
		// guaranteed to be a multiple of the resolution.
		if r := math.Abs(math.Remainder(v-info.LowerBound, info.Resolution)); r > 1e-6 {
			return fmt.Errorf("%w: setpoint %s not a multiple of %v",
				ErrOutOfRangeValue, formatSetpoint(v), info.Resolution)
		}
	}
	return nil
}

func formatSetpoint(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func (s *Snapshot) thermostatPath(rec *DeviceRecord) string {
	info := rec.Thermostat
	if info.zoneActuator {
		return fmt.Sprintf("%s;id=%s/thermostat;id=%s", PathLocations, rec.Location, info.actuatorID)
	}
	return fmt.Sprintf("%s;id=%s/thermostat;id=%s", PathAppliances, rec.ID, info.actuatorID)
}

// BuildSetScheduleState activates or deactivates a schedule for a device's
// zone. An empty name targets the last active schedule.
func (s *Snapshot) BuildSetScheduleState(deviceID, name string, active bool) (*Payload, error) {
	rec, ok := s.Devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: device %s", ErrUnknownTarget, deviceID)
	}
	if name == "" {
		name = rec.LastActiveSchedule
	}
	if name == "" || name == ScheduleOff {
		return nil, fmt.Errorf("%w: no schedule to activate for device %s", ErrUnknownTarget, deviceID)
	}
	found := false
	for _, n := range rec.AvailableSchedules {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: schedule %q", ErrUnknownTarget, name)
	}
	ruleID, ok := s.schedules.ruleID(rec.Location, name)
	if !ok {
		return nil, fmt.Errorf("%w: schedule %q", ErrUnknownTarget, name)
	}
	body := fmt.Sprintf(
		`<rules><rule id="%s"><name><![CDATA[%s]]></name><template id="%s"/><active>%t</active></rule></rules>`,
		ruleID, name, s.schedules.templateID, active)
	return &Payload{
		Target: deviceID,
		Path:   fmt.Sprintf("%s;id=%s", PathRules, ruleID),
		Body:   body,
	}, nil
}

// BuildSetRelayState builds a relay write. A locked relay is a no-op under
// LockPolicyBlock and an advisory override under LockPolicyForce.
func (s *Snapshot) BuildSetRelayState(deviceID string, on bool, policy LockPolicy) (*Payload, error) {
	rec, ok := s.Devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: device %s", ErrUnknownTarget, deviceID)
	}
	if _, hasRelay := rec.Switches["relay"]; !hasRelay {
		return nil, fmt.Errorf("%w: device %s has no relay", ErrUnsupportedOperation, deviceID)
	}
	if rec.relayLocked {
		if policy == LockPolicyBlock {
			log.WithFields(log.Fields{"device": deviceID}).
				Info("relay is locked, dropping state change")
			return nil, nil
		}
		log.WithFields(log.Fields{"device": deviceID}).
			Warn("relay is locked, forcing state change")
	}
	state := "off"
	if on {
		state = "on"
	}
	path := fmt.Sprintf("%s;id=%s/relay", PathAppliances, rec.ID)
	if rec.relayActuatorID != "" {
		path += ";id=" + rec.relayActuatorID
	}
	return &Payload{
		Target: deviceID,
		Path:   path,
		Body:   fmt.Sprintf("<relay_functionality><state>%s</state></relay_functionality>", state),
	}, nil
}

// BuildSetPreset switches the zone of a thermostat device to a preset.
func (s *Snapshot) BuildSetPreset(deviceID, preset string) (*Payload, error) {
	rec, ok := s.Devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: device %s", ErrUnknownTarget, deviceID)
	}
	if len(rec.PresetModes) == 0 {
		return nil, fmt.Errorf("%w: device %s has no presets", ErrUnsupportedOperation, deviceID)
	}
	valid := false
	for _, p := range rec.PresetModes {
		if p == preset {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%w: preset %q", ErrOutOfRangeValue, preset)
	}
	zone, ok := s.zones[rec.Location]
	if !ok {
		return nil, fmt.Errorf("%w: zone %s", ErrUnknownTarget, rec.Location)
	}
	body := fmt.Sprintf(
		"<locations><location id=%q><name>%s</name><type>%s</type><preset>%s</preset></location></locations>",
		rec.Location, zone.name, zone.kind, preset)
	return &Payload{
		Target: deviceID,
		Path:   fmt.Sprintf("%s;id=%s", PathLocations, rec.Location),
		Body:   body,
	}, nil
}

// BuildSetRegulationMode switches the gateway heating regulation mode.
func (s *Snapshot) BuildSetRegulationMode(mode string) (*Payload, error) {
	gw := s.Devices[s.Gateway.GatewayID]
	if gw == nil || len(gw.RegulationModes) == 0 {
		return nil, fmt.Errorf("%w: gateway has no regulation mode control", ErrUnsupportedOperation)
	}
	if !containsString(gw.RegulationModes, mode) {
		return nil, fmt.Errorf("%w: regulation mode %q", ErrOutOfRangeValue, mode)
	}
	return &Payload{
		Target: gw.ID,
		Path:   fmt.Sprintf("%s;id=%s/regulation_mode_control;id=%s", PathAppliances, gw.ID, gw.regulationActuatorID),
		Body:   fmt.Sprintf("<regulation_mode_control_functionality><mode>%s</mode></regulation_mode_control_functionality>", mode),
	}, nil
}

// BuildSetGatewayMode switches the gateway operation mode.
func (s *Snapshot) BuildSetGatewayMode(mode string) (*Payload, error) {
	gw := s.Devices[s.Gateway.GatewayID]
	if gw == nil || len(gw.GatewayModes) == 0 {
		return nil, fmt.Errorf("%w: gateway has no mode control", ErrUnsupportedOperation)
	}
	if !containsString(gw.GatewayModes, mode) {
		return nil, fmt.Errorf("%w: gateway mode %q", ErrOutOfRangeValue, mode)
	}
	return &Payload{
		Target: gw.ID,
		Path:   fmt.Sprintf("%s;id=%s/gateway_mode_control;id=%s", PathAppliances, gw.ID, gw.gatewayModeActuatorID),
		Body:   fmt.Sprintf("<gateway_mode_control_functionality><mode>%s</mode></gateway_mode_control_functionality>", mode),
	}, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
