package smile_xml

import (
	"sort"
	"strconv"
	"time"
)

// scheduleIndex maps schedule names back to their rule ids so command
// building can target the right rule without re-reading the document.
type scheduleIndex struct {
	// byZone maps location id to schedule name to rule id. Legacy
	// gateways have a single unzoned entry under the empty key.
	byZone     map[string]map[string]string
	templateID string
}

func (s *scheduleIndex) ruleID(zone, name string) (string, bool) {
	if m, ok := s.byZone[zone]; ok {
		if id, found := m[name]; found {
			return id, true
		}
	}
	if m, ok := s.byZone[""]; ok {
		if id, found := m[name]; found {
			return id, true
		}
	}
	return "", false
}

// resolveSchedules fills the schedule and preset fields of every thermostat
// record and returns the index used for writes.
func resolveSchedules(g *objectGraph, ctx *GatewayContext, devices map[string]*DeviceRecord) *scheduleIndex {
	idx := &scheduleIndex{byZone: map[string]map[string]string{}}

	type zoneSchedule struct {
		name     string
		active   bool
		valid    bool
		modified time.Time
	}
	byZone := map[string][]zoneSchedule{}
	var presets []string
	seenPresets := map[string]bool{}

	for i := range g.doc.Rules {
		r := &g.doc.Rules[i]
		if r.Template == nil {
			continue
		}
		switch r.Template.Tag {
		case presetTemplateTag:
			for _, d := range r.Directives {
				if d.Preset != "" && !seenPresets[d.Preset] {
					seenPresets[d.Preset] = true
					presets = append(presets, d.Preset)
				}
			}
			continue
		case scheduleTemplateTag:
		default:
			continue
		}
		if idx.templateID == "" {
			idx.templateID = r.Template.ID
		}
		modified, _ := parseDate(r.ModifiedDate)
		sched := zoneSchedule{
			name:     r.Name,
			active:   r.Active == "true",
			valid:    scheduleUsable(r),
			modified: modified,
		}
		zones := ruleZones(r)
		if len(zones) == 0 {
			// Unzoned schedule, applies gateway-wide.
			zones = []string{""}
		}
		for _, zone := range zones {
			byZone[zone] = append(byZone[zone], sched)
			if _, ok := idx.byZone[zone]; !ok {
				idx.byZone[zone] = map[string]string{}
			}
			idx.byZone[zone][r.Name] = r.ID
		}
	}

	for _, rec := range devices {
		if rec.Thermostat == nil && rec.Class != ClassThermostaticRadiatorValve {
			continue
		}
		scheds := byZone[rec.Location]
		if len(scheds) == 0 {
			scheds = byZone[""]
		}
		rec.SelectedSchedule = ScheduleOff
		rec.LastActiveSchedule = ScheduleOff
		if len(scheds) == 0 {
			if len(presets) > 0 {
				rec.PresetModes = append([]string{}, presets...)
			}
			continue
		}
		names := make([]string, 0, len(scheds))
		var lastActive zoneSchedule
		for _, s := range scheds {
			names = append(names, s.name)
			if s.active {
				rec.SelectedSchedule = s.name
			}
			// Only schedules that still carry a setpoint qualify for
			// re-enabling.
			if !s.valid {
				continue
			}
			if lastActive.name == "" || s.modified.After(lastActive.modified) {
				lastActive = s
			}
		}
		sort.Strings(names)
		rec.AvailableSchedules = names
		if lastActive.name != "" {
			rec.LastActiveSchedule = lastActive.name
		}
		if len(presets) > 0 {
			rec.PresetModes = append([]string{}, presets...)
		}
	}
	return idx
}

func ruleZones(r *Rule) []string {
	var zones []string
	for _, c := range r.Contexts {
		if c.Zone.Location.ID != "" {
			zones = append(zones, c.Zone.Location.ID)
		}
	}
	return zones
}

// scheduleUsable reports whether the rule still holds at least one directive
// with a numeric setpoint. Zone reconfiguration can strip a schedule down to
// an empty shell that the gateway would refuse to run.
func scheduleUsable(r *Rule) bool {
	for _, d := range r.Directives {
		if _, err := strconv.ParseFloat(d.Setpoint, 64); err == nil {
			return true
		}
	}
	return false
}
