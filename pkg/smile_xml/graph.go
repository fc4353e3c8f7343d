package smile_xml

import (
	"regexp"
	"strconv"
	"strings"
)

// objectGraph indexes one decoded document for classification. It is rebuilt
// on every refresh and never mutated afterwards.
type objectGraph struct {
	doc           *DomainObjects
	appliancesByID map[string]*Appliance
	locationsByID  map[string]*Location
	// moduleByService resolves any service id (point_log ref, actuator id)
	// to the module hosting it.
	moduleByService map[string]*Module
	// lowBatteryMACs holds zigbee MAC addresses flagged by battery
	// notifications.
	lowBatteryMACs map[string]bool
}

var zigbeeMACPattern = regexp.MustCompile(`[0-9A-F]{16}`)

func newObjectGraph(doc *DomainObjects) *objectGraph {
	g := &objectGraph{
		doc:             doc,
		appliancesByID:  make(map[string]*Appliance, len(doc.Appliances)),
		locationsByID:   make(map[string]*Location, len(doc.Locations)),
		moduleByService: make(map[string]*Module),
		lowBatteryMACs:  make(map[string]bool),
	}
	for i := range doc.Appliances {
		a := &doc.Appliances[i]
		g.appliancesByID[a.ID] = a
	}
	for i := range doc.Locations {
		l := &doc.Locations[i]
		g.locationsByID[l.ID] = l
	}
	for i := range doc.Modules {
		m := &doc.Modules[i]
		for _, svc := range m.Services.Refs {
			if svc.ID != "" {
				g.moduleByService[svc.ID] = m
			}
		}
	}
	for _, n := range doc.Notifications {
		if !strings.Contains(n.Message, "Battery") || !strings.Contains(n.Message, "below") {
			continue
		}
		for _, mac := range zigbeeMACPattern.FindAllString(n.Message, -1) {
			g.lowBatteryMACs[mac] = true
		}
	}
	return g
}

// moduleFor resolves an appliance's module, preferring the direct module ref
// and falling back to a service id found in its point logs.
func (g *objectGraph) moduleFor(a *Appliance) *Module {
	if a.Module != nil && a.Module.ID != "" {
		for i := range g.doc.Modules {
			if g.doc.Modules[i].ID == a.Module.ID {
				return &g.doc.Modules[i]
			}
		}
	}
	for _, log := range a.Logs.PointLogs {
		for _, ref := range log.Refs {
			if m, ok := g.moduleByService[ref.ID]; ok {
				return m
			}
		}
	}
	return nil
}

// latestPointValue returns the most recent measurement of the given log type,
// as raw text.
func latestPointValue(logs LogSet, logType string) (string, bool) {
	for _, l := range logs.PointLogs {
		if l.Type != logType || l.Period == nil || len(l.Period.Measurements) == 0 {
			continue
		}
		best := l.Period.Measurements[0]
		bestDate, _ := parseDate(best.LogDate)
		for _, m := range l.Period.Measurements[1:] {
			if d, ok := parseDate(m.LogDate); ok && d.After(bestDate) {
				best, bestDate = m, d
			}
		}
		return strings.TrimSpace(best.Value), true
	}
	return "", false
}

func latestPointFloat(logs LogSet, logType string) (float64, bool) {
	raw, ok := latestPointValue(logs, logType)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func latestPointBool(logs LogSet, logType string) (bool, bool) {
	raw, ok := latestPointValue(logs, logType)
	if !ok {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}
	return false, false
}

func (g *objectGraph) zigbeeMAC(m *Module) (mac string, reachable *bool) {
	if m == nil || m.Protocols == nil {
		return "", nil
	}
	var node *ZigBeeNode
	switch {
	case m.Protocols.ZigBeeNode != nil:
		node = m.Protocols.ZigBeeNode
	case m.Protocols.NetworkRouter != nil:
		node = m.Protocols.NetworkRouter
	case m.Protocols.NetworkCoordinator != nil:
		node = m.Protocols.NetworkCoordinator
	default:
		return "", nil
	}
	if node.Reachable != "" {
		r := strings.EqualFold(node.Reachable, "true")
		reachable = &r
	}
	return node.MACAddress, reachable
}
