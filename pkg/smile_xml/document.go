package smile_xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

// DomainObjects is the root document served at /core/domain_objects.
type DomainObjects struct {
	XMLName       xml.Name       `xml:"domain_objects"`
	Gateway       *Gateway       `xml:"gateway"`
	Appliances    []Appliance    `xml:"appliance"`
	Locations     []Location     `xml:"location"`
	Modules       []Module       `xml:"module"`
	Rules         []Rule         `xml:"rule"`
	Groups        []Group        `xml:"group"`
	Notifications []Notification `xml:"notification"`
}

type Gateway struct {
	ID              string           `xml:"id,attr"`
	Name            string           `xml:"name"`
	Hostname        string           `xml:"hostname"`
	FirmwareVersion string           `xml:"firmware_version"`
	HardwareVersion string           `xml:"hardware_version"`
	MACAddress      string           `xml:"mac_address"`
	LANIP           string           `xml:"lan_ip"`
	WifiIP          string           `xml:"wifi_ip"`
	VendorName      string           `xml:"vendor_name"`
	VendorModel     string           `xml:"vendor_model"`
	Features        *GatewayFeatures `xml:"features"`
	Environment     *GatewayEnv      `xml:"gateway_environment"`
}

type GatewayFeatures struct {
	Cooling      *FeatureRef `xml:"cooling"`
	RemoteControl *FeatureRef `xml:"remote_control"`
}

type FeatureRef struct {
	ID string `xml:"id,attr"`
}

type GatewayEnv struct {
	Latitude  float64 `xml:"latitude"`
	Longitude float64 `xml:"longitude"`
}

type Appliance struct {
	ID          string     `xml:"id,attr"`
	Name        string     `xml:"name"`
	Description string     `xml:"description"`
	Type        string     `xml:"type"`
	Location    *Ref       `xml:"location"`
	Module      *Ref       `xml:"module"`
	Groups      []Ref      `xml:"groups>group"`
	Logs        LogSet     `xml:"logs"`
	Actuators   *Actuators `xml:"actuator_functionalities"`
}

type Location struct {
	ID         string     `xml:"id,attr"`
	Name       string     `xml:"name"`
	Type       string     `xml:"type"`
	Preset     string     `xml:"preset"`
	Appliances []Ref      `xml:"appliances>appliance"`
	Logs       LogSet     `xml:"logs"`
	Actuators  *Actuators `xml:"actuator_functionalities"`
}

type Ref struct {
	ID string `xml:"id,attr"`
}

type LogSet struct {
	PointLogs      []PointLog      `xml:"point_log"`
	CumulativeLogs []CumulativeLog `xml:"cumulative_log"`
	IntervalLogs   []IntervalLog   `xml:"interval_log"`
}

// PointLog carries the latest measurement of one type. The trailing element
// before <period> names the service the log belongs to (for example
// <thermostat id="..."/>), captured in Refs.
type PointLog struct {
	ID          string       `xml:"id,attr"`
	Type        string       `xml:"type"`
	Unit        string       `xml:"unit"`
	UpdatedDate string       `xml:"updated_date"`
	Period      *LogPeriod   `xml:"period"`
	Refs        []ServiceRef `xml:",any"`
}

type CumulativeLog struct {
	ID     string     `xml:"id,attr"`
	Type   string     `xml:"type"`
	Unit   string     `xml:"unit"`
	Period *LogPeriod `xml:"period"`
}

type IntervalLog struct {
	ID     string     `xml:"id,attr"`
	Type   string     `xml:"type"`
	Unit   string     `xml:"unit"`
	Period *LogPeriod `xml:"period"`
}

type LogPeriod struct {
	StartDate    string        `xml:"start_date,attr"`
	EndDate      string        `xml:"end_date,attr"`
	Measurements []Measurement `xml:"measurement"`
}

type Measurement struct {
	LogDate   string `xml:"log_date,attr"`
	Tariff    string `xml:"tariff,attr"`
	Directive string `xml:"directive,attr"`
	Value     string `xml:",chardata"`
}

type ServiceRef struct {
	XMLName xml.Name
	ID      string `xml:"id,attr"`
}

type Actuators struct {
	Thermostat     []ThermostatFunctionality `xml:"thermostat_functionality"`
	Relay          *RelayFunctionality       `xml:"relay_functionality"`
	OffsetFn       *OffsetFunctionality      `xml:"offset_functionality"`
	RegulationMode *ModeControl              `xml:"regulation_mode_control_functionality"`
	GatewayMode    *ModeControl              `xml:"gateway_mode_control_functionality"`
}

type ThermostatFunctionality struct {
	ID           string  `xml:"id,attr"`
	Type         string  `xml:"type"`
	Setpoint     string  `xml:"setpoint"`
	SetpointLow  string  `xml:"setpoint_low"`
	SetpointHigh string  `xml:"setpoint_high"`
	LowerBound   float64 `xml:"lower_bound"`
	UpperBound   float64 `xml:"upper_bound"`
	Resolution   float64 `xml:"resolution"`
	ControlState string  `xml:"control_state"`
	UpdatedDate  string  `xml:"updated_date"`
}

type RelayFunctionality struct {
	ID    string `xml:"id,attr"`
	State string `xml:"state"`
	Lock  string `xml:"lock"`
}

type OffsetFunctionality struct {
	ID     string  `xml:"id,attr"`
	Type   string  `xml:"type"`
	Offset float64 `xml:"offset"`
}

type ModeControl struct {
	ID           string   `xml:"id,attr"`
	Mode         string   `xml:"mode"`
	AllowedModes []string `xml:"allowed_modes>allowed_mode"`
	UpdatedDate  string   `xml:"updated_date"`
}

type Module struct {
	ID              string        `xml:"id,attr"`
	VendorName      string        `xml:"vendor_name"`
	VendorModel     string        `xml:"vendor_model"`
	HardwareVersion string        `xml:"hardware_version"`
	FirmwareVersion string        `xml:"firmware_version"`
	Services        ModuleServices `xml:"services"`
	Protocols       *Protocols    `xml:"protocols"`
}

type ModuleServices struct {
	Refs []ServiceRef `xml:",any"`
}

type Protocols struct {
	ZigBeeNode         *ZigBeeNode `xml:"zig_bee_node"`
	NetworkRouter      *ZigBeeNode `xml:"network_router"`
	NetworkCoordinator *ZigBeeNode `xml:"network_coordinator"`
	DSMRMain           *DSMRMain   `xml:"dsmrmain"`
}

type ZigBeeNode struct {
	MACAddress string `xml:"mac_address"`
	Type       string `xml:"type"`
	Reachable  string `xml:"reachable"`
}

type DSMRMain struct {
	SerialNumber string `xml:"serial"`
	DSMRVersion  string `xml:"dsmrmain_version"`
}

type Rule struct {
	ID           string          `xml:"id,attr"`
	Name         string          `xml:"name"`
	Template     *RuleTemplate   `xml:"template"`
	Active       string          `xml:"active"`
	ModifiedDate string          `xml:"modified_date"`
	Contexts     []RuleContext   `xml:"contexts>context"`
	Directives   []RuleDirective `xml:"directives>when>then"`
}

type RuleTemplate struct {
	ID  string `xml:"id,attr"`
	Tag string `xml:"tag,attr"`
}

type RuleContext struct {
	Zone RuleZone `xml:"zone"`
}

type RuleZone struct {
	Location Ref `xml:"location"`
}

type RuleDirective struct {
	Icon    string `xml:"icon,attr"`
	Preset  string `xml:"preset,attr"`
	Setpoint string `xml:"setpoint,attr"`
}

type Group struct {
	ID         string `xml:"id,attr"`
	Name       string `xml:"name"`
	Type       string `xml:"type"`
	Appliances []Ref  `xml:"appliances>appliance"`
}

type Notification struct {
	ID          string `xml:"id,attr"`
	Type        string `xml:"type"`
	Message     string `xml:"message"`
	CreatedDate string `xml:"created_date"`
}

var (
	docTypeMarker = []byte("<!DOCTYPE")
	entityMarker  = []byte("<!ENTITY")
)

// ParseDomainObjects decodes a /core/domain_objects response. External entity
// and doctype declarations are rejected before decoding. A payload that does
// not decode, or decodes to the wrong root element, yields
// ErrMalformedResponse; a well-formed document missing its gateway element
// yields ErrIncompleteResponse.
func ParseDomainObjects(data []byte) (*DomainObjects, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	upper := bytes.ToUpper(data)
	if bytes.Contains(upper, docTypeMarker) || bytes.Contains(upper, entityMarker) {
		return nil, fmt.Errorf("%w: entity declarations not allowed", ErrMalformedResponse)
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.Entity = map[string]string{}
	var doc DomainObjects
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}
	if doc.XMLName.Local != "domain_objects" {
		return nil, fmt.Errorf("%w: unexpected root element %q", ErrMalformedResponse, doc.XMLName.Local)
	}
	if doc.Gateway == nil || doc.Gateway.ID == "" {
		return nil, fmt.Errorf("%w: missing gateway", ErrIncompleteResponse)
	}
	return &doc, nil
}

// parseDate parses the timestamp format the gateway uses. Legacy firmwares
// occasionally emit a trailing offset without a colon.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999-0700", "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
