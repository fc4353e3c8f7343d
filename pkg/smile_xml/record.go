package smile_xml

// ThermostatInfo describes a device's setpoint actuator, including the bounds
// and resolution used to validate writes.
type ThermostatInfo struct {
	Setpoint     float64
	SetpointHigh float64
	SetpointLow  float64
	HeatCool     bool
	LowerBound   float64
	UpperBound   float64
	Resolution   float64

	actuatorID   string
	zoneActuator bool
}

// DeviceRecord is the normalized view of one device. The capability maps are
// always non-nil; a capability a device lacks is simply absent from its map.
type DeviceRecord struct {
	ID         string
	Class      string
	Name       string
	Model      string
	ModelID    string
	Vendor     string
	Firmware   string
	Hardware   string
	Location   string
	MACAddress string
	ZigbeeMAC  string
	Members    []string

	Available *bool

	Sensors       map[string]float64
	BinarySensors map[string]bool
	Switches      map[string]bool

	Thermostat *ThermostatInfo

	ControlState       string
	ClimateMode        string
	ActivePreset       string
	PresetModes        []string
	AvailableSchedules []string
	SelectedSchedule   string
	LastActiveSchedule string

	RegulationModes        []string
	SelectedRegulationMode string
	GatewayModes           []string
	SelectedGatewayMode    string

	relayActuatorID string
	relayLocked     bool

	regulationActuatorID  string
	gatewayModeActuatorID string
}

func newDeviceRecord(id, class string) *DeviceRecord {
	return &DeviceRecord{
		ID:            id,
		Class:         class,
		Sensors:       map[string]float64{},
		BinarySensors: map[string]bool{},
		Switches:      map[string]bool{},
	}
}

// RelayLocked reports whether the device's relay is lock-protected against
// state changes.
func (d *DeviceRecord) RelayLocked() bool {
	return d.relayLocked
}
