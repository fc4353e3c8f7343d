package smile_xml

// XML endpoints on the gateway.
const (
	PathDomainObjects = "/core/domain_objects"
	PathAppliances    = "/core/appliances"
	PathLocations     = "/core/locations"
	PathModules       = "/core/modules"
	PathRules         = "/core/rules"
	PathNotifications = "/core/notifications"
	PathGateways      = "/core/gateways"
)

// Device classes (closed enumeration).
const (
	ClassGateway                   = "gateway"
	ClassHeaterCentral             = "heater_central"
	ClassThermostat                = "thermostat"
	ClassZoneThermostat            = "zone_thermostat"
	ClassZoneThermometer           = "zone_thermometer"
	ClassThermostaticRadiatorValve = "thermostatic_radiator_valve"
	ClassThermoSensor              = "thermo_sensor"
	ClassPlug                      = "plug"
	ClassSmartmeter                = "smartmeter"
)

// Product families detected from the gateway vendor_model.
const (
	FamilyThermostat = "thermostat"
	FamilyPower      = "power"
	FamilyStretch    = "stretch"
)

// Units used by the formatting rules.
const (
	unitCelsius = "C"
	unitPercent = "%"
	unitWatt    = "W"
	unitKWh     = "kWh"
	unitWh      = "Wh"
	unitM3      = "m3"
	unitVolt    = "V"
	unitBar     = "bar"
	unitLumen   = "lm"
	unitNone    = ""
)

// Schedule rule template tags.
const (
	scheduleTemplateTag = "zone_preset_based_on_time_and_presence_with_override"
	presetTemplateTag   = "zone_setpoint_and_state_based_on_preset"
)

// ScheduleOff is always a valid selectable schedule value, even when no
// schedule rule exists.
const ScheduleOff = "off"

const (
	setpointMin = 4.0
	setpointMax = 30.0
)

type measurementKind int

const (
	kindSensor measurementKind = iota
	kindBinary
	kindSwitch
)

type measurement struct {
	rename string // output key when it differs from the log type
	unit   string
	kind   measurementKind
}

func (m measurement) key(logType string) string {
	if m.rename != "" {
		return m.rename
	}
	return logType
}

// Measurements a thermostat/plug class appliance may expose.
var deviceMeasurements = map[string]measurement{
	"temperature":            {unit: unitCelsius},
	"thermostat":             {rename: "setpoint", unit: unitCelsius},
	"battery":                {unit: unitPercent},
	"illuminance":            {unit: unitLumen},
	"humidity":               {unit: unitNone},
	"temperature_difference": {unit: unitCelsius},
	"valve_position":         {unit: unitPercent},
	"outdoor_temperature":    {unit: unitCelsius},
	"electricity_consumed":   {unit: unitWatt},
	"electricity_produced":   {unit: unitWatt},
	"cooling_activation_outdoor_temperature": {unit: unitCelsius},
	"cooling_deactivation_threshold":         {unit: unitCelsius},
	"relay": {kind: kindSwitch},
}

// Measurements only a heater_central appliance may expose.
var heaterCentralMeasurements = map[string]measurement{
	"boiler_temperature":              {rename: "water_temperature", unit: unitCelsius},
	"intended_boiler_temperature":     {unit: unitCelsius},
	"return_water_temperature":        {rename: "return_temperature", unit: unitCelsius},
	"central_heater_water_pressure":   {rename: "water_pressure", unit: unitBar},
	"modulation_level":                {unit: unitPercent},
	"domestic_hot_water_setpoint":     {unit: unitCelsius},
	"domestic_hot_water_temperature":  {rename: "dhw_temperature", unit: unitCelsius},
	"outdoor_temperature":             {rename: "outdoor_air_temperature", unit: unitCelsius},
	"elga_status_code":                {unit: unitNone},
	"flame_state":                     {kind: kindBinary},
	"boiler_state":                    {rename: "flame_state", kind: kindBinary}, // legacy
	"intended_central_heating_state":  {rename: "heating_state", kind: kindBinary},
	"central_heating_state":           {rename: "c_heating_state", kind: kindBinary}, // heatpump only
	"intended_boiler_state":           {rename: "heating_state", kind: kindBinary},   // legacy
	"cooling_state":                   {kind: kindBinary},
	"cooling_enabled":                 {kind: kindBinary},
	"compressor_state":                {kind: kindBinary},
	"domestic_hot_water_state":        {rename: "dhw_state", kind: kindBinary},
	"slave_boiler_state":              {rename: "secondary_boiler_state", kind: kindBinary},
	"thermostat_supports_cooling":     {kind: kindBinary},
	"domestic_hot_water_comfort_mode": {rename: "dhw_cm_switch", kind: kindSwitch},
}

// Metering measurements published per location (P1 family). Peak/off-peak and
// point/interval/cumulative variants expand into separate sensor keys.
var meterMeasurements = map[string]measurement{
	"electricity_consumed":              {unit: unitWatt},
	"electricity_produced":              {unit: unitWatt},
	"electricity_phase_one_consumed":    {unit: unitWatt},
	"electricity_phase_two_consumed":    {unit: unitWatt},
	"electricity_phase_three_consumed":  {unit: unitWatt},
	"electricity_phase_one_produced":    {unit: unitWatt},
	"electricity_phase_two_produced":    {unit: unitWatt},
	"electricity_phase_three_produced":  {unit: unitWatt},
	"gas_consumed":                      {unit: unitM3},
	"voltage_phase_one":                 {unit: unitVolt},
	"voltage_phase_two":                 {unit: unitVolt},
	"voltage_phase_three":               {unit: unitVolt},
}

// Thermostat-family classes ranked for primary election within a zone.
// Higher wins; losers are demoted to thermo_sensor.
var thermostatRank = map[string]int{
	ClassThermostat:                3,
	ClassZoneThermostat:            2,
	ClassZoneThermometer:           1,
	ClassThermostaticRadiatorValve: 1,
}

// Plug subtypes that never expose a relay lock.
var specialPlugTypes = map[string]bool{
	"central_heating_pump": true,
	"valve_actuator":       true,
	"heater_electric":      true,
}

var switchGroupTypes = map[string]bool{
	"switching": true,
	"report":    true,
}

// Known gateway products, keyed by vendor_model + "_v" + major version.
type smileProduct struct {
	family string
	name   string
	legacy bool
}

var smileProducts = map[string]smileProduct{
	"smile_v2":            {family: FamilyPower, name: "Smile P1", legacy: true},
	"smile_v3":            {family: FamilyPower, name: "Smile P1"},
	"smile_v4":            {family: FamilyPower, name: "Smile P1"},
	"smile_open_therm_v2": {family: FamilyThermostat, name: "Adam", legacy: true},
	"smile_open_therm_v3": {family: FamilyThermostat, name: "Adam"},
	"smile_thermo_v1":     {family: FamilyThermostat, name: "Smile Anna", legacy: true},
	"smile_thermo_v3":     {family: FamilyThermostat, name: "Smile Anna"},
	"smile_thermo_v4":     {family: FamilyThermostat, name: "Smile Anna"},
	"stretch_v2":          {family: FamilyStretch, name: "Stretch", legacy: true},
	"stretch_v3":          {family: FamilyStretch, name: "Stretch", legacy: true},
}

// Hardware version to marketing model name. Partial versions are matched on
// the middle 6 digits as a fallback.
var hardwareModels = map[string]string{
	"143.1":  "ThermoTouch",
	"159.2":  "Adam",
	"106-03": "Tom/Floor",
	"158-01": "Lisa",
	"160-01": "Plug",
	"168-01": "Jip",
	"090000": "Circle+ type B",
	"090007": "Circle+ type B",
	"090088": "Circle+ type E",
	"070073": "Circle+ type F",
	"090048": "Circle+ type G",
	"090079": "Circle type B",
	"090087": "Circle type E",
	"070140": "Circle type F",
	"090093": "Circle type G",
	"100025": "Circle",
	"090011": "Stealth",
	"001200": "Stealth",
	"080007": "Scan",
	"070030": "Sense",
	"070051": "Switch",
	"080029": "Switch",
}
