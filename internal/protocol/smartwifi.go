package protocol

// SmartWiFiParameter identifies an attribute of a Smart Wi-Fi controller.
// Ids overlap numerically with ExpertParameter but carry different meanings.
type SmartWiFiParameter uint8

// Smart Wi-Fi parameters.
const (
	SmartWiFiFanOnOff                 SmartWiFiParameter = 0x01 // 0=off 1=on 2=toggle
	SmartWiFiBatteryStatus            SmartWiFiParameter = 0x02 // 0=discharged 1=normal
	SmartWiFiMode24H                  SmartWiFiParameter = 0x03
	SmartWiFiCurrentRPM               SmartWiFiParameter = 0x04 // 0..6000
	SmartWiFiBoostMode                SmartWiFiParameter = 0x05
	SmartWiFiBoostTimerCountdown      SmartWiFiParameter = 0x06 // sec, min, hour
	SmartWiFiStatusBuiltinTimer       SmartWiFiParameter = 0x07
	SmartWiFiStatusHumiditySensor     SmartWiFiParameter = 0x08
	SmartWiFiStatusTempSensor         SmartWiFiParameter = 0x0A
	SmartWiFiStatusMotionSensor       SmartWiFiParameter = 0x0B
	SmartWiFiStatusExternalSwitch     SmartWiFiParameter = 0x0C
	SmartWiFiStatusIntervalMode       SmartWiFiParameter = 0x0D
	SmartWiFiStatusSilentMode         SmartWiFiParameter = 0x0E
	SmartWiFiHumiditySensorPermission SmartWiFiParameter = 0x0F
	SmartWiFiTempSensorPermission     SmartWiFiParameter = 0x11
	SmartWiFiMotionSensorPermission   SmartWiFiParameter = 0x12
	SmartWiFiExternalSwitchPermission SmartWiFiParameter = 0x13
	SmartWiFiMaxSpeedSetpoint         SmartWiFiParameter = 0x18 // 30..100 %
	SmartWiFiSilentSpeedSetpoint      SmartWiFiParameter = 0x1A // 30..100 %
	SmartWiFiIntervalSpeedSetpoint    SmartWiFiParameter = 0x1B // 30..100 %
	SmartWiFiIntervalModeActivation   SmartWiFiParameter = 0x1D
	SmartWiFiSilentModeActivation     SmartWiFiParameter = 0x1E
	SmartWiFiSilentModeStartTime      SmartWiFiParameter = 0x1F
	SmartWiFiSilentModeEndTime        SmartWiFiParameter = 0x20
	SmartWiFiCurrentTime              SmartWiFiParameter = 0x21
	SmartWiFiTurnOffDelayTimer        SmartWiFiParameter = 0x23
	SmartWiFiTurnOnDelayTimer         SmartWiFiParameter = 0x24
	SmartWiFiFactoryReset             SmartWiFiParameter = 0x25
	SmartWiFiDeviceSearch             SmartWiFiParameter = SearchID
	SmartWiFiFirmwareVersion          SmartWiFiParameter = 0x86
	SmartWiFiWiFiMode                 SmartWiFiParameter = 0x94
	SmartWiFiWiFiName                 SmartWiFiParameter = 0x95
	SmartWiFiWiFiPassword             SmartWiFiParameter = 0x96
	SmartWiFiWiFiEncryption           SmartWiFiParameter = 0x99
	SmartWiFiWiFiChannel              SmartWiFiParameter = 0x9A
	SmartWiFiWiFiDHCP                 SmartWiFiParameter = 0x9B
	SmartWiFiIPAddress                SmartWiFiParameter = 0x9C
	SmartWiFiSubnetMask               SmartWiFiParameter = 0x9D
	SmartWiFiGateway                  SmartWiFiParameter = 0x9E
	SmartWiFiApplySettings            SmartWiFiParameter = 0xA0
	SmartWiFiCurrentIPAddress         SmartWiFiParameter = 0xA3
	SmartWiFiUnitType                 SmartWiFiParameter = UnitTypeID
)

var smartWiFiCatalog = map[uint8]catalogEntry{
	0x01: {"FAN_ONOFF", 1},
	0x02: {"BATTERY_STATUS", 1},
	0x03: {"MODE_24H", 1},
	0x04: {"CURRENT_RPM", 2},
	0x05: {"BOOST_MODE", 1},
	0x06: {"BOOST_TIMER_COUNTDOWN", 3},
	0x07: {"STATUS_BUILTIN_TIMER", 1},
	0x08: {"STATUS_HUMIDITY_SENSOR", 1},
	0x0A: {"STATUS_TEMP_SENSOR", 1},
	0x0B: {"STATUS_MOTION_SENSOR", 1},
	0x0C: {"STATUS_EXTERNAL_SWITCH", 1},
	0x0D: {"STATUS_INTERVAL_MODE", 1},
	0x0E: {"STATUS_SILENT_MODE", 1},
	0x0F: {"HUMIDITY_SENSOR_PERMISSION", 1},
	0x11: {"TEMP_SENSOR_PERMISSION", 1},
	0x12: {"MOTION_SENSOR_PERMISSION", 1},
	0x13: {"EXTERNAL_SWITCH_PERMISSION", 1},
	0x18: {"MAX_SPEED_SETPOINT", 1},
	0x1A: {"SILENT_SPEED_SETPOINT", 1},
	0x1B: {"INTERVAL_SPEED_SETPOINT", 1},
	0x1D: {"INTERVAL_MODE_ACTIVATION", 1},
	0x1E: {"SILENT_MODE_ACTIVATION", 1},
	0x1F: {"SILENT_MODE_START_TIME", 3},
	0x20: {"SILENT_MODE_END_TIME", 3},
	0x21: {"CURRENT_TIME", 3},
	0x23: {"TURNOFF_DELAY_TIMER", 1},
	0x24: {"TURNON_DELAY_TIMER", 1},
	0x25: {"FACTORY_RESET", 1},
	0x7C: {"DEVICE_SEARCH", 16},
	0x86: {"FIRMWARE_VERSION", 6},
	0x94: {"WIFI_MODE", 1},
	0x95: {"WIFI_NAME", SizeVariable},
	0x96: {"WIFI_PASSWORD", SizeVariable},
	0x99: {"WIFI_ENCRYPTION", 1},
	0x9A: {"WIFI_CHANNEL", 1},
	0x9B: {"WIFI_DHCP", 1},
	0x9C: {"IP_ADDRESS", 4},
	0x9D: {"SUBNET_MASK", 4},
	0x9E: {"GATEWAY", 4},
	0xA0: {"WIFI_APPLY_SETTINGS", 1},
	0xA3: {"CURRENT_IP_ADDRESS", 4},
	0xB9: {"UNIT_TYPE", 2},
}

// Size returns the encoded width of p, or SizeUnknown.
func (p SmartWiFiParameter) Size() Size { return entrySize(smartWiFiCatalog, uint8(p)) }

// Known reports whether p is part of the Smart Wi-Fi catalog.
func (p SmartWiFiParameter) Known() bool {
	_, ok := lookup(smartWiFiCatalog, uint8(p))
	return ok
}

func (p SmartWiFiParameter) String() string { return entryName(smartWiFiCatalog, uint8(p)) }

// ParseSmartWiFiParameter resolves a parameter name or id in the Smart Wi-Fi catalog.
func ParseSmartWiFiParameter(s string) (SmartWiFiParameter, error) {
	return ParseParameter[SmartWiFiParameter](s)
}
