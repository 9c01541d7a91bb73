package protocol

// ExpertParameter identifies an attribute of a Vento Expert controller.
type ExpertParameter uint8

// Vento Expert parameters. Ids and widths follow the controller's
// connection guide; comments give the value range where it is fixed.
const (
	ExpertOnOff                    ExpertParameter = 0x01 // 0=off 1=on 2=toggle
	ExpertSpeed                    ExpertParameter = 0x02 // 1..3, 255=manual
	ExpertBoostMode                ExpertParameter = 0x06 // read-only, 0/1
	ExpertTimerMode                ExpertParameter = 0x07 // 0=off 1=night 2=party
	ExpertTimerCountdown           ExpertParameter = 0x08 // sec, min, hour
	ExpertActiveTimerCountdown     ExpertParameter = 0x0B // sec, min, hour
	ExpertHumiditySensorActivation ExpertParameter = 0x0F // 0/1/2
	ExpertRelaySensorActivation    ExpertParameter = 0x14
	ExpertVoltageSensorActivation  ExpertParameter = 0x16 // 0-10V sensor
	ExpertHumidityThreshold        ExpertParameter = 0x19 // 40..80 %RH
	ExpertRTCBatteryVoltage        ExpertParameter = 0x24 // 0..5000 mV
	ExpertCurrentHumidity          ExpertParameter = 0x25 // 0..100 %RH
	ExpertVoltageSensorState       ExpertParameter = 0x2D // 0..100
	ExpertRelaySensorState         ExpertParameter = 0x32
	ExpertManualSpeed              ExpertParameter = 0x44 // 0..255
	ExpertFan1RPM                  ExpertParameter = 0x4A
	ExpertFan2RPM                  ExpertParameter = 0x4B
	ExpertFilterTimer              ExpertParameter = 0x64 // min, hour, days
	ExpertResetFilterTimer         ExpertParameter = 0x65
	ExpertBoostDeactivationDelay   ExpertParameter = 0x66 // 0..60 min
	ExpertRTCTime                  ExpertParameter = 0x6F // sec, min, hour
	ExpertRTCCalendar              ExpertParameter = 0x70 // day, weekday, month, year
	ExpertWeeklySchedule           ExpertParameter = 0x72
	ExpertScheduleSetup            ExpertParameter = 0x77
	ExpertSearch                   ExpertParameter = SearchID
	ExpertPassword                 ExpertParameter = 0x7D
	ExpertMachineHours             ExpertParameter = 0x7E // min, hour, days(2)
	ExpertResetAlarms              ExpertParameter = 0x80
	ExpertReadAlarm                ExpertParameter = 0x83 // 0=none 1=alarm 2=warning
	ExpertCloudPermission          ExpertParameter = 0x85
	ExpertFirmwareVersion          ExpertParameter = 0x86 // major, minor, day, month, year(2)
	ExpertRestoreFactorySettings   ExpertParameter = 0x87
	ExpertFilterAlarm              ExpertParameter = 0x88
	ExpertWiFiMode                 ExpertParameter = 0x94 // 1=client 2=AP
	ExpertWiFiName                 ExpertParameter = 0x95
	ExpertWiFiPassword             ExpertParameter = 0x96
	ExpertWiFiEncryption           ExpertParameter = 0x99
	ExpertWiFiChannel              ExpertParameter = 0x9A
	ExpertWiFiDHCP                 ExpertParameter = 0x9B
	ExpertIPAddress                ExpertParameter = 0x9C
	ExpertSubnetMask               ExpertParameter = 0x9D
	ExpertGateway                  ExpertParameter = 0x9E
	ExpertCurrentIPAddress         ExpertParameter = 0xA3
	ExpertVentilationMode          ExpertParameter = 0xB7 // 0=ventilation 1=heat recovery 2=supply
	ExpertUnitType                 ExpertParameter = UnitTypeID
)

var expertCatalog = map[uint8]catalogEntry{
	0x01: {"ON_OFF", 1},
	0x02: {"SPEED", 1},
	0x06: {"BOOST_MODE", 1},
	0x07: {"TIMER_MODE", 1},
	0x08: {"TIMER_COUNT_DOWN", 3},
	0x0B: {"ACTIVE_TIMER_COUNT_DOWN", 3},
	0x0F: {"HUMIDITY_SENSOR_ACTIVATION", 1},
	0x14: {"RELAY_SENSOR_ACTIVATION", 1},
	0x16: {"VOLTAGE_SENSOR_ACTIVATION", 1},
	0x19: {"HUMIDITY_THRESHOLD", 1},
	0x24: {"CURRENT_RTC_BATTERY_VOLTAGE", 2},
	0x25: {"CURRENT_HUMIDITY", 1},
	0x2D: {"CURRENT_VOLTAGE_SENSOR_STATE", 1},
	0x32: {"CURRENT_RELAY_SENSOR_STATE", 1},
	0x44: {"MANUAL_SPEED", 1},
	0x4A: {"FAN1RPM", 2},
	0x4B: {"FAN2RPM", 2},
	0x64: {"FILTER_TIMER", 3},
	0x65: {"RESET_FILTER_TIMER", 1},
	0x66: {"BOOST_MODE_DEACTIVATION_DELAY", 1},
	0x6F: {"RTC_TIME", 3},
	0x70: {"RTC_CALENDAR", 4},
	0x72: {"WEEKLY_SCHEDULE", 1},
	0x77: {"SCHEDULE_SETUP", 6},
	0x7C: {"SEARCH", 16},
	0x7D: {"PASSWORD", SizeVariable},
	0x7E: {"MACHINE_HOURS", 4},
	0x80: {"RESET_ALARMS", 1},
	0x83: {"READ_ALARM", 1},
	0x85: {"CLOUD_SERVER_OPERATION_PERMISSION", 1},
	0x86: {"READ_FIRMWARE_VERSION", 6},
	0x87: {"RESTORE_FACTORY_SETTINGS", 1},
	0x88: {"FILTER_ALARM", 1},
	0x94: {"WIFI_MODE", 1},
	0x95: {"WIFI_NAME", SizeVariable},
	0x96: {"WIFI_PASSWORD", SizeVariable},
	0x99: {"WIFI_ENCRYPTION", 1},
	0x9A: {"WIFI_CHANNEL", 1},
	0x9B: {"WIFI_DHCP", 1},
	0x9C: {"IP_ADDRESS", 4},
	0x9D: {"SUBNET_MASK", 4},
	0x9E: {"GATEWAY", 4},
	0xA3: {"CURRENT_IP_ADDRESS", 4},
	0xB7: {"VENTILATION_MODE", 1},
	0xB9: {"UNIT_TYPE", 2},
}

// Size returns the encoded width of p, or SizeUnknown.
func (p ExpertParameter) Size() Size { return entrySize(expertCatalog, uint8(p)) }

// Known reports whether p is part of the Expert catalog.
func (p ExpertParameter) Known() bool {
	_, ok := lookup(expertCatalog, uint8(p))
	return ok
}

func (p ExpertParameter) String() string { return entryName(expertCatalog, uint8(p)) }

// ParseExpertParameter resolves a parameter name or id in the Expert catalog.
func ParseExpertParameter(s string) (ExpertParameter, error) {
	return ParseParameter[ExpertParameter](s)
}
