package controller

import "math"

// ManualSpeedToPercent converts a raw MANUAL_SPEED byte to 0-100 %.
func ManualSpeedToPercent(raw uint8) int {
	return int(math.Round(float64(raw) / 255 * 100))
}

// PercentToManualSpeed converts 0-100 % to a raw MANUAL_SPEED byte.
// Values outside the range are clamped.
func PercentToManualSpeed(percent int) uint8 {
	switch {
	case percent <= 0:
		return 0
	case percent >= 100:
		return 255
	}
	return uint8(math.Round(float64(percent) / 100 * 255))
}
