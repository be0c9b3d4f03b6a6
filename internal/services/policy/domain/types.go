// Package domain holds workforce policy types
package domain

import (
	"strconv"

	"brigade/internal/platform/money"
)

// Option keys recognized in stored policy rows
const (
	KeyDailyOTThresholdMinutes   = "daily_ot_threshold_minutes"
	KeyWeeklyOTThresholdMinutes  = "weekly_ot_threshold_minutes"
	KeyRoundingIntervalMinutes   = "rounding_interval_minutes"
	KeyRoundingMode              = "rounding_mode"
	KeyRequireApproval           = "require_approval"
	KeyAutoLockDays              = "auto_lock_days"
	KeyMealBreakAfterHours       = "meal_break_required_after_hours"
	KeyMealBreakMinimumMinutes   = "meal_break_minimum_minutes"
	KeyRestBreakAfterHours       = "rest_break_required_after_hours"
	KeyRestBreakMinimumMinutes   = "rest_break_minimum_minutes"
	KeyKioskPinRateLimitPerMin   = "kiosk_pin_rate_limit_per_minute"
	KeyKioskSessionTimeoutMin    = "kiosk_session_timeout_minutes"
	KeyKioskMaxInvalidPinsPerMin = "kiosk_max_invalid_pins_per_minute"
	KeyRequireGeofenceForKiosk   = "require_geofence_for_kiosk"
	KeyTaxPercent                = "tax_percent"
)

// Policy is the resolved per-org workforce configuration
type Policy struct {
	DailyOTThresholdMinutes      int
	WeeklyOTThresholdMinutes     int
	RoundingIntervalMinutes      int
	RoundingMode                 money.RoundingMode
	RequireApproval              bool
	AutoLockDays                 int
	MealBreakRequiredAfterHours  int
	MealBreakMinimumMinutes      int
	RestBreakRequiredAfterHours  int
	RestBreakMinimumMinutes      int
	KioskPinRateLimitPerMinute   int
	KioskSessionTimeoutMinutes   int
	KioskMaxInvalidPinsPerMinute int
	RequireGeofenceForKiosk      bool
	TaxPercent                   money.Decimal
}

// Defaults returns the policy every org starts from
func Defaults() Policy {
	return Policy{
		DailyOTThresholdMinutes:      480,
		WeeklyOTThresholdMinutes:     2400,
		RoundingIntervalMinutes:      15,
		RoundingMode:                 money.RoundNearest,
		RequireApproval:              true,
		AutoLockDays:                 7,
		MealBreakRequiredAfterHours:  6,
		MealBreakMinimumMinutes:      30,
		RestBreakRequiredAfterHours:  4,
		RestBreakMinimumMinutes:      10,
		KioskPinRateLimitPerMinute:   5,
		KioskSessionTimeoutMinutes:   720,
		KioskMaxInvalidPinsPerMinute: 10,
		RequireGeofenceForKiosk:      false,
		TaxPercent:                   money.Zero,
	}
}

// Apply overlays one stored row onto the policy.
// Unknown keys and malformed values are reported, never silently dropped
func (p *Policy) Apply(key, value string) error {
	switch key {
	case KeyDailyOTThresholdMinutes:
		return setInt(&p.DailyOTThresholdMinutes, value, 1)
	case KeyWeeklyOTThresholdMinutes:
		return setInt(&p.WeeklyOTThresholdMinutes, value, 1)
	case KeyRoundingIntervalMinutes:
		return setInt(&p.RoundingIntervalMinutes, value, 0)
	case KeyRoundingMode:
		m := money.RoundingMode(value)
		if !m.Valid() {
			return errBadValue(key, value)
		}
		p.RoundingMode = m
		return nil
	case KeyRequireApproval:
		return setBool(&p.RequireApproval, value)
	case KeyAutoLockDays:
		return setInt(&p.AutoLockDays, value, 0)
	case KeyMealBreakAfterHours:
		return setInt(&p.MealBreakRequiredAfterHours, value, 0)
	case KeyMealBreakMinimumMinutes:
		return setInt(&p.MealBreakMinimumMinutes, value, 0)
	case KeyRestBreakAfterHours:
		return setInt(&p.RestBreakRequiredAfterHours, value, 0)
	case KeyRestBreakMinimumMinutes:
		return setInt(&p.RestBreakMinimumMinutes, value, 0)
	case KeyKioskPinRateLimitPerMin:
		return setInt(&p.KioskPinRateLimitPerMinute, value, 1)
	case KeyKioskSessionTimeoutMin:
		return setInt(&p.KioskSessionTimeoutMinutes, value, 1)
	case KeyKioskMaxInvalidPinsPerMin:
		return setInt(&p.KioskMaxInvalidPinsPerMinute, value, 1)
	case KeyRequireGeofenceForKiosk:
		return setBool(&p.RequireGeofenceForKiosk, value)
	case KeyTaxPercent:
		d, err := money.FromString(value)
		if err != nil || d.IsNegative() {
			return errBadValue(key, value)
		}
		p.TaxPercent = d
		return nil
	default:
		return errUnknownKey(key)
	}
}

func setInt(dst *int, value string, min int) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < min {
		return errBadValue("", value)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return errBadValue("", value)
	}
	*dst = b
	return nil
}
