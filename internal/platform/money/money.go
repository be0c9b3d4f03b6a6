// Package money provides fixed-decimal helpers for monetary and hour arithmetic
//
// Intermediate math runs at scale 4 or better; persisted totals are scale 2.
// Float64 never touches a monetary value
package money

import (
	"github.com/shopspring/decimal"

	perr "brigade/internal/platform/errors"
)

// Decimal re-exports the underlying fixed-point type
type Decimal = decimal.Decimal

// Zero is the 0.00 constant
var Zero = decimal.Zero

// New builds a Decimal from an integer value and exponent
func New(value int64, exp int32) Decimal {
	return decimal.New(value, exp)
}

// FromString parses a decimal string, rejecting malformed input
func FromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, perr.Validationf("invalid decimal %q", s)
	}
	return d, nil
}

// Round2 rounds half away from zero to 2 places (persisted scale)
func Round2(d Decimal) Decimal {
	return d.Round(2)
}

// Round4 rounds half away from zero to 4 places (intermediate scale)
func Round4(d Decimal) Decimal {
	return d.Round(4)
}

// HoursFromMinutes converts whole minutes to 2dp hours
func HoursFromMinutes(mins int) Decimal {
	return decimal.NewFromInt(int64(mins)).Div(decimal.NewFromInt(60)).Round(2)
}

// FromMinutesAtRate computes pay for mins worked at an hourly rate, 2dp
func FromMinutesAtRate(mins int, hourlyRate Decimal) Decimal {
	return decimal.NewFromInt(int64(mins)).
		Mul(hourlyRate).
		Div(decimal.NewFromInt(60)).
		Round(2)
}

// Percent applies pct (e.g. 7.5 for 7.5%) to base at scale 4
func Percent(base, pct Decimal) Decimal {
	return base.Mul(pct).Div(decimal.NewFromInt(100)).Round(4)
}

// RoundingMode selects how minute totals snap to an interval
type RoundingMode string

// Recognized rounding modes
const (
	RoundNearest RoundingMode = "NEAREST"
	RoundUp      RoundingMode = "UP"
	RoundDown    RoundingMode = "DOWN"
)

// Valid reports whether m is one of the recognized modes
func (m RoundingMode) Valid() bool {
	switch m {
	case RoundNearest, RoundUp, RoundDown:
		return true
	}
	return false
}

// RoundMinutes snaps mins to the nearest multiple of interval per mode.
// An interval of 0 or 1 leaves mins untouched. NEAREST ties round up
func RoundMinutes(mins, interval int, mode RoundingMode) int {
	if interval <= 1 || mins <= 0 {
		if mins < 0 {
			return 0
		}
		return mins
	}
	q, r := mins/interval, mins%interval
	if r == 0 {
		return mins
	}
	switch mode {
	case RoundUp:
		return (q + 1) * interval
	case RoundDown:
		return q * interval
	default:
		if r*2 >= interval {
			return (q + 1) * interval
		}
		return q * interval
	}
}
