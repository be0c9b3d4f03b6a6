package domain

import (
	"testing"
	"time"
)

func TestMaskPin(t *testing.T) {
	cases := map[string]string{
		"1234":   "**34",
		"123456": "****56",
		"12":     "**",
		"":       "",
	}
	for pin, want := range cases {
		if got := MaskPin(pin); got != want {
			t.Fatalf("MaskPin(%q) = %q, want %q", pin, got, want)
		}
	}
}

func TestValidPinFormat(t *testing.T) {
	valid := []string{"1234", "123456", "0000"}
	invalid := []string{"123", "1234567", "12a4", "", "12 4"}
	for _, p := range valid {
		if !ValidPinFormat(p) {
			t.Fatalf("%q should be valid", p)
		}
	}
	for _, p := range invalid {
		if ValidPinFormat(p) {
			t.Fatalf("%q should be invalid", p)
		}
	}
}

func TestHealthAt(t *testing.T) {
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	seen := func(ago time.Duration) *time.Time {
		ts := now.Add(-ago)
		return &ts
	}

	cases := []struct {
		dev  Device
		want Health
	}{
		{Device{Enabled: false, LastSeenAt: seen(time.Minute)}, HealthDisabled},
		{Device{Enabled: true}, HealthOffline},
		{Device{Enabled: true, LastSeenAt: seen(2 * time.Minute)}, HealthOnline},
		{Device{Enabled: true, LastSeenAt: seen(10 * time.Minute)}, HealthStale},
		{Device{Enabled: true, LastSeenAt: seen(2 * time.Hour)}, HealthOffline},
	}
	for i, c := range cases {
		if got := c.dev.HealthAt(now); got != c.want {
			t.Fatalf("case %d: got %s, want %s", i, got, c.want)
		}
	}
}
