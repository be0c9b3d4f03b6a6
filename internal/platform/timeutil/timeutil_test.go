package timeutil

import (
	"testing"
	"time"
)

func TestPtr(t *testing.T) {
	if Ptr(time.Time{}) != nil {
		t.Fatal("Ptr(zero) should be nil")
	}
	now := time.Now()
	p := Ptr(now)
	if p == nil || !p.Equal(now) {
		t.Fatalf("Ptr(now) = %v", p)
	}
}

func TestMinutesBetween(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		b    time.Time
		want int
	}{
		{"exact hour", base.Add(60 * time.Minute), 60},
		{"rounds down sub-half", base.Add(90*time.Minute + 20*time.Second), 90},
		{"rounds up over-half", base.Add(90*time.Minute + 40*time.Second), 91},
		{"negative", base.Add(-30 * time.Minute), -30},
		{"zero", base, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MinutesBetween(base, tc.b); got != tc.want {
				t.Fatalf("MinutesBetween = %d want %d", got, tc.want)
			}
		})
	}
}

func TestDayOf(t *testing.T) {
	in := time.Date(2025, 6, 3, 22, 15, 44, 999, time.FixedZone("X", -5*3600))
	got := DayOf(in)
	want := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DayOf = %v want %v", got, want)
	}
}

func TestWeekStart(t *testing.T) {
	// 2025-06-04 is a Wednesday
	wed := time.Date(2025, 6, 4, 13, 30, 0, 0, time.UTC)
	cases := []struct {
		name  string
		start time.Weekday
		want  time.Time
	}{
		{"monday start", time.Monday, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
		{"sunday start", time.Sunday, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"same day", time.Wednesday, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)},
		{"thursday wraps", time.Thursday, time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WeekStart(wed, tc.start); !got.Equal(tc.want) {
				t.Fatalf("WeekStart = %v want %v", got, tc.want)
			}
		})
	}
}

func TestISO(t *testing.T) {
	if got := ISO(time.Time{}); got != "" {
		t.Fatalf("ISO(zero) = %q", got)
	}
	in := time.Date(2025, 6, 4, 13, 30, 5, 0, time.FixedZone("X", 2*3600))
	if got := ISO(in); got != "2025-06-04T11:30:05Z" {
		t.Fatalf("ISO = %q", got)
	}
	if got := ISODate(in); got != "2025-06-04" {
		t.Fatalf("ISODate = %q", got)
	}
}
