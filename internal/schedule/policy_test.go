package schedule

import (
	"testing"
	"time"

	"deliveries/pkg/config"
)

func testPolicy(t *testing.T) Policy {
	t.Helper()
	p, err := NewPolicy(config.ScheduleConfig{
		CutoffWeekday:     "thursday",
		CutoffHour:        18,
		DeliveryWeekdays:  []string{"friday", "saturday", "sunday"},
		MaxModifications:  2,
		BookingWindowDays: 2,
		Timezone:          "UTC",
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	return p
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestNextCutoff(t *testing.T) {
	p := testPolicy(t)

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"monday", at(2026, time.October, 19, 9, 0), at(2026, time.October, 22, 18, 0)},
		{"thursday morning", at(2026, time.October, 22, 9, 0), at(2026, time.October, 22, 18, 0)},
		{"thursday evening stays on the same day", at(2026, time.October, 22, 19, 0), at(2026, time.October, 22, 18, 0)},
		{"friday wraps to next week", at(2026, time.October, 23, 0, 30), at(2026, time.October, 29, 18, 0)},
	}
	for _, tc := range cases {
		if got := p.NextCutoff(tc.now); !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestCheck_MondayBookingForFridayAccepted(t *testing.T) {
	p := testPolicy(t)
	now := at(2026, time.October, 19, 10, 0)
	if v := p.Check(at(2026, time.October, 23, 0, 0), now); len(v) != 0 {
		t.Fatalf("expected no violations, got %+v", v)
	}
}

func TestCheck_PastCutoffRejected(t *testing.T) {
	p := testPolicy(t)
	friday := at(2026, time.October, 30, 0, 0)

	// Every minute from the cutoff to midnight on cutoff day is past the deadline.
	for now := at(2026, time.October, 22, 18, 0); now.Day() == 22; now = now.Add(7 * time.Minute) {
		v := p.Check(friday, now)
		if !hasCode(v, CodeDeadlinePassed) {
			t.Fatalf("now=%s: expected %s, got %+v", now, CodeDeadlinePassed, v)
		}
	}

	if v := p.Check(friday, at(2026, time.October, 22, 17, 59)); hasCode(v, CodeDeadlinePassed) {
		t.Fatalf("one minute before cutoff must be accepted, got %+v", v)
	}
}

func TestCheck_DisallowedWeekdaysAlwaysRejected(t *testing.T) {
	p := testPolicy(t)
	nows := []time.Time{
		at(2026, time.October, 19, 10, 0),
		at(2026, time.October, 22, 20, 0),
		at(2026, time.November, 1, 8, 0),
	}
	for _, now := range nows {
		for i := 0; i < 14; i++ {
			date := at(2026, time.November, 2, 0, 0).AddDate(0, 0, i)
			allowed := p.DeliveryDayAllowed(date)
			got := hasCode(p.Check(date, now), CodeDayNotAllowed)
			if allowed == got {
				t.Fatalf("date=%s (%s) now=%s: allowed=%v but violation=%v", date.Format("2006-01-02"), date.Weekday(), now, allowed, got)
			}
		}
	}
}

func TestCheck_AccumulatesViolations(t *testing.T) {
	p := testPolicy(t)
	now := at(2026, time.October, 22, 19, 0)
	// Wednesday in the past, after the cutoff.
	v := p.Check(at(2026, time.October, 21, 0, 0), now)
	if len(v) != 3 {
		t.Fatalf("expected 3 violations, got %+v", v)
	}
}

func TestCheck_TodayCountsAsPast(t *testing.T) {
	p := testPolicy(t)
	now := at(2026, time.October, 23, 0, 1)
	if v := p.Check(at(2026, time.October, 23, 0, 0), now); !hasCode(v, CodeDateInPast) {
		t.Fatalf("same day must be rejected, got %+v", v)
	}
	if v := p.Check(at(2026, time.October, 24, 0, 0), now); hasCode(v, CodeDateInPast) {
		t.Fatalf("tomorrow must be accepted, got %+v", v)
	}
}

func TestSuggestDate(t *testing.T) {
	p := testPolicy(t)
	monday := at(2026, time.October, 19, 10, 0)
	friday := at(2026, time.October, 23, 15, 0)

	cases := []struct {
		name      string
		now       time.Time
		preferred string
		want      time.Time
	}{
		{"preferred saturday", monday, "Saturday", at(2026, time.October, 24, 0, 0)},
		{"no preference", monday, "", at(2026, time.October, 23, 0, 0)},
		{"preference is not a delivery day", monday, "monday", at(2026, time.October, 23, 0, 0)},
		{"today is never suggested", friday, "friday", at(2026, time.October, 30, 0, 0)},
		{"tomorrow without preference", friday, "", at(2026, time.October, 24, 0, 0)},
	}
	for _, tc := range cases {
		if got := p.SuggestDate(tc.now, tc.preferred); !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
		if hasCode(p.Check(tc.want, tc.now), CodeDateInPast) {
			t.Fatalf("%s: suggestion must pass the past-date rule", tc.name)
		}
	}
}

func TestWindow(t *testing.T) {
	p := testPolicy(t)
	from, to := p.Window(at(2026, time.October, 23, 12, 0))
	if !from.Equal(at(2026, time.October, 21, 0, 0)) || !to.Equal(at(2026, time.October, 25, 0, 0)) {
		t.Fatalf("unexpected window %s..%s", from, to)
	}
}

func TestParseWeekday(t *testing.T) {
	cases := map[string]time.Weekday{
		"thursday": time.Thursday,
		"Thu":      time.Thursday,
		" SUN ":    time.Sunday,
		"5":        time.Friday,
		"0":        time.Sunday,
	}
	for in, want := range cases {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Fatalf("ParseWeekday(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "7", "th", "funday"} {
		if _, err := ParseWeekday(in); err == nil {
			t.Fatalf("ParseWeekday(%q): expected error", in)
		}
	}
}

func TestNewPolicy_Invalid(t *testing.T) {
	base := config.ScheduleConfig{CutoffWeekday: "thu", CutoffHour: 18, DeliveryWeekdays: []string{"fri"}}

	bad := base
	bad.CutoffHour = 24
	if _, err := NewPolicy(bad); err == nil {
		t.Fatalf("expected error for hour 24")
	}
	bad = base
	bad.DeliveryWeekdays = nil
	if _, err := NewPolicy(bad); err == nil {
		t.Fatalf("expected error for no delivery days")
	}
	bad = base
	bad.Timezone = "Mars/Olympus"
	if _, err := NewPolicy(bad); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func hasCode(vs []Violation, code string) bool {
	for _, v := range vs {
		if v.Code == code {
			return true
		}
	}
	return false
}

func TestParseDate(t *testing.T) {
	p := testPolicy(t)
	got, err := p.ParseDate(" 2026-10-23 ")
	if err != nil || !got.Equal(at(2026, time.October, 23, 0, 0)) {
		t.Fatalf("ParseDate = %s, %v", got, err)
	}
	if _, err := p.ParseDate("10/23/2026"); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}
