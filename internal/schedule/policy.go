package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"deliveries/pkg/config"
)

// Violation is one failed booking window rule.
type Violation struct {
	Code    string
	Message string
}

const (
	CodeDeadlinePassed = "DEADLINE_PASSED"
	CodeDayNotAllowed  = "DAY_NOT_ALLOWED"
	CodeDateInPast     = "DATE_IN_PAST"
)

// Policy is the weekly booking calendar: a cutoff instant recurring once a week, the weekdays
// deliveries may happen on, and the limits applied to bookings.
type Policy struct {
	CutoffWeekday    time.Weekday
	CutoffHour       int
	DeliveryDays     []time.Weekday
	MaxModifications int
	// WindowDays is the half-width of the one-booking-per-week window around a delivery date.
	WindowDays int
	Location   *time.Location
}

func NewPolicy(cfg config.ScheduleConfig) (Policy, error) {
	cutoff, err := ParseWeekday(cfg.CutoffWeekday)
	if err != nil {
		return Policy{}, fmt.Errorf("cutoff weekday: %w", err)
	}
	if cfg.CutoffHour < 0 || cfg.CutoffHour > 23 {
		return Policy{}, fmt.Errorf("cutoff hour out of range: %d", cfg.CutoffHour)
	}
	if len(cfg.DeliveryWeekdays) == 0 {
		return Policy{}, fmt.Errorf("at least one delivery weekday is required")
	}
	days := make([]time.Weekday, 0, len(cfg.DeliveryWeekdays))
	for _, s := range cfg.DeliveryWeekdays {
		d, err := ParseWeekday(s)
		if err != nil {
			return Policy{}, fmt.Errorf("delivery weekday: %w", err)
		}
		days = append(days, d)
	}
	if cfg.MaxModifications < 0 || cfg.BookingWindowDays < 0 {
		return Policy{}, fmt.Errorf("limits must not be negative")
	}

	loc := time.UTC
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return Policy{}, fmt.Errorf("timezone: %w", err)
		}
	}

	return Policy{
		CutoffWeekday:    cutoff,
		CutoffHour:       cfg.CutoffHour,
		DeliveryDays:     days,
		MaxModifications: cfg.MaxModifications,
		WindowDays:       cfg.BookingWindowDays,
		Location:         loc,
	}, nil
}

// ParseWeekday accepts full or three-letter English names (any case) or 0-6 with 0 = Sunday.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday out of range: %d", n)
		}
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday: %q", s)
}

func (p Policy) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Day truncates t to midnight of its calendar day in the policy's time zone.
func (p Policy) Day(t time.Time) time.Time {
	t = t.In(p.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.loc())
}

// ParseDate reads a YYYY-MM-DD calendar day in the policy's time zone.
func (p Policy) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), p.loc())
}

// NextCutoff returns the cutoff on the first day at or after now's calendar day that falls on the
// cutoff weekday. On the cutoff weekday itself that is today's cutoff, even once the hour has passed.
func (p Policy) NextCutoff(now time.Time) time.Time {
	d := p.Day(now)
	for d.Weekday() != p.CutoffWeekday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), p.CutoffHour, 0, 0, 0, p.loc())
}

func (p Policy) BeforeCutoff(now time.Time) bool {
	return now.Before(p.NextCutoff(now))
}

func (p Policy) DeliveryDayAllowed(date time.Time) bool {
	return p.weekdayAllowed(p.Day(date).Weekday())
}

func (p Policy) weekdayAllowed(wd time.Weekday) bool {
	for _, d := range p.DeliveryDays {
		if d == wd {
			return true
		}
	}
	return false
}

// SuggestDate returns the first delivery date after today. A preferred weekday is used when
// deliveries happen on it, otherwise any delivery day will do.
func (p Policy) SuggestDate(now time.Time, preferred string) time.Time {
	want, err := ParseWeekday(preferred)
	usePreferred := err == nil && p.weekdayAllowed(want)

	d := p.Day(now).AddDate(0, 0, 1)
	for i := 0; i < 7; i++ {
		if usePreferred && d.Weekday() == want || !usePreferred && p.DeliveryDayAllowed(d) {
			return d
		}
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Window returns the inclusive calendar-day range in which a second booking conflicts with date.
func (p Policy) Window(date time.Time) (from, to time.Time) {
	d := p.Day(date)
	return d.AddDate(0, 0, -p.WindowDays), d.AddDate(0, 0, p.WindowDays)
}

// Check evaluates the store-independent rules for a proposed delivery date and returns every
// violation, not just the first.
func (p Policy) Check(date, now time.Time) []Violation {
	var out []Violation

	if !p.BeforeCutoff(now) {
		out = append(out, Violation{
			Code:    CodeDeadlinePassed,
			Message: fmt.Sprintf("the modification deadline for this week (%s %s) has passed", p.CutoffWeekday, hourLabel(p.CutoffHour)),
		})
	}
	if !p.DeliveryDayAllowed(date) {
		out = append(out, Violation{
			Code:    CodeDayNotAllowed,
			Message: fmt.Sprintf("deliveries are only available on %s", p.deliveryDaysLabel()),
		})
	}
	// Same-day deliveries cannot be arranged, so today counts as past.
	if !p.Day(date).After(p.Day(now)) {
		out = append(out, Violation{
			Code:    CodeDateInPast,
			Message: "bookings must be made at least one day in advance",
		})
	}
	return out
}

func (p Policy) deliveryDaysLabel() string {
	names := make([]string, len(p.DeliveryDays))
	for i, d := range p.DeliveryDays {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}

func hourLabel(h int) string {
	return time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC).Format("3:04 PM")
}
