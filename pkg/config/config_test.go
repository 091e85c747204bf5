package config

import "testing"

func TestLoad_ScheduleDefaults(t *testing.T) {
	t.Setenv("CUTOFF_WEEKDAY", "")
	t.Setenv("CUTOFF_HOUR", "")
	t.Setenv("DELIVERY_WEEKDAYS", "")
	t.Setenv("MAX_MODIFICATIONS", "")

	cfg := Load()
	if cfg.Schedule.CutoffWeekday != "thursday" || cfg.Schedule.CutoffHour != 18 {
		t.Fatalf("unexpected cutoff: %s %d", cfg.Schedule.CutoffWeekday, cfg.Schedule.CutoffHour)
	}
	if len(cfg.Schedule.DeliveryWeekdays) != 3 {
		t.Fatalf("expected 3 delivery weekdays, got %v", cfg.Schedule.DeliveryWeekdays)
	}
	if cfg.Schedule.MaxModifications != 2 || cfg.Schedule.BookingWindowDays != 2 {
		t.Fatalf("unexpected limits: %+v", cfg.Schedule)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CUTOFF_HOUR", "20")
	t.Setenv("MAX_MODIFICATIONS", "not-a-number")
	t.Setenv("DELIVERY_WEEKDAYS", " fri , sat ,,")
	t.Setenv("PORT", "9090")
	t.Setenv("HTTP_ADDR", "")

	cfg := Load()
	if cfg.Schedule.CutoffHour != 20 {
		t.Fatalf("expected cutoff hour 20, got %d", cfg.Schedule.CutoffHour)
	}
	if cfg.Schedule.MaxModifications != 2 {
		t.Fatalf("expected fallback for invalid int, got %d", cfg.Schedule.MaxModifications)
	}
	if got := cfg.Schedule.DeliveryWeekdays; len(got) != 2 || got[0] != "fri" || got[1] != "sat" {
		t.Fatalf("unexpected weekdays: %q", got)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.HTTPAddr)
	}
}
