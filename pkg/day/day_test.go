package day

import (
	"testing"
	"time"
)

func fixed(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 23, 30, 0, 0, time.Local) }
}

func TestNormalizeKeywords(t *testing.T) {
	n := Normalizer{Yesterday: true, Now: fixed(2026, time.March, 1)}
	tests := []struct {
		in   string
		want string
	}{
		{"", "2026-03-01"},
		{"today", "2026-03-01"},
		{"bugün", "2026-03-01"},
		{"BUGÜN", "2026-03-01"},
		{"bugün", "2026-03-01"}, // decomposed ü
		{"tomorrow", "2026-03-02"},
		{"yarın", "2026-03-02"},
		{"YARIN", "2026-03-02"},
		{"yarin", "2026-03-02"},
		{"bugun", "2026-03-01"},
		{"dun", "2026-02-28"},
		{"yesterday", "2026-02-28"},
		{"dün", "2026-02-28"},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeZeroPadded(t *testing.T) {
	n := Normalizer{Now: fixed(2026, time.January, 8)}
	if got := n.Normalize("tomorrow"); got != "2026-01-09" {
		t.Errorf("got %q, want 2026-01-09", got)
	}
}

func TestNormalizeYearBoundary(t *testing.T) {
	n := Normalizer{Now: fixed(2026, time.December, 31)}
	if got := n.Normalize("yarın"); got != "2027-01-01" {
		t.Errorf("got %q, want 2027-01-01", got)
	}
}

func TestNormalizeYesterdayDisabled(t *testing.T) {
	n := Normalizer{Now: fixed(2026, time.March, 1)}
	for _, in := range []string{"yesterday", "dün"} {
		if got := n.Normalize(in); got != in {
			t.Errorf("Normalize(%q) = %q, want passthrough", in, got)
		}
	}
}

func TestNormalizePassthrough(t *testing.T) {
	n := Normalizer{Yesterday: true}
	for _, in := range []string{"2026-10-19", " 2026-10-19 ", " today", "tomorrow\n", "next week", "19/10/2026"} {
		if got := n.Normalize(in); got != in {
			t.Errorf("Normalize(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestNormalizeDefaultClock(t *testing.T) {
	var n Normalizer
	want := time.Now().Format(Layout)
	got := n.Normalize("today")
	if got != want && got != time.Now().Format(Layout) {
		t.Errorf("Normalize(today) = %q, want %q", got, want)
	}
	if n.Today() != n.Normalize("") && n.Today() != time.Now().Format(Layout) {
		t.Error("Today and empty input disagree")
	}
}
