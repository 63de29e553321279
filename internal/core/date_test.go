package core

import "testing"

func TestAddMonthsClampsShortMonths(t *testing.T) {
	cases := []struct {
		name string
		in   Date
		n    int
		want Date
	}{
		{"jan 31 to feb", NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)}, // leap year
		{"jan 31 to feb non-leap", NewDate(2025, 1, 31), 1, NewDate(2025, 2, 28)},
		{"jan 31 two months", NewDate(2025, 1, 31), 2, NewDate(2025, 3, 31)},
		{"dec to jan wraps year", NewDate(2024, 12, 15), 1, NewDate(2025, 1, 15)},
		{"backwards", NewDate(2025, 3, 31), -1, NewDate(2025, 2, 28)},
		{"may 31 to june", NewDate(2025, 5, 31), 1, NewDate(2025, 6, 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.AddMonths(tc.n); !got.Equal(tc.want) {
				t.Errorf("AddMonths(%d) = %s, want %s", tc.n, got.ISO(), tc.want.ISO())
			}
		})
	}
}

func TestClampedDate(t *testing.T) {
	cases := []struct {
		name             string
		year, month, day int
		want             Date
	}{
		{"normal", 2025, 4, 10, NewDate(2025, 4, 10)},
		{"feb 31 clamps", 2025, 2, 31, NewDate(2025, 2, 28)},
		{"feb 31 leap clamps", 2024, 2, 31, NewDate(2024, 2, 29)},
		{"month overflow", 2025, 13, 15, NewDate(2026, 1, 15)},
		{"month overflow then clamp", 2025, 14, 31, NewDate(2026, 2, 28)},
		{"month zero", 2025, 0, 10, NewDate(2024, 12, 10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampedDate(tc.year, tc.month, tc.day); !got.Equal(tc.want) {
				t.Errorf("ClampedDate(%d,%d,%d) = %s, want %s", tc.year, tc.month, tc.day, got.ISO(), tc.want.ISO())
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(NewDate(2025, 3, 5)) {
		t.Errorf("got %s", d.ISO())
	}
	if d.ISO() != "2025-03-05" {
		t.Errorf("ISO() = %q", d.ISO())
	}

	if _, err := ParseDate("05/03/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if _, err := ParseDate(""); err == nil {
		t.Error("expected error for empty date")
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year, month, want int
	}{
		{2024, 2, 29},
		{2025, 2, 28},
		{2025, 4, 30},
		{2025, 12, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}
