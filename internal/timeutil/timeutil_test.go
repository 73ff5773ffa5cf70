package timeutil

import (
	"testing"
	"time"
)

func TestGenerateDate(t *testing.T) {
	cases := map[int32]string{
		MinGenerateDate:        "1992-01-01",
		MinGenerateDate + 59:   "1992-02-29",
		MinGenerateDate + 2184: "1997-12-24",
		MaxGenerateDate:        "1998-12-31",
	}
	for day, want := range cases {
		if got := GenerateDate(day).Format(DateLayout); got != want {
			t.Fatalf("day %d: got %s want %s", day, got, want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"90s": 90 * time.Second,
		"2d":  48 * time.Hour,
		"1w":  7 * 24 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
	if _, err := ParseDuration(""); err == nil {
		t.Fatal("expected error for empty duration")
	}
	if _, err := ParseDuration("3y"); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}
