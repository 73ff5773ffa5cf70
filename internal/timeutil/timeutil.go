package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Generated dates are encoded as YYDDD day numbers starting at 92001
// (1992-01-01) and spanning TotalDateRange consecutive days.
const (
	MinGenerateDate = 92001
	TotalDateRange  = 2557
	MaxGenerateDate = MinGenerateDate + TotalDateRange - 1

	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

var generateEpoch = time.Date(1992, time.January, 1, 0, 0, 0, 0, time.UTC)

// GenerateDate converts a day number to midnight UTC of that day.
func GenerateDate(day int32) time.Time {
	return generateEpoch.AddDate(0, 0, int(day-MinGenerateDate))
}

func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("empty duration string")
	}

	if dur, err := time.ParseDuration(s); err == nil {
		return dur, nil
	}

	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	numStr := s[:len(s)-1]
	unit := s[len(s)-1:]

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration number: %s", numStr)
	}

	switch unit {
	case "d":
		return time.Duration(num) * 24 * time.Hour, nil
	case "w":
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration unit: %s", unit)
	}
}
