package generators

import (
	"database/sql/driver"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmrzaf/sbgen/internal/timeutil"
)

// Decimal is a monetary or distance amount held in hundredths.
type Decimal int64

func (d Decimal) Decimal() decimal.Decimal { return decimal.New(int64(d), -2) }

func (d Decimal) String() string { return d.Decimal().StringFixed(2) }

func (d Decimal) Value() (driver.Value, error) { return d.String(), nil }

func (d Decimal) MarshalJSON() ([]byte, error) { return []byte(d.String()), nil }

// Timestamp is a generate-date day number plus a time of day, all UTC.
type Timestamp struct {
	Day                  int32
	Hour, Minute, Second int32
}

func (t Timestamp) Time() time.Time {
	d := time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute + time.Duration(t.Second)*time.Second
	return timeutil.GenerateDate(t.Day).Add(d)
}

func (t Timestamp) String() string { return t.Time().Format(timeutil.TimestampLayout) }

func (t Timestamp) Value() (driver.Value, error) { return t.Time(), nil }

func (t Timestamp) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// rowString joins fields with '|' and appends the trailing separator.
func rowString(fields ...string) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f)
		b.WriteByte('|')
	}
	return b.String()
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
