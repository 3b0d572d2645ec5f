// Package format renders numbers, byte counts and timestamps the way the
// dashboard presents them. The locale is fixed to zh-TW.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale is the only locale the dashboard renders in.
var Locale = language.MustParse("zh-TW")

var printer = message.NewPrinter(Locale)

// maxExactInt is the largest float64 magnitude printed through the integer path.
const maxExactInt = 1 << 53

// Number groups digits per the zh-TW locale and keeps at most three fraction digits.
func Number(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}
	if v == math.Trunc(v) && math.Abs(v) < maxExactInt {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

const byteBase = 1024

var byteUnits = []string{"Bytes", "KB", "MB", "GB"}

// Bytes scales n to the largest unit not exceeding it, rounded to two decimals.
// Counts beyond the GB range stay in GB.
func Bytes(n int64) string {
	if n == 0 {
		return "0 Bytes"
	}

	sign := ""
	value := float64(n)
	if value < 0 {
		sign = "-"
		value = -value
	}

	exp := 0
	for value >= byteBase && exp < len(byteUnits)-1 {
		value /= byteBase
		exp++
	}
	rounded := math.Round(value*100) / 100
	return sign + strconv.FormatFloat(rounded, 'f', -1, 64) + " " + byteUnits[exp]
}

// Date renders t in its own location as zh-TW does: 2024/5/1 下午3:04:05.
func Date(t time.Time) string {
	period := "上午"
	if t.Hour() >= 12 {
		period = "下午"
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d/%d/%d %s%d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), period, hour, t.Minute(), t.Second())
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseDate accepts RFC3339 and zone-less ISO timestamps. Zone-less values
// are read in time.Local.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
