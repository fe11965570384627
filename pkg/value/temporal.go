package value

import "time"

// jetEpoch is the VBA/Jet date-double epoch: day 0 is 1899-12-30. Grounded
// on original_source's ColumnImpl.fromDateDouble/toDateDouble, which
// documents this exact epoch (one day before the commonly-cited
// 1899-12-31 "off by one" VBA quirk, already baked into the epoch here so
// callers never see it).
var jetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ToDateDouble converts a wall-clock time to the integer-days +
// fractional-time-of-day representation used by DATE/TIME/DATE_TIME
// values.
func ToDateDouble(t time.Time) float64 {
	t = t.UTC()
	days := t.Sub(jetEpoch).Hours() / 24
	dayFloor := float64(int64(days))
	if days < 0 && dayFloor != days {
		dayFloor--
	}
	frac := days - dayFloor
	return dayFloor + frac
}

// FromDateDouble is the inverse of ToDateDouble.
func FromDateDouble(dd float64) time.Time {
	dur := time.Duration(dd * float64(24*time.Hour))
	return jetEpoch.Add(dur)
}

// TemporalConfig supplies the locale-ish formatting strings the CDate/
// CStr/date-function family use, ported field-for-field from jackcess's
// expr.TemporalConfig. There is no locale database wired in: callers
// construct the config they want, defaulting to US().
type TemporalConfig struct {
	DateFormat    string
	TimeFormat12  string
	TimeFormat24  string
	DateSeparator string
	TimeSeparator string

	dateTimeFormat12 string
	dateTimeFormat24 string
}

// NewTemporalConfig derives the combined date-time formats the way
// jackcess's constructor does: date format + " " + time format.
func NewTemporalConfig(dateFormat, time12, time24, dateSep, timeSep string) *TemporalConfig {
	return &TemporalConfig{
		DateFormat:       dateFormat,
		TimeFormat12:     time12,
		TimeFormat24:     time24,
		DateSeparator:    dateSep,
		TimeSeparator:    timeSep,
		dateTimeFormat12: dateFormat + " " + time12,
		dateTimeFormat24: dateFormat + " " + time24,
	}
}

// US returns jackcess's built-in US_DATE_FORMAT/US_TIME_FORMAT_12/24
// defaults.
func US() *TemporalConfig {
	return NewTemporalConfig("M/d/yyyy", "h:mm:ss a", "H:mm:ss", "/", ":")
}

func (c *TemporalConfig) DateTimeFormat12() string { return c.dateTimeFormat12 }
func (c *TemporalConfig) DateTimeFormat24() string { return c.dateTimeFormat24 }
