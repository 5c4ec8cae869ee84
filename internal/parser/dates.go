package parser

import (
	"strconv"
	"strings"
	"time"

	"optia/internal/model"
)

// serialEpoch is the spreadsheet serial-date epoch. Serial day 1 is
// 1900-01-01, but the legacy format counts a phantom 1900-02-29 and starts at
// day 1 instead of 0, so two days are subtracted: adding the serial to
// 1899-12-30 yields the calendar date.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Slash- and dash-separated layouts, always read day-first. The source
// exports carry no locale signal; month-first would silently reinterpret
// historical data, so day-first is fixed.
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2/1/06",
	"02-01-2006",
	"2-1-2006",
}

// Native shapes excelize hands back for real date cells.
var nativeLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseDate interprets one date cell. Three input shapes are supported: a
// spreadsheet serial number, a day-first d/m/y string, and a native date
// value. The raw text is always preserved; an unparseable cell yields an
// invalid field, not an error.
func ParseDate(raw string) model.DateField {
	field := model.DateField{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return field
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 {
			return field
		}
		days := int(serial)
		frac := serial - float64(days)
		t := serialEpoch.AddDate(0, 0, days)
		if frac > 0 {
			t = t.Add(time.Duration(frac * float64(24*time.Hour)))
		}
		field.Time = t
		field.Valid = true
		return field
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			field.Time = t
			field.Valid = true
			return field
		}
	}

	for _, layout := range nativeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			field.Time = t
			field.Valid = true
			return field
		}
	}

	return field
}
