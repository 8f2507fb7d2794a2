package srag

import (
	"log/slog"
	"strings"
	"time"
)

// dateLayouts are the notification-date formats seen across INFLUD
// publications.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006/01/02"}

// CleanStats summarizes what cleaning did to the raw rows.
type CleanStats struct {
	Total        int // raw rows seen
	Kept         int // rows in the cleaned dataset
	DroppedDates int // rows dropped for a missing/unparseable date
	UnknownCodes int // cells resolved to Ignored because the code was unknown
}

// Clean turns raw rows into the cleaned dataset. Rows with an absent or
// unparseable notification date are dropped; rows are never dropped for a
// missing categorical value — those become Ignored. Unknown codes are
// logged once per field/code pair.
func Clean(raws []RawRecord, log *slog.Logger) (Dataset, CleanStats) {
	if log == nil {
		log = slog.Default()
	}
	stats := CleanStats{Total: len(raws)}
	seenUnknown := map[string]bool{}

	ds := make(Dataset, 0, len(raws))
	for _, r := range raws {
		date, ok := parseDate(r.NotificationDate)
		if !ok {
			stats.DroppedDates++
			continue
		}

		c := Case{NotificationDate: date}
		for _, m := range []struct {
			field Field
			raw   string
			dst   *Category
		}{
			{FieldEvolution, r.Evolution, &c.Evolution},
			{FieldICU, r.ICU, &c.ICU},
			{FieldVaccineFlu, r.VaccineFlu, &c.VaccineFlu},
			{FieldVaccineCovid, r.VaccineCovid, &c.VaccineCovid},
		} {
			cat, known := Resolve(m.field, m.raw)
			*m.dst = cat
			if !known {
				stats.UnknownCodes++
				key := string(m.field) + ":" + m.raw
				if !seenUnknown[key] {
					seenUnknown[key] = true
					log.Warn("unknown categorical code, treating as ignored",
						"field", string(m.field), "code", strings.TrimSpace(m.raw))
				}
			}
		}
		ds = append(ds, c)
	}
	stats.Kept = len(ds)
	return ds, stats
}

// parseDate normalizes a notification date to midnight UTC.
func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
