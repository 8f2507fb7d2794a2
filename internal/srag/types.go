// Package srag holds the typed representation of the SRAG case dataset:
// the raw records as read from the INFLUD CSV, the static code→category
// tables, and the cleaning step that produces the dataset every downstream
// computation consumes.
package srag

import "time"

// Category is a resolved categorical value. By the time a Case reaches the
// metrics engine every categorical field holds exactly one Category — never
// a raw numeric code and never an empty value.
type Category string

const (
	Cure    Category = "CURE"
	Death   Category = "DEATH"
	Yes     Category = "YES"
	No      Category = "NO"
	Ignored Category = "IGNORED"
)

// Defined reports whether the value participates in rate denominators.
// Ignored records are excluded from both sides of every rate.
func (c Category) Defined() bool { return c != Ignored && c != "" }

// Case is one notified SRAG case after cleaning.
type Case struct {
	NotificationDate time.Time
	Evolution        Category // Cure, Death, Ignored
	ICU              Category // Yes, No, Ignored
	VaccineFlu       Category // Yes, No, Ignored
	VaccineCovid     Category // Yes, No, Ignored
}

// Dataset is the cleaned case record store.
type Dataset []Case

// MaxNotificationDate returns the newest notification date present.
// ok is false for an empty dataset.
func (d Dataset) MaxNotificationDate() (max time.Time, ok bool) {
	for _, c := range d {
		if c.NotificationDate.After(max) {
			max = c.NotificationDate
			ok = true
		}
	}
	return max, ok
}

// CountBetween counts cases with notification date in [start, end).
func (d Dataset) CountBetween(start, end time.Time) int {
	n := 0
	for _, c := range d {
		if !c.NotificationDate.Before(start) && c.NotificationDate.Before(end) {
			n++
		}
	}
	return n
}

// RawRecord is one row of the raw INFLUD file, restricted to the analysis
// columns. Values are the untouched CSV cell contents.
type RawRecord struct {
	NotificationDate string
	Evolution        string
	ICU              string
	VaccineFlu       string
	VaccineCovid     string
}
