package growthstats

import "time"

// MaxOffsetHours bounds the client timezone offset.
const MaxOffsetHours = 12

// OffsetDateTime shifts t by the client timezone offset. The one
// convention used everywhere: shifting by offset o subtracts o hours,
// so converting a UTC instant to client-local time is
// OffsetDateTime(t, o) and converting back is OffsetDateTime(t, -o).
// The round trip is the identity for any o.
func OffsetDateTime(t time.Time, offsetHours int) time.Time {
	return t.Add(-time.Duration(offsetHours) * time.Hour)
}

// dateKeyLayout is the index field format for calendar dates.
const dateKeyLayout = "01/02/2006"

// DateKey formats a calendar date as the MM/DD/YYYY index field.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// dayStart returns midnight of t's calendar day, keeping location.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dayEnd returns 23:59:59 of t's calendar day, keeping location.
func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// sameOrAfterDay reports whether a's calendar day is on or after b's.
func sameOrAfterDay(a, b time.Time) bool {
	return !dayStart(a).Before(dayStart(b))
}
