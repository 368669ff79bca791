package repository

import (
	"database/sql"
	"time"
)

// nullString maps "" to NULL for columns that carry a uniqueness or enum
// constraint on non-empty values.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// monthBounds returns the first instant of t's calendar month and of the
// month after, the half-open window used by month-scoped queries.
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
