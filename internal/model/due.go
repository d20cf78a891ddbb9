package model

import "time"

type Recurrence string

const (
	RecurrenceNone     Recurrence = ""
	RecurrenceMinutely Recurrence = "minutely"
	RecurrenceHourly   Recurrence = "hourly"
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceMonthly  Recurrence = "monthly"
	RecurrenceYearly   Recurrence = "yearly"
)

// RecurrenceEnd stops a recurring due date after Count more occurrences or
// once the next date would pass Until. Zero values mean "never".
type RecurrenceEnd struct {
	Count int        `yaml:"count,omitempty" json:"count,omitempty" validate:"min=0"`
	Until *time.Time `yaml:"until,omitempty" json:"until,omitempty"`
}

type Due struct {
	Date       time.Time     `yaml:"date" json:"date"`
	HasTime    bool          `yaml:"has_time,omitempty" json:"has_time,omitempty"`
	Recurring  bool          `yaml:"recurring,omitempty" json:"recurring,omitempty"`
	Recurrence Recurrence    `yaml:"recurrence,omitempty" json:"recurrence,omitempty" validate:"omitempty,oneof=minutely hourly daily weekly monthly yearly"`
	Interval   int           `yaml:"interval,omitempty" json:"interval,omitempty" validate:"min=0"`
	End        RecurrenceEnd `yaml:"end,omitempty" json:"end,omitempty"`
}

// Resolve returns the due instant, or false when no date is set.
func (d *Due) Resolve() (time.Time, bool) {
	if d == nil || d.Date.IsZero() {
		return time.Time{}, false
	}
	return d.Date, true
}

// day returns the calendar date the due falls on as seen from loc. All-day
// dates keep their own calendar date regardless of the zone they were parsed in.
func (d *Due) day(loc *time.Location) (int, time.Month, int) {
	if d.HasTime {
		return d.Date.In(loc).Date()
	}
	return d.Date.Date()
}

// IsToday reports whether the due date falls on now's calendar day.
func (d *Due) IsToday(now time.Time) bool {
	if _, ok := d.Resolve(); !ok {
		return false
	}
	y, m, dd := d.day(now.Location())
	ny, nm, nd := now.Date()
	return y == ny && m == nm && dd == nd
}

// IsOverdue reports whether the due instant is strictly before now. An
// all-day date is only overdue once its whole day has passed.
func (d *Due) IsOverdue(now time.Time) bool {
	t, ok := d.Resolve()
	if !ok {
		return false
	}
	if d.HasTime {
		return t.Before(now)
	}
	y, m, dd := d.day(now.Location())
	due := time.Date(y, m, dd, 0, 0, 0, 0, now.Location())
	ny, nm, nd := now.Date()
	return due.Before(time.Date(ny, nm, nd, 0, 0, 0, 0, now.Location()))
}

// Next returns the following occurrence of a recurring due date. It returns
// false for non-recurring dates and once the end condition is reached.
func (d *Due) Next() (*Due, bool) {
	if d == nil || !d.Recurring || d.Date.IsZero() {
		return nil, false
	}
	n := max(d.Interval, 1)
	next := *d
	switch d.Recurrence {
	case RecurrenceMinutely:
		next.Date = d.Date.Add(time.Duration(n) * time.Minute)
	case RecurrenceHourly:
		next.Date = d.Date.Add(time.Duration(n) * time.Hour)
	case RecurrenceDaily:
		next.Date = d.Date.AddDate(0, 0, n)
	case RecurrenceWeekly:
		next.Date = d.Date.AddDate(0, 0, 7*n)
	case RecurrenceMonthly:
		next.Date = d.Date.AddDate(0, n, 0)
	case RecurrenceYearly:
		next.Date = d.Date.AddDate(n, 0, 0)
	default:
		return nil, false
	}
	if d.End.Count > 0 {
		if d.End.Count == 1 {
			return nil, false
		}
		next.End.Count = d.End.Count - 1
	}
	if d.End.Until != nil && next.Date.After(*d.End.Until) {
		return nil, false
	}
	return &next, true
}
