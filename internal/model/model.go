// Package model defines the core domain types for the workshop
// scheduling system.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// BusinessDayEnd is the hour (local to the event) up to which items may
// run on the final calendar day of an event. The end-of-event boundary
// is relaxed to this hour so wrap-up items fit after the nominal range.
const BusinessDayEnd = 17

// Event represents a multi-day workshop event. A template event is not
// a real gathering; its schedule items serve as the default pattern for
// new events sharing its location and type.
type Event struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	TimeZone       string    `json:"time_zone"`
	EventType      string    `json:"event_type"`
	Location       string    `json:"location"`
	OrganizerEmail string    `json:"organizer_email"`
	Template       bool      `json:"template"`
	Published      bool      `json:"published"`
}

// TZ returns the event's time.Location, falling back to UTC when the
// stored zone name does not resolve.
func (e *Event) TZ() *time.Location {
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Days returns the event's calendar days, midnight-aligned in the
// event's time zone, from StartDate to EndDate inclusive.
func (e *Event) Days() []time.Time {
	loc := e.TZ()
	first := time.Date(e.StartDate.Year(), e.StartDate.Month(), e.StartDate.Day(), 0, 0, 0, 0, loc)
	last := time.Date(e.EndDate.Year(), e.EndDate.Month(), e.EndDate.Day(), 0, 0, 0, 0, loc)

	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Bounds returns the earliest and latest instants a schedule item may
// occupy: midnight on the first day through BusinessDayEnd on the last.
func (e *Event) Bounds() (time.Time, time.Time) {
	loc := e.TZ()
	lower := time.Date(e.StartDate.Year(), e.StartDate.Month(), e.StartDate.Day(), 0, 0, 0, 0, loc)
	upper := time.Date(e.EndDate.Year(), e.EndDate.Month(), e.EndDate.Day(), BusinessDayEnd, 0, 0, 0, loc)
	return lower, upper
}

// InProgress reports whether now falls within the event's date range.
func (e *Event) InProgress(now time.Time) bool {
	local := now.In(e.TZ())
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.TZ())
	days := e.Days()
	return !today.Before(days[0]) && !today.After(days[len(days)-1])
}

// Lecture carries the talk metadata behind a lecture-backed schedule
// item. Publication flags are pass-through; scheduling ignores them.
type Lecture struct {
	ID            string `json:"id"`
	EventCode     string `json:"event_code"`
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	PersonID      string `json:"person_id"`
	SpeakerName   string `json:"speaker_name"`
	DoNotPublish  bool   `json:"do_not_publish"`
	KeepRecording bool   `json:"keep_recording"`
}

// ItemKind discriminates lecture-backed items from generic agenda
// items (meals, breaks, tours). Overlaps between lectures are errors;
// overlaps between generic items are warnings only.
type ItemKind int

const (
	KindGeneric ItemKind = iota
	KindLecture
)

func (k ItemKind) String() string {
	if k == KindLecture {
		return "lecture"
	}
	return "generic"
}

// ScheduleItem is a single entry in an event's agenda.
type ScheduleItem struct {
	ID          string    `json:"id"`
	EventCode   string    `json:"event_code"`
	Lecture     *Lecture  `json:"lecture,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	UpdatedBy   string    `json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Kind reports whether the item is lecture-backed or generic.
func (s *ScheduleItem) Kind() ItemKind {
	if s.Lecture != nil {
		return KindLecture
	}
	return KindGeneric
}

// Duration returns the item's scheduled length.
func (s *ScheduleItem) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// OnDay reports whether the item starts on the given calendar day
// (midnight-aligned in the day's own location).
func (s *ScheduleItem) OnDay(day time.Time) bool {
	start := s.StartTime.In(day.Location())
	return start.Year() == day.Year() && start.Month() == day.Month() && start.Day() == day.Day()
}

// SortItems orders items by start time ascending, in place. Equal start
// times keep their relative order.
func SortItems(items []ScheduleItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartTime.Before(items[j].StartTime)
	})
}

// ItemAttrs carries user-supplied fields for building or updating a
// schedule item. Nil pointers mean "not supplied"; the builder fills
// defaults for missing time and location values.
type ItemAttrs struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`

	// Speaker metadata; presence of PersonID makes the item
	// lecture-backed.
	PersonID    *string `json:"person_id,omitempty"`
	SpeakerName *string `json:"speaker_name,omitempty"`

	// Day the new item is intended for, used when start/end are not
	// supplied and defaults must be computed.
	Day *time.Time `json:"day,omitempty"`
}

// Trim strips leading and trailing whitespace from all supplied string
// attributes before validation.
func (a *ItemAttrs) Trim() {
	for _, p := range []*string{a.Name, a.Description, a.Location, a.PersonID, a.SpeakerName} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

// Defaults is the computed suggestion for a new, unscheduled item.
type Defaults struct {
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Location  string        `json:"location"`
}

// ValidationErrors collects field-scoped validation messages. A nil or
// empty map means the item is valid.
type ValidationErrors map[string][]string

// Add appends a message for a field.
func (v ValidationErrors) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Any reports whether any field has errors.
func (v ValidationErrors) Any() bool { return len(v) > 0 }

// Error implements the error interface so validation failures can flow
// through error returns without losing field scoping.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(v[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
