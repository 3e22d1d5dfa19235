// Package scheduling implements the pure scheduling computations:
// default slot finding, overlap classification, and template
// projection. Functions here operate on explicit item slices and never
// touch the database, so they are testable in isolation; callers fetch
// the relevant items and pass them in.
package scheduling

import (
	"time"

	"workshopd/internal/model"
)

// DefaultStartHour is the baseline start-of-day hour for a day with no
// schedule yet.
const DefaultStartHour = 9

// DefaultLectureDuration applies when an event has no lectures to
// learn a duration from.
const DefaultLectureDuration = 60 * time.Minute

// DefaultStartTime computes the suggested start time for a new item on
// day, which must be midnight-aligned in the event's time zone.
//
// dayItems are the items already scheduled on that day (any kind);
// eventLectures are all lecture-backed items across the whole event,
// ordered by start time. The rules, in priority order:
//
//  1. An empty day starts at 09:00.
//  2. If the day already has lectures, start where the last one ends,
//     then skip past any items chained immediately after it.
//  3. Otherwise scan the day's items in start order from a 09:00
//     candidate: any item starting at or before the candidate moves
//     the candidate to that item's end. Only the first touch may move
//     it earlier; afterwards the candidate only advances, so a short
//     session nested inside a longer parallel block cannot pull it
//     back into occupied time. This follows back-to-back morning
//     chains (08:00-08:45 yields 08:45) and steps over blocks covering
//     the 09:00 window, while ignoring items later in the day.
//  4. If nothing on the day touched the 09:00 candidate but other days
//     of the event hold lectures, fall back to the event's habitual
//     start: the most common lecture start hour.
func DefaultStartTime(day time.Time, dayItems, eventLectures []model.ScheduleItem) time.Time {
	loc := day.Location()
	baseline := time.Date(day.Year(), day.Month(), day.Day(), DefaultStartHour, 0, 0, 0, loc)

	if len(dayItems) == 0 {
		return baseline
	}

	items := make([]model.ScheduleItem, len(dayItems))
	copy(items, dayItems)
	model.SortItems(items)

	if last := lastLecture(items); last != nil {
		return skipChained(last.EndTime, items)
	}

	candidate := baseline
	moved := false
	for _, item := range items {
		if item.StartTime.In(loc).After(candidate) {
			continue
		}
		end := item.EndTime.In(loc)
		if !moved || end.After(candidate) {
			candidate = end
			moved = true
		}
	}
	if moved {
		return candidate
	}

	if hour, ok := modalStartHour(eventLectures, loc); ok {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
	}
	return baseline
}

// DefaultDuration computes the suggested duration for a new item
// starting at startTime, from the event's existing lecture-backed
// items (any day, ordered by start time).
//
// With no lectures at all the default is an hour. A lecture at the
// same hour of day on the immediately preceding calendar day lends its
// duration; failing that, the most common lecture duration wins, ties
// broken by first encounter.
func DefaultDuration(startTime time.Time, eventLectures []model.ScheduleItem) time.Duration {
	if len(eventLectures) == 0 {
		return DefaultLectureDuration
	}

	loc := startTime.Location()
	previous := startTime.AddDate(0, 0, -1)
	for _, lec := range eventLectures {
		start := lec.StartTime.In(loc)
		if start.Year() == previous.Year() && start.YearDay() == previous.YearDay() &&
			start.Hour() == startTime.Hour() {
			return lec.Duration()
		}
	}

	counts := make(map[time.Duration]int)
	order := make([]time.Duration, 0, len(eventLectures))
	for _, lec := range eventLectures {
		d := lec.Duration()
		if counts[d] == 0 {
			order = append(order, d)
		}
		counts[d]++
	}
	best := order[0]
	for _, d := range order[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// lastLecture returns the chronologically last lecture-backed item, or
// nil when the slice holds none. Items must already be sorted.
func lastLecture(sorted []model.ScheduleItem) *model.ScheduleItem {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Kind() == model.KindLecture {
			return &sorted[i]
		}
	}
	return nil
}

// skipChained advances the candidate past every item that starts at or
// before it and runs beyond it, following back-to-back chains.
func skipChained(from time.Time, sorted []model.ScheduleItem) time.Time {
	candidate := from
	for _, item := range sorted {
		if item.StartTime.After(candidate) {
			continue
		}
		if item.EndTime.After(candidate) {
			candidate = item.EndTime
		}
	}
	return candidate.In(from.Location())
}

// modalStartHour returns the most common start hour-of-day among the
// given lectures, ties broken by first encounter.
func modalStartHour(lectures []model.ScheduleItem, loc *time.Location) (int, bool) {
	if len(lectures) == 0 {
		return 0, false
	}
	counts := make(map[int]int)
	order := make([]int, 0, len(lectures))
	for _, lec := range lectures {
		h := lec.StartTime.In(loc).Hour()
		if counts[h] == 0 {
			order = append(order, h)
		}
		counts[h]++
	}
	best := order[0]
	for _, h := range order[1:] {
		if counts[h] > counts[best] {
			best = h
		}
	}
	return best, true
}
