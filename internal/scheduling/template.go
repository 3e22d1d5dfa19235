package scheduling

import (
	"time"

	"workshopd/internal/model"
)

// DefaultScheduleAuthor tags items stamped onto an event from its
// location's template schedule.
const DefaultScheduleAuthor = "Default Schedule"

// ProjectTemplate maps a template event's items onto the target
// event's calendar. Template items are matched to target days by
// weekday and consumed at most once each, in start-time order, so a
// template weekday never projects twice even when the target range
// repeats that weekday. Times keep their clock value and are rebased
// onto the target day's date in the target event's zone.
//
// The function is pure: it returns the new, unsaved items and leaves
// emptiness checks and persistence to the caller.
func ProjectTemplate(target *model.Event, templateItems []model.ScheduleItem) []model.ScheduleItem {
	if len(templateItems) == 0 {
		return nil
	}

	ordered := make([]model.ScheduleItem, len(templateItems))
	copy(ordered, templateItems)
	model.SortItems(ordered)

	loc := target.TZ()
	used := make([]bool, len(ordered))

	var projected []model.ScheduleItem
	for _, day := range target.Days() {
		for i, tmpl := range ordered {
			if used[i] || tmpl.StartTime.In(loc).Weekday() != day.Weekday() {
				continue
			}
			used[i] = true
			projected = append(projected, rebase(tmpl, target, day, loc))
		}
	}
	return projected
}

// rebase copies a template item onto the target event, translating
// only the date portion of its times.
func rebase(tmpl model.ScheduleItem, target *model.Event, day time.Time, loc *time.Location) model.ScheduleItem {
	start := onDate(tmpl.StartTime.In(loc), day)
	end := onDate(tmpl.EndTime.In(loc), day)
	if !end.After(start) {
		// Template item runs past midnight.
		end = end.AddDate(0, 0, 1)
	}
	item := model.ScheduleItem{
		EventCode:   target.Code,
		StartTime:   start,
		EndTime:     end,
		Name:        tmpl.Name,
		Description: tmpl.Description,
		Location:    tmpl.Location,
		UpdatedBy:   DefaultScheduleAuthor,
	}
	if tmpl.Lecture != nil {
		lec := *tmpl.Lecture
		lec.ID = ""
		lec.EventCode = target.Code
		item.Lecture = &lec
	}
	return item
}

// onDate keeps t's clock value but moves it to day's date.
func onDate(t, day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location())
}
