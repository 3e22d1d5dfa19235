// Package service implements business logic, validation, and
// orchestration between HTTP handlers and the repository layer. It is
// the single front door for constructing, updating, and projecting
// schedule items; the pure computations live in internal/scheduling.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workshopd/internal/model"
	"workshopd/internal/repository"
	"workshopd/internal/scheduling"
)

// ErrForbidden is returned when the acting user may not manage the
// event's schedule.
var ErrForbidden = errors.New("not authorized to manage this schedule")

// Change types recorded for staff notifications.
const (
	ChangeCreate  = "create"
	ChangeUpdate  = "update"
	ChangeDestroy = "destroy"
)

// EventStore provides read access to events.
type EventStore interface {
	GetByCode(ctx context.Context, code string) (*model.Event, error)
	FindTemplate(ctx context.Context, location, eventType string) (*model.Event, error)
}

// ItemStore provides persistence for schedule items.
type ItemStore interface {
	GetByID(ctx context.Context, id string) (*model.ScheduleItem, error)
	ListByEvent(ctx context.Context, eventCode string) ([]model.ScheduleItem, error)
	ListLectures(ctx context.Context, eventCode string) ([]model.ScheduleItem, error)
	ListOverlapping(ctx context.Context, eventCode string, start, end time.Time, excludeID string) ([]model.ScheduleItem, error)
	Create(ctx context.Context, item *model.ScheduleItem) error
	CreateBatch(ctx context.Context, items []model.ScheduleItem) ([]model.ScheduleItem, error)
	Update(ctx context.Context, item *model.ScheduleItem) error
	Delete(ctx context.Context, id string) error
}

// Authorizer decides whether a user may manage an event's schedule.
type Authorizer interface {
	CanManageSchedule(user string, event *model.Event) bool
}

// Notifier signals a schedule change on a currently running event.
// Delivery is fire-and-forget; failures must not fail the save.
type Notifier interface {
	ScheduleChange(ctx context.Context, item *model.ScheduleItem, changeType, actingUser string)
}

// RoomDefaults resolves the default room for an event type.
type RoomDefaults interface {
	DefaultRoomFor(eventType string) string
}

// ScheduleService orchestrates schedule reads and writes.
type ScheduleService struct {
	events   EventStore
	items    ItemStore
	auth     Authorizer
	notifier Notifier
	rooms    RoomDefaults
	clock    func() time.Time
}

// NewScheduleService constructs a ScheduleService with its
// collaborators.
func NewScheduleService(events EventStore, items ItemStore, auth Authorizer, notifier Notifier, rooms RoomDefaults) *ScheduleService {
	return &ScheduleService{
		events:   events,
		items:    items,
		auth:     auth,
		notifier: notifier,
		rooms:    rooms,
		clock:    time.Now,
	}
}

// GetDefaultsForNewItem computes the suggested start time, duration,
// and room for a new item on the given day of the event.
func (s *ScheduleService) GetDefaultsForNewItem(ctx context.Context, eventCode string, day time.Time) (*model.Defaults, error) {
	event, err := s.events.GetByCode(ctx, eventCode)
	if err != nil {
		return nil, err
	}

	localDay := alignToDay(day, event.TZ())
	all, err := s.items.ListByEvent(ctx, event.Code)
	if err != nil {
		return nil, err
	}
	lectures, err := s.items.ListLectures(ctx, event.Code)
	if err != nil {
		return nil, err
	}

	dayItems := itemsOnDay(all, localDay)
	start := scheduling.DefaultStartTime(localDay, dayItems, lectures)
	return &model.Defaults{
		StartTime: start,
		Duration:  scheduling.DefaultDuration(start, lectures),
		Location:  s.rooms.DefaultRoomFor(event.EventType),
	}, nil
}

// BuildItem assembles an unsaved schedule item from user attributes,
// filling in computed defaults for whatever was omitted. Explicit
// input always wins over defaults. Presence of speaker metadata makes
// the item lecture-backed; validation is the caller's next step.
func (s *ScheduleService) BuildItem(ctx context.Context, event *model.Event, attrs model.ItemAttrs) (*model.ScheduleItem, error) {
	attrs.Trim()

	item := &model.ScheduleItem{EventCode: event.Code}
	if attrs.Name != nil {
		item.Name = *attrs.Name
	}
	if attrs.Description != nil {
		item.Description = *attrs.Description
	}
	if attrs.Location != nil {
		item.Location = *attrs.Location
	}

	if attrs.PersonID != nil && *attrs.PersonID != "" {
		item.Lecture = &model.Lecture{
			EventCode: event.Code,
			Title:     item.Name,
			Abstract:  item.Description,
			PersonID:  *attrs.PersonID,
		}
		if attrs.SpeakerName != nil {
			item.Lecture.SpeakerName = *attrs.SpeakerName
		}
	}

	if attrs.StartTime != nil {
		item.StartTime = *attrs.StartTime
		if attrs.EndTime != nil {
			item.EndTime = *attrs.EndTime
		} else {
			lectures, err := s.items.ListLectures(ctx, event.Code)
			if err != nil {
				return nil, err
			}
			item.EndTime = item.StartTime.Add(scheduling.DefaultDuration(item.StartTime.In(event.TZ()), lectures))
		}
	} else {
		day := event.Days()[0]
		if attrs.Day != nil {
			day = alignToDay(*attrs.Day, event.TZ())
		}
		defaults, err := s.GetDefaultsForNewItem(ctx, event.Code, day)
		if err != nil {
			return nil, err
		}
		item.StartTime = defaults.StartTime
		item.EndTime = defaults.StartTime.Add(defaults.Duration)
	}

	if item.Location == "" {
		item.Location = s.rooms.DefaultRoomFor(event.EventType)
	}
	return item, nil
}

// CreateItem builds, validates, and persists a new schedule item.
// Validation failures come back as model.ValidationErrors; overlap
// warnings between generic items accompany a successful save.
func (s *ScheduleService) CreateItem(ctx context.Context, user, eventCode string, attrs model.ItemAttrs) (*model.ScheduleItem, []string, error) {
	event, err := s.events.GetByCode(ctx, eventCode)
	if err != nil {
		return nil, nil, err
	}
	if !s.auth.CanManageSchedule(user, event) {
		return nil, nil, ErrForbidden
	}

	item, err := s.BuildItem(ctx, event, attrs)
	if err != nil {
		return nil, nil, err
	}
	item.UpdatedBy = user

	warnings, verrs, err := s.validateWithOverlaps(ctx, event, item)
	if err != nil {
		return nil, nil, err
	}
	if verrs.Any() {
		return nil, warnings, verrs
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, nil, slotConflictToValidation(err)
	}

	s.notifyIfRunning(ctx, event, item, ChangeCreate, user)
	return item, warnings, nil
}

// FindOverlaps returns the event's items overlapping the candidate
// range, classified for an item of the given kind and ordered by
// start time.
func (s *ScheduleService) FindOverlaps(ctx context.Context, eventCode string, start, end time.Time, excludeID string, kind model.ItemKind) ([]scheduling.Conflict, error) {
	if _, err := s.events.GetByCode(ctx, eventCode); err != nil {
		return nil, err
	}
	rows, err := s.items.ListOverlapping(ctx, eventCode, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	return scheduling.FindOverlaps(rows, start, end, excludeID, kind), nil
}

// ListSchedule returns the event's items ordered by start time. For
// viewers who cannot manage the event, an unpublished event's schedule
// reads as empty.
func (s *ScheduleService) ListSchedule(ctx context.Context, user, eventCode string) ([]model.ScheduleItem, error) {
	event, err := s.events.GetByCode(ctx, eventCode)
	if err != nil {
		return nil, err
	}
	if !event.Published && !s.auth.CanManageSchedule(user, event) {
		return []model.ScheduleItem{}, nil
	}
	return s.items.ListByEvent(ctx, event.Code)
}

// ProjectTemplate seeds an empty event's schedule from the template
// event matching its location and type. An event that already has
// items, or has no matching template, yields a no-op.
func (s *ScheduleService) ProjectTemplate(ctx context.Context, user, eventCode string) ([]model.ScheduleItem, error) {
	event, err := s.events.GetByCode(ctx, eventCode)
	if err != nil {
		return nil, err
	}
	if !s.auth.CanManageSchedule(user, event) {
		return nil, ErrForbidden
	}

	existing, err := s.items.ListByEvent(ctx, event.Code)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	template, err := s.events.FindTemplate(ctx, event.Location, event.EventType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	templateItems, err := s.items.ListByEvent(ctx, template.Code)
	if err != nil {
		return nil, err
	}

	projected := scheduling.ProjectTemplate(event, templateItems)
	if len(projected) == 0 {
		return nil, nil
	}
	return s.items.CreateBatch(ctx, projected)
}

// UpdateItem merges attrs onto an existing item, validates, persists,
// and optionally retimes matching items on other days. Edits to a
// lecture-backed item's name and description reflect back onto the
// lecture's title and abstract.
func (s *ScheduleService) UpdateItem(ctx context.Context, user, id string, attrs model.ItemAttrs, propagateToSimilar bool) (*model.ScheduleItem, []string, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	event, err := s.events.GetByCode(ctx, item.EventCode)
	if err != nil {
		return nil, nil, err
	}
	if !s.auth.CanManageSchedule(user, event) {
		return nil, nil, ErrForbidden
	}

	original := snapshot(item)
	attrs.Trim()
	mergeAttrs(item, attrs)
	item.UpdatedBy = user

	warnings, verrs, err := s.validateWithOverlaps(ctx, event, item)
	if err != nil {
		return nil, nil, err
	}
	if verrs.Any() {
		return nil, warnings, verrs
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, nil, slotConflictToValidation(err)
	}
	s.notifyIfRunning(ctx, event, item, ChangeUpdate, user)

	if propagateToSimilar {
		propWarnings, err := s.propagate(ctx, user, event, original, item, attrs)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, propWarnings...)
	}
	return item, warnings, nil
}

// DeleteItem removes a schedule item and signals staff when the event
// is in progress.
func (s *ScheduleService) DeleteItem(ctx context.Context, user, id string) error {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	event, err := s.events.GetByCode(ctx, item.EventCode)
	if err != nil {
		return err
	}
	if !s.auth.CanManageSchedule(user, event) {
		return ErrForbidden
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}
	s.notifyIfRunning(ctx, event, item, ChangeDestroy, user)
	return nil
}

// propagate applies the field delta from original→updated to every
// other item in the event sharing the original's name and time-of-day
// on a different day. Items whose shifted times would fail validation
// are skipped with a warning rather than failing the whole update.
func (s *ScheduleService) propagate(ctx context.Context, user string, event *model.Event, original, updated *model.ScheduleItem, attrs model.ItemAttrs) ([]string, error) {
	all, err := s.items.ListByEvent(ctx, event.Code)
	if err != nil {
		return nil, err
	}

	loc := event.TZ()
	origStart := original.StartTime.In(loc)
	startShift := updated.StartTime.Sub(original.StartTime)
	endShift := updated.EndTime.Sub(original.EndTime)

	var warnings []string
	for i := range all {
		other := all[i]
		if other.ID == updated.ID || other.Name != original.Name {
			continue
		}
		otherStart := other.StartTime.In(loc)
		if otherStart.Hour() != origStart.Hour() || otherStart.Minute() != origStart.Minute() {
			continue
		}
		if sameDay(otherStart, origStart) {
			continue
		}

		if attrs.StartTime != nil {
			other.StartTime = other.StartTime.Add(startShift)
		}
		if attrs.StartTime != nil || attrs.EndTime != nil {
			other.EndTime = other.EndTime.Add(endShift)
		}
		if attrs.Name != nil {
			other.Name = updated.Name
		}
		if attrs.Description != nil {
			other.Description = updated.Description
		}
		if attrs.Location != nil {
			other.Location = updated.Location
		}
		if other.Lecture != nil {
			if attrs.Name != nil {
				other.Lecture.Title = other.Name
			}
			if attrs.Description != nil {
				other.Lecture.Abstract = other.Description
			}
		}
		other.UpdatedBy = user

		if verrs := validateBounds(event, &other); verrs.Any() {
			warnings = append(warnings, fmt.Sprintf("%s on %s not updated: %v",
				other.Name, otherStart.Format("Jan 2"), verrs))
			continue
		}
		if err := s.items.Update(ctx, &other); err != nil {
			if errors.Is(err, repository.ErrSlotConflict) {
				warnings = append(warnings, fmt.Sprintf("%s on %s not updated: time slot already taken",
					other.Name, otherStart.Format("Jan 2")))
				continue
			}
			return nil, err
		}
		s.notifyIfRunning(ctx, event, &other, ChangeUpdate, user)
	}
	return warnings, nil
}

// validateWithOverlaps runs field validation plus the overlap check
// against current stored state. Lecture overlaps become errors on
// start_time; generic overlaps become warnings.
func (s *ScheduleService) validateWithOverlaps(ctx context.Context, event *model.Event, item *model.ScheduleItem) ([]string, model.ValidationErrors, error) {
	verrs := validateBounds(event, item)

	var warnings []string
	if item.EndTime.After(item.StartTime) {
		rows, err := s.items.ListOverlapping(ctx, event.Code, item.StartTime, item.EndTime, item.ID)
		if err != nil {
			return nil, nil, err
		}
		conflicts := scheduling.FindOverlaps(rows, item.StartTime, item.EndTime, item.ID, item.Kind())
		for _, c := range conflicts {
			msg := fmt.Sprintf("overlaps with %q (%s – %s)",
				c.Item.Name,
				c.Item.StartTime.In(event.TZ()).Format("15:04"),
				c.Item.EndTime.In(event.TZ()).Format("15:04"))
			if c.Severity == scheduling.SeverityError {
				verrs.Add("start_time", msg)
			} else {
				warnings = append(warnings, msg)
			}
		}
	}
	return warnings, verrs, nil
}

// validateBounds checks end-after-start and the event date range, with
// the final-day boundary relaxed to end of business (17:00 local).
func validateBounds(event *model.Event, item *model.ScheduleItem) model.ValidationErrors {
	verrs := make(model.ValidationErrors)
	if !item.EndTime.After(item.StartTime) {
		verrs.Add("end_time", "must be after the start time")
	}
	lower, upper := event.Bounds()
	if item.StartTime.Before(lower) || item.StartTime.After(upper) {
		verrs.Add("start_time", "is outside the event's dates")
	}
	if item.EndTime.Before(lower) || item.EndTime.After(upper) {
		verrs.Add("end_time", "is outside the event's dates")
	}
	return verrs
}

func (s *ScheduleService) notifyIfRunning(ctx context.Context, event *model.Event, item *model.ScheduleItem, changeType, user string) {
	if s.notifier == nil || !event.InProgress(s.clock()) {
		return
	}
	s.notifier.ScheduleChange(ctx, item, changeType, user)
}

func mergeAttrs(item *model.ScheduleItem, attrs model.ItemAttrs) {
	if attrs.Name != nil {
		item.Name = *attrs.Name
	}
	if attrs.Description != nil {
		item.Description = *attrs.Description
	}
	if attrs.Location != nil {
		item.Location = *attrs.Location
	}
	if attrs.StartTime != nil {
		item.StartTime = *attrs.StartTime
	}
	if attrs.EndTime != nil {
		item.EndTime = *attrs.EndTime
	}
	if item.Lecture != nil {
		if attrs.Name != nil {
			item.Lecture.Title = item.Name
		}
		if attrs.Description != nil {
			item.Lecture.Abstract = item.Description
		}
	}
}

func snapshot(item *model.ScheduleItem) *model.ScheduleItem {
	copied := *item
	if item.Lecture != nil {
		lec := *item.Lecture
		copied.Lecture = &lec
	}
	return &copied
}

func slotConflictToValidation(err error) error {
	if errors.Is(err, repository.ErrSlotConflict) {
		verrs := make(model.ValidationErrors)
		verrs.Add("start_time", "overlaps with an item scheduled by someone else just now")
		return verrs
	}
	return err
}

// alignToDay takes t's calendar date at face value and anchors it to
// midnight in the event's zone, so a date parsed from "2026-06-01"
// names June 1 regardless of the zone it was parsed in.
func alignToDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func itemsOnDay(items []model.ScheduleItem, day time.Time) []model.ScheduleItem {
	var out []model.ScheduleItem
	for _, item := range items {
		if item.OnDay(day) {
			out = append(out, item)
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
