package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"workshopd/internal/model"
	"workshopd/internal/repository"
	"workshopd/internal/scheduling"
)

const organizer = "org@example.com"

// --- Stub stores ---

type stubEvents struct {
	events map[string]*model.Event
}

func (s *stubEvents) GetByCode(_ context.Context, code string) (*model.Event, error) {
	if e, ok := s.events[code]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubEvents) FindTemplate(_ context.Context, location, eventType string) (*model.Event, error) {
	for _, e := range s.events {
		if e.Template && e.Location == location && e.EventType == eventType {
			copied := *e
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

type stubItems struct {
	items []model.ScheduleItem
	seq   int
}

func (s *stubItems) GetByID(_ context.Context, id string) (*model.ScheduleItem, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return copyItem(s.items[i]), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubItems) ListByEvent(_ context.Context, eventCode string) ([]model.ScheduleItem, error) {
	var out []model.ScheduleItem
	for _, item := range s.items {
		if item.EventCode == eventCode {
			out = append(out, *copyItem(item))
		}
	}
	model.SortItems(out)
	return out, nil
}

func (s *stubItems) ListLectures(_ context.Context, eventCode string) ([]model.ScheduleItem, error) {
	var out []model.ScheduleItem
	for _, item := range s.items {
		if item.EventCode == eventCode && item.Lecture != nil {
			out = append(out, *copyItem(item))
		}
	}
	model.SortItems(out)
	return out, nil
}

func (s *stubItems) ListOverlapping(_ context.Context, eventCode string, start, end time.Time, excludeID string) ([]model.ScheduleItem, error) {
	var out []model.ScheduleItem
	for _, item := range s.items {
		if item.EventCode != eventCode || item.ID == excludeID {
			continue
		}
		if scheduling.Overlaps(start, end, item.StartTime, item.EndTime) {
			out = append(out, *copyItem(item))
		}
	}
	model.SortItems(out)
	return out, nil
}

func (s *stubItems) Create(_ context.Context, item *model.ScheduleItem) error {
	s.seq++
	item.ID = fmt.Sprintf("item-%d", s.seq)
	if item.Lecture != nil && item.Lecture.ID == "" {
		item.Lecture.ID = fmt.Sprintf("lec-%d", s.seq)
	}
	s.items = append(s.items, *copyItem(*item))
	return nil
}

func (s *stubItems) CreateBatch(ctx context.Context, items []model.ScheduleItem) ([]model.ScheduleItem, error) {
	for i := range items {
		if err := s.Create(ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *stubItems) Update(_ context.Context, item *model.ScheduleItem) error {
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = *copyItem(*item)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *stubItems) Delete(_ context.Context, id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *stubItems) find(id string) *model.ScheduleItem {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i]
		}
	}
	return nil
}

func copyItem(item model.ScheduleItem) *model.ScheduleItem {
	copied := item
	if item.Lecture != nil {
		lec := *item.Lecture
		copied.Lecture = &lec
	}
	return &copied
}

type stubNotifier struct {
	changes []string
}

func (n *stubNotifier) ScheduleChange(_ context.Context, item *model.ScheduleItem, changeType, _ string) {
	n.changes = append(n.changes, changeType+":"+item.Name)
}

// --- Fixtures ---

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ts(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

// Monday June 1 through Friday June 5, 2026.
func testEvent() *model.Event {
	return &model.Event{
		Code:           "26w5001",
		Name:           "Dynamics Workshop",
		StartDate:      date(2026, time.June, 1),
		EndDate:        date(2026, time.June, 5),
		TimeZone:       "UTC",
		EventType:      "workshop",
		Location:       "EO",
		OrganizerEmail: organizer,
	}
}

func newTestService(events ...*model.Event) (*ScheduleService, *stubItems, *stubNotifier) {
	byCode := make(map[string]*model.Event)
	for _, e := range events {
		byCode[e.Code] = e
	}
	items := &stubItems{}
	notifier := &stubNotifier{}
	svc := NewScheduleService(
		&stubEvents{events: byCode},
		items,
		&RoleAuthorizer{Admins: []string{"admin@example.com"}},
		notifier,
		&StaticRooms{Rooms: map[string]string{"workshop": "TCPL 201"}, Fallback: "Main Hall"},
	)
	// Pin the clock well outside the event so saves stay quiet unless a
	// test opts in to a running event.
	svc.clock = func() time.Time { return ts(2026, time.January, 1, 12, 0) }
	return svc, items, notifier
}

func strptr(s string) *string        { return &s }
func timeptr(t time.Time) *time.Time { return &t }

// --- Defaults ---

func TestGetDefaultsForNewItemEmptyEvent(t *testing.T) {
	svc, _, _ := newTestService(testEvent())

	defaults, err := svc.GetDefaultsForNewItem(context.Background(), "26w5001", date(2026, time.June, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := ts(2026, time.June, 2, 9, 0); !defaults.StartTime.Equal(want) {
		t.Errorf("expected 09:00 start, got %v", defaults.StartTime)
	}
	if defaults.Duration != time.Hour {
		t.Errorf("expected 60m duration, got %v", defaults.Duration)
	}
	if defaults.Location != "TCPL 201" {
		t.Errorf("expected room from event type lookup, got %q", defaults.Location)
	}
}

func TestGetDefaultsUnknownEvent(t *testing.T) {
	svc, _, _ := newTestService(testEvent())
	_, err := svc.GetDefaultsForNewItem(context.Background(), "nope", date(2026, time.June, 2))
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// --- Building ---

func TestBuildItemExplicitInputWinsOverDefaults(t *testing.T) {
	svc, _, _ := newTestService(testEvent())

	start := ts(2026, time.June, 3, 15, 45)
	end := ts(2026, time.June, 3, 16, 10)
	item, err := svc.BuildItem(context.Background(), testEvent(), model.ItemAttrs{
		Name:      strptr("Problem Session"),
		Location:  strptr("Library"),
		StartTime: timeptr(start),
		EndTime:   timeptr(end),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.StartTime.Equal(start) || !item.EndTime.Equal(end) {
		t.Errorf("explicit times were modified: %v - %v", item.StartTime, item.EndTime)
	}
	if item.Location != "Library" {
		t.Errorf("explicit location was modified: %q", item.Location)
	}
	if item.Kind() != model.KindGeneric {
		t.Errorf("no speaker supplied, expected generic item")
	}
}

func TestBuildItemSpeakerMakesLecture(t *testing.T) {
	svc, _, _ := newTestService(testEvent())

	item, err := svc.BuildItem(context.Background(), testEvent(), model.ItemAttrs{
		Name:        strptr("Spectral Gaps"),
		Description: strptr("joint work"),
		PersonID:    strptr("p-17"),
		SpeakerName: strptr("R. Chen"),
		Day:         timeptr(date(2026, time.June, 2)),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Kind() != model.KindLecture {
		t.Fatal("expected lecture-backed item")
	}
	if item.Lecture.Title != "Spectral Gaps" || item.Lecture.Abstract != "joint work" {
		t.Errorf("lecture fields not seeded from item: %+v", item.Lecture)
	}
	if item.Location != "TCPL 201" {
		t.Errorf("expected default room, got %q", item.Location)
	}
	if want := ts(2026, time.June, 2, 9, 0); !item.StartTime.Equal(want) {
		t.Errorf("expected computed default start, got %v", item.StartTime)
	}
}

// --- Create ---

func TestCreateItemTrimsWhitespace(t *testing.T) {
	svc, items, _ := newTestService(testEvent())

	item, _, err := svc.CreateItem(context.Background(), organizer, "26w5001", model.ItemAttrs{
		Name: strptr("  Coffee Break "),
		Day:  timeptr(date(2026, time.June, 1)),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Name != "Coffee Break" {
		t.Errorf("expected trimmed name, got %q", item.Name)
	}
	if items.find(item.ID) == nil {
		t.Error("item was not persisted")
	}
}

func TestCreateItemForbidden(t *testing.T) {
	svc, _, _ := newTestService(testEvent())

	_, _, err := svc.CreateItem(context.Background(), "rando@example.com", "26w5001", model.ItemAttrs{
		Name: strptr("Gatecrash"),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateItemLectureOverlapBlocks(t *testing.T) {
	svc, items, _ := newTestService(testEvent())
	items.items = append(items.items, model.ScheduleItem{
		ID: "existing", EventCode: "26w5001", Name: "Existing Talk",
		StartTime: ts(2026, time.June, 2, 10, 0), EndTime: ts(2026, time.June, 2, 11, 0),
		Lecture: &model.Lecture{ID: "lec-existing", Title: "Existing Talk"},
	})

	_, _, err := svc.CreateItem(context.Background(), organizer, "26w5001", model.ItemAttrs{
		Name:      strptr("Clashing Talk"),
		PersonID:  strptr("p-9"),
		StartTime: timeptr(ts(2026, time.June, 2, 10, 30)),
		EndTime:   timeptr(ts(2026, time.June, 2, 11, 30)),
	})

	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if len(verrs["start_time"]) == 0 {
		t.Errorf("expected overlap error on start_time, got %v", verrs)
	}
	if len(items.items) != 1 {
		t.Errorf("clashing lecture must not be persisted")
	}
}

func TestCreateItemGenericOverlapWarns(t *testing.T) {
	svc, items, _ := newTestService(testEvent())
	items.items = append(items.items, model.ScheduleItem{
		ID: "lunch", EventCode: "26w5001", Name: "Lunch",
		StartTime: ts(2026, time.June, 2, 12, 0), EndTime: ts(2026, time.June, 2, 13, 0),
	})

	item, warnings, err := svc.CreateItem(context.Background(), organizer, "26w5001", model.ItemAttrs{
		Name:      strptr("Poster Session"),
		StartTime: timeptr(ts(2026, time.June, 2, 12, 30)),
		EndTime:   timeptr(ts(2026, time.June, 2, 13, 30)),
	})
	if err != nil {
		t.Fatalf("generic overlap must not block the save: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 overlap warning, got %v", warnings)
	}
	if items.find(item.ID) == nil {
		t.Error("item was not persisted")
	}
}

func TestCreateItemOutsideEventBounds(t *testing.T) {
	svc, _, _ := newTestService(testEvent())

	// Final day ends at 17:00; an item running to 18:00 is out.
	_, _, err := svc.CreateItem(context.Background(), organizer, "26w5001", model.ItemAttrs{
		Name:      strptr("Late Session"),
		StartTime: timeptr(ts(2026, time.June, 5, 16, 0)),
		EndTime:   timeptr(ts(2026, time.June, 5, 18, 0)),
	})
	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if len(verrs["end_time"]) == 0 {
		t.Errorf("expected bounds error on end_time, got %v", verrs)
	}
}

func TestCreateItemFinalDayBoundaryInclusive(t *testing.T) {
	svc, _, _ := newTestService(testEvent())

	_, _, err := svc.CreateItem(context.Background(), organizer, "26w5001", model.ItemAttrs{
		Name:      strptr("Wrap-up"),
		StartTime: timeptr(ts(2026, time.June, 5, 16, 0)),
		EndTime:   timeptr(ts(2026, time.June, 5, 17, 0)),
	})
	if err != nil {
		t.Errorf("item ending exactly at 17:00 on the final day must be valid: %v", err)
	}
}

func TestCreateItemEndBeforeStart(t *testing.T) {
	svc, _, _ := newTestService(testEvent())

	_, _, err := svc.CreateItem(context.Background(), organizer, "26w5001", model.ItemAttrs{
		Name:      strptr("Backwards"),
		StartTime: timeptr(ts(2026, time.June, 2, 11, 0)),
		EndTime:   timeptr(ts(2026, time.June, 2, 10, 0)),
	})
	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if len(verrs["end_time"]) == 0 {
		t.Errorf("expected error on end_time, got %v", verrs)
	}
}

// --- Notifications ---

func TestNotifyOnlyWhenEventRunning(t *testing.T) {
	svc, _, notifier := newTestService(testEvent())

	attrs := model.ItemAttrs{
		Name:      strptr("Morning Session"),
		StartTime: timeptr(ts(2026, time.June, 2, 9, 0)),
		EndTime:   timeptr(ts(2026, time.June, 2, 10, 0)),
	}

	if _, _, err := svc.CreateItem(context.Background(), organizer, "26w5001", attrs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.changes) != 0 {
		t.Errorf("no notification expected before the event starts, got %v", notifier.changes)
	}

	// Mid-event edits page the staff.
	svc.clock = func() time.Time { return ts(2026, time.June, 3, 8, 0) }
	attrs.StartTime = timeptr(ts(2026, time.June, 3, 9, 0))
	attrs.EndTime = timeptr(ts(2026, time.June, 3, 10, 0))
	if _, _, err := svc.CreateItem(context.Background(), organizer, "26w5001", attrs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.changes) != 1 || notifier.changes[0] != "create:Morning Session" {
		t.Errorf("expected create notification, got %v", notifier.changes)
	}
}

// --- Update ---

func TestUpdateItemReflectsLectureFields(t *testing.T) {
	svc, items, _ := newTestService(testEvent())
	items.items = append(items.items, model.ScheduleItem{
		ID: "talk-1", EventCode: "26w5001", Name: "Old Title",
		StartTime: ts(2026, time.June, 2, 10, 0), EndTime: ts(2026, time.June, 2, 11, 0),
		Lecture: &model.Lecture{ID: "lec-1", Title: "Old Title", Abstract: "old"},
	})

	_, _, err := svc.UpdateItem(context.Background(), organizer, "talk-1", model.ItemAttrs{
		Name:        strptr("New Title"),
		Description: strptr("new abstract"),
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := items.find("talk-1")
	if stored.Lecture.Title != "New Title" || stored.Lecture.Abstract != "new abstract" {
		t.Errorf("lecture fields not reflected: %+v", stored.Lecture)
	}
}

func TestUpdateItemPropagatesToSimilarDays(t *testing.T) {
	svc, items, _ := newTestService(testEvent())
	for i, d := range []int{1, 2, 3} {
		items.items = append(items.items, model.ScheduleItem{
			ID: fmt.Sprintf("coffee-%d", i), EventCode: "26w5001", Name: "Coffee Break",
			StartTime: ts(2026, time.June, d, 10, 0), EndTime: ts(2026, time.June, d, 10, 30),
		})
	}
	// Same time, different name: must not move.
	items.items = append(items.items, model.ScheduleItem{
		ID: "tea", EventCode: "26w5001", Name: "Tea Break",
		StartTime: ts(2026, time.June, 2, 10, 0), EndTime: ts(2026, time.June, 2, 10, 30),
	})
	// Same name, different time of day: must not move.
	items.items = append(items.items, model.ScheduleItem{
		ID: "coffee-pm", EventCode: "26w5001", Name: "Coffee Break",
		StartTime: ts(2026, time.June, 2, 15, 0), EndTime: ts(2026, time.June, 2, 15, 30),
	})

	_, warnings, err := svc.UpdateItem(context.Background(), organizer, "coffee-0", model.ItemAttrs{
		StartTime: timeptr(ts(2026, time.June, 1, 10, 30)),
		EndTime:   timeptr(ts(2026, time.June, 1, 11, 0)),
	}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	for i, d := range []int{1, 2, 3} {
		got := items.find(fmt.Sprintf("coffee-%d", i))
		if want := ts(2026, time.June, d, 10, 30); !got.StartTime.Equal(want) {
			t.Errorf("day %d coffee start: expected %v, got %v", d, want, got.StartTime)
		}
		if want := ts(2026, time.June, d, 11, 0); !got.EndTime.Equal(want) {
			t.Errorf("day %d coffee end: expected %v, got %v", d, want, got.EndTime)
		}
	}
	if got := items.find("tea"); !got.StartTime.Equal(ts(2026, time.June, 2, 10, 0)) {
		t.Errorf("differently named item must not move, got %v", got.StartTime)
	}
	if got := items.find("coffee-pm"); !got.StartTime.Equal(ts(2026, time.June, 2, 15, 0)) {
		t.Errorf("different time-of-day item must not move, got %v", got.StartTime)
	}
}

func TestUpdateItemPropagationNotifiesPerItemWhenRunning(t *testing.T) {
	svc, items, notifier := newTestService(testEvent())
	for i, d := range []int{1, 2, 3} {
		items.items = append(items.items, model.ScheduleItem{
			ID: fmt.Sprintf("coffee-%d", i), EventCode: "26w5001", Name: "Coffee Break",
			StartTime: ts(2026, time.June, d, 10, 0), EndTime: ts(2026, time.June, d, 10, 30),
		})
	}
	svc.clock = func() time.Time { return ts(2026, time.June, 2, 8, 0) }

	_, _, err := svc.UpdateItem(context.Background(), organizer, "coffee-0", model.ItemAttrs{
		StartTime: timeptr(ts(2026, time.June, 1, 10, 30)),
		EndTime:   timeptr(ts(2026, time.June, 1, 11, 0)),
	}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The edited item plus both retimed siblings page the staff.
	if len(notifier.changes) != 3 {
		t.Fatalf("expected 3 update notifications, got %v", notifier.changes)
	}
	for _, change := range notifier.changes {
		if change != "update:Coffee Break" {
			t.Errorf("unexpected notification %q", change)
		}
	}
}

func TestUpdateItemWithoutPropagationLeavesOthers(t *testing.T) {
	svc, items, _ := newTestService(testEvent())
	for i, d := range []int{1, 2} {
		items.items = append(items.items, model.ScheduleItem{
			ID: fmt.Sprintf("coffee-%d", i), EventCode: "26w5001", Name: "Coffee Break",
			StartTime: ts(2026, time.June, d, 10, 0), EndTime: ts(2026, time.June, d, 10, 30),
		})
	}

	_, _, err := svc.UpdateItem(context.Background(), organizer, "coffee-0", model.ItemAttrs{
		StartTime: timeptr(ts(2026, time.June, 1, 11, 0)),
		EndTime:   timeptr(ts(2026, time.June, 1, 11, 30)),
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := items.find("coffee-1"); !got.StartTime.Equal(ts(2026, time.June, 2, 10, 0)) {
		t.Errorf("sibling moved without propagation: %v", got.StartTime)
	}
}

// --- Delete ---

func TestDeleteItemNotifiesWhenRunning(t *testing.T) {
	svc, items, notifier := newTestService(testEvent())
	items.items = append(items.items, model.ScheduleItem{
		ID: "doomed", EventCode: "26w5001", Name: "Cancelled Session",
		StartTime: ts(2026, time.June, 2, 10, 0), EndTime: ts(2026, time.June, 2, 11, 0),
	})
	svc.clock = func() time.Time { return ts(2026, time.June, 2, 8, 0) }

	if err := svc.DeleteItem(context.Background(), organizer, "doomed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items.find("doomed") != nil {
		t.Error("item still present after delete")
	}
	if len(notifier.changes) != 1 || notifier.changes[0] != "destroy:Cancelled Session" {
		t.Errorf("expected destroy notification, got %v", notifier.changes)
	}
}

// --- Listing ---

func TestListScheduleHidesUnpublishedFromAnonymous(t *testing.T) {
	event := testEvent() // unpublished
	svc, items, _ := newTestService(event)
	items.items = append(items.items, model.ScheduleItem{
		ID: "i1", EventCode: "26w5001", Name: "Session",
		StartTime: ts(2026, time.June, 2, 10, 0), EndTime: ts(2026, time.June, 2, 11, 0),
	})

	got, err := svc.ListSchedule(context.Background(), "", "26w5001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("anonymous viewer must see an empty schedule, got %d items", len(got))
	}

	got, err = svc.ListSchedule(context.Background(), organizer, "26w5001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("organizer must see the schedule, got %d items", len(got))
	}
}

// --- Template projection ---

func templateFixture() *model.Event {
	return &model.Event{
		Code:      "template-EO-workshop",
		Name:      "EO Workshop Template",
		StartDate: date(2024, time.January, 1),
		EndDate:   date(2024, time.January, 7),
		TimeZone:  "UTC",
		EventType: "workshop",
		Location:  "EO",
		Template:  true,
	}
}

func TestProjectTemplateSeedsEmptySchedule(t *testing.T) {
	svc, items, _ := newTestService(testEvent(), templateFixture())
	items.items = append(items.items, model.ScheduleItem{
		ID: "tmpl-1", EventCode: "template-EO-workshop", Name: "Check-in",
		// Monday January 1, 2024.
		StartTime: ts(2024, time.January, 1, 8, 0), EndTime: ts(2024, time.January, 1, 9, 0),
	})

	projected, err := svc.ProjectTemplate(context.Background(), organizer, "26w5001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projected) != 1 {
		t.Fatalf("expected 1 projected item, got %d", len(projected))
	}
	if want := ts(2026, time.June, 1, 8, 0); !projected[0].StartTime.Equal(want) {
		t.Errorf("expected Monday June 1 08:00, got %v", projected[0].StartTime)
	}
	if projected[0].UpdatedBy != scheduling.DefaultScheduleAuthor {
		t.Errorf("expected %q audit marker, got %q", scheduling.DefaultScheduleAuthor, projected[0].UpdatedBy)
	}
	if items.find(projected[0].ID) == nil {
		t.Error("projected item was not persisted")
	}
}

func TestProjectTemplateNoOpWhenScheduleNotEmpty(t *testing.T) {
	svc, items, _ := newTestService(testEvent(), templateFixture())
	items.items = append(items.items, model.ScheduleItem{
		ID: "existing", EventCode: "26w5001", Name: "Session",
		StartTime: ts(2026, time.June, 2, 10, 0), EndTime: ts(2026, time.June, 2, 11, 0),
	})
	items.items = append(items.items, model.ScheduleItem{
		ID: "tmpl-1", EventCode: "template-EO-workshop", Name: "Check-in",
		StartTime: ts(2024, time.January, 1, 8, 0), EndTime: ts(2024, time.January, 1, 9, 0),
	})

	projected, err := svc.ProjectTemplate(context.Background(), organizer, "26w5001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if projected != nil {
		t.Errorf("expected no-op on a non-empty schedule, got %d items", len(projected))
	}
	if len(items.items) != 2 {
		t.Errorf("no items should be added, have %d", len(items.items))
	}
}

func TestProjectTemplateNoTemplateConfigured(t *testing.T) {
	svc, _, _ := newTestService(testEvent())

	projected, err := svc.ProjectTemplate(context.Background(), organizer, "26w5001")
	if err != nil {
		t.Fatalf("missing template must not be an error: %v", err)
	}
	if projected != nil {
		t.Errorf("expected empty result, got %v", projected)
	}
}

func TestProjectTemplateForbidden(t *testing.T) {
	svc, _, _ := newTestService(testEvent(), templateFixture())

	_, err := svc.ProjectTemplate(context.Background(), "", "26w5001")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("anonymous projection must be forbidden, got %v", err)
	}
}

func TestAdminCanManageAnySchedule(t *testing.T) {
	svc, _, _ := newTestService(testEvent())

	_, _, err := svc.CreateItem(context.Background(), "admin@example.com", "26w5001", model.ItemAttrs{
		Name: strptr("Admin Session"),
		Day:  timeptr(date(2026, time.June, 1)),
	})
	if err != nil {
		t.Errorf("admin create failed: %v", err)
	}
}
