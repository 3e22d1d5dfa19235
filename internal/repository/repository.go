// Package repository implements all database queries for the workshop
// scheduling system. It uses pgx directly (no ORM) for transparency
// and performance.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workshopd/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrSlotConflict is returned when a lecture insert or update loses a
// race for a time slot: the transactional re-check found an overlap
// that was not present when the caller validated.
var ErrSlotConflict = errors.New("time slot already taken")

const itemColumns = `si.id, si.event_code, si.start_time, si.end_time, si.name,
	       si.description, si.location, si.updated_by, si.created_at, si.updated_at,
	       l.id, l.title, l.abstract, l.person_id, l.speaker_name, l.do_not_publish, l.keep_recording`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// GetByCode returns a single event or ErrNotFound.
func (r *EventRepository) GetByCode(ctx context.Context, code string) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT code, name, start_date, end_date, time_zone, event_type,
		        location, organizer_email, template, published
		 FROM events WHERE code = $1`,
		code,
	).Scan(&e.Code, &e.Name, &e.StartDate, &e.EndDate, &e.TimeZone, &e.EventType,
		&e.Location, &e.OrganizerEmail, &e.Template, &e.Published)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// FindTemplate returns the template event for a location and event
// type, or ErrNotFound when no template is configured.
func (r *EventRepository) FindTemplate(ctx context.Context, location, eventType string) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT code, name, start_date, end_date, time_zone, event_type,
		        location, organizer_email, template, published
		 FROM events
		 WHERE template = TRUE AND location = $1 AND event_type = $2
		 LIMIT 1`,
		location, eventType,
	).Scan(&e.Code, &e.Name, &e.StartDate, &e.EndDate, &e.TimeZone, &e.EventType,
		&e.Location, &e.OrganizerEmail, &e.Template, &e.Published)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find template event: %w", err)
	}
	return &e, nil
}

// ScheduleItemRepository handles persistence for schedule items and
// their backing lectures.
type ScheduleItemRepository struct {
	db *pgxpool.Pool
}

// NewScheduleItemRepository constructs a ScheduleItemRepository.
func NewScheduleItemRepository(db *pgxpool.Pool) *ScheduleItemRepository {
	return &ScheduleItemRepository{db: db}
}

// GetByID returns a single schedule item or ErrNotFound.
func (r *ScheduleItemRepository) GetByID(ctx context.Context, id string) (*model.ScheduleItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+itemColumns+`
		 FROM schedule_items si
		 LEFT JOIN lectures l ON l.id = si.lecture_id
		 WHERE si.id = $1`,
		id,
	)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get schedule item: %w", err)
	}
	return item, nil
}

// ListByEvent returns all of an event's items ordered by start time.
func (r *ScheduleItemRepository) ListByEvent(ctx context.Context, eventCode string) ([]model.ScheduleItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+`
		 FROM schedule_items si
		 LEFT JOIN lectures l ON l.id = si.lecture_id
		 WHERE si.event_code = $1
		 ORDER BY si.start_time ASC`,
		eventCode,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedule items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ListLectures returns the event's lecture-backed items ordered by
// start time.
func (r *ScheduleItemRepository) ListLectures(ctx context.Context, eventCode string) ([]model.ScheduleItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+`
		 FROM schedule_items si
		 JOIN lectures l ON l.id = si.lecture_id
		 WHERE si.event_code = $1
		 ORDER BY si.start_time ASC`,
		eventCode,
	)
	if err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ListOverlapping returns the event's items whose ranges truly overlap
// (start, end), excluding excludeID, ordered by start time. SQL
// OVERLAPS treats ranges as half-open, so touching items do not match.
func (r *ScheduleItemRepository) ListOverlapping(ctx context.Context, eventCode string, start, end time.Time, excludeID string) ([]model.ScheduleItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+`
		 FROM schedule_items si
		 LEFT JOIN lectures l ON l.id = si.lecture_id
		 WHERE si.event_code = $1
		   AND si.id::text <> $2
		   AND (si.start_time, si.end_time) OVERLAPS ($3::timestamptz, $4::timestamptz)
		 ORDER BY si.start_time ASC`,
		eventCode, excludeID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list overlapping items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// Create inserts a new item (and its lecture, when present) inside a
// transaction that locks the owning event row and re-checks overlaps.
//
// Two requests can both validate the same free slot before either
// commits; the SELECT ... FOR UPDATE on the event row serialises them
// so the second insert of a lecture into an occupied slot fails with
// ErrSlotConflict instead of silently double-booking.
func (r *ScheduleItemRepository) Create(ctx context.Context, item *model.ScheduleItem) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockEvent(ctx, tx, item.EventCode); err != nil {
		return err
	}
	if err = recheckSlot(ctx, tx, item); err != nil {
		return err
	}
	if err = insertItem(ctx, tx, item); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateBatch inserts projected items in one transaction. The whole
// batch succeeds or none of it does.
func (r *ScheduleItemRepository) CreateBatch(ctx context.Context, items []model.ScheduleItem) (saved []model.ScheduleItem, err error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockEvent(ctx, tx, items[0].EventCode); err != nil {
		return nil, err
	}

	saved = make([]model.ScheduleItem, 0, len(items))
	for i := range items {
		item := items[i]
		if err = insertItem(ctx, tx, &item); err != nil {
			return nil, err
		}
		saved = append(saved, item)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return saved, nil
}

// Update persists changed item fields, re-checking lecture slots the
// same way Create does, and writes through lecture title/abstract
// edits when the item is lecture-backed.
func (r *ScheduleItemRepository) Update(ctx context.Context, item *model.ScheduleItem) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockEvent(ctx, tx, item.EventCode); err != nil {
		return err
	}
	if err = recheckSlot(ctx, tx, item); err != nil {
		return err
	}

	item.UpdatedAt = time.Now().UTC()
	tag, err := tx.Exec(ctx,
		`UPDATE schedule_items
		 SET start_time = $2, end_time = $3, name = $4, description = $5,
		     location = $6, updated_by = $7, updated_at = $8
		 WHERE id = $1`,
		item.ID, item.StartTime, item.EndTime, item.Name, item.Description,
		item.Location, item.UpdatedBy, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update schedule item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if item.Lecture != nil {
		if _, err = tx.Exec(ctx,
			`UPDATE lectures SET title = $2, abstract = $3 WHERE id = $1`,
			item.Lecture.ID, item.Lecture.Title, item.Lecture.Abstract,
		); err != nil {
			return fmt.Errorf("update lecture: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a schedule item. The backing lecture record survives;
// deleting a lecture cascades to its items at the database level.
func (r *ScheduleItemRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM schedule_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// lockEvent takes the event's row lock, serialising concurrent
// schedule writes for one event.
func lockEvent(ctx context.Context, tx pgx.Tx, eventCode string) error {
	var code string
	err := tx.QueryRow(ctx,
		`SELECT code FROM events WHERE code = $1 FOR UPDATE`,
		eventCode,
	).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}
	return nil
}

// recheckSlot re-reads overlaps inside the write transaction. Only
// lecture-backed items block; generic items may overlap freely.
func recheckSlot(ctx context.Context, tx pgx.Tx, item *model.ScheduleItem) error {
	if item.Kind() != model.KindLecture {
		return nil
	}
	var count int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM schedule_items
		 WHERE event_code = $1
		   AND id::text <> $2
		   AND (start_time, end_time) OVERLAPS ($3::timestamptz, $4::timestamptz)`,
		item.EventCode, item.ID, item.StartTime, item.EndTime,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("recheck slot: %w", err)
	}
	if count > 0 {
		return ErrSlotConflict
	}
	return nil
}

func insertItem(ctx context.Context, tx pgx.Tx, item *model.ScheduleItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	var lectureID *string
	if item.Lecture != nil {
		if item.Lecture.ID == "" {
			item.Lecture.ID = uuid.New().String()
		}
		item.Lecture.EventCode = item.EventCode
		if _, err := tx.Exec(ctx,
			`INSERT INTO lectures (id, event_code, title, abstract, person_id,
			                       speaker_name, do_not_publish, keep_recording)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.Lecture.ID, item.Lecture.EventCode, item.Lecture.Title,
			item.Lecture.Abstract, item.Lecture.PersonID, item.Lecture.SpeakerName,
			item.Lecture.DoNotPublish, item.Lecture.KeepRecording,
		); err != nil {
			return fmt.Errorf("insert lecture: %w", err)
		}
		lectureID = &item.Lecture.ID
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO schedule_items (id, event_code, lecture_id, start_time, end_time,
		                             name, description, location, updated_by,
		                             created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		item.ID, item.EventCode, lectureID, item.StartTime, item.EndTime,
		item.Name, item.Description, item.Location, item.UpdatedBy,
		item.CreatedAt, item.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert schedule item: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.ScheduleItem, error) {
	var (
		item                           model.ScheduleItem
		lecID, lecTitle, lecAbstract   *string
		lecPersonID, lecSpeaker        *string
		lecNoPublish, lecKeepRecording *bool
	)
	err := row.Scan(
		&item.ID, &item.EventCode, &item.StartTime, &item.EndTime, &item.Name,
		&item.Description, &item.Location, &item.UpdatedBy, &item.CreatedAt, &item.UpdatedAt,
		&lecID, &lecTitle, &lecAbstract, &lecPersonID, &lecSpeaker,
		&lecNoPublish, &lecKeepRecording,
	)
	if err != nil {
		return nil, err
	}
	if lecID != nil {
		item.Lecture = &model.Lecture{
			ID:        *lecID,
			EventCode: item.EventCode,
		}
		if lecTitle != nil {
			item.Lecture.Title = *lecTitle
		}
		if lecAbstract != nil {
			item.Lecture.Abstract = *lecAbstract
		}
		if lecPersonID != nil {
			item.Lecture.PersonID = *lecPersonID
		}
		if lecSpeaker != nil {
			item.Lecture.SpeakerName = *lecSpeaker
		}
		if lecNoPublish != nil {
			item.Lecture.DoNotPublish = *lecNoPublish
		}
		if lecKeepRecording != nil {
			item.Lecture.KeepRecording = *lecKeepRecording
		}
	}
	return &item, nil
}

func scanItems(rows pgx.Rows) ([]model.ScheduleItem, error) {
	var items []model.ScheduleItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// OutboxRepository persists notification events for asynchronous
// delivery by an external dispatcher.
type OutboxRepository struct {
	db *pgxpool.Pool
}

// NewOutboxRepository constructs an OutboxRepository.
func NewOutboxRepository(db *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Insert appends a change notification to the outbox.
func (r *OutboxRepository) Insert(ctx context.Context, changeType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO schedule_outbox (id, change_type, payload, created_at)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), changeType, body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
