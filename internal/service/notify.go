package service

import (
	"context"
	"log/slog"
	"time"

	"workshopd/internal/model"
)

// Outbox appends a notification event for asynchronous delivery.
type Outbox interface {
	Insert(ctx context.Context, changeType string, payload any) error
}

// ScheduleChangePayload is the outbox record written for a schedule
// change on a running event.
type ScheduleChangePayload struct {
	ItemID     string    `json:"item_id"`
	EventCode  string    `json:"event_code"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Location   string    `json:"location"`
	ChangeType string    `json:"change_type"`
	ActingUser string    `json:"acting_user"`
}

// OutboxNotifier implements Notifier by writing change events to the
// outbox table. Insert failures are logged, never surfaced: the save
// already happened and notification is best effort.
type OutboxNotifier struct {
	outbox Outbox
	log    *slog.Logger
}

// NewOutboxNotifier constructs an OutboxNotifier.
func NewOutboxNotifier(outbox Outbox, log *slog.Logger) *OutboxNotifier {
	return &OutboxNotifier{outbox: outbox, log: log}
}

// ScheduleChange implements Notifier.
func (n *OutboxNotifier) ScheduleChange(ctx context.Context, item *model.ScheduleItem, changeType, actingUser string) {
	payload := ScheduleChangePayload{
		ItemID:     item.ID,
		EventCode:  item.EventCode,
		Name:       item.Name,
		Kind:       item.Kind().String(),
		StartTime:  item.StartTime,
		EndTime:    item.EndTime,
		Location:   item.Location,
		ChangeType: changeType,
		ActingUser: actingUser,
	}
	if err := n.outbox.Insert(ctx, changeType, payload); err != nil {
		n.log.Error("schedule change notification failed",
			"item_id", item.ID, "change", changeType, "error", err)
	}
}
