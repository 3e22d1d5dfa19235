package scheduling

import (
	"time"

	"workshopd/internal/model"
)

// Severity classifies a schedule conflict. Overlapping lectures block
// the save; overlapping generic items are allowed (parallel sessions)
// but surfaced to the organizer.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Conflict pairs an existing item with the severity of its overlap
// against a candidate range.
type Conflict struct {
	Item     model.ScheduleItem `json:"item"`
	Severity Severity           `json:"severity"`
}

// Overlaps reports a true interval overlap between [aStart, aEnd) and
// [bStart, bEnd). Touching ranges do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindOverlaps returns the items whose ranges truly overlap
// [start, end), excluding excludeID (the item under edit), classified
// by the candidate's kind and ordered by start time ascending.
func FindOverlaps(items []model.ScheduleItem, start, end time.Time, excludeID string, kind model.ItemKind) []Conflict {
	severity := SeverityWarning
	if kind == model.KindLecture {
		severity = SeverityError
	}

	sorted := make([]model.ScheduleItem, len(items))
	copy(sorted, items)
	model.SortItems(sorted)

	var conflicts []Conflict
	for _, item := range sorted {
		if excludeID != "" && item.ID == excludeID {
			continue
		}
		if !Overlaps(start, end, item.StartTime, item.EndTime) {
			continue
		}
		conflicts = append(conflicts, Conflict{Item: item, Severity: severity})
	}
	return conflicts
}

// BlockingConflicts filters a conflict list down to hard errors.
func BlockingConflicts(conflicts []Conflict) []Conflict {
	var blocking []Conflict
	for _, c := range conflicts {
		if c.Severity == SeverityError {
			blocking = append(blocking, c)
		}
	}
	return blocking
}
