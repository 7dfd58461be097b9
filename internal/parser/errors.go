package parser

import "fmt"

// MalformedRecordError indicates a raw Canvas record is missing a field the
// mapper requires. It points to a remote API contract violation, so the
// course being processed is aborted rather than silently skipped.
type MalformedRecordError struct {
	Resource string // "course", "page" or "quiz"
	CourseID int64
	ItemID   string // best-known identifier of the offending item, may be empty
	Field    string
}

func (e *MalformedRecordError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("malformed %s record %q in course %d: missing %s",
			e.Resource, e.ItemID, e.CourseID, e.Field)
	}
	return fmt.Sprintf("malformed %s record in course %d: missing %s",
		e.Resource, e.CourseID, e.Field)
}
