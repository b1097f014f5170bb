package tracker

import (
	"strings"
	"time"
)

// Update is one caller-supplied mutation in a sync batch. Pointer fields
// distinguish "absent" from "set to empty": only fields present in the
// update overwrite the record.
type Update struct {
	ID       string  `json:"id"`
	Action   string  `json:"action,omitempty"` // "upsert" (default) or "delete"
	Status   *string `json:"status,omitempty"`
	Note     *string `json:"note,omitempty"`
	Title    *string `json:"title,omitempty"`
	Type     *string `json:"type,omitempty"`
	Priority *string `json:"priority,omitempty"`
	Owner    *string `json:"owner,omitempty"`
}

// Applied is the outcome of one update batch. The id lists record every
// action in processing order; an id updated twice in one batch appears
// twice in UpdatedIDs.
type Applied struct {
	Issues        []Issue
	UpdatedIDs    []string
	CreatedIDs    []string
	DeletedIDs    []string
	UnresolvedIDs []string
	DuplicateIDs  []string
}

// ApplyUpdates processes an update batch in caller order against a
// working copy of the issue list, so multiple updates to the same id
// compose within one call: later updates see earlier ones' effects.
//
//   - An update whose id normalizes to empty is unresolvable; its raw id
//     is reported and the update skipped.
//   - delete removes an existing record, or reports the id unresolved.
//   - upsert (the default) overwrites only the fields present in the
//     update and refreshes the record's updated timestamp. A missing
//     target is created when createMissing allows it, else reported
//     unresolved.
//
// The result is re-normalized afterwards so accidental duplicates from
// the batch itself surface in DuplicateIDs.
func ApplyUpdates(issues []Issue, updates []Update, createMissing bool, now time.Time) Applied {
	working := make([]Issue, 0, len(issues)+len(updates))
	for _, issue := range issues {
		working = append(working, issue.Clone())
	}

	applied := Applied{}
	for _, u := range updates {
		id := NormalizeID(u.ID)
		if id == "" {
			applied.UnresolvedIDs = append(applied.UnresolvedIDs, u.ID)
			continue
		}

		if strings.EqualFold(strings.TrimSpace(u.Action), "delete") {
			pos := findIssue(working, id)
			if pos < 0 {
				applied.UnresolvedIDs = append(applied.UnresolvedIDs, id)
				continue
			}
			working = append(working[:pos], working[pos+1:]...)
			applied.DeletedIDs = append(applied.DeletedIDs, id)
			continue
		}

		pos := findIssue(working, id)
		if pos < 0 {
			if !createMissing {
				applied.UnresolvedIDs = append(applied.UnresolvedIDs, id)
				continue
			}
			rec := Issue{
				ID:      id,
				Status:  StatusOpen,
				Created: now.UTC().Format("2006-01-02"),
			}
			rec.Touch(now)
			setPresentFields(&rec, u)
			working = append(working, rec)
			applied.CreatedIDs = append(applied.CreatedIDs, id)
			continue
		}

		rec := &working[pos]
		setPresentFields(rec, u)
		rec.Touch(now)
		applied.UpdatedIDs = append(applied.UpdatedIDs, id)
	}

	normalized, dups := Normalize(working)
	applied.Issues = normalized
	applied.DuplicateIDs = dups
	return applied
}

// setPresentFields copies only the fields the update carries. Status goes
// through synonym normalization, text fields are trimmed.
func setPresentFields(rec *Issue, u Update) {
	if u.Status != nil {
		rec.Status = NormalizeStatus(*u.Status)
	}
	if u.Title != nil {
		rec.Title = strings.TrimSpace(*u.Title)
	}
	if u.Note != nil {
		rec.Note = strings.TrimSpace(*u.Note)
	}
	if u.Type != nil {
		rec.Type = strings.TrimSpace(*u.Type)
	}
	if u.Priority != nil {
		rec.Priority = strings.TrimSpace(*u.Priority)
	}
	if u.Owner != nil {
		rec.Owner = strings.TrimSpace(*u.Owner)
	}
}

// findIssue locates a record by normalized id, or -1. Ids are compared in
// normalized form so the lookup works even on lists that skipped
// Normalize.
func findIssue(issues []Issue, id string) int {
	for i := range issues {
		if NormalizeID(issues[i].ID) == id {
			return i
		}
	}
	return -1
}
