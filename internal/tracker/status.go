package tracker

import "strings"

// Canonical status labels. Anything a caller writes that matches a known
// synonym is normalized to one of these; unrecognized free text is kept
// verbatim.
const (
	StatusOpen         = "Open"
	StatusInProgress   = "In Progress"
	StatusInValidation = "In Validation"
	StatusBlocked      = "Blocked"
	StatusDone         = "Done"
)

// statusSynonyms maps lowercased legacy/free-text values to canonical
// labels.
var statusSynonyms = map[string]string{
	"open":    StatusOpen,
	"new":     StatusOpen,
	"todo":    StatusOpen,
	"to do":   StatusOpen,
	"backlog": StatusOpen,

	"in progress": StatusInProgress,
	"in-progress": StatusInProgress,
	"wip":         StatusInProgress,
	"doing":       StatusInProgress,

	"in validation": StatusInValidation,
	"validation":    StatusInValidation,
	"qa":            StatusInValidation,
	"testing":       StatusInValidation,
	"in review":     StatusInValidation,

	"blocked": StatusBlocked,
	"on hold": StatusBlocked,
	"hold":    StatusBlocked,

	"done":      StatusDone,
	"fixed":     StatusDone,
	"closed":    StatusDone,
	"resolved":  StatusDone,
	"complete":  StatusDone,
	"completed": StatusDone,
}

// NormalizeStatus maps a raw status value to its canonical label. Empty
// or missing values default to Open; unrecognized values are preserved as
// the trimmed original text.
func NormalizeStatus(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StatusOpen
	}
	if canonical, ok := statusSynonyms[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// StatusPrecedence orders statuses for display: active work first,
// finished work last, anything unrecognized at the very end.
func StatusPrecedence(status string) int {
	switch status {
	case StatusOpen:
		return 1
	case StatusInProgress:
		return 2
	case StatusInValidation:
		return 3
	case StatusBlocked:
		return 4
	case StatusDone:
		return 5
	default:
		return 99
	}
}
