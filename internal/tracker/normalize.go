package tracker

import (
	"sort"
	"strings"
)

// NormalizeID returns the canonical form of an issue id: trimmed and
// uppercased. Ids compare case-insensitively everywhere in the tracker.
func NormalizeID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Normalize canonicalizes a raw record list: ids are normalized, records
// without a resolvable id are dropped, and duplicate ids are resolved
// first-wins. Every id that occurred more than once is reported in the
// returned list, sorted and deduplicated. Records are never merged.
func Normalize(raw []Issue) ([]Issue, []string) {
	seen := make(map[string]bool, len(raw))
	dupSet := map[string]bool{}
	issues := make([]Issue, 0, len(raw))

	for _, rec := range raw {
		id := NormalizeID(rec.ID)
		if id == "" {
			continue
		}
		if seen[id] {
			dupSet[id] = true
			continue
		}
		seen[id] = true

		rec.ID = id
		rec.Status = NormalizeStatus(rec.Status)
		issues = append(issues, rec)
	}

	dups := make([]string, 0, len(dupSet))
	for id := range dupSet {
		dups = append(dups, id)
	}
	sort.Strings(dups)

	return issues, dups
}

// unionSorted merges two id lists into one sorted, deduplicated list.
func unionSorted(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		set[id] = true
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
