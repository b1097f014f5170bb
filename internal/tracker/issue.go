package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Issue is one tracked work item inside a tracker document.
//
// The well-known fields below are the interpreted part of the record.
// Callers may attach arbitrary additional keys; those survive in Extra and
// round-trip through the JSON state section without being interpreted.
type Issue struct {
	// ===== Identity =====
	ID string // normalized: trimmed, uppercased, unique per document

	// ===== Triage =====
	Status   string // canonical label when recognized, else verbatim
	Type     string
	Priority string
	Owner    string

	// ===== Content =====
	Title string
	Note  string

	// ===== Timestamps =====
	Created string // ISO date, set once at creation
	Updated string // ISO timestamp, refreshed on every mutation

	// ===== Passthrough =====
	Extra map[string]any // uninterpreted caller keys
}

// knownKeys are the JSON keys bound to struct fields; everything else
// lands in Extra.
var knownKeys = map[string]bool{
	"id": true, "status": true, "type": true, "priority": true,
	"owner": true, "title": true, "note": true,
	"created": true, "updated": true,
}

// jsonKeyOrder fixes the serialization order of the well-known fields so
// rendered state stays stable across syncs.
var jsonKeyOrder = []string{
	"id", "status", "type", "priority", "owner", "title", "note",
	"created", "updated",
}

// Touch refreshes the Updated timestamp. Call it whenever any field of
// the record is mutated.
func (i *Issue) Touch(now time.Time) {
	i.Updated = now.UTC().Format(time.RFC3339)
}

// Clone returns a deep copy, so batch application can mutate a working
// set without aliasing the caller's Extra maps.
func (i Issue) Clone() Issue {
	out := i
	if i.Extra != nil {
		out.Extra = make(map[string]any, len(i.Extra))
		for k, v := range i.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// field maps a well-known JSON key to its struct field.
func (i *Issue) field(key string) *string {
	switch key {
	case "id":
		return &i.ID
	case "status":
		return &i.Status
	case "type":
		return &i.Type
	case "priority":
		return &i.Priority
	case "owner":
		return &i.Owner
	case "title":
		return &i.Title
	case "note":
		return &i.Note
	case "created":
		return &i.Created
	case "updated":
		return &i.Updated
	}
	return nil
}

// MarshalJSON emits the well-known fields in fixed order (id and status
// always, the rest when non-empty) followed by the Extra keys sorted.
func (i Issue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key string, value any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal field %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	for _, key := range jsonKeyOrder {
		val := *i.field(key)
		if val == "" && key != "id" && key != "status" {
			continue
		}
		if err := write(key, val); err != nil {
			return nil, err
		}
	}

	extraKeys := make([]string, 0, len(i.Extra))
	for k := range i.Extra {
		if knownKeys[k] {
			continue
		}
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if err := write(k, i.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an open JSON object: well-known keys bind to
// fields when their values are strings (non-string values are cleared,
// never coerced), unknown keys are preserved in Extra.
func (i *Issue) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*i = Issue{}
	for key, value := range raw {
		if field := i.field(key); field != nil {
			if s, ok := value.(string); ok {
				*field = s
			}
			continue
		}
		if i.Extra == nil {
			i.Extra = map[string]any{}
		}
		i.Extra[key] = value
	}
	return nil
}
