// Package tracker maintains canonical issue state inside Markdown tracker
// documents.
//
// Overview
//
// A tracker document is an ordinary vault note carrying three recognized
// sections: a canonical JSON state section, a derived table view, and a
// bounded audit log. The package parses the structured section (or
// imports legacy tables when it is missing or broken), applies update
// batches, and re-renders the dependent sections while leaving every
// other byte of the document alone.
//
// Architecture
//
// State flows one way, from canonical JSON out to the rendered views:
//
//	## Tracker State (JSON)      ← source of truth (```json fenced array)
//	        ↓ ParseState                    ↑ RenderState
//	    []Issue  ── ApplyUpdates ──►  []Issue
//	        ↓ RenderTable
//	## Tracker Table             ← derived, never parsed back as truth
//	## Tracker Sync Log          ← newest-first audit lines, bounded
//
// Legacy documents that predate the JSON section are imported best-effort
// from their tables; the next sync writes the canonical section and the
// import path never runs again for that document.
//
// Usage
//
// Applying a batch to a document body:
//
//	syncer := tracker.New(nil)
//	status := "done"
//	body, result, err := syncer.Sync(body, []tracker.Update{
//	    {ID: "e18", Status: &status},
//	}, tracker.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.UpdatedIDs, result.StatusCounts)
//
// Read-only inspection:
//
//	parsed := tracker.ParseState(body)
//	fmt.Println(parsed.Source, parsed.StatusCounts())
//
// Error Handling
//
// Degradation is not an error. A malformed JSON section falls back to
// table import and then to the empty state, with the reason recorded in
// Warnings; updates that cannot be applied are reported in UnresolvedIDs.
// Sync returns an error only when re-rendering the canonical state would
// otherwise lose data.
//
// Concurrency
//
// A sync is a plain read-modify-write with no cross-process lock. If an
// external editor writes the same document between read and write, the
// later write wins. Callers that need isolation serialize their calls.
package tracker
