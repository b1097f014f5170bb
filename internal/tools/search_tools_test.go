package tools

import (
	"context"
	"strings"
	"testing"
)

func TestSearchNotesTool(t *testing.T) {
	store := newMockStore()
	store.put("Projects/Alpha.md", nil, "# Alpha\n\nTracker sync is pending.\n")
	store.put("Projects/Beta.md", nil, "# Beta\n\nNothing of note.\n")
	tool := &SearchNotesTool{store: store}

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{"query": "tracker sync"}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("Handle returned error result: %s", resultText(t, res))
	}

	text := resultText(t, res)
	if !strings.Contains(text, `"count": 1`) {
		t.Errorf("Expected one match:\n%s", text)
	}
	if !strings.Contains(text, `"path": "Projects/Alpha.md"`) {
		t.Errorf("Missing matching note:\n%s", text)
	}
	if !strings.Contains(text, "Tracker sync is pending.") {
		t.Errorf("Missing excerpt:\n%s", text)
	}
	if strings.Contains(text, "Projects/Beta.md") {
		t.Errorf("Non-matching note leaked in:\n%s", text)
	}
}

func TestSearchNotesToolScopesToDir(t *testing.T) {
	store := newMockStore()
	store.put("Projects/Alpha.md", nil, "needle\n")
	store.put("Daily/2026-01-01.md", nil, "needle\n")
	tool := &SearchNotesTool{store: store}

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"query": "needle",
		"dir":   "Daily",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	text := resultText(t, res)
	if !strings.Contains(text, "Daily/2026-01-01.md") {
		t.Errorf("Missing in-scope match:\n%s", text)
	}
	if strings.Contains(text, "Projects/Alpha.md") {
		t.Errorf("Out-of-scope match leaked in:\n%s", text)
	}
}

func TestSearchNotesToolRejectsEmptyQuery(t *testing.T) {
	tool := &SearchNotesTool{store: newMockStore()}

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{"query": "   "}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("Expected error result for an empty query")
	}
}

func TestBacklinksTool(t *testing.T) {
	store := newMockStore()
	store.put("Projects/Alpha.md", nil, "# Alpha\n")
	store.put("Now.md", nil, "Focus: [[Alpha]] today.\n")
	store.put("Daily/2026-01-01.md", nil, "Looked at [Alpha](Projects/Alpha.md).\n")
	store.put("Unrelated.md", nil, "No links here.\n")
	tool := &BacklinksTool{store: store}

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{"target": "Projects/Alpha"}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("Handle returned error result: %s", resultText(t, res))
	}

	text := resultText(t, res)
	if !strings.Contains(text, `"count": 2`) {
		t.Errorf("Expected two linking notes:\n%s", text)
	}
	if !strings.Contains(text, "Now.md") || !strings.Contains(text, "Daily/2026-01-01.md") {
		t.Errorf("Missing linking notes:\n%s", text)
	}
	if strings.Contains(text, "Unrelated.md") {
		t.Errorf("Unlinked note listed:\n%s", text)
	}
}

func TestBrokenLinksTool(t *testing.T) {
	store := newMockStore()
	store.put("Projects/Alpha.md", nil, "# Alpha\n")
	store.put("Now.md", nil, "See [[Alpha]] and [[Ghost Note]].\n")
	tool := &BrokenLinksTool{store: store}

	res, err := tool.Handle(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("Handle returned error result: %s", resultText(t, res))
	}

	text := resultText(t, res)
	if !strings.Contains(text, `"count": 1`) {
		t.Errorf("Expected one broken link:\n%s", text)
	}
	if !strings.Contains(text, `"target": "Ghost Note"`) {
		t.Errorf("Missing broken target:\n%s", text)
	}
	if !strings.Contains(text, `"path": "Now.md"`) {
		t.Errorf("Missing source note:\n%s", text)
	}
	if !strings.Contains(text, `"line": 1`) {
		t.Errorf("Missing line number:\n%s", text)
	}
}
