package search

import (
	"fmt"
	"path"
	"strings"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/vault"
)

// link is one outbound note reference found in a body.
type link struct {
	target string
	line   int
}

// BrokenLink is a link whose target resolves to no existing note.
type BrokenLink struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Target string `json:"target"`
}

// Backlinks lists the notes that link to target, in path order. Both
// wiki forms ([[name]], [[name|label]], extension and case insensitive,
// bare or full path) and Markdown links to the target path count. The
// target note itself is excluded.
func Backlinks(store Store, target string) ([]string, error) {
	want, err := vault.NormalizeNotePath(target)
	if err != nil {
		return nil, err
	}

	notes, err := store.ListMarkdownFiles("")
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	var sources []string
	for _, rel := range notes {
		if strings.EqualFold(rel, want) {
			continue
		}
		doc, err := store.ReadNote(rel)
		if err != nil {
			continue
		}

		fromDir := path.Dir(rel)
		for _, l := range extractLinks(doc.Body) {
			if matchesTarget(l.target, fromDir, want) {
				sources = append(sources, rel)
				break
			}
		}
	}

	return sources, nil
}

// BrokenLinks lists every link under dir whose target is not an
// existing note. Targets resolve like Obsidian's: exact vault path,
// path relative to the linking note, or bare note name anywhere in the
// vault.
func BrokenLinks(store Store, dir string) ([]BrokenLink, error) {
	all, err := store.ListMarkdownFiles("")
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	exact := make(map[string]bool, len(all))
	stems := make(map[string]bool, len(all))
	for _, rel := range all {
		lowered := strings.TrimSuffix(strings.ToLower(rel), ".md")
		exact[lowered] = true
		stems[path.Base(lowered)] = true
	}

	scan := all
	if dir != "" {
		scan, err = store.ListMarkdownFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to list notes in %q: %w", dir, err)
		}
	}

	var broken []BrokenLink
	for _, rel := range scan {
		doc, err := store.ReadNote(rel)
		if err != nil {
			continue
		}

		fromDir := path.Dir(rel)
		for _, l := range extractLinks(doc.Body) {
			if resolves(l.target, fromDir, exact, stems) {
				continue
			}
			broken = append(broken, BrokenLink{Path: rel, Line: l.line, Target: l.target})
		}
	}

	return broken, nil
}

// extractLinks scans a body line by line for note link targets.
func extractLinks(body string) []link {
	var links []link
	for i, line := range strings.Split(body, "\n") {
		for _, target := range lineLinks(line) {
			links = append(links, link{target: target, line: i + 1})
		}
	}
	return links
}

// lineLinks collects the wiki and Markdown link targets on one line.
func lineLinks(line string) []string {
	var targets []string

	rest := line
	for {
		start := strings.Index(rest, "[[")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+2:], "]]")
		if end < 0 {
			break
		}
		inner := rest[start+2 : start+2+end]
		rest = rest[start+2+end+2:]
		if target := cleanWikiTarget(inner); target != "" {
			targets = append(targets, target)
		}
	}

	rest = line
	for {
		start := strings.Index(rest, "](")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+2:], ")")
		if end < 0 {
			break
		}
		inner := rest[start+2 : start+2+end]
		rest = rest[start+2+end+1:]
		if target := cleanMarkdownTarget(inner); target != "" {
			targets = append(targets, target)
		}
	}

	return targets
}

// cleanWikiTarget strips the alias and heading anchor from a wiki link
// body. Same-note anchors and asset embeds yield "".
func cleanWikiTarget(inner string) string {
	target := inner
	if i := strings.Index(target, "|"); i >= 0 {
		target = target[:i]
	}
	if i := strings.Index(target, "#"); i >= 0 {
		target = target[:i]
	}
	target = strings.TrimSpace(target)
	if hasAssetExtension(target) {
		return ""
	}
	return target
}

// cleanMarkdownTarget extracts the path from a Markdown link
// destination, dropping titles, anchors, external URLs and assets.
func cleanMarkdownTarget(inner string) string {
	target := strings.TrimSpace(inner)
	if strings.HasPrefix(target, "<") {
		// Angle form allows spaces in the path.
		if end := strings.Index(target, ">"); end >= 0 {
			target = target[1:end]
		} else {
			target = strings.TrimPrefix(target, "<")
		}
	} else if i := strings.IndexAny(target, " \t"); i >= 0 {
		target = target[:i]
	}

	if target == "" || strings.HasPrefix(target, "#") {
		return ""
	}
	if strings.Contains(target, "://") || strings.HasPrefix(target, "mailto:") {
		return ""
	}
	if i := strings.Index(target, "#"); i >= 0 {
		target = target[:i]
	}
	if hasAssetExtension(target) {
		return ""
	}
	return target
}

// hasAssetExtension reports whether the target names a non-note file.
// Dots inside note names ("v1.2 notes") do not count as extensions.
func hasAssetExtension(target string) bool {
	ext := path.Ext(target)
	if ext == "" || strings.ContainsAny(ext, " \t") {
		return false
	}
	return !strings.EqualFold(ext, ".md")
}

// matchesTarget reports whether a link target refers to the wanted
// note: same full path, bare note name, or path relative to the
// linking note's folder. Comparison ignores case and the .md suffix.
func matchesTarget(linkTarget, fromDir, want string) bool {
	t := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(linkTarget)), ".md")
	w := strings.TrimSuffix(strings.ToLower(want), ".md")
	if t == "" {
		return false
	}
	if t == w {
		return true
	}
	if !strings.Contains(t, "/") && path.Base(w) == t {
		return true
	}
	return path.Clean(path.Join(strings.ToLower(fromDir), t)) == w
}

// resolves reports whether a link target names an existing note.
func resolves(target, fromDir string, exact, stems map[string]bool) bool {
	t := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(target)), ".md")
	if t == "" {
		return true
	}
	if exact[t] {
		return true
	}
	if !strings.Contains(t, "/") && stems[t] {
		return true
	}
	return exact[path.Clean(path.Join(strings.ToLower(fromDir), t))]
}
