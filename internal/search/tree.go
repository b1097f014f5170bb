package search

import (
	"fmt"
	"strings"
)

// Tree renders an indented listing of the folders and notes under dir,
// two spaces per level, folders suffixed with "/". A positive depth
// limits how many levels show; content below the cut collapses into a
// single "..." line per folder. Zero or negative depth means no limit.
func Tree(store Store, dir string, depth int) (string, error) {
	notes, err := store.ListMarkdownFiles(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list notes in %q: %w", dir, err)
	}

	prefix := ""
	if dir != "" {
		prefix = strings.TrimSuffix(dir, "/") + "/"
	}

	var b strings.Builder
	printed := map[string]bool{}
	truncated := map[string]bool{}

	for _, note := range notes {
		rel := strings.TrimPrefix(note, prefix)
		segs := strings.Split(rel, "/")

		if depth > 0 && len(segs) > depth {
			boundary := segs[:depth]
			writeDirLines(&b, boundary, printed)
			key := strings.Join(boundary, "/")
			if !truncated[key] {
				truncated[key] = true
				b.WriteString(strings.Repeat("  ", depth))
				b.WriteString("...\n")
			}
			continue
		}

		writeDirLines(&b, segs[:len(segs)-1], printed)
		b.WriteString(strings.Repeat("  ", len(segs)-1))
		b.WriteString(segs[len(segs)-1])
		b.WriteString("\n")
	}

	return b.String(), nil
}

// writeDirLines prints each not-yet-printed ancestor folder line.
func writeDirLines(b *strings.Builder, segs []string, printed map[string]bool) {
	for i := range segs {
		key := strings.Join(segs[:i+1], "/")
		if printed[key] {
			continue
		}
		printed[key] = true
		b.WriteString(strings.Repeat("  ", i))
		b.WriteString(segs[i])
		b.WriteString("/\n")
	}
}
