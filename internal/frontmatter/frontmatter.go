// Package frontmatter splits and joins YAML front matter on Markdown
// documents.
//
// A document carries front matter when its very first line is "---"; the
// block runs to the next line that is exactly "---". Everything after the
// closing delimiter is the body and is preserved byte-for-byte across a
// Split/Join round trip.
package frontmatter

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Text renders a front-matter value as display text. YAML decodes
// unquoted dates into time.Time, so date-ish fields arrive as either a
// string or a time.Time depending on how the author quoted them.
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Split separates a raw document into its front-matter mapping and body.
//
// Documents without front matter return a nil map and the input unchanged.
// An unterminated or unparseable front-matter block degrades: the whole
// input is returned as the body together with a non-nil error, so callers
// can surface a warning without losing the document.
func Split(raw string) (map[string]any, string, error) {
	var open string
	switch {
	case strings.HasPrefix(raw, delimiter+"\n"):
		open = delimiter + "\n"
	case strings.HasPrefix(raw, delimiter+"\r\n"):
		open = delimiter + "\r\n"
	default:
		return nil, raw, nil
	}

	rest := raw[len(open):]
	closeAt, bodyAt := findCloseDelimiter(rest)
	if closeAt < 0 {
		return nil, raw, fmt.Errorf("front matter opened but never closed")
	}

	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(rest[:closeAt]), &meta); err != nil {
		return nil, raw, fmt.Errorf("failed to parse front matter: %w", err)
	}

	return meta, rest[bodyAt:], nil
}

// Join renders a front-matter mapping followed by the body. A nil or empty
// mapping yields the body alone. The body is appended verbatim after the
// closing delimiter, which is what makes Split(Join(m, b)) return b exactly.
func Join(meta map[string]any, body string) (string, error) {
	if len(meta) == 0 {
		return body, nil
	}

	out, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to serialize front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString(delimiter + "\n")
	b.Write(out)
	b.WriteString(delimiter + "\n")
	b.WriteString(body)
	return b.String(), nil
}

// findCloseDelimiter scans for the first line that is exactly "---",
// returning the index where that line starts and the index just past its
// newline. Both are -1 when no closing delimiter exists.
func findCloseDelimiter(s string) (closeAt, bodyAt int) {
	offset := 0
	for {
		nl := strings.IndexByte(s[offset:], '\n')
		if nl < 0 {
			if strings.TrimRight(s[offset:], "\r") == delimiter {
				return offset, len(s)
			}
			return -1, -1
		}
		if strings.TrimRight(s[offset:offset+nl], "\r") == delimiter {
			return offset, offset + nl + 1
		}
		offset += nl + 1
	}
}
