package vault

import (
	"fmt"
	"path"
	"strings"
)

// NormalizeRelPath validates a caller-supplied path and converts it to the
// canonical vault-relative form: slash-separated, cleaned, no leading "./".
// The empty result "" addresses the vault root itself.
//
// Inputs may use either separator convention. Absolute paths (POSIX,
// Windows drive-letter, UNC) and paths that escape the root are rejected
// with ErrInvalidPath.
func NormalizeRelPath(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	slashed := strings.ReplaceAll(trimmed, "\\", "/")

	if isAbsolute(slashed) {
		return "", fmt.Errorf("%w: absolute path %q", ErrInvalidPath, input)
	}

	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == "" {
		return "", nil
	}
	cleaned = strings.TrimPrefix(cleaned, "./")

	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q escapes the vault root", ErrInvalidPath, input)
	}

	return cleaned, nil
}

// NormalizeNotePath is NormalizeRelPath for note targets: the path must
// name a file, and a ".md" suffix is appended when absent. Targets that
// carry a recognized attachment extension (images, PDFs, media) are
// rejected with ErrNotMarkdown instead of being silently retargeted to
// "name.ext.md". Dots inside note names are otherwise fine.
func NormalizeNotePath(input string) (string, error) {
	rel, err := NormalizeRelPath(input)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", fmt.Errorf("%w: %q does not name a note", ErrInvalidPath, input)
	}
	if !strings.HasSuffix(strings.ToLower(rel), ".md") {
		if isAttachmentExt(path.Ext(rel)) {
			return "", fmt.Errorf("%w: %q", ErrNotMarkdown, input)
		}
		rel += ".md"
	}
	return rel, nil
}

// attachmentExts are file extensions that show up in vaults but never
// name a Markdown note.
var attachmentExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {},
	".svg": {}, ".bmp": {}, ".pdf": {}, ".mp3": {}, ".wav": {},
	".m4a": {}, ".ogg": {}, ".mp4": {}, ".mov": {}, ".webm": {},
	".zip": {}, ".canvas": {}, ".json": {}, ".csv": {}, ".txt": {},
	".html": {}, ".css": {}, ".js": {}, ".excalidraw": {},
}

func isAttachmentExt(ext string) bool {
	_, ok := attachmentExts[strings.ToLower(ext)]
	return ok
}

// isAbsolute detects absolute inputs across platform conventions after
// backslashes have been converted to forward slashes:
// "/etc/x", "C:/x" (drive letter), and "//host/share" (UNC).
func isAbsolute(slashed string) bool {
	if strings.HasPrefix(slashed, "/") {
		return true
	}
	if len(slashed) >= 2 && slashed[1] == ':' && isDriveLetter(slashed[0]) {
		return true
	}
	return false
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
