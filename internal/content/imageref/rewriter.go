// Package imageref rewrites local image references inside markdown bodies to
// the remote URLs their files were uploaded to.
package imageref

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"quill/internal/shared/logging"
)

// imagePattern matches ![alt](destination "optional title"). Group 2 is an
// angle-bracketed destination, group 3 a bare one.
var imagePattern = regexp.MustCompile(`!\[((?:[^\]\\]|\\.)*)\]\(\s*(?:<([^>\n]*)>|([^\s)]+))(?:\s+(?:"[^"]*"|'[^']*'))?\s*\)`)

// Rewriter replaces local image paths with remote URLs.
type Rewriter struct {
	logger logging.Logger
}

// New builds a Rewriter. A nil logger discards warnings.
func New(logger logging.Logger) *Rewriter {
	return &Rewriter{logger: logging.OrNop(logger)}
}

// Rewrite replaces the path argument of every local image reference whose
// file name is a key of uploaded. Other references are left byte-for-byte
// unchanged; local ones are counted as unmatched.
func (r *Rewriter) Rewrite(body string, uploaded map[string]string) (string, int) {
	matches := imagePattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body, 0
	}

	var out strings.Builder
	out.Grow(len(body))
	last := 0
	unmatched := 0
	for _, m := range matches {
		start, end := m[4], m[5]
		if start < 0 {
			start, end = m[6], m[7]
		}
		destination := body[start:end]
		if !IsLocal(destination) {
			continue
		}
		remote, ok := Lookup(uploaded, destination)
		if !ok {
			unmatched++
			r.logger.Warn("image reference %q has no uploaded asset, left unchanged", destination)
			continue
		}
		out.WriteString(body[last:start])
		out.WriteString(remote)
		last = end
	}
	out.WriteString(body[last:])
	return out.String(), unmatched
}

// IsLocal reports whether destination points at a local file rather than a
// remote or inline resource.
func IsLocal(destination string) bool {
	trimmed := strings.TrimSpace(destination)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, scheme := range []string{"http:", "https:", "data:", "ftp:", "mailto:"} {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return true
}

// Basename extracts the final file name segment of a reference, ignoring any
// query string or fragment and normalising Windows separators.
func Basename(destination string) string {
	cleaned := strings.TrimSpace(destination)
	if idx := strings.IndexAny(cleaned, "?#"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	cleaned = strings.ReplaceAll(cleaned, `\`, "/")
	cleaned = strings.TrimRight(cleaned, "/")
	if cleaned == "" {
		return ""
	}
	return path.Base(cleaned)
}

// Lookup resolves destination against uploaded, keyed by file name. The
// basename is tried verbatim first and then percent-decoded.
func Lookup(uploaded map[string]string, destination string) (string, bool) {
	name := Basename(destination)
	if name == "" {
		return "", false
	}
	if remote, ok := uploaded[name]; ok {
		return remote, true
	}
	if decoded, err := url.PathUnescape(name); err == nil && decoded != name {
		remote, ok := uploaded[decoded]
		return remote, ok
	}
	return "", false
}
