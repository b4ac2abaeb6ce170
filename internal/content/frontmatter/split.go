package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Parsed is a markdown document split into metadata and body.
type Parsed struct {
	FrontMatter FrontMatter
	Body        string
}

// Title returns the front matter title, falling back to the first level-one
// heading of the body.
func (p Parsed) Title() string {
	if title := p.FrontMatter.Title(); title != "" {
		return title
	}
	return FirstHeading(p.Body)
}

// ParseWarning describes front matter that was present but unusable. It is
// never fatal: the document is treated as having no front matter.
type ParseWarning struct {
	Reason string
	Err    error
}

func (w *ParseWarning) Error() string {
	if w.Err != nil {
		return fmt.Sprintf("front matter ignored: %s: %v", w.Reason, w.Err)
	}
	return "front matter ignored: " + w.Reason
}

func (w *ParseWarning) Unwrap() error {
	return w.Err
}

// Split separates raw into front matter and body.
func Split(raw string) (FrontMatter, string) {
	parsed, _ := SplitWithWarning(raw)
	return parsed.FrontMatter, parsed.Body
}

// SplitWithWarning behaves like Split and additionally reports why an
// apparent front matter block was discarded.
func SplitWithWarning(raw string) (Parsed, *ParseWarning) {
	noFrontMatter := Parsed{FrontMatter: FrontMatter{}, Body: raw}

	meta, body, found := splitBlock(raw)
	if !found {
		return noFrontMatter, nil
	}

	var decoded map[string]any
	if err := yaml.Unmarshal([]byte(meta), &decoded); err != nil {
		return noFrontMatter, &ParseWarning{Reason: "invalid yaml", Err: err}
	}
	if decoded == nil {
		decoded = map[string]any{}
	}
	return Parsed{FrontMatter: FrontMatter(decoded), Body: body}, nil
}

// splitBlock finds a front matter block delimited by "---" lines at the very
// start of the document. An unterminated block is not front matter.
func splitBlock(content string) (string, string, bool) {
	lines := strings.SplitAfter(strings.TrimPrefix(content, "\ufeff"), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != delimiter {
		return "", content, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t\r\n") == delimiter {
			meta := strings.Join(lines[1:i], "")
			body := strings.Join(lines[i+1:], "")
			return meta, body, true
		}
	}
	return "", content, false
}
