package frontmatter

import (
	"fmt"
	"sort"
	"strings"
)

// Known front matter keys.
const (
	KeyTitle      = "title"
	KeyCategories = "categories"
	KeyTags       = "tags"
	KeyStatus     = "status"
)

// DefaultStatus is reported when the document does not declare one.
const DefaultStatus = "draft"

// FrontMatter holds arbitrary key/value metadata. Unknown keys are preserved
// as decoded by YAML.
type FrontMatter map[string]any

// Get returns the raw value stored under key.
func (f FrontMatter) Get(key string) (any, bool) {
	if f == nil {
		return nil, false
	}
	value, ok := f[key]
	return value, ok
}

// String returns the value under key rendered as a trimmed string.
func (f FrontMatter) String(key string) string {
	value, ok := f.Get(key)
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// Title returns the declared title, if any.
func (f FrontMatter) Title() string {
	return f.String(KeyTitle)
}

// Status returns the declared publishing status, lower-cased, or DefaultStatus.
func (f FrontMatter) Status() string {
	status := strings.ToLower(f.String(KeyStatus))
	if status == "" {
		return DefaultStatus
	}
	return status
}

// Categories accepts a YAML list or a comma separated string.
func (f FrontMatter) Categories() []string {
	return f.List(KeyCategories)
}

// Tags accepts a YAML list or a comma separated string.
func (f FrontMatter) Tags() []string {
	return f.List(KeyTags)
}

// List returns the value under key as a de-duplicated list of non-empty strings.
func (f FrontMatter) List(key string) []string {
	value, ok := f.Get(key)
	if !ok || value == nil {
		return nil
	}
	var raw []string
	switch typed := value.(type) {
	case string:
		raw = strings.Split(typed, ",")
	case []string:
		raw = typed
	case []any:
		for _, item := range typed {
			if item == nil {
				continue
			}
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		raw = []string{fmt.Sprint(typed)}
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Extra returns the keys that have no typed accessor, sorted.
func (f FrontMatter) Extra() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		switch key {
		case KeyTitle, KeyCategories, KeyTags, KeyStatus:
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
