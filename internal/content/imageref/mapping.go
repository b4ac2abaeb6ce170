package imageref

import "fmt"

// CollisionWarning reports two uploaded files sharing a basename. The first
// registered mapping keeps the name.
type CollisionWarning struct {
	Name     string
	Kept     string
	Rejected string
}

func (w CollisionWarning) Error() string {
	return fmt.Sprintf("reference collision on %q: keeping %s, ignoring %s", w.Name, w.Kept, w.Rejected)
}

// Mapping accumulates file name to URL pairs in registration order.
type Mapping struct {
	urls       map[string]string
	collisions []CollisionWarning
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{urls: make(map[string]string)}
}

// Add registers filename (reduced to its basename) for url. It returns false
// and records a CollisionWarning when the basename is already taken.
func (m *Mapping) Add(filename, url string) bool {
	name := Basename(filename)
	if name == "" || url == "" {
		return false
	}
	if existing, ok := m.urls[name]; ok {
		if existing != url {
			m.collisions = append(m.collisions, CollisionWarning{Name: name, Kept: existing, Rejected: url})
		}
		return false
	}
	m.urls[name] = url
	return true
}

// URLs returns the registered mapping. The map is shared, not copied.
func (m *Mapping) URLs() map[string]string {
	return m.urls
}

// Collisions returns every basename collision seen so far.
func (m *Mapping) Collisions() []CollisionWarning {
	return append([]CollisionWarning(nil), m.collisions...)
}

// Len returns the number of distinct names registered.
func (m *Mapping) Len() int {
	return len(m.urls)
}
