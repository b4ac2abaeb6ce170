package resources

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	postsRoot   = "posts"
	contentRole = "index"
	coverRole   = "cover-image"
	galleryDir  = "gallery"
	galleryRole = "gallery"
	cachePrefix = "markdown"
)

var (
	// ErrInvalidSlug rejects slugs that cannot name a namespace.
	ErrInvalidSlug = errors.New("invalid post slug")
	// ErrForeignKey rejects deletion keys outside the post's gallery.
	ErrForeignKey = errors.New("key outside post gallery")

	slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// ValidateSlug reports whether slug can be used as a namespace.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// Namespace is the key prefix shared by every resource of a post.
func Namespace(slug string) string {
	return postsRoot + "/" + slug + "/"
}

// ContentKey addresses the markdown body.
func ContentKey(slug string) string {
	return Namespace(slug) + ContentRole(slug)
}

// ContentRole is the content key without its namespace.
func ContentRole(slug string) string {
	return slug + "-" + contentRole
}

// CoverKey addresses the cover image.
func CoverKey(slug string) string {
	return Namespace(slug) + slug + "-" + coverRole
}

// GalleryPrefix is the prefix of every gallery key.
func GalleryPrefix(slug string) string {
	return Namespace(slug) + galleryDir + "/"
}

// GalleryKey addresses the gallery image at 1-based index n.
func GalleryKey(slug string, n int) string {
	return GalleryPrefix(slug) + galleryRolePrefix(slug) + strconv.Itoa(n)
}

// CacheKey is the read-through cache key of the published body.
func CacheKey(slug string) string {
	return cachePrefix + ":" + slug + ":" + ContentRole(slug)
}

func galleryRolePrefix(slug string) string {
	return slug + "-" + galleryRole + "-"
}

// GalleryIndex parses the numeric suffix of a gallery key. It returns false
// for keys outside the gallery or with a suffix that is not a positive
// integer.
func GalleryIndex(slug, key string) (int, bool) {
	role, ok := strings.CutPrefix(key, GalleryPrefix(slug))
	if !ok {
		return 0, false
	}
	suffix, ok := strings.CutPrefix(role, galleryRolePrefix(slug))
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// NormalizeDeleteKey expands a gallery role name ("s-gallery-2") to its full
// key and rejects anything that does not live in the post's gallery.
func NormalizeDeleteKey(slug, raw string) (string, error) {
	key := strings.Trim(strings.TrimSpace(raw), "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrForeignKey)
	}
	if !strings.Contains(key, "/") {
		key = GalleryPrefix(slug) + key
	}
	role, ok := strings.CutPrefix(key, GalleryPrefix(slug))
	if !ok || role == "" || strings.Contains(role, "/") {
		return "", fmt.Errorf("%w: %q", ErrForeignKey, raw)
	}
	return key, nil
}
