package resources

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyLayout(t *testing.T) {
	t.Parallel()

	require.Equal(t, "posts/hello-world/", Namespace("hello-world"))
	require.Equal(t, "posts/hello-world/hello-world-index", ContentKey("hello-world"))
	require.Equal(t, "posts/hello-world/hello-world-cover-image", CoverKey("hello-world"))
	require.Equal(t, "posts/hello-world/gallery/hello-world-gallery-3", GalleryKey("hello-world", 3))
	require.Equal(t, "markdown:hello-world:hello-world-index", CacheKey("hello-world"))
}

func TestGalleryIndex(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key   string
		index int
		ok    bool
	}{
		{key: "posts/s/gallery/s-gallery-1", index: 1, ok: true},
		{key: "posts/s/gallery/s-gallery-12", index: 12, ok: true},
		{key: "posts/s/gallery/s-gallery-0", ok: false},
		{key: "posts/s/gallery/s-gallery-x", ok: false},
		{key: "posts/s/gallery/other-gallery-1", ok: false},
		{key: "posts/s/s-cover-image", ok: false},
	}
	for _, tc := range cases {
		index, ok := GalleryIndex("s", tc.key)
		require.Equal(t, tc.ok, ok, tc.key)
		require.Equal(t, tc.index, index, tc.key)
	}
}

func TestNormalizeDeleteKey(t *testing.T) {
	t.Parallel()

	key, err := NormalizeDeleteKey("s", "s-gallery-1")
	require.NoError(t, err)
	require.Equal(t, "posts/s/gallery/s-gallery-1", key)

	key, err = NormalizeDeleteKey("s", " posts/s/gallery/s-gallery-2 ")
	require.NoError(t, err)
	require.Equal(t, "posts/s/gallery/s-gallery-2", key)

	for _, raw := range []string{"", "posts/s/s-cover-image", "posts/other/gallery/other-gallery-1", "posts/s/gallery/nested/x"} {
		_, err := NormalizeDeleteKey("s", raw)
		require.ErrorIs(t, err, ErrForeignKey, raw)
	}
}

func TestValidateSlug(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSlug("hello-world_2.0"))
	for _, slug := range []string{"", "a/b", "-lead", "has space"} {
		require.ErrorIs(t, ValidateSlug(slug), ErrInvalidSlug, slug)
	}
}
