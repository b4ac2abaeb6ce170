package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitParsesFrontMatterAndBody(t *testing.T) {
	t.Parallel()

	raw := "---\ntitle: Hello World\ncategories: [go, web]\ntags: \"intro, go, intro\"\nstatus: Published\nreading_time: 4\n---\n# Hello\n\nBody text.\n"
	meta, body := Split(raw)

	require.Equal(t, "# Hello\n\nBody text.\n", body)
	require.Equal(t, "Hello World", meta.Title())
	require.Equal(t, []string{"go", "web"}, meta.Categories())
	require.Equal(t, []string{"intro", "go"}, meta.Tags())
	require.Equal(t, "published", meta.Status())
	require.Equal(t, []string{"reading_time"}, meta.Extra())
	value, ok := meta.Get("reading_time")
	require.True(t, ok)
	require.Equal(t, 4, value)
}

func TestSplitWithoutFrontMatterReturnsOriginal(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"# Hi\n![cat](cat.png)",
		"---",
		"---\ntitle: never closed\nbody",
		"intro\n---\ntitle: x\n---\n",
	}
	for _, raw := range cases {
		meta, body := Split(raw)
		require.Empty(t, meta)
		require.NotNil(t, meta)
		require.Equal(t, raw, body)
	}
}

func TestSplitMalformedYAMLDegradesWithWarning(t *testing.T) {
	t.Parallel()

	raw := "---\ntitle: [unterminated\n---\nbody"
	parsed, warning := SplitWithWarning(raw)

	require.NotNil(t, warning)
	require.Contains(t, warning.Error(), "invalid yaml")
	require.Empty(t, parsed.FrontMatter)
	require.Equal(t, raw, parsed.Body)
}

func TestSplitEmptyBlockAndCRLF(t *testing.T) {
	t.Parallel()

	meta, body := Split("---\r\n---\r\nbody\r\n")
	require.Empty(t, meta)
	require.Equal(t, "body\r\n", body)

	meta, body = Split("---\r\ntitle: CRLF\r\n---\r\ntext")
	require.Equal(t, "CRLF", meta.Title())
	require.Equal(t, "text", body)
}

func TestStatusDefaultsToDraft(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultStatus, FrontMatter{}.Status())
	require.Nil(t, FrontMatter(nil).Tags())
}

func TestParsedTitleFallsBackToFirstHeading(t *testing.T) {
	t.Parallel()

	parsed, warning := SplitWithWarning("intro paragraph\n\n## Sub\n\n# Main *Title*\n")
	require.Nil(t, warning)
	require.Equal(t, "Main Title", parsed.Title())

	parsed, _ = SplitWithWarning("---\ntitle: Declared\n---\n# Heading\n")
	require.Equal(t, "Declared", parsed.Title())

	require.Equal(t, "", FirstHeading("no headings here"))
}
