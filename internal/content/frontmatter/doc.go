// Package frontmatter splits a markdown document into its YAML front matter
// and body. Splitting never fails: a document whose front matter cannot be
// parsed is returned whole as body with an empty front matter map.
package frontmatter
