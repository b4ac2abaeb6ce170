package imageref

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// LocalImages walks the markdown AST and returns the destination of every
// local image in document order. It sees the document the way a renderer
// does, so references inside code spans and fenced blocks are excluded; the
// regex-based Rewrite does not make that distinction.
func LocalImages(body string) []string {
	source := []byte(body)
	document := goldmark.New().Parser().Parse(text.NewReader(source))

	var destinations []string
	_ = ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if image, ok := node.(*ast.Image); ok {
			destination := string(image.Destination)
			if IsLocal(destination) {
				destinations = append(destinations, destination)
			}
		}
		return ast.WalkContinue, nil
	})
	return destinations
}
