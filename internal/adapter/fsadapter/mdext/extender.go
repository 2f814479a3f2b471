package mdext

import (
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// Ahead of the link parser, which also triggers on '['.
const priority = 199

type fileLinks struct {
	tmpl *template.Template
}

// NewFileLinks renders [[path]] links with the FILE template of tmpl, or
// MISSING when the resolver passed to the conversion does not know the path.
func NewFileLinks(tmpl *template.Template) goldmark.Extender {
	return &fileLinks{tmpl: tmpl}
}

func (e *fileLinks) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(NewFileLinkParser(), priority),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewFileLinkRenderer(e.tmpl), priority),
		),
	)
}
