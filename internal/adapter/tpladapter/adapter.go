package tpladapter

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	_ "embed"
)

//go:embed template.html
var defaultTemplate string

type page struct {
	Title   string
	Content template.HTML
}

// tplAdapter wraps the cleaned markup of a text lecture into a standalone HTML document.
type tplAdapter struct {
	tpl *template.Template
}

// NewTplAdapter parses templateFileName, or the embedded template when it is empty.
// A custom template gets .Title and .Content.
func NewTplAdapter(templateFileName string) (*tplAdapter, error) {
	src := defaultTemplate
	if templateFileName != "" {
		data, err := os.ReadFile(templateFileName)
		if err != nil {
			return nil, fmt.Errorf("cannot read template: %w", err)
		}

		src = string(data)
	}

	tpl, err := template.New("lecture").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("cannot parse template: %w", err)
	}

	return &tplAdapter{tpl: tpl}, nil
}

// Render returns the document for a lecture. content is trusted markup taken
// from the lecture page and is not escaped.
func (a *tplAdapter) Render(title, content string) ([]byte, error) {
	buf := bytes.Buffer{}
	if err := a.tpl.Execute(&buf, &page{Title: title, Content: template.HTML(content)}); err != nil {
		return nil, fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.Bytes(), nil
}
