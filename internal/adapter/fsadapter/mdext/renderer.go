package mdext

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

const (
	TmplNameFile    = "FILE"
	TmplNameMissing = "MISSING"
)

type linkData struct {
	*File
	Label string
	Path  string
}

type fileLinkRenderer struct {
	tmpl *template.Template
}

func NewFileLinkRenderer(tmpl *template.Template) renderer.NodeRenderer {
	return &fileLinkRenderer{tmpl: tmpl}
}

func (r *fileLinkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindFileLink, r.renderFileLink)
}

func (r *fileLinkRenderer) renderFileLink(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	link, ok := n.(*FileLink)
	if !ok {
		return ast.WalkStop, fmt.Errorf("unexpected node %T, expected *FileLink", n)
	}

	data := &linkData{File: link.File, Label: link.Label, Path: link.Path}

	name := TmplNameFile
	if link.File == nil {
		name = TmplNameMissing
	} else if data.Label == "" {
		data.Label = link.File.Name
	}

	out, err := r.renderTemplate(name, data)
	if err != nil {
		return ast.WalkStop, err
	}

	_, _ = w.Write(out)

	return ast.WalkSkipChildren, nil
}

func (r *fileLinkRenderer) renderTemplate(name string, data any) ([]byte, error) {
	tmpl := r.tmpl.Lookup(name)
	if tmpl == nil {
		return nil, fmt.Errorf("template with name %s must be defined", name)
	}

	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.Bytes(), nil
}
