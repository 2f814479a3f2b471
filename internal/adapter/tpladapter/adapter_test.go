package tpladapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	a, err := NewTplAdapter("")
	require.NoError(t, err)

	out, err := a.Render("4- Vectors & Arrays", `<div role="main"><p>Hello</p></div>`)
	require.NoError(t, err)

	doc := string(out)
	require.Contains(t, doc, "<title> 4- Vectors &amp; Arrays </title>")
	require.Contains(t, doc, `<div id="root">`+"\n"+`<div role="main"><p>Hello</p></div>`)
	require.Contains(t, doc, "background-color: #111112;")
}

func TestRenderCustomTemplate(t *testing.T) {
	name := filepath.Join(t.TempDir(), "lecture.html")
	require.NoError(t, os.WriteFile(name, []byte(`<h1>{{.Title}}</h1>{{.Content}}`), 0o644))

	a, err := NewTplAdapter(name)
	require.NoError(t, err)

	out, err := a.Render("Intro", "<p>x</p>")
	require.NoError(t, err)
	require.Equal(t, "<h1>Intro</h1><p>x</p>", string(out))
}

func TestNewTplAdapterErrors(t *testing.T) {
	_, err := NewTplAdapter(filepath.Join(t.TempDir(), "missing.html"))
	require.Error(t, err)

	name := filepath.Join(t.TempDir(), "broken.html")
	require.NoError(t, os.WriteFile(name, []byte(`{{.Title`), 0o644))

	_, err = NewTplAdapter(name)
	require.Error(t, err)
}
