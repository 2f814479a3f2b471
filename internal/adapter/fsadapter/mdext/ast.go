package mdext

import (
	"github.com/yuin/goldmark/ast"
)

var KindFileLink = ast.NewNodeKind("FileLink")

// FileLink is a [[path]] or [[path|label]] reference to a downloaded file.
type FileLink struct {
	ast.BaseInline
	Path  string
	Label string
	File  *File // nil when the path did not resolve
}

func (n *FileLink) Kind() ast.NodeKind {
	return KindFileLink
}

func (n *FileLink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Path":  n.Path,
		"Label": n.Label,
	}, nil)
}
