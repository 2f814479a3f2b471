package mdext

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	startSeq = []byte{'[', '['}
	endSeq   = []byte{']', ']'}
	labelSeq = []byte{'|'}

	resolverKey = parser.NewContextKey()
)

// File is what a link renders: the relative href plus listing details.
type File struct {
	Name     string
	Href     string
	Size     string
	MIMEType string
}

type FileResolver interface {
	File(path string) (*File, error)
}

// NewContext returns a parser context that hands r to the link parser.
func NewContext(r FileResolver) parser.Context {
	pc := parser.NewContext()
	pc.Set(resolverKey, r)

	return pc
}

/*
 * [[1- Intro/1- Welcome.mp4]]
 * [[1- Intro/1- Welcome.mp4|Welcome]]
 */
type fileLinkParser struct{}

func NewFileLinkParser() parser.InlineParser {
	return &fileLinkParser{}
}

func (p *fileLinkParser) Trigger() []byte {
	return startSeq
}

func (p *fileLinkParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, startSeq) {
		return nil
	}

	end := bytes.Index(line, endSeq)
	if end < 0 {
		return nil
	}

	body := line[len(startSeq):end]

	path, label := body, []byte(nil)
	if idx := bytes.Index(body, labelSeq); idx >= 0 {
		path, label = body[:idx], body[idx+len(labelSeq):]
	}

	path = bytes.TrimSpace(path)
	if len(path) == 0 {
		return nil
	}

	block.Advance(end + len(endSeq))

	node := &FileLink{
		Path:  string(path),
		Label: string(bytes.TrimSpace(label)),
	}

	if r, ok := pc.Get(resolverKey).(FileResolver); ok {
		if f, err := r.File(node.Path); err == nil {
			node.File = f
		}
	}

	return node
}
