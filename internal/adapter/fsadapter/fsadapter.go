package fsadapter

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "embed"

	"github.com/gosimple/slug"
	"github.com/jgivc/coursefetch/internal/adapter/fsadapter/mdext"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
	"gopkg.in/yaml.v2"
)

const (
	IndexFileName = "index.html"

	fileMode              = 0o644
	mimeTypeUnknown       = "application/octet-stream"
	mimeTypeCheckPartSize = 512
)

//go:embed templates/index.html
var defaultIndexContent string

type Frontmatter struct {
	Title     string    `yaml:"title"`
	Generated time.Time `yaml:"generated"`
	Sections  int       `yaml:"sections"`
	Files     int       `yaml:"files"`
}

type PageContext struct {
	ContentHTML template.HTML
	Frontmatter *Frontmatter
}

type indexFile struct {
	Name     string
	Size     int64
	MIMEType string
}

type indexSection struct {
	Name  string
	Files []indexFile
}

// fsAdapter writes an index.html into a downloaded course directory listing
// every section directory and the files in it.
type fsAdapter struct {
	fs   afero.Fs
	md   goldmark.Markdown
	tmpl *template.Template
	now  func() time.Time

	log *slog.Logger
}

func NewFSAdapter(log *slog.Logger) (*fsAdapter, error) {
	return NewFSAdapterWithFS(afero.NewOsFs(), log)
}

func NewFSAdapterWithFS(fs afero.Fs, log *slog.Logger) (*fsAdapter, error) {
	tmpl, err := template.New("index").Parse(defaultIndexContent)
	if err != nil {
		return nil, fmt.Errorf("cannot parse index template: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&frontmatter.Extender{},
			mdext.NewFileLinks(tmpl),
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	return &fsAdapter{
		fs:   fs,
		md:   md,
		tmpl: tmpl,
		now:  time.Now,
		log:  log.With(slog.String("item", "FSAdapter")),
	}, nil
}

// WriteIndex replaces courseDir/index.html.
func (a *fsAdapter) WriteIndex(courseDir, title string) error {
	sections, err := a.readSections(courseDir)
	if err != nil {
		return fmt.Errorf("cannot read course dir: %w", err)
	}

	src, err := a.markdown(title, sections)
	if err != nil {
		return fmt.Errorf("cannot build markdown: %w", err)
	}

	pc := mdext.NewContext(newFileIndex(sections))

	var buf bytes.Buffer
	if err := a.md.Convert(src, &buf, parser.WithContext(pc)); err != nil {
		return fmt.Errorf("cannot convert markdown: %w", err)
	}

	var fm Frontmatter
	if data := frontmatter.Get(pc); data != nil {
		if err := data.Decode(&fm); err != nil {
			return fmt.Errorf("cannot decode frontmatter: %w", err)
		}
	}

	page, err := buildTemplate(a.tmpl, &PageContext{ContentHTML: template.HTML(buf.String()), Frontmatter: &fm})
	if err != nil {
		return fmt.Errorf("cannot build page: %w", err)
	}

	name := filepath.Join(courseDir, IndexFileName)
	if err := afero.WriteFile(a.fs, name, []byte(page), fileMode); err != nil {
		return fmt.Errorf("cannot write %s: %w", name, err)
	}

	a.log.Info("Index written", slog.String("path", name), slog.Int("sections", fm.Sections), slog.Int("files", fm.Files))

	return nil
}

func (a *fsAdapter) readSections(courseDir string) ([]indexSection, error) {
	entries, err := afero.ReadDir(a.fs, courseDir)
	if err != nil {
		return nil, err
	}
	sortByNumber(entries)

	var sections []indexSection
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		files, err := a.readFiles(filepath.Join(courseDir, entry.Name()))
		if err != nil {
			return nil, err
		}

		sections = append(sections, indexSection{Name: entry.Name(), Files: files})
	}

	return sections, nil
}

func (a *fsAdapter) readFiles(folderPath string) ([]indexFile, error) {
	entries, err := afero.ReadDir(a.fs, folderPath)
	if err != nil {
		return nil, err
	}
	sortByNumber(entries)

	var files []indexFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(folderPath, entry.Name())

		mimeType, err := a.getMimeType(path)
		if err != nil {
			a.log.Error("Cannot get file mimeType", slog.String("path", path), slog.Any("error", err))
		}

		files = append(files, indexFile{Name: entry.Name(), Size: entry.Size(), MIMEType: mimeType})
	}

	return files, nil
}

// markdown renders the listing with a frontmatter block the page header is built from.
func (a *fsAdapter) markdown(title string, sections []indexSection) ([]byte, error) {
	fm := Frontmatter{Title: title, Generated: a.now().UTC(), Sections: len(sections)}
	for _, section := range sections {
		fm.Files += len(section.Files)
	}

	head, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", escape(title))

	for _, section := range sections {
		fmt.Fprintf(&b, "- [%s](#%s)\n", escape(section.Name), anchor(section.Name))
	}

	for _, section := range sections {
		fmt.Fprintf(&b, "\n## %s {#%s}\n\n", escape(section.Name), anchor(section.Name))

		if len(section.Files) == 0 {
			b.WriteString("Nothing downloaded.\n")

			continue
		}

		for _, file := range section.Files {
			if strings.Contains(section.Name, "]]") || strings.Contains(file.Name, "]]") {
				fmt.Fprintf(&b, "- [%s](%s)\n", escape(file.Name), href(section.Name, file.Name))

				continue
			}

			fmt.Fprintf(&b, "- [[%s/%s]]\n", section.Name, file.Name)
		}
	}

	return []byte(b.String()), nil
}

// sortByNumber orders "10- Arrays" after "9- Loops". Names without a numeric
// prefix go last, and equal prefixes fall back to the name.
func sortByNumber(entries []os.FileInfo) {
	slices.SortFunc(entries, func(a, b os.FileInfo) int {
		na, oka := numberPrefix(a.Name())
		nb, okb := numberPrefix(b.Name())

		switch {
		case oka && okb && na != nb:
			return na - nb
		case oka != okb:
			if oka {
				return -1
			}

			return 1
		}

		return strings.Compare(a.Name(), b.Name())
	})
}

func numberPrefix(name string) (int, bool) {
	prefix, _, found := strings.Cut(name, "-")
	if !found {
		return 0, false
	}

	n, err := strconv.Atoi(strings.TrimSpace(prefix))
	if err != nil {
		return 0, false
	}

	return n, true
}

// fileIndex resolves "section/file" links of the listing.
type fileIndex map[string]*mdext.File

func newFileIndex(sections []indexSection) fileIndex {
	idx := make(fileIndex)

	for _, section := range sections {
		for _, file := range section.Files {
			idx[section.Name+"/"+file.Name] = &mdext.File{
				Name:     file.Name,
				Href:     href(section.Name, file.Name),
				Size:     humanSize(file.Size),
				MIMEType: file.MIMEType,
			}
		}
	}

	return idx
}

func (idx fileIndex) File(path string) (*mdext.File, error) {
	f, ok := idx[path]
	if !ok {
		return nil, fmt.Errorf("file %s is not listed", path)
	}

	return f, nil
}

func href(section, file string) string {
	return url.PathEscape(section) + "/" + url.PathEscape(file)
}

func buildTemplate(tmpl *template.Template, data any) (string, error) {
	buf := bytes.Buffer{}

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.String(), nil
}

func (a *fsAdapter) getMimeType(filePath string) (string, error) {
	if ext := filepath.Ext(filePath); ext != "" {
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			return mimeType, nil
		}
	}

	file, err := a.fs.Open(filePath)
	if err != nil {
		return mimeTypeUnknown, err
	}
	defer file.Close()

	buffer := make([]byte, mimeTypeCheckPartSize)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return mimeTypeUnknown, err
	}

	return http.DetectContentType(buffer[:n]), nil
}

func anchor(name string) string {
	if s := slug.Make(name); s != "" {
		return s
	}

	return "section"
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`, "`", "\\`", `#`, `\#`, `{`, `\{`, `}`, `\}`)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
