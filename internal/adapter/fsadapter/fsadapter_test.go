package fsadapter

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestWriteIndex(t *testing.T) {
	fs := afero.NewMemMapFs()
	courseDir := "/data/Go Basics"

	files := map[string]string{
		"1- Intro/1- Welcome.mp4":         "video",
		"1- Intro/01-resource_Slides.pdf": "%PDF-1.4",
		"2- Types/2- Numbers.html":        "<html></html>",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(courseDir, name), []byte(content), 0o644))
	}
	require.NoError(t, fs.MkdirAll(filepath.Join(courseDir, "3- Empty"), 0o755))

	a, err := NewFSAdapterWithFS(fs, discardLogger())
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	require.NoError(t, a.WriteIndex(courseDir, "Go Basics"))

	data, err := afero.ReadFile(fs, filepath.Join(courseDir, IndexFileName))
	require.NoError(t, err)

	page := string(data)
	require.Contains(t, page, "<title>Go Basics</title>")
	require.Contains(t, page, "3 sections, 3 files, updated 2024-03-01 12:30")
	require.Contains(t, page, `<h2 id="1-intro">1- Intro</h2>`)
	require.Contains(t, page, `<a href="#2-types">2- Types</a>`)
	require.Contains(t, page, `href="1-%20Intro/1-%20Welcome.mp4"`)
	require.Contains(t, page, "01-resource_Slides.pdf")
	require.Contains(t, page, "application/pdf")
	require.Contains(t, page, `<span class="size">5 B</span>`)
	require.Contains(t, page, "Nothing downloaded.")
	require.NotContains(t, page, "generated:")

	// a second run lists the same content and ignores the index itself
	require.NoError(t, a.WriteIndex(courseDir, "Go Basics"))

	again, err := afero.ReadFile(fs, filepath.Join(courseDir, IndexFileName))
	require.NoError(t, err)
	require.Equal(t, page, string(again))
}

func TestWriteIndexNumericOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	courseDir := "/data/Long Course"

	for n := 1; n <= 12; n++ {
		name := filepath.Join(courseDir, fmt.Sprintf("%d- S%d", n, n), fmt.Sprintf("%d- Lecture.mp4", n))
		require.NoError(t, afero.WriteFile(fs, name, []byte("video"), 0o644))
	}

	for _, name := range []string{"10- Ten.mp4", "9- Nine.mp4", "notes.txt"} {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(courseDir, "1- S1", name), []byte("x"), 0o644))
	}

	a, err := NewFSAdapterWithFS(fs, discardLogger())
	require.NoError(t, err)
	require.NoError(t, a.WriteIndex(courseDir, "Long Course"))

	data, err := afero.ReadFile(fs, filepath.Join(courseDir, IndexFileName))
	require.NoError(t, err)

	page := string(data)

	var last int
	for n := 1; n <= 12; n++ {
		i := strings.Index(page, fmt.Sprintf(`<h2 id="%d-s%d">`, n, n))
		require.Greater(t, i, last, "section %d out of order", n)
		last = i
	}

	nine := strings.Index(page, ">9- Nine.mp4<")
	ten := strings.Index(page, ">10- Ten.mp4<")
	notes := strings.Index(page, ">notes.txt<")
	require.Positive(t, nine)
	require.Less(t, nine, ten)
	require.Less(t, ten, notes)
}

func TestWriteIndexBracketSection(t *testing.T) {
	fs := afero.NewMemMapFs()
	courseDir := "/data/Course"
	require.NoError(t, afero.WriteFile(fs, filepath.Join(courseDir, "1- Arrays [[x]]", "1- Intro.mp4"), []byte("video"), 0o644))

	a, err := NewFSAdapterWithFS(fs, discardLogger())
	require.NoError(t, err)
	require.NoError(t, a.WriteIndex(courseDir, "Course"))

	data, err := afero.ReadFile(fs, filepath.Join(courseDir, IndexFileName))
	require.NoError(t, err)
	require.Contains(t, string(data), `href="1-%20Arrays%20%5B%5Bx%5D%5D/1-%20Intro.mp4"`)
	require.NotContains(t, string(data), "(missing)")
}

func TestWriteIndexMissingDir(t *testing.T) {
	a, err := NewFSAdapterWithFS(afero.NewMemMapFs(), discardLogger())
	require.NoError(t, err)

	require.Error(t, a.WriteIndex("/nope", "Course"))
}

func TestHumanSize(t *testing.T) {
	testCases := []struct {
		size     int64
		expected string
	}{
		{size: 0, expected: "0 B"},
		{size: 1023, expected: "1023 B"},
		{size: 1536, expected: "1.5 KiB"},
		{size: 5 * 1024 * 1024, expected: "5.0 MiB"},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.expected, humanSize(tc.size))
	}
}
