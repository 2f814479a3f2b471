package entity

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

type LectureType string

const (
	LectureTypeVideo LectureType = "video"
	LectureTypeText  LectureType = "text"
)

func (t LectureType) String() string {
	return string(t)
}

// Downloadable is an asset linked from a lecture page. Empty Name means the platform gave no name.
type Downloadable struct {
	Name string
	URL  string
}

// LectureMeta is everything the lecture page tells us.
type LectureMeta struct {
	Name          string
	Type          LectureType
	Downloadables []Downloadable
	Content       string // cleaned main container HTML, text lectures only
}

// Number returns the numeric prefix of the lecture name ("6- Intro" -> 6).
func (m *LectureMeta) Number() (int, bool) {
	prefix, _, found := strings.Cut(m.Name, "-")
	if !found {
		return 0, false
	}

	n, err := strconv.Atoi(strings.TrimSpace(prefix))
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}

type MetaFetcher func(ctx context.Context, url string) (*LectureMeta, error)

// LectureRef is a lecture URL with lazily resolved metadata.
// The metadata is fetched on first access and reused afterwards; failed fetches are not cached.
type LectureRef struct {
	URL string

	mu    sync.Mutex
	fetch MetaFetcher
	meta  *LectureMeta
}

func NewLectureRef(url string, fetch MetaFetcher) *LectureRef {
	return &LectureRef{
		URL:   url,
		fetch: fetch,
	}
}

// NewResolvedLectureRef returns a ref whose metadata is already known.
func NewResolvedLectureRef(url string, meta *LectureMeta) *LectureRef {
	return &LectureRef{
		URL:  url,
		meta: meta,
	}
}

func (l *LectureRef) Meta(ctx context.Context) (*LectureMeta, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.meta != nil {
		return l.meta, nil
	}

	meta, err := l.fetch(ctx, l.URL)
	if err != nil {
		return nil, err
	}

	l.meta = meta

	return meta, nil
}

// Resolved reports whether metadata is already cached.
func (l *LectureRef) Resolved() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.meta != nil
}
