package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jgivc/coursefetch/internal/common"
	"github.com/jgivc/coursefetch/internal/entity"
	"github.com/jgivc/coursefetch/internal/service/selector"
	"github.com/jgivc/coursefetch/internal/service/transfer"
	"github.com/jgivc/coursefetch/internal/util"
	"github.com/spf13/afero"
)

const (
	dirMode = 0o755
)

type CourseResolver interface {
	URL() string
	Name(ctx context.Context) (string, error)
	Sections(ctx context.Context) (*entity.SectionMap, error)
}

type Transferer interface {
	Transfer(ctx context.Context, task transfer.Task) (int64, error)
	Save(ctx context.Context, path string, content []byte, progress transfer.Progress) error
}

type LectureRenderer interface {
	Render(title, content string) ([]byte, error)
}

type Console interface {
	Info(msg string)
	Warn(msg string)
	Confirm(ctx context.Context, question string) (bool, error)
	NewProgress(name string) transfer.Progress
}

type Journal interface {
	Record(ctx context.Context, entry *entity.JournalEntry) error
}

type Prefetcher interface {
	Prefetch(ctx context.Context, lectures []*entity.LectureRef)
}

type IndexWriter interface {
	WriteIndex(courseDir, title string) error
}

type Options struct {
	BasePath  string
	Sections  selector.Spec
	Lectures  selector.Spec // honored by the first selected section only
	ChunkSize int
	NoConfirm bool
	Index     bool
}

// Report counts what one Download call did.
type Report struct {
	CourseURL string
	CourseDir string
	Sections  int
	Lectures  int
	Files     int
	Skipped   int
}

type plannedSection struct {
	section  *entity.Section
	lectures []*entity.LectureRef
}

type DownloadService struct {
	fs       afero.Fs
	transfer Transferer
	renderer LectureRenderer
	console  Console

	journal    Journal
	prefetcher Prefetcher
	index      IndexWriter

	log *slog.Logger
}

func NewDownloadService(fs afero.Fs, transfer Transferer, renderer LectureRenderer, console Console, log *slog.Logger) *DownloadService {
	return &DownloadService{
		fs:       fs,
		transfer: transfer,
		renderer: renderer,
		console:  console,
		log:      log.With(slog.String("item", "DownloadService")),
	}
}

func (s *DownloadService) SetJournal(journal Journal) {
	s.journal = journal
}

func (s *DownloadService) SetPrefetcher(prefetcher Prefetcher) {
	s.prefetcher = prefetcher
}

func (s *DownloadService) SetIndexWriter(index IndexWriter) {
	s.index = index
}

// Download fetches the course hierarchy, applies both ranges and downloads every
// selected lecture in site order, one asset at a time.
//
// Only the first selected section honors opts.Lectures; later sections are
// downloaded completely.
func (s *DownloadService) Download(ctx context.Context, course CourseResolver, opts Options) (*Report, error) {
	sections, err := course.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot get sections: %w", err)
	}

	plan, err := s.plan(sections, opts)
	if err != nil {
		return nil, err
	}

	name, err := course.Name(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot get course name: %w", err)
	}

	report := &Report{
		CourseURL: course.URL(),
		CourseDir: filepath.Join(opts.BasePath, util.Sanitize(name)),
	}
	if err := s.mkdir(report.CourseDir); err != nil {
		return nil, err
	}

	log := s.log.With(slog.String("course", name), slog.String("dir", report.CourseDir))
	log.Info("Start download", slog.Int("sections", len(plan)))

	for _, ps := range plan {
		if err := s.downloadSection(ctx, report, ps, opts); err != nil {
			return report, err
		}
	}

	if opts.Index && s.index != nil {
		if err := s.index.WriteIndex(report.CourseDir, name); err != nil {
			return report, fmt.Errorf("cannot write course index: %w", err)
		}
	}

	log.Info("Download done", slog.Int("lectures", report.Lectures), slog.Int("files", report.Files), slog.Int("skipped", report.Skipped))

	return report, nil
}

// plan resolves both ranges before anything touches the filesystem.
func (s *DownloadService) plan(sections *entity.SectionMap, opts Options) ([]plannedSection, error) {
	selected, err := selector.Select(opts.Sections, sections.Sections)
	if err != nil {
		return nil, fmt.Errorf("cannot select sections: %w", err)
	}

	plan := make([]plannedSection, 0, len(selected))
	for i, section := range selected {
		spec := selector.All
		if i == 0 {
			spec = opts.Lectures
		}

		lectures, err := selector.Select(spec, section.Lectures)
		if err != nil {
			return nil, fmt.Errorf("cannot select lectures of %q: %w", section.Name, err)
		}

		plan = append(plan, plannedSection{section: section, lectures: lectures})
	}

	return plan, nil
}

func (s *DownloadService) downloadSection(ctx context.Context, report *Report, ps plannedSection, opts Options) error {
	s.console.Info(fmt.Sprintf("Starting section %s", ps.section.Name))

	dir := filepath.Join(report.CourseDir, util.Sanitize(ps.section.Name))
	if err := s.mkdir(dir); err != nil {
		return err
	}

	if s.prefetcher != nil {
		s.prefetcher.Prefetch(ctx, ps.lectures)
	}

	for _, lecture := range ps.lectures {
		if err := s.downloadLecture(ctx, report, dir, ps.section, lecture, opts); err != nil {
			return err
		}
	}

	report.Sections++

	return nil
}

func (s *DownloadService) downloadLecture(ctx context.Context, report *Report, dir string, section *entity.Section, lecture *entity.LectureRef, opts Options) error {
	meta, err := lecture.Meta(ctx)
	if err != nil {
		return fmt.Errorf("cannot get lecture %s: %w", lecture.URL, err)
	}

	log := s.log.With(slog.String("lecture", meta.Name), slog.String("type", meta.Type.String()))
	report.Lectures++

	if meta.Type == entity.LectureTypeText {
		if err := s.saveText(ctx, report, dir, meta, opts); err != nil {
			return err
		}
	}

	if len(meta.Downloadables) == 0 {
		if meta.Type != entity.LectureTypeText {
			s.console.Warn(fmt.Sprintf("Skipping, Nothing to download in lecture %q.", meta.Name))
			log.Warn("Nothing to download")
			report.Skipped++
		}

		return nil
	}

	for _, d := range meta.Downloadables {
		path := filepath.Join(dir, AssetFileName(meta, d))

		ok, err := s.shouldOverwrite(ctx, path, opts.NoConfirm)
		if err != nil {
			return err
		}

		if !ok {
			report.Skipped++

			continue
		}

		size, err := s.transfer.Transfer(ctx, transfer.Task{
			URL:       d.URL,
			Path:      path,
			ChunkSize: opts.ChunkSize,
			Progress:  s.console.NewProgress(filepath.Base(path)),
		})
		if err != nil {
			return fmt.Errorf("cannot download %s: %w", d.URL, err)
		}

		report.Files++
		log.Debug("Saved file", slog.String("path", path), slog.Int64("size", size))

		s.record(ctx, &entity.JournalEntry{
			CourseURL: report.CourseURL,
			Section:   section.Name,
			Lecture:   meta.Name,
			SourceURL: d.URL,
			Path:      path,
			Size:      size,
			Completed: time.Now().Unix(),
		})
	}

	return nil
}

func (s *DownloadService) saveText(ctx context.Context, report *Report, dir string, meta *entity.LectureMeta, opts Options) error {
	path := filepath.Join(dir, util.Sanitize(meta.Name+".html"))

	ok, err := s.shouldOverwrite(ctx, path, opts.NoConfirm)
	if err != nil {
		return err
	}

	if !ok {
		report.Skipped++

		return nil
	}

	content, err := s.renderer.Render(meta.Name, meta.Content)
	if err != nil {
		return fmt.Errorf("cannot render lecture %q: %w", meta.Name, err)
	}

	if err := s.transfer.Save(ctx, path, content, s.console.NewProgress(meta.Name)); err != nil {
		return fmt.Errorf("cannot save lecture %q: %w", meta.Name, err)
	}

	report.Files++

	return nil
}

// shouldOverwrite asks before replacing an existing file. Declining is the default.
func (s *DownloadService) shouldOverwrite(ctx context.Context, path string, noConfirm bool) (bool, error) {
	if noConfirm {
		return true, nil
	}

	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return false, fmt.Errorf("cannot check %s: %w: %w", path, common.ErrFilesystem, err)
	}

	if !exists {
		return true, nil
	}

	ok, err := s.console.Confirm(ctx, fmt.Sprintf("File named %q exists. Shall I overwrite the file", filepath.Base(path)))
	if err != nil {
		return false, fmt.Errorf("cannot read confirmation: %w", err)
	}

	if !ok {
		s.console.Info(fmt.Sprintf("Skipping %s", filepath.Base(path)))
	}

	return ok, nil
}

func (s *DownloadService) record(ctx context.Context, entry *entity.JournalEntry) {
	if s.journal == nil {
		return
	}

	if err := s.journal.Record(ctx, entry); err != nil {
		s.log.Error("Cannot record transfer", slog.String("path", entry.Path), slog.Any("error", err))
	}
}

func (s *DownloadService) mkdir(dir string) error {
	if err := s.fs.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("cannot create directory %s: %w: %w", dir, common.ErrFilesystem, err)
	}

	return nil
}
