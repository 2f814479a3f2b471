package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jgivc/coursefetch/internal/common"
	"github.com/jgivc/coursefetch/internal/entity"
	"github.com/jgivc/coursefetch/internal/service/selector"
	"github.com/jgivc/coursefetch/internal/service/transfer"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type fakeCourse struct {
	name     string
	sections *entity.SectionMap
}

func (c *fakeCourse) URL() string { return "https://example.com/courses/1" }

func (c *fakeCourse) Name(context.Context) (string, error) { return c.name, nil }

func (c *fakeCourse) Sections(context.Context) (*entity.SectionMap, error) { return c.sections, nil }

type fakeTransferer struct {
	fs    afero.Fs
	tasks []transfer.Task
	saved []string
	err   error
}

func (f *fakeTransferer) Transfer(ctx context.Context, task transfer.Task) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}

	f.tasks = append(f.tasks, task)

	return 4, afero.WriteFile(f.fs, task.Path, []byte("data"), 0o644)
}

func (f *fakeTransferer) Save(ctx context.Context, path string, content []byte, progress transfer.Progress) error {
	f.saved = append(f.saved, path)

	return afero.WriteFile(f.fs, path, content, 0o644)
}

type fakeRenderer struct{}

func (fakeRenderer) Render(title, content string) ([]byte, error) {
	return []byte("<title>" + title + "</title>" + content), nil
}

type nopProgress struct{}

func (nopProgress) Reset(int64)   {}
func (nopProgress) Advance(int64) {}
func (nopProgress) Done()         {}

type fakeConsole struct {
	infos     []string
	warnings  []string
	questions []string
	answer    bool
	err       error
}

func (c *fakeConsole) Info(msg string) { c.infos = append(c.infos, msg) }
func (c *fakeConsole) Warn(msg string) { c.warnings = append(c.warnings, msg) }

func (c *fakeConsole) Confirm(ctx context.Context, question string) (bool, error) {
	c.questions = append(c.questions, question)

	return c.answer, c.err
}

func (c *fakeConsole) NewProgress(string) transfer.Progress { return nopProgress{} }

type fakeJournal struct {
	entries []*entity.JournalEntry
}

func (j *fakeJournal) Record(ctx context.Context, entry *entity.JournalEntry) error {
	j.entries = append(j.entries, entry)

	return nil
}

func videoLecture(section, n int) *entity.LectureRef {
	url := fmt.Sprintf("https://example.com/courses/1/lectures/%d%d", section, n)

	return entity.NewResolvedLectureRef(url, &entity.LectureMeta{
		Name:          fmt.Sprintf("%d- Lecture s%dl%d", n, section, n),
		Type:          entity.LectureTypeVideo,
		Downloadables: []entity.Downloadable{{URL: url + "/video"}},
	})
}

func newCourse(sections, lectures int) *fakeCourse {
	m := &entity.SectionMap{}
	for s := 1; s <= sections; s++ {
		section := &entity.Section{Name: fmt.Sprintf("%d- Section %d", s, s)}
		for l := 1; l <= lectures; l++ {
			section.Lectures = append(section.Lectures, videoLecture(s, l))
		}

		m.Sections = append(m.Sections, section)
	}

	return &fakeCourse{name: "C++: The Complete Course", sections: m}
}

func newTestService(t *testing.T) (*DownloadService, afero.Fs, *fakeTransferer, *fakeConsole) {
	t.Helper()

	fs := afero.NewMemMapFs()
	tr := &fakeTransferer{fs: fs}
	console := &fakeConsole{}
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	return NewDownloadService(fs, tr, fakeRenderer{}, console, log), fs, tr, console
}

func mustSpec(t *testing.T, value string, single, onwards bool) selector.Spec {
	t.Helper()

	spec, err := selector.Parse(value, single, onwards)
	require.NoError(t, err)

	return spec
}

func readDir(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()

	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}

func TestDownloadOneSectionThenOneLecture(t *testing.T) {
	svc, fs, tr, _ := newTestService(t)
	course := newCourse(2, 3)

	report, err := svc.Download(context.Background(), course, Options{
		BasePath: "/data",
		Sections: mustSpec(t, "1:1", false, false),
		Lectures: mustSpec(t, "1:end", false, false),
	})
	require.NoError(t, err)

	courseDir := filepath.Join("/data", "C++ The Complete Course")
	require.Equal(t, courseDir, report.CourseDir)
	require.Equal(t, []string{"1- Section 1"}, readDir(t, fs, courseDir))
	require.Equal(t, []string{"1- Lecture s1l1.mp4", "2- Lecture s1l2.mp4", "3- Lecture s1l3.mp4"}, readDir(t, fs, filepath.Join(courseDir, "1- Section 1")))
	require.Len(t, tr.tasks, 3)

	tr.tasks = nil
	report, err = svc.Download(context.Background(), course, Options{
		BasePath:  "/data",
		Sections:  mustSpec(t, "1:1", false, false),
		Lectures:  mustSpec(t, "2:2", true, false),
		NoConfirm: true,
	})
	require.NoError(t, err)
	require.Len(t, tr.tasks, 1)
	require.Equal(t, filepath.Join(courseDir, "1- Section 1", "2- Lecture s1l2.mp4"), tr.tasks[0].Path)
	require.Equal(t, 1, report.Files)
}

func TestDownloadLectureOffsetOnlyInFirstSection(t *testing.T) {
	svc, _, tr, console := newTestService(t)

	report, err := svc.Download(context.Background(), newCourse(3, 3), Options{
		BasePath: "/data",
		Sections: mustSpec(t, "2", false, true),
		Lectures: mustSpec(t, "3", false, true),
	})
	require.NoError(t, err)

	var paths []string
	for _, task := range tr.tasks {
		paths = append(paths, filepath.Base(filepath.Dir(task.Path))+"/"+filepath.Base(task.Path))
	}

	require.Equal(t, []string{
		"2- Section 2/3- Lecture s2l3.mp4",
		"3- Section 3/1- Lecture s3l1.mp4",
		"3- Section 3/2- Lecture s3l2.mp4",
		"3- Section 3/3- Lecture s3l3.mp4",
	}, paths)
	require.Equal(t, 2, report.Sections)
	require.Equal(t, []string{"Starting section 2- Section 2", "Starting section 3- Section 3"}, console.infos)
}

func TestDownloadSkipsLectureWithoutDownloads(t *testing.T) {
	svc, _, tr, console := newTestService(t)

	course := &fakeCourse{name: "Course", sections: &entity.SectionMap{Sections: []*entity.Section{{
		Name: "1- Intro",
		Lectures: []*entity.LectureRef{
			entity.NewResolvedLectureRef("https://example.com/l/1", &entity.LectureMeta{Name: "1- Empty", Type: entity.LectureTypeVideo}),
		},
	}}}}

	report, err := svc.Download(context.Background(), course, Options{BasePath: "/data", Sections: selector.All, Lectures: selector.All})
	require.NoError(t, err)
	require.Empty(t, tr.tasks)
	require.Len(t, console.warnings, 1)
	require.Contains(t, console.warnings[0], "Nothing to download")
	require.Equal(t, 1, report.Skipped)
}

func TestDownloadTextLecture(t *testing.T) {
	svc, fs, tr, console := newTestService(t)

	course := &fakeCourse{name: "Course", sections: &entity.SectionMap{Sections: []*entity.Section{{
		Name: "1- Intro",
		Lectures: []*entity.LectureRef{
			entity.NewResolvedLectureRef("https://example.com/l/1", &entity.LectureMeta{
				Name:          "2- Read me: first?",
				Type:          entity.LectureTypeText,
				Content:       "<p>hello</p>",
				Downloadables: []entity.Downloadable{{Name: "1- Slides.pdf", URL: "https://example.com/slides.pdf"}},
			}),
		},
	}}}}

	_, err := svc.Download(context.Background(), course, Options{BasePath: "/data", Sections: selector.All, Lectures: selector.All})
	require.NoError(t, err)
	require.Empty(t, console.warnings)

	dir := filepath.Join("/data", "Course", "1- Intro")
	require.Equal(t, []string{filepath.Join(dir, "2- Read me first.html")}, tr.saved)

	data, err := afero.ReadFile(fs, tr.saved[0])
	require.NoError(t, err)
	require.Equal(t, "<title>2- Read me: first?</title><p>hello</p>", string(data))

	require.Len(t, tr.tasks, 1)
	require.Equal(t, filepath.Join(dir, "02-resource_Slides.pdf"), tr.tasks[0].Path)
}

func TestDownloadOverwriteConfirmation(t *testing.T) {
	testCases := []struct {
		name          string
		noConfirm     bool
		answer        bool
		expectedTasks int
		expectedAsked int
	}{
		{name: "declined", answer: false, expectedTasks: 0, expectedAsked: 1},
		{name: "accepted", answer: true, expectedTasks: 1, expectedAsked: 1},
		{name: "no confirm", noConfirm: true, expectedTasks: 1, expectedAsked: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, fs, tr, console := newTestService(t)
			console.answer = tc.answer

			course := newCourse(1, 1)
			existing := filepath.Join("/data", "C++ The Complete Course", "1- Section 1", "1- Lecture s1l1.mp4")
			require.NoError(t, afero.WriteFile(fs, existing, []byte("old"), 0o644))

			_, err := svc.Download(context.Background(), course, Options{
				BasePath:  "/data",
				Sections:  selector.All,
				Lectures:  selector.All,
				NoConfirm: tc.noConfirm,
			})
			require.NoError(t, err)
			require.Len(t, tr.tasks, tc.expectedTasks)
			require.Len(t, console.questions, tc.expectedAsked)
		})
	}
}

func TestDownloadOutOfRange(t *testing.T) {
	svc, fs, tr, _ := newTestService(t)

	_, err := svc.Download(context.Background(), newCourse(2, 3), Options{
		BasePath: "/data",
		Sections: mustSpec(t, "1", true, false),
		Lectures: mustSpec(t, "4", true, false),
	})
	require.ErrorIs(t, err, common.ErrRange)
	require.Empty(t, tr.tasks)

	exists, err := afero.DirExists(fs, "/data")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestDownloadInterrupted(t *testing.T) {
	svc, _, tr, _ := newTestService(t)
	tr.err = fmt.Errorf("%w: context canceled", common.ErrInterrupted)

	_, err := svc.Download(context.Background(), newCourse(1, 2), Options{BasePath: "/data", Sections: selector.All, Lectures: selector.All})
	require.ErrorIs(t, err, common.ErrInterrupted)
}

func TestDownloadInterruptedAtConfirmation(t *testing.T) {
	svc, fs, tr, console := newTestService(t)
	console.err = fmt.Errorf("%w: context canceled", common.ErrInterrupted)

	path := "/data/C++ The Complete Course/1- Section 1/1- Lecture s1l1.mp4"
	require.NoError(t, afero.WriteFile(fs, path, []byte("old"), 0o644))

	_, err := svc.Download(context.Background(), newCourse(1, 2), Options{BasePath: "/data", Sections: selector.All, Lectures: selector.All})
	require.ErrorIs(t, err, common.ErrInterrupted)
	require.Len(t, console.questions, 1)
	require.Empty(t, tr.tasks)
}

func TestDownloadFilesystemError(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	svc.fs = afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := svc.Download(context.Background(), newCourse(1, 1), Options{BasePath: "/data", Sections: selector.All, Lectures: selector.All})
	require.ErrorIs(t, err, common.ErrFilesystem)
}

func TestDownloadRecordsJournal(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	journal := &fakeJournal{}
	svc.SetJournal(journal)

	_, err := svc.Download(context.Background(), newCourse(1, 2), Options{BasePath: "/data", Sections: selector.All, Lectures: selector.All})
	require.NoError(t, err)
	require.Len(t, journal.entries, 2)
	require.Equal(t, "https://example.com/courses/1", journal.entries[0].CourseURL)
	require.Equal(t, "1- Section 1", journal.entries[0].Section)
	require.Equal(t, "1- Lecture s1l1", journal.entries[0].Lecture)
	require.EqualValues(t, 4, journal.entries[0].Size)
}
