package entity

// Section is one named group of lectures, in site order.
type Section struct {
	Name     string // "2- Getting Started"
	Lectures []*LectureRef
}

// SectionMap is an ordered snapshot of the course hierarchy. Re-fetching produces a new one.
type SectionMap struct {
	Sections []*Section
}

func (m *SectionMap) Len() int {
	if m == nil {
		return 0
	}

	return len(m.Sections)
}

func (m *SectionMap) Names() []string {
	names := make([]string, 0, m.Len())
	for _, section := range m.Sections {
		names = append(names, section.Name)
	}

	return names
}

// JournalEntry describes one completed transfer.
type JournalEntry struct {
	CourseURL string `json:"course_url"`
	Section   string `json:"section"`
	Lecture   string `json:"lecture"`
	SourceURL string `json:"source_url"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Completed int64  `json:"completed"` // unix seconds
}
