package download

import (
	"testing"

	"github.com/jgivc/coursefetch/internal/entity"
	"github.com/stretchr/testify/require"
)

func TestAssetFileName(t *testing.T) {
	testCases := []struct {
		name     string
		lecture  string
		asset    string
		expected string
	}{
		{name: "numbered resource", lecture: "6- Compiling", asset: "1- Getting Started with C++.pdf", expected: "06-resource_Getting Started with C++.pdf"},
		{name: "named video kept raw", lecture: "6- Compiling", asset: "6- Compiling.mp4", expected: "6- Compiling.mp4"},
		{name: "upper case video extension", lecture: "2- Intro", asset: "clip.MP4", expected: "clip.MP4"},
		{name: "anonymous video", lecture: "3- Variables", asset: "", expected: "3- Variables.mp4"},
		{name: "anonymous with extension", lecture: "3- Notes.zip", asset: "", expected: "03-resource_Notes.zip"},
		{name: "anonymous with sentence dot", lecture: "4- Intro. Part 2", asset: "", expected: "4- Intro.Part 2.mp4"},
		{name: "resource without prefix", lecture: "12- Arrays", asset: "source code.zip", expected: "12-resource_source code.zip"},
		{name: "lecture without number", lecture: "Welcome", asset: "slides.pdf", expected: "-resource_slides.pdf"},
		{name: "forbidden characters", lecture: "7- IO", asset: "what?.pdf", expected: "07-resource_what.pdf"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			meta := &entity.LectureMeta{Name: tc.lecture, Type: entity.LectureTypeVideo}
			require.Equal(t, tc.expected, AssetFileName(meta, entity.Downloadable{Name: tc.asset, URL: "https://example.com/x"}))
		})
	}
}
