package download

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jgivc/coursefetch/internal/entity"
	"github.com/jgivc/coursefetch/internal/util"
)

const (
	videoExtension  = "mp4"
	maxExtensionLen = 5
	resourceInfix   = "-resource_"
)

// AssetFileName derives the file name a downloadable is saved under.
//
// An unnamed downloadable is the lecture's primary video and is named after the
// lecture, with ".mp4" appended when the title has no extension. Anything that
// does not end in ".mp4" is a supplementary resource named
// "<NN>-resource_<name without its numeric prefix>".
func AssetFileName(meta *entity.LectureMeta, d entity.Downloadable) string {
	var name string
	if d.Name == "" {
		name = util.Sanitize(meta.Name)
		if _, ok := extension(name); !ok {
			name += "." + videoExtension
		}
	} else {
		name = util.Sanitize(d.Name)
	}

	if ext, _ := extension(name); !strings.EqualFold(ext, videoExtension) {
		name = resourceName(meta, name)
	}

	return util.Sanitize(name)
}

func resourceName(meta *entity.LectureMeta, name string) string {
	if prefix, rest, found := strings.Cut(name, "-"); found && isDigits(prefix) {
		name = rest
	}

	number := ""
	if n, ok := meta.Number(); ok {
		number = fmt.Sprintf("%02d", n)
	}

	return number + resourceInfix + strings.TrimSpace(name)
}

// extension returns the text after the last dot when it looks like a file
// extension: short and alphanumeric. "Intro. Part 2" has none.
func extension(name string) (string, bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", false
	}

	ext := name[i+1:]
	if ext == "" || len(ext) > maxExtensionLen {
		return "", false
	}

	for _, r := range ext {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", false
		}
	}

	return ext, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
