package util

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const forbiddenCharacters = `<>:"/\|?*`

func GetIDFromString(str *string) string {
	hasher := sha1.New()
	hasher.Write([]byte(*str))

	return hex.EncodeToString(hasher.Sum(nil))
}

// Sanitize makes name safe to use as a file or directory name on every platform.
// Forbidden characters are dropped, then the dot separated parts are trimmed and
// empty parts discarded.
func Sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenCharacters, r) {
			return -1
		}

		return r
	}, name)

	parts := strings.Split(name, ".")
	kept := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}

	return strings.Join(kept, ".")
}
