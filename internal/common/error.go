package common

import "fmt"

var (
	ErrIncorrectURL       = fmt.Errorf("incorrect url")
	ErrElementNotFound    = fmt.Errorf("element not found")
	ErrRange              = fmt.Errorf("the specified section or lecture doesn't exist")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInterrupted        = fmt.Errorf("process interrupted")
	ErrFilesystem         = fmt.Errorf("filesystem error")
	ErrTimeout            = fmt.Errorf("timed out")
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}

// Temporary reports whether repeating the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 408 || e.StatusCode == 429
}
