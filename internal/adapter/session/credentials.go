package session

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jgivc/coursefetch/internal/common"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	credentialsTemplate = "{\n  \"headers\": {},\n  \"cookies\": {}\n}\n"

	acceptEncoding = "Accept-Encoding"

	dirMode  = 0o700
	fileMode = 0o600
)

// Credentials are the headers and cookies copied from a logged in browser session.
type Credentials struct {
	Headers map[string]string `yaml:"headers"`
	Cookies map[string]string `yaml:"cookies"`
}

// Store owns the credentials file. The file is JSON, which yaml.v2 reads as well.
type Store struct {
	fs   afero.Fs
	path string
	log  *slog.Logger
}

func NewStore(fs afero.Fs, path string, log *slog.Logger) *Store {
	return &Store{
		fs:   fs,
		path: path,
		log:  log.With(slog.String("item", "CredentialsStore")),
	}
}

func (s *Store) Path() string {
	return s.path
}

// Ensure creates the file from the empty template when it does not exist.
func (s *Store) Ensure() error {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return fmt.Errorf("cannot check credentials file: %w: %w", common.ErrFilesystem, err)
	}

	if exists {
		return nil
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return fmt.Errorf("cannot create credentials dir: %w: %w", common.ErrFilesystem, err)
	}

	if err := afero.WriteFile(s.fs, s.path, []byte(credentialsTemplate), fileMode); err != nil {
		return fmt.Errorf("cannot create credentials file: %w: %w", common.ErrFilesystem, err)
	}

	s.log.Info("Created credentials file", slog.String("path", s.path))

	return nil
}

// Load reads the credentials. Both the "headers" and the "cookies" objects must
// be present. Accept-Encoding is dropped so the transport negotiates compression.
func (s *Store) Load() (*Credentials, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("cannot read credentials file: %w: %w", common.ErrFilesystem, err)
	}

	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: cannot parse %s: %w", common.ErrInvalidCredentials, s.path, err)
	}

	headers, okHeaders := raw["headers"]
	cookies, okCookies := raw["cookies"]

	if !okHeaders || !okCookies {
		return nil, fmt.Errorf("%w: %s must contain headers and cookies", common.ErrInvalidCredentials, s.path)
	}

	creds := &Credentials{
		Headers: make(map[string]string, len(headers)),
		Cookies: make(map[string]string, len(cookies)),
	}

	for k, v := range headers {
		if strings.EqualFold(k, acceptEncoding) {
			continue
		}

		creds.Headers[k] = v
	}

	for k, v := range cookies {
		creds.Cookies[k] = v
	}

	s.log.Debug("Loaded credentials", slog.Int("headers", len(creds.Headers)), slog.Int("cookies", len(creds.Cookies)))

	return creds, nil
}

// EditCommand opens the credentials file in the user's editor.
func (s *Store) EditCommand() *exec.Cmd {
	cmd := exec.Command(editor(), s.path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd
}

func editor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}

	if runtime.GOOS == "windows" {
		return "notepad"
	}

	return "vi"
}
