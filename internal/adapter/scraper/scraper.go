package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jgivc/coursefetch/internal/common"
	"github.com/jgivc/coursefetch/internal/service/retry"
)

const (
	DefaultBaseURL = "https://members.codewithmosh.com"

	enrolledSuffix = "/enrolled"
	lecturesPath   = "/lectures/"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Scraper reads course and lecture pages of one platform.
type Scraper struct {
	client  HTTPClient
	base    *url.URL
	baseURL string
	policy  *retry.Policy
	log     *slog.Logger
}

func NewScraper(client HTTPClient, baseURL string, policy *retry.Policy, log *slog.Logger) (*Scraper, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	baseURL = strings.TrimSuffix(baseURL, "/")

	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("cannot parse base url %q: %w", baseURL, errors.Join(common.ErrIncorrectURL, err))
	}

	return &Scraper{
		client:  client,
		base:    base,
		baseURL: baseURL,
		policy:  policy,
		log:     log.With(slog.String("item", "Scraper")),
	}, nil
}

// ValidateURL canonicalizes a user supplied course or lecture URL: spaces are
// removed, "/enrolled" and one trailing slash are stripped. URLs of other sites
// are rejected with common.ErrIncorrectURL.
func (s *Scraper) ValidateURL(raw string) (string, error) {
	u := strings.ReplaceAll(raw, " ", "")
	if !strings.Contains(u, s.baseURL) {
		return "", fmt.Errorf("%w: %s is not a %s url", common.ErrIncorrectURL, raw, s.base.Host)
	}

	u = strings.ReplaceAll(u, enrolledSuffix, "")
	u = strings.TrimSuffix(u, "/")

	return u, nil
}

// CourseURL validates raw and drops the lecture part, so every lecture URL of a
// course maps to the same course URL.
func (s *Scraper) CourseURL(raw string) (string, error) {
	u, err := s.ValidateURL(raw)
	if err != nil {
		return "", err
	}

	if i := strings.Index(u, lecturesPath); i >= 0 {
		u = u[:i]
	}

	return u, nil
}

// Course returns a lazily loaded course for a validated URL. The page at raw is
// the one parsed; URL() reports the course URL it belongs to.
func (s *Scraper) Course(raw string) (*Course, error) {
	page, err := s.ValidateURL(raw)
	if err != nil {
		return nil, err
	}

	u, err := s.CourseURL(raw)
	if err != nil {
		return nil, err
	}

	return &Course{scraper: s, url: u, page: page}, nil
}

// resolve turns a relative link into an absolute one.
func (s *Scraper) resolve(href string) string {
	if strings.Contains(href, "://") {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return s.baseURL + href
	}

	return s.base.ResolveReference(ref).String()
}

// document fetches and parses a page, retrying with the configured policy.
func (s *Scraper) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	doc, err := retry.Do(ctx, s.policy, func(ctx context.Context) (*goquery.Document, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("cannot create request: %w", err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_ = resp.Body.Close()

			return nil, &common.StatusError{URL: pageURL, StatusCode: resp.StatusCode}
		}

		s.log.Debug("Fetched page", slog.String("url", pageURL), slog.Int("status", resp.StatusCode))

		return readDoc(resp.Body)
	})
	if err != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInterrupted, err)
	}

	return doc, err
}

func readDoc(body io.ReadCloser) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("cannot parse page: %w", errors.Join(err, body.Close()))
	}

	if err := body.Close(); err != nil {
		return nil, fmt.Errorf("cannot parse page: %w", err)
	}

	return doc, nil
}
