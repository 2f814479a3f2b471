package session

import (
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 60 * time.Second

	maxIdleConns = 10
)

type ClientOptions struct {
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables the limiter
}

// NewClient returns an http.Client that sends the session headers and cookies
// with every request. There is no overall request timeout: connecting, the TLS
// handshake and waiting for response headers are bounded by opts.Timeout, and
// body reads are watched by the transfer engine.
func NewClient(creds *Credentials, opts ClientOptions, log *slog.Logger) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   opts.Timeout,
		ResponseHeaderTimeout: opts.Timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   maxIdleConns,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: newSessionTransport(transport, creds, opts.RequestsPerSecond, log),
	}
}

type sessionTransport struct {
	next    http.RoundTripper
	headers http.Header
	cookies []*http.Cookie
	limiter *rate.Limiter
	log     *slog.Logger
}

func newSessionTransport(next http.RoundTripper, creds *Credentials, rps float64, log *slog.Logger) *sessionTransport {
	t := &sessionTransport{
		next:    next,
		headers: make(http.Header),
		log:     log.With(slog.String("item", "SessionTransport")),
	}

	if creds != nil {
		for k, v := range creds.Headers {
			t.headers.Set(k, v)
		}

		names := make([]string, 0, len(creds.Cookies))
		for name := range creds.Cookies {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			t.cookies = append(t.cookies, &http.Cookie{Name: name, Value: creds.Cookies[name]})
		}
	}

	if rps > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return t
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if req.Header.Get(k) == "" {
			req.Header[k] = v
		}
	}

	for _, c := range t.cookies {
		if _, err := req.Cookie(c.Name); err != nil {
			req.AddCookie(c)
		}
	}

	t.log.Debug("Request", slog.String("method", req.Method), slog.String("url", req.URL.String()))

	return t.next.RoundTrip(req)
}
