package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohammed-shakir/geoserver-catalog/internal/core/observability"
)

const (
	contentXML = "application/xml"
	// ContentSLD is the media type of style bodies.
	ContentSLD = "application/vnd.ogc.sld+xml"
)

type Config struct {
	// URL is the REST root, e.g. http://localhost:8080/geoserver/rest.
	URL string
	// GeoWebCacheURL is the GWC REST root, e.g. http://localhost:8080/geoserver/gwc/rest.
	GeoWebCacheURL string
	User           string
	Password       string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client issues REST calls against one GeoServer instance. It is safe for
// concurrent use.
type Client struct {
	base     *url.URL
	gwc      *url.URL
	user     string
	password string
	http     *http.Client
	logger   *slog.Logger
}

func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := parseBase(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse geoserver url: %w", err)
	}
	c := &Client{
		base:     base,
		user:     cfg.User,
		password: cfg.Password,
		http:     http.DefaultClient,
		logger:   slog.New(slog.DiscardHandler),
	}
	if cfg.GeoWebCacheURL != "" {
		gwc, err := parseBase(cfg.GeoWebCacheURL)
		if err != nil {
			return nil, fmt.Errorf("parse geowebcache url: %w", err)
		}
		c.gwc = gwc
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func parseBase(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u, nil
}

func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) String() string { return "Catalog: " + c.base.String() }

// Search fetches the representation of a resource or collection.
func (c *Client) Search(ctx context.Context, route Route, opts Options) ([]byte, error) {
	return c.call(ctx, "listing", http.MethodGet, c.base, route.Path(opts.format()), route.CollectionName(), nil, opts)
}

// Add creates a resource; method is usually POST.
func (c *Client) Add(ctx context.Context, route Route, body []byte, method string, opts Options) ([]byte, error) {
	return c.call(ctx, "adding", orDefault(method, http.MethodPost), c.base, route.Path(opts.format()), route.CollectionName(), body, opts)
}

// Modify updates a resource; method is usually PUT.
func (c *Client) Modify(ctx context.Context, route Route, body []byte, method string, opts Options) ([]byte, error) {
	c.logger.DebugContext(ctx, "modifying", "path", route.String(), "message", string(body))
	return c.call(ctx, "modifying", orDefault(method, http.MethodPut), c.base, route.Path(opts.format()), route.CollectionName(), body, opts)
}

// Purge deletes a resource. Query flags such as recurse=true travel in opts.
func (c *Client) Purge(ctx context.Context, route Route, opts Options) ([]byte, error) {
	return c.call(ctx, "deleting", http.MethodDelete, c.base, route.Path(opts.format()), route.CollectionName(), nil, opts)
}

// FetchURL GETs an href returned by the server (typically an atom link).
// Relative hrefs are resolved against the REST root.
func (c *Client) FetchURL(ctx context.Context, href string) ([]byte, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, &InvalidRequestError{Op: "fetching", Method: http.MethodGet, Path: href, Err: err}
	}
	if !u.IsAbs() {
		rel := u
		u = c.base.JoinPath(rel.Path)
		u.RawQuery = rel.RawQuery
	}
	return c.send(ctx, "fetching", http.MethodGet, u, "url", nil, Options{})
}

// Do issues method against an arbitrary path under the REST root. The
// format extension is appended only when opts.Format names one.
func (c *Client) Do(ctx context.Context, method, subPath string, body []byte, opts Options) ([]byte, error) {
	p := strings.Trim(subPath, "/")
	if f := opts.Format; f != "" && f != "-" {
		p += "." + f
	}
	opts.Format = ""
	return c.call(ctx, "fetching", method, c.base, p, "url", body, opts)
}

// GWC issues method against a path under the GeoWebCache REST root.
func (c *Client) GWC(ctx context.Context, method, subPath string, body []byte, opts Options) ([]byte, error) {
	if c.gwc == nil {
		return nil, &InvalidRequestError{Op: "calling geowebcache", Method: method, Path: subPath, Err: errors.New("no geowebcache url configured")}
	}
	p := strings.Trim(subPath, "/")
	if opts.Format != "" && opts.Format != "-" {
		p += "." + opts.Format
	}
	opts.Format = ""
	return c.call(ctx, "calling geowebcache", method, c.gwc, p, "gwc", body, opts)
}

// Reload makes GeoServer re-read its configuration from disk.
func (c *Client) Reload(ctx context.Context) error {
	_, err := c.Do(ctx, http.MethodPut, "reload", nil, Options{Format: "-"})
	return err
}

// Reset drops all store, raster and schema caches.
func (c *Client) Reset(ctx context.Context) error {
	_, err := c.Do(ctx, http.MethodPut, "reset", nil, Options{Format: "-"})
	return err
}

func (c *Client) call(ctx context.Context, op, method string, root *url.URL, escapedPath, collection string, body []byte, opts Options) ([]byte, error) {
	u := *root
	unescaped, err := url.PathUnescape(escapedPath)
	if err != nil {
		return nil, &InvalidRequestError{Op: op, Method: method, Path: escapedPath, Payload: body, Err: err}
	}
	u.Path = strings.TrimRight(root.Path, "/") + "/" + unescaped
	u.RawPath = strings.TrimRight(root.EscapedPath(), "/") + "/" + escapedPath
	if len(opts.Query) > 0 {
		u.RawQuery = opts.Query.Encode()
	}
	return c.send(ctx, op, method, &u, collection, body, opts)
}

func (c *Client) send(ctx context.Context, op, method string, u *url.URL, collection string, body []byte, opts Options) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	path := u.RequestURI()
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, &InvalidRequestError{Op: op, Method: method, Path: path, Payload: body, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", contentXML)
	if body != nil {
		req.Header.Set("Content-Type", contentXML)
	}
	for k, v := range opts.Header {
		req.Header[k] = append([]string(nil), v...)
	}
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	dur := time.Since(start)
	if err != nil {
		observability.ObserveREST(method, collection, 0, dur.Seconds())
		c.logger.ErrorContext(ctx, "geoserver request failed", "method", method, "path", path, "err", err)
		return nil, &InvalidRequestError{Op: op, Method: method, Path: path, Payload: body, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	observability.ObserveREST(method, collection, resp.StatusCode, dur.Seconds())
	c.logger.DebugContext(ctx, "geoserver request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", dur.String())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		if resp.StatusCode >= 500 {
			c.logger.ErrorContext(ctx, "geoserver server error",
				"method", method, "path", path, "status", resp.StatusCode, "response", string(b))
		}
		return nil, &InvalidRequestError{
			Op:      op,
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Body:    strings.TrimSpace(string(b)),
			Payload: body,
		}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &InvalidRequestError{Op: op, Method: method, Path: path, Status: resp.StatusCode, Payload: body, Err: fmt.Errorf("read body: %w", err)}
	}
	return b, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
