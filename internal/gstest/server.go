// Package gstest is an in-memory GeoServer REST catalog for tests and local
// development. It speaks enough of the REST XML dialect for the catalog
// client to run end to end against it.
package gstest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	middleware "github.com/mohammed-shakir/geoserver-catalog/internal/core/middleware"
	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

const maxBody = 8 << 20

type Options struct {
	Logger *slog.Logger
	// User enables basic auth together with Password.
	User     string
	Password string
	// DefaultWorkspace is created when missing and made the default.
	DefaultWorkspace string
	// Seed loads the sample workspaces, stores, layers and styles.
	Seed bool
}

// Request is one call received under /geoserver.
type Request struct {
	Method string
	// Path is relative to /geoserver, e.g. rest/workspaces/topp.xml or
	// gwc/rest/seed/topp:states.xml.
	Path        string
	Query       url.Values
	ContentType string
	Body        string
}

// SeedTask is a GeoWebCache seed, reseed or truncate request.
type SeedTask struct {
	Layer     string
	Type      string
	GridSet   string
	ZoomStart int
	ZoomStop  int
}

type Server struct {
	opts Options
	log  *slog.Logger

	mu       sync.Mutex
	st       *state
	requests []Request
	seeds    []SeedTask
	reloads  int
	resets   int
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{opts: opts, log: opts.Logger, st: newState()}
	if opts.Seed {
		s.loadSamples()
	}
	if ws := opts.DefaultWorkspace; ws != "" {
		if !s.st.exists("workspaces/" + ws) {
			s.mustCreate("workspaces", "<workspace><name>"+string(escape(ws))+"</name></workspace>")
		}
		s.st.defaultWS = ws
	}
	return s
}

// Start serves a new Server over HTTP until the test ends and returns the
// client configuration pointing at it.
func Start(t testing.TB, opts Options) (*Server, rest.Config) {
	t.Helper()
	s := New(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, rest.Config{
		URL:            ts.URL + "/geoserver/rest",
		GeoWebCacheURL: ts.URL + "/geoserver/gwc/rest",
		User:           opts.User,
		Password:       opts.Password,
	}
}

// Handler serves the fake on its own router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(s.log))
	r.Use(middleware.Logging(s.log))
	s.Mount(r)
	return r
}

// Mount adds the /geoserver routes to r.
func (s *Server) Mount(r chi.Router) {
	r.Route("/geoserver", func(r chi.Router) {
		r.Use(middleware.BasicAuth("GeoServer Realm", s.opts.User, s.opts.Password))
		r.Use(s.record)
		r.Route("/rest", func(r chi.Router) {
			r.Put("/reload", s.reload)
			r.Post("/reload", s.reload)
			r.Put("/reset", s.reset)
			r.Post("/reset", s.reset)
			r.Get("/*", s.get)
			r.Post("/*", s.post)
			r.Put("/*", s.put)
			r.Delete("/*", s.delete)
		})
		r.Post("/gwc/rest/seed/*", s.seed)
	})
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:      r.Method,
			Path:        strings.TrimPrefix(r.URL.Path, "/geoserver/"),
			Query:       r.URL.Query(),
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func restBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/geoserver/rest"
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	t, err := parseTarget(chi.URLParam(r, "*"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, err = s.st.resolve(t); err != nil {
		s.fail(w, r, err)
		return
	}
	switch {
	case t.format == "sld":
		body, ok := s.st.slds[t.name()]
		if !t.isMember() || t.collection() != "styles" || !ok {
			s.fail(w, r, fail(http.StatusNotFound, "no sld for %s", t.key()))
			return
		}
		write(w, http.StatusOK, rest.ContentSLD, body)
	case t.isMember():
		if !s.st.exists(t.key()) {
			s.fail(w, r, fail(http.StatusNotFound, "%s not found", t.key()))
			return
		}
		write(w, http.StatusOK, "application/xml", s.st.render(t, restBase(r)))
	default:
		if !s.st.exists(t.parentKey()) {
			s.fail(w, r, fail(http.StatusNotFound, "%s not found", t.parentKey()))
			return
		}
		write(w, http.StatusOK, "application/xml", s.st.listing(t, restBase(r)))
	}
}

func (s *Server) post(w http.ResponseWriter, r *http.Request) {
	t, err := parseTarget(chi.URLParam(r, "*"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if t.isMember() {
		s.fail(w, r, fail(http.StatusMethodNotAllowed, "POST on a member"))
		return
	}
	body := readBody(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	var m target
	if t.collection() == "styles" && isSLD(r) {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = sldName(body)
		}
		d := newDocument("style").setText("name", name).setText("format", "sld").setText("filename", name+".sld")
		if m, err = s.st.create(t, d); err == nil {
			s.st.slds[name] = body
		}
	} else {
		var d *document
		if d, err = parseDocument(body); err != nil {
			s.fail(w, r, fail(http.StatusBadRequest, "malformed xml: %v", err))
			return
		}
		m, err = s.st.create(t, d)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", href(restBase(r), m.key(), ""))
	write(w, http.StatusCreated, "text/plain", []byte(m.name()))
}

func (s *Server) put(w http.ResponseWriter, r *http.Request) {
	t, err := parseTarget(chi.URLParam(r, "*"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !t.isMember() {
		s.fail(w, r, fail(http.StatusMethodNotAllowed, "PUT on a collection"))
		return
	}
	body := readBody(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case t.name() == "default" && len(t.segs) == 2 && (t.segs[0] == "workspaces" || t.segs[0] == "namespaces"):
		d, perr := parseDocument(body)
		if perr != nil {
			err = fail(http.StatusBadRequest, "malformed xml: %v", perr)
			break
		}
		err = s.st.setDefault(d.text(kinds[t.segs[0]].key))
	case t.collection() == "styles" && (isSLD(r) || t.format == "sld"):
		if !s.st.exists(t.key()) {
			err = fail(http.StatusNotFound, "style '%s' not found", t.name())
			break
		}
		s.st.slds[t.name()] = body
	default:
		d, perr := parseDocument(body)
		if perr != nil {
			err = fail(http.StatusBadRequest, "malformed xml: %v", perr)
			break
		}
		_, err = s.st.update(t, d)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	t, err := parseTarget(chi.URLParam(r, "*"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !t.isMember() {
		s.fail(w, r, fail(http.StatusMethodNotAllowed, "DELETE on a collection"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, err = s.st.resolve(t); err == nil {
		err = s.st.remove(t, r.URL.Query().Get("recurse") == "true")
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) reload(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.reloads++
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) reset(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.resets++
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

type seedRequestXML struct {
	Name      string `xml:"name"`
	GridSetID string `xml:"gridSetId"`
	ZoomStart int    `xml:"zoomStart"`
	ZoomStop  int    `xml:"zoomStop"`
	Type      string `xml:"type"`
}

func (s *Server) seed(w http.ResponseWriter, r *http.Request) {
	layer := chi.URLParam(r, "*")
	for _, ext := range []string{".xml", ".json"} {
		layer = strings.TrimSuffix(layer, ext)
	}
	var req seedRequestXML
	if err := xml.Unmarshal(readBody(r), &req); err != nil {
		s.fail(w, r, fail(http.StatusBadRequest, "malformed seed request: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cached(layer) {
		s.fail(w, r, fail(http.StatusNotFound, "unknown layer: %s", layer))
		return
	}
	s.seeds = append(s.seeds, SeedTask{
		Layer:     layer,
		Type:      req.Type,
		GridSet:   req.GridSetID,
		ZoomStart: req.ZoomStart,
		ZoomStop:  req.ZoomStop,
	})
	w.WriteHeader(http.StatusOK)
}

// cached reports whether GeoWebCache knows the layer, by plain or
// workspace-qualified name.
func (s *Server) cached(layer string) bool {
	ws, name, qualified := strings.Cut(layer, ":")
	if !qualified {
		name = ws
	}
	if !s.st.exists("layers/" + name) {
		return false
	}
	res, ok := s.st.published[name]
	return !qualified || !ok || targetOf(res).workspace() == ws
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var se *statusError
	if errors.As(err, &se) {
		code = se.code
	}
	s.log.DebugContext(r.Context(), "fake geoserver refused request",
		"method", r.Method, "path", r.URL.Path, "status", code, "err", err)
	http.Error(w, err.Error(), code)
}

func write(w http.ResponseWriter, code int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func readBody(r *http.Request) []byte {
	b, _ := io.ReadAll(io.LimitReader(r.Body, maxBody))
	return b
}

func isSLD(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && (strings.HasPrefix(mt, "application/vnd.ogc.sld") || mt == "application/vnd.ogc.se+xml")
}

// sldName is the name of the first styled layer in an SLD body.
func sldName(body []byte) string {
	var doc struct {
		NamedLayer struct {
			Name      string `xml:"Name"`
			UserStyle struct {
				Name string `xml:"Name"`
			} `xml:"UserStyle"`
		} `xml:"NamedLayer"`
	}
	if xml.Unmarshal(body, &doc) != nil {
		return ""
	}
	if n := strings.TrimSpace(doc.NamedLayer.UserStyle.Name); n != "" {
		return n
	}
	return strings.TrimSpace(doc.NamedLayer.Name)
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// RequestsMatching returns the calls with the given method and path.
func (s *Server) RequestsMatching(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) Seeds() []SeedTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.seeds)
}

func (s *Server) Reloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloads
}

func (s *Server) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

func (s *Server) DefaultWorkspace() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.defaultWS
}

// Has reports whether the member at path exists, e.g.
// workspaces/topp/datastores/states_shapefile.
func (s *Server) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.exists(strings.Trim(path, "/"))
}

// Add creates a member from its XML document under the collection path,
// as a POST would.
func (s *Server) Add(collection, doc string) error {
	t, err := parseTarget(collection)
	if err != nil {
		return err
	}
	d, err := parseDocument([]byte(doc))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.st.create(t, d)
	return err
}

// Readiness reports member counts per collection.
func (s *Server) Readiness() (bool, map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return true, s.st.counts()
}
