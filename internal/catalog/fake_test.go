package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

type call struct {
	Op     string
	Method string
	Path   string
	Body   string
	Query  url.Values
	Header http.Header
}

// fakeTransport serves canned documents keyed by REST path (with extension)
// and records every call.
type fakeTransport struct {
	mu    sync.Mutex
	docs  map[string]string
	fail  map[string]error // op -> error
	calls []call
}

func newFake() *fakeTransport {
	return &fakeTransport{docs: map[string]string{}, fail: map[string]error{}}
}

func formatOf(opts rest.Options) string {
	switch opts.Format {
	case "":
		return "xml"
	case "-":
		return ""
	}
	return opts.Format
}

func (f *fakeTransport) put(path, doc string) { f.docs[path] = doc }

func (f *fakeTransport) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.fail[c.Op]
}

func (f *fakeTransport) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (f *fakeTransport) last(t *testing.T, op string) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Op == op {
			return f.calls[i]
		}
	}
	t.Fatalf("no %s call recorded; calls=%+v", op, f.calls)
	return call{}
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeTransport) Search(_ context.Context, route rest.Route, opts rest.Options) ([]byte, error) {
	p := route.Path(formatOf(opts))
	if err := f.record(call{Op: "search", Method: http.MethodGet, Path: p, Query: opts.Query}); err != nil {
		return nil, err
	}
	doc, ok := f.docs[p]
	if !ok {
		return nil, fmt.Errorf("GET %s: %w", p, rest.ErrNotFound)
	}
	return []byte(doc), nil
}

func (f *fakeTransport) Add(_ context.Context, route rest.Route, body []byte, method string, opts rest.Options) ([]byte, error) {
	p := route.Path(formatOf(opts))
	return nil, f.record(call{Op: "add", Method: method, Path: p, Body: string(body), Query: opts.Query, Header: opts.Header})
}

func (f *fakeTransport) Modify(_ context.Context, route rest.Route, body []byte, method string, opts rest.Options) ([]byte, error) {
	p := route.Path(formatOf(opts))
	return nil, f.record(call{Op: "modify", Method: method, Path: p, Body: string(body), Query: opts.Query, Header: opts.Header})
}

func (f *fakeTransport) Purge(_ context.Context, route rest.Route, opts rest.Options) ([]byte, error) {
	p := route.Path(formatOf(opts))
	if err := f.record(call{Op: "purge", Method: http.MethodDelete, Path: p, Query: opts.Query}); err != nil {
		return nil, err
	}
	delete(f.docs, p)
	return nil, nil
}

func (f *fakeTransport) FetchURL(_ context.Context, href string) ([]byte, error) {
	if err := f.record(call{Op: "fetch", Method: http.MethodGet, Path: href}); err != nil {
		return nil, err
	}
	doc, ok := f.docs[href]
	if !ok {
		return nil, fmt.Errorf("GET %s: %w", href, rest.ErrNotFound)
	}
	return []byte(doc), nil
}

func (f *fakeTransport) GWC(_ context.Context, method, subPath string, body []byte, opts rest.Options) ([]byte, error) {
	p := subPath
	if opts.Format != "" && opts.Format != "-" {
		p += "." + opts.Format
	}
	return nil, f.record(call{Op: "gwc", Method: method, Path: p, Body: string(body)})
}

func (f *fakeTransport) Reload(context.Context) error {
	return f.record(call{Op: "reload", Method: http.MethodPut, Path: "reload"})
}

func (f *fakeTransport) Reset(context.Context) error {
	return f.record(call{Op: "reset", Method: http.MethodPut, Path: "reset"})
}

type recordingNotifier struct {
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.events = append(n.events, ev)
	return n.err
}

// bareTransport hides the optional interfaces of fakeTransport.
type bareTransport struct{ Transport }

func mustContain(t *testing.T, body string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Fatalf("body %q does not contain %q", body, p)
		}
	}
}

const toppWorkspace = `<workspace>
  <name>topp</name>
  <dataStores>
    <atom:link xmlns:atom="http://www.w3.org/2005/Atom" rel="alternate" href="http://localhost:8080/geoserver/rest/workspaces/topp/datastores.xml" type="application/xml"/>
  </dataStores>
  <coverageStores>
    <atom:link xmlns:atom="http://www.w3.org/2005/Atom" rel="alternate" href="http://localhost:8080/geoserver/rest/workspaces/topp/coveragestores.xml" type="application/xml"/>
  </coverageStores>
</workspace>`

const oldDataStore = `<dataStore>
  <name>old_ds</name>
  <type>Shapefile</type>
  <enabled>true</enabled>
  <workspace>
    <name>topp</name>
    <atom:link xmlns:atom="http://www.w3.org/2005/Atom" rel="alternate" href="http://localhost:8080/geoserver/rest/workspaces/topp.xml" type="application/xml"/>
  </workspace>
  <connectionParameters>
    <entry key="url">file:data/x.shp</entry>
  </connectionParameters>
  <featureTypes>
    <atom:link xmlns:atom="http://www.w3.org/2005/Atom" rel="alternate" href="http://localhost:8080/geoserver/rest/workspaces/topp/datastores/old_ds/featuretypes.xml" type="application/xml"/>
  </featureTypes>
</dataStore>`
