package gstest

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// kind describes the members of one REST collection.
type kind struct {
	element string // member root element, e.g. dataStore
	list    string // collection root element, e.g. dataStores
	key     string // element carrying the member name
	// links are the child collections advertised with atom links.
	links []string
	// store is the store class a resource under this collection points at.
	store string
}

var kinds = map[string]kind{
	"workspaces":     {element: "workspace", list: "workspaces", key: "name", links: []string{"datastores", "coveragestores", "wmsstores"}},
	"namespaces":     {element: "namespace", list: "namespaces", key: "prefix"},
	"styles":         {element: "style", list: "styles", key: "name"},
	"layers":         {element: "layer", list: "layers", key: "name"},
	"layergroups":    {element: "layerGroup", list: "layerGroups", key: "name"},
	"datastores":     {element: "dataStore", list: "dataStores", key: "name", links: []string{"featuretypes"}},
	"coveragestores": {element: "coverageStore", list: "coverageStores", key: "name", links: []string{"coverages"}},
	"wmsstores":      {element: "wmsStore", list: "wmsStores", key: "name", links: []string{"wmslayers"}},
	"featuretypes":   {element: "featureType", list: "featureTypes", key: "name", store: "dataStore"},
	"coverages":      {element: "coverage", list: "coverages", key: "name", store: "coverageStore"},
	"wmslayers":      {element: "wmsLayer", list: "wmsLayers", key: "name", store: "wmsStore"},
}

// nested lists the collections allowed under a member of each collection;
// "" is the REST root.
var nested = map[string][]string{
	"":               {"workspaces", "namespaces", "styles", "layers", "layergroups"},
	"workspaces":     {"datastores", "coveragestores", "wmsstores", "layergroups"},
	"datastores":     {"featuretypes"},
	"coveragestores": {"coverages"},
	"wmsstores":      {"wmslayers"},
}

// target is a parsed REST path: alternating collection and member names
// with the representation extension split off.
type target struct {
	segs   []string
	format string
}

func parseTarget(raw string) (target, error) {
	raw = strings.Trim(raw, "/")
	if raw == "" {
		return target{}, fail(http.StatusNotFound, "no resource")
	}
	var t target
	for _, ext := range []string{"xml", "sld", "json", "html"} {
		if p, ok := strings.CutSuffix(raw, "."+ext); ok {
			raw, t.format = p, ext
			break
		}
	}
	for _, s := range strings.Split(raw, "/") {
		u, err := url.PathUnescape(s)
		if err != nil || u == "" {
			return target{}, fail(http.StatusBadRequest, "bad path segment %q", s)
		}
		t.segs = append(t.segs, u)
	}
	parent := ""
	for i := 0; i < len(t.segs); i += 2 {
		coll := t.segs[i]
		if !allowed(parent, coll) {
			return target{}, fail(http.StatusNotFound, "no such collection %q", strings.Join(t.segs[:i+1], "/"))
		}
		parent = coll
	}
	return t, nil
}

func allowed(parent, coll string) bool {
	for _, c := range nested[parent] {
		if c == coll {
			return true
		}
	}
	return false
}

func (t target) isMember() bool { return len(t.segs)%2 == 0 }

// collection is the last collection in the path.
func (t target) collection() string {
	if t.isMember() {
		return t.segs[len(t.segs)-2]
	}
	return t.segs[len(t.segs)-1]
}

func (t target) name() string {
	if !t.isMember() {
		return ""
	}
	return t.segs[len(t.segs)-1]
}

func (t target) key() string { return strings.Join(t.segs, "/") }

// parentKey is the key of the member owning the collection, "" at the root.
func (t target) parentKey() string {
	n := len(t.segs) - 1
	if t.isMember() {
		n--
	}
	return strings.Join(t.segs[:n], "/")
}

// workspace is the workspace the path lives under, if any.
func (t target) workspace() string {
	if len(t.segs) >= 2 && t.segs[0] == "workspaces" {
		return t.segs[1]
	}
	return ""
}

func (t target) member(name string) target {
	segs := append([]string(nil), t.segs...)
	if t.isMember() {
		segs[len(segs)-1] = name
	} else {
		segs = append(segs, name)
	}
	return target{segs: segs, format: t.format}
}

func targetOf(key string) target { return target{segs: strings.Split(key, "/")} }

// href renders key as an absolute REST URL with escaped segments.
func href(base, key, ext string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	out := base + "/" + strings.Join(segs, "/")
	if ext != "" {
		out += "." + ext
	}
	return out
}

// statusError carries the HTTP status a failed catalog call answers with.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }

func fail(code int, format string, args ...any) error {
	return &statusError{code: code, msg: fmt.Sprintf(format, args...)}
}
