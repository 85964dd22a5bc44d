// Package rest is the HTTP transport to the GeoServer REST configuration API
// and its GeoWebCache sibling.
package rest

import (
	"net/http"
	"net/url"
	"strings"
)

// Segment is one level of a catalog path: a collection and, optionally, a
// member of it.
type Segment struct {
	Collection string
	Name       string
}

// Route addresses a collection or a member, e.g.
// workspaces/topp/datastores/states.
type Route []Segment

func Collection(name string) Route {
	return Route{{Collection: name}}
}

// Child returns a copy of r extended with collection/name.
func (r Route) Child(collection, name string) Route {
	out := make(Route, len(r), len(r)+1)
	copy(out, r)
	return append(out, Segment{Collection: collection, Name: name})
}

// Named returns a copy of r addressing member name of its last collection.
func (r Route) Named(name string) Route {
	out := make(Route, len(r))
	copy(out, r)
	if len(out) > 0 {
		out[len(out)-1].Name = name
	}
	return out
}

func (r Route) Name() string {
	if len(r) == 0 {
		return ""
	}
	return r[len(r)-1].Name
}

// CollectionName is the last collection of the route.
func (r Route) CollectionName() string {
	if len(r) == 0 {
		return ""
	}
	return r[len(r)-1].Collection
}

// Path joins the route with escaped member names and appends ".format"
// when format is not empty.
func (r Route) Path(format string) string {
	var b strings.Builder
	for i, s := range r {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(strings.Trim(s.Collection, "/"))
		if s.Name != "" {
			b.WriteByte('/')
			b.WriteString(url.PathEscape(s.Name))
		}
	}
	p := strings.TrimRight(b.String(), "/")
	if format != "" {
		p += "." + format
	}
	return p
}

func (r Route) String() string { return r.Path("") }

// Options carries the per-call knobs the REST API understands.
type Options struct {
	// Format is the representation extension, "xml" when empty and none
	// when "-".
	Format string
	Query  url.Values
	Header http.Header
}

func (o Options) format() string {
	switch o.Format {
	case "":
		return "xml"
	case "-":
		return ""
	}
	return o.Format
}

// Merge returns o with other's query and header values layered on top.
func (o Options) Merge(other Options) Options {
	out := Options{Format: o.Format, Query: url.Values{}, Header: http.Header{}}
	if other.Format != "" {
		out.Format = other.Format
	}
	for _, src := range []url.Values{o.Query, other.Query} {
		for k, v := range src {
			out.Query[k] = append([]string(nil), v...)
		}
	}
	for _, src := range []http.Header{o.Header, other.Header} {
		for k, v := range src {
			out.Header[k] = append([]string(nil), v...)
		}
	}
	return out
}

// Recurse is the option most delete calls need.
func Recurse() Options {
	return Options{Query: url.Values{"recurse": {"true"}}}
}
