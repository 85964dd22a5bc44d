package catalog

import (
	"context"
	"encoding/xml"
	"slices"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

// Coverage is a raster layer source published from a coverage store.
type Coverage struct {
	Resource
	workspace *Workspace
	store     *CoverageStore

	enabled          field[bool]
	title            field[string]
	abstract         field[string]
	nativeName       field[string]
	supportedFormats field[[]string]
	latLonBounds     field[Envelope]
}

type coverageXML struct {
	XMLName          xml.Name     `xml:"coverage"`
	Name             string       `xml:"name"`
	NativeName       string       `xml:"nativeName,omitempty"`
	Namespace        *nameXML     `xml:"namespace,omitempty"`
	Title            string       `xml:"title,omitempty"`
	Abstract         string       `xml:"abstract,omitempty"`
	LatLonBounds     *envelopeXML `xml:"latLonBoundingBox,omitempty"`
	Enabled          *bool        `xml:"enabled"`
	SupportedFormats *stringsXML  `xml:"supportedFormats,omitempty"`
	Store            *storeRefXML `xml:"store,omitempty"`
}

func NewCoverage(c *Catalog, ws WorkspaceRef, cs CoverageStoreRef, name string) (*Coverage, error) {
	v := &Coverage{
		enabled:          newField("enabled", "enabled", true),
		title:            newField("title", "title", ""),
		abstract:         newField("abstract", "abstract", ""),
		nativeName:       newField("native_name", "nativeName", ""),
		supportedFormats: newField("supported_formats", "supportedFormats", []string(nil)),
		latLonBounds:     newField("latlon_bounds", "latLonBoundingBox", Envelope{}),
	}
	if cs.cs != nil && ws.IsZero() {
		ws = WorkspaceOf(cs.cs.Workspace())
	}
	w, err := ws.resolve(c, v.kind())
	if err != nil {
		return nil, err
	}
	s, err := cs.resolve(c, w, v.kind())
	if err != nil {
		return nil, err
	}
	v.workspace, v.store = w, s
	if err := v.bind(c, v, name); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Coverage) kind() string { return "Coverage" }

func (v *Coverage) route() rest.Route {
	return v.store.route().Named(v.store.Name()).Child("coverages", "")
}

func (v *Coverage) publishable() {}

func (v *Coverage) Workspace() *Workspace         { return v.workspace }
func (v *Coverage) CoverageStore() *CoverageStore { return v.store }

func (v *Coverage) PrefixedName() string { return v.workspace.Name() + ":" + v.name }

func (v *Coverage) Enabled(ctx context.Context) (bool, error) { return v.enabled.get(ctx, &v.Resource) }
func (v *Coverage) SetEnabled(ctx context.Context, b bool) error {
	return v.enabled.put(ctx, &v.Resource, b)
}

func (v *Coverage) Title(ctx context.Context) (string, error) { return v.title.get(ctx, &v.Resource) }
func (v *Coverage) SetTitle(ctx context.Context, s string) error {
	return v.title.put(ctx, &v.Resource, s)
}

func (v *Coverage) Abstract(ctx context.Context) (string, error) {
	return v.abstract.get(ctx, &v.Resource)
}
func (v *Coverage) SetAbstract(ctx context.Context, s string) error {
	return v.abstract.put(ctx, &v.Resource, s)
}

func (v *Coverage) NativeName(ctx context.Context) (string, error) {
	return v.nativeName.get(ctx, &v.Resource)
}
func (v *Coverage) SetNativeName(ctx context.Context, s string) error {
	return v.nativeName.put(ctx, &v.Resource, s)
}

func (v *Coverage) SupportedFormats(ctx context.Context) ([]string, error) {
	return v.supportedFormats.get(ctx, &v.Resource)
}

func (v *Coverage) LatLonBounds(ctx context.Context) (Envelope, error) {
	return v.latLonBounds.get(ctx, &v.Resource)
}
func (v *Coverage) SetLatLonBounds(ctx context.Context, e Envelope) error {
	return v.latLonBounds.put(ctx, &v.Resource, e)
}

func (v *Coverage) boundsHint() *bbox.BoundingBox {
	if e, ok := v.latLonBounds.peek(&v.Resource); ok && !e.IsZero() {
		return e.Box()
	}
	return nil
}

func (v *Coverage) message(ctx context.Context) ([]byte, error) {
	doc := coverageXML{
		Name:      v.name,
		Namespace: nameRef(v.workspace.Name()),
		Store:     &storeRefXML{Class: "coverageStore", Name: v.workspace.Name() + ":" + v.store.Name()},
	}
	var err error
	var enabled bool
	var formats []string
	var latlon Envelope
	if enabled, err = v.Enabled(ctx); err != nil {
		return nil, err
	}
	if doc.NativeName, err = v.NativeName(ctx); err != nil {
		return nil, err
	}
	if doc.Title, err = v.Title(ctx); err != nil {
		return nil, err
	}
	if doc.Abstract, err = v.Abstract(ctx); err != nil {
		return nil, err
	}
	if formats, err = v.SupportedFormats(ctx); err != nil {
		return nil, err
	}
	if latlon, err = v.LatLonBounds(ctx); err != nil {
		return nil, err
	}
	doc.Enabled = boolPtr(enabled)
	doc.SupportedFormats = toStrings(slices.Clone(formats))
	doc.LatLonBounds = toEnvelope(latlon)
	return xml.Marshal(doc)
}

func (v *Coverage) parseProfile(_ context.Context, raw []byte) (Profile, error) {
	var doc coverageXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	p := Profile{
		"name":             doc.Name,
		"workspace":        v.workspace.Name(),
		"coverage_store":   v.store.Name(),
		"nativeName":       doc.NativeName,
		"title":            doc.Title,
		"abstract":         doc.Abstract,
		"supportedFormats": doc.SupportedFormats.list(),
	}
	if doc.Enabled != nil {
		p["enabled"] = *doc.Enabled
	}
	if e, ok := doc.LatLonBounds.envelope(); ok {
		p["latLonBoundingBox"] = e
	}
	return p, nil
}
