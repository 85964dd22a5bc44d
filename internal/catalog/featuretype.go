package catalog

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
	"github.com/mohammed-shakir/geoserver-catalog/pkg/shapefile"
)

// FeatureType is a vector layer source published from a data store.
type FeatureType struct {
	Resource
	workspace *Workspace
	store     *DataStore

	enabled      field[bool]
	title        field[string]
	abstract     field[string]
	nativeName   field[string]
	srs          field[string]
	keywords     field[[]string]
	nativeBounds field[Envelope]
	latLonBounds field[Envelope]
}

type featureTypeXML struct {
	XMLName      xml.Name     `xml:"featureType"`
	Name         string       `xml:"name"`
	NativeName   string       `xml:"nativeName,omitempty"`
	Namespace    *nameXML     `xml:"namespace,omitempty"`
	Title        string       `xml:"title,omitempty"`
	Abstract     string       `xml:"abstract,omitempty"`
	Keywords     *stringsXML  `xml:"keywords,omitempty"`
	SRS          string       `xml:"srs,omitempty"`
	NativeBounds *envelopeXML `xml:"nativeBoundingBox,omitempty"`
	LatLonBounds *envelopeXML `xml:"latLonBoundingBox,omitempty"`
	Enabled      *bool        `xml:"enabled"`
	Store        *storeRefXML `xml:"store,omitempty"`
}

type storeRefXML struct {
	Class string `xml:"class,attr,omitempty"`
	Name  string `xml:"name"`
}

func NewFeatureType(c *Catalog, ws WorkspaceRef, ds DataStoreRef, name string) (*FeatureType, error) {
	f := &FeatureType{
		enabled:      newField("enabled", "enabled", true),
		title:        newField("title", "title", ""),
		abstract:     newField("abstract", "abstract", ""),
		nativeName:   newField("native_name", "nativeName", ""),
		srs:          newField("srs", "srs", ""),
		keywords:     newField("keywords", "keywords", []string(nil)),
		nativeBounds: newField("native_bounds", "nativeBoundingBox", Envelope{}),
		latLonBounds: newField("latlon_bounds", "latLonBoundingBox", Envelope{}),
	}
	if ds.ds != nil && ws.IsZero() {
		ws = WorkspaceOf(ds.ds.Workspace())
	}
	w, err := ws.resolve(c, f.kind())
	if err != nil {
		return nil, err
	}
	s, err := ds.resolve(c, w, f.kind())
	if err != nil {
		return nil, err
	}
	f.workspace, f.store = w, s
	if err := f.bind(c, f, name); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FeatureType) kind() string { return "FeatureType" }

func (f *FeatureType) route() rest.Route {
	return f.store.route().Named(f.store.Name()).Child("featuretypes", "")
}

func (f *FeatureType) publishable() {}

func (f *FeatureType) Workspace() *Workspace { return f.workspace }
func (f *FeatureType) DataStore() *DataStore { return f.store }

// PrefixedName is the workspace-qualified name, e.g. topp:states.
func (f *FeatureType) PrefixedName() string { return f.workspace.Name() + ":" + f.name }

func (f *FeatureType) Enabled(ctx context.Context) (bool, error) { return f.enabled.get(ctx, &f.Resource) }
func (f *FeatureType) SetEnabled(ctx context.Context, v bool) error {
	return f.enabled.put(ctx, &f.Resource, v)
}

func (f *FeatureType) Title(ctx context.Context) (string, error) { return f.title.get(ctx, &f.Resource) }
func (f *FeatureType) SetTitle(ctx context.Context, v string) error {
	return f.title.put(ctx, &f.Resource, v)
}

func (f *FeatureType) Abstract(ctx context.Context) (string, error) {
	return f.abstract.get(ctx, &f.Resource)
}
func (f *FeatureType) SetAbstract(ctx context.Context, v string) error {
	return f.abstract.put(ctx, &f.Resource, v)
}

func (f *FeatureType) NativeName(ctx context.Context) (string, error) {
	return f.nativeName.get(ctx, &f.Resource)
}
func (f *FeatureType) SetNativeName(ctx context.Context, v string) error {
	return f.nativeName.put(ctx, &f.Resource, v)
}

func (f *FeatureType) SRS(ctx context.Context) (string, error) { return f.srs.get(ctx, &f.Resource) }
func (f *FeatureType) SetSRS(ctx context.Context, v string) error {
	return f.srs.put(ctx, &f.Resource, v)
}

func (f *FeatureType) Keywords(ctx context.Context) ([]string, error) {
	return f.keywords.get(ctx, &f.Resource)
}
func (f *FeatureType) SetKeywords(ctx context.Context, v []string) error {
	return f.keywords.put(ctx, &f.Resource, slices.Clone(v))
}

func (f *FeatureType) NativeBounds(ctx context.Context) (Envelope, error) {
	return f.nativeBounds.get(ctx, &f.Resource)
}
func (f *FeatureType) SetNativeBounds(ctx context.Context, v Envelope) error {
	return f.nativeBounds.put(ctx, &f.Resource, v)
}

func (f *FeatureType) LatLonBounds(ctx context.Context) (Envelope, error) {
	return f.latLonBounds.get(ctx, &f.Resource)
}
func (f *FeatureType) SetLatLonBounds(ctx context.Context, v Envelope) error {
	return f.latLonBounds.put(ctx, &f.Resource, v)
}

// SetBoundsFromShapefile derives the native bounds and SRS from a shapefile
// or a zipped shapefile. Geographic WGS 84 data also sets the lat/lon bounds.
func (f *FeatureType) SetBoundsFromShapefile(ctx context.Context, path string) error {
	box, err := shapefile.BoundsOf(path)
	if err != nil {
		return err
	}
	srid, err := shapefile.SRIDOf(path)
	if err != nil {
		return err
	}
	crs := ""
	if srid != 0 {
		crs = fmt.Sprintf("EPSG:%d", srid)
		if err := f.SetSRS(ctx, crs); err != nil {
			return err
		}
	}
	env := EnvelopeOf(box, crs)
	if err := f.SetNativeBounds(ctx, env); err != nil {
		return err
	}
	if srid == 4326 {
		return f.SetLatLonBounds(ctx, env)
	}
	return nil
}

// Recalculate asks the server to recompute the named bounds on update,
// e.g. Recalculate("nativebbox", "latlonbbox").
func Recalculate(what ...string) rest.Options {
	return rest.Options{Query: url.Values{"recalculate": {strings.Join(what, ",")}}}
}

func (f *FeatureType) boundsHint() *bbox.BoundingBox {
	if e, ok := f.latLonBounds.peek(&f.Resource); ok && !e.IsZero() {
		return e.Box()
	}
	return nil
}

func (f *FeatureType) message(ctx context.Context) ([]byte, error) {
	doc := featureTypeXML{
		Name:      f.name,
		Namespace: nameRef(f.workspace.Name()),
		Store:     &storeRefXML{Class: "dataStore", Name: f.workspace.Name() + ":" + f.store.Name()},
	}
	var err error
	var enabled bool
	var keywords []string
	var native, latlon Envelope
	if enabled, err = f.Enabled(ctx); err != nil {
		return nil, err
	}
	if doc.NativeName, err = f.NativeName(ctx); err != nil {
		return nil, err
	}
	if doc.Title, err = f.Title(ctx); err != nil {
		return nil, err
	}
	if doc.Abstract, err = f.Abstract(ctx); err != nil {
		return nil, err
	}
	if doc.SRS, err = f.SRS(ctx); err != nil {
		return nil, err
	}
	if keywords, err = f.Keywords(ctx); err != nil {
		return nil, err
	}
	if native, err = f.NativeBounds(ctx); err != nil {
		return nil, err
	}
	if latlon, err = f.LatLonBounds(ctx); err != nil {
		return nil, err
	}
	doc.Enabled = boolPtr(enabled)
	doc.Keywords = toStrings(keywords)
	doc.NativeBounds = toEnvelope(native)
	doc.LatLonBounds = toEnvelope(latlon)
	return xml.Marshal(doc)
}

func (f *FeatureType) parseProfile(_ context.Context, raw []byte) (Profile, error) {
	var doc featureTypeXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	p := Profile{
		"name":       doc.Name,
		"workspace":  f.workspace.Name(),
		"data_store": f.store.Name(),
		"nativeName": doc.NativeName,
		"title":      doc.Title,
		"abstract":   doc.Abstract,
		"srs":        doc.SRS,
		"keywords":   doc.Keywords.list(),
	}
	if doc.Enabled != nil {
		p["enabled"] = *doc.Enabled
	}
	if e, ok := doc.NativeBounds.envelope(); ok {
		p["nativeBoundingBox"] = e
	}
	if e, ok := doc.LatLonBounds.envelope(); ok {
		p["latLonBoundingBox"] = e
	}
	return p, nil
}
