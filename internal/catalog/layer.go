package catalog

import (
	"context"
	"encoding/xml"
	"maps"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

// Publishable is the resource behind a layer: *FeatureType or *Coverage.
type Publishable interface {
	Name() string
	PrefixedName() string
	publishable()
}

// LayerResource identifies the resource a layer publishes.
type LayerResource struct {
	// Kind is "featureType" or "coverage".
	Kind      string
	Name      string
	Store     string
	Workspace string
}

type Attribution struct {
	Title      string
	Href       string
	LogoURL    string
	LogoType   string
	LogoWidth  int
	LogoHeight int
}

// Layer is a published feature type or coverage. Layers appear when their
// resource is created and cannot be created directly.
type Layer struct {
	Resource

	enabled         field[bool]
	path            field[string]
	defaultStyle    field[string]
	alternateStyles field[[]string]
	layerType       field[string]
	metadata        field[map[string]string]
	attribution     field[Attribution]
}

type layerXML struct {
	XMLName      xml.Name          `xml:"layer"`
	Name         string            `xml:"name"`
	Path         string            `xml:"path,omitempty"`
	Type         string            `xml:"type,omitempty"`
	DefaultStyle *nameXML          `xml:"defaultStyle,omitempty"`
	Styles       *layerStylesXML   `xml:"styles,omitempty"`
	Resource     *layerResourceXML `xml:"resource,omitempty"`
	Enabled      *bool             `xml:"enabled"`
	Attribution  *attributionXML   `xml:"attribution,omitempty"`
	Metadata     *entriesXML       `xml:"metadata,omitempty"`
}

type layerStylesXML struct {
	Class  string    `xml:"class,attr,omitempty"`
	Styles []nameXML `xml:"style"`
}

type layerResourceXML struct {
	Class string    `xml:"class,attr"`
	Name  string    `xml:"name"`
	Link  *atomLink `xml:"link,omitempty"`
}

type attributionXML struct {
	Title      string `xml:"title,omitempty"`
	Href       string `xml:"href,omitempty"`
	LogoURL    string `xml:"logoURL,omitempty"`
	LogoType   string `xml:"logoType,omitempty"`
	LogoWidth  int    `xml:"logoWidth"`
	LogoHeight int    `xml:"logoHeight"`
}

// workspaces/{ws}/{datastores|coveragestores}/{store}/{featuretypes|coverages}/{name}.xml
var resourceHref = regexp.MustCompile(`workspaces/([^/]+)/([^/]+)/([^/]+)/([^/]+)/([^/]+)\.xml$`)

func NewLayer(c *Catalog, name string) (*Layer, error) {
	l := &Layer{
		enabled:         newField("enabled", "enabled", true),
		path:            newField("path", "path", ""),
		defaultStyle:    newField("default_style", "default_style", ""),
		alternateStyles: newField("alternate_styles", "alternate_styles", []string(nil)),
		layerType:       newField("type", "type", ""),
		metadata:        newField("metadata", "metadata", map[string]string(nil)),
		attribution:     newField("attribution", "attribution", Attribution{}),
	}
	if err := l.bind(c, l, name); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Layer) kind() string      { return "Layer" }
func (l *Layer) route() rest.Route { return rest.Collection("layers") }

func (l *Layer) createRoute() (rest.Route, bool) { return nil, false }

func (l *Layer) Enabled(ctx context.Context) (bool, error) { return l.enabled.get(ctx, &l.Resource) }
func (l *Layer) SetEnabled(ctx context.Context, v bool) error {
	return l.enabled.put(ctx, &l.Resource, v)
}

func (l *Layer) Path(ctx context.Context) (string, error) { return l.path.get(ctx, &l.Resource) }
func (l *Layer) SetPath(ctx context.Context, v string) error {
	return l.path.put(ctx, &l.Resource, v)
}

func (l *Layer) DefaultStyle(ctx context.Context) (string, error) {
	return l.defaultStyle.get(ctx, &l.Resource)
}
func (l *Layer) SetDefaultStyle(ctx context.Context, v string) error {
	return l.defaultStyle.put(ctx, &l.Resource, v)
}

func (l *Layer) AlternateStyles(ctx context.Context) ([]string, error) {
	return l.alternateStyles.get(ctx, &l.Resource)
}
func (l *Layer) SetAlternateStyles(ctx context.Context, v []string) error {
	return l.alternateStyles.put(ctx, &l.Resource, slices.Clone(v))
}

// Type is VECTOR, RASTER, REMOTE or WMS; it is assigned by the server.
func (l *Layer) Type(ctx context.Context) (string, error) { return l.layerType.get(ctx, &l.Resource) }

func (l *Layer) Metadata(ctx context.Context) (map[string]string, error) {
	return l.metadata.get(ctx, &l.Resource)
}
func (l *Layer) SetMetadata(ctx context.Context, v map[string]string) error {
	return l.metadata.put(ctx, &l.Resource, maps.Clone(v))
}

func (l *Layer) Attribution(ctx context.Context) (Attribution, error) {
	return l.attribution.get(ctx, &l.Resource)
}
func (l *Layer) SetAttribution(ctx context.Context, v Attribution) error {
	return l.attribution.put(ctx, &l.Resource, v)
}

// ResourceInfo returns the identity of the published resource, zero when
// the layer has none.
func (l *Layer) ResourceInfo(ctx context.Context) (LayerResource, error) {
	p, err := l.Profile(ctx)
	if err != nil {
		return LayerResource{}, err
	}
	res, _ := p["resource"].(LayerResource)
	return res, nil
}

// PublishedResource builds the feature type or coverage the layer
// publishes, or nil when it is unknown.
func (l *Layer) PublishedResource(ctx context.Context) (Publishable, error) {
	res, err := l.ResourceInfo(ctx)
	if err != nil {
		return nil, err
	}
	if res.Name == "" || res.Workspace == "" || res.Store == "" {
		return nil, nil
	}
	switch res.Kind {
	case "coverage":
		c, err := NewCoverage(l.catalog, WorkspaceName(res.Workspace), CoverageStoreName(res.Store), res.Name)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "featureType":
		f, err := NewFeatureType(l.catalog, WorkspaceName(res.Workspace), DataStoreName(res.Store), res.Name)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, nil
}

// Styles lists the alternate styles of the layer, each with its profile
// resolved.
func (l *Layer) Styles(ctx context.Context) ([]*Style, error) {
	names, err := l.AlternateStyles(ctx)
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*Style, error) {
		return NewStyle(l.catalog, n)
	}, true)
}

// UsesStyle reports whether style is the default or an alternate style.
func (l *Layer) UsesStyle(ctx context.Context, style string) (bool, error) {
	def, err := l.DefaultStyle(ctx)
	if err != nil {
		return false, err
	}
	alts, err := l.AlternateStyles(ctx)
	if err != nil {
		return false, err
	}
	return def == style || slices.Contains(alts, style), nil
}

func (l *Layer) message(ctx context.Context) ([]byte, error) {
	doc := layerXML{Name: l.name}
	var err error
	var enabled bool
	var def string
	var alts []string
	var meta map[string]string
	var attr Attribution
	if enabled, err = l.Enabled(ctx); err != nil {
		return nil, err
	}
	if doc.Path, err = l.Path(ctx); err != nil {
		return nil, err
	}
	if def, err = l.DefaultStyle(ctx); err != nil {
		return nil, err
	}
	if alts, err = l.AlternateStyles(ctx); err != nil {
		return nil, err
	}
	if meta, err = l.Metadata(ctx); err != nil {
		return nil, err
	}
	if attr, err = l.Attribution(ctx); err != nil {
		return nil, err
	}
	doc.Enabled = boolPtr(enabled)
	doc.DefaultStyle = nameRef(def)
	if len(alts) > 0 {
		doc.Styles = &layerStylesXML{}
		for _, s := range alts {
			doc.Styles.Styles = append(doc.Styles.Styles, nameXML{Name: s})
		}
	}
	if len(meta) > 0 {
		doc.Metadata = toEntries(meta)
	}
	if attr != (Attribution{}) {
		doc.Attribution = &attributionXML{
			Title:      attr.Title,
			Href:       attr.Href,
			LogoURL:    attr.LogoURL,
			LogoType:   attr.LogoType,
			LogoWidth:  attr.LogoWidth,
			LogoHeight: attr.LogoHeight,
		}
	}
	return xml.Marshal(doc)
}

func (l *Layer) parseProfile(_ context.Context, raw []byte) (Profile, error) {
	var doc layerXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	p := Profile{
		"name":          strings.TrimSpace(doc.Name),
		"path":          doc.Path,
		"type":          doc.Type,
		"default_style": doc.DefaultStyle.name(),
		"metadata":      doc.Metadata.toMap(),
	}
	if doc.Enabled != nil {
		p["enabled"] = *doc.Enabled
	}
	var alts []string
	if doc.Styles != nil {
		for _, s := range doc.Styles.Styles {
			alts = append(alts, s.name())
		}
	}
	p["alternate_styles"] = alts
	if a := doc.Attribution; a != nil {
		p["attribution"] = Attribution{
			Title:      a.Title,
			Href:       a.Href,
			LogoURL:    a.LogoURL,
			LogoType:   a.LogoType,
			LogoWidth:  a.LogoWidth,
			LogoHeight: a.LogoHeight,
		}
	}
	if doc.Resource != nil {
		p["resource"] = parseLayerResource(doc.Resource)
	}
	return p, nil
}

func parseLayerResource(r *layerResourceXML) LayerResource {
	res := LayerResource{Kind: r.Class, Name: strings.TrimSpace(r.Name)}
	if ws, name, ok := strings.Cut(res.Name, ":"); ok {
		res.Workspace, res.Name = ws, name
	}
	if r.Link != nil {
		if m := resourceHref.FindStringSubmatch(r.Link.Href); m != nil {
			res.Workspace, res.Store, res.Name = m[1], m[3], m[5]
		}
	}
	return res
}

// SeedRequest parameterizes a GeoWebCache seed, reseed or truncate task.
type SeedRequest struct {
	// GridSet defaults to EPSG:4326.
	GridSet   string
	ZoomStart int
	ZoomStop  int
	// Format defaults to image/png.
	Format  string
	Threads int
	// Bounds limits the task to an area; nil means the whole layer.
	Bounds *bbox.BoundingBox
}

type seedRequestXML struct {
	XMLName   xml.Name       `xml:"seedRequest"`
	Name      string         `xml:"name"`
	Bounds    *seedBoundsXML `xml:"bounds,omitempty"`
	GridSetID string         `xml:"gridSetId"`
	ZoomStart int            `xml:"zoomStart"`
	ZoomStop  int            `xml:"zoomStop"`
	Format    string         `xml:"format"`
	Type      string         `xml:"type"`
	Threads   int            `xml:"threadCount"`
}

type seedBoundsXML struct {
	Coords []float64 `xml:"coords>double"`
}

// Seed asks GeoWebCache to generate tiles for the layer.
func (l *Layer) Seed(ctx context.Context, req SeedRequest) error {
	return l.tileTask(ctx, "seed", req)
}

// Reseed regenerates existing tiles.
func (l *Layer) Reseed(ctx context.Context, req SeedRequest) error {
	return l.tileTask(ctx, "reseed", req)
}

// Truncate drops cached tiles.
func (l *Layer) Truncate(ctx context.Context, req SeedRequest) error {
	return l.tileTask(ctx, "truncate", req)
}

func (l *Layer) tileTask(ctx context.Context, typ string, req SeedRequest) error {
	gwc, ok := l.catalog.transport.(CacheSeeder)
	if !ok {
		return configErr(l.kind(), "transport cannot reach geowebcache")
	}
	name, err := l.cacheName(ctx)
	if err != nil {
		return err
	}
	doc := seedRequestXML{
		Name:      name,
		GridSetID: req.GridSet,
		ZoomStart: req.ZoomStart,
		ZoomStop:  req.ZoomStop,
		Format:    req.Format,
		Type:      typ,
		Threads:   req.Threads,
	}
	if doc.GridSetID == "" {
		doc.GridSetID = "EPSG:4326"
	}
	if doc.Format == "" {
		doc.Format = "image/png"
	}
	if doc.Threads <= 0 {
		doc.Threads = 1
	}
	if b := req.Bounds; b != nil && !b.IsEmpty() {
		a := b.ToA()
		doc.Bounds = &seedBoundsXML{Coords: a[:]}
	}
	body, err := xml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = gwc.GWC(ctx, http.MethodPost, "seed/"+name, body, rest.Options{Format: "xml"})
	return err
}

// cacheName is the workspace-qualified layer name GeoWebCache keys on.
func (l *Layer) cacheName(ctx context.Context) (string, error) {
	if strings.Contains(l.name, ":") {
		return l.name, nil
	}
	res, err := l.ResourceInfo(ctx)
	if err != nil {
		return "", err
	}
	if res.Workspace == "" {
		return l.name, nil
	}
	return res.Workspace + ":" + l.name, nil
}
