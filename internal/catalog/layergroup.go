package catalog

import (
	"context"
	"encoding/xml"
	"fmt"
	"maps"
	"strings"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

// LayerGroup renders several layers as one WMS layer. Styles pair with
// layers by position; an empty style name means the layer's default.
type LayerGroup struct {
	Resource
	workspace *Workspace

	layers   field[[]string]
	styles   field[[]string]
	bounds   field[Envelope]
	metadata field[map[string]string]
}

type layerGroupXML struct {
	XMLName      xml.Name         `xml:"layerGroup"`
	Name         string           `xml:"name"`
	Workspace    *nameXML         `xml:"workspace,omitempty"`
	Layers       *groupLayersXML  `xml:"layers,omitempty"`
	Publishables *publishablesXML `xml:"publishables,omitempty"`
	Styles       *groupStylesXML  `xml:"styles,omitempty"`
	Bounds       *envelopeXML     `xml:"bounds,omitempty"`
	Metadata     *entriesXML      `xml:"metadata,omitempty"`
}

type groupLayersXML struct {
	Layers []nameXML `xml:"layer"`
}

type publishablesXML struct {
	Published []nameXML `xml:"published"`
}

type groupStylesXML struct {
	Styles []nameXML `xml:"style"`
}

func newLayerGroup() *LayerGroup {
	return &LayerGroup{
		layers:   newField("layers", "layers", []string(nil)),
		styles:   newField("styles", "styles", []string(nil)),
		bounds:   newField("bounds", "bounds", Envelope{}),
		metadata: newField("metadata", "metadata", map[string]string(nil)),
	}
}

// NewLayerGroup builds a global layer group.
func NewLayerGroup(c *Catalog, name string) (*LayerGroup, error) {
	g := newLayerGroup()
	if err := g.bind(c, g, name); err != nil {
		return nil, err
	}
	return g, nil
}

// NewWorkspaceLayerGroup builds a layer group scoped to a workspace.
func NewWorkspaceLayerGroup(c *Catalog, ws WorkspaceRef, name string) (*LayerGroup, error) {
	g := newLayerGroup()
	w, err := ws.resolve(c, g.kind())
	if err != nil {
		return nil, err
	}
	g.workspace = w
	if err := g.bind(c, g, name); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *LayerGroup) kind() string { return "LayerGroup" }

func (g *LayerGroup) route() rest.Route {
	if g.workspace != nil {
		return rest.Collection("workspaces").Named(g.workspace.Name()).Child("layergroups", "")
	}
	return rest.Collection("layergroups")
}

// Workspace is the scoping workspace, or nil for a global group.
func (g *LayerGroup) Workspace(ctx context.Context) (*Workspace, error) {
	if g.workspace != nil {
		return g.workspace, nil
	}
	p, err := g.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if name := p.String("workspace"); name != "" {
		return NewWorkspace(g.catalog, name)
	}
	return nil, nil
}

func (g *LayerGroup) LayerNames(ctx context.Context) ([]string, error) {
	return g.layers.get(ctx, &g.Resource)
}

func (g *LayerGroup) StyleNames(ctx context.Context) ([]string, error) {
	return g.styles.get(ctx, &g.Resource)
}

// Layers builds the member layers without fetching them.
func (g *LayerGroup) Layers(ctx context.Context) ([]*Layer, error) {
	names, err := g.LayerNames(ctx)
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*Layer, error) { return NewLayer(g.catalog, n) }, false)
}

// Styles builds the member styles; the entry is nil where the layer's
// default style applies.
func (g *LayerGroup) Styles(ctx context.Context) ([]*Style, error) {
	names, err := g.StyleNames(ctx)
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*Style, error) {
		if n == "" {
			return nil, nil
		}
		return NewStyle(g.catalog, n)
	}, false)
}

func (g *LayerGroup) SetLayers(ctx context.Context, layers []*Layer) error {
	names := make([]string, 0, len(layers))
	for i, l := range layers {
		if l == nil {
			return &ValidationError{Kind: g.kind(), Reason: fmt.Sprintf("layer %d is nil", i)}
		}
		names = append(names, l.Name())
	}
	return g.layers.put(ctx, &g.Resource, names)
}

// SetStyles assigns styles by position; a nil entry selects the layer's
// default style.
func (g *LayerGroup) SetStyles(ctx context.Context, styles []*Style) error {
	names := make([]string, 0, len(styles))
	for _, s := range styles {
		if s == nil {
			names = append(names, "")
			continue
		}
		names = append(names, s.Name())
	}
	return g.styles.put(ctx, &g.Resource, names)
}

func (g *LayerGroup) Bounds(ctx context.Context) (Envelope, error) {
	return g.bounds.get(ctx, &g.Resource)
}
func (g *LayerGroup) SetBounds(ctx context.Context, e Envelope) error {
	return g.bounds.put(ctx, &g.Resource, e)
}

func (g *LayerGroup) Metadata(ctx context.Context) (map[string]string, error) {
	return g.metadata.get(ctx, &g.Resource)
}
func (g *LayerGroup) SetMetadata(ctx context.Context, m map[string]string) error {
	return g.metadata.put(ctx, &g.Resource, maps.Clone(m))
}

func (g *LayerGroup) boundsHint() *bbox.BoundingBox {
	e, ok := g.bounds.peek(&g.Resource)
	if !ok || e.IsZero() || !strings.HasSuffix(e.CRS, "4326") {
		return nil
	}
	return e.Box()
}

func (g *LayerGroup) message(ctx context.Context) ([]byte, error) {
	layers, err := g.LayerNames(ctx)
	if err != nil {
		return nil, err
	}
	styles, err := g.StyleNames(ctx)
	if err != nil {
		return nil, err
	}
	if len(styles) > 0 && len(styles) != len(layers) {
		return nil, &ValidationError{
			Kind:   g.kind(),
			Reason: fmt.Sprintf("%d styles for %d layers", len(styles), len(layers)),
		}
	}
	bounds, err := g.Bounds(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := g.Metadata(ctx)
	if err != nil {
		return nil, err
	}

	doc := layerGroupXML{Name: g.name, Bounds: toEnvelope(bounds)}
	if g.workspace != nil {
		doc.Workspace = nameRef(g.workspace.Name())
	}
	if len(layers) > 0 {
		doc.Layers = &groupLayersXML{}
		for _, l := range layers {
			doc.Layers.Layers = append(doc.Layers.Layers, nameXML{Name: l})
		}
	}
	if len(styles) > 0 {
		doc.Styles = &groupStylesXML{}
		for _, s := range styles {
			doc.Styles.Styles = append(doc.Styles.Styles, nameXML{Name: s})
		}
	}
	if len(meta) > 0 {
		doc.Metadata = toEntries(meta)
	}
	return xml.Marshal(doc)
}

func (g *LayerGroup) parseProfile(_ context.Context, raw []byte) (Profile, error) {
	var doc layerGroupXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	var layers, styles []string
	if doc.Layers != nil {
		for _, l := range doc.Layers.Layers {
			layers = append(layers, l.name())
		}
	} else if doc.Publishables != nil {
		for _, l := range doc.Publishables.Published {
			layers = append(layers, l.name())
		}
	}
	if doc.Styles != nil {
		for _, s := range doc.Styles.Styles {
			styles = append(styles, s.name())
		}
	}
	p := Profile{
		"name":      doc.Name,
		"workspace": doc.Workspace.name(),
		"layers":    layers,
		"styles":    styles,
		"metadata":  doc.Metadata.toMap(),
	}
	if e, ok := doc.Bounds.envelope(); ok {
		p["bounds"] = e
	}
	return p, nil
}
