package catalog

import (
	"context"
	"encoding/xml"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

// WmsStore cascades a remote WMS into a workspace.
type WmsStore struct {
	Resource
	workspace *Workspace

	enabled         field[bool]
	capabilitiesURL field[string]
	description     field[string]
}

type wmsStoreXML struct {
	XMLName         xml.Name `xml:"wmsStore"`
	Name            string   `xml:"name"`
	Description     string   `xml:"description,omitempty"`
	Enabled         *bool    `xml:"enabled"`
	Workspace       *nameXML `xml:"workspace,omitempty"`
	CapabilitiesURL string   `xml:"capabilitiesURL,omitempty"`
}

func NewWmsStore(c *Catalog, ws WorkspaceRef, name string) (*WmsStore, error) {
	s := &WmsStore{
		enabled:         newField("enabled", "enabled", true),
		capabilitiesURL: newField("capabilities_url", "capabilitiesURL", ""),
		description:     newField("description", "description", ""),
	}
	w, err := ws.resolve(c, s.kind())
	if err != nil {
		return nil, err
	}
	s.workspace = w
	if err := s.bind(c, s, name); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *WmsStore) kind() string { return "WmsStore" }

func (s *WmsStore) route() rest.Route {
	return rest.Collection("workspaces").Named(s.workspace.Name()).Child("wmsstores", "")
}

func (s *WmsStore) Workspace() *Workspace { return s.workspace }

func (s *WmsStore) Enabled(ctx context.Context) (bool, error) { return s.enabled.get(ctx, &s.Resource) }
func (s *WmsStore) SetEnabled(ctx context.Context, v bool) error {
	return s.enabled.put(ctx, &s.Resource, v)
}

func (s *WmsStore) CapabilitiesURL(ctx context.Context) (string, error) {
	return s.capabilitiesURL.get(ctx, &s.Resource)
}
func (s *WmsStore) SetCapabilitiesURL(ctx context.Context, v string) error {
	return s.capabilitiesURL.put(ctx, &s.Resource, v)
}

func (s *WmsStore) Description(ctx context.Context) (string, error) {
	return s.description.get(ctx, &s.Resource)
}
func (s *WmsStore) SetDescription(ctx context.Context, v string) error {
	return s.description.put(ctx, &s.Resource, v)
}

func (s *WmsStore) message(ctx context.Context) ([]byte, error) {
	doc := wmsStoreXML{Name: s.name, Workspace: nameRef(s.workspace.Name())}
	enabled, err := s.Enabled(ctx)
	if err != nil {
		return nil, err
	}
	doc.Enabled = boolPtr(enabled)
	if doc.CapabilitiesURL, err = s.CapabilitiesURL(ctx); err != nil {
		return nil, err
	}
	if doc.Description, err = s.Description(ctx); err != nil {
		return nil, err
	}
	return xml.Marshal(doc)
}

func (s *WmsStore) parseProfile(_ context.Context, raw []byte) (Profile, error) {
	var doc wmsStoreXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	p := Profile{
		"name":            doc.Name,
		"workspace":       s.workspace.Name(),
		"description":     doc.Description,
		"capabilitiesURL": doc.CapabilitiesURL,
	}
	if doc.Enabled != nil {
		p["enabled"] = *doc.Enabled
	}
	return p, nil
}
