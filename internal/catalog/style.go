package catalog

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"strings"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

// SLDInfo is the name and title declared by the style's SLD body.
type SLDInfo struct {
	Name  string
	Title string
}

// Style is an SLD style registered in the catalog.
type Style struct {
	Resource
	filename   field[string]
	sldVersion field[string]
}

type versionXML struct {
	Version string `xml:"version"`
}

type styleXML struct {
	XMLName         xml.Name    `xml:"style"`
	Name            string      `xml:"name"`
	Format          string      `xml:"format,omitempty"`
	SLDVersion      *versionXML `xml:"sldVersion,omitempty"`
	LanguageVersion *versionXML `xml:"languageVersion,omitempty"`
	Filename        string      `xml:"filename,omitempty"`
}

// sldXML reads StyledLayerDescriptor/NamedLayer/UserStyle. Elements match
// by local name, so both SLD 1.0 and the se: names of 1.1 parse.
type sldXML struct {
	NamedLayers []struct {
		UserStyles []struct {
			Name  string `xml:"Name"`
			Title string `xml:"Title"`
		} `xml:"UserStyle"`
	} `xml:"NamedLayer"`
}

func NewStyle(c *Catalog, name string) (*Style, error) {
	s := &Style{
		filename:   newField("filename", "filename", ""),
		sldVersion: newField("sld_version", "sld_version", "1.0.0"),
	}
	if err := s.bind(c, s, name); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Style) kind() string      { return "Style" }
func (s *Style) route() rest.Route { return rest.Collection("styles") }

func (s *Style) Filename(ctx context.Context) (string, error) { return s.filename.get(ctx, &s.Resource) }
func (s *Style) SetFilename(ctx context.Context, v string) error {
	return s.filename.put(ctx, &s.Resource, v)
}

func (s *Style) SLDVersion(ctx context.Context) (string, error) {
	return s.sldVersion.get(ctx, &s.Resource)
}
func (s *Style) SetSLDVersion(ctx context.Context, v string) error {
	return s.sldVersion.put(ctx, &s.Resource, v)
}

// SLDInfo returns the name and title parsed from the SLD body when the
// profile was fetched.
func (s *Style) SLDInfo(ctx context.Context) (SLDInfo, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return SLDInfo{}, err
	}
	info, _ := p["sld"].(SLDInfo)
	return info, nil
}

// SLD fetches the raw SLD body.
func (s *Style) SLD(ctx context.Context) ([]byte, error) {
	return s.catalog.transport.Search(ctx, s.Route(), rest.Options{Format: "sld"})
}

// UploadSLD replaces the style body. The style must exist; save it first
// when it is new.
func (s *Style) UploadSLD(ctx context.Context, body []byte) error {
	opts := rest.Options{Format: "-", Header: http.Header{"Content-Type": {rest.ContentSLD}}}
	if _, err := s.catalog.transport.Modify(ctx, s.Route(), body, http.MethodPut, opts); err != nil {
		return err
	}
	s.profile = nil
	s.catalog.notify(ctx, s.event(OpUpdate))
	return nil
}

// Layers lists every layer using the style as default or alternate. It
// reads the profile of every layer in the catalog.
func (s *Style) Layers(ctx context.Context) ([]*Layer, error) {
	all, err := s.catalog.Layers(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Layer
	for _, l := range all {
		ok, err := l.UsesStyle(ctx, s.name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Style) message(ctx context.Context) ([]byte, error) {
	filename, err := s.Filename(ctx)
	if err != nil {
		return nil, err
	}
	version, err := s.SLDVersion(ctx)
	if err != nil {
		return nil, err
	}
	doc := styleXML{Name: s.name, Filename: filename}
	if version != "" {
		doc.SLDVersion = &versionXML{Version: version}
	}
	return xml.Marshal(doc)
}

func (s *Style) parseProfile(ctx context.Context, raw []byte) (Profile, error) {
	var doc styleXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	p := Profile{
		"name":     doc.Name,
		"filename": doc.Filename,
	}
	switch {
	case doc.SLDVersion != nil:
		p["sld_version"] = strings.TrimSpace(doc.SLDVersion.Version)
	case doc.LanguageVersion != nil:
		p["sld_version"] = strings.TrimSpace(doc.LanguageVersion.Version)
	}
	info, err := s.fetchSLDInfo(ctx)
	if err != nil {
		return nil, err
	}
	p["sld"] = info
	return p, nil
}

func (s *Style) fetchSLDInfo(ctx context.Context) (SLDInfo, error) {
	body, err := s.SLD(ctx)
	if errors.Is(err, rest.ErrNotFound) {
		return SLDInfo{}, nil
	}
	if err != nil {
		return SLDInfo{}, err
	}
	return parseSLD(body)
}

func parseSLD(body []byte) (SLDInfo, error) {
	var doc sldXML
	if err := decode(body, &doc); err != nil {
		return SLDInfo{}, err
	}
	for _, nl := range doc.NamedLayers {
		if len(nl.UserStyles) > 0 {
			us := nl.UserStyles[0]
			return SLDInfo{Name: strings.TrimSpace(us.Name), Title: strings.TrimSpace(us.Title)}, nil
		}
	}
	return SLDInfo{}, nil
}
