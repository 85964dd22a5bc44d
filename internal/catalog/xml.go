package catalog

import (
	"encoding/xml"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

// atom:link as emitted by the REST API. Matched by local name so documents
// that omit the namespace still parse.
type atomLink struct {
	Rel  string `xml:"rel,attr,omitempty"`
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr,omitempty"`
}

type linkXML struct {
	Link *atomLink `xml:"link"`
}

func (l *linkXML) href() string {
	if l == nil || l.Link == nil {
		return ""
	}
	return strings.TrimSpace(l.Link.Href)
}

type nameXML struct {
	Name string    `xml:"name"`
	Link *atomLink `xml:"link,omitempty"`
}

func nameRef(name string) *nameXML {
	if name == "" {
		return nil
	}
	return &nameXML{Name: name}
}

func (n *nameXML) name() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Name)
}

type entryXML struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// entriesXML is the key/value map encoding used by connectionParameters
// and metadata.
type entriesXML struct {
	Entries []entryXML `xml:"entry"`
}

func toEntries(m map[string]string) *entriesXML {
	out := &entriesXML{}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out.Entries = append(out.Entries, entryXML{Key: k, Value: m[k]})
	}
	return out
}

func (e *entriesXML) toMap() map[string]string {
	m := map[string]string{}
	if e == nil {
		return m
	}
	for _, en := range e.Entries {
		m[en.Key] = strings.TrimSpace(en.Value)
	}
	return m
}

type stringsXML struct {
	Values []string `xml:"string"`
}

func toStrings(v []string) *stringsXML {
	if len(v) == 0 {
		return nil
	}
	return &stringsXML{Values: v}
}

func (s *stringsXML) list() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Values))
	for _, v := range s.Values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

// Envelope is a bounding box with its coordinate reference system, as used
// by nativeBoundingBox, latLonBoundingBox and layer group bounds.
type Envelope struct {
	MinX, MinY, MaxX, MaxY float64
	CRS                    string
}

func EnvelopeOf(b *bbox.BoundingBox, crs string) Envelope {
	return Envelope{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY, CRS: crs}
}

func (e Envelope) IsZero() bool { return e == Envelope{} }

func (e Envelope) Box() *bbox.BoundingBox {
	return bbox.New().Add(e.MinX, e.MinY).Add(e.MaxX, e.MaxY)
}

type envelopeXML struct {
	MinX float64 `xml:"minx"`
	MaxX float64 `xml:"maxx"`
	MinY float64 `xml:"miny"`
	MaxY float64 `xml:"maxy"`
	CRS  string  `xml:"crs,omitempty"`
}

func toEnvelope(e Envelope) *envelopeXML {
	if e.IsZero() {
		return nil
	}
	return &envelopeXML{MinX: e.MinX, MaxX: e.MaxX, MinY: e.MinY, MaxY: e.MaxY, CRS: e.CRS}
}

func (e *envelopeXML) envelope() (Envelope, bool) {
	if e == nil {
		return Envelope{}, false
	}
	return Envelope{MinX: e.MinX, MinY: e.MinY, MaxX: e.MaxX, MaxY: e.MaxY, CRS: strings.TrimSpace(e.CRS)}, true
}

// memberNames lists the <name> of every member of a collection document
// such as <dataStores><dataStore><name>a</name></dataStore>...</dataStores>.
func memberNames(raw []byte) ([]string, error) {
	var doc struct {
		Members []nameXML `xml:",any"`
	}
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	out := make([]string, 0, len(doc.Members))
	for _, m := range doc.Members {
		if n := m.name(); n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

func decode(raw []byte, v any) error {
	if err := xml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode xml: %w", err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

func putIf(p Profile, key string, v any, ok bool) {
	if ok {
		p[key] = v
	}
}
