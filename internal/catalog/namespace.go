package catalog

import (
	"context"
	"encoding/xml"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

// Namespace is identified by its prefix (Name) and a URI.
type Namespace struct {
	Resource
	uri field[string]
}

type namespaceXML struct {
	XMLName xml.Name `xml:"namespace"`
	Prefix  string   `xml:"prefix"`
	URI     string   `xml:"uri"`
}

// NewNamespace builds a namespace; a non-empty uri is the initial local
// value and does not mark the field dirty.
func NewNamespace(c *Catalog, prefix, uri string) (*Namespace, error) {
	n := &Namespace{uri: newField("uri", "uri", "")}
	if err := n.bind(c, n, prefix); err != nil {
		return nil, err
	}
	if uri != "" {
		n.uri.init(uri)
	}
	return n, nil
}

func (n *Namespace) kind() string      { return "Namespace" }
func (n *Namespace) route() rest.Route { return rest.Collection("namespaces") }

func (n *Namespace) URI(ctx context.Context) (string, error) { return n.uri.get(ctx, &n.Resource) }

func (n *Namespace) SetURI(ctx context.Context, v string) error {
	return n.uri.put(ctx, &n.Resource, v)
}

func (n *Namespace) message(ctx context.Context) ([]byte, error) {
	uri, err := n.URI(ctx)
	if err != nil {
		return nil, err
	}
	return xml.Marshal(namespaceXML{Prefix: n.name, URI: uri})
}

func (n *Namespace) parseProfile(_ context.Context, raw []byte) (Profile, error) {
	var doc namespaceXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	return Profile{"prefix": doc.Prefix, "uri": doc.URI}, nil
}
