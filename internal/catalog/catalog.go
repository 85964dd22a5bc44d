// Package catalog maps the GeoServer REST configuration catalog onto
// dirty-tracked Go values. Every resource type embeds Resource, which owns
// the lazy profile fetch and the save/delete life-cycle.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

// Transport is what resources need from the REST API. *rest.Client
// satisfies it.
type Transport interface {
	Search(ctx context.Context, route rest.Route, opts rest.Options) ([]byte, error)
	Add(ctx context.Context, route rest.Route, body []byte, method string, opts rest.Options) ([]byte, error)
	Modify(ctx context.Context, route rest.Route, body []byte, method string, opts rest.Options) ([]byte, error)
	Purge(ctx context.Context, route rest.Route, opts rest.Options) ([]byte, error)
	FetchURL(ctx context.Context, href string) ([]byte, error)
}

// Reloader is implemented by transports that can trigger a configuration
// reload or a store reset.
type Reloader interface {
	Reload(ctx context.Context) error
	Reset(ctx context.Context) error
}

// CacheSeeder is implemented by transports that can reach GeoWebCache.
type CacheSeeder interface {
	GWC(ctx context.Context, method, subPath string, body []byte, opts rest.Options) ([]byte, error)
}

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes a successful change made through the catalog.
type Event struct {
	Op   Op
	Kind string
	// Path is the REST path of the resource, e.g. workspaces/topp/datastores/states.
	Path string
	Name string
	// Bounds is the lat/lon extent when the resource carries one locally.
	Bounds *bbox.BoundingBox
	At     time.Time
}

// Notifier receives change events after a save or delete succeeds. Errors
// are logged and never fail the operation.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type Option func(*Catalog)

func WithNotifier(n Notifier) Option {
	return func(c *Catalog) { c.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// Catalog binds resources to one GeoServer. It holds no mutable state of its
// own and may be shared; the resources built from it may not.
type Catalog struct {
	transport Transport
	notifier  Notifier
	logger    *slog.Logger
}

func New(t Transport, opts ...Option) *Catalog {
	c := &Catalog{
		transport: t,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Catalog) Transport() Transport { return c.transport }

func (c *Catalog) String() string {
	if s, ok := c.transport.(interface{ BaseURL() string }); ok {
		return "Catalog: " + s.BaseURL()
	}
	return "Catalog"
}

// Reload makes GeoServer re-read its configuration from disk and reconnect
// to every store.
func (c *Catalog) Reload(ctx context.Context) error {
	r, ok := c.transport.(Reloader)
	if !ok {
		return configErr("", "transport cannot reload")
	}
	return r.Reload(ctx)
}

// Reset drops every store, raster and schema cache on the server.
func (c *Catalog) Reset(ctx context.Context) error {
	r, ok := c.transport.(Reloader)
	if !ok {
		return configErr("", "transport cannot reset")
	}
	return r.Reset(ctx)
}

func (c *Catalog) notify(ctx context.Context, ev Event) {
	if c.notifier == nil {
		return
	}
	ev.At = time.Now()
	if err := c.notifier.Notify(ctx, ev); err != nil {
		c.logger.WarnContext(ctx, "change notification failed",
			"op", string(ev.Op), "kind", ev.Kind, "path", ev.Path, "err", err)
	}
}
