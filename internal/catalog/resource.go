package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/mohammed-shakir/geoserver-catalog/internal/logger"
	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

// Profile is the parsed server-side state of a resource. It is cached by
// the resource and must be treated as read-only.
type Profile map[string]any

func (p Profile) String(key string) string {
	s, _ := p[key].(string)
	return s
}

func (p Profile) Strings(key string) []string {
	s, _ := p[key].([]string)
	return s
}

func (p Profile) Map(key string) map[string]string {
	m, _ := p[key].(map[string]string)
	return m
}

// Change is the (previous, next) pair recorded for a dirty field.
type Change struct {
	Prev any
	Next any
}

// entity is implemented by every concrete resource type.
type entity interface {
	kind() string
	// route is the collection the resource lives in.
	route() rest.Route
	// message serializes the current full state for create and update.
	message(ctx context.Context) ([]byte, error)
	parseProfile(ctx context.Context, raw []byte) (Profile, error)
}

// creatable overrides where, and whether, a new resource is created.
// ok=false means the type cannot be created directly.
type creatable interface {
	createRoute() (route rest.Route, ok bool)
}

// bounded resources report a lat/lon extent in change events.
type bounded interface {
	boundsHint() *bbox.BoundingBox
}

const fieldName = "name"

// Resource is the life-cycle shared by every catalog resource: a lazily
// fetched profile, a dirty set of locally changed fields, and save/delete
// against the owning Catalog. A Resource is not safe for concurrent use.
type Resource struct {
	catalog *Catalog
	self    entity
	name    string

	profile Profile
	isNew   bool

	changes  map[string]Change
	order    []string
	previous map[string]Change
}

func (r *Resource) bind(c *Catalog, self entity, name string) error {
	if c == nil {
		return configErr(self.kind(), "nil catalog")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return configErr(self.kind(), "empty name")
	}
	r.catalog = c
	r.self = self
	r.name = name
	r.isNew = true
	return nil
}

func (r *Resource) Catalog() *Catalog { return r.catalog }

func (r *Resource) Name() string { return r.name }

// SetName renames the resource locally. The next Save updates the resource
// addressed by its old name. An empty name is rejected and leaves the
// resource unchanged.
func (r *Resource) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return configErr(r.self.kind(), "empty name")
	}
	if name == r.name {
		return nil
	}
	r.markChanged(fieldName, r.name, name)
	r.name = name
	return nil
}

func (r *Resource) String() string {
	return r.self.kind() + ": " + r.name
}

// Route addresses the resource itself.
func (r *Resource) Route() rest.Route {
	return r.self.route().Named(r.name)
}

// Profile returns the cached profile, fetching it on first use. A resource
// missing on the server yields an empty profile and IsNew() == true.
func (r *Resource) Profile(ctx context.Context) (Profile, error) {
	if r.profile != nil {
		return r.profile, nil
	}
	p, found, err := r.lookup(ctx)
	if err != nil {
		return nil, err
	}
	r.profile = p
	r.isNew = !found
	return p, nil
}

// lookup distinguishes found, not found and failed fetches.
func (r *Resource) lookup(ctx context.Context) (Profile, bool, error) {
	raw, err := r.catalog.transport.Search(ctx, r.Route(), rest.Options{})
	switch {
	case errors.Is(err, rest.ErrNotFound):
		return Profile{}, false, nil
	case err != nil:
		return nil, false, err
	}
	p, err := r.self.parseProfile(ctx, raw)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s %q: %w", r.self.kind(), r.name, err)
	}
	if p == nil {
		p = Profile{}
	}
	return p, true, nil
}

// IsNew resolves the profile and reports whether the resource is absent on
// the server.
func (r *Resource) IsNew(ctx context.Context) (bool, error) {
	if _, err := r.Profile(ctx); err != nil {
		return false, err
	}
	return r.isNew, nil
}

func (r *Resource) Changed() bool { return len(r.changes) > 0 }

// FieldChanged reports whether field is in the dirty set.
func (r *Resource) FieldChanged(field string) bool {
	_, ok := r.changes[field]
	return ok
}

// ChangedFields lists the dirty set in first-change order.
func (r *Resource) ChangedFields() []string { return slices.Clone(r.order) }

func (r *Resource) Changes() map[string]Change { return maps.Clone(r.changes) }

// PreviousChanges is the dirty set captured by the last successful Save.
func (r *Resource) PreviousChanges() map[string]Change { return maps.Clone(r.previous) }

func (r *Resource) markChanged(field string, prev, next any) {
	if r.changes == nil {
		r.changes = make(map[string]Change)
	}
	c, ok := r.changes[field]
	if !ok {
		r.order = append(r.order, field)
		c.Prev = prev
	}
	c.Next = next
	r.changes[field] = c
}

func (r *Resource) resetChanges() {
	r.changes = nil
	r.order = nil
}

// Clear drops the cached profile and the dirty set. Local field values are
// kept.
func (r *Resource) Clear() {
	r.profile = nil
	r.resetChanges()
}

// renamedFrom returns the name the server still knows the resource by.
func (r *Resource) renamedFrom() (string, bool) {
	c, ok := r.changes[fieldName]
	if !ok {
		return "", false
	}
	old, _ := c.Prev.(string)
	if old == "" || old == r.name {
		return "", false
	}
	return old, true
}

// Save creates the resource when it is new, renames it when its name
// changed, and updates it otherwise. The dirty set is cleared only when the
// server accepted the call.
func (r *Resource) Save(ctx context.Context, opts rest.Options) error {
	kind := r.self.kind()
	target := r.name
	old, renamed := r.renamedFrom()
	if renamed {
		target = old
	}

	create := false
	if !renamed {
		isNew, err := r.IsNew(ctx)
		if err != nil {
			return err
		}
		create = isNew
	}

	route := r.self.route()
	if create {
		if c, ok := r.self.(creatable); ok {
			cr, ok := c.createRoute()
			if !ok {
				return configErr(kind, "%q cannot be created directly", r.name)
			}
			route = cr
		}
	} else {
		route = route.Named(target)
	}

	body, err := r.self.message(ctx)
	if err != nil {
		return err
	}

	pending := maps.Clone(r.changes)
	op := OpUpdate
	if create {
		op = OpCreate
		_, err = r.catalog.transport.Add(ctx, route, body, http.MethodPost, opts)
	} else {
		_, err = r.catalog.transport.Modify(ctx, route, body, http.MethodPut, opts)
	}
	if err != nil {
		return err
	}

	r.previous = pending
	if create {
		r.Clear()
	} else {
		r.resetChanges()
	}
	ctx = logger.WithResource(ctx, r.Route().Path(""))
	r.catalog.logger.DebugContext(ctx, "saved", "kind", kind, "name", r.name, "op", string(op))
	r.catalog.notify(ctx, r.event(op))
	return nil
}

// Delete purges the resource when it exists on the server and always clears
// the cache afterwards. opts carries flags such as recurse=true.
func (r *Resource) Delete(ctx context.Context, opts rest.Options) error {
	isNew, err := r.IsNew(ctx)
	if err != nil {
		return err
	}
	if !isNew {
		if _, err := r.catalog.transport.Purge(ctx, r.Route(), opts); err != nil {
			return err
		}
		ctx = logger.WithResource(ctx, r.Route().Path(""))
		r.catalog.logger.DebugContext(ctx, "deleted", "kind", r.self.kind(), "name", r.name)
		r.catalog.notify(ctx, r.event(OpDelete))
	}
	r.Clear()
	return nil
}

func (r *Resource) event(op Op) Event {
	ev := Event{
		Op:   op,
		Kind: r.self.kind(),
		Path: r.Route().Path(""),
		Name: r.name,
	}
	if b, ok := r.self.(bounded); ok {
		ev.Bounds = b.boundsHint()
	}
	return ev
}

// children resolves the member names behind an atom link stored under key
// in the profile. A missing link or a 404 yields no names.
func (r *Resource) children(ctx context.Context, key string) ([]string, error) {
	p, err := r.Profile(ctx)
	if err != nil {
		return nil, err
	}
	href := p.String(linkKey(key))
	if href == "" {
		return nil, nil
	}
	raw, err := r.catalog.transport.FetchURL(ctx, href)
	if errors.Is(err, rest.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return memberNames(raw)
}

func linkKey(key string) string { return key + ".href" }
