package catalog

import (
	"context"
	"reflect"
)

// field is one tracked attribute: a profile key, a default and an optional
// local override. Reads prefer the override, then the profile, then the
// default.
type field[T any] struct {
	name string
	key  string
	def  T

	val T
	set bool
}

func newField[T any](name, key string, def T) field[T] {
	return field[T]{name: name, key: key, def: def}
}

func (f *field[T]) get(ctx context.Context, r *Resource) (T, error) {
	if f.set {
		return f.val, nil
	}
	p, err := r.Profile(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if v, ok := p[f.key].(T); ok {
		return v, nil
	}
	return f.def, nil
}

// put stores v and records the field as dirty when v differs from the
// current value. Assigning back the original value keeps it dirty.
func (f *field[T]) put(ctx context.Context, r *Resource, v T) error {
	cur, err := f.get(ctx, r)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(cur, v) {
		r.markChanged(f.name, cur, v)
	}
	f.val, f.set = v, true
	return nil
}

// init sets the local value without touching the dirty set.
func (f *field[T]) init(v T) {
	f.val, f.set = v, true
}

// peek returns the locally known value without fetching.
func (f *field[T]) peek(r *Resource) (T, bool) {
	if f.set {
		return f.val, true
	}
	if v, ok := r.profile[f.key].(T); ok {
		return v, true
	}
	var zero T
	return zero, false
}
