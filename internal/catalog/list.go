package catalog

import (
	"context"
	"iter"
)

type remote interface {
	IsNew(ctx context.Context) (bool, error)
}

// Each builds one resource per name. With checkRemote each resource
// resolves its profile before it is yielded, so existence is cached.
func Each[R remote](ctx context.Context, names []string, build func(name string) (R, error), checkRemote bool) iter.Seq2[R, error] {
	return func(yield func(R, error) bool) {
		for _, name := range names {
			res, err := build(name)
			if err == nil && checkRemote {
				_, err = res.IsNew(ctx)
			}
			if !yield(res, err) || err != nil {
				return
			}
		}
	}
}

// List collects Each. No names means an empty list.
func List[R remote](ctx context.Context, names []string, build func(name string) (R, error), checkRemote bool) ([]R, error) {
	out := make([]R, 0, len(names))
	for res, err := range Each(ctx, names, build, checkRemote) {
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}
