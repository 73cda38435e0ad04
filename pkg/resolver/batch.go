package resolver

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oddslab/teamresolve/pkg/normalize"
)

// ResolveMany resolves a batch of names concurrently and returns a result
// per original input key. Inputs that normalize identically ("FaZe",
// "faze", " FaZe ") are resolved once and share the result. The common case
// is the two sides of a market, whose lookups should not serialize.
func (r *Resolver) ResolveMany(ctx context.Context, names []string, game string) map[string]*ResolvedTeam {
	// Group originals by normalized form so each distinct team is resolved
	// exactly once.
	groups := make(map[string][]string, len(names))
	for _, name := range names {
		key := normalize.Normalize(name)
		groups[key] = append(groups[key], name)
	}

	var (
		mu       sync.Mutex
		resolved = make(map[string]*ResolvedTeam, len(groups))
	)
	g, ctx := errgroup.WithContext(ctx)
	for key, originals := range groups {
		if key == "" {
			continue
		}
		key := key
		first := originals[0]
		g.Go(func() error {
			res := r.Resolve(ctx, first, game)
			mu.Lock()
			resolved[key] = res
			mu.Unlock()
			return nil
		})
	}
	// Tasks never return errors; Wait only orders the map writes.
	_ = g.Wait()

	out := make(map[string]*ResolvedTeam, len(names))
	for key, originals := range groups {
		for _, name := range originals {
			out[name] = resolved[key]
		}
	}
	return out
}
