package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oddslab/teamresolve/pkg/normalize"
)

const (
	defaultStoreLimit = 5
	defaultIndexLimit = 5

	tierStore = "store"
	tierIndex = "index"
	tierLive  = "live"
)

// Resolver runs the four-tier resolution pipeline behind the resolution
// cache. Tiers are strictly sequential per request, ordered by cost, and an
// acceptable hit short-circuits the tiers after it. Every tier failure is
// absorbed as a miss: an unresolved team must never take down a page
// rendering the trading UI.
type Resolver struct {
	aliases *AliasTable
	index   *FuzzyIndex
	store   StoreSearcher
	live    LiveSearcher

	cache      *resolutionCache
	log        zerolog.Logger
	metrics    *Metrics
	storeLimit int
	indexLimit int
}

// Option configures the resolver.
type Option func(*Resolver)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithMetrics sets the metrics collector. Defaults to a private collector.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithCache sizes the resolution cache and sets its fixed TTL.
func WithCache(size int, ttl time.Duration) Option {
	return func(r *Resolver) { r.cache = newResolutionCache(size, ttl) }
}

// WithStoreLimit caps the candidate count requested from the store tier.
func WithStoreLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.storeLimit = n
		}
	}
}

// WithIndexLimit caps the candidate count requested from the fuzzy index.
func WithIndexLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.indexLimit = n
		}
	}
}

// New creates a resolver. Aliases and index are injected values so tests can
// substitute fixtures; store and live may be nil, in which case those tiers
// are skipped.
func New(aliases *AliasTable, index *FuzzyIndex, store StoreSearcher, live LiveSearcher, opts ...Option) *Resolver {
	r := &Resolver{
		aliases:    aliases,
		index:      index,
		store:      store,
		live:       live,
		cache:      newResolutionCache(DefaultCacheSize, DefaultCacheTTL),
		log:        zerolog.Nop(),
		storeLimit: defaultStoreLimit,
		indexLimit: defaultIndexLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.aliases == nil {
		r.aliases = NewAliasTable()
	}
	if r.metrics == nil {
		r.metrics = NewMetrics()
	}
	if r.index != nil {
		r.metrics.IndexSize.Set(float64(r.index.Size()))
	}
	return r
}

// Metrics returns the resolver's metrics collector.
func (r *Resolver) Metrics() *Metrics {
	return r.metrics
}

// Resolve maps a free-text team name onto a canonical record, or nil when no
// tier produced an acceptable match. An unresolved name is an expected
// outcome, not an error; the result, nil included, is cached for the TTL.
func (r *Resolver) Resolve(ctx context.Context, name, game string) *ResolvedTeam {
	if strings.TrimSpace(name) == "" {
		return nil
	}

	key := cacheKey(game, name)
	if res, ok := r.cache.get(key); ok {
		r.metrics.CacheHits.Inc()
		return res
	}
	r.metrics.CacheMisses.Inc()

	log := r.log.With().
		Str("trace_id", uuid.NewString()).
		Str("query", name).
		Str("game", game).
		Logger()

	res := r.resolveUncached(ctx, log, name, game)
	r.cache.put(key, res)

	if res == nil {
		r.metrics.RecordMiss()
		log.Debug().Msg("team unresolved, negative-cached")
		return nil
	}
	r.metrics.RecordResolution(res.Source, res.Confidence)
	log.Debug().
		Str("source", string(res.Source)).
		Str("confidence", string(res.Confidence)).
		Str("canonical", res.CanonicalName).
		Msg("team resolved")
	return res
}

func (r *Resolver) resolveUncached(ctx context.Context, log zerolog.Logger, name, game string) *ResolvedTeam {
	normalized := normalize.Normalize(name)
	if normalized == "" {
		return nil
	}

	if entry, ok := r.aliases.Lookup(game, normalized); ok {
		return &ResolvedTeam{
			CanonicalID:   entry.CanonicalID,
			CanonicalName: entry.CanonicalName,
			QueryName:     name,
			Confidence:    ConfidenceExact,
			Source:        SourceAlias,
		}
	}

	if r.store != nil {
		if res := r.searchStore(ctx, log, name); res != nil {
			return res
		}
	}

	if r.index != nil {
		if res := r.searchIndex(log, name, normalized); res != nil {
			return res
		}
	}

	if r.live != nil {
		if res := r.searchLive(ctx, log, name, normalized); res != nil {
			return res
		}
	}

	return nil
}

// searchStore runs Tier 2. The raw name goes to the store untouched:
// trigram similarity does its own folding, and pre-stripping tokens would
// change the similarity the thresholds were calibrated against.
func (r *Resolver) searchStore(ctx context.Context, log zerolog.Logger, name string) *ResolvedTeam {
	start := time.Now()
	defer func() {
		r.metrics.RecordTierLatency(tierStore, time.Since(start).Seconds())
	}()

	count, err := r.store.RecordCount(ctx)
	if err != nil {
		r.metrics.RecordTierError(tierStore)
		log.Warn().Err(err).Msg("store record-count probe failed, skipping tier")
		return nil
	}
	if count == 0 {
		log.Debug().Msg("store unpopulated, skipping tier")
		return nil
	}

	candidates, err := r.store.SearchByTrigram(ctx, name, r.storeLimit)
	if err != nil {
		r.metrics.RecordTierError(tierStore)
		log.Warn().Err(err).Msg("store similarity search failed")
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	conf := confidenceFromSimilarity(best.Similarity)
	if conf == ConfidenceLow {
		log.Debug().Float64("similarity", best.Similarity).Msg("store candidate below threshold")
		return nil
	}
	return &ResolvedTeam{
		CanonicalID:   best.ID,
		CanonicalName: best.Name,
		QueryName:     name,
		Confidence:    conf,
		Source:        SourceStore,
		RawScore:      best.Similarity,
	}
}

// searchIndex runs Tier 3 entirely in process.
func (r *Resolver) searchIndex(log zerolog.Logger, name, normalized string) *ResolvedTeam {
	start := time.Now()
	defer func() {
		r.metrics.RecordTierLatency(tierIndex, time.Since(start).Seconds())
	}()

	candidates := r.index.Search(normalized, r.indexLimit)
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	conf := confidenceFromDistance(best.Distance)
	if conf == ConfidenceLow {
		log.Debug().Float64("distance", best.Distance).Msg("index candidate below threshold")
		return nil
	}
	return &ResolvedTeam{
		CanonicalID:   best.Record.ID,
		CanonicalName: best.Record.Name,
		QueryName:     name,
		Confidence:    conf,
		Source:        SourceIndex,
		RawScore:      best.Distance,
	}
}

// searchLive runs Tier 4, the only tier allowed to emit "low". Callers
// seeing low treat the match as provisional.
func (r *Resolver) searchLive(ctx context.Context, log zerolog.Logger, name, normalized string) *ResolvedTeam {
	start := time.Now()
	defer func() {
		r.metrics.RecordTierLatency(tierLive, time.Since(start).Seconds())
	}()

	records, err := r.live.SearchTeamsByName(ctx, name)
	if err != nil {
		r.metrics.RecordTierError(tierLive)
		log.Warn().Err(err).Msg("live upstream search failed")
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	best := records[0]
	conf := ConfidenceLow
	if normalize.Normalize(best.Name) == normalized {
		conf = ConfidenceExact
	}
	return &ResolvedTeam{
		CanonicalID:   best.ID,
		CanonicalName: best.Name,
		QueryName:     name,
		Confidence:    conf,
		Source:        SourceLive,
	}
}
