// resolverd serves team-name resolution over HTTP for the trading UI and
// the recommendation engine, with Prometheus exposition on the same port.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/oddslab/teamresolve/pkg/pandascore"
	"github.com/oddslab/teamresolve/pkg/resolver"
	"github.com/oddslab/teamresolve/pkg/store"
)

var (
	httpAddr    = flag.String("http", ":8080", "HTTP listen address")
	defaultGame = flag.String("game", "cs2", "Game used when a request omits one")
	cacheSize   = flag.Int("cache-size", resolver.DefaultCacheSize, "Resolution cache capacity")
	verbose     = flag.Bool("verbose", false, "Debug logging")
)

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if !*verbose {
		log = log.Level(zerolog.InfoLevel)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment")
	}

	r, cleanup := buildResolver(log)
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/resolve", handleResolve(r))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(r.Metrics().Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         *httpAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", *httpAddr).Msg("resolverd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// buildResolver wires the four tiers from the environment. The store and
// live tiers are both optional: without DATABASE_URL or PANDASCORE_TOKEN the
// resolver degrades to aliases plus the fuzzy index.
func buildResolver(log zerolog.Logger) (*resolver.Resolver, func()) {
	var (
		storeTier resolver.StoreSearcher
		liveTier  resolver.LiveSearcher
		cleanup   = func() {}
	)
	index := resolver.NewFuzzyIndex()

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		st, err := store.Open(dsn, store.WithLogger(log))
		if err != nil {
			log.Warn().Err(err).Msg("store unavailable, tier disabled")
		} else {
			storeTier = st
			cleanup = func() { st.Close() }
			seedIndex(log, st, index)
		}
	} else {
		log.Info().Msg("DATABASE_URL not set, store tier disabled")
	}

	if token := os.Getenv("PANDASCORE_TOKEN"); token != "" {
		liveTier = pandascore.NewClient(token, pandascore.WithLogger(log))
	} else {
		log.Info().Msg("PANDASCORE_TOKEN not set, live tier disabled")
	}

	r := resolver.New(
		resolver.DefaultAliasTable(),
		index,
		storeTier,
		liveTier,
		resolver.WithLogger(log),
		resolver.WithCache(*cacheSize, resolver.DefaultCacheTTL),
	)
	return r, cleanup
}

// seedIndex snapshots the registry into the in-memory fuzzy index so Tier 3
// has data even when the store later becomes unreachable.
func seedIndex(log zerolog.Logger, st *store.Client, index *resolver.FuzzyIndex) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := st.LoadAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not seed fuzzy index from store")
		return
	}
	index.Load(records)
	log.Info().Int("teams", len(records)).Msg("fuzzy index seeded")
}

type resolveResponse struct {
	Query    string                 `json:"query"`
	Game     string                 `json:"game"`
	Resolved *resolver.ResolvedTeam `json:"resolved"` // null when unresolved
}

// handleResolve serves GET /resolve?name=...&game=... and a comma-separated
// batch form, /resolve?names=a,b&game=...
func handleResolve(r *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		game := req.URL.Query().Get("game")
		if game == "" {
			game = *defaultGame
		}

		w.Header().Set("Content-Type", "application/json")

		if names := req.URL.Query().Get("names"); names != "" {
			batch := strings.Split(names, ",")
			results := r.ResolveMany(req.Context(), batch, game)
			out := make([]resolveResponse, 0, len(batch))
			for _, name := range batch {
				out = append(out, resolveResponse{Query: name, Game: game, Resolved: results[name]})
			}
			json.NewEncoder(w).Encode(out)
			return
		}

		name := req.URL.Query().Get("name")
		if strings.TrimSpace(name) == "" {
			http.Error(w, "name parameter required", http.StatusBadRequest)
			return
		}
		res := r.Resolve(req.Context(), name, game)
		json.NewEncoder(w).Encode(resolveResponse{Query: name, Game: game, Resolved: res})
	}
}
