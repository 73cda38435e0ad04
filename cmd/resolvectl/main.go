// resolvectl is the operator CLI: one-shot resolutions for debugging alias
// and threshold behavior, and the registry sync job that keeps the
// authoritative store current with the statistics provider.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/oddslab/teamresolve/pkg/pandascore"
	"github.com/oddslab/teamresolve/pkg/resolver"
	"github.com/oddslab/teamresolve/pkg/store"
)

var (
	game    string
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "resolvectl",
		Short:         "Team name resolution toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&game, "game", "cs2", "game identifier")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(resolveCmd(), syncCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !verbose {
		log = log.Level(zerolog.InfoLevel)
	}
	_ = godotenv.Load()
	return log
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name> [name...]",
		Short: "Resolve free-text team names to canonical records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			r, cleanup := buildResolver(log)
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			results := r.ResolveMany(ctx, args, game)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			for _, name := range args {
				if err := enc.Encode(map[string]any{
					"query":    name,
					"game":     game,
					"resolved": results[name],
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync the canonical team registry from the statistics provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				return fmt.Errorf("DATABASE_URL is required for sync")
			}
			token := os.Getenv("PANDASCORE_TOKEN")
			if token == "" {
				return fmt.Errorf("PANDASCORE_TOKEN is required for sync")
			}

			st, err := store.Open(dsn, store.WithLogger(log))
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Minute)
			defer cancel()

			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}

			client := pandascore.NewClient(token, pandascore.WithLogger(log))
			var total int
			err = client.AllTeams(ctx, func(batch []resolver.TeamRecord) error {
				if err := st.UpsertTeams(ctx, batch); err != nil {
					return err
				}
				total += len(batch)
				log.Debug().Int("total", total).Msg("synced batch")
				return nil
			})
			if err != nil {
				return fmt.Errorf("sync aborted after %d teams: %w", total, err)
			}
			log.Info().Int("teams", total).Msg("registry sync complete")
			return nil
		},
	}
}

// buildResolver wires whatever tiers the environment provides; resolve works
// offline with just the alias table and an empty index.
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

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if records, err := st.LoadAll(ctx); err == nil {
				index.Load(records)
			}
			cancel()
		}
	}
	if token := os.Getenv("PANDASCORE_TOKEN"); token != "" {
		liveTier = pandascore.NewClient(token, pandascore.WithLogger(log))
	}

	return resolver.New(
		resolver.DefaultAliasTable(),
		index,
		storeTier,
		liveTier,
		resolver.WithLogger(log),
	), cleanup
}
