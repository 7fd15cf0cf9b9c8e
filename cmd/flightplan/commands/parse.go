package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/storage/sqlite"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

var (
	parseEngine string
	parseLimit  int
)

func init() {
	parseCmd.Flags().StringVarP(&parseEngine, "engine", "e", "", "airline id")
	parseCmd.Flags().IntVarP(&parseLimit, "limit", "n", sqlite.DefaultLimit, "maximum requests to parse")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse [request-id...]",
	Short: "Parses stored search assets again and replaces their awards.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := selectRequests(ctx, a.store, args)
		if err != nil {
			return err
		}

		outcomes := make([]parseOutcome, 0, len(rows))
		failed := 0
		for _, row := range rows {
			out := reparse(ctx, a, row)
			if out.err != nil {
				failed++
			}
			outcomes = append(outcomes, out)
		}
		renderParse(cmd.OutOrStdout(), outcomes)

		if failed > 0 {
			return fmt.Errorf("%d of %d requests failed to parse", failed, len(rows))
		}
		return nil
	},
}

func selectRequests(ctx context.Context, store *sqlite.Store, ids []string) ([]sqlite.RequestRow, error) {
	if len(ids) == 0 {
		return store.ListRequests(ctx, sqlite.RequestQuery{Engine: parseEngine, Limit: parseLimit})
	}
	rows := make([]sqlite.RequestRow, 0, len(ids))
	for _, id := range ids {
		row, err := store.GetRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// reparse rebuilds the awards of row from its assets. Awards of a request
// that no longer parses are left as they were.
func reparse(ctx context.Context, a *app, row sqlite.RequestRow) parseOutcome {
	out := parseOutcome{row: row}
	log := a.log.WithEngine(row.Engine).WithContext("results", row.ID)

	results, err := row.Results(a.registry, a.assets)
	if err != nil {
		out.err = err
		log.Error().Err(err).Msg("failed to restore results")
		return out
	}
	awards, err := results.Awards(ctx)
	if err != nil {
		out.err = err
		log.Error().Err(err).Str("kind", domain.Classify(err).String()).Msg("failed to parse results")
		return out
	}
	if err := a.store.SaveResults(ctx, results, awards); err != nil {
		out.err = err
		return out
	}
	out.awards = len(awards)
	log.Info().Int("awards", len(awards)).Msg("parsed")
	return out
}
