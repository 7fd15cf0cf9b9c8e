package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/storage/sqlite"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/usecase"
)

// awardsOptions are the flags of the awards command.
type awardsOptions struct {
	engine      string
	from        string
	to          string
	date        string
	cabin       string
	maxStops    int
	airlines    []string
	saver       bool
	minQuantity int
	sortBy      string
	limit       int
}

var awardsOpts awardsOptions

func init() {
	f := awardsCmd.Flags()
	f.StringVarP(&awardsOpts.engine, "engine", "e", "", "airline id")
	f.StringVar(&awardsOpts.from, "from", "", "departure airport")
	f.StringVar(&awardsOpts.to, "to", "", "arrival airport")
	f.StringVar(&awardsOpts.date, "date", "", "departure date (YYYY-MM-DD)")
	f.StringVarP(&awardsOpts.cabin, "cabin", "c", "", "highest cabin of the award")
	f.IntVar(&awardsOpts.maxStops, "max-stops", -1, "maximum stops, -1 for any")
	f.StringSliceVar(&awardsOpts.airlines, "airlines", nil, "operating airlines to keep")
	f.BoolVar(&awardsOpts.saver, "saver", false, "saver fares only")
	f.IntVar(&awardsOpts.minQuantity, "min-seats", 0, "minimum seats available")
	f.StringVarP(&awardsOpts.sortBy, "sort", "s", string(domain.SortByBestValue), "best, mileage, duration or departure")
	f.IntVarP(&awardsOpts.limit, "limit", "n", 50, "maximum awards to print")
	rootCmd.AddCommand(awardsCmd)
}

var awardsCmd = &cobra.Command{
	Use:   "awards [--from ORD] [--to PEK] [--date 2019-09-18] [--cabin business]",
	Short: "Prints stored awards matching the filters.",
	RunE: func(cmd *cobra.Command, args []string) error {
		storeQuery, awardQuery, err := awardsOpts.queries()
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		stored, err := a.store.ListAwards(cmd.Context(), storeQuery)
		if err != nil {
			return err
		}
		renderAwards(cmd.OutOrStdout(), awardQuery.Select(stored))
		return nil
	},
}

// queries splits the flags into the storage filters and the in-memory
// filters and order.
func (o awardsOptions) queries() (sqlite.AwardQuery, usecase.AwardQuery, error) {
	storeQuery := sqlite.AwardQuery{
		Engine:   o.engine,
		FromCity: o.from,
		ToCity:   o.to,
		Date:     o.date,
		Limit:    sqlite.DefaultLimit * 10,
	}
	if o.cabin != "" {
		cabin, err := domain.ParseCabin(o.cabin)
		if err != nil {
			return sqlite.AwardQuery{}, usecase.AwardQuery{}, err
		}
		storeQuery.Cabin = cabin
	}
	if o.maxStops >= 0 {
		stops := o.maxStops
		storeQuery.MaxStops = &stops
	}

	sortBy := domain.SortOption(o.sortBy)
	if !sortBy.IsValid() {
		return sqlite.AwardQuery{}, usecase.AwardQuery{}, fmt.Errorf("unknown sort order %q", o.sortBy)
	}
	return storeQuery, usecase.AwardQuery{
		Filter: &domain.AwardFilter{
			Airlines:    o.airlines,
			SaverOnly:   o.saver,
			MinQuantity: o.minQuantity,
		},
		SortBy: sortBy,
		Limit:  o.limit,
	}, nil
}
