package commands

import (
	"github.com/spf13/cobra"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/storage/sqlite"
)

var (
	requestsEngine string
	requestsLimit  int
)

func init() {
	requestsCmd.Flags().StringVarP(&requestsEngine, "engine", "e", "", "airline id")
	requestsCmd.Flags().IntVarP(&requestsLimit, "limit", "n", sqlite.DefaultLimit, "maximum requests to print")
	rootCmd.AddCommand(requestsCmd)
}

var requestsCmd = &cobra.Command{
	Use:   "requests [--engine UA]",
	Short: "Prints stored searches, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := a.store.ListRequests(cmd.Context(), sqlite.RequestQuery{Engine: requestsEngine, Limit: requestsLimit})
		if err != nil {
			return err
		}
		renderRequests(cmd.OutOrStdout(), rows)
		return nil
	},
}
