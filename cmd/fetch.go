package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marin-lab/diaspora-cli/internal/dataset"
	"github.com/marin-lab/diaspora-cli/internal/store"
)

var (
	fetchDatasets  []string
	fetchForce     bool
	fetchStartYear int
	fetchEndYear   int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch datasets and inspect fetch history",
}

var fetchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch all datasets that are due, or a named subset",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if fetchStartYear != 0 {
			cfg.Census.StartYear = fetchStartYear
		}
		if fetchEndYear != 0 {
			cfg.Census.EndYear = fetchEndYear
		}

		return env.Engine.Run(cmd.Context(), dataset.RunOpts{
			Datasets: fetchDatasets,
			Force:    fetchForce,
		})
	},
}

var fetchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent fetch runs per dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		fmt.Printf("%-16s %-10s %6s  %-20s %s\n", "DATASET", "STATUS", "ROWS", "LAST RUN", "ERROR")
		for _, name := range env.Registry.AllNames() {
			syncs, err := env.Store.ListSyncs(ctx, store.SyncFilter{Dataset: name, Limit: 1})
			if err != nil {
				return err
			}
			if len(syncs) == 0 {
				fmt.Printf("%-16s %-10s\n", name, "never")
				continue
			}
			s := syncs[0]
			errMsg := s.Error
			if len(errMsg) > 60 {
				errMsg = errMsg[:57] + "..."
			}
			fmt.Printf("%-16s %-10s %6d  %-20s %s\n",
				name, s.Status, s.Rows,
				s.StartedAt.Format("2006-01-02 15:04:05"), errMsg)
		}
		return nil
	},
}

var fetchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := dataset.NewRegistry()
		for _, name := range reg.AllNames() {
			ds, _ := reg.Get(name)
			fmt.Printf("%-16s %s\n", name, ds.OutputDir())
		}
		return nil
	},
}

func init() {
	fetchRunCmd.Flags().StringSliceVar(&fetchDatasets, "datasets", nil,
		"datasets to fetch (default all), e.g. --datasets prpop,economy")
	fetchRunCmd.Flags().BoolVar(&fetchForce, "force", false, "fetch even when not due")
	fetchRunCmd.Flags().IntVar(&fetchStartYear, "start-year", 0, "override the first ACS year")
	fetchRunCmd.Flags().IntVar(&fetchEndYear, "end-year", 0, "override the last ACS year")

	fetchCmd.AddCommand(fetchRunCmd, fetchStatusCmd, fetchListCmd)
	rootCmd.AddCommand(fetchCmd)
}
