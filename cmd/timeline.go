package main

import (
	"github.com/spf13/cobra"

	"github.com/marin-lab/diaspora-cli/internal/dataset"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Manage the disaster timeline table",
}

var timelineInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the disaster timeline CSV used for chart annotations",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		return env.Engine.Run(cmd.Context(), dataset.RunOpts{
			Datasets: []string{"timeline"},
			Force:    true,
		})
	},
}

func init() {
	timelineCmd.AddCommand(timelineInitCmd)
	rootCmd.AddCommand(timelineCmd)
}
