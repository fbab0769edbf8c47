package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marin-lab/diaspora-cli/internal/chart"
)

var chartCmd = &cobra.Command{
	Use:       "chart <name>|all",
	Short:     "Render interactive HTML charts from the fetched tables",
	Long:      "Renders one chart, or all of them. Charts whose inputs have not been fetched yet are skipped with a warning.\n\nAvailable charts: " + strings.Join(chart.Names(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: append(chart.Names(), "all"),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := chart.New(cfg)

		if args[0] == "all" {
			return g.RenderAll(cmd.Context())
		}

		path, err := g.Render(args[0])
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Printf("%s skipped, inputs not fetched yet\n", args[0])
			return nil
		}
		fmt.Printf("%s written\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
}
