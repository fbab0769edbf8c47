package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marin-lab/diaspora-cli/internal/nhgis"
)

var nhgisOut string

var nhgisCmd = &cobra.Command{
	Use:   "nhgis",
	Short: "Process NHGIS historical census tables",
}

var nhgisProcessCmd = &cobra.Command{
	Use:   "process <raw-dir>",
	Short: "Normalize downloaded NHGIS CSVs into per-year state tables",
	Long:  "NHGIS extracts are requested manually on the NHGIS site; this command normalizes the downloaded CSVs. The decennial year is read from each file name.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir := nhgisOut
		if outDir == "" {
			outDir = filepath.Join(cfg.Fetch.DataDir, "nhgis")
		}

		results, err := nhgis.ProcessDir(args[0], outDir)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%d: %s (%d states)\n", r.Year, r.Output, r.Rows)
		}
		fmt.Printf("%d files processed\n", len(results))
		return nil
	},
}

func init() {
	nhgisProcessCmd.Flags().StringVar(&nhgisOut, "out", "", "output directory (default <data-dir>/nhgis)")
	nhgisCmd.AddCommand(nhgisProcessCmd)
	rootCmd.AddCommand(nhgisCmd)
}
