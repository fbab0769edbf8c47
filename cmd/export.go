package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marin-lab/diaspora-cli/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export fetched tables to other formats",
}

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "Bundle every fetched dataset into one XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := export.Workbook(cfg.Fetch.DataDir, exportOut)
		if err != nil {
			return err
		}
		fmt.Printf("%s written (%d sheets)\n", exportOut, n)
		return nil
	},
}

func init() {
	exportXLSXCmd.Flags().StringVar(&exportOut, "out", "diaspora.xlsx", "output workbook path")
	exportCmd.AddCommand(exportXLSXCmd)
	rootCmd.AddCommand(exportCmd)
}
