package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/fetcher"
	"github.com/marin-lab/diaspora-cli/internal/ipums"
	"github.com/marin-lab/diaspora-cli/internal/table"
)

var (
	ipumsSamples     []string
	ipumsDescription string
	ipumsWait        bool
	ipumsOut         string
)

// ipumsVariables is the fixed variable set every extract requests. The
// aggregations need all of them, and IPUMS dedupes repeat requests anyway.
var ipumsVariables = []string{
	"YEAR", "STATEFIP", "BPLD", "PERWT", "HHWT", "AGE",
	"INCTOT", "RENT", "VALUEH", "POVERTY", "EDUC", "EMPSTAT", "SPEAKENG",
}

var ipumsCmd = &cobra.Command{
	Use:   "ipums",
	Short: "Submit, download, and aggregate IPUMS USA microdata extracts",
}

var ipumsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a microdata extract request",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(ipumsSamples) == 0 {
			return eris.New("at least one --sample is required, e.g. --sample us2023a")
		}
		client := newIPUMSClient()
		ctx := cmd.Context()

		ext, err := client.SubmitExtract(ctx, ipums.ExtractRequest{
			Description: ipumsDescription,
			Samples:     ipumsSamples,
			Variables:   ipumsVariables,
		})
		if err != nil {
			return err
		}
		fmt.Printf("extract %d submitted\n", ext.Number)

		if !ipumsWait {
			return nil
		}
		poll := time.Duration(cfg.IPUMS.PollSecs) * time.Second
		maxWait := time.Duration(cfg.IPUMS.MaxWaitSecs) * time.Second
		if err := client.WaitForCompletion(ctx, ext.Number, poll, maxWait); err != nil {
			return err
		}
		dest := extractPath(ext.Number)
		if err := client.DownloadExtract(ctx, ext.Number, dest); err != nil {
			return err
		}
		fmt.Printf("extract %d downloaded to %s\n", ext.Number, dest)
		return nil
	},
}

var ipumsStatusCmd = &cobra.Command{
	Use:   "status <extract-number>",
	Short: "Show the status of an extract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return eris.Wrapf(err, "invalid extract number %q", args[0])
		}
		status, err := newIPUMSClient().ExtractStatus(cmd.Context(), number)
		if err != nil {
			return err
		}
		fmt.Printf("extract %d: %s\n", number, status)
		return nil
	},
}

var ipumsDownloadCmd = &cobra.Command{
	Use:   "download <extract-number>",
	Short: "Download a completed extract's CSV data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return eris.Wrapf(err, "invalid extract number %q", args[0])
		}
		dest := ipumsOut
		if dest == "" {
			dest = extractPath(number)
		}
		if err := newIPUMSClient().DownloadExtract(cmd.Context(), number, dest); err != nil {
			return err
		}
		fmt.Printf("extract %d downloaded to %s\n", number, dest)
		return nil
	},
}

var ipumsProcessCmd = &cobra.Command{
	Use:   "process <microdata-csv>",
	Short: "Aggregate a downloaded extract into per-state topic tables",
	Long:  "Filters the microdata to persons born in Puerto Rico and writes one CSV per topic and year under the data dir.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := zap.L().Named("ipums")

		persons, err := ipums.ReadMicrodataFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		prBorn := ipums.FilterPuertoRicoBorn(persons)
		log.Info("microdata read",
			zap.Int("persons", len(persons)),
			zap.Int("puerto_rico_born", len(prBorn)))
		if len(prBorn) == 0 {
			return eris.New("no Puerto Rico born persons in the extract")
		}

		years := map[int]bool{}
		for _, p := range prBorn {
			years[p.Year] = true
		}

		outDir := filepath.Join(cfg.Fetch.DataDir, "ipums")
		var written int
		for year := range years {
			for topic, tbl := range ipums.TopicTables(prBorn, year) {
				if tbl.Len() == 0 {
					continue
				}
				dest := filepath.Join(outDir, table.YearFileName(topic, year))
				if err := tbl.WriteCSV(dest); err != nil {
					return err
				}
				written++
				log.Info("topic written",
					zap.String("topic", topic),
					zap.Int("year", year),
					zap.Int("rows", tbl.Len()))
			}
		}
		fmt.Printf("%d topic tables written to %s\n", written, outDir)
		return nil
	},
}

func newIPUMSClient() *ipums.Client {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Fetch.UserAgent,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})
	return ipums.New(f, cfg.IPUMS.BaseURL, cfg.IPUMS.Key)
}

func extractPath(number int) string {
	return filepath.Join(cfg.Fetch.DataDir, "ipums", fmt.Sprintf("extract_%d.csv", number))
}

func init() {
	ipumsSubmitCmd.Flags().StringSliceVar(&ipumsSamples, "sample", nil,
		"IPUMS USA sample codes, e.g. us2023a (repeatable)")
	ipumsSubmitCmd.Flags().StringVar(&ipumsDescription, "description",
		"Puerto Rican diaspora microdata", "extract description")
	ipumsSubmitCmd.Flags().BoolVar(&ipumsWait, "wait", false,
		"poll until completion and download the data")
	ipumsDownloadCmd.Flags().StringVar(&ipumsOut, "out", "", "destination path")

	ipumsCmd.AddCommand(ipumsSubmitCmd, ipumsStatusCmd, ipumsDownloadCmd, ipumsProcessCmd)
	rootCmd.AddCommand(ipumsCmd)
}
