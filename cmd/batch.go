package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/voyantlabs/voyant/internal/batch"
	"github.com/voyantlabs/voyant/internal/observability"
)

// siteSummary is the per-site line of the batch report. Screenshot bytes
// stay in storage; only their URLs travel in the report.
type siteSummary struct {
	URL            string        `json:"url"`
	OK             bool          `json:"ok"`
	Error          string        `json:"error,omitempty"`
	CrawlID        string        `json:"crawl_id,omitempty"`
	Elapsed        time.Duration `json:"elapsed,omitempty"`
	ScreenshotURLs []string      `json:"screenshot_urls,omitempty"`
}

// newBatchCmd creates the `batch` command: crawl a list of sites from a
// file, paced and optionally parallel.
func newBatchCmd() *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Crawl a list of sites from a file",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("batch.site_delay", cmd.Flags().Lookup("delay")); err != nil {
				return err
			}
			return viper.BindPFlag("batch.parallelism", cmd.Flags().Lookup("parallel"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			listPath, _ := cmd.Flags().GetString("file")
			urls, err := readSiteList(listPath)
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs found in %s", listPath)
			}

			comps, err := initializeComponents(ctx, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}

			runner := batch.NewRunner(comps.Config.Batch, logger, comps.Orchestrator)
			results := runner.Run(ctx, urls)

			summaries := make([]siteSummary, 0, len(results))
			failed := 0
			for _, res := range results {
				summary := siteSummary{URL: res.URL, OK: res.Err == nil}
				if res.Err != nil {
					failed++
					summary.Error = res.Err.Error()
				} else {
					persistScreenshots(ctx, comps.Store, res.Result, logger)
					summary.CrawlID = res.Result.ID
					summary.Elapsed = res.Result.Elapsed
					summary.ScreenshotURLs = res.Result.ScreenshotURLs
				}
				summaries = append(summaries, summary)
			}

			out, err := json.MarshalIndent(summaries, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode batch report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if failed == len(results) {
				return fmt.Errorf("all %d sites failed", failed)
			}
			return nil
		},
	}

	batchCmd.Flags().StringP("file", "f", "", "Path to a file with one URL per line. Lines starting with # are skipped.")
	batchCmd.Flags().Duration("delay", 0, "Delay between site starts. (Overrides config/env)")
	batchCmd.Flags().Int("parallel", 0, "Number of sites crawled concurrently. (Overrides config/env)")
	_ = batchCmd.MarkFlagRequired("file")
	return batchCmd
}

// readSiteList parses the URL file: one URL per line, blanks and comments
// skipped.
func readSiteList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open site list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read site list: %w", err)
	}
	return urls, nil
}
