package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voyantlabs/voyant/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newCrawlCmd creates the `crawl` command: one site, full result to stdout
// or a file.
func newCrawlCmd() *cobra.Command {
	crawlCmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Crawl a single site and emit the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			comps, err := initializeComponents(ctx, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}

			result, err := comps.Orchestrator.CrawlSite(ctx, args[0])
			if err != nil {
				return err
			}
			persistScreenshots(ctx, comps.Store, result, logger)

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}

			outputPath, _ := cmd.Flags().GetString("output")
			if outputPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			if err := os.WriteFile(outputPath, append(out, '\n'), 0o644); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
			logger.Info("result written", zap.String("path", outputPath))
			return nil
		},
	}

	crawlCmd.Flags().StringP("output", "o", "", "Write the JSON result to this file instead of stdout.")
	return crawlCmd
}
