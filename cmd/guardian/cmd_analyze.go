package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/covariant-labs/guardian/internal/coordinator"
	"github.com/covariant-labs/guardian/internal/data"
	"github.com/covariant-labs/guardian/internal/report"
	"github.com/covariant-labs/guardian/internal/transport"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis from local data files",
		Long: `Analyze a named portfolio from the portfolios file against the prices
and category mappings files, then print the rendered report.`,
		RunE: runAnalyze,
	}
	cmd.Flags().String("portfolio", "balanced", "Portfolio name from the portfolios file")
	cmd.Flags().String("prices", "", "Path to the price history file (required)")
	cmd.Flags().Bool("json", false, "Print the raw report JSON instead of rendered text")
	cmd.MarkFlagRequired("prices")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("prices"); path != "" {
		cfg.Data.Prices = path
	}

	portfolioName, _ := cmd.Flags().GetString("portfolio")
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx := context.Background()

	deps, err := buildEngine(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer deps.dbManager.Close()

	portfolios, err := data.LoadPortfolios(cfg.Data.Portfolios)
	if err != nil {
		return err
	}
	snapshot, ok := portfolios[portfolioName]
	if !ok {
		return fmt.Errorf("portfolio %q not found in %s", portfolioName, cfg.Data.Portfolios)
	}

	prices, err := data.LoadPrices(cfg.Data.Prices)
	if err != nil {
		return err
	}

	categories, err := data.LoadCategoryMappings(cfg.Data.Categories)
	if err != nil {
		return err
	}

	req := coordinator.AnalyzeRequest{
		CorrelationID: uuid.NewString(),
		Snapshot:      snapshot,
		Prices:        prices,
		Categories:    categories,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode analyze request: %w", err)
	}

	reply, err := deps.bus.Request(ctx, transport.TopicAnalyze, req.CorrelationID, payload)
	if err != nil {
		return err
	}

	var rep coordinator.AnalysisReport
	if err := json.Unmarshal(reply.Payload, &rep); err != nil {
		return fmt.Errorf("failed to decode analysis report: %w", err)
	}

	if asJSON {
		out, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(report.Render(&rep))
	return nil
}
