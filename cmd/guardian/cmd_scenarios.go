package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/covariant-labs/guardian/internal/data"
	"github.com/covariant-labs/guardian/internal/domain"
	"github.com/covariant-labs/guardian/internal/knowledge"
)

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Manage scenario records in the database",
	}
	cmd.AddCommand(newScenariosSyncCmd())
	cmd.AddCommand(newScenariosListCmd())
	return cmd
}

func newScenariosSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Upsert scenario records from file or the embedded dataset into the database",
		RunE:  runScenariosSync,
	}
	cmd.Flags().String("from", "", "Scenarios YAML file (embedded dataset when empty)")
	return cmd
}

func newScenariosListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scenario records in the database",
		RunE:  runScenariosList,
	}
}

func runScenariosSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return fmt.Errorf("scenario database is disabled in the configuration")
	}

	var records []domain.ScenarioRecord
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		records, err = data.LoadScenarios(from)
		if err != nil {
			return err
		}
	} else {
		records = knowledge.DefaultScenarios()
	}

	ctx := context.Background()
	deps, err := buildEngine(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer deps.dbManager.Close()

	repos := deps.dbManager.Repository()
	if repos == nil {
		return fmt.Errorf("scenario database is not available")
	}

	for _, record := range records {
		if err := repos.Scenarios.Upsert(ctx, record); err != nil {
			return err
		}
		log.Info().Str("scenario", record.ScenarioID).Msg("scenario upserted")
	}

	fmt.Printf("synced %d scenario records\n", len(records))
	return nil
}

func runScenariosList(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return fmt.Errorf("scenario database is disabled in the configuration")
	}

	ctx := context.Background()
	deps, err := buildEngine(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer deps.dbManager.Close()

	repos := deps.dbManager.Repository()
	if repos == nil {
		return fmt.Errorf("scenario database is not available")
	}

	records, err := repos.Scenarios.List(ctx)
	if err != nil {
		return err
	}

	for _, record := range records {
		fmt.Printf("%-24s %-28s %s\n", record.ScenarioID, record.DisplayName, record.PeriodLabel)
	}
	fmt.Printf("%d scenario records\n", len(records))
	return nil
}
