package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/defectlens/defectlens-go/internal/output"
	"github.com/defectlens/defectlens-go/internal/storage"
)

var (
	runsRepo   string
	runsLimit  int
	exportOut  string
	exportJSON bool
	exportCSV  bool
	exportText bool
)

// Stored run commands
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and compare stored extraction runs",
	Long:  `List stored runs, show their records, diff two runs, and re-export a run's artifacts.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs",
	RunE:  runListRuns,
}

var showRunCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a run and its records",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

var diffRunsCmd = &cobra.Command{
	Use:   "diff [run-id] [run-id]",
	Short: "Diff the records of two runs",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiffRuns,
}

var exportRunCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Re-export a stored run's artifact files",
	Args:  cobra.ExactArgs(1),
	RunE:  runExportRun,
}

func init() {
	listRunsCmd.Flags().StringVar(&runsRepo, "repo", "", "filter by repository name")
	listRunsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs")

	exportRunCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "artifact directory")
	exportRunCmd.Flags().BoolVar(&exportJSON, "json", true, "write the JSON artifact")
	exportRunCmd.Flags().BoolVar(&exportCSV, "csv", true, "write the CSV artifact")
	exportRunCmd.Flags().BoolVar(&exportText, "text", true, "write the text artifact")

	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(diffRunsCmd)
	runsCmd.AddCommand(exportRunCmd)
}

func runListRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, runsRepo, runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No stored runs found")
		return nil
	}

	fmt.Printf("📋 %d stored run(s):\n\n", len(runs))
	for i, run := range runs {
		fmt.Printf("%d. %s\n", i+1, run.ID)
		fmt.Printf("   Repository: %s\n", run.Repository)
		fmt.Printf("   Records: %d (%d defect-related)\n", run.Records, run.Defects)
		fmt.Printf("   Created: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Println()
	}

	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	records, err := store.GetRecords(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("Repository: %s\n", run.Repository)
	fmt.Printf("Created: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Records: %d (%d defect-related)\n\n", run.Records, run.Defects)

	for _, rec := range records {
		fmt.Println(rec.String())
	}

	return nil
}

func runDiffRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	diff, err := storage.DiffRuns(ctx, store, args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to diff runs: %w", err)
	}

	if diff == "" {
		fmt.Println("✅ runs produced identical records")
		return nil
	}

	fmt.Print(diff)
	return nil
}

func runExportRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	records, err := store.GetRecords(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	if err := os.MkdirAll(exportOut, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	writers := output.Build(run.Repository, output.Options{
		Dir:  exportOut,
		JSON: exportJSON,
		CSV:  exportCSV,
		Text: exportText,
	})
	if err := output.WriteAll(ctx, writers, records); err != nil {
		return err
	}
	for _, w := range writers {
		fmt.Printf("✓ wrote %s\n", w.Name())
	}

	fmt.Printf("✅ exported %d records from run %s\n", len(records), run.ID)
	return nil
}

// openStore connects to the configured run storage backend.
func openStore() (storage.Store, error) {
	dsn := cfg.Storage.Path
	if cfg.Storage.Backend == "postgres" {
		dsn = cfg.Storage.DSN
	}

	store, err := storage.New(cfg.Storage.Backend, dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open run storage: %w", err)
	}
	return store, nil
}
