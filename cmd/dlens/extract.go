package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/defectlens/defectlens-go/internal/defects"
	"github.com/defectlens/defectlens-go/internal/git"
	"github.com/defectlens/defectlens-go/internal/gitlog"
	"github.com/defectlens/defectlens-go/internal/output"
)

var (
	extractOut     string
	extractDefects string
	extractWorkers int
	extractCSV     bool
	extractText    bool
	extractNoJSON  bool
	extractStore   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [path]",
	Short: "Extract change records from a repository's history",
	Long: `Extract reads the full change history of the repository at path (default:
current directory), classifies every commit, and writes one record per
(commit, file) pair to the enabled artifact formats.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "artifact directory (default: from config)")
	extractCmd.Flags().StringVar(&extractDefects, "defects", "", "known-defect list file (default: <repo>.dft in the artifact directory)")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "concurrent block parsers (default: from config)")
	extractCmd.Flags().BoolVar(&extractCSV, "csv", false, "also write the CSV artifact")
	extractCmd.Flags().BoolVar(&extractText, "text", false, "also write the plain-text artifact")
	extractCmd.Flags().BoolVar(&extractNoJSON, "no-json", false, "skip the JSON artifact")
	extractCmd.Flags().BoolVar(&extractStore, "store", false, "save the run to storage for later comparison")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	path := cfg.Repository
	if path == "" {
		path = "."
	}
	if len(args) > 0 {
		path = args[0]
	}

	repo := git.Open(path)
	if !repo.IsRepo(ctx) {
		return fmt.Errorf("%s is not a git repository", path)
	}

	name, err := repo.Name(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve repository name: %w", err)
	}

	fmt.Printf("🔍 Extracting change history for %s\n", name)

	lines, err := repo.HistoryDump(ctx)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	outDir := extractOut
	if outDir == "" {
		outDir = cfg.Output.Dir
	}

	set := loadDefectSet(name, outDir)

	workers := extractWorkers
	if workers == 0 {
		workers = cfg.Parse.Workers
	}

	parser := gitlog.NewParser(name, set, workers, logger)
	records, err := parser.Parse(ctx, lines)
	if err != nil {
		abortOnBlockError(err)
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	writers := output.Build(name, output.Options{
		Dir:  outDir,
		JSON: cfg.Output.JSON && !extractNoJSON,
		CSV:  cfg.Output.CSV || extractCSV,
		Text: cfg.Output.Text || extractText,
	})
	if err := output.WriteAll(ctx, writers, records); err != nil {
		return err
	}
	for _, w := range writers {
		fmt.Printf("✓ wrote %s\n", w.Name())
	}

	if extractStore {
		store, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open run storage: %w", err)
		}
		defer store.Close()

		run, err := store.SaveRun(ctx, name, records)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Printf("✓ saved run %s\n", run.ID)
	}

	defectCount := 0
	for _, rec := range records {
		if rec.IsDefect {
			defectCount++
		}
	}
	fmt.Printf("✅ %d records (%d defect-related) in %s\n",
		len(records), defectCount, time.Since(start).Round(time.Millisecond))

	return nil
}

// loadDefectSet resolves the defect list path and loads it. A missing list
// is advisory: the run continues on the message heuristic alone.
func loadDefectSet(repoName, outDir string) *defects.Set {
	path := extractDefects
	if path == "" {
		path = cfg.Defects.File
	}
	if path == "" {
		path = filepath.Join(outDir, repoName+".dft")
	}

	set, err := defects.Load(path)
	if err != nil {
		fmt.Printf("NOTE: %v\n", err)
	}
	return set
}

// abortOnBlockError prints a malformed history block and exits. The history
// is parsed before any artifact or storage is opened, so aborting here
// leaves nothing half-written.
func abortOnBlockError(err error) {
	var blockErr *gitlog.BlockError
	if !errors.As(err, &blockErr) {
		return
	}

	fmt.Fprintf(os.Stderr, "FATAL ERROR: %s\n", blockErr.Reason)
	for _, line := range blockErr.Block {
		fmt.Fprintln(os.Stderr, line)
	}
	os.Exit(1)
}
