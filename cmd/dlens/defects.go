package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/defectlens/defectlens-go/internal/config"
	"github.com/defectlens/defectlens-go/internal/defects"
)

var (
	fetchLabels []string
	fetchOut    string
)

// Defect list commands
var defectsCmd = &cobra.Command{
	Use:   "defects",
	Short: "Build and check known-defect lists",
	Long:  `Fetch known-defect commit lists from a repository's issue tracker and verify hand-maintained ones.`,
}

var fetchDefectsCmd = &cobra.Command{
	Use:   "fetch [owner/repo]",
	Short: "Build a defect list from closed bug-labeled issues",
	Long: `Fetch walks the closed issues of a GitHub repository carrying the given
labels and collects the commits referenced by their timelines into a
defect list file, one commit id per line.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetchDefects,
}

var verifyDefectsCmd = &cobra.Command{
	Use:   "verify [file]",
	Short: "Check a defect list for malformed or duplicate entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyDefects,
}

func init() {
	fetchDefectsCmd.Flags().StringSliceVar(&fetchLabels, "labels", nil, "issue labels to fetch (default: from config)")
	fetchDefectsCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "output file (default: <repo>.dft)")

	defectsCmd.AddCommand(fetchDefectsCmd)
	defectsCmd.AddCommand(verifyDefectsCmd)
}

func runFetchDefects(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	parts := strings.SplitN(args[0], "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid repository %q (want owner/repo)", args[0])
	}
	owner, repo := parts[0], parts[1]

	labels := fetchLabels
	if len(labels) == 0 {
		labels = cfg.Defects.Labels
	}

	token, err := config.NewCredentialManager(logger).GetGitHubToken()
	if err != nil {
		return fmt.Errorf("failed to resolve GitHub token: %w", err)
	}
	if token == "" {
		fmt.Println("⚠️  No GitHub token configured, using unauthenticated rate limits")
	}

	fmt.Printf("🔍 Fetching closed %s issues for %s/%s\n", strings.Join(labels, ","), owner, repo)

	fetcher := defects.NewFetcher(token, logger)
	ids, err := fetcher.FetchCommitIDs(ctx, owner, repo, labels)
	if err != nil {
		return fmt.Errorf("failed to fetch defect commits: %w", err)
	}

	outPath := fetchOut
	if outPath == "" {
		outPath = repo + ".dft"
	}

	if err := defects.WriteList(outPath, ids); err != nil {
		return fmt.Errorf("failed to write defect list: %w", err)
	}

	fmt.Printf("✅ Wrote %d commit ids to %s\n", len(ids), outPath)
	return nil
}

func runVerifyDefects(cmd *cobra.Command, args []string) error {
	res, err := defects.VerifyFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read defect list: %w", err)
	}

	fmt.Printf("📋 %s: %d entries, %d valid\n", args[0], res.Total, res.Valid)

	for _, id := range res.Malformed {
		fmt.Printf("⚠️  malformed: %s\n", id)
	}
	for _, id := range res.Duplicates {
		fmt.Printf("⚠️  duplicate: %s\n", id)
	}

	if len(res.Malformed) > 0 {
		return fmt.Errorf("%d malformed entries", len(res.Malformed))
	}

	fmt.Println("✅ defect list is well formed")
	return nil
}
