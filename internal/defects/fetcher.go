package defects

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	apperrors "github.com/defectlens/defectlens-go/internal/errors"
)

// timeline event types that carry the commit which addressed the issue
var commitEvents = map[string]bool{
	"closed":     true,
	"referenced": true,
}

// Fetcher builds a defect list from a repository's closed issue history.
// Commits attached to closed bug-labeled issues are taken as defect fixes.
type Fetcher struct {
	client  *github.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewFetcher creates a fetcher. The token may be empty for public
// repositories, at the cost of a much lower rate limit.
func NewFetcher(token string, logger *logrus.Logger) *Fetcher {
	if logger == nil {
		logger = logrus.New()
	}
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &Fetcher{
		client: client,
		// ~3600 requests/hour, safely under the authenticated API quota
		limiter: rate.NewLimiter(rate.Every(1*time.Second), 1),
		logger:  logger,
	}
}

// FetchCommitIDs walks the closed issues of owner/repo carrying any of the
// given labels and returns the deduplicated, sorted commit identifiers
// referenced by their timelines. Failures on individual issues are logged
// and skipped; only a failure to list issues at all aborts the fetch.
func (f *Fetcher) FetchCommitIDs(ctx context.Context, owner, repo string, labels []string) ([]string, error) {
	seen := make(map[string]struct{})

	opts := &github.IssueListByRepoOptions{
		State:       "closed",
		Labels:      labels,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		issues, resp, err := f.client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, apperrors.FetchErrorf(err, "failed to list issues for %s/%s", owner, repo)
		}

		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}

			ids, err := f.collectIssueCommits(ctx, owner, repo, issue.GetNumber())
			if err != nil {
				f.logger.WithFields(logrus.Fields{
					"issue": issue.GetNumber(),
					"error": err,
				}).Warn("skipping issue timeline")
				continue
			}
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)

	f.logger.WithFields(logrus.Fields{
		"owner":   owner,
		"repo":    repo,
		"labels":  labels,
		"commits": len(out),
	}).Info("defect fetch complete")

	return out, nil
}

// collectIssueCommits pages through one issue's timeline and returns the
// commit identifiers attached to its close and reference events.
func (f *Fetcher) collectIssueCommits(ctx context.Context, owner, repo string, number int) ([]string, error) {
	var ids []string

	opts := &github.ListOptions{PerPage: 100}
	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		events, resp, err := f.client.Issues.ListIssueTimeline(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list timeline for issue #%d: %w", number, err)
		}

		for _, ev := range events {
			if !commitEvents[ev.GetEvent()] {
				continue
			}
			id := ev.GetCommitID()
			if commitIDPattern.MatchString(id) {
				ids = append(ids, id)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return ids, nil
}
