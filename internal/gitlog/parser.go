package gitlog

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/defectlens/defectlens-go/internal/models"
)

// Parser turns a full history dump into the ordered change-record sequence.
// It is the only component aware of the whole run.
type Parser struct {
	repository string
	defects    DefectSet
	workers    int
	logger     *logrus.Logger
}

// NewParser creates a parser for one repository. workers <= 1 selects the
// sequential baseline; larger values parse blocks concurrently while
// preserving input block order in the output.
func NewParser(repository string, set DefectSet, workers int, logger *logrus.Logger) *Parser {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Parser{
		repository: repository,
		defects:    set,
		workers:    workers,
		logger:     logger,
	}
}

// Parse converts lines into records, in input block order. Any integrity
// failure aborts the whole run with a *BlockError; no partial output is
// returned.
func (p *Parser) Parse(ctx context.Context, lines []string) ([]*models.ChangeRecord, error) {
	bounds := BlockBounds(lines)
	blocks := len(bounds) - 1

	// A non-empty dump must open with a commit header; anything before the
	// first header means the log format assumption is already broken.
	if len(lines) > 0 && (blocks == 0 || bounds[0] != 0) {
		var preamble []string
		if blocks == 0 {
			preamble = lines
		} else {
			preamble = lines[:bounds[0]]
		}
		return nil, &BlockError{Reason: "history does not begin with a commit header", Block: preamble}
	}

	p.logger.WithFields(logrus.Fields{
		"repository": p.repository,
		"blocks":     blocks,
		"workers":    p.workers,
	}).Debug("parsing history dump")

	var records []*models.ChangeRecord
	var err error
	if p.workers > 1 {
		records, err = p.parseParallel(ctx, lines, bounds)
	} else {
		records, err = p.parseSequential(lines, bounds)
	}
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"repository": p.repository,
		"records":    len(records),
	}).Debug("history dump parsed")
	return records, nil
}

func (p *Parser) parseSequential(lines []string, bounds []int) ([]*models.ChangeRecord, error) {
	records := make([]*models.ChangeRecord, 0, len(bounds))
	for i := 0; i < len(bounds)-1; i++ {
		recs, err := parseBlock(lines[bounds[i]:bounds[i+1]], p.repository, p.defects)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

// parseParallel fans blocks out over a bounded errgroup. Results land in a
// per-block slot table, so the flattened output matches sequential parsing
// exactly. The defect set is shared read-only across workers.
func (p *Parser) parseParallel(ctx context.Context, lines []string, bounds []int) ([]*models.ChangeRecord, error) {
	results := make([][]*models.ChangeRecord, len(bounds)-1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < len(bounds)-1; i++ {
		i := i
		block := lines[bounds[i]:bounds[i+1]]
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			recs, err := parseBlock(block, p.repository, p.defects)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]*models.ChangeRecord, 0, len(results))
	for _, recs := range results {
		records = append(records, recs...)
	}
	return records, nil
}
