package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Sessions     []model.SessionRecord
	TotalFiles   int
	ParsedFiles  int
	ParseErrors  int
	FileErrors   int
	ProjectCount int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses all session files under claudeDir. Session status
// is classified against now.
func Load(ctx context.Context, claudeDir string, includeSubagents bool, now time.Time, progressFn ProgressFunc) (*LoadResult, error) {
	files, all, err := discover(claudeDir, includeSubagents)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{
		TotalFiles:   len(files),
		ProjectCount: source.CountProjects(all),
	}
	if len(files) == 0 {
		return result, nil
	}

	parsed, err := parseAll(ctx, files, 0, len(files), progressFn)
	if err != nil {
		return nil, err
	}

	for _, pr := range parsed {
		if pr.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		if hasActivity(pr.Record) {
			result.Sessions = append(result.Sessions, source.ClassifyStatus(pr.Record, now))
		}
	}

	logLoad(result)
	return result, nil
}

// LoadRecords reads a records export instead of scanning transcripts.
func LoadRecords(path string, now time.Time) (*LoadResult, error) {
	recs, err := source.ReadRecordsFile(path)
	if err != nil {
		return nil, err
	}

	projects := make(map[string]struct{})
	for i := range recs {
		recs[i] = source.ClassifyStatus(recs[i], now)
		projects[recs[i].ProjectName] = struct{}{}
	}

	log.Debug().Str("path", path).Int("records", len(recs)).Msg("loaded records export")
	return &LoadResult{
		Sessions:     recs,
		TotalFiles:   1,
		ParsedFiles:  1,
		ProjectCount: len(projects),
	}, nil
}

// discover scans claudeDir and returns the files to parse plus every file found.
func discover(claudeDir string, includeSubagents bool) (toProcess, all []source.DiscoveredFile, err error) {
	all, err = source.ScanDir(claudeDir)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", claudeDir, err)
	}

	if includeSubagents {
		return all, all, nil
	}
	for _, f := range all {
		if !f.IsSubagent {
			toProcess = append(toProcess, f)
		}
	}
	return toProcess, all, nil
}

// parseAll parses files on a bounded worker pool. Results keep input order.
// offset and total only shape progress reporting.
func parseAll(ctx context.Context, files []source.DiscoveredFile, offset, total int, progressFn ProgressFunc) ([]source.ParseResult, error) {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}

	results := make([]source.ParseResult, len(files))
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = source.ParseFile(files[i])
			if results[i].Err != nil {
				log.Debug().Err(results[i].Err).Str("file", files[i].Path).Msg("parse failed")
			}
			n := processed.Add(1)
			if progressFn != nil {
				progressFn(offset+int(n), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func hasActivity(r model.SessionRecord) bool {
	return r.Stats.MessageCount > 0
}

func logLoad(r *LoadResult) {
	ev := log.Debug()
	if r.FileErrors > 0 || r.ParseErrors > 0 {
		ev = log.Warn()
	}
	ev.Int("files", r.TotalFiles).
		Int("sessions", len(r.Sessions)).
		Int("file_errors", r.FileErrors).
		Int("parse_errors", r.ParseErrors).
		Msg("session load complete")
}
