package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/source"
	"github.com/theirongolddev/costdeck/internal/store"
)

// SessionCache is the persistence LoadWithCache diffs against.
type SessionCache interface {
	GetTrackedFiles() (map[string]store.FileInfo, error)
	LoadAllSessions() ([]model.SessionRecord, error)
	SaveSession(r model.SessionRecord, mtimeNs, sizeBytes int64) error
	TrackEmpty(filePath string, mtimeNs, sizeBytes int64) error
	Prune(live map[string]struct{}) (int, error)
}

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
}

// LoadWithCache discovers, diffs against cache, parses only changed files,
// and returns the combined result set classified against now.
func LoadWithCache(ctx context.Context, claudeDir string, includeSubagents bool, cache SessionCache, now time.Time, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, all, err := discover(claudeDir, includeSubagents)
	if err != nil {
		return nil, err
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{
			TotalFiles:   len(files),
			ProjectCount: source.CountProjects(all),
		},
	}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	type fileState struct{ mtime, size int64 }
	var (
		toReparse []source.DiscoveredFile
		states    []fileState
		unchanged = make(map[string]struct{})
		live      = make(map[string]struct{}, len(all))
	)
	for _, f := range all {
		live[f.Path] = struct{}{}
	}

	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			result.FileErrors++
			continue
		}

		st := fileState{info.ModTime().UnixNano(), info.Size()}
		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == st.mtime && cached.SizeBytes == st.size {
			unchanged[f.Path] = struct{}{}
		} else {
			toReparse = append(toReparse, f)
			states = append(states, st)
		}
	}

	result.CacheHits = len(unchanged)
	result.Reparsed = len(toReparse)

	if len(unchanged) > 0 {
		cached, err := cache.LoadAllSessions()
		if err != nil {
			return nil, fmt.Errorf("loading cached sessions: %w", err)
		}
		for _, s := range cached {
			if _, ok := unchanged[s.FilePath]; ok {
				result.Sessions = append(result.Sessions, source.ClassifyStatus(s, now))
			}
		}
		result.ParsedFiles += len(unchanged)
	}

	if len(toReparse) > 0 {
		parsed, err := parseAll(ctx, toReparse, result.CacheHits, result.TotalFiles, progressFn)
		if err != nil {
			return nil, err
		}

		for i, pr := range parsed {
			if pr.Err != nil {
				result.FileErrors++
				continue
			}
			result.ParsedFiles++
			result.ParseErrors += pr.ParseErrors

			st := states[i]
			if !hasActivity(pr.Record) {
				if err := cache.TrackEmpty(toReparse[i].Path, st.mtime, st.size); err != nil {
					log.Warn().Err(err).Str("file", toReparse[i].Path).Msg("cache write failed")
				}
				continue
			}

			result.Sessions = append(result.Sessions, source.ClassifyStatus(pr.Record, now))
			if err := cache.SaveSession(pr.Record, st.mtime, st.size); err != nil {
				log.Warn().Err(err).Str("file", toReparse[i].Path).Msg("cache write failed")
			}
		}
	}

	if n, err := cache.Prune(live); err != nil {
		log.Warn().Err(err).Msg("cache prune failed")
	} else if n > 0 {
		log.Debug().Int("removed", n).Msg("pruned stale cache entries")
	}

	log.Debug().Int("cache_hits", result.CacheHits).Int("reparsed", result.Reparsed).Msg("incremental load")
	logLoad(&result.LoadResult)
	return result, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "costdeck")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "costdeck")
}

// CachePath returns the full path to the session cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "sessions.db")
}
