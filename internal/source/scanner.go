package source

import (
	"os"
	"path/filepath"
	"strings"
)

// ScanDir walks <claudeDir>/projects and discovers all JSONL session files,
// both main sessions and subagent sessions.
func ScanDir(claudeDir string) ([]DiscoveredFile, error) {
	projectsDir := filepath.Join(claudeDir, "projects")

	info, err := os.Stat(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(projectsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}

		rel, _ := filepath.Rel(projectsDir, path)
		parts := strings.Split(rel, string(filepath.Separator))
		if len(parts) < 2 {
			return nil
		}

		name := strings.TrimSuffix(d.Name(), ".jsonl")
		df := DiscoveredFile{
			Path:       path,
			Project:    decodeProjectName(parts[0]),
			ProjectDir: parts[0],
			SessionID:  name,
		}

		// <project>/<session-uuid>/subagents/agent-<id>.jsonl
		if len(parts) >= 4 && parts[2] == "subagents" {
			df.IsSubagent = true
			df.ParentSession = parts[1]
			df.SessionID = parts[1] + "/" + name
		}

		files = append(files, df)
		return nil
	})

	return files, err
}

// knownParents are directory names that commonly precede a project name.
var knownParents = map[string]bool{
	"projects": true, "repos": true, "src": true,
	"code": true, "workspace": true, "dev": true,
}

// decodeProjectName extracts a readable project name from the encoded
// directory name. Claude Code replaces "/" with "-" in absolute paths:
//
//	"-Users-alice-projects-gitlore"       -> "gitlore"
//	"-Users-alice-projects-my-cool-thing" -> "my-cool-thing"
func decodeProjectName(dirName string) string {
	parts := strings.Split(dirName, "-")

	for i := len(parts) - 2; i >= 0; i-- {
		if knownParents[strings.ToLower(parts[i])] {
			if name := strings.Join(parts[i+1:], "-"); name != "" {
				return name
			}
		}
	}

	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}

	return dirName
}

// CountProjects returns the number of unique projects in a set of discovered files.
func CountProjects(files []DiscoveredFile) int {
	seen := make(map[string]struct{})
	for _, f := range files {
		seen[f.Project] = struct{}{}
	}
	return len(seen)
}
