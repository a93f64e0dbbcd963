package execution

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	cp "github.com/otiai10/copy"
)

// outputsDir is the folder a job writes its exported files under.
const outputsDir = "outputs"

// lineSink receives informational and warning lines during artifact
// propagation.
type lineSink func(LogLine)

// propagateInputs copies files from the outputs folder of each
// dependency into the current job's workspace directory. With an empty
// inputs list every top-level entry is copied; otherwise the patterns
// are expanded against each dependency's outputs folder. Collisions
// across dependencies resolve first-wins; failures are reported as
// stderr lines but never abort the run.
func propagateInputs(ws *Workspace, jobName string, inputs []string, deps []string, sink lineSink) {
	if len(deps) == 0 {
		return
	}

	jobDir := ws.JobDir(jobName)
	copied := make(map[string]bool)

	for _, dep := range deps {
		srcDir := filepath.Join(ws.JobDir(dep), outputsDir)
		if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
			sink(NewLogLine(Stdout, fmt.Sprintf("No outputs found for dependency '%s', skipping", dep)))
			continue
		}

		for _, name := range selectEntries(srcDir, inputs, sink) {
			if copied[name] {
				sink(NewLogLine(Stderr, fmt.Sprintf("File '%s' already copied from another dependency, skipping from '%s'", name, dep)))
				continue
			}

			srcPath := filepath.Join(srcDir, name)
			dstPath := filepath.Join(jobDir, name)

			info, err := os.Lstat(srcPath)
			if err != nil {
				sink(NewLogLine(Stderr, fmt.Sprintf("Error reading '%s' from '%s': %v", name, dep, err)))
				continue
			}

			switch {
			case info.Mode().IsRegular():
				if err := copyFile(srcPath, dstPath); err != nil {
					sink(NewLogLine(Stderr, fmt.Sprintf("Error copying file '%s' from '%s': %v", name, dep, err)))
					continue
				}
				copied[name] = true
				sink(NewLogLine(Stdout, fmt.Sprintf("Copied file '%s' from '%s'", name, dep)))
			case info.IsDir():
				if err := cp.Copy(srcPath, dstPath); err != nil {
					sink(NewLogLine(Stderr, fmt.Sprintf("Error copying directory '%s' from '%s': %v", name, dep, err)))
					continue
				}
				copied[name] = true
				sink(NewLogLine(Stdout, fmt.Sprintf("Copied directory '%s/' from '%s'", name, dep)))
			default:
				sink(NewLogLine(Stderr, fmt.Sprintf("Skipping '%s' from '%s': not a regular file or directory", name, dep)))
			}
		}
	}

	if len(copied) > 0 {
		sink(NewLogLine(Stdout, fmt.Sprintf("Copied %d input file(s) from dependencies", len(copied))))
	}
}

// selectEntries lists the top-level names to copy from srcDir: all of
// them when patterns is empty, otherwise the glob matches.
func selectEntries(srcDir string, patterns []string, sink lineSink) []string {
	if len(patterns) == 0 {
		entries, err := os.ReadDir(srcDir)
		if err != nil {
			sink(NewLogLine(Stderr, fmt.Sprintf("Error reading outputs directory %s: %v", srcDir, err)))
			return nil
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		return names
	}

	var names []string
	seen := make(map[string]bool)
	fsys := os.DirFS(srcDir)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			sink(NewLogLine(Stderr, fmt.Sprintf("Invalid glob pattern '%s': %v", pattern, err)))
			continue
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				names = append(names, match)
			}
		}
	}
	return names
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}
