package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stagehand/internal/logging"
)

// IntermediateDirName is the directory under the run output that holds the
// outputs of every stage except the last.
const IntermediateDirName = "intermediate"

// IntermediateRoot returns <outputDir>/intermediate.
func IntermediateRoot(outputDir string) string {
	return filepath.Join(outputDir, IntermediateDirName)
}

// IntermediatePath returns the deterministic scratch directory for a stage.
func IntermediatePath(outputDir, stageName string) string {
	return filepath.Join(IntermediateRoot(outputDir), stageName)
}

// CleanResult contains the outcome of an intermediate directory cleanup.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes intermediate directories older than maxAge.
func CleanStale(ctx context.Context, outputDir string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	cutoff := time.Now().Add(-maxAge)
	return sweep(ctx, outputDir, logger, "stale", func(_ string, info os.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	})
}

// CleanOrphaned removes intermediate directories that belong to no staged stage.
func CleanOrphaned(ctx context.Context, outputDir string, staged []string, logger *slog.Logger) CleanResult {
	keep := make(map[string]struct{}, len(staged))
	for _, name := range staged {
		keep[name] = struct{}{}
	}
	return sweep(ctx, outputDir, logger, "orphaned", func(name string, _ os.FileInfo) bool {
		_, ok := keep[name]
		return !ok
	})
}

func sweep(ctx context.Context, outputDir string, logger *slog.Logger, reason string, remove func(string, os.FileInfo) bool) CleanResult {
	result := CleanResult{}
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return result
	}
	logger = logging.WithContext(ctx, logger)

	root := IntermediateRoot(outputDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !remove(entry.Name(), info) {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			logger.Warn("failed to remove intermediate directory",
				logging.String("path", dirPath),
				logging.String("reason", reason),
				logging.Error(err),
				logging.String(logging.FieldEventType, "intermediate_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check output_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		logger.Info("removed intermediate directory",
			logging.String("path", dirPath),
			logging.String("reason", reason),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "intermediate_cleanup"),
		)
	}
	return result
}

// DirInfo contains metadata about an intermediate directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListDirectories returns the intermediate directories under outputDir.
func ListDirectories(outputDir string) ([]DirInfo, error) {
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return nil, nil
	}
	root := IntermediateRoot(outputDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(root, entry.Name())
		size, _ := dirSize(dirPath)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}
	return dirs, nil
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
