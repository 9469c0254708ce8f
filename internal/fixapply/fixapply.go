// Package fixapply turns a diagnostics.FixInfo into an actual edit on disk,
// with rollback support when a later step in a larger fix attempt fails.
package fixapply

import (
	"fmt"
	"os"
	"sort"

	"github.com/bazelment/selfheal/internal/diagnostics"
)

// Config tunes how fixes are applied to a project rooted at RootDir.
type Config struct {
	RootDir       string
	CreateBackups bool
	DryRun        bool
}

// NewConfig returns a Config rooted at rootDir, defaulting to the current
// directory when rootDir is empty.
func NewConfig(rootDir string) Config {
	if rootDir == "" {
		rootDir = "."
	}
	return Config{RootDir: rootDir}
}

// WithDryRun returns a copy of c with DryRun set.
func (c Config) WithDryRun(v bool) Config {
	c.DryRun = v
	return c
}

// WithBackups returns a copy of c with CreateBackups set.
func (c Config) WithBackups(v bool) Config {
	c.CreateBackups = v
	return c
}

// Result is the outcome of applying one fix.
type Result struct {
	Success         bool
	ModifiedFiles   []string
	Description     string
	Err             error
	originalContent map[string]string
}

func success(files []string, description string) *Result {
	return &Result{Success: true, ModifiedFiles: files, Description: description}
}

func successWithRollback(files []string, description string, original map[string]string) *Result {
	return &Result{Success: true, ModifiedFiles: files, Description: description, originalContent: original}
}

func failure(err error) *Result {
	return &Result{Success: false, Err: err}
}

// Rollback restores every file this fix modified to its pre-fix content. It
// walks every tracked file, continuing through failures and returning only
// the first error encountered, rather than stopping at the first broken
// write — a half-restored fix is worse than a fully-reported one.
func (r *Result) Rollback() error {
	if len(r.originalContent) == 0 {
		return nil
	}
	paths := make([]string, 0, len(r.originalContent))
	for path := range r.originalContent {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var firstErr error
	for _, path := range paths {
		if err := os.WriteFile(path, []byte(r.originalContent[path]), 0o644); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("rollback %s: %w", path, err)
		}
	}
	return firstErr
}

// ApplyFix dispatches info to the handler for its FixType.
func ApplyFix(info diagnostics.FixInfo, config Config) *Result {
	switch info.FixType {
	case diagnostics.FixAddDependency:
		return applyAddDependencyFix(info, config)
	case diagnostics.FixAddImport:
		return applyAddImportFix(info, config)
	case diagnostics.FixFixType:
		return applyTypeFix(info, config)
	case diagnostics.FixSyntax:
		return applySyntaxFix(info, config)
	default:
		return failure(fmt.Errorf("unsupported fix type: %v", info.FixType))
	}
}
