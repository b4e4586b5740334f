// Package git detects the provider's source revision so verification runs can
// be recorded against the code that was verified. It uses the go-git library
// and never shells out to the git CLI.
package git

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// ErrNotRepository is returned when no repository encloses the path.
var ErrNotRepository = errors.New("not a git repository")

// Version identifies the provider revision under test.
type Version struct {
	// Commit is the full HEAD hash.
	Commit string
	// Branch is empty in detached HEAD state.
	Branch string
	// Dirty is true when the worktree has uncommitted changes.
	Dirty bool
}

// Short returns the abbreviated commit hash, suffixed with "-dirty" when the
// worktree has local changes.
func (v Version) Short() string {
	short := v.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	if v.Dirty {
		short += "-dirty"
	}
	return short
}

// openRepo opens a git repository at the specified path or current working directory.
// It uses go-git's PlainOpenWithOptions with DetectDotGit enabled to traverse
// up the directory tree to find the repository root.
// If path is empty, the current working directory is used.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotRepository)
		}
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	logDebug("[git] repository opened successfully")
	return repo, nil
}

// DetectVersion returns the HEAD revision of the repository enclosing path
// (the current directory when path is empty).
func DetectVersion(path string) (Version, error) {
	repo, err := openRepo(path)
	if err != nil {
		return Version{}, err
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Version{}, fmt.Errorf("repository has no commits: %w", err)
		}
		return Version{}, fmt.Errorf("getting HEAD reference: %w", err)
	}

	v := Version{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		v.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree and cannot be dirty.
		logDebug("[git] no worktree: %v", err)
		return v, nil
	}
	status, err := wt.Status()
	if err != nil {
		return v, fmt.Errorf("getting worktree status: %w", err)
	}
	v.Dirty = !status.IsClean()

	logDebug("[git] detected %s on %q", v.Short(), v.Branch)
	return v, nil
}
