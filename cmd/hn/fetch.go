package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"hiesenoether/interpreter-go/pkg/driver"
)

// sourceFetcher materialises git sources under <home>/git, one directory per
// repository and resolved commit. Checkouts are reused across runs.
type sourceFetcher struct {
	cacheDir string
	logger   *slog.Logger
}

func newSourceFetcher(home string, logger *slog.Logger) *sourceFetcher {
	return &sourceFetcher{
		cacheDir: filepath.Join(home, "git"),
		logger:   logger.With("component", "fetch"),
	}
}

// Fetch returns the checkout directory and the commit it holds.
func (f *sourceFetcher) Fetch(ctx context.Context, src *driver.SourceSpec) (string, string, error) {
	if src == nil {
		return "", "", errors.New("fetch: no source given")
	}
	url := strings.TrimSpace(src.Git)
	if url == "" {
		return "", "", errors.New("fetch: git URL required")
	}
	baseDir := filepath.Join(f.cacheDir, sanitizePathSegment(url))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", fmt.Errorf("fetch: %w", err)
	}

	if rev := strings.TrimSpace(src.Rev); rev != "" {
		existing := filepath.Join(baseDir, sanitizePathSegment(rev))
		if _, err := os.Stat(existing); err == nil {
			f.logger.Debug("checkout reused", "url", url, "rev", rev, "dir", existing)
			return existing, rev, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "fetch-*")
	if err != nil {
		return "", "", fmt.Errorf("fetch: %w", err)
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", fmt.Errorf("fetch: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	repo, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		cleanup()
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	revision := plumbing.Revision(src.Revision())
	if revision == "" {
		revision = plumbing.Revision(plumbing.HEAD)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		cleanup()
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	commit := hash.String()

	targetDir := filepath.Join(baseDir, sanitizePathSegment(commit))
	if _, err := os.Stat(targetDir); err == nil {
		cleanup()
		f.logger.Debug("checkout reused", "url", url, "commit", commit, "dir", targetDir)
		return targetDir, commit, nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		cleanup()
		return "", "", fmt.Errorf("fetch: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		cleanup()
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		cleanup()
		return "", "", fmt.Errorf("fetch: %w", err)
	}
	f.logger.Debug("checkout created", "url", url, "revision", string(revision), "commit", commit, "dir", targetDir)
	return targetDir, commit, nil
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
