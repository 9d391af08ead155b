package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// IsRemote reports whether a deck location names a git repository rather
// than a CSV file: a URL, an scp-style "user@host:path" remote or a path
// ending in ".git".
func IsRemote(location string) bool {
	if u, err := url.Parse(location); err == nil && isRemoteScheme(u.Scheme) {
		return true
	}
	if _, _, ok := scpRemote(location); ok {
		return true
	}
	return strings.HasSuffix(location, ".git")
}

// Checkout clones or updates the repository at remote below baseDir and
// returns the path of file inside the working tree. It fails when the
// repository does not contain file.
func Checkout(ctx context.Context, remote, baseDir, file string) (string, error) {
	if !filepath.IsLocal(file) {
		return "", fmt.Errorf("deck file %q must be a relative path inside the repository", file)
	}
	dir, err := LocalPath(baseDir, remote)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create repos directory: %w", err)
	}
	if err := Sync(ctx, remote, dir); err != nil {
		return "", err
	}

	deck := filepath.Join(dir, file)
	info, err := os.Stat(deck)
	if err != nil {
		return "", fmt.Errorf("deck file %s not found in %s: %w", file, remote, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("deck file %s in %s is a directory", file, remote)
	}
	return deck, nil
}

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does.
func Sync(ctx context.Context, remote, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return clone(ctx, remote, localPath)
	case err == nil:
		return pull(ctx, localPath)
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
}

func clone(ctx context.Context, remote, localPath string) error {
	slog.Info("Cloning deck repository", "remote", remote, "path", localPath)
	if _, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{URL: remote}); err != nil {
		// A failed clone leaves a partial directory that would be mistaken
		// for a checkout on the next run.
		os.RemoveAll(localPath)
		return fmt.Errorf("failed to clone repo %s: %w", remote, err)
	}
	return nil
}

func pull(ctx context.Context, localPath string) error {
	slog.Info("Pulling deck repository", "path", localPath)
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
	}
	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
	}
	return nil
}

// LocalPath maps a remote to its checkout directory below baseDir.
// Network remotes land in baseDir/<host>/<path>; local repositories and
// file:// URLs land in baseDir/local/<absolute path>. A trailing ".git" is
// dropped.
func LocalPath(baseDir, remote string) (string, error) {
	if remote == "" {
		return "", errors.New("empty git remote")
	}
	if host, path, ok := scpRemote(remote); ok {
		return filepath.Join(baseDir, host, strings.TrimSuffix(path, ".git")), nil
	}

	if u, err := url.Parse(remote); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		switch {
		case u.Scheme == "file":
			return localRepoPath(baseDir, u.Path)
		case isRemoteScheme(u.Scheme) && u.Host != "":
			return filepath.Join(baseDir, u.Hostname(), strings.TrimSuffix(u.Path, ".git")), nil
		default:
			return "", fmt.Errorf("could not parse git URL: %s", remote)
		}
	}
	return localRepoPath(baseDir, remote)
}

func localRepoPath(baseDir, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("could not resolve repository path %s: %w", path, err)
	}
	abs = strings.TrimPrefix(abs, filepath.VolumeName(abs))
	return filepath.Join(baseDir, "local", strings.TrimSuffix(abs, ".git")), nil
}

func isRemoteScheme(scheme string) bool {
	switch scheme {
	case "https", "http", "ssh", "git", "file":
		return true
	}
	return false
}

// scpRemote splits "user@host:path" remotes.
func scpRemote(remote string) (host, path string, ok bool) {
	if strings.Contains(remote, "://") {
		return "", "", false
	}
	userHost, path, found := strings.Cut(remote, ":")
	if !found || path == "" {
		return "", "", false
	}
	_, host, found = strings.Cut(userHost, "@")
	if !found || host == "" || strings.ContainsAny(host, `/\`) {
		return "", "", false
	}
	return host, path, true
}
