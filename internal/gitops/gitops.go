package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies who commits workspace changes.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Repo is a workspace git repository.
type Repo struct {
	Dir    string
	Author Author
}

// Init initializes a new git repository at dir.
func Init(ctx context.Context, dir string, author Author) (*Repo, error) {
	cmd := exec.CommandContext(ctx, "git", "init", "--quiet")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("git init: %s: %w", out, err)
	}
	return &Repo{Dir: dir, Author: author}, nil
}

// Open returns the repository at dir, or false if dir is not one.
func Open(dir string, author Author) (*Repo, bool) {
	if !IsRepo(dir) {
		return nil, false
	}
	return &Repo{Dir: dir, Author: author}, true
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Dirty reports whether the working tree has uncommitted changes.
func (r *Repo) Dirty(ctx context.Context) (bool, error) {
	out, err := r.git(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitAll stages all files and creates a commit. Returns the short commit
// hash, or "" when there was nothing to commit.
func (r *Repo) CommitAll(ctx context.Context, message string) (string, error) {
	dirty, err := r.Dirty(ctx)
	if err != nil {
		return "", err
	}
	if !dirty {
		return "", nil
	}

	if _, err := r.git(ctx, "add", "-A"); err != nil {
		return "", err
	}
	if _, err := r.git(ctx, "commit", "--quiet", "-m", message, "--author", r.Author.String()); err != nil {
		return "", err
	}

	out, err := r.git(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	// The author doubles as committer so commits work without a global git identity.
	cmd.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+r.Author.Name,
		"GIT_COMMITTER_EMAIL="+r.Author.Email,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}
