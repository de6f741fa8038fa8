// Package resolver turns a command-line input (a local path or a GitHub URL)
// into the root directory of a Go module.
package resolver

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoModule is returned when no go.mod can be found for an input.
var ErrNoModule = errors.New("no go.mod found")

// maxSearchDepth bounds the go.mod search inside cloned repositories.
const maxSearchDepth = 3

var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
}

// Options configures a Resolver.
type Options struct {
	CacheDir string // clone cache, default ~/.cache/stepdefs/repos
	Download bool   // run "go mod download" in the resolved module
}

// Runner executes an external command in dir.
type Runner func(ctx context.Context, dir, name string, args ...string) error

// Resolver resolves inputs to module roots.
type Resolver struct {
	opts   Options
	run    Runner
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Resolver {
	return &Resolver{
		opts:   opts,
		run:    execRunner,
		logger: logger.With("component", "resolver"),
	}
}

// WithRunner replaces the command runner, for tests.
func (r *Resolver) WithRunner(run Runner) *Resolver {
	r.run = run
	return r
}

// Resolve returns the module root for input.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, error) {
	var (
		root string
		err  error
	)
	if IsGitHubURL(input) {
		root, err = r.fetch(ctx, input)
	} else {
		root, err = r.local(input)
	}
	if err != nil {
		return "", err
	}

	if r.opts.Download {
		r.logger.Debug("running go mod download", "dir", root)
		if err := r.run(ctx, root, "go", "mod", "download"); err != nil {
			r.logger.Warn("go mod download failed", "error", err)
		}
	}
	return root, nil
}

func (r *Resolver) local(input string) (string, error) {
	absPath, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", absPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", absPath)
	}

	root, err := findModuleRoot(absPath)
	if err != nil {
		return "", err
	}
	r.logger.Info("resolved local directory", "input", input, "module_root", root)
	return root, nil
}

// fetch updates a cached clone of url, cloning afresh when the cache is
// missing or cannot be updated.
func (r *Resolver) fetch(ctx context.Context, url string) (string, error) {
	dir, err := r.cacheDir(url)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		r.logger.Info("updating cached repository", "url", url, "dir", dir)
		if err := r.update(ctx, dir); err != nil {
			r.logger.Warn("update failed, will re-clone", "error", err)
			_ = os.RemoveAll(dir)
			if err := r.clone(ctx, url, dir); err != nil {
				return "", err
			}
		}
	} else if err := r.clone(ctx, url, dir); err != nil {
		return "", err
	}

	root, err := findModuleRootInTree(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", url, err)
	}
	r.logger.Info("found module root", "module_root", root)
	return root, nil
}

func (r *Resolver) update(ctx context.Context, dir string) error {
	if err := r.run(ctx, dir, "git", "fetch", "--depth=1", "origin"); err != nil {
		return fmt.Errorf("git fetch: %w", err)
	}
	if err := r.run(ctx, dir, "git", "reset", "--hard", "origin/HEAD"); err != nil {
		return fmt.Errorf("git reset: %w", err)
	}
	return nil
}

func (r *Resolver) clone(ctx context.Context, url, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	r.logger.Info("cloning repository", "url", url, "dest", dir)
	if err := r.run(ctx, "", "git", "clone", "--depth=1", url, dir); err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("git clone: %w", err)
	}
	return nil
}

// cacheDir returns a stable directory for caching a clone of url:
// <cache>/<first 8 bytes of sha256(url)>.
func (r *Resolver) cacheDir(url string) (string, error) {
	base := r.opts.CacheDir
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home dir: %w", err)
		}
		base = filepath.Join(home, ".cache", "stepdefs", "repos")
	}
	h := sha256.Sum256([]byte(url))
	return filepath.Join(base, fmt.Sprintf("%x", h[:8])), nil
}

// IsGitHubURL reports whether input should be cloned rather than read locally.
func IsGitHubURL(input string) bool {
	return strings.Contains(input, "github.com") &&
		(strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"))
}

// findModuleRoot walks up from dir to the nearest directory with a go.mod.
func findModuleRoot(dir string) (string, error) {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("%w in %s or any parent directory", ErrNoModule, dir)
		}
		current = parent
	}
}

// findModuleRootInTree searches root breadth-first, up to maxSearchDepth
// levels, for the shallowest go.mod. Directories at the same depth are
// visited in name order; hidden, vendor, node_modules and testdata
// directories are skipped.
func findModuleRootInTree(root string) (string, error) {
	level := []string{root}
	for depth := 0; depth <= maxSearchDepth && len(level) > 0; depth++ {
		var next []string
		for _, dir := range level {
			if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
				return dir, nil
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			for _, e := range entries {
				name := e.Name()
				if !e.IsDir() || strings.HasPrefix(name, ".") || skipDirs[name] {
					continue
				}
				next = append(next, filepath.Join(dir, name))
			}
		}
		sort.Strings(next)
		level = next
	}
	return "", fmt.Errorf("%w in %s or its subdirectories", ErrNoModule, root)
}

func execRunner(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
