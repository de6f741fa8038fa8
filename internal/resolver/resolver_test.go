package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(opts Options) *Resolver {
	return New(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeGoMod(t *testing.T, dir, module string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module "+module+"\n"), 0o644))
}

// fakeGit records commands and simulates a clone by writing a go.mod.
type fakeGit struct {
	commands []string
	fail     map[string]bool
}

func (f *fakeGit) run(_ context.Context, _ string, name string, args ...string) error {
	cmd := name + " " + args[0]
	f.commands = append(f.commands, cmd)
	if f.fail[cmd] {
		return errors.New(cmd + " failed")
	}
	if cmd == "git clone" {
		dest := args[len(args)-1]
		if err := os.MkdirAll(filepath.Join(dest, ".git"), 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dest, "go.mod"), []byte("module cloned\n"), 0o644)
	}
	return nil
}

func TestFindModuleRootInTree_AtRoot(t *testing.T) {
	tmp := t.TempDir()
	writeGoMod(t, tmp, "test")

	got, err := findModuleRootInTree(tmp)
	require.NoError(t, err)
	assert.Equal(t, tmp, got)
}

func TestFindModuleRootInTree_InSubdirectory(t *testing.T) {
	tmp := t.TempDir()
	subdir := filepath.Join(tmp, "backend")
	writeGoMod(t, subdir, "test/backend")

	got, err := findModuleRootInTree(tmp)
	require.NoError(t, err)
	assert.Equal(t, subdir, got)
}

func TestFindModuleRootInTree_NoGoMod(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "src"), 0o755))

	_, err := findModuleRootInTree(tmp)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoModule)
}

func TestFindModuleRootInTree_SkipsHiddenDirs(t *testing.T) {
	tmp := t.TempDir()
	writeGoMod(t, filepath.Join(tmp, ".git"), "fake")
	realDir := filepath.Join(tmp, "real")
	writeGoMod(t, realDir, "real")

	got, err := findModuleRootInTree(tmp)
	require.NoError(t, err)
	assert.Equal(t, realDir, got)
}

func TestFindModuleRootInTree_PicksShallowest(t *testing.T) {
	tmp := t.TempDir()
	writeGoMod(t, filepath.Join(tmp, "a", "b"), "deep")
	writeGoMod(t, filepath.Join(tmp, "z"), "shallow")

	got, err := findModuleRootInTree(tmp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "z"), got)
}

func TestFindModuleRootInTree_SameDepthSorted(t *testing.T) {
	tmp := t.TempDir()
	writeGoMod(t, filepath.Join(tmp, "beta"), "beta")
	writeGoMod(t, filepath.Join(tmp, "alpha"), "alpha")

	got, err := findModuleRootInTree(tmp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "alpha"), got)
}

func TestFindModuleRootInTree_SkipsVendorNodeModulesAndTestdata(t *testing.T) {
	tmp := t.TempDir()
	for _, skip := range []string{"vendor", "node_modules", "testdata"} {
		writeGoMod(t, filepath.Join(tmp, skip), "skip")
	}

	_, err := findModuleRootInTree(tmp)
	assert.ErrorIs(t, err, ErrNoModule)
}

func TestFindModuleRootInTree_DepthLimit(t *testing.T) {
	tmp := t.TempDir()
	writeGoMod(t, filepath.Join(tmp, "a", "b", "c", "d"), "too-deep")

	_, err := findModuleRootInTree(tmp)
	assert.ErrorIs(t, err, ErrNoModule)
}

func TestResolve_LocalWalksUpToModuleRoot(t *testing.T) {
	tmp := t.TempDir()
	writeGoMod(t, tmp, "example.com/app")
	pkg := filepath.Join(tmp, "features", "steps")
	require.NoError(t, os.MkdirAll(pkg, 0o755))

	got, err := testResolver(Options{}).Resolve(context.Background(), pkg)
	require.NoError(t, err)
	assert.Equal(t, tmp, got)
}

func TestResolve_LocalErrors(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "steps.go")
	require.NoError(t, os.WriteFile(file, []byte("package steps\n"), 0o644))

	_, err := testResolver(Options{}).Resolve(context.Background(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")

	_, err = testResolver(Options{}).Resolve(context.Background(), filepath.Join(tmp, "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestResolve_DownloadRunsGoMod(t *testing.T) {
	tmp := t.TempDir()
	writeGoMod(t, tmp, "example.com/app")

	git := &fakeGit{}
	_, err := testResolver(Options{Download: true}).WithRunner(git.run).Resolve(context.Background(), tmp)
	require.NoError(t, err)
	assert.Equal(t, []string{"go mod"}, git.commands)
}

func TestResolve_GitHubCloneThenUpdate(t *testing.T) {
	cache := t.TempDir()
	url := "https://github.com/example/steps"
	git := &fakeGit{}
	r := testResolver(Options{CacheDir: cache}).WithRunner(git.run)

	root, err := r.Resolve(context.Background(), url)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(root, cache))
	assert.Equal(t, []string{"git clone"}, git.commands)

	again, err := r.Resolve(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, root, again)
	assert.Equal(t, []string{"git clone", "git fetch", "git reset"}, git.commands)
}

func TestResolve_GitHubRecloneOnFailedUpdate(t *testing.T) {
	cache := t.TempDir()
	url := "https://github.com/example/steps"
	git := &fakeGit{fail: map[string]bool{"git fetch": true}}
	r := testResolver(Options{CacheDir: cache}).WithRunner(git.run)

	_, err := r.Resolve(context.Background(), url)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, []string{"git clone", "git fetch", "git clone"}, git.commands)
}

func TestResolve_GitHubCloneFailure(t *testing.T) {
	git := &fakeGit{fail: map[string]bool{"git clone": true}}
	r := testResolver(Options{CacheDir: t.TempDir()}).WithRunner(git.run)

	_, err := r.Resolve(context.Background(), "https://github.com/example/steps")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git clone")
}

func TestIsGitHubURL(t *testing.T) {
	assert.True(t, IsGitHubURL("https://github.com/cucumber/godog"))
	assert.True(t, IsGitHubURL("http://github.com/cucumber/godog"))
	assert.False(t, IsGitHubURL("github.com/cucumber/godog"))
	assert.False(t, IsGitHubURL("./features"))
}

func TestCacheDirIsStable(t *testing.T) {
	r := testResolver(Options{CacheDir: "/cache"})
	a, err := r.cacheDir("https://github.com/a/b")
	require.NoError(t, err)
	b, err := r.cacheDir("https://github.com/a/b")
	require.NoError(t, err)
	c, err := r.cacheDir("https://github.com/a/c")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "/cache", filepath.Dir(a))
}
