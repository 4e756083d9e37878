package index

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/peratx/mpt-get/pkg/errs"
	"github.com/peratx/mpt-get/pkg/lockfile"
	"github.com/peratx/mpt-get/pkg/pkgid"
	"github.com/peratx/mpt-get/pkg/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Serve local repositories in process rather than through git-upload-pack.
	client.InstallProtocol("file", server.DefaultServer)
}

const packageJSONv1 = `{"channels": {"stable": ["1.9.6", "1.9.7", "1.9.8"]}}`
const packageJSONv2 = `{"channels": {"stable": ["1.9.6", "1.9.7", "1.9.8", "2.0.0"]}}`

func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string) {
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))

		err := os.MkdirAll(filepath.Dir(path), 0755)
		require.NoError(t, err)

		err = os.WriteFile(path, []byte(content), 0644)
		require.NoError(t, err)

		_, err = wt.Add(name)
		require.NoError(t, err)
	}

	_, err = wt.Commit("update index", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "index",
			Email: "index@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
}

// newMirror creates a repository to stand in for the remote index and
// returns the URL to clone it from.
func newMirror(t *testing.T) (*git.Repository, string, string) {
	dir := filepath.Join(t.TempDir(), "mirror")

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	// PlainInit leaves .git/config unwritten and the server loader needs it.
	cfg, err := repo.Config()
	require.NoError(t, err)
	require.NoError(t, repo.SetConfig(cfg))

	commitFiles(t, repo, dir, map[string]string{
		"packages.json":                        packagesJSON,
		"net/mamoe/mirai-console/package.json": packageJSONv1,
	})

	return repo, dir, filepath.Join(dir, ".git")
}

func TestUpdater(t *testing.T) {
	ctx := context.Background()
	id := pkgid.MustParse("net.mamoe:mirai-console")

	t.Run("clones when the index is absent", func(t *testing.T) {
		_, _, url := newMirror(t)

		dir := filepath.Join(t.TempDir(), "data", "index")

		var out ui.Buffer

		u := NewUpdater(NewMirrorRepo(url, ""), dir, &out)

		err := u.Update(ctx)
		require.NoError(t, err)

		assert.Contains(t, out.InfoBuf.String(), "Index folder not found.")

		pkgs, err := u.Index()
		require.NoError(t, err)

		assert.Equal(t, 1, pkgs.Len())

		pv, err := u.Version(id)
		require.NoError(t, err)

		sel, ok := pv.Best()
		require.True(t, ok)
		assert.Equal(t, "1.9.8", sel.Version)

		_, err = os.Stat(dir + ".lock")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("fetches and hard resets an existing index", func(t *testing.T) {
		mirror, mirrorDir, url := newMirror(t)

		dir := filepath.Join(t.TempDir(), "index")

		u := NewUpdater(NewMirrorRepo(url, "master"), dir, ui.Discard())

		err := u.Update(ctx)
		require.NoError(t, err)

		commitFiles(t, mirror, mirrorDir, map[string]string{
			"net/mamoe/mirai-console/package.json": packageJSONv2,
		})

		err = os.WriteFile(filepath.Join(dir, PackagesFile), []byte("local edits"), 0644)
		require.NoError(t, err)

		var out ui.Buffer
		u = NewUpdater(NewMirrorRepo(url, "master"), dir, &out)

		err = u.Update(ctx)
		require.NoError(t, err)

		assert.NotContains(t, out.InfoBuf.String(), "Index folder not found.")

		data, err := os.ReadFile(filepath.Join(dir, PackagesFile))
		require.NoError(t, err)
		assert.Equal(t, packagesJSON, string(data))

		pv, err := u.Version(id)
		require.NoError(t, err)

		sel, ok := pv.Best()
		require.True(t, ok)
		assert.Equal(t, "2.0.0", sel.Version)
	})

	t.Run("fetches master but resets to the configured branch", func(t *testing.T) {
		_, _, url := newMirror(t)

		dir := filepath.Join(t.TempDir(), "index")

		u := NewUpdater(NewMirrorRepo(url, "dev"), dir, ui.Discard())

		err := u.Update(ctx)
		require.NoError(t, err)

		err = u.Update(ctx)
		require.Error(t, err)

		assert.True(t, errs.Is(err, errs.Index))
		assert.Contains(t, err.Error(), "refs/remotes/origin/dev")
	})

	t.Run("replaces a lock left by a dead process", func(t *testing.T) {
		_, _, url := newMirror(t)

		dir := filepath.Join(t.TempDir(), "index")
		require.NoError(t, os.WriteFile(dir+".lock", []byte("4194305\n"), 0644))

		tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		var out ui.Buffer

		u := NewUpdater(NewMirrorRepo(url, ""), dir, &out)

		err := u.Update(tctx)
		require.NoError(t, err)

		assert.NotContains(t, out.InfoBuf.String(), "Index lock detected")

		_, err = os.Stat(dir + ".lock")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("names the lock while waiting on a live process", func(t *testing.T) {
		lockfile.PollInterval = 10 * time.Millisecond

		dir := filepath.Join(t.TempDir(), "index")
		require.NoError(t, os.WriteFile(dir+".lock", []byte(strconv.Itoa(os.Getpid())), 0644))

		tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		var out ui.Buffer

		u := NewUpdater(DefaultMirrorRepo(), dir, &out)

		err := u.Update(tctx)
		require.Error(t, err)

		assert.Equal(t, "Index lock detected at "+dir+".lock, waiting...\n", out.InfoBuf.String())
	})

	t.Run("fails without an origin remote", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "index")

		_, err := git.PlainInit(dir, false)
		require.NoError(t, err)

		u := NewUpdater(DefaultMirrorRepo(), dir, ui.Discard())

		err = u.Update(ctx)
		require.Error(t, err)

		assert.True(t, errs.Is(err, errs.Index))
	})

	t.Run("fails when the directory is not a repository", func(t *testing.T) {
		dir := t.TempDir()

		u := NewUpdater(DefaultMirrorRepo(), dir, ui.Discard())

		err := u.Update(ctx)
		require.Error(t, err)

		assert.True(t, errs.Is(err, errs.Index))
	})

	t.Run("fails when the mirror is unreachable", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "missing", ".git")
		dir := filepath.Join(t.TempDir(), "index")

		u := NewUpdater(NewMirrorRepo(missing, ""), dir, ui.Discard())

		err := u.Update(ctx)
		require.Error(t, err)

		assert.True(t, errs.Is(err, errs.Index))
	})

	t.Run("index does not synchronize", func(t *testing.T) {
		u := NewUpdater(DefaultMirrorRepo(), filepath.Join(t.TempDir(), "index"), ui.Discard())

		_, err := u.Index()
		require.Error(t, err)

		assert.True(t, errs.Is(err, errs.IO))
	})
}
