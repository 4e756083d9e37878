package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/peratx/mpt-get/pkg/errs"
	"github.com/peratx/mpt-get/pkg/lockfile"
	"github.com/peratx/mpt-get/pkg/pkgid"
	"github.com/peratx/mpt-get/pkg/ui"
	"github.com/spf13/afero"
)

const remoteName = "origin"

// Updater owns the local working copy of the index at dir. Nothing else
// writes into that directory.
type Updater struct {
	common

	repo MirrorRepo
	dir  string
	fs   afero.Fs
	sink ui.Sink
}

func NewUpdater(repo MirrorRepo, dir string, sink ui.Sink) *Updater {
	if sink == nil {
		sink = ui.Stdio()
	}

	return &Updater{
		repo: repo,
		dir:  filepath.Clean(dir),
		fs:   afero.NewOsFs(),
		sink: sink,
	}
}

func (u *Updater) Repo() MirrorRepo {
	return u.repo
}

func (u *Updater) IndexDir() string {
	return u.dir
}

func (u *Updater) lockPath() string {
	return u.dir + ".lock"
}

// Update brings the working copy in line with the mirror. A missing directory
// is cloned; an existing one is fetched and hard reset to the remote branch,
// discarding local changes.
func (u *Updater) Update(ctx context.Context) error {
	err := os.MkdirAll(filepath.Dir(u.dir), 0755)
	if err != nil {
		return errs.IOErr(err, "cannot create %s", filepath.Dir(u.dir))
	}

	var shown bool

	release, err := lockfile.Take(ctx, u.lockPath(), func() {
		if !shown {
			fmt.Fprintf(u.sink.Info(), "Index lock detected at %s, waiting...\n", u.lockPath())
			shown = true
		}
	})
	if err != nil {
		return errs.IOErr(err, "cannot lock index")
	}

	defer release()

	_, err = os.Stat(u.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return errs.IOErr(err, "cannot stat %s", u.dir)
		}

		return u.clone(ctx)
	}

	return u.sync(ctx)
}

func (u *Updater) clone(ctx context.Context) error {
	fmt.Fprintln(u.sink.Info(), "Index folder not found.")

	u.L().Debug("cloning index", "url", u.repo.URL, "dir", u.dir)

	_, err := git.PlainCloneContext(ctx, u.dir, false, &git.CloneOptions{
		URL:        u.repo.URL,
		RemoteName: remoteName,
	})
	if err != nil {
		return errs.IndexErr(err, "cannot clone %s", u.repo.URL)
	}

	return nil
}

func (u *Updater) sync(ctx context.Context) error {
	repo, err := git.PlainOpen(u.dir)
	if err != nil {
		return errs.IndexErr(err, "cannot open index at %s", u.dir)
	}

	remote, err := repo.Remote(remoteName)
	if err != nil {
		return errs.IndexErr(err, "cannot find remote %q", remoteName)
	}

	if u.repo.Branch != FetchBranch {
		u.L().Warn("configured branch is not fetched, resetting to its last known tip",
			"branch", u.repo.Branch, "fetched", FetchBranch)
	}

	spec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s",
		plumbing.NewBranchReferenceName(FetchBranch),
		plumbing.NewRemoteReferenceName(remoteName, FetchBranch)))

	u.L().Debug("fetching index", "remote", remoteName, "refspec", spec)

	err = remote.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{spec},
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return errs.IndexErr(err, "cannot fetch %s from %s", FetchBranch, remoteName)
	}

	refName := plumbing.NewRemoteReferenceName(remoteName, u.repo.Branch)

	ref, err := repo.Reference(refName, true)
	if err != nil {
		return errs.IndexErr(err, "cannot resolve %s", refName)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errs.IndexErr(err, "cannot open worktree")
	}

	u.L().Debug("resetting index", "commit", ref.Hash().String())

	err = wt.Reset(&git.ResetOptions{
		Commit: ref.Hash(),
		Mode:   git.HardReset,
	})
	if err != nil {
		return errs.IndexErr(err, "cannot reset to %s", ref.Hash())
	}

	return nil
}

// Index parses packages.json from the working copy. It never synchronizes.
func (u *Updater) Index() (*Packages, error) {
	return LoadPackages(u.fs, filepath.Join(u.dir, PackagesFile))
}

func (u *Updater) Version(id pkgid.ID) (*PackageVersion, error) {
	return LoadVersion(u.fs, id, u.dir)
}
