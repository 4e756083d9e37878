package index

const (
	DefaultMirrorURL = "https://gitee.com/peratx/mirai-repo.git"
	DefaultBranch    = "master"

	// FetchBranch is the branch requested from the remote on every update,
	// independent of MirrorRepo.Branch.
	FetchBranch = "master"
)

// MirrorRepo is the remote git repository the local index tracks.
type MirrorRepo struct {
	URL    string
	Branch string
}

func NewMirrorRepo(url, branch string) MirrorRepo {
	if branch == "" {
		branch = DefaultBranch
	}

	return MirrorRepo{URL: url, Branch: branch}
}

func DefaultMirrorRepo() MirrorRepo {
	return NewMirrorRepo(DefaultMirrorURL, DefaultBranch)
}
