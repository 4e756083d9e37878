package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/peratx/mpt-get/pkg/cleanhttp"
	"github.com/peratx/mpt-get/pkg/errs"
	"github.com/peratx/mpt-get/pkg/pkgid"
	"github.com/peratx/mpt-get/pkg/progress"
)

const (
	DefaultSourceRepo = "https://maven.aliyun.com/repository/public"
	DefaultSuffix     = ".jar"
)

const chunkSize = 32 * 1024

// BuildURL composes {repo}/{pathSegment}/{version}/{name}-{version}{suffix}.
// Nothing is escaped.
func BuildURL(repo string, id pkgid.ID, version, suffix string) string {
	return fmt.Sprintf("%s/%s/%s/%s-%s%s",
		repo,
		id.PathSegment(),
		version,
		id.Name, version, suffix)
}

// Downloader fetches artifacts from a source repository. Each Download call
// is independent.
type Downloader struct {
	common

	SourceRepo  string
	PackagePath string
	Suffix      string
	UserAgent   string

	Client *http.Client
}

func New(sourceRepo, packagePath string) *Downloader {
	return &Downloader{
		SourceRepo:  sourceRepo,
		PackagePath: packagePath,
		Suffix:      DefaultSuffix,
		Client:      cleanhttp.DefaultClient,
	}
}

func (d *Downloader) URL(id pkgid.ID, version string) string {
	return BuildURL(d.SourceRepo, id, version, d.Suffix)
}

// CheckVersion rejects versions that would leave their directory once
// joined into a URL or a file path.
func CheckVersion(version string) error {
	switch {
	case version == "":
		return errs.ParseErr(nil, "empty version")
	case strings.ContainsAny(version, `/\`), strings.Contains(version, ".."):
		return errs.ParseErr(nil, "invalid version %q", version)
	}

	return nil
}

// OutputPath is where an artifact is stored below PackagePath by default.
func (d *Downloader) OutputPath(id pkgid.ID, version string) (string, error) {
	err := CheckVersion(version)
	if err != nil {
		return "", err
	}

	out := filepath.Join(
		d.PackagePath,
		filepath.FromSlash(id.PathSegment()),
		id.Name+"-"+version+d.Suffix)

	rel, err := filepath.Rel(d.PackagePath, out)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errs.ParseErr(err, "%s escapes %s", out, d.PackagePath)
	}

	return out, nil
}

// Download streams the artifact for id at version into output, reporting to
// obs as chunks arrive. It returns the number of bytes written. A failed
// download may leave a truncated file behind.
func (d *Downloader) Download(ctx context.Context, id pkgid.ID, version, output string, obs progress.Observer) (int64, error) {
	if obs == nil {
		obs = progress.Nop{}
	}

	err := CheckVersion(version)
	if err != nil {
		return 0, err
	}

	url := d.URL(id, version)

	L := d.L().With("url", url, "output", output)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, errs.IOErr(err, "cannot request %s", url)
	}

	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	client := d.Client
	if client == nil {
		client = cleanhttp.DefaultClient
	}

	L.Debug("requesting artifact")

	resp, err := client.Do(req)
	if err != nil {
		return 0, errs.IOErr(err, "cannot download %s", url)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, errs.IOErr(nil, "cannot download %s: %s", url, resp.Status)
	}

	err = os.MkdirAll(filepath.Dir(output), 0755)
	if err != nil {
		return 0, errs.IOErr(err, "cannot create %s", filepath.Dir(output))
	}

	f, err := os.Create(output)
	if err != nil {
		return 0, errs.IOErr(err, "cannot create %s", output)
	}

	defer f.Close()

	total := resp.ContentLength

	L.Debug("receiving artifact", "size", total)

	obs.Ready()

	var (
		received int64
		buf      = make([]byte, chunkSize)
	)

	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			_, err = f.Write(buf[:n])
			if err != nil {
				return received, errs.IOErr(err, "cannot write %s", output)
			}

			received += int64(n)
			obs.Update(progress.Step(received, total), received, total)
		}

		if rerr == io.EOF {
			break
		}

		if rerr != nil {
			return received, errs.IOErr(rerr, "cannot download %s", url)
		}
	}

	err = f.Close()
	if err != nil {
		return received, errs.IOErr(err, "cannot write %s", output)
	}

	L.Debug("artifact downloaded", "bytes", received)

	return received, nil
}
