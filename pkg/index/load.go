package index

import (
	"github.com/peratx/mpt-get/pkg/errs"
	"github.com/peratx/mpt-get/pkg/pkgid"
	"github.com/spf13/afero"
)

func readFile(fs afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errs.IOErr(err, "cannot open %s", path)
	}

	return data, nil
}

func LoadPackages(fs afero.Fs, path string) (*Packages, error) {
	data, err := readFile(fs, path)
	if err != nil {
		return nil, err
	}

	return ParsePackages(data)
}

// LoadVersion reads and parses the package.json for id below indexRoot.
func LoadVersion(fs afero.Fs, id pkgid.ID, indexRoot string) (*PackageVersion, error) {
	data, err := readFile(fs, id.PackagePath(indexRoot))
	if err != nil {
		return nil, err
	}

	return ParseVersion(data)
}
