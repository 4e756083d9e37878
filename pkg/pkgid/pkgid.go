// Package pkgid implements the "domain:name" identifiers used as keys in the
// package index.
package pkgid

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/peratx/mpt-get/pkg/errs"
)

var idRe = regexp.MustCompile(`^([\w.\-]+):([\w.\-]+)$`)

// PackageFile is the per-package version document inside the index.
const PackageFile = "package.json"

// ID identifies a package. The zero value is not a valid ID.
type ID struct {
	Domain string
	Name   string
}

func Parse(s string) (ID, error) {
	m := idRe.FindStringSubmatch(s)
	if m == nil {
		return ID{}, errs.ParseErr(nil, "invalid pid")
	}

	return ID{Domain: m[1], Name: m[2]}, nil
}

func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return id
}

func (id ID) String() string {
	return id.Domain + ":" + id.Name
}

// PathSegment maps the ID to a slash separated relative path, one directory
// per domain segment followed by the name. net.mamoe:mirai-console becomes
// net/mamoe/mirai-console.
func (id ID) PathSegment() string {
	return strings.ReplaceAll(id.Domain, ".", "/") + "/" + id.Name
}

// PackagePath is the location of the ID's package.json under an index root.
func (id ID) PackagePath(indexRoot string) string {
	return filepath.Join(indexRoot, filepath.FromSlash(id.PathSegment()), PackageFile)
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}

	*id = v
	return nil
}
