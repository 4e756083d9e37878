package index

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/peratx/mpt-get/pkg/errs"
	"github.com/peratx/mpt-get/pkg/pkgid"
)

const PackagesFile = "packages.json"

type PackageEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Channels    []string `json:"channels"`
	Website     string   `json:"website"`
}

// All fields are required; pointers let us tell missing from empty.
type rawEntry struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Channels    *[]*string `json:"channels"`
	Website     *string    `json:"website"`
}

func decodeEntry(data []byte) (PackageEntry, error) {
	var re rawEntry

	err := json.Unmarshal(data, &re)
	if err != nil {
		return PackageEntry{}, err
	}

	var missing []string

	if re.Name == nil {
		missing = append(missing, "name")
	}

	if re.Description == nil {
		missing = append(missing, "description")
	}

	if re.Channels == nil {
		missing = append(missing, "channels")
	}

	if re.Website == nil {
		missing = append(missing, "website")
	}

	if len(missing) > 0 {
		return PackageEntry{}, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	channels := make([]string, 0, len(*re.Channels))

	for i, c := range *re.Channels {
		if c == nil {
			return PackageEntry{}, fmt.Errorf("channels[%d]: expected a string, got null", i)
		}

		channels = append(channels, *c)
	}

	return PackageEntry{
		Name:        *re.Name,
		Description: *re.Description,
		Channels:    channels,
		Website:     *re.Website,
	}, nil
}

func (e PackageEntry) PrettyPrint() string {
	quoted := make([]string, len(e.Channels))
	for i, c := range e.Channels {
		quoted[i] = fmt.Sprintf("%q", c)
	}

	return fmt.Sprintf("name: %s\ndescription: %s\nchannels: [%s]\nwebsite: %s",
		e.Name, e.Description, strings.Join(quoted, ", "), e.Website)
}

// Packages is the parsed packages.json. Entries whose key or value do not
// parse are left out; the reasons are kept in Skipped.
type Packages struct {
	entries map[pkgid.ID]PackageEntry
	skipped *multierror.Error
}

func ParsePackages(data []byte) (*Packages, error) {
	var doc map[string]json.RawMessage

	err := json.Unmarshal(data, &doc)
	if err != nil || doc == nil {
		return nil, errs.ParseErr(err, "failed to parse %s", PackagesFile)
	}

	p := &Packages{
		entries: make(map[pkgid.ID]PackageEntry, len(doc)),
	}

	for key, val := range doc {
		id, err := pkgid.Parse(key)
		if err != nil {
			p.skipped = multierror.Append(p.skipped, fmt.Errorf("entry %q: invalid pid", key))
			continue
		}

		ent, err := decodeEntry(val)
		if err != nil {
			p.skipped = multierror.Append(p.skipped, fmt.Errorf("entry %q: %s", key, err))
			continue
		}

		p.entries[id] = ent
	}

	return p, nil
}

func (p *Packages) Len() int {
	return len(p.entries)
}

func (p *Packages) Lookup(id pkgid.ID) (PackageEntry, bool) {
	ent, ok := p.entries[id]
	return ent, ok
}

// IDs returns every package id ordered by its string form.
func (p *Packages) IDs() []pkgid.ID {
	ids := make([]pkgid.ID, 0, len(p.entries))

	for id := range p.entries {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	return ids
}

func (p *Packages) Skipped() []error {
	if p.skipped == nil {
		return nil
	}

	return p.skipped.Errors
}

func (p *Packages) PrettyPrint() string {
	var sb strings.Builder

	for _, id := range p.IDs() {
		indented := strings.ReplaceAll(p.entries[id].PrettyPrint(), "\n", "\n    ")
		fmt.Fprintf(&sb, "%s:\n    %s\n\n", id, indented)
	}

	return sb.String()
}
