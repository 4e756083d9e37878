package index

import (
	"bytes"
	"encoding/json"

	"github.com/peratx/mpt-get/pkg/errs"
	"github.com/peratx/mpt-get/pkg/pkgid"
	"github.com/xlab/treeprint"
)

// ChannelPriority is the order channels are consulted in by Best.
var ChannelPriority = []string{"stable", "nightly", "beta"}

// PackageVersion is a parsed package.json: channel name to the versions
// published in it, both kept in document order.
type PackageVersion struct {
	order    []string
	channels map[string][]string
}

type Selection struct {
	Channel string
	Version string
}

func (s Selection) String() string {
	return s.Version + " (" + s.Channel + ")"
}

func ParseVersion(data []byte) (*PackageVersion, error) {
	var doc map[string]json.RawMessage

	err := json.Unmarshal(data, &doc)
	if err != nil || doc == nil {
		return nil, errs.ParseErr(err, "failed to parse %s", pkgid.PackageFile)
	}

	raw, ok := doc["channels"]
	if !ok {
		return nil, errs.ParseErr(nil, `failed to parse %s: missing "channels" field`, pkgid.PackageFile)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if delim, ok := tok.(json.Delim); err != nil || !ok || delim != '{' {
		return nil, errs.ParseErr(nil, `failed to parse %s: expected "channels" is an object`, pkgid.PackageFile)
	}

	pv := &PackageVersion{
		channels: make(map[string][]string),
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errs.ParseErr(err, "failed to parse %s", pkgid.PackageFile)
		}

		name := tok.(string)

		var val interface{}

		err = dec.Decode(&val)
		if err != nil {
			return nil, errs.ParseErr(err, "failed to parse %s", pkgid.PackageFile)
		}

		arr, ok := val.([]interface{})
		if !ok {
			pv.remove(name)
			continue
		}

		versions := []string{}

		for _, v := range arr {
			if s, ok := v.(string); ok {
				versions = append(versions, s)
			}
		}

		pv.set(name, versions)
	}

	return pv, nil
}

func (p *PackageVersion) set(name string, versions []string) {
	if _, ok := p.channels[name]; !ok {
		p.order = append(p.order, name)
	}

	p.channels[name] = versions
}

func (p *PackageVersion) remove(name string) {
	if _, ok := p.channels[name]; !ok {
		return
	}

	delete(p.channels, name)

	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Channels returns the channel names in document order.
func (p *PackageVersion) Channels() []string {
	return append([]string(nil), p.order...)
}

func (p *PackageVersion) Versions(channel string) ([]string, bool) {
	v, ok := p.channels[channel]
	return v, ok
}

// Best walks ChannelPriority and returns the last version of the first
// channel that has any. ok is false when no prioritized channel has a
// version.
func (p *PackageVersion) Best() (sel Selection, ok bool) {
	for _, ch := range ChannelPriority {
		vs := p.channels[ch]
		if len(vs) == 0 {
			continue
		}

		return Selection{Channel: ch, Version: vs[len(vs)-1]}, true
	}

	return Selection{}, false
}

// Has reports whether version is published in any channel.
func (p *PackageVersion) Has(version string) bool {
	for _, vs := range p.channels {
		for _, v := range vs {
			if v == version {
				return true
			}
		}
	}

	return false
}

// Tree renders every channel and version under root, in stored order.
func (p *PackageVersion) Tree(root string) string {
	tree := treeprint.New()
	tree.SetValue(root)

	for _, ch := range p.order {
		branch := tree.AddBranch(ch)

		for _, v := range p.channels[ch] {
			branch.AddNode(v)
		}
	}

	return tree.String()
}
