package index

import (
	"path/filepath"
	"testing"

	"github.com/peratx/mpt-get/pkg/errs"
	"github.com/peratx/mpt-get/pkg/pkgid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const packagesJSON = `{"net.mamoe:mirai-console": {
	"name": "Mirai Console",
	"description": "Mirai Console backend",
	"channels": ["stable", "nightly", "beta"],
	"website": "https://github.com/mamoe/mirai-console"
}}`

func TestParsePackages(t *testing.T) {
	t.Run("parses entries", func(t *testing.T) {
		pkgs, err := ParsePackages([]byte(packagesJSON))
		require.NoError(t, err)

		require.Equal(t, 1, pkgs.Len())

		ent, ok := pkgs.Lookup(pkgid.ID{Domain: "net.mamoe", Name: "mirai-console"})
		require.True(t, ok)

		assert.Equal(t, PackageEntry{
			Name:        "Mirai Console",
			Description: "Mirai Console backend",
			Channels:    []string{"stable", "nightly", "beta"},
			Website:     "https://github.com/mamoe/mirai-console",
		}, ent)

		assert.Empty(t, pkgs.Skipped())
	})

	t.Run("drops malformed entries", func(t *testing.T) {
		valid := `"a.b:c": {"name": "c", "description": "", "channels": [], "website": ""}`

		for _, bad := range []string{
			`"not a pid": {"name": "x", "description": "", "channels": [], "website": ""}`,
			`"a.b:missing": {"name": "x", "channels": [], "website": ""}`,
			`"a.b:typed": {"name": 1, "description": "", "channels": [], "website": ""}`,
			`"a.b:channels": {"name": "x", "description": "", "channels": [1], "website": ""}`,
			`"a.b:nullchannel": {"name": "x", "description": "", "channels": [null], "website": ""}`,
			`"a.b:nullname": {"name": null, "description": "", "channels": [], "website": ""}`,
			`"a.b:scalar": "nope"`,
			`"a.b:null": null`,
		} {
			pkgs, err := ParsePackages([]byte("{" + valid + "," + bad + "}"))
			require.NoError(t, err, bad)

			assert.Equal(t, 1, pkgs.Len(), bad)
			assert.Len(t, pkgs.Skipped(), 1, bad)

			_, ok := pkgs.Lookup(pkgid.MustParse("a.b:c"))
			assert.True(t, ok)
		}
	})

	t.Run("rejects a non-object document", func(t *testing.T) {
		for _, doc := range []string{`[]`, `"x"`, `null`, `1`, `{`, ``} {
			_, err := ParsePackages([]byte(doc))
			require.Error(t, err, doc)

			assert.True(t, errs.Is(err, errs.Parse), doc)
			assert.Contains(t, err.Error(), "failed to parse packages.json")
		}
	})

	t.Run("pretty prints in id order", func(t *testing.T) {
		pkgs, err := ParsePackages([]byte(`{
			"z.z:last": {"name": "Last", "description": "d", "channels": ["beta"], "website": "w"},
			"a.a:first": {"name": "First", "description": "d", "channels": ["stable", "beta"], "website": "w"}
		}`))
		require.NoError(t, err)

		expected := "a.a:first:\n" +
			"    name: First\n" +
			"    description: d\n" +
			"    channels: [\"stable\", \"beta\"]\n" +
			"    website: w\n\n" +
			"z.z:last:\n" +
			"    name: Last\n" +
			"    description: d\n" +
			"    channels: [\"beta\"]\n" +
			"    website: w\n\n"

		assert.Equal(t, expected, pkgs.PrettyPrint())
	})
}

func TestLoadPackages(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("/index", PackagesFile)

	err := afero.WriteFile(fs, path, []byte(packagesJSON), 0644)
	require.NoError(t, err)

	pkgs, err := LoadPackages(fs, path)
	require.NoError(t, err)
	assert.Equal(t, 1, pkgs.Len())

	_, err = LoadPackages(fs, "/elsewhere/packages.json")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.IO))
}
