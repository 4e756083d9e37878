package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mitchellh/go-homedir"
	"github.com/peratx/mpt-get/pkg/cleanhttp"
	"github.com/peratx/mpt-get/pkg/download"
	"github.com/peratx/mpt-get/pkg/index"
	"github.com/peratx/mpt-get/pkg/ui"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/host"
	"gopkg.in/yaml.v3"
)

const Version = "0.1.0"

type Config struct {
	path string

	MirrorRepo   string `json:"mirror-repo" yaml:"mirror-repo"`
	MirrorBranch string `json:"mirror-branch" yaml:"mirror-branch"`
	SourceRepo   string `json:"source-repo" yaml:"source-repo"`
	IndexPath    string `json:"index-path" yaml:"index-path"`
	PackagePath  string `json:"package-path" yaml:"package-path"`
	Proxy        string `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Suffix       string `json:"suffix" yaml:"suffix"`
}

const (
	DefaultConfigPath     = "~/.mpt-get/config.json"
	DefaultYAMLConfigPath = "~/.mpt-get/config.yaml"
	DefaultIndexPath      = "~/.mpt-get/index"
	DefaultPackagePath    = "~/.mpt-get/packages"
)

// LoadConfig reads the configuration file named by MPT_GET_CONFIG, or the
// first of DefaultConfigPath and DefaultYAMLConfigPath that exists, falling
// back to defaults. Environment overrides are applied last.
func LoadConfig() (*Config, error) {
	if loc := os.Getenv("MPT_GET_CONFIG"); loc != "" {
		return loadFile(loc)
	}

	for _, p := range []string{DefaultConfigPath, DefaultYAMLConfigPath} {
		path, err := homedir.Expand(p)
		if err != nil {
			return nil, err
		}

		if _, err := os.Stat(path); err == nil {
			return loadFile(path)
		}
	}

	return finish(&Config{})
}

func loadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	var cfg Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&cfg)
	default:
		err = json.NewDecoder(f).Decode(&cfg)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode config %s", path)
	}

	cfg.path = path

	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	updateFromEnv(cfg)

	var err error

	for _, p := range []*string{&cfg.IndexPath, &cfg.PackagePath} {
		*p, err = homedir.Expand(*p)
		if err != nil {
			return nil, err
		}
	}

	err = cfg.Validate()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid configuration")
	}

	return ensureDirs(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.MirrorRepo == "" {
		cfg.MirrorRepo = index.DefaultMirrorURL
	}

	if cfg.MirrorBranch == "" {
		cfg.MirrorBranch = index.DefaultBranch
	}

	if cfg.SourceRepo == "" {
		cfg.SourceRepo = download.DefaultSourceRepo
	}

	if cfg.IndexPath == "" {
		cfg.IndexPath = DefaultIndexPath
	}

	if cfg.PackagePath == "" {
		cfg.PackagePath = DefaultPackagePath
	}

	if cfg.Suffix == "" {
		cfg.Suffix = download.DefaultSuffix
	}
}

func updateFromEnv(cfg *Config) {
	vars := []struct {
		name string
		dest *string
	}{
		{"MPT_GET_MIRROR", &cfg.MirrorRepo},
		{"MPT_GET_BRANCH", &cfg.MirrorBranch},
		{"MPT_GET_SOURCE", &cfg.SourceRepo},
		{"MPT_GET_INDEX", &cfg.IndexPath},
		{"MPT_GET_PACKAGES", &cfg.PackagePath},
		{"MPT_GET_PROXY", &cfg.Proxy},
	}

	for _, v := range vars {
		if val := os.Getenv(v.name); val != "" {
			*v.dest = val
		}
	}
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MirrorRepo, validation.Required),
		validation.Field(&c.MirrorBranch, validation.Required),
		validation.Field(&c.SourceRepo, validation.Required, is.URL),
		validation.Field(&c.IndexPath, validation.Required),
		validation.Field(&c.PackagePath, validation.Required),
		validation.Field(&c.Proxy, is.URL),
	)
}

// ensureDirs creates the package directory and the index's parent. The index
// directory itself is left alone; the updater clones into it when missing.
func ensureDirs(cfg *Config) (*Config, error) {
	dirs := []string{
		cfg.PackagePath,
		filepath.Dir(cfg.IndexPath),
	}

	for _, dir := range dirs {
		fi, err := os.Stat(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}

			err = os.MkdirAll(dir, 0755)
			if err != nil {
				return nil, err
			}
		} else if !fi.IsDir() {
			return nil, fmt.Errorf("path is not a directory: %s", dir)
		}
	}

	return cfg, nil
}

// File is the configuration file that was loaded, empty when running on
// defaults.
func (c *Config) File() string {
	return c.path
}

func (c *Config) Mirror() index.MirrorRepo {
	return index.NewMirrorRepo(c.MirrorRepo, c.MirrorBranch)
}

func (c *Config) Updater(sink ui.Sink) *index.Updater {
	return index.NewUpdater(c.Mirror(), c.IndexPath, sink)
}

func (c *Config) HTTPClient() (*http.Client, error) {
	return cleanhttp.NewClient(c.Proxy)
}

func (c *Config) Downloader() (*download.Downloader, error) {
	client, err := c.HTTPClient()
	if err != nil {
		return nil, err
	}

	d := download.New(c.SourceRepo, c.PackagePath)
	d.Suffix = c.Suffix
	d.Client = client
	d.UserAgent = UserAgent()

	return d, nil
}

// Platform reports the host OS name, version and architecture.
func Platform() (string, string, string) {
	osName, _, osVersion, err := host.PlatformInformation()
	if err != nil || osName == "" {
		osName, osVersion = runtime.GOOS, ""
	}

	arch, err := host.KernelArch()
	if err != nil || arch == "" {
		arch = runtime.GOARCH
	}

	return osName, osVersion, arch
}

func UserAgent() string {
	osName, osVersion, arch := Platform()

	platform := strings.TrimSpace(osName + " " + osVersion)

	return fmt.Sprintf("mpt-get/%s (%s; %s)", Version, platform, arch)
}
