package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/cli"
	"github.com/olekukonko/tablewriter"
	"github.com/peratx/mpt-get/pkg/cmd"
	"github.com/peratx/mpt-get/pkg/config"
	"github.com/peratx/mpt-get/pkg/humanize"
	"github.com/peratx/mpt-get/pkg/index"
	"github.com/peratx/mpt-get/pkg/pkgid"
	"github.com/peratx/mpt-get/pkg/progress"
	"github.com/peratx/mpt-get/pkg/ui"
	"github.com/pkg/errors"
)

func main() {
	setupLogger()

	c := cli.NewCLI("mpt-get", config.Version)
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"update": func() (cli.Command, error) {
			return cmd.New(
				"update",
				"Update index from remote server",
				updateF,
			), nil
		},
		"list": func() (cli.Command, error) {
			return cmd.New(
				"list",
				"List all packages",
				listF,
			), nil
		},
		"show": func() (cli.Command, error) {
			return cmd.New(
				"show",
				"Show information about a package",
				showF,
			), nil
		},
		"info": func() (cli.Command, error) {
			return cmd.New(
				"info",
				"Show information about a package (alias of show)",
				showF,
			), nil
		},
		"install": func() (cli.Command, error) {
			return cmd.New(
				"install",
				"Download a package artifact",
				installF,
			), nil
		},
		"env": func() (cli.Command, error) {
			return cmd.New(
				"env",
				"Output configuration and environment information",
				envF,
			), nil
		},
		"debug": func() (cli.Command, error) {
			return cmd.New(
				"debug",
				"Debug various things",
				debugF,
			), nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}

func setupLogger() {
	level := hclog.LevelFromString(os.Getenv("MPT_GET_LOG"))
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	hclog.SetDefault(hclog.New(&hclog.LoggerOptions{
		Name:   "mpt-get",
		Level:  level,
		Output: os.Stderr,
	}))
}

func startSpinner(label string) func() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return func() {}
	}

	sp := spinner.New(spinner.CharSets[11], 120*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " " + label
	sp.Start()

	return sp.Stop
}

func logSkipped(pkgs *index.Packages) {
	for _, err := range pkgs.Skipped() {
		hclog.L().Debug("skipped index entry", "reason", err)
	}
}

func updateF(ctx context.Context, opts struct{}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	sink := ui.Get(ctx)

	stop := startSpinner("Updating index")
	err = cfg.Updater(sink).Update(ctx)
	stop()

	if err != nil {
		return err
	}

	fmt.Fprintln(sink.Info(), "Done. Use mpt-get list to get all indexed packages.")

	return nil
}

func listF(ctx context.Context, opts struct {
	Table bool `short:"t" long:"table" description:"output packages as a table"`
}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	sink := ui.Get(ctx)

	pkgs, err := cfg.Updater(sink).Index()
	if err != nil {
		return err
	}

	logSkipped(pkgs)

	if !opts.Table {
		fmt.Fprint(sink.Info(), pkgs.PrettyPrint())
		return nil
	}

	table := tablewriter.NewWriter(sink.Info())
	table.SetHeader([]string{"ID", "Name", "Channels", "Website"})

	for _, id := range pkgs.IDs() {
		ent, _ := pkgs.Lookup(id)
		table.Append([]string{id.String(), ent.Name, strings.Join(ent.Channels, ","), ent.Website})
	}

	table.Render()

	return nil
}

func showF(ctx context.Context, opts struct {
	All bool `short:"a" long:"all" description:"list every version in every channel"`

	Pos struct {
		Package string `positional-arg-name:"PKG" required:"yes"`
	} `positional-args:"yes"`
}) error {
	id, err := pkgid.Parse(opts.Pos.Package)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	sink := ui.Get(ctx)
	u := cfg.Updater(sink)

	pkgs, err := u.Index()
	if err != nil {
		return err
	}

	logSkipped(pkgs)

	ent, ok := pkgs.Lookup(id)
	if !ok {
		return errors.Errorf("package %s not found in index, try mpt-get update", id)
	}

	pv, err := u.Version(id)
	if err != nil {
		return err
	}

	indented := strings.ReplaceAll(ent.PrettyPrint(), "\n", "\n    ")
	fmt.Fprintf(sink.Info(), "%s:\n    %s\n", id, indented)

	if opts.All {
		fmt.Fprint(sink.Info(), pv.Tree("versions"))
		return nil
	}

	if sel, ok := pv.Best(); ok {
		fmt.Fprintf(sink.Info(), "    version: %s\n", sel)
	} else {
		fmt.Fprintf(sink.Info(), "    version: no resolvable version\n")
	}

	return nil
}

func installF(ctx context.Context, opts struct {
	Suffix string `long:"suffix" description:"artifact suffix, for example -all.jar"`
	Output string `short:"o" long:"output" description:"write the artifact to this file"`
	Quiet  bool   `short:"q" long:"quiet" description:"do not show progress"`
	JSON   bool   `long:"json" description:"report progress as JSON lines on stdout"`
	Bar    bool   `long:"bar" description:"show a byte counting progress bar"`

	Pos struct {
		Package string `positional-arg-name:"PKG" required:"yes"`
		Version string `positional-arg-name:"VERSION"`
	} `positional-args:"yes"`
}) error {
	id, err := pkgid.Parse(opts.Pos.Package)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	sink := ui.Get(ctx)

	d, err := cfg.Downloader()
	if err != nil {
		return err
	}

	if opts.Suffix != "" {
		d.Suffix = opts.Suffix
	}

	version := opts.Pos.Version

	if version == "" {
		pv, err := cfg.Updater(sink).Version(id)
		if err != nil {
			return err
		}

		sel, ok := pv.Best()
		if !ok {
			return errors.Errorf("no resolvable version for %s", id)
		}

		fmt.Fprintf(sink.Info(), "Selected %s\n", sel)

		version = sel.Version
	} else if pv, err := cfg.Updater(sink).Version(id); err == nil && !pv.Has(version) {
		hclog.L().Warn("version is not listed in the index", "id", id.String(), "version", version)
	}

	output := opts.Output
	if output == "" {
		output, err = d.OutputPath(id, version)
		if err != nil {
			return err
		}
	}

	obs := progress.From(ctx)

	switch {
	case opts.JSON:
		obs = progress.NewJSON(os.Stdout)
	case opts.Quiet:
		obs = progress.Nop{}
	case opts.Bar:
		obs = progress.NewBar(os.Stderr, id.String())
	}

	if !opts.JSON {
		fmt.Fprintf(sink.Info(), "Downloading %s\n", d.URL(id, version))
	}

	n, err := d.Download(ctx, id, version, output, obs)

	if _, ok := obs.(*progress.Terminal); ok {
		fmt.Fprintln(os.Stderr)
	}

	if err != nil {
		return err
	}

	if !opts.JSON {
		fmt.Fprintf(sink.Info(), "Saved %s (%s)\n", output, humanize.Format(n))
	}

	return nil
}

func envF(ctx context.Context, opts struct{}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	w := ui.Get(ctx).Info()

	file := cfg.File()
	if file == "" {
		file = "(defaults)"
	}

	osName, osVersion, arch := config.Platform()

	fmt.Fprintf(w, "Config File: %s\n", file)
	fmt.Fprintf(w, "Mirror Repo: %s (%s)\n", cfg.MirrorRepo, cfg.MirrorBranch)
	fmt.Fprintf(w, "Source Repo: %s\n", cfg.SourceRepo)
	fmt.Fprintf(w, "Index Path: %s\n", cfg.IndexPath)
	fmt.Fprintf(w, "Package Path: %s\n", cfg.PackagePath)

	if cfg.Proxy != "" {
		fmt.Fprintf(w, "Proxy: %s\n", cfg.Proxy)
	}

	fmt.Fprintf(w, "Platform: %s %s (%s)\n", osName, osVersion, arch)

	return nil
}

func debugF(ctx context.Context, opts struct {
	Config  bool   `short:"c" long:"config" description:"dump the loaded configuration"`
	Package string `short:"p" long:"package" description:"dump the parsed versions of a package"`
	Index   bool   `short:"i" long:"index" description:"show entries skipped while parsing the index"`
	Trace   bool   `long:"trace" description:"log in trace mode"`
}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	level := hclog.Debug

	if opts.Trace {
		level = hclog.Trace
	}

	L := hclog.New(&hclog.LoggerOptions{
		Name:  "mpt-get-debug",
		Level: level,
	})

	sink := ui.Get(ctx)

	u := cfg.Updater(sink)
	u.SetLogger(L)

	L.Debug("mirror", "url", u.Repo().URL, "branch", u.Repo().Branch, "index", u.IndexDir())

	if opts.Config {
		spew.Fdump(sink.Info(), cfg)
	}

	if opts.Index {
		pkgs, err := u.Index()
		if err != nil {
			return err
		}

		L.Info("index parsed", "entries", pkgs.Len(), "skipped", len(pkgs.Skipped()))

		for _, err := range pkgs.Skipped() {
			fmt.Fprintln(sink.Info(), err)
		}
	}

	if opts.Package != "" {
		id, err := pkgid.Parse(opts.Package)
		if err != nil {
			return err
		}

		L.Debug("reading package", "path", id.PackagePath(u.IndexDir()))

		pv, err := u.Version(id)
		if err != nil {
			return err
		}

		spew.Fdump(sink.Info(), pv)

		sel, ok := pv.Best()
		L.Info("resolution", "id", id.String(), "selection", sel.String(), "resolvable", ok)
	}

	return nil
}
