package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/beacon-labs/beacon-installer/internal/rules"
	"github.com/beacon-labs/beacon-installer/internal/tree"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Options configures an Installer.
type Options struct {
	// ProjectRoot is the directory payloads are merged into. Required.
	ProjectRoot string
	// Rules are evaluated in order. Defaults to rules.Defaults().
	Rules rules.Set
	// Packages and Paths are required.
	Packages PackageLister
	Paths    PathResolver
	// Config may be nil, in which case the installer is never disabled.
	Config ConfigSource
	// StagingDir defaults to DefaultStagingDir.
	StagingDir string
	// SkipCleanup keeps staging directories after the run.
	SkipCleanup bool
	// DryRun sends every write to an in-memory overlay and skips cleanup.
	DryRun bool

	Fs     afero.Fs       // defaults to the OS filesystem
	Logger zerolog.Logger // zero value logs nothing
	Out    io.Writer      // progress lines; defaults to io.Discard
	// Highlight decorates package names and paths in progress lines.
	Highlight func(string) string
}

// Installer runs the scaffold pass for one project.
type Installer struct {
	opts    Options
	fs      afero.Fs
	log     zerolog.Logger
	out     io.Writer
	hl      func(string) string
	merger  *tree.Merger
	remover *tree.Remover
}

// New validates opts and returns an Installer.
func New(opts Options) (*Installer, error) {
	if opts.ProjectRoot == "" {
		return nil, errors.New("project root is required")
	}
	if opts.Packages == nil || opts.Paths == nil {
		return nil, errors.New("package lister and path resolver are required")
	}
	if opts.Rules == nil {
		opts.Rules = rules.Defaults()
	}
	if err := opts.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	if opts.StagingDir == "" {
		opts.StagingDir = DefaultStagingDir
	}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if opts.DryRun {
		fsys = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(fsys), afero.NewMemMapFs())
	}

	i := &Installer{
		opts: opts,
		fs:   fsys,
		log:  opts.Logger,
		out:  opts.Out,
		hl:   opts.Highlight,
	}
	if i.out == nil {
		i.out = io.Discard
	}
	if i.hl == nil {
		i.hl = func(s string) string { return s }
	}

	i.merger = tree.NewMerger(fsys, i.log)
	i.merger.OnCreate(i.progress)
	i.remover = tree.NewRemover(fsys, i.log)
	return i, nil
}

// Run performs one pass. It fails only when the disable flag or the package
// list cannot be read, or when ctx is cancelled; per-package failures are
// recorded in the report and processing moves on.
func (i *Installer) Run(ctx context.Context) (*Report, error) {
	report := &Report{DryRun: i.opts.DryRun}

	if i.opts.Config != nil {
		disabled, err := i.opts.Config.Disabled()
		if err != nil {
			return nil, fmt.Errorf("reading disable flag: %w", err)
		}
		if disabled {
			report.Disabled = true
			i.log.Info().Msg("installer disabled by configuration")
			fmt.Fprintln(i.out, "Beacon Installer was disabled")
			return report, nil
		}
	}

	pkgs, err := i.opts.Packages.ListPackages()
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	i.log.Debug().Int("packages", len(pkgs)).Int("rules", len(i.opts.Rules)).Msg("starting scaffold pass")

	// Staging directories to clean up, in first-visit order.
	var visited []Cleanup
	visitedSet := make(map[string]bool)
	failed := make(map[string]bool)

	for _, rule := range i.opts.Rules {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rr := i.checkRule(rule)
		report.Rules = append(report.Rules, rr)
		if !rr.Eligible {
			continue
		}

		// Names are deduplicated per rule only: a package that matches two
		// rules is merged once for each.
		seen := make(map[string]bool)
		for _, pkg := range pkgs {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if seen[pkg.Name] {
				continue
			}
			seen[pkg.Name] = true

			outcome, installPath := i.installPackage(rule, pkg)
			report.Outcomes = append(report.Outcomes, outcome)
			if outcome.Err != nil {
				failed[pkg.Name] = true
			}

			if installPath != "" && !visitedSet[pkg.Name] {
				visitedSet[pkg.Name] = true
				visited = append(visited, Cleanup{
					Package: pkg.Name,
					Path:    filepath.Join(installPath, i.opts.StagingDir),
				})
			}
		}
	}

	if i.opts.SkipCleanup || i.opts.DryRun {
		i.log.Debug().Int("packages", len(visited)).Msg("cleanup skipped")
		return report, nil
	}

	for _, c := range visited {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if failed[c.Package] {
			c.Kept = true
			i.log.Warn().Str("package", c.Package).Str("path", c.Path).Msg("keeping staging directory after failed merge")
			report.Cleanups = append(report.Cleanups, c)
			continue
		}
		if err := i.remover.Remove(c.Path); err != nil {
			c.Err = &PackageError{Package: c.Package, Op: "cleaning up", Err: err}
			i.log.Warn().Err(err).Str("package", c.Package).Str("path", c.Path).Msg("cleanup incomplete")
		}
		report.Cleanups = append(report.Cleanups, c)
	}

	return report, nil
}

func (i *Installer) checkRule(rule rules.Rule) RuleResult {
	rr := RuleResult{Rule: rule.Type}
	eligible, missing, err := rule.Eligible(i.fs, i.opts.ProjectRoot)
	if err != nil {
		rr.Err = fmt.Errorf("%s: %w", rule.Type, err)
		i.log.Error().Err(err).Str("rule", rule.Type).Msg("checking rule markers")
		return rr
	}
	rr.Missing = missing
	rr.Eligible = eligible

	i.log.Debug().Str("rule", rule.Type).Bool("eligible", rr.Eligible).Strs("missing", missing).Msg("rule checked")
	return rr
}

// installPackage merges one package's payload for rule. The returned install
// path is empty when the package was not accepted or could not be resolved.
func (i *Installer) installPackage(rule rules.Rule, pkg Package) (Outcome, string) {
	outcome := Outcome{Rule: rule.Type, Package: pkg.Name}
	log := i.log.With().Str("rule", rule.Type).Str("package", pkg.Name).Logger()

	accepted, err := rule.Accepts(pkg.Type, pkg.Version)
	if err != nil {
		outcome.Err = &PackageError{Rule: rule.Type, Package: pkg.Name, Op: "matching", Err: err}
		log.Error().Err(err).Msg("matching package")
		return outcome, ""
	}
	if !accepted {
		outcome.Skipped = SkipNotAccepted
		return outcome, ""
	}

	installPath, err := i.opts.Paths.InstallPath(pkg)
	if err != nil {
		outcome.Err = &PackageError{Rule: rule.Type, Package: pkg.Name, Op: "resolving", Err: err}
		log.Error().Err(err).Msg("resolving install path")
		return outcome, ""
	}

	if len(rule.Paths) > 0 {
		outcome.Source = installPath
		i.mergePaths(rule, pkg, installPath, &outcome, log)
		return outcome, installPath
	}

	src := filepath.Join(installPath, i.opts.StagingDir, rule.Type)
	outcome.Source = src
	ok, err := afero.DirExists(i.fs, src)
	if err != nil {
		outcome.Err = &PackageError{Rule: rule.Type, Package: pkg.Name, Op: "reading", Err: err}
		log.Error().Err(err).Msg("checking payload")
		return outcome, installPath
	}
	if !ok {
		outcome.Skipped = SkipNoPayload
		log.Trace().Str("source", src).Msg("no payload")
		return outcome, installPath
	}

	res, err := i.merger.Merge(src, i.opts.ProjectRoot)
	outcome.Changed = res.Copied
	outcome.Files = res.Files
	outcome.Dirs = res.Dirs
	if err != nil {
		outcome.Err = &PackageError{Rule: rule.Type, Package: pkg.Name, Op: "merging", Err: err}
		log.Error().Err(err).Int("files", len(res.Files)).Msg("merge incomplete")
	}
	i.installed(pkg, outcome, log)
	return outcome, installPath
}

// mergePaths copies each of the rule's paths from the package root to the
// same path under the project root. Paths the package does not ship are
// skipped; the first failure stops the package.
func (i *Installer) mergePaths(rule rules.Rule, pkg Package, installPath string, outcome *Outcome, log zerolog.Logger) {
	found := false
	for _, p := range rule.Paths {
		rel := filepath.FromSlash(p)
		src := filepath.Join(installPath, rel)
		ok, err := afero.DirExists(i.fs, src)
		if err != nil {
			outcome.Err = &PackageError{Rule: rule.Type, Package: pkg.Name, Op: "reading", Err: err}
			log.Error().Err(err).Str("path", p).Msg("checking payload")
			break
		}
		if !ok {
			log.Trace().Str("source", src).Msg("no payload")
			continue
		}
		found = true

		dst := filepath.Join(i.opts.ProjectRoot, rel)
		if err := i.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			outcome.Err = &PackageError{Rule: rule.Type, Package: pkg.Name, Op: "merging", Err: err}
			log.Error().Err(err).Str("path", p).Msg("creating parent directories")
			break
		}
		res, err := i.merger.Merge(src, dst)
		outcome.Changed = outcome.Changed || res.Copied
		for _, f := range res.Files {
			outcome.Files = append(outcome.Files, filepath.Join(rel, f))
		}
		for _, d := range res.Dirs {
			outcome.Dirs = append(outcome.Dirs, filepath.Join(rel, d))
		}
		if err != nil {
			outcome.Err = &PackageError{Rule: rule.Type, Package: pkg.Name, Op: "merging", Err: err}
			log.Error().Err(err).Str("path", p).Int("files", len(res.Files)).Msg("merge incomplete")
			break
		}
	}
	if !found && outcome.Err == nil {
		outcome.Skipped = SkipNoPayload
	}
	i.installed(pkg, *outcome, log)
}

func (i *Installer) installed(pkg Package, outcome Outcome, log zerolog.Logger) {
	if !outcome.Changed {
		return
	}
	fmt.Fprintf(i.out, "- Installing %s\n", i.hl(pkg.Name))
	log.Info().Int("files", len(outcome.Files)).Int("dirs", len(outcome.Dirs)).Msg("installed scaffold")
}

func (i *Installer) progress(dir bool, target string) {
	if dir {
		fmt.Fprintf(i.out, "- Add Dir %s\n", i.hl(target))
		return
	}
	fmt.Fprintf(i.out, "- Add File %s\n", i.hl(target))
}
