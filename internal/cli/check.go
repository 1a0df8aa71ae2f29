package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/beacon-labs/beacon-installer/internal/branding"
	"github.com/beacon-labs/beacon-installer/internal/config"
	"github.com/beacon-labs/beacon-installer/internal/installer"
	"github.com/beacon-labs/beacon-installer/internal/rules"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newCheckCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show which rules apply to the project",
		Long: `Validate the settings file and report, for every rule in evaluation order,
whether its marker paths exist in the project root and how many installed
packages stage a payload for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, o)
		},
	}
}

func runCheck(cmd *cobra.Command, o *rootOptions) error {
	out := cmd.OutOrStdout()
	st := newStyles(out, o.noColor)

	p, err := o.loadProject()
	var invalid *config.InvalidError
	if errors.As(err, &invalid) {
		fmt.Fprintf(out, "%s %s\n", st.fail.Render("✗"), invalid.Path)
		for _, issue := range invalid.Issues {
			fmt.Fprintf(out, "    %s\n", issue)
		}
		return errors.New("settings file is invalid")
	}
	if err != nil {
		return err
	}

	settingsPath := p.cfg.Path()
	if !p.cfg.Exists() {
		settingsPath += st.subtle.Render(" (not found, using defaults)")
	}
	fmt.Fprintf(out, "%s %s\n", st.header.Render("Settings:"), settingsPath)
	fmt.Fprintf(out, "%s %s\n", st.header.Render("Vendor:  "), p.repo.VendorDir())

	disabled, err := p.disableSource().Disabled()
	if err != nil {
		return err
	}
	if disabled {
		fmt.Fprintf(out, "%s %s\n", st.warn.Render("!"), "Installer is disabled; install will do nothing.")
	}

	pkgs, err := p.repo.ListPackages()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %d installed\n\n", st.header.Render("Packages:"), len(pkgs))

	fsys := afero.NewOsFs()
	fmt.Fprintln(out, st.header.Render("Rules:"))
	for _, rule := range p.settings.Rules {
		_, missing, err := rule.Eligible(fsys, p.root)
		if err != nil {
			return err
		}

		staged, err := countPayloads(fsys, rule, pkgs, p.repo)
		if err != nil {
			return err
		}

		printRuleStatus(out, st, rule, missing, staged)
	}
	return nil
}

// countPayloads returns how many of pkgs the rule accepts and would copy
// something from.
func countPayloads(fsys afero.Fs, rule rules.Rule, pkgs []installer.Package, paths installer.PathResolver) (int, error) {
	n := 0
	for _, pkg := range pkgs {
		ok, err := rule.Accepts(pkg.Type, pkg.Version)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", rule.Type, err)
		}
		if !ok {
			continue
		}
		path, err := paths.InstallPath(pkg)
		if err != nil {
			continue
		}
		if hasPayload(fsys, rule, path) {
			n++
		}
	}
	return n, nil
}

// hasPayload reports whether the package installed at path ships anything
// the rule would copy.
func hasPayload(fsys afero.Fs, rule rules.Rule, path string) bool {
	if len(rule.Paths) == 0 {
		ok, _ := afero.DirExists(fsys, filepath.Join(path, branding.StagingDir(), rule.Type))
		return ok
	}
	for _, p := range rule.Paths {
		if ok, _ := afero.DirExists(fsys, filepath.Join(path, filepath.FromSlash(p))); ok {
			return true
		}
	}
	return false
}

func printRuleStatus(w io.Writer, st *styles, rule rules.Rule, missing []string, staged int) {
	payloads := st.subtle.Render(fmt.Sprintf("(%d package(s) with payload)", staged))

	switch {
	case rule.Mode() == rules.MatchPackageType:
		fmt.Fprintf(w, "  %s %s  applies to packages of type %s %s\n",
			st.ok.Render("✓"), st.name.Render(rule.Type), rule.Type, payloads)
	case len(missing) == 0:
		fmt.Fprintf(w, "  %s %s  eligible %s\n", st.ok.Render("✓"), st.name.Render(rule.Type), payloads)
	default:
		fmt.Fprintf(w, "  %s %s  missing: %s %s\n",
			st.fail.Render("✗"), st.name.Render(rule.Type), strings.Join(missing, ", "), payloads)
	}
	if len(rule.Paths) > 0 {
		fmt.Fprintf(w, "      copies %s\n", strings.Join(rule.Paths, ", "))
	}
	if rule.Constraint != "" {
		fmt.Fprintf(w, "      version %s\n", rule.Constraint)
	}
}
