package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/beacon-labs/beacon-installer/internal/branding"
	"github.com/beacon-labs/beacon-installer/internal/installer"
	"github.com/beacon-labs/beacon-installer/internal/logging"
	"github.com/spf13/cobra"
)

// lifecycleEvents are the Composer script events the installer runs on.
var lifecycleEvents = []string{"post-install-cmd", "post-update-cmd"}

type installOptions struct {
	dryRun    bool
	noCleanup bool
}

func newInstallCmd(o *rootOptions) *cobra.Command {
	opts := &installOptions{}
	cmd := &cobra.Command{
		Use:   "install [post-install-cmd|post-update-cmd]",
		Short: "Merge package scaffolds into the project",
		Long: `Merge the scaffold payloads of installed packages into the project root.

For every rule whose marker paths exist in the project, each package's
` + branding.StagingDir() + `/<type>/ directory is copied into the project. Files that already
exist are left untouched. Afterwards each visited package's ` + branding.StagingDir() + `
directory is removed.

Wire it into composer.json so it runs after every install and update:

  "scripts": {
    "post-install-cmd": ["` + branding.CLIName() + ` install post-install-cmd"],
    "post-update-cmd": ["` + branding.CLIName() + ` install post-update-cmd"]
  }`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), validEvent),
		ValidArgs: lifecycleEvents,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, o, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Show what would be copied without writing anything")
	cmd.Flags().BoolVar(&opts.noCleanup, "no-cleanup", false, "Keep staging directories after the merge")
	return cmd
}

func validEvent(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || slices.Contains(lifecycleEvents, args[0]) {
		return nil
	}
	return fmt.Errorf("unsupported event %q (expected one of: %s)", args[0], strings.Join(lifecycleEvents, ", "))
}

func runInstall(cmd *cobra.Command, o *rootOptions, opts *installOptions) error {
	p, err := o.loadProject()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := newStyles(out, o.noColor)
	log := logging.Component("installer")

	inst, err := installer.New(installer.Options{
		ProjectRoot: p.root,
		Rules:       p.settings.Rules,
		Packages:    p.repo,
		Paths:       p.repo,
		Config:      p.disableSource(),
		StagingDir:  branding.StagingDir(),
		SkipCleanup: opts.noCleanup || !p.settings.Cleanup,
		DryRun:      opts.dryRun,
		Logger:      log,
		Out:         out,
		Highlight:   func(s string) string { return st.name.Render(s) },
	})
	if err != nil {
		return err
	}

	report, err := inst.Run(cmd.Context())
	if err != nil {
		return err
	}
	if report.Disabled {
		return nil
	}

	for _, c := range report.Cleanups {
		if c.Kept {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s kept %s after a failed merge\n", st.warn.Render("warning:"), c.Path)
		}
		if c.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s could not fully remove %s: %v\n", st.warn.Render("warning:"), c.Path, c.Err)
		}
	}

	changed := report.Changed()
	switch {
	case opts.dryRun && len(changed) == 0:
		fmt.Fprintln(out, "Dry run: nothing to install.")
	case opts.dryRun:
		fmt.Fprintf(out, "Dry run: %d file(s) from %d package(s) would be added.\n", report.Files(), len(changed))
	case len(changed) > 0:
		log.Info().Int("packages", len(changed)).Int("files", report.Files()).Msg("scaffold pass complete")
	}

	if err := report.Err(); err != nil {
		return fmt.Errorf("scaffold pass finished with errors: %w", err)
	}
	return nil
}
