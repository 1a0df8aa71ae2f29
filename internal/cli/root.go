package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/beacon-labs/beacon-installer/internal/branding"
	"github.com/beacon-labs/beacon-installer/internal/logging"
	"github.com/spf13/cobra"
)

// BuildInfo is injected via ldflags.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	build      BuildInfo
	projectDir string
	configFile string
	verbosity  int
	logFile    bool
	noColor    bool

	logCloser io.Closer
}

// NewRootCmd builds the command tree.
func NewRootCmd(build BuildInfo) *cobra.Command {
	o := &rootOptions{build: build}

	rootCmd := &cobra.Command{
		Use:   branding.CLIName(),
		Short: branding.Description(),
		Long: branding.DisplayName() + ` copies scaffold files shipped by installed Composer packages into
the project. Packages stage their files below ` + branding.StagingDir() + `/<project-type>/; every
project type whose marker paths exist in the project root is merged in, and
existing files are never overwritten.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			o.logCloser = logging.Setup(logging.Options{
				Verbosity: o.verbosity,
				Console:   cmd.ErrOrStderr(),
				NoColor:   o.noColor,
				File:      o.logFile,
			})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if o.logCloser != nil {
				o.logCloser.Close()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&o.projectDir, "project-dir", "d", "", "Project root (default: current directory)")
	flags.StringVar(&o.configFile, "config", "", "Settings file (default: <project>/"+branding.ConfigFile()+")")
	flags.CountVarP(&o.verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	flags.BoolVar(&o.logFile, "log-file", false, "Also append logs to the log file in the XDG state directory")
	flags.BoolVar(&o.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newInstallCmd(o),
		newPackagesCmd(o),
		newCheckCmd(o),
		newInitCmd(o),
		newConfigCmd(o),
		newVersionCmd(o),
	)
	return rootCmd
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	rootCmd := NewRootCmd(BuildInfo{Version: version, Commit: commit, Date: date})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
