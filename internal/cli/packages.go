package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/beacon-labs/beacon-installer/internal/branding"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type packagesOptions struct {
	json          bool
	withScaffolds bool
}

// packageEntry is an installed package for display.
type packageEntry struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Version     string   `json:"version"`
	InstallPath string   `json:"install_path"`
	Scaffolds   []string `json:"scaffolds"`
}

func newPackagesCmd(o *rootOptions) *cobra.Command {
	opts := &packagesOptions{}
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List installed packages and the scaffolds they stage",
		Long: `List the packages recorded in the vendor directory's composer/installed.json,
with the project types each one stages below ` + branding.StagingDir() + `/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackages(cmd, o, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&opts.withScaffolds, "with-scaffolds", false, "Only show packages that stage scaffolds")
	return cmd
}

func runPackages(cmd *cobra.Command, o *rootOptions, opts *packagesOptions) error {
	p, err := o.loadProject()
	if err != nil {
		return err
	}

	pkgs, err := p.repo.ListPackages()
	if err != nil {
		return err
	}

	fsys := afero.NewOsFs()
	entries := []packageEntry{}
	for _, pkg := range pkgs {
		path, err := p.repo.InstallPath(pkg)
		if err != nil {
			return err
		}
		scaffolds, err := stagedTypes(fsys, filepath.Join(path, branding.StagingDir()))
		if err != nil {
			return fmt.Errorf("reading scaffolds of %s: %w", pkg.Name, err)
		}
		if opts.withScaffolds && len(scaffolds) == 0 {
			continue
		}
		entries = append(entries, packageEntry{
			Name:        pkg.Name,
			Type:        pkg.Type,
			Version:     pkg.Version,
			InstallPath: path,
			Scaffolds:   scaffolds,
		})
	}

	if opts.json {
		return printPackagesJSON(cmd, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No packages found in %s.\n", p.repo.IndexPath())
		return nil
	}
	return printPackagesTable(cmd, entries)
}

// stagedTypes lists the project types below a staging directory.
func stagedTypes(fsys afero.Fs, staging string) ([]string, error) {
	infos, err := afero.ReadDir(fsys, staging)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	types := []string{}
	for _, info := range infos {
		if info.IsDir() {
			types = append(types, info.Name())
		}
	}
	return types, nil
}

func printPackagesTable(cmd *cobra.Command, entries []packageEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tVERSION\tSCAFFOLDS")
	for _, e := range entries {
		scaffolds := strings.Join(e.Scaffolds, ",")
		if scaffolds == "" {
			scaffolds = "-"
		}
		version := e.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Type, version, scaffolds)
	}
	return w.Flush()
}

func printPackagesJSON(cmd *cobra.Command, entries []packageEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
