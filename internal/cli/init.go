package cli

import (
	"errors"
	"fmt"

	"github.com/beacon-labs/beacon-installer/internal/config"
	"github.com/beacon-labs/beacon-installer/internal/scaffold"
	"github.com/spf13/cobra"
)

func newInitCmd(o *rootOptions) *cobra.Command {
	var vendor string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter settings file",
		Long: `Write a settings file listing the built-in rules to the project root.
An existing settings file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := o.resolveRoot()
			if err != nil {
				return err
			}
			path := o.configFile
			if path == "" {
				path = config.FilePath(root)
			}

			result, err := scaffold.Generate(scaffold.NewData(vendor), path)
			if errors.Is(err, scaffold.ErrExists) {
				return fmt.Errorf("%s already exists; edit it or remove it first", path)
			}
			if err != nil {
				return err
			}

			st := newStyles(cmd.OutOrStdout(), o.noColor)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", st.path.Render(result.Path))
			return nil
		},
	}
	cmd.Flags().StringVar(&vendor, "vendor-dir", "vendor", "Vendor directory to record")
	return cmd
}
