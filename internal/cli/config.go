package cli

import (
	"fmt"
	"strings"

	"github.com/beacon-labs/beacon-installer/internal/branding"
	"github.com/beacon-labs/beacon-installer/internal/config"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage project settings",
		Long: `Read and write settings stored in the project's ` + branding.ConfigFile() + `.
Settable keys: ` + strings.Join(config.Keys, ", ") + `.`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.Keys, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			key, value := args[0], args[1]
			if err := cfg.Set(key, value); err != nil {
				return fmt.Errorf("setting config key %q: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			value := cfg.Get(args[0])
			switch v := value.(type) {
			case nil:
				return fmt.Errorf("unknown config key %q", args[0])
			case string, bool, int:
				fmt.Fprintln(cmd.OutOrStdout(), v)
			default:
				data, err := yaml.Marshal(v)
				if err != nil {
					return fmt.Errorf("encoding %s: %w", args[0], err)
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
			}
			return nil
		},
	})

	return configCmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	root, err := o.resolveRoot()
	if err != nil {
		return nil, err
	}
	return config.Load(root, o.configFile)
}
