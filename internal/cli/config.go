package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Write the default configuration unless the file already exists",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgFile
			if path == "" {
				p, err := defaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := a.v.SafeWriteConfigAs(path); err != nil {
				return fmt.Errorf("creating config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, key := range []string{KeyLogLevel, KeyFetchTimeout, KeyRunMode, KeyServerMode, KeyServerPort, KeyServerSocket} {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", key, a.v.Get(key))
			}
		},
	})
	return configCmd
}
