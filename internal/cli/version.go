package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const Version = "v0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of jsonflow",
		Long:  `All software has versions. This is jsonflow's`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jsonflow %s\n", Version)
		},
	}
}
