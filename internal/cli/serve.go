package cli

import (
	"github.com/spf13/cobra"

	"github.com/the-dev-tools/jsonflow/internal/api"
	"github.com/the-dev-tools/jsonflow/internal/api/rflow"
	"github.com/the-dev-tools/jsonflow/internal/api/rhealth"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the flow API over HTTP",
		Long: `Serves the flow API on a TCP port or a Unix socket (server.mode).
Every request carries its snapshot and gets the mutated snapshot back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := runner.ParseInvokeMode(a.v.GetString(KeyRunMode))
			if err != nil {
				return err
			}
			flowSrv := rflow.New(a.flowService(), mode, a.logger)
			services := []api.Service{
				*rflow.CreateService(flowSrv),
				*rhealth.CreateService(rhealth.New(Version)),
			}
			return api.ListenServices(cmd.Context(), services, api.Config{
				Mode:       a.v.GetString(KeyServerMode),
				Port:       a.v.GetString(KeyServerPort),
				SocketPath: a.v.GetString(KeyServerSocket),
				Logger:     a.logger,
			})
		},
	}
	cmd.Flags().String("port", "", "TCP port (overrides server.port)")
	cmd.Flags().String("mode", "", "tcp or uds (overrides server.mode)")
	cmd.Flags().String("socket", "", "Unix socket path (overrides server.socket)")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		for flag, key := range map[string]string{"port": KeyServerPort, "mode": KeyServerMode, "socket": KeyServerSocket} {
			if err := a.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return err
			}
		}
		return nil
	}
	return cmd
}
