package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/jsonflow/pkg/flow/flowbuilder"
	"github.com/the-dev-tools/jsonflow/pkg/flowgraph"
	"github.com/the-dev-tools/jsonflow/pkg/io/flowfile"
)

func newPresetCmd() *cobra.Command {
	var (
		format string
		x, y   float64
	)
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Print the sample fetch pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flowfile.ParseFormat(format)
			if err != nil {
				return err
			}
			data, err := flowfile.Encode(flowbuilder.PresetGetFlow(x, y), f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	cmd.Flags().Float64Var(&x, "x", 0, "horizontal anchor of the text node")
	cmd.Flags().Float64Var(&y, "y", 0, "vertical anchor of the text node")
	return cmd
}

func newLayoutCmd() *cobra.Command {
	var (
		vertical bool
		dest     output
	)
	cmd := &cobra.Command{
		Use:   "layout [flow-file]",
		Short: "Assign node positions by depth from the start node",
		Long: `Positions every node reachable from the start node by its distance from it.
Without --write or --out the laid out snapshot is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := flowfile.Load(args[0])
			if err != nil {
				return fmt.Errorf("loading flow: %w", err)
			}
			cfg := flowgraph.DefaultHorizontalConfig()
			if vertical {
				cfg = flowgraph.DefaultVerticalConfig()
			}
			if err := flowgraph.LayoutFlow(flow, cfg); err != nil {
				return err
			}
			if dest.write || dest.out != "" {
				return dest.save(args[0], flow)
			}
			data, err := flowfile.Encode(flow, flowfile.FormatFromPath(args[0]))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&vertical, "vertical", false, "lay out top to bottom instead of left to right")
	dest.register(cmd)
	return cmd
}
