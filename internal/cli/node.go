package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/io/flowfile"
	"github.com/the-dev-tools/jsonflow/pkg/jsonvalue"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
	"github.com/the-dev-tools/jsonflow/pkg/service/sflow"
)

func newNodeCmd(a *app) *cobra.Command {
	nodeCmd := &cobra.Command{
		Use:   "node",
		Short: "Run or inspect a single node",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	nodeCmd.AddCommand(
		newNodeRunCmd(a),
		newNodePortsCmd(a),
		newNodeGetCmd(a),
		newNodeInputsCmd(a, "add-input", "Add an input port to a validity node", sflow.FlowService.AddInput),
		newNodeInputsCmd(a, "remove-input", "Remove the last input port of a validity node", sflow.FlowService.RemoveInput),
	)
	return nodeCmd
}

func newNodeRunCmd(a *app) *cobra.Command {
	var (
		handle string
		asJSON bool
		dest   output
	)
	cmd := &cobra.Command{
		Use:   "run [flow-file] [node-id]",
		Short: "Run one node's handler against the snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := flowfile.Load(args[0])
			if err != nil {
				return fmt.Errorf("loading flow: %w", err)
			}
			res, err := a.flowService().RunNode(cmd.Context(), flow, args[1], handle)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Status)
			switch {
			case res.Err == nil:
			case asJSON:
				fmt.Fprintln(cmd.OutOrStdout(), errmap.ToJSON(res.Err))
			default:
				if msg := errmap.Friendly(res.Err); msg != res.Status {
					fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", msg)
				}
			}
			return dest.save(args[0], res.Flow)
		},
	}
	cmd.Flags().StringVar(&handle, "handle", "", "check a single validity input port")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a failure as a {code, message} JSON object")
	dest.register(cmd)
	return cmd
}

func newNodePortsCmd(a *app) *cobra.Command {
	var expand []string
	cmd := &cobra.Command{
		Use:   "ports [flow-file] [node-id]",
		Short: "List a node's input and output ports",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := flowfile.Load(args[0])
			if err != nil {
				return fmt.Errorf("loading flow: %w", err)
			}
			p, err := a.flowService().Ports(flow, args[1], expand)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, in := range p.Inputs {
				fmt.Fprintf(w, "in   %s\n", in)
			}
			for _, out := range p.Outputs {
				marker := ""
				if out.Container {
					marker = " +"
					if contains(expand, out.Path) {
						marker = " -"
					}
				}
				fmt.Fprintf(w, "out  %s%s%s\n", strings.Repeat("  ", out.Depth), out.Path, marker)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&expand, "expand", nil, "expand the container port at this path (repeatable)")
	return cmd
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func newNodeGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [flow-file] [node-id] [path]",
		Short: "Print the value at a path in the JSON a node hands downstream",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := flowfile.Load(args[0])
			if err != nil {
				return fmt.Errorf("loading flow: %w", err)
			}
			path := ""
			if len(args) == 3 {
				path = args[2]
			}
			v, ok, err := a.flowService().Get(flow, args[1], path)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no value at %q", path)
			}
			text, err := jsonvalue.Stringify(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jsonvalue.Indent(text))
			return nil
		},
	}
}

func newNodeInputsCmd(a *app, use, short string, edit func(sflow.FlowService, mflow.Flow, string) (sflow.InputsResult, error)) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   use + " [flow-file] [node-id]",
		Short: short,
		Long:  short + ". The snapshot is written back unless --out is given.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := flowfile.Load(args[0])
			if err != nil {
				return fmt.Errorf("loading flow: %w", err)
			}
			res, err := edit(a.flowService(), flow, args[1])
			if err != nil {
				return err
			}
			if err := (output{write: true, out: out}).save(args[0], res.Flow); err != nil {
				return fmt.Errorf("saving flow: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inputs: %d\n", res.Inputs)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the mutated snapshot to this file instead")
	return cmd
}
