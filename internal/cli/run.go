package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/the-dev-tools/jsonflow/internal/model"
	"github.com/the-dev-tools/jsonflow/internal/reporter"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner"
	"github.com/the-dev-tools/jsonflow/pkg/httpclient"
	"github.com/the-dev-tools/jsonflow/pkg/idwrap"
	"github.com/the-dev-tools/jsonflow/pkg/io/flowfile"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
	"github.com/the-dev-tools/jsonflow/pkg/service/sflow"
)

// output selects where a mutated snapshot goes after a command.
type output struct {
	write bool
	out   string
}

func (o *output) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.write, "write", false, "write the mutated snapshot back to the input file")
	cmd.Flags().StringVar(&o.out, "out", "", "write the mutated snapshot to this file")
}

func (o output) save(file string, flow mflow.Flow) error {
	if o.out != "" {
		return flowfile.Save(o.out, flow)
	}
	if o.write {
		return flowfile.Save(file, flow)
	}
	return nil
}

func (a *app) flowService() sflow.FlowService {
	client := httpclient.New(a.v.GetDuration(KeyFetchTimeout))
	return sflow.New(client, a.logger)
}

func newRunCmd(a *app) *cobra.Command {
	var (
		mode          string
		reportFormats []string
		showOutput    bool
		dest          output
	)

	cmd := &cobra.Command{
		Use:   "run [flow-file]",
		Short: "Run a flow from its start node",
		Long: `Runs every node reachable from the start node, depth first. Each node runs
once per run by default; --mode per-edge runs a node once for every incoming
edge that is traversed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			flow, err := flowfile.Load(file)
			if err != nil {
				return fmt.Errorf("loading flow: %w", err)
			}

			if !cmd.Flags().Changed("mode") {
				mode = a.v.GetString(KeyRunMode)
			}
			invokeMode, err := runner.ParseInvokeMode(mode)
			if err != nil {
				return err
			}

			specs, err := reporter.ParseReportSpecs(reportFormats)
			if err != nil {
				return err
			}
			reports, err := reporter.NewReporterGroup(specs, reporter.ReporterOptions{
				ShowOutput: showOutput,
				Out:        cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}

			runID := idwrap.NewNow()
			name := filepath.Base(file)
			names := make([]string, 0, len(flow.Nodes))
			for _, n := range flow.Nodes {
				names = append(names, n.ID)
			}
			reports.HandleFlowStart(reporter.FlowStartInfo{
				FlowID:     runID.String(),
				FlowName:   name,
				TotalNodes: len(flow.Nodes),
				NodeNames:  names,
			})

			res := a.flowService().RunFlow(cmd.Context(), flow, sflow.RunOptions{
				RunID: runID,
				Mode:  invokeMode,
				OnStatus: func(status runner.FlowNodeStatus) {
					reports.HandleNodeStatus(reporter.NodeStatusEvent{FlowID: runID.String(), FlowName: name, Status: status})
				},
			})
			reports.HandleFlowResult(model.NewFlowRunResult(name, invokeMode, res.Started, res.Result))
			if err := reports.Flush(); err != nil {
				return fmt.Errorf("writing reports: %w", err)
			}

			if err := dest.save(file, res.Flow); err != nil {
				return fmt.Errorf("saving flow: %w", err)
			}
			if res.Result.Status != runner.FlowStatusSuccess {
				return fmt.Errorf("flow %s finished with status %s: %s", name,
					runner.FlowStatusString(res.Result.Status), res.Result.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "once", "invocation mode: once or per-edge")
	cmd.Flags().StringSliceVar(&reportFormats, "report", []string{"console"}, "Report outputs to produce (format[:path]). Supported formats: console, json, junit.")
	cmd.Flags().BoolVar(&showOutput, "show-output", false, "print each node's status string under its row")
	dest.register(cmd)
	return cmd
}
