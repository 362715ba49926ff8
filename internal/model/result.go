package model

import (
	"time"

	"github.com/the-dev-tools/jsonflow/pkg/flow/runner"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner/flowlocalrunner"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

type NodeRunResult struct {
	NodeID      string        `json:"node_id"`
	ExecutionID string        `json:"execution_id"`
	Kind        string        `json:"kind"`
	State       string        `json:"state"`
	Status      string        `json:"status"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

type FlowRunResult struct {
	FlowID   string          `json:"flow_id"`
	FlowName string          `json:"flow_name"`
	Mode     string          `json:"mode"`
	Started  time.Time       `json:"started_at"`
	Duration time.Duration   `json:"duration"`
	Status   string          `json:"status"`
	Error    string          `json:"error,omitempty"`
	Nodes    []NodeRunResult `json:"nodes"`
}

func NewNodeRunResult(s runner.FlowNodeStatus) NodeRunResult {
	out := NodeRunResult{
		NodeID:      s.NodeID,
		ExecutionID: s.ExecutionID,
		Kind:        string(s.Kind),
		State:       mflow.StringNodeState(s.State),
		Status:      s.Status,
		Duration:    s.RunDuration,
	}
	if s.Error != nil {
		out.Error = s.Error.Error()
	}
	return out
}

// NewFlowRunResult converts a traversal summary into its report form.
func NewFlowRunResult(name string, mode runner.InvokeMode, started time.Time, res flowlocalrunner.FlowRunResult) FlowRunResult {
	out := FlowRunResult{
		FlowID:   res.RunID,
		FlowName: name,
		Mode:     mode.String(),
		Started:  started,
		Duration: res.Duration,
		Status:   runner.FlowStatusString(res.Status),
		Error:    res.Message,
		Nodes:    make([]NodeRunResult, 0, len(res.Nodes)),
	}
	if res.Status == runner.FlowStatusSuccess {
		out.Error = ""
	}
	for _, s := range res.Nodes {
		out.Nodes = append(out.Nodes, NewNodeRunResult(s))
	}
	return out
}
