//nolint:revive // exported
package sflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/the-dev-tools/jsonflow/pkg/flow/flowbuilder"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/nvalidity"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner/flowlocalrunner"
	"github.com/the-dev-tools/jsonflow/pkg/flowgraph"
	"github.com/the-dev-tools/jsonflow/pkg/httpclient"
	"github.com/the-dev-tools/jsonflow/pkg/idwrap"
	"github.com/the-dev-tools/jsonflow/pkg/jsonpath"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
	"github.com/the-dev-tools/jsonflow/pkg/ports"
	"github.com/the-dev-tools/jsonflow/pkg/upstream"
)

var (
	ErrWrongKind     = errors.New("operation not supported for node kind")
	ErrUnknownHandle = errors.New("no such input handle")
)

// FlowService runs engine operations against a snapshot and hands back the
// mutated copy. Hosts own the snapshot; nothing here outlives a call.
type FlowService struct {
	client   httpclient.HttpClient
	registry node.Registry
	logger   *slog.Logger
}

func New(client httpclient.HttpClient, logger *slog.Logger) FlowService {
	if logger == nil {
		logger = slog.Default()
	}
	return FlowService{
		client:   client,
		registry: flowbuilder.New(client, logger).Registry(),
		logger:   logger,
	}
}

type RunOptions struct {
	// RunID names the run; a fresh id is used when zero.
	RunID    idwrap.IDWrap
	Mode     runner.InvokeMode
	OnStatus node.LogPushFunc
}

type RunResult struct {
	Flow    mflow.Flow
	Started time.Time
	Result  flowlocalrunner.FlowRunResult
}

func (s FlowService) RunFlow(ctx context.Context, flow mflow.Flow, opts RunOptions) RunResult {
	g := flowgraph.New(flow)
	id := opts.RunID
	if id.IsZero() {
		id = idwrap.NewNow()
	}
	r := flowlocalrunner.CreateFlowRunner(id, g, s.registry, opts.Mode)
	r.Client = s.client
	r.Logger = s.logger

	started := time.Now()
	res := r.Run(ctx, opts.OnStatus)
	return RunResult{Flow: g.Snapshot(), Started: started, Result: res}
}

type NodeRunResult struct {
	Flow   mflow.Flow
	Status string
	Err    error
}

// RunNode invokes one handler outside a traversal. A non-empty handle on a
// validity node checks only that port.
func (s FlowService) RunNode(ctx context.Context, flow mflow.Flow, nodeID, handle string) (NodeRunResult, error) {
	g := flowgraph.New(flow)
	req := s.request(g, nodeID)
	n, err := req.Node()
	if err != nil {
		return NodeRunResult{}, err
	}

	var res node.FlowNodeResult
	if handle != "" {
		if n.Kind != mflow.NodeKindValidity {
			return NodeRunResult{}, fmt.Errorf("%w: %s has no per-port check", ErrWrongKind, n.Kind)
		}
		if i, ok := mflow.ParseInputHandle(handle); !ok || i >= n.Data.InputCount() {
			return NodeRunResult{}, fmt.Errorf("%w: %q on %s", ErrUnknownHandle, handle, nodeID)
		}
		res = node.FlowNodeResult{Status: nvalidity.New().CheckPort(ctx, req, handle)}
	} else {
		res, err = s.registry.RunNode(ctx, req)
		if err != nil {
			return NodeRunResult{}, err
		}
	}
	s.logger.DebugContext(ctx, "node run", "node", nodeID, "kind", n.Kind, "status", res.Status)
	return NodeRunResult{Flow: g.Snapshot(), Status: res.Status, Err: res.Err}, nil
}

type NodePorts struct {
	Inputs  []string     `json:"inputs"`
	Outputs []ports.Port `json:"outputs"`
}

func (s FlowService) Ports(flow mflow.Flow, nodeID string, expanded []string) (NodePorts, error) {
	n, ok := flow.NodeByID(nodeID)
	if !ok {
		return NodePorts{}, fmt.Errorf("%w: %s", node.ErrNodeNotFound, nodeID)
	}
	out := NodePorts{
		Inputs:  ports.Inputs(n),
		Outputs: ports.ForNode(n, ports.NewExpanded(expanded...)),
	}
	if out.Inputs == nil {
		out.Inputs = []string{}
	}
	if out.Outputs == nil {
		out.Outputs = []ports.Port{}
	}
	return out, nil
}

type InputsResult struct {
	Flow   mflow.Flow
	Inputs int
}

// AddInput and RemoveInput manage the input ports of a validity node.
func (s FlowService) AddInput(flow mflow.Flow, nodeID string) (InputsResult, error) {
	return s.editInputs(flow, nodeID, nvalidity.AddInput)
}

func (s FlowService) RemoveInput(flow mflow.Flow, nodeID string) (InputsResult, error) {
	return s.editInputs(flow, nodeID, nvalidity.RemoveInput)
}

func (s FlowService) editInputs(flow mflow.Flow, nodeID string, edit func(*node.FlowNodeRequest) (int, error)) (InputsResult, error) {
	g := flowgraph.New(flow)
	req := s.request(g, nodeID)
	n, err := req.Node()
	if err != nil {
		return InputsResult{}, err
	}
	if n.Kind != mflow.NodeKindValidity {
		return InputsResult{}, fmt.Errorf("%w: %s has fixed inputs", ErrWrongKind, n.Kind)
	}
	count, err := edit(req)
	if err != nil {
		return InputsResult{}, err
	}
	// a removed port takes its edges with it
	if count < n.Data.InputCount() {
		g.DisconnectHandle(nodeID, mflow.InputHandle(count), mflow.HandleTarget)
	}
	return InputsResult{Flow: g.Snapshot(), Inputs: count}, nil
}

// Get resolves path against the JSON the node would hand downstream: its own
// response or the nearest upstream one.
func (s FlowService) Get(flow mflow.Flow, nodeID, path string) (any, bool, error) {
	g := flowgraph.New(flow)
	if _, ok := g.Node(nodeID); !ok {
		return nil, false, fmt.Errorf("%w: %s", node.ErrNodeNotFound, nodeID)
	}
	raw, err := upstream.FetchJSON(g, nodeID)
	if err != nil {
		return nil, false, err
	}
	if raw == "" {
		return nil, false, nil
	}
	v, ok := jsonpath.ResolveBytes([]byte(raw), path)
	return v, ok, nil
}

func (s FlowService) request(g *flowgraph.Graph, nodeID string) *node.FlowNodeRequest {
	return &node.FlowNodeRequest{
		Graph:       g,
		NodeID:      nodeID,
		Client:      s.client,
		Logger:      s.logger,
		ExecutionID: idwrap.NewNow().String(),
	}
}
