package flowlocalrunner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner"
	"github.com/the-dev-tools/jsonflow/pkg/flowgraph"
	"github.com/the-dev-tools/jsonflow/pkg/httpclient"
	"github.com/the-dev-tools/jsonflow/pkg/idwrap"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

type FlowLocalRunner struct {
	ID       idwrap.IDWrap
	Graph    *flowgraph.Graph
	Registry node.Registry
	Mode     runner.InvokeMode
	Client   httpclient.HttpClient
	Logger   *slog.Logger
}

func CreateFlowRunner(id idwrap.IDWrap, g *flowgraph.Graph, registry node.Registry, mode runner.InvokeMode) *FlowLocalRunner {
	return &FlowLocalRunner{
		ID:       id,
		Graph:    g,
		Registry: registry,
		Mode:     mode,
	}
}

// FlowRunResult summarizes one traversal.
type FlowRunResult struct {
	RunID    string
	Status   runner.FlowStatus
	Message  string
	Nodes    []runner.FlowNodeStatus
	Duration time.Duration
}

// Run walks the graph depth-first from the start node. A target's handler is
// invoked when the edge leading to it is traversed: once per node in
// InvokeOncePerNode mode, once per edge in InvokePerEdge mode. Handler
// failures are recorded and never stop the walk; cancellation does.
func (r FlowLocalRunner) Run(ctx context.Context, onStatus node.LogPushFunc) FlowRunResult {
	started := time.Now()
	res := FlowRunResult{RunID: r.ID.String(), Status: runner.FlowStatusRunning}
	log := r.logger()

	push := func(s runner.FlowNodeStatus) {
		res.Nodes = append(res.Nodes, s)
		if onStatus != nil {
			onStatus(s)
		}
	}

	start, ok := r.Graph.StartNode()
	if !ok {
		res.Status = runner.FlowStatusSuccess
		res.Message = runner.ErrNoStartNode.Error()
		res.Duration = time.Since(started)
		log.InfoContext(ctx, "flow has no start node", "run", res.RunID)
		return res
	}

	stack := []string{start.ID}
	visited := make(map[string]bool)
	invoked := make(map[string]bool)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			res.Status = runner.FlowStatusCanceled
			res.Message = err.Error()
			break
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, e := range r.Graph.OutgoingEdges(current) {
			stack = append(stack, e.Target)
			if r.Mode == runner.InvokeOncePerNode && invoked[e.Target] {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			invoked[e.Target] = true
			if s, ran := r.invoke(ctx, e.Target); ran {
				push(s)
			}
		}
	}

	if !runner.IsFlowStatusDone(res.Status) {
		res.Status = runner.FlowStatusSuccess
		if failed := countFailed(res.Nodes); failed > 0 {
			res.Status = runner.FlowStatusFailed
			res.Message = fmt.Sprintf("%d node invocation(s) failed", failed)
		}
	}
	res.Duration = time.Since(started)
	log.InfoContext(ctx, "flow run finished", "run", res.RunID,
		"status", runner.FlowStatusString(res.Status), "invocations", len(res.Nodes), "duration", res.Duration)
	return res
}

func (r FlowLocalRunner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// invoke runs the handler for nodeID behind a recover. ran is false when the
// node is gone or its kind has no handler.
func (r FlowLocalRunner) invoke(ctx context.Context, nodeID string) (status runner.FlowNodeStatus, ran bool) {
	n, ok := r.Graph.Node(nodeID)
	if !ok {
		return status, false
	}
	h, ok := r.Registry.Lookup(n.Kind)
	if !ok {
		return status, false
	}

	req := &node.FlowNodeRequest{
		Graph:       r.Graph,
		NodeID:      nodeID,
		Client:      r.Client,
		Logger:      r.logger(),
		ExecutionID: idwrap.NewNow().String(),
	}
	started := time.Now()
	res := runHandler(ctx, h, req)
	res = node.Finish(req, res)

	status = runner.FlowNodeStatus{
		ExecutionID: req.ExecutionID,
		NodeID:      nodeID,
		Kind:        n.Kind,
		State:       res.State(),
		Status:      res.Status,
		RunDuration: time.Since(started),
		Error:       res.Err,
	}
	if res.Err != nil {
		r.logger().DebugContext(ctx, "node failed", "node", nodeID, "kind", n.Kind, "error", res.Err)
	}
	return status, true
}

func runHandler(ctx context.Context, h node.Handler, req *node.FlowNodeRequest) (res node.FlowNodeResult) {
	defer func() {
		if p := recover(); p != nil {
			req.Log().ErrorContext(ctx, "node handler panicked", "node", req.NodeID, "panic", p, "stack", string(debug.Stack()))
			res = node.Failed(errmap.New(errmap.CodeUnexpected, fmt.Sprintf("panic: %v", p), nil))
		}
	}()
	return h.Run(ctx, req)
}

func countFailed(statuses []runner.FlowNodeStatus) int {
	n := 0
	for _, s := range statuses {
		if s.State == mflow.NODE_STATE_FAILURE {
			n++
		}
	}
	return n
}
