package flowlocalrunner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/mocknode"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner/flowlocalrunner"
	"github.com/the-dev-tools/jsonflow/pkg/flowgraph"
	"github.com/the-dev-tools/jsonflow/pkg/idwrap"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

// diamond is Start->A->C, Start->B->C with every non-start node a loop.
func diamond() mflow.Flow {
	return mflow.Flow{
		Nodes: []mflow.Node{
			{ID: "start", Kind: mflow.NodeKindStart},
			{ID: "A", Kind: mflow.NodeKindLoop},
			{ID: "B", Kind: mflow.NodeKindLoop},
			{ID: "C", Kind: mflow.NodeKindLoop},
		},
		Edges: []mflow.Edge{
			mflow.NewEdge("1", "start", "out", "A", "array"),
			mflow.NewEdge("2", "start", "out", "B", "array"),
			mflow.NewEdge("3", "A", "response", "C", "array"),
			mflow.NewEdge("4", "B", "response", "C", "array"),
		},
	}
}

func newRunner(flow mflow.Flow, mode runner.InvokeMode, handlers ...node.Handler) *flowlocalrunner.FlowLocalRunner {
	return flowlocalrunner.CreateFlowRunner(idwrap.NewNow(), flowgraph.New(flow), node.NewRegistry(handlers...), mode)
}

func TestOncePerNode(t *testing.T) {
	mock := mocknode.NewMockNode(mflow.NodeKindLoop, nil)
	r := newRunner(diamond(), runner.InvokeOncePerNode, mock)

	res := r.Run(context.Background(), nil)
	require.Equal(t, runner.FlowStatusSuccess, res.Status)
	require.Equal(t, []string{"A", "B", "C"}, mock.Calls())
	require.Equal(t, 1, mock.Count("C"))
	require.Len(t, res.Nodes, 3)
}

func TestPerEdge(t *testing.T) {
	mock := mocknode.NewMockNode(mflow.NodeKindLoop, nil)
	r := newRunner(diamond(), runner.InvokePerEdge, mock)

	r.Run(context.Background(), nil)
	require.Equal(t, []string{"A", "B", "C", "C"}, mock.Calls())
	require.Equal(t, 2, mock.Count("C"))
}

func TestStatusCallbackAndNodeStatus(t *testing.T) {
	mock := mocknode.NewMockNode(mflow.NodeKindLoop, func(id string) node.FlowNodeResult {
		if id == "B" {
			return node.Failed(errors.New("bad input"))
		}
		return node.FlowNodeResult{Status: "fine " + id}
	})
	r := newRunner(diamond(), runner.InvokeOncePerNode, mock)

	var seen []runner.FlowNodeStatus
	res := r.Run(context.Background(), func(s runner.FlowNodeStatus) { seen = append(seen, s) })

	require.Equal(t, res.Nodes, seen)
	require.Equal(t, runner.FlowStatusFailed, res.Status)
	require.Equal(t, "1 node invocation(s) failed", res.Message)

	require.Equal(t, mflow.NODE_STATE_SUCCESS, seen[0].State)
	require.Equal(t, mflow.NODE_STATE_FAILURE, seen[1].State)
	require.Equal(t, "bad input", seen[1].Status)
	// a failing node does not stop its successors
	require.Equal(t, "C", seen[2].NodeID)

	snap := r.Graph.Snapshot()
	a, _ := snap.NodeByID("A")
	require.Equal(t, "fine A", a.Data[mflow.DataKeyStatus])
}

func TestPanicIsRecovered(t *testing.T) {
	mock := mocknode.NewMockNode(mflow.NodeKindLoop, func(id string) node.FlowNodeResult {
		if id == "A" {
			panic("boom")
		}
		return node.FlowNodeResult{Status: "ok"}
	})
	res := newRunner(diamond(), runner.InvokeOncePerNode, mock).Run(context.Background(), nil)
	require.Len(t, res.Nodes, 3)
	require.Equal(t, "panic: boom", res.Nodes[0].Status)
	require.Equal(t, mflow.NODE_STATE_FAILURE, res.Nodes[0].State)
}

func TestNoStartNode(t *testing.T) {
	flow := diamond()
	flow.Nodes = flow.Nodes[1:]
	mock := mocknode.NewMockNode(mflow.NodeKindLoop, nil)
	res := newRunner(flow, runner.InvokeOncePerNode, mock).Run(context.Background(), nil)
	require.Equal(t, "no start node", res.Message)
	require.Empty(t, mock.Calls())
}

func TestUnregisteredKindsAreSkipped(t *testing.T) {
	res := newRunner(diamond(), runner.InvokeOncePerNode).Run(context.Background(), nil)
	require.Equal(t, runner.FlowStatusSuccess, res.Status)
	require.Empty(t, res.Nodes)
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := mocknode.NewMockNode(mflow.NodeKindLoop, func(id string) node.FlowNodeResult {
		if id == "A" {
			cancel()
		}
		return node.FlowNodeResult{Status: "ok"}
	})
	res := newRunner(diamond(), runner.InvokeOncePerNode, mock).Run(ctx, nil)
	require.Equal(t, runner.FlowStatusCanceled, res.Status)
	require.Equal(t, []string{"A"}, mock.Calls())
}

func TestCycleTerminates(t *testing.T) {
	flow := diamond()
	flow.Edges = append(flow.Edges, mflow.NewEdge("5", "C", "response", "A", "array"))
	mock := mocknode.NewMockNode(mflow.NodeKindLoop, nil)

	newRunner(flow, runner.InvokePerEdge, mock).Run(context.Background(), nil)
	require.Equal(t, []string{"A", "B", "C", "A", "C"}, mock.Calls())
}
