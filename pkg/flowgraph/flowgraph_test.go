package flowgraph_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/the-dev-tools/jsonflow/pkg/flowgraph"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

func diamond() mflow.Flow {
	return mflow.Flow{
		Nodes: []mflow.Node{
			{ID: "start", Kind: mflow.NodeKindStart},
			{ID: "a", Kind: mflow.NodeKindTextSource, Data: mflow.NodeData{"label": "x"}},
			{ID: "b", Kind: mflow.NodeKindTextSource},
			{ID: "c", Kind: mflow.NodeKindValidity},
		},
		Edges: []mflow.Edge{
			mflow.NewEdge("e1", "start", "out", "a", "top"),
			mflow.NewEdge("e2", "start", "out", "b", "top"),
			mflow.NewEdge("e3", "a", "out", "c", "input_0"),
			mflow.NewEdge("e4", "b", "out", "c", "input_0"),
		},
	}
}

func TestGraphLookups(t *testing.T) {
	g := flowgraph.New(diamond())

	start, ok := g.StartNode()
	require.True(t, ok)
	require.Equal(t, "start", start.ID)

	out := g.OutgoingEdges("start")
	require.Len(t, out, 2)
	require.Equal(t, "e1", out[0].ID)
	require.Equal(t, "e2", out[1].ID)

	// first matching edge wins
	in, ok := g.InputEdge("c", "input_0")
	require.True(t, ok)
	require.Equal(t, "e3", in.ID)

	_, ok = g.InputEdge("c", "input_1")
	require.False(t, ok)

	_, ok = g.Node("missing")
	require.False(t, ok)
}

func TestGraphCopiesAreIsolated(t *testing.T) {
	flow := diamond()
	g := flowgraph.New(flow)

	n, ok := g.Node("a")
	require.True(t, ok)
	n.Data["label"] = "changed"

	snap := g.Snapshot()
	a, _ := snap.NodeByID("a")
	require.Equal(t, "x", a.Data["label"])

	flow.Nodes[1].Data["label"] = "caller"
	a, _ = g.Node("a")
	require.Equal(t, "x", a.Data["label"])
}

func TestUpdateNodeData(t *testing.T) {
	g := flowgraph.New(diamond())

	require.True(t, g.UpdateNodeData("b", func(d mflow.NodeData) {
		d["response"] = `{"ok":true}`
	}))
	b, _ := g.Node("b")
	require.Equal(t, `{"ok":true}`, b.Data.Response())

	require.True(t, g.RemoveNode("b"))
	called := false
	require.False(t, g.UpdateNodeData("b", func(mflow.NodeData) { called = true }))
	require.False(t, called)
}

func TestStructuralEdits(t *testing.T) {
	g := flowgraph.New(diamond())

	require.ErrorIs(t, g.AddNode(mflow.Node{ID: "a"}), flowgraph.ErrDuplicateNode)
	require.NoError(t, g.AddNode(mflow.Node{ID: "d", Kind: mflow.NodeKindLoop}))

	id := g.AddEdge(mflow.Edge{Source: "c", SourceHandle: "out_0", Target: "d", TargetHandle: "array"})
	require.NotEmpty(t, id)
	_, ok := g.InputEdge("d", "array")
	require.True(t, ok)

	require.NoError(t, g.RemoveEdge(id))
	require.ErrorIs(t, g.RemoveEdge(id), mflow.ErrEdgeNotFound)

	require.True(t, g.RemoveNode("a"))
	require.False(t, g.RemoveNode("a"))
	snap := g.Snapshot()
	for _, e := range snap.Edges {
		require.NotEqual(t, "a", e.Source)
		require.NotEqual(t, "a", e.Target)
	}
	require.Len(t, snap.Edges, 2)

	// index stays valid after removal shifted the slice
	c, ok := g.Node("c")
	require.True(t, ok)
	require.Equal(t, mflow.NodeKindValidity, c.Kind)
}

func TestDisconnectHandle(t *testing.T) {
	g := flowgraph.New(diamond())
	require.Equal(t, 2, g.DisconnectHandle("c", "input_0", mflow.HandleTarget))
	require.Equal(t, 2, g.DisconnectHandle("start", "out", mflow.HandleSource))
	require.Empty(t, g.Snapshot().Edges)
}

func TestConcurrentWritesAndEdits(t *testing.T) {
	g := flowgraph.New(diamond())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.UpdateNodeData("c", func(d mflow.NodeData) { d["status"] = "x" })
		}()
		go func() {
			defer wg.Done()
			_ = g.Snapshot()
		}()
	}
	wg.Wait()
	c, _ := g.Node("c")
	require.Equal(t, "x", c.Data["status"])
}

func TestLayoutHorizontal(t *testing.T) {
	flow := diamond()
	res := flowgraph.Layout(flow, "start", flowgraph.DefaultHorizontalConfig())

	require.Equal(t, 2, res.MaxLevel)
	require.Equal(t, 0, res.Levels["start"])
	require.Equal(t, 1, res.Levels["a"])
	require.Equal(t, 1, res.Levels["b"])
	require.Equal(t, 2, res.Levels["c"])

	require.Equal(t, mflow.Position{X: 0, Y: 0}, res.Positions["start"])
	require.Equal(t, mflow.Position{X: 300, Y: -75}, res.Positions["a"])
	require.Equal(t, mflow.Position{X: 300, Y: 75}, res.Positions["b"])
	require.Equal(t, mflow.Position{X: 600, Y: 0}, res.Positions["c"])
}

func TestLayoutFlowVertical(t *testing.T) {
	flow := diamond()
	require.NoError(t, flowgraph.LayoutFlow(flow, flowgraph.DefaultVerticalConfig()))
	c, _ := flow.NodeByID("c")
	require.Equal(t, mflow.Position{X: 0, Y: 600}, c.Position)

	require.Error(t, flowgraph.LayoutFlow(mflow.Flow{Nodes: []mflow.Node{{ID: "x"}}}, flowgraph.DefaultVerticalConfig()))
}

func TestLayoutCycleTerminates(t *testing.T) {
	flow := mflow.Flow{
		Nodes: []mflow.Node{{ID: "s", Kind: mflow.NodeKindStart}, {ID: "x"}, {ID: "y"}},
		Edges: []mflow.Edge{
			mflow.NewEdge("1", "s", "out", "x", "top"),
			mflow.NewEdge("2", "x", "out", "y", "top"),
			mflow.NewEdge("3", "y", "out", "x", "top"),
		},
	}
	res := flowgraph.Layout(flow, "s", flowgraph.DefaultHorizontalConfig())
	require.Contains(t, res.Positions, "x")
	require.Contains(t, res.Positions, "y")
}
