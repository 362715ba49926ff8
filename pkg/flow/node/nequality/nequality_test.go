package nequality_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/nequality"
	"github.com/the-dev-tools/jsonflow/pkg/flowgraph"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

func run(payload, handle string, cfg mflow.NodeData) node.FlowNodeResult {
	g := flowgraph.New(mflow.Flow{
		Nodes: []mflow.Node{
			{ID: "src", Kind: mflow.NodeKindResponseEvaluator, Data: mflow.NodeData{"response": payload}},
			{ID: "eq", Kind: mflow.NodeKindEquality, Data: cfg},
		},
		Edges: []mflow.Edge{mflow.NewEdge("e", "src", handle, "eq", mflow.HandleInput)},
	})
	return nequality.New().Run(context.Background(), &node.FlowNodeRequest{Graph: g, NodeID: "eq"})
}

func TestEquality(t *testing.T) {
	number := mflow.NodeData{"key": "id", "expectedType": "number"}

	res := run(`[{"id":1},{"id":2}]`, "", number)
	require.NoError(t, res.Err)
	require.Equal(t, nequality.StatusAllEqual, res.Status)

	res = run(`[{"id":1},{"id":"x"}]`, "", number)
	require.Equal(t, nequality.StatusMismatch, res.Status)
	require.True(t, errmap.Is(res.Err, errmap.CodeValidationFailure))

	res = run(`[{"id":1},{}]`, "", number)
	require.Equal(t, nequality.StatusMismatch, res.Status)

	res = run(`[{"id":1},5]`, "", number)
	require.Equal(t, nequality.StatusMismatch, res.Status)
}

func TestDefaultsToString(t *testing.T) {
	res := run(`[{"name":"a"},{"name":"b"}]`, "", mflow.NodeData{"key": "name"})
	require.Equal(t, nequality.StatusAllEqual, res.Status)
}

func TestFirstArrayInDocumentOrder(t *testing.T) {
	payload := `{"meta":{"n":1},"b":[{"ok":true}],"a":[{"ok":"no"}]}`
	res := run(payload, "", mflow.NodeData{"key": "ok", "expectedType": "boolean"})
	require.Equal(t, nequality.StatusAllEqual, res.Status)

	res = run(`{"wrap":{"z":[{"v":1}],"a":[{"v":"s"}]}}`, "wrap", mflow.NodeData{"key": "v", "expectedType": "number"})
	require.Equal(t, nequality.StatusAllEqual, res.Status)
}

func TestShapeErrors(t *testing.T) {
	res := run(`{"a":1}`, "", mflow.NodeData{"key": "a"})
	require.Equal(t, "no valid array", res.Status)
	require.True(t, errmap.Is(res.Err, errmap.CodeShapeMismatch))

	res = run(`{nope`, "", mflow.NodeData{"key": "a"})
	require.Equal(t, "invalid JSON", res.Status)

	res = run(`[]`, "", mflow.NodeData{"key": "a", "expectedType": "date"})
	require.True(t, errmap.Is(res.Err, errmap.CodeShapeMismatch))
}

func TestStructuredUpstreamResponse(t *testing.T) {
	g := flowgraph.New(mflow.Flow{
		Nodes: []mflow.Node{
			{ID: "src", Kind: mflow.NodeKindResponseEvaluator, Data: mflow.NodeData{
				"response": []any{map[string]any{"v": 1.0}, map[string]any{"v": 2.0}},
			}},
			{ID: "eq", Kind: mflow.NodeKindEquality, Data: mflow.NodeData{"key": "v", "expectedType": "number"}},
		},
		Edges: []mflow.Edge{mflow.NewEdge("e", "src", "response", "eq", mflow.HandleInput)},
	})
	res := nequality.New().Run(context.Background(), &node.FlowNodeRequest{Graph: g, NodeID: "eq"})
	require.NoError(t, res.Err)
	require.Equal(t, nequality.StatusAllEqual, res.Status)
}
