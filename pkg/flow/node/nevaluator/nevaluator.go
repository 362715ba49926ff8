//nolint:revive // exported
package nevaluator

import (
	"context"
	"fmt"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/jsonvalue"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

// NodeEvaluator copies the value behind its top edge's source handle into
// its own response, so the payload's shape becomes its output ports.
type NodeEvaluator struct{}

func New() *NodeEvaluator {
	return &NodeEvaluator{}
}

func (n NodeEvaluator) Kind() mflow.NodeKind {
	return mflow.NodeKindResponseEvaluator
}

func (n NodeEvaluator) Run(ctx context.Context, req *node.FlowNodeRequest) node.FlowNodeResult {
	edge, ok := req.Graph.InputEdge(req.NodeID, mflow.HandleTop)
	if !ok {
		return node.Failed(errmap.MissingConnection("no handle connected"))
	}
	src, ok := req.Graph.Node(edge.Source)
	if !ok {
		return node.Failed(errmap.MissingConnection("no handle connected"))
	}

	missing := errmap.MissingConnection(fmt.Sprintf("no response found for handle: %s", edge.SourceHandle))
	var raw string
	switch v := src.Data[edge.SourceHandle].(type) {
	case nil:
		return node.Failed(missing)
	case string:
		if v == "" {
			return node.Failed(missing)
		}
		raw = v
	default:
		s, err := jsonvalue.Stringify(v)
		if err != nil {
			return node.Failed(errmap.ParseFailure("invalid JSON", err))
		}
		raw = s
	}

	node.WriteNodeData(req, mflow.DataKeyResponse, raw)
	req.Log().DebugContext(ctx, "evaluator loaded response", "node", req.NodeID, "handle", edge.SourceHandle)
	return node.FlowNodeResult{Status: "loaded " + edge.SourceHandle}
}
