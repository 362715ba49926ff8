//nolint:revive // exported
package nloop

import (
	"context"
	"fmt"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/jsonpath"
	"github.com/the-dev-tools/jsonflow/pkg/jsonvalue"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
	"github.com/the-dev-tools/jsonflow/pkg/upstream"
)

type NodeLoop struct{}

func New() *NodeLoop {
	return &NodeLoop{}
}

func (n NodeLoop) Kind() mflow.NodeKind {
	return mflow.NodeKindLoop
}

func (n NodeLoop) Run(ctx context.Context, req *node.FlowNodeRequest) node.FlowNodeResult {
	items, err := Items(req)
	if err != nil {
		return node.Failed(err)
	}
	raw, err := jsonvalue.Stringify(items)
	if err != nil {
		return node.Failed(errmap.ParseFailure("invalid JSON", err))
	}
	node.WriteNodeData(req, mflow.DataKeyResponse, raw)
	return node.FlowNodeResult{Status: fmt.Sprintf("loop ready (%d items)", len(items))}
}

// Items resolves the array wired into the array port. An element port is
// mapped back to its containing array; a single object becomes [obj].
func Items(req *node.FlowNodeRequest) ([]any, error) {
	in, err := upstream.ResolveInput(req.Graph, req.NodeID, mflow.HandleArray)
	if err != nil {
		return nil, err
	}
	doc, err := in.Parse()
	if err != nil {
		return nil, err
	}
	v, ok := jsonpath.Resolve(doc, jsonpath.ContainerPath(in.Path))
	if !ok {
		return nil, errmap.ShapeMismatch("not an array")
	}
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		return []any{t}, nil
	default:
		return nil, errmap.ShapeMismatch("not an array")
	}
}
