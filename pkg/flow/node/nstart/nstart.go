//nolint:revive // exported
package nstart

import (
	"context"

	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

const StatusStarted = "started"

type NodeStart struct{}

func New() *NodeStart {
	return &NodeStart{}
}

func (n NodeStart) Kind() mflow.NodeKind {
	return mflow.NodeKindStart
}

func (n NodeStart) Run(ctx context.Context, req *node.FlowNodeRequest) node.FlowNodeResult {
	return node.FlowNodeResult{Status: StatusStarted}
}
