//nolint:revive // exported
package nvalidity

import (
	"context"
	"fmt"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/jsonpath"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
	"github.com/the-dev-tools/jsonflow/pkg/upstream"
	"github.com/the-dev-tools/jsonflow/pkg/validity"
)

// Per-port outcomes stored under data.statuses.
const (
	OutcomeNoConnection   = "no connection"
	OutcomeInvalidJSON    = "invalid JSON"
	OutcomeValid          = "valid"
	OutcomeNotValid       = "not valid"
	OutcomeCyclicUpstream = "cyclic upstream"
)

type NodeValidity struct{}

func New() *NodeValidity {
	return &NodeValidity{}
}

func (n NodeValidity) Kind() mflow.NodeKind {
	return mflow.NodeKindValidity
}

// Run checks every input port independently.
func (n NodeValidity) Run(ctx context.Context, req *node.FlowNodeRequest) node.FlowNodeResult {
	self, err := req.Node()
	if err != nil {
		return node.Failed(err)
	}
	count := self.Data.InputCount()
	valid := 0
	for i := 0; i < count; i++ {
		if n.CheckPort(ctx, req, mflow.InputHandle(i)) == OutcomeValid {
			valid++
		}
	}
	status := fmt.Sprintf("%d of %d input(s) valid", valid, count)
	if valid < count {
		return node.FlowNodeResult{Status: status, Err: errmap.ValidationFailure(status)}
	}
	return node.FlowNodeResult{Status: status}
}

// CheckPort evaluates one input port and stores its outcome.
func (n NodeValidity) CheckPort(ctx context.Context, req *node.FlowNodeRequest, handle string) string {
	outcome, invalid := Diagnose(req, handle)
	req.Graph.UpdateNodeData(req.NodeID, func(d mflow.NodeData) {
		statuses, ok := d[mflow.DataKeyStatuses].(map[string]any)
		if !ok {
			statuses = make(map[string]any)
		}
		statuses[handle] = outcome
		d[mflow.DataKeyStatuses] = statuses
	})
	req.Log().DebugContext(ctx, "validity port checked", "node", req.NodeID, "port", handle,
		"outcome", outcome, "invalid", invalid)
	return outcome
}

// Check computes the outcome for one port without storing it.
func Check(req *node.FlowNodeRequest, handle string) string {
	outcome, _ := Diagnose(req, handle)
	return outcome
}

// Diagnose is Check plus, for a "not valid" payload, the first-level
// children that failed ("key" or "[i]", "" for the value itself).
func Diagnose(req *node.FlowNodeRequest, handle string) (string, []string) {
	in, err := upstream.ResolveInput(req.Graph, req.NodeID, handle)
	switch {
	case errmap.Is(err, errmap.CodeCyclicUpstream):
		return OutcomeCyclicUpstream, nil
	case err != nil:
		return OutcomeNoConnection, nil
	}
	doc, err := in.Parse()
	if err != nil {
		return OutcomeInvalidJSON, nil
	}
	v, ok := jsonpath.Resolve(doc, in.Path)
	if !ok {
		return OutcomeNotValid, nil
	}
	if !validity.IsValid(v) {
		return OutcomeNotValid, validity.Invalid(v)
	}
	return OutcomeValid, nil
}

// AddInput appends a port and returns the new count.
func AddInput(req *node.FlowNodeRequest) (int, error) {
	count := 0
	ok := req.Graph.UpdateNodeData(req.NodeID, func(d mflow.NodeData) {
		count = d.InputCount() + 1
		d[mflow.DataKeyInputs] = count
	})
	if !ok {
		return 0, fmt.Errorf("%w: %s", node.ErrNodeNotFound, req.NodeID)
	}
	return count, nil
}

// RemoveInput drops the last port and its stored outcome. A node keeps at
// least one port.
func RemoveInput(req *node.FlowNodeRequest) (int, error) {
	count := 0
	ok := req.Graph.UpdateNodeData(req.NodeID, func(d mflow.NodeData) {
		count = d.InputCount()
		if count <= 1 {
			d[mflow.DataKeyInputs] = 1
			count = 1
			return
		}
		count--
		d[mflow.DataKeyInputs] = count
		if statuses, ok := d[mflow.DataKeyStatuses].(map[string]any); ok {
			delete(statuses, mflow.InputHandle(count))
		}
	})
	if !ok {
		return 0, fmt.Errorf("%w: %s", node.ErrNodeNotFound, req.NodeID)
	}
	return count, nil
}
