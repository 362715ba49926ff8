package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner"
	"github.com/the-dev-tools/jsonflow/pkg/flowgraph"
	"github.com/the-dev-tools/jsonflow/pkg/httpclient"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

var ErrNodeNotFound = errors.New("node not found")

// Handler is the action behind one node kind.
type Handler interface {
	Kind() mflow.NodeKind
	Run(ctx context.Context, req *FlowNodeRequest) FlowNodeResult
}

type FlowNodeRequest struct {
	Graph  *flowgraph.Graph
	NodeID string
	// Client is used by handlers that reach the network.
	Client      httpclient.HttpClient
	Logger      *slog.Logger
	LogPushFunc LogPushFunc
	ExecutionID string
}

type LogPushFunc func(status runner.FlowNodeStatus)

type FlowNodeResult struct {
	Status string
	Err    error
}

// Failed builds a result whose status is the error's short form.
func Failed(err error) FlowNodeResult {
	return FlowNodeResult{Status: errmap.Status(err), Err: err}
}

func (r FlowNodeResult) State() mflow.NodeState {
	switch {
	case r.Err == nil:
		return mflow.NODE_STATE_SUCCESS
	case runner.IsCancellationError(r.Err):
		return mflow.NODE_STATE_CANCELED
	default:
		return mflow.NODE_STATE_FAILURE
	}
}

func (req *FlowNodeRequest) Log() *slog.Logger {
	if req.Logger == nil {
		return slog.Default()
	}
	return req.Logger
}

// Node returns a copy of the request's node.
func (req *FlowNodeRequest) Node() (mflow.Node, error) {
	n, ok := req.Graph.Node(req.NodeID)
	if !ok {
		return mflow.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, req.NodeID)
	}
	return n, nil
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	NodeKind mflow.NodeKind
	Fn       func(ctx context.Context, req *FlowNodeRequest) FlowNodeResult
}

func (h HandlerFunc) Kind() mflow.NodeKind { return h.NodeKind }

func (h HandlerFunc) Run(ctx context.Context, req *FlowNodeRequest) FlowNodeResult {
	return h.Fn(ctx, req)
}

// Registry is the dispatch table from node kind to handler.
type Registry map[mflow.NodeKind]Handler

func NewRegistry(handlers ...Handler) Registry {
	r := make(Registry, len(handlers))
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

func (r Registry) Register(h Handler) {
	r[h.Kind()] = h
}

func (r Registry) Lookup(kind mflow.NodeKind) (Handler, bool) {
	h, ok := r[kind]
	return h, ok
}

// RunNode runs the handler registered for the request's node outside a
// traversal and records its status.
func (r Registry) RunNode(ctx context.Context, req *FlowNodeRequest) (FlowNodeResult, error) {
	n, err := req.Node()
	if err != nil {
		return FlowNodeResult{}, err
	}
	h, ok := r.Lookup(n.Kind)
	if !ok {
		return FlowNodeResult{}, fmt.Errorf("no handler for node kind %q", n.Kind)
	}
	return Finish(req, h.Run(ctx, req)), nil
}

// Finish stores the result's status string on the node and returns it.
func Finish(req *FlowNodeRequest, res FlowNodeResult) FlowNodeResult {
	WriteNodeData(req, mflow.DataKeyStatus, res.Status)
	return res
}

// WriteNodeData sets key on the request's node. It reports false when the
// node has been removed in the meantime.
func WriteNodeData(req *FlowNodeRequest, key string, v any) bool {
	return req.Graph.UpdateNodeData(req.NodeID, func(d mflow.NodeData) {
		d[key] = v
	})
}

// WriteNodeDataBulk merges v into the request's node data.
func WriteNodeDataBulk(req *FlowNodeRequest, v map[string]any) bool {
	return req.Graph.UpdateNodeData(req.NodeID, func(d mflow.NodeData) {
		for key, value := range v {
			d[key] = value
		}
	})
}

// DeleteNodeData removes every key matched by drop.
func DeleteNodeData(req *FlowNodeRequest, drop func(key string) bool) bool {
	return req.Graph.UpdateNodeData(req.NodeID, func(d mflow.NodeData) {
		for key := range d {
			if drop(key) {
				delete(d, key)
			}
		}
	})
}
