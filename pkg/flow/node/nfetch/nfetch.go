//nolint:revive // exported
package nfetch

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/ntext"
	"github.com/the-dev-tools/jsonflow/pkg/httpclient"
	"github.com/the-dev-tools/jsonflow/pkg/jsonvalue"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

const ErrorKey = "error"

var urlPattern = regexp.MustCompile(`^https?://`)

// Result pairs a URL with what fetching it produced. Failures are recorded
// as {"error": "..."} rather than aborting the batch.
type Result struct {
	URL    string `json:"url"`
	Result any    `json:"result"`
}

type NodeFetch struct {
	Client httpclient.HttpClient
}

func New(client httpclient.HttpClient) *NodeFetch {
	return &NodeFetch{Client: client}
}

func (n NodeFetch) Kind() mflow.NodeKind {
	return mflow.NodeKindFetch
}

// URLs extracts the http(s) URLs from a text node's label, in order.
func URLs(label any) ([]string, error) {
	texts, err := ntext.Texts(label)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range ntext.Lines(texts) {
		if urlPattern.MatchString(line) {
			out = append(out, line)
		}
	}
	return out, nil
}

func (n NodeFetch) Run(ctx context.Context, req *node.FlowNodeRequest) node.FlowNodeResult {
	edge, ok := req.Graph.InputEdge(req.NodeID, mflow.HandleEndpoint)
	if !ok {
		return node.Failed(errmap.MissingConnection("no connection"))
	}
	src, ok := req.Graph.Node(edge.Source)
	if !ok {
		return node.Failed(errmap.MissingConnection("no connection"))
	}
	urls, err := URLs(src.Data[mflow.DataKeyLabel])
	if err != nil {
		return node.Failed(err)
	}
	if len(urls) == 0 {
		return node.Failed(errmap.MissingConnection("no URLs"))
	}

	results := make([]Result, len(urls))
	failed := 0
	for i, u := range urls {
		if ctx.Err() != nil {
			results[i] = Result{URL: u, Result: errorResult(errmap.Friendly(errmap.Map(ctx.Err())))}
			failed++
			continue
		}
		var ok bool
		results[i], ok = n.fetch(ctx, req, u)
		if !ok {
			failed++
		}
	}

	out := make(map[string]any, len(results))
	for i, r := range results {
		s, err := jsonvalue.Stringify(r.Result)
		if err != nil {
			s = jsonvalue.MustStringify(errorResult(err.Error()))
		}
		out[mflow.ResponseKey(i)] = s
	}
	node.DeleteNodeData(req, func(key string) bool {
		i, ok := mflow.ParseResponseKey(key)
		return ok && i >= len(results)
	})
	node.WriteNodeDataBulk(req, out)

	status := fmt.Sprintf("fetched %d URL(s), %d failed", len(urls), failed)
	if ctx.Err() != nil {
		return node.FlowNodeResult{Status: status, Err: ctx.Err()}
	}
	if failed > 0 {
		return node.FlowNodeResult{Status: status, Err: errmap.New(errmap.CodeTransportFailure, status, nil)}
	}
	return node.FlowNodeResult{Status: status}
}

// fetch reports false when the URL produced an error result.
func (n NodeFetch) fetch(ctx context.Context, req *node.FlowNodeRequest, u string) (Result, bool) {
	log := req.Log()
	log.InfoContext(ctx, "Dispatching HTTP request", "node", req.NodeID, "url", u)

	client := n.Client
	if client == nil {
		client = httpclient.New(0)
	}
	resp, err := httpclient.Get(ctx, client, u)
	if err != nil {
		msg := errmap.Friendly(errmap.MapRequestError(http.MethodGet, u, err))
		log.InfoContext(ctx, "HTTP request failed", "node", req.NodeID, "url", u, "error", msg)
		return Result{URL: u, Result: errorResult(msg)}, false
	}
	log.DebugContext(ctx, "HTTP response", "node", req.NodeID, "url", u,
		"status", resp.StatusCode, "duration", resp.Duration)

	if !resp.OK() {
		return Result{URL: u, Result: errorResult(errmap.HTTPStatus(http.MethodGet, u, resp.StatusCode).Status())}, false
	}
	body, err := resp.JSON()
	if err != nil {
		return Result{URL: u, Result: errorResult("invalid JSON body")}, false
	}
	return Result{URL: u, Result: body}, true
}

func errorResult(msg string) map[string]any {
	return map[string]any{ErrorKey: msg}
}
