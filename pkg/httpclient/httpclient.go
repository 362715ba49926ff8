//nolint:revive // exported
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/the-dev-tools/jsonflow/pkg/compress"
	"golang.org/x/net/html/charset"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns a client with the given timeout; 0 means no timeout.
func New(timeout time.Duration) HttpClient {
	return &http.Client{
		Timeout: timeout,
	}
}

type Header struct {
	HeaderKey string
	Value     string
}

type Request struct {
	Method  string
	URL     string
	Headers []Header
	Body    []byte
}

type Response struct {
	StatusCode int      `json:"statusCode"`
	Body       []byte   `json:"body"`
	Headers    []Header `json:"headers"`
	Duration   time.Duration
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body. Bodies that are not valid JSON return an error.
func (r Response) JSON() (any, error) {
	if !json.Valid(r.Body) {
		return nil, fmt.Errorf("invalid JSON body")
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return v, nil
}

func SendRequestWithContext(ctx context.Context, client HttpClient, req *Request) (*http.Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	reqRaw, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	reqRaw.Header = ConvertHeadersToHttp(req.Headers)
	return client.Do(reqRaw)
}

// SendRequestAndConvertWithContext sends req and returns the body decoded
// per Content-Encoding and converted to UTF-8 per the Content-Type charset.
func SendRequestAndConvertWithContext(ctx context.Context, client HttpClient, req *Request) (Response, error) {
	started := time.Now()
	resp, err := SendRequestWithContext(ctx, client, req)
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	// the transport already decoded gzip when it negotiated it itself
	encoding := strings.ToLower(resp.Header.Get("Content-Encoding"))
	if encoding != "" && !resp.Uncompressed {
		body, err = compress.DecompressWithContentEncodeStr(body, encoding)
		if err != nil {
			return Response{}, err
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" {
		reader, cerr := charset.NewReader(bytes.NewReader(body), contentType)
		if cerr == nil {
			body, err = io.ReadAll(reader)
			if err != nil {
				return Response{}, err
			}
		}
	}

	return Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    ConvertHttpHeaderToHeaders(resp.Header),
		Duration:   time.Since(started),
	}, nil
}

// Get issues a bare GET with no headers.
func Get(ctx context.Context, client HttpClient, url string) (Response, error) {
	return SendRequestAndConvertWithContext(ctx, client, &Request{Method: http.MethodGet, URL: url})
}

func ConvertHttpHeaderToHeaders(headers http.Header) []Header {
	result := make([]Header, 0, len(headers))
	for key, values := range headers {
		for _, value := range values {
			result = append(result, Header{HeaderKey: key, Value: value})
		}
	}
	return result
}

func ConvertHeadersToHttp(headers []Header) http.Header {
	result := make(http.Header)
	for _, header := range headers {
		result.Add(header.HeaderKey, header.Value)
	}
	return result
}
