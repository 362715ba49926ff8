package errmap_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/the-dev-tools/jsonflow/pkg/errmap"
)

// timedErr implements net.Error with Timeout=true.
type timedErr struct{}

func (timedErr) Error() string   { return "i/o deadline" }
func (timedErr) Timeout() bool   { return true }
func (timedErr) Temporary() bool { return true }

func TestMapContext(t *testing.T) {
	require.Equal(t, errmap.CodeTimeout, errmap.CodeOf(errmap.Map(context.DeadlineExceeded)))
	require.Equal(t, errmap.CodeCanceled, errmap.CodeOf(errmap.Map(context.Canceled)))
}

func TestMapNetErrors(t *testing.T) {
	var ne net.Error = timedErr{}
	require.Equal(t, errmap.CodeTimeout, errmap.CodeOf(errmap.Map(ne)))

	dn := &net.DNSError{Name: "example.invalid", Err: "no such host"}
	got := errmap.Map(dn)
	require.Equal(t, errmap.CodeDNSError, errmap.CodeOf(got))
	require.Contains(t, got.Error(), "example.invalid")

	refused := &url.Error{Op: "Get", URL: "http://127.0.0.1:1", Err: &net.OpError{
		Op:  "dial",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}}
	require.Equal(t, errmap.CodeConnectionRefused, errmap.CodeOf(errmap.Map(refused)))

	scheme := &url.Error{Op: "Get", URL: "htps://x", Err: errors.New(`unsupported protocol scheme "htps"`)}
	require.Equal(t, errmap.CodeUnsupportedScheme, errmap.CodeOf(errmap.Map(scheme)))

	require.Equal(t, errmap.CodeUnexpected, errmap.CodeOf(errmap.Map(errors.New("boom"))))
	require.NoError(t, errmap.Map(nil))
}

func TestMapKeepsMappedError(t *testing.T) {
	orig := errmap.ShapeMismatch("not an array")
	wrapped := fmt.Errorf("loop: %w", orig)
	require.Same(t, wrapped, errmap.Map(wrapped))
	require.True(t, errmap.Is(wrapped, errmap.CodeShapeMismatch))
	require.False(t, errmap.Is(wrapped, errmap.CodeParseFailure))
	require.False(t, errmap.Is(nil, errmap.CodeShapeMismatch))
}

func TestStatus(t *testing.T) {
	require.Equal(t, "not an array", errmap.Status(errmap.ShapeMismatch("not an array")))
	require.Equal(t, "no connection", errmap.Status(errmap.New(errmap.CodeMissingConnection, "", nil)))
	require.Equal(t, "cyclic upstream", errmap.Status(errmap.CyclicUpstream("a")))
	require.Equal(t, "plain", errmap.Status(errors.New("plain")))
	require.Equal(t, "", errmap.Status(nil))

	cause := errors.New("unexpected end")
	pf := errmap.ParseFailure("", cause)
	require.Equal(t, "invalid JSON", pf.Status())
	require.ErrorIs(t, pf, cause)
}

func TestHTTPStatus(t *testing.T) {
	err := errmap.HTTPStatus("GET", "https://api.example.com/x", 404)
	require.Equal(t, "HTTP 404", err.Status())
	require.Equal(t, "GET https://api.example.com/x: HTTP 404", err.Error())
	require.True(t, errmap.Is(err, errmap.CodeTransportFailure))
	require.Equal(t, "HTTP 404", errmap.Friendly(err))
}

func TestFriendly(t *testing.T) {
	scheme := &url.Error{Op: "Get", URL: "htps://x", Err: errors.New(`unsupported protocol scheme "htps"`)}
	msg := errmap.Friendly(errmap.MapRequestError("GET", "htps://x", scheme))
	require.Equal(t, "Unsupported URL scheme 'htps' (GET htps://x). Did you mean 'https'?", msg)

	dn := &net.DNSError{Name: "nope.invalid", Err: "no such host"}
	msg = errmap.Friendly(errmap.MapRequestError("GET", "http://nope.invalid/a", dn))
	require.Equal(t, "Could not resolve host 'nope.invalid' (GET http://nope.invalid/a).", msg)

	require.Equal(t, "x", errmap.Friendly(errors.New("x")))
	require.Equal(t, "", errmap.Friendly(nil))
	require.NoError(t, errmap.MapRequestError("GET", "u", nil))
}

func TestToJSON(t *testing.T) {
	var p map[string]string
	require.NoError(t, json.Unmarshal([]byte(errmap.ToJSON(errmap.ParseFailure(`bad "quote"`, nil))), &p))
	require.Equal(t, "parse_failure", p["code"])
	require.Equal(t, `bad "quote"`, p["message"])

	require.NoError(t, json.Unmarshal([]byte(errmap.ToJSON(errors.New("raw"))), &p))
	require.Equal(t, "unknown", p["code"])
	require.Equal(t, "raw", p["message"])
}
