package errmap

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Code classifies an engine or transport failure.
type Code string

// Engine failure classes. Handlers turn these into status strings.
const (
	CodeMissingConnection Code = "missing_connection"
	CodeParseFailure      Code = "parse_failure"
	CodeShapeMismatch     Code = "shape_mismatch"
	CodeValidationFailure Code = "validation_failure"
	CodeTransportFailure  Code = "transport_failure"
	CodeCyclicUpstream    Code = "cyclic_upstream"
)

// Error carries a code and request context and keeps the cause for Unwrap.
type Error struct {
	Code    Code
	Message string
	Method  string
	URL     string
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = humanize(e.Code, e.cause)
	}
	if e.Method != "" && e.URL != "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, msg)
	}
	if e.URL != "" {
		return fmt.Sprintf("%s: %s", e.URL, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// Status is the short string shown on the node, without request context.
func (e *Error) Status() string {
	if e.Message != "" {
		return e.Message
	}
	return humanize(e.Code, e.cause)
}

func humanize(code Code, cause error) string {
	if code == CodeDNSError {
		return dnsSummary(cause)
	}
	if msg, ok := summaries[code]; ok {
		return msg
	}
	if cause != nil {
		return cause.Error()
	}
	return "unexpected error"
}

var summaries = map[Code]string{
	CodeMissingConnection: "no connection",
	CodeParseFailure:      "invalid JSON",
	CodeShapeMismatch:     "unexpected shape",
	CodeValidationFailure: "not valid",
	CodeCyclicUpstream:    "cyclic upstream",

	CodeCanceled:            "request was canceled",
	CodeTimeout:             "request timed out",
	CodeInvalidURL:          "invalid URL",
	CodeUnsupportedScheme:   "unsupported protocol scheme",
	CodeConnectionRefused:   "connection refused by remote host",
	CodeConnectionReset:     "connection reset by peer",
	CodeNetworkUnreachable:  "network unreachable",
	CodeTLSUnknownAuthority: "TLS: unknown certificate authority",
	CodeTLSHostnameMismatch: "TLS: certificate does not match host",
	CodeTLSHandshake:        "TLS handshake failed",
	CodeIO:                  "I/O error",
}

// New constructs an Error with the supplied code, message, and cause.
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func MissingConnection(message string) *Error {
	return New(CodeMissingConnection, message, nil)
}

func ParseFailure(message string, cause error) *Error {
	return New(CodeParseFailure, message, cause)
}

func ShapeMismatch(message string) *Error {
	return New(CodeShapeMismatch, message, nil)
}

func ValidationFailure(message string) *Error {
	return New(CodeValidationFailure, message, nil)
}

// CyclicUpstream reports the node at which an upstream walk revisited itself.
func CyclicUpstream(nodeID string) *Error {
	return New(CodeCyclicUpstream, "cyclic upstream", fmt.Errorf("node %q reached twice", nodeID))
}

// HTTPStatus records a non-2xx response for url.
func HTTPStatus(method, urlStr string, status int) *Error {
	return &Error{
		Code:    CodeTransportFailure,
		Message: fmt.Sprintf("HTTP %d", status),
		Method:  method,
		URL:     urlStr,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" when
// there is none.
func CodeOf(err error) Code {
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Status renders err as a node status string.
func Status(err error) string {
	if err == nil {
		return ""
	}
	var me *Error
	if errors.As(err, &me) {
		return me.Status()
	}
	return err.Error()
}

type payload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToJSON marshals an error into {"code":"...","message":"..."}.
// Errors without a code report "unknown".
func ToJSON(err error) string {
	p := payload{Code: "unknown"}
	if err != nil {
		p.Message = err.Error()
		var me *Error
		if errors.As(err, &me) {
			p.Code = string(me.Code)
			p.Message = me.Error()
		}
	}
	b, merr := json.Marshal(p)
	if merr != nil {
		return `{"code":"unknown","message":""}`
	}
	return string(b)
}
