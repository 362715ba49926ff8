package errmap

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Transport sub-codes produced by Map.
const (
	CodeCanceled            Code = "canceled"
	CodeTimeout             Code = "timeout"
	CodeDNSError            Code = "dns_error"
	CodeInvalidURL          Code = "invalid_url"
	CodeUnsupportedScheme   Code = "unsupported_scheme"
	CodeConnectionRefused   Code = "connection_refused"
	CodeConnectionReset     Code = "connection_reset"
	CodeNetworkUnreachable  Code = "network_unreachable"
	CodeTLSUnknownAuthority Code = "tls_unknown_authority"
	CodeTLSHostnameMismatch Code = "tls_hostname_mismatch"
	CodeTLSHandshake        Code = "tls_handshake"
	CodeIO                  Code = "io_error"
	CodeUnexpected          Code = "unexpected"
)

var syscallCodes = []struct {
	errno syscall.Errno
	code  Code
}{
	{syscall.ECONNREFUSED, CodeConnectionRefused},
	{syscall.ECONNRESET, CodeConnectionReset},
	{syscall.ENETUNREACH, CodeNetworkUnreachable},
	{syscall.EHOSTUNREACH, CodeNetworkUnreachable},
}

// Last resort when nothing typed matched. Order matters: TLS wins over timeout.
var messageCodes = []struct {
	hints []string
	code  Code
}{
	{[]string{"handshake failure", "tls"}, CodeTLSHandshake},
	{[]string{"timeout"}, CodeTimeout},
	{[]string{"refused"}, CodeConnectionRefused},
	{[]string{"reset"}, CodeConnectionReset},
}

var invalidURLHints = []string{"invalid url", "invalid uri", "malformed url", "missing protocol scheme"}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

// Map converts an arbitrary error into an *Error with a best-effort code.
// Errors that already carry a code pass through untouched.
func Map(err error) error {
	if err == nil {
		return nil
	}
	var known *Error
	if errors.As(err, &known) {
		return err
	}
	code, cause := classify(err)
	return &Error{Code: code, cause: cause}
}

func classify(err error) (Code, error) {
	switch {
	case errors.Is(err, context.Canceled):
		return CodeCanceled, err
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout, err
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		if code, ok := classifyURLError(uerr); ok {
			return code, err
		}
		err = uerr.Err
	}

	var dnserr *net.DNSError
	if errors.As(err, &dnserr) {
		return CodeDNSError, dnserr
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return CodeTimeout, nerr
	}

	var operr *net.OpError
	if errors.As(err, &operr) {
		for _, sc := range syscallCodes {
			if errors.Is(operr.Err, sc.errno) {
				return sc.code, err
			}
		}
	}

	var unknownCA x509.UnknownAuthorityError
	if errors.As(err, &unknownCA) {
		return CodeTLSUnknownAuthority, err
	}
	var badHost x509.HostnameError
	if errors.As(err, &badHost) {
		return CodeTLSHostnameMismatch, err
	}

	text := strings.ToLower(err.Error())
	for _, mc := range messageCodes {
		if containsAny(text, mc.hints) {
			return mc.code, err
		}
	}
	return CodeUnexpected, err
}

func classifyURLError(uerr *url.Error) (Code, bool) {
	var nerr net.Error
	if errors.As(uerr.Err, &nerr) && nerr.Timeout() {
		return CodeTimeout, true
	}
	text := strings.ToLower(uerr.Error())
	switch {
	case strings.Contains(text, "unsupported protocol scheme"):
		return CodeUnsupportedScheme, true
	case containsAny(text, invalidURLHints):
		return CodeInvalidURL, true
	}
	return "", false
}

// MapRequestError maps err and stamps it with the request it came from.
func MapRequestError(method, urlStr string, err error) error {
	mapped := Map(err)
	var me *Error
	if !errors.As(mapped, &me) {
		return mapped
	}
	me.Method = method
	me.URL = urlStr
	return me
}

func dnsSummary(cause error) string {
	var dn *net.DNSError
	switch {
	case !errors.As(cause, &dn):
		return "DNS error"
	case dn.Name != "":
		return fmt.Sprintf("DNS lookup failed for %q: %s", dn.Name, dn.Err)
	default:
		return fmt.Sprintf("DNS error: %s", dn.Err)
	}
}

// Sentences for Friendly; %s receives the request context.
var friendlyFormats = map[Code]string{
	CodeInvalidURL:          "The URL is invalid%s.",
	CodeTimeout:             "Request timed out%s.",
	CodeConnectionRefused:   "Could not connect, connection refused%s.",
	CodeConnectionReset:     "Connection reset by peer%s.",
	CodeNetworkUnreachable:  "Network unreachable%s.",
	CodeTLSUnknownAuthority: "TLS certificate is not trusted by your system%s.",
	CodeTLSHostnameMismatch: "TLS certificate does not match the requested host%s.",
	CodeTLSHandshake:        "TLS handshake failed%s.",
	CodeIO:                  "I/O error%s.",
}

// Friendly returns a user-facing message. Transport failures get request
// context and a suggested fix where one is obvious.
func Friendly(err error) string {
	if err == nil {
		return ""
	}
	var me *Error
	if !errors.As(err, &me) {
		return err.Error()
	}

	where := requestContext(me.Method, me.URL)
	switch me.Code {
	case CodeCanceled:
		return "Request was canceled."
	case CodeUnsupportedScheme:
		return unsupportedScheme(me.URL, where)
	case CodeDNSError:
		if u, perr := url.Parse(me.URL); perr == nil && u.Hostname() != "" {
			return fmt.Sprintf("Could not resolve host '%s'%s.", u.Hostname(), where)
		}
		return fmt.Sprintf("Could not resolve hostname%s.", where)
	}
	if format, ok := friendlyFormats[me.Code]; ok {
		return fmt.Sprintf(format, where)
	}
	return me.Status()
}

func requestContext(method, urlStr string) string {
	switch {
	case urlStr == "":
		return ""
	case method == "":
		return " (" + urlStr + ")"
	default:
		return " (" + method + " " + urlStr + ")"
	}
}

func unsupportedScheme(urlStr, where string) string {
	scheme, _, found := strings.Cut(urlStr, "://")
	if u, perr := url.Parse(urlStr); perr == nil {
		scheme = u.Scheme
	} else if !found {
		scheme = ""
	}
	if scheme == "" {
		return fmt.Sprintf("Unsupported URL scheme '<none>'%s.", where)
	}
	if guess := guessScheme(scheme); guess != "" {
		return fmt.Sprintf("Unsupported URL scheme '%s'%s. Did you mean '%s'?", scheme, where, guess)
	}
	return fmt.Sprintf("Unsupported URL scheme '%s'%s.", scheme, where)
}

// guessScheme catches the usual typos of http and https.
func guessScheme(scheme string) string {
	switch {
	case scheme == "htps":
		return "https"
	case !strings.HasPrefix(scheme, "htt"):
		return ""
	case strings.Contains(scheme, "s"):
		return "https"
	default:
		return "http"
	}
}
