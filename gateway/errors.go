package gateway

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to gateway errors.
const (
	TextCodeTransport = "TRANSPORT_FAILED"
	TextCodeBadReply  = "BAD_REPLY"
	TextCodeRemote    = "REMOTE_ERROR"
	TextCodeNotReady  = "GATEWAY_NOT_READY"
)

// ErrNotReady is returned by mutations attempted before a gateway exists.
var ErrNotReady = goerrors.New("gateway: not connected", goerrors.CategoryOperation).
	WithTextCode(TextCodeNotReady)

// IsNotReady reports whether err is the missing gateway precondition.
func IsNotReady(err error) bool {
	var e *goerrors.Error
	return goerrors.As(err, &e) && e.TextCode == TextCodeNotReady
}

func transportError(err error, method string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "gateway: call "+method+" failed").
		WithTextCode(TextCodeTransport).
		WithMetadata(map[string]any{"method": method})
}

func badReplyError(err error, method string) error {
	e := goerrors.New("gateway: malformed reply from "+method, goerrors.CategoryExternal).
		WithTextCode(TextCodeBadReply).
		WithMetadata(map[string]any{"method": method})
	e.Source = err
	return e
}

// remoteError turns the error side of a Reply into a categorized error.
func remoteError(message, method string) error {
	return goerrors.New(message, classify(message)).
		WithTextCode(TextCodeRemote).
		WithMetadata(map[string]any{"method": method, "remote_message": message})
}

func classify(message string) goerrors.Category {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "not found"):
		return goerrors.CategoryNotFound
	case strings.HasPrefix(m, "invalid") || strings.Contains(m, "validation"):
		return goerrors.CategoryValidation
	case strings.Contains(m, "unauthorized") || strings.Contains(m, "anonymous"):
		return goerrors.CategoryAuth
	case strings.Contains(m, "forbidden") || strings.Contains(m, "not allowed"):
		return goerrors.CategoryAuthz
	case strings.Contains(m, "already exists") || strings.Contains(m, "duplicate") || strings.Contains(m, "conflict"):
		return goerrors.CategoryConflict
	default:
		return goerrors.CategoryOperation
	}
}

// RemoteMessage returns the message the backend reported, when err came from
// an error reply.
func RemoteMessage(err error) (string, bool) {
	var e *goerrors.Error
	if !goerrors.As(err, &e) || e.TextCode != TextCodeRemote {
		return "", false
	}
	msg, ok := e.Metadata["remote_message"].(string)
	return msg, ok
}
