// Package httpactor carries gateway calls over HTTP.
//
// Every call is a POST to {base}/rpc/{method} with the msgpack request as
// body. The principal travels in the X-Principal header and the token, when
// set, as a bearer Authorization header. The response body is the encoded
// gateway.Reply.
package httpactor

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-campaign-client/gateway"
	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"
)

const (
	// ContentType of requests and replies.
	ContentType = "application/msgpack"
	// PrincipalHeader names the calling principal.
	PrincipalHeader = "X-Principal"
	// RPCPath prefixes every method.
	RPCPath = "/rpc/"

	DefaultTimeout = 30 * time.Second

	// DefaultMaxReplyBytes caps the size of a reply body.
	DefaultMaxReplyBytes = 32 << 20
)

// Actor implements gateway.Actor against a remote HTTP endpoint.
type Actor struct {
	base     string
	client   *http.Client
	logger   *zap.Logger
	maxReply int64
}

var _ gateway.Actor = (*Actor)(nil)

type Option func(*Actor)

// WithHTTPClient replaces the client. Its timeout wins over WithTimeout when
// applied after it.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Actor) {
		if client != nil {
			a.client = client
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(a *Actor) {
		if d > 0 {
			c := *a.client
			c.Timeout = d
			a.client = &c
		}
	}
}

// WithMaxReplyBytes sets the largest reply body accepted.
func WithMaxReplyBytes(n int64) Option {
	return func(a *Actor) {
		if n > 0 {
			a.maxReply = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Actor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New returns an Actor calling baseURL.
func New(baseURL string, opts ...Option) (*Actor, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, goerrors.New("httpactor: invalid base url "+baseURL, goerrors.CategoryBadInput).
			WithTextCode("INVALID_BASE_URL")
	}

	a := &Actor{
		base:     strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: DefaultTimeout},
		logger:   zap.NewNop(),
		maxReply: DefaultMaxReplyBytes,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Actor) Call(ctx context.Context, call gateway.Call) ([]byte, error) {
	endpoint := a.base + RPCPath + url.PathEscape(call.Method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(call.Payload))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "httpactor: build request")
	}
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("Accept", ContentType)
	req.Header.Set(PrincipalHeader, call.Principal)
	if call.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxReply+1))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "httpactor: read reply")
	}
	if int64(len(body)) > a.maxReply {
		return nil, goerrors.New("httpactor: "+call.Method+" reply too large", goerrors.CategoryExternal).
			WithTextCode("REPLY_TOO_LARGE").
			WithMetadata(map[string]any{"limit": a.maxReply})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.logger.Warn("rpc rejected",
			zap.String("method", call.Method),
			zap.Int("status", resp.StatusCode),
		)
		return nil, goerrors.New("httpactor: "+call.Method+" returned "+resp.Status, goerrors.CategoryExternal).
			WithCode(resp.StatusCode).
			WithMetadata(map[string]any{
				"status_category": goerrors.HTTPStatusToCategory(resp.StatusCode).String(),
				"body":            strings.TrimSpace(string(body)),
			})
	}
	return body, nil
}
