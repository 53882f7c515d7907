package httpactor_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-campaign-client/entity"
	"github.com/goliatone/go-campaign-client/gateway"
	"github.com/goliatone/go-campaign-client/gateway/httpactor"
	"github.com/goliatone/go-campaign-client/query"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap/zaptest"
)

type recorded struct {
	path      string
	principal string
	auth      string
	ctype     string
	body      []byte
}

func newServer(t *testing.T, status int, reply func(r *http.Request) []byte) (*httptest.Server, chan recorded) {
	t.Helper()
	seen := make(chan recorded, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen <- recorded{
			path:      r.URL.Path,
			principal: r.Header.Get(httpactor.PrincipalHeader),
			auth:      r.Header.Get("Authorization"),
			ctype:     r.Header.Get("Content-Type"),
			body:      body,
		}
		w.Header().Set("Content-Type", httpactor.ContentType)
		w.WriteHeader(status)
		_, _ = w.Write(reply(r))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := httpactor.New("not a url")
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))
}

func TestCall_PostsMsgpackWithIdentity(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK, func(*http.Request) []byte {
		raw, _ := gateway.OK([]*entity.Campaign{{Title: "Save the river road", Slug: "save-the-river-road"}})
		out, _ := gateway.EncodeReply(raw)
		return out
	})

	actor, err := httpactor.New(srv.URL+"/", httpactor.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	gw, err := gateway.New(actor, gateway.Identity{Principal: "alice", Token: "secret"})
	require.NoError(t, err)

	args, err := query.New().Where("title", query.OpContains, "road").Build()
	require.NoError(t, err)

	got, err := gw.Campaigns.Find(context.Background(), args)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "save-the-river-road", got[0].Slug)

	req := <-seen
	assert.Equal(t, "/rpc/campaigns.find", req.path)
	assert.Equal(t, "alice", req.principal)
	assert.Equal(t, "Bearer secret", req.auth)
	assert.Equal(t, httpactor.ContentType, req.ctype)

	var payload gateway.FindRequest
	require.NoError(t, msgpack.Unmarshal(req.body, &payload))
	assert.Equal(t, args.CacheKey(), payload.Args.CacheKey())
}

func TestCall_AnonymousSendsNoAuthorization(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK, func(*http.Request) []byte {
		out, _ := gateway.EncodeReply(gateway.Fail("Not found"))
		return out
	})
	actor, err := httpactor.New(srv.URL)
	require.NoError(t, err)
	gw, err := gateway.New(actor, gateway.Anonymous)
	require.NoError(t, err)

	_, err = gw.Tags.Find(context.Background(), query.Args{})
	assert.True(t, goerrors.IsNotFound(err))

	req := <-seen
	assert.Equal(t, gateway.AnonymousPrincipal, req.principal)
	assert.Empty(t, req.auth)
}

func TestCall_Non2xxIsTransportError(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadGateway, func(*http.Request) []byte {
		return []byte("upstream down\n")
	})
	actor, err := httpactor.New(srv.URL)
	require.NoError(t, err)

	_, err = actor.Call(context.Background(), gateway.Call{Method: "campaigns.find"})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryExternal))

	var e *goerrors.Error
	require.True(t, goerrors.As(err, &e))
	assert.Equal(t, http.StatusBadGateway, e.Code)
	assert.Equal(t, "upstream down", e.Metadata["body"])

	gw, err := gateway.New(actor, gateway.Anonymous)
	require.NoError(t, err)
	_, err = gw.Campaigns.Find(context.Background(), query.Args{})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryExternal))
	assert.True(t, strings.Contains(err.Error(), "campaigns.find"))
}

func TestCall_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	actor, err := httpactor.New(srv.URL, httpactor.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = actor.Call(context.Background(), gateway.Call{Method: "votes.find"})
	require.Error(t, err)
}

func TestCall_OversizedReplyIsRejected(t *testing.T) {
	payload := []byte(strings.Repeat("x", 64))
	srv, _ := newServer(t, http.StatusOK, func(*http.Request) []byte { return payload })

	actor, err := httpactor.New(srv.URL, httpactor.WithMaxReplyBytes(int64(len(payload)-1)))
	require.NoError(t, err)
	_, err = actor.Call(context.Background(), gateway.Call{Method: "campaigns.find"})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryExternal))
	var e *goerrors.Error
	require.True(t, goerrors.As(err, &e))
	assert.Equal(t, "REPLY_TOO_LARGE", e.TextCode)

	exact, err := httpactor.New(srv.URL, httpactor.WithMaxReplyBytes(int64(len(payload))))
	require.NoError(t, err)
	body, err := exact.Call(context.Background(), gateway.Call{Method: "campaigns.find"})
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}
