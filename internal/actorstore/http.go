package actorstore

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-campaign-client/gateway"
	"github.com/goliatone/go-campaign-client/gateway/httpactor"
	"go.uber.org/zap"
)

const maxRequestBytes = 4 << 20

// Handler serves the actor for gateway/httpactor clients:
//
//	POST /rpc/{method}   msgpack request in, msgpack reply out
//	GET  /healthz
//
// The principal is taken from the X-Principal header as is; this backend
// trusts its callers.
func (s *Store) Handler() http.Handler {
	actor := s.Actor()
	logger := s.logger.Named("http")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST "+httpactor.RPCPath+"{method}", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		method := r.PathValue("method")

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
		if err != nil {
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		out, err := actor.Call(r.Context(), gateway.Call{
			Method:    method,
			Principal: r.Header.Get(httpactor.PrincipalHeader),
			Token:     strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
			Payload:   payload,
		})
		if err != nil {
			logger.Error("rpc failed", zap.String("method", method), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", httpactor.ContentType)
		if _, err := w.Write(out); err != nil {
			logger.Warn("write reply", zap.String("method", method), zap.Error(err))
		}
		logger.Debug("rpc",
			zap.String("method", method),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
	return mux
}
