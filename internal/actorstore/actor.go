package actorstore

import (
	"context"

	"github.com/goliatone/go-campaign-client/gateway"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Actor answers gateway calls against the store in process.
type Actor struct {
	store  *Store
	logger *zap.Logger
}

var _ gateway.Actor = (*Actor)(nil)

func (s *Store) Actor() *Actor {
	return &Actor{store: s, logger: s.logger.Named("actor")}
}

// Call always returns an encoded reply; application failures travel in its
// error side. An error is only returned when the reply cannot be encoded.
func (a *Actor) Call(ctx context.Context, call gateway.Call) ([]byte, error) {
	return gateway.EncodeReply(a.dispatch(ctx, call))
}

func (a *Actor) dispatch(ctx context.Context, call gateway.Call) gateway.Reply {
	plural, op, ok := gateway.SplitMethod(call.Method)
	if !ok {
		return gateway.Fail("Unknown method " + call.Method)
	}
	t, ok := a.store.tables[plural]
	if !ok {
		return gateway.Fail("Unknown method " + call.Method)
	}

	result, err := a.run(ctx, t, op, call)
	if err != nil {
		msg, expected := replyMessage(t.descriptor().Name, err)
		if expected {
			a.logger.Debug("call rejected",
				zap.String("method", call.Method),
				zap.String("principal", call.Principal),
				zap.String("reason", msg),
			)
		} else {
			a.logger.Error("call failed",
				zap.String("method", call.Method),
				zap.String("principal", call.Principal),
				zap.Error(err),
			)
		}
		return gateway.Fail(msg)
	}

	reply, err := gateway.OK(result)
	if err != nil {
		a.logger.Error("encode result", zap.String("method", call.Method), zap.Error(err))
		return gateway.Fail("Internal error")
	}
	return reply
}

func (a *Actor) run(ctx context.Context, t table, op string, call gateway.Call) (any, error) {
	switch op {
	case gateway.OpFind:
		var req gateway.FindRequest
		if err := decodeRequest(call, &req); err != nil {
			return nil, err
		}
		return t.find(ctx, req.Args)

	case gateway.OpCount:
		var req gateway.FindRequest
		if err := decodeRequest(call, &req); err != nil {
			return nil, err
		}
		return t.count(ctx, req.Args.Criteria)

	case gateway.OpFindByID:
		var req gateway.IDRequest
		if err := decodeRequest(call, &req); err != nil {
			return nil, err
		}
		return t.findByID(ctx, req.ID)

	case gateway.OpFindBy:
		var req gateway.FindByRequest
		if err := decodeRequest(call, &req); err != nil {
			return nil, err
		}
		return t.findBy(ctx, req.Field, req.Value)
	}

	if isAnonymous(call.Principal) {
		return nil, errUnauthorized
	}

	switch op {
	case gateway.OpCreate:
		var req gateway.RecordRequest
		if err := decodeRequest(call, &req); err != nil {
			return nil, err
		}
		return t.create(ctx, req.Record)

	case gateway.OpUpdate:
		var req gateway.RecordRequest
		if err := decodeRequest(call, &req); err != nil {
			return nil, err
		}
		return t.update(ctx, req.ID, req.Record)

	case gateway.OpDelete:
		var req gateway.IDRequest
		if err := decodeRequest(call, &req); err != nil {
			return nil, err
		}
		return nil, t.delete(ctx, req.ID)
	}

	return nil, failure("Unknown method " + call.Method)
}

func decodeRequest(call gateway.Call, dst any) error {
	if err := msgpack.Unmarshal(call.Payload, dst); err != nil {
		return invalidf("request for %s", call.Method)
	}
	return nil
}

func isAnonymous(principal string) bool {
	return gateway.Identity{Principal: principal}.IsAnonymous()
}
