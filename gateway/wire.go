package gateway

import (
	"context"
	"strings"

	"github.com/goliatone/go-campaign-client/query"
	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"github.com/vmihailenco/msgpack/v5"
)

// Operation names, the suffix of every method.
const (
	OpFind     = "find"
	OpFindByID = "findById"
	OpFindBy   = "findBy"
	OpCount    = "count"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
)

// MethodName returns the remote method for an operation on entity, e.g.
// "campaigns.find". entity may be singular or plural.
func MethodName(entity, op string) string {
	return inflection.Plural(strings.ToLower(entity)) + "." + op
}

// SplitMethod is the inverse of MethodName.
func SplitMethod(method string) (plural, op string, ok bool) {
	plural, op, ok = strings.Cut(method, ".")
	if !ok || plural == "" || op == "" {
		return "", "", false
	}
	return plural, op, true
}

// Call is one remote invocation.
type Call struct {
	Method    string
	Principal string
	Token     string
	Payload   []byte
}

// Actor is the remote service. Call returns the encoded Reply, or an error
// when the transport itself failed.
type Actor interface {
	Call(ctx context.Context, call Call) ([]byte, error)
}

// ActorFunc adapts a function to Actor.
type ActorFunc func(ctx context.Context, call Call) ([]byte, error)

func (f ActorFunc) Call(ctx context.Context, call Call) ([]byte, error) { return f(ctx, call) }

// Reply is the success-or-error result of every method. Exactly one side is
// set. Ok holds the raw encoded value, so a delete acknowledges with an
// encoded nil rather than an empty Ok.
type Reply struct {
	Ok  msgpack.RawMessage
	Err *string
}

var (
	_ msgpack.CustomEncoder = Reply{}
	_ msgpack.CustomDecoder = (*Reply)(nil)
)

// EncodeMsgpack writes {"err": message} or {"ok": value}.
func (r Reply) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(1); err != nil {
		return err
	}
	if r.Err != nil {
		if err := enc.EncodeString("err"); err != nil {
			return err
		}
		return enc.EncodeString(*r.Err)
	}
	if err := enc.EncodeString("ok"); err != nil {
		return err
	}
	if len(r.Ok) == 0 {
		return enc.EncodeNil()
	}
	return r.Ok.EncodeMsgpack(enc)
}

func (r *Reply) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	*r = Reply{}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		switch key {
		case "ok":
			raw, err := dec.DecodeRaw()
			if err != nil {
				return err
			}
			r.Ok = raw
		case "err":
			msg, err := dec.DecodeString()
			if err != nil {
				return err
			}
			r.Err = &msg
		default:
			if err := dec.Skip(); err != nil {
				return err
			}
		}
	}
	return nil
}

// OK builds a success reply carrying v.
func OK(v any) (Reply, error) {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Ok: raw}, nil
}

// Fail builds an error reply.
func Fail(message string) Reply {
	return Reply{Err: &message}
}

// EncodeReply encodes r for the wire.
func EncodeReply(r Reply) ([]byte, error) {
	return msgpack.Marshal(r)
}

// FindRequest is the payload of find and count.
type FindRequest struct {
	Args query.Args `msgpack:"args"`
}

// IDRequest is the payload of findById and delete.
type IDRequest struct {
	ID uuid.UUID `msgpack:"id"`
}

// FindByRequest is the payload of findBy.
type FindByRequest struct {
	Field string      `msgpack:"field"`
	Value query.Value `msgpack:"value"`
}

// RecordRequest is the payload of create and update. ID is only set for
// update.
type RecordRequest struct {
	ID     uuid.UUID          `msgpack:"id"`
	Record msgpack.RawMessage `msgpack:"record"`
}
