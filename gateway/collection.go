package gateway

import (
	"context"
	"reflect"

	"github.com/goliatone/go-campaign-client/entity"
	"github.com/goliatone/go-campaign-client/query"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Collection exposes the remote operations of one entity.
type Collection[T Record] struct {
	gw   *Gateway
	desc entity.Descriptor
}

func newCollection[T Record](g *Gateway) *Collection[T] {
	return &Collection[T]{gw: g, desc: Describe[T]()}
}

// Describe returns the descriptor of record type T.
func Describe[T Record]() entity.Descriptor {
	return entity.MustLookup(NewRecord[T]().EntityName())
}

// NewRecord allocates an empty T.
func NewRecord[T Record]() T {
	var zero T
	return reflect.New(reflect.TypeOf(zero).Elem()).Interface().(T)
}

func (c *Collection[T]) Descriptor() entity.Descriptor { return c.desc }

func (c *Collection[T]) method(op string) string {
	return MethodName(c.desc.Name, op)
}

// Query builds arguments with the entity's policy and runs Find.
func (c *Collection[T]) Query(ctx context.Context, filters []query.Filter, orders []query.Order, limit *query.Limit) ([]T, error) {
	args, err := query.BuildFor(c.desc.Policy, filters, orders, limit)
	if err != nil {
		return nil, err
	}
	return c.Find(ctx, args)
}

func (c *Collection[T]) Find(ctx context.Context, args query.Args) ([]T, error) {
	method := c.method(OpFind)
	raw, err := c.gw.Invoke(ctx, method, FindRequest{Args: args})
	if err != nil {
		return nil, err
	}
	var out []T
	if err := msgpack.Unmarshal(raw, &out); err != nil {
		return nil, badReplyError(err, method)
	}
	return out, nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	method := c.method(OpFindByID)
	raw, err := c.gw.Invoke(ctx, method, IDRequest{ID: id})
	if err != nil {
		return zero, err
	}
	return decodeRecord[T](raw, method)
}

// FindBy returns the records whose field equals value. Only the fields
// listed in the entity descriptor are accepted.
func (c *Collection[T]) FindBy(ctx context.Context, field string, value any) ([]T, error) {
	if !c.desc.CanLookup(field) {
		return nil, goerrors.New("gateway: "+c.desc.Name+" cannot be looked up by "+field, goerrors.CategoryBadInput).
			WithTextCode("UNKNOWN_LOOKUP").
			WithMetadata(map[string]any{"entity": c.desc.Name, "field": field})
	}
	v, err := query.ValueOf(value)
	if err != nil {
		return nil, err
	}

	method := c.method(OpFindBy)
	raw, err := c.gw.Invoke(ctx, method, FindByRequest{Field: field, Value: v})
	if err != nil {
		return nil, err
	}
	var out []T
	if err := msgpack.Unmarshal(raw, &out); err != nil {
		return nil, badReplyError(err, method)
	}
	return out, nil
}

func (c *Collection[T]) Count(ctx context.Context, criteria query.Criteria) (int, error) {
	method := c.method(OpCount)
	raw, err := c.gw.Invoke(ctx, method, FindRequest{Args: query.Args{Criteria: criteria}})
	if err != nil {
		return 0, err
	}
	var n int
	if err := msgpack.Unmarshal(raw, &n); err != nil {
		return 0, badReplyError(err, method)
	}
	return n, nil
}

func (c *Collection[T]) Create(ctx context.Context, record T) (T, error) {
	return c.write(ctx, OpCreate, uuid.Nil, record)
}

func (c *Collection[T]) Update(ctx context.Context, id uuid.UUID, record T) (T, error) {
	var zero T
	if id == uuid.Nil {
		return zero, goerrors.New("gateway: update needs an id", goerrors.CategoryBadInput).
			WithTextCode("MISSING_ID")
	}
	return c.write(ctx, OpUpdate, id, record)
}

func (c *Collection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := c.gw.Invoke(ctx, c.method(OpDelete), IDRequest{ID: id})
	return err
}

func (c *Collection[T]) write(ctx context.Context, op string, id uuid.UUID, record T) (T, error) {
	var zero T
	if c.gw.validate {
		if err := record.Validate(); err != nil {
			return zero, err
		}
	}

	method := c.method(op)
	body, err := msgpack.Marshal(record)
	if err != nil {
		return zero, goerrors.Wrap(err, goerrors.CategoryInternal, "gateway: encode "+c.desc.Name)
	}
	raw, err := c.gw.Invoke(ctx, method, RecordRequest{ID: id, Record: body})
	if err != nil {
		return zero, err
	}
	return decodeRecord[T](raw, method)
}

func decodeRecord[T Record](raw msgpack.RawMessage, method string) (T, error) {
	out := NewRecord[T]()
	if err := msgpack.Unmarshal(raw, out); err != nil {
		var zero T
		return zero, badReplyError(err, method)
	}
	return out, nil
}
