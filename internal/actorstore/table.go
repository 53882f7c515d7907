package actorstore

import (
	"context"
	"time"

	"github.com/goliatone/go-campaign-client/entity"
	"github.com/goliatone/go-campaign-client/gateway"
	"github.com/goliatone/go-campaign-client/query"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/vmihailenco/msgpack/v5"
)

// table serves the operations of one entity. Results are returned untyped,
// ready to be encoded into a reply.
type table interface {
	descriptor() entity.Descriptor
	migrate(ctx context.Context, db bun.IDB) error
	find(ctx context.Context, args query.Args) (any, error)
	findByID(ctx context.Context, id uuid.UUID) (any, error)
	findBy(ctx context.Context, field string, value query.Value) (any, error)
	count(ctx context.Context, criteria query.Criteria) (int, error)
	create(ctx context.Context, raw msgpack.RawMessage) (any, error)
	update(ctx context.Context, id uuid.UUID, raw msgpack.RawMessage) (any, error)
	delete(ctx context.Context, id uuid.UUID) error
}

type repoTable[T gateway.Record] struct {
	desc entity.Descriptor
	repo repository.Repository[T]
	cols columns
	// driver selects the repository error mapper for raw driver errors.
	driver string
	now    func() time.Time
}

func newTable[T gateway.Record](db *bun.DB, now func() time.Time) *repoTable[T] {
	repo := repository.NewRepository[T](db, repository.ModelHandlers[T]{
		NewRecord: gateway.NewRecord[T],
		GetID: func(record T) uuid.UUID {
			return record.GetID()
		},
		SetID: func(record T, id uuid.UUID) {
			record.SetID(id)
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &repoTable[T]{
		desc: gateway.Describe[T](),
		repo: repo,
		cols:   columnsOf(db, gateway.NewRecord[T]()),
		driver: repository.DetectDriver(db),
		now:    now,
	}
}

// mapError categorises driver errors the repository hands back unmapped.
func (t *repoTable[T]) mapError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return repository.MapDatabaseError(err, t.driver)
}

func (t *repoTable[T]) descriptor() entity.Descriptor { return t.desc }

func (t *repoTable[T]) migrate(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().Model(gateway.NewRecord[T]()).IfNotExists().Exec(ctx)
	return err
}

func (t *repoTable[T]) find(ctx context.Context, args query.Args) (any, error) {
	criteria, err := t.cols.selectCriteria(args)
	if err != nil {
		return nil, err
	}
	records, _, err := t.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (t *repoTable[T]) get(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	if id == uuid.Nil {
		return zero, invalidf("id")
	}
	record, err := t.repo.GetByID(ctx, id.String())
	if err != nil {
		if isNotFound(err) {
			return zero, errNotFound
		}
		return zero, err
	}
	return record, nil
}

func (t *repoTable[T]) findByID(ctx context.Context, id uuid.UUID) (any, error) {
	return t.get(ctx, id)
}

func (t *repoTable[T]) findBy(ctx context.Context, field string, value query.Value) (any, error) {
	if !t.desc.CanLookup(field) {
		return nil, invalidf("field: %s cannot be looked up by %s", t.desc.Name, field)
	}
	where, err := t.cols.equal(field, value)
	if err != nil {
		return nil, err
	}
	records, _, err := t.repo.List(ctx, where)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (t *repoTable[T]) count(ctx context.Context, criteria query.Criteria) (int, error) {
	where, err := t.cols.where(criteria)
	if err != nil {
		return 0, err
	}
	if where == nil {
		return t.repo.Count(ctx)
	}
	return t.repo.Count(ctx, where)
}

func (t *repoTable[T]) decode(raw msgpack.RawMessage) (T, error) {
	record := gateway.NewRecord[T]()
	if err := msgpack.Unmarshal(raw, record); err != nil {
		var zero T
		return zero, invalidf("%s payload", t.desc.Name)
	}
	return record, nil
}

func (t *repoTable[T]) create(ctx context.Context, raw msgpack.RawMessage) (any, error) {
	record, err := t.decode(raw)
	if err != nil {
		return nil, err
	}
	if record.GetID() == uuid.Nil {
		record.SetID(uuid.New())
	}
	record.Touch(t.now())
	if err := record.Validate(); err != nil {
		return nil, err
	}
	created, err := t.repo.Create(ctx, record)
	if err != nil {
		return nil, t.mapError(err)
	}
	return created, nil
}

func (t *repoTable[T]) update(ctx context.Context, id uuid.UUID, raw msgpack.RawMessage) (any, error) {
	existing, err := t.get(ctx, id)
	if err != nil {
		return nil, err
	}
	record, err := t.decode(raw)
	if err != nil {
		return nil, err
	}
	record.SetID(existing.GetID())
	record.Touch(t.now())
	if err := record.Validate(); err != nil {
		return nil, err
	}

	keepCreated := func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.ExcludeColumn("created_at")
	}
	if _, err := t.repo.Update(ctx, record, keepCreated); err != nil {
		return nil, t.mapError(err)
	}
	return t.get(ctx, id)
}

func (t *repoTable[T]) delete(ctx context.Context, id uuid.UUID) error {
	existing, err := t.get(ctx, id)
	if err != nil {
		return err
	}
	return t.mapError(t.repo.Delete(ctx, existing))
}
