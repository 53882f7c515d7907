package actorstore

import (
	"reflect"
	"strings"

	"github.com/goliatone/go-campaign-client/query"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// idAlias is the document style id key clients may sort and filter on.
const idAlias = "_id"

// columns resolves client keys against a table's bun metadata.
type columns struct {
	table *schema.Table
}

func columnsOf(db *bun.DB, model any) columns {
	return columns{table: db.Table(reflect.TypeOf(model).Elem())}
}

func (c columns) resolve(key string) (string, error) {
	if key == idAlias {
		key = "id"
	}
	if !c.table.HasField(key) {
		return "", invalidf("field: unknown field %s", key)
	}
	return key, nil
}

// selectCriteria translates builder arguments into repository criteria.
// Unknown keys fail before any SQL is built.
func (c columns) selectCriteria(args query.Args) ([]repository.SelectCriteria, error) {
	var out []repository.SelectCriteria

	where, err := c.where(args.Criteria)
	if err != nil {
		return nil, err
	}
	if where != nil {
		out = append(out, where)
	}

	for _, o := range args.Order {
		col, err := c.resolve(o.Key)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if o.Dir == query.Desc {
			dir = "DESC"
		}
		out = append(out, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.? "+dir, bun.Ident(col))
		})
	}

	if l := args.Limit; l != nil {
		offset, size := l.Offset, l.Size
		out = append(out, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Limit(size).Offset(offset)
		})
	}
	return out, nil
}

func (c columns) where(criteria query.Criteria) (repository.SelectCriteria, error) {
	if !criteria.IsSet() {
		return nil, nil
	}

	type clause struct {
		expr string
		args []any
	}
	preds := criteria.Predicates()
	clauses := make([]clause, 0, len(preds))
	for _, p := range preds {
		col, err := c.resolve(p.Key)
		if err != nil {
			return nil, err
		}
		expr, vals, err := predicateSQL(p.Op, p.Value)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause{expr: expr, args: append([]any{bun.Ident(col)}, vals...)})
	}

	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, cl := range clauses {
				q = q.Where(cl.expr, cl.args...)
			}
			return q
		})
	}, nil
}

// equal is the criteria of findBy.
func (c columns) equal(field string, value query.Value) (repository.SelectCriteria, error) {
	return c.where(query.Some(query.Predicate{Key: field, Op: query.OpEq, Value: value}))
}

func predicateSQL(op query.Op, v query.Value) (string, []any, error) {
	arg := []any{v.Interface()}
	switch op {
	case query.OpEq:
		if v.Kind() == query.KindAbsent {
			return "?TableAlias.? IS NULL", nil, nil
		}
		return "?TableAlias.? = ?", arg, nil
	case query.OpNeq:
		return "?TableAlias.? <> ?", arg, nil
	case query.OpLt:
		return "?TableAlias.? < ?", arg, nil
	case query.OpLte:
		return "?TableAlias.? <= ?", arg, nil
	case query.OpGt:
		return "?TableAlias.? > ?", arg, nil
	case query.OpGte:
		return "?TableAlias.? >= ?", arg, nil
	}

	text, ok := v.Text()
	if !ok {
		return "", nil, invalidf("filter: %s needs a text value", op)
	}
	const like = "LOWER(?TableAlias.?) LIKE ? ESCAPE '\\'"
	switch op {
	case query.OpContains:
		return like, []any{"%" + escapeLike(text) + "%"}, nil
	case query.OpStartsWith:
		return like, []any{escapeLike(text) + "%"}, nil
	case query.OpEndsWith:
		return like, []any{"%" + escapeLike(text)}, nil
	}
	return "", nil, invalidf("filter: unsupported operator %s", op)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(strings.ToLower(s))
}
