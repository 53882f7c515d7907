// Package query builds the argument shape of entity find calls.
//
// A query is described with three optional parts:
//
//   - Filters: key / operator / value predicates combined with AND
//   - Orders: sort clauses, primary first
//   - Limit: an offset and page size
//
// Build is a pure translation of those parts into Args. Filters with a nil or
// empty string value are dropped before anything is sent, and when no
// predicate survives the criteria are the explicit NoCriteria marker, which
// the backend reads as "match all":
//
//	args, err := query.Build(
//		[]query.Filter{{Key: "title", Op: query.OpContains, Value: "road"}},
//		[]query.Order{{Key: "_id", Dir: query.Desc}},
//		&query.Limit{Offset: 0, Size: 10},
//	)
//
// Operands are carried as Value, a tagged union of text, number, bool and the
// null marker. The tag is chosen when the query is built and encoded with an
// exhaustive switch by the msgpack codec in codec.go.
//
// Some entities page by default. That default lives in a Policy owned by the
// entity descriptor and is applied by BuildFor only when the caller omitted the
// limit.
package query
