package query

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DropsEmptyValues(t *testing.T) {
	var nilString *string
	empty := ""

	tests := []struct {
		name    string
		filters []Filter
	}{
		{name: "no filters", filters: nil},
		{name: "empty slice", filters: []Filter{}},
		{name: "empty string", filters: []Filter{{Key: "title", Op: OpContains, Value: ""}}},
		{name: "nil value", filters: []Filter{{Key: "title", Op: OpEq, Value: nil}}},
		{name: "nil pointer", filters: []Filter{{Key: "title", Op: OpEq, Value: nilString}}},
		{name: "pointer to empty", filters: []Filter{{Key: "title", Op: OpEq, Value: &empty}}},
		{name: "absent marker", filters: []Filter{{Key: "title", Op: OpEq, Value: Absent()}}},
		{
			name: "all empty",
			filters: []Filter{
				{Key: "title", Op: OpContains, Value: ""},
				{Key: "status", Op: OpEq, Value: nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := Build(tt.filters, nil, nil)
			require.NoError(t, err)
			assert.False(t, args.Criteria.IsSet(), "expected the no-criteria marker")
			assert.Equal(t, NoCriteria, args.Criteria)
			assert.Nil(t, args.Order)
			assert.Nil(t, args.Limit)
		})
	}
}

func TestBuild_KeepsNonEmptyFilters(t *testing.T) {
	args, err := Build([]Filter{
		{Key: "title", Op: OpContains, Value: ""},
		{Key: "goal", Op: OpGte, Value: 100},
		{Key: "published", Op: OpEq, Value: true},
		{Key: "slug", Op: OpStartsWith, Value: "save"},
	}, nil, nil)
	require.NoError(t, err)

	require.True(t, args.Criteria.IsSet())
	preds := args.Criteria.Predicates()
	require.Len(t, preds, 3)

	assert.Equal(t, Predicate{Key: "goal", Op: OpGte, Value: Number(100)}, preds[0])
	assert.Equal(t, Predicate{Key: "published", Op: OpEq, Value: Bool(true)}, preds[1])
	assert.Equal(t, Predicate{Key: "slug", Op: OpStartsWith, Value: Text("save")}, preds[2])
}

func TestBuild_CampaignScenario(t *testing.T) {
	args, err := Build(
		[]Filter{{Key: "title", Op: OpContains, Value: ""}},
		[]Order{{Key: "_id", Dir: Desc}},
		&Limit{Offset: 0, Size: 10},
	)
	require.NoError(t, err)

	assert.False(t, args.Criteria.IsSet())
	assert.Equal(t, [][2]string{{"_id", "desc"}}, args.OrderClause())
	assert.Equal(t, [][2]int{{0, 10}}, args.LimitClause())
}

func TestBuild_RoundTrip(t *testing.T) {
	in := Filter{Key: "title", Op: OpContains, Value: "road"}

	args, err := Build([]Filter{in}, nil, nil)
	require.NoError(t, err)

	out := Decode(args.Criteria)
	require.Len(t, out, 1)
	assert.Equal(t, in, out[0])
}

func TestBuild_OmitsAbsentLimitAndOrder(t *testing.T) {
	args, err := Build([]Filter{{Key: "title", Op: OpEq, Value: "x"}}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, args.Limit)
	assert.Empty(t, args.OrderClause())
	assert.Equal(t, [][2]int{}, args.LimitClause())
}

func TestBuildFor_AppliesPolicyOnlyWhenLimitMissing(t *testing.T) {
	policy := Policy{DefaultLimit: &Limit{Offset: 0, Size: 20}}

	args, err := BuildFor(policy, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, args.Limit)
	assert.Equal(t, Limit{Offset: 0, Size: 20}, *args.Limit)

	args, err = BuildFor(policy, nil, nil, &Limit{Offset: 40, Size: 5})
	require.NoError(t, err)
	assert.Equal(t, Limit{Offset: 40, Size: 5}, *args.Limit)

	// the policy value itself must not be aliased
	args.Limit.Size = 99
	assert.Equal(t, 20, policy.DefaultLimit.Size)
}

func TestBuild_IsPure(t *testing.T) {
	filters := []Filter{{Key: "title", Op: OpContains, Value: "road"}}
	orders := []Order{{Key: "created_at", Dir: Asc}, {Key: "_id", Dir: Desc}}
	limit := &Limit{Offset: 10, Size: 10}

	a, err := Build(filters, orders, limit)
	require.NoError(t, err)
	b, err := Build(filters, orders, limit)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a.CacheKey(), b.CacheKey())

	a.Order[0].Key = "mutated"
	assert.Equal(t, "created_at", orders[0].Key)
}

func TestBuild_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		filters []Filter
		orders  []Order
		limit   *Limit
	}{
		{name: "unknown op", filters: []Filter{{Key: "title", Op: "like", Value: "x"}}},
		{name: "missing key", filters: []Filter{{Op: OpEq, Value: "x"}}},
		{name: "unsupported type", filters: []Filter{{Key: "goal", Op: OpEq, Value: 1.5}}},
		{name: "bad direction", orders: []Order{{Key: "_id", Dir: "up"}}},
		{name: "missing order key", orders: []Order{{Dir: Asc}}},
		{name: "zero size", limit: &Limit{Offset: 0, Size: 0}},
		{name: "negative offset", limit: &Limit{Offset: -1, Size: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.filters, tt.orders, tt.limit)
			require.Error(t, err)
			assert.True(t, IsArgumentError(err), "expected argument error, got %v", err)
			assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))
		})
	}
}

func TestBuilder_Fluent(t *testing.T) {
	args, err := New().
		WithPolicy(Policy{DefaultLimit: &Limit{Size: 20}}).
		Where("campaign_id", OpEq, "c-1").
		Where("body", OpContains, "").
		OrderBy("created_at", Desc).
		Build()
	require.NoError(t, err)

	require.Equal(t, 1, args.Criteria.Len())
	assert.Equal(t, "campaign_id", args.Criteria.Predicates()[0].Key)
	assert.Equal(t, [][2]string{{"created_at", "desc"}}, args.OrderClause())
	assert.Equal(t, [][2]int{{0, 20}}, args.LimitClause())
}

func TestParseOp(t *testing.T) {
	op, ok := ParseOp("STARTSWITH")
	require.True(t, ok)
	assert.Equal(t, OpStartsWith, op)

	_, ok = ParseOp("like")
	assert.False(t, ok)
}

func TestCriteria_CacheKeyDistinguishesMarkers(t *testing.T) {
	assert.Equal(t, "none", NoCriteria.CacheKey())
	assert.Equal(t, "some[]", Some().CacheKey())
	assert.NotEqual(t, Some(Predicate{Key: "a", Op: OpEq, Value: Text("1")}).CacheKey(),
		Some(Predicate{Key: "a", Op: OpEq, Value: Number(1)}).CacheKey())
}
