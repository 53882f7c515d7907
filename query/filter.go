package query

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// TextCodeInvalidArgument tags every error produced for malformed query input.
const TextCodeInvalidArgument = "INVALID_ARGUMENT"

// Op is a predicate operator understood by the backend.
type Op string

const (
	OpEq         Op = "eq"
	OpNeq        Op = "neq"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpContains   Op = "contains"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
)

// Ops lists the supported operators.
func Ops() []Op {
	return []Op{OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpContains, OpStartsWith, OpEndsWith}
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter is a single predicate on one field. Multiple filters combine with AND.
type Filter struct {
	Key   string `json:"key"`
	Op    Op     `json:"op"`
	Value any    `json:"value"`
}

// Validate checks the key and operator. The value is checked by ValueOf.
func (f Filter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Key, validation.Required),
		validation.Field(&f.Op, validation.Required, validation.In(opRuleValues()...)),
	)
}

// Predicate is a filter whose value has been tagged.
type Predicate struct {
	Key   string
	Op    Op
	Value Value
}

func (p Predicate) String() string {
	return p.Key + " " + string(p.Op) + " " + p.Value.String()
}

// Order is a single sort clause. In a sequence the first clause is primary.
type Order struct {
	Key string    `json:"key"`
	Dir Direction `json:"dir"`
}

func (o Order) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Key, validation.Required),
		validation.Field(&o.Dir, validation.Required, validation.In(Asc, Desc)),
	)
}

func (o Order) String() string { return o.Key + ":" + string(o.Dir) }

// Limit is a pagination window.
type Limit struct {
	Offset int `json:"offset"`
	Size   int `json:"size"`
}

func (l Limit) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Offset, validation.Min(0)),
		validation.Field(&l.Size, validation.Required, validation.Min(1)),
	)
}

func (l Limit) String() string {
	return strconv.Itoa(l.Offset) + ":" + strconv.Itoa(l.Size)
}

// ParseOp resolves an operator name, accepting any letter case.
func ParseOp(s string) (Op, bool) {
	for _, op := range Ops() {
		if strings.EqualFold(string(op), s) {
			return op, true
		}
	}
	return "", false
}

func opRuleValues() []any {
	ops := Ops()
	out := make([]any, len(ops))
	for i, op := range ops {
		out[i] = op
	}
	return out
}

func argumentError(err error, message string, meta map[string]any) error {
	e := goerrors.FromOzzoValidation(err, message)
	if e == nil {
		return nil
	}
	e.Category = goerrors.CategoryBadInput
	e = e.WithTextCode(TextCodeInvalidArgument)
	if len(meta) > 0 {
		e = e.WithMetadata(meta)
	}
	return e
}

// IsArgumentError reports whether err was produced for malformed query input.
func IsArgumentError(err error) bool {
	var e *goerrors.Error
	if !goerrors.As(err, &e) {
		return false
	}
	return e.TextCode == TextCodeInvalidArgument
}
