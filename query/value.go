package query

import (
	"fmt"
	"math"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindText
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged primitive used as a predicate operand. The remote call
// format is a tagged union, so every operand carries its kind explicitly
// instead of relying on runtime inspection at encode time.
type Value struct {
	kind Kind
	text string
	num  int64
	flag bool
}

// Text wraps a string operand.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number wraps an integer operand.
func Number(n int64) Value { return Value{kind: KindNumber, num: n} }

// Bool wraps a boolean operand.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Absent is the null marker.
func Absent() Value { return Value{} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Text() (string, bool) { return v.text, v.kind == KindText }

func (v Value) Number() (int64, bool) { return v.num, v.kind == KindNumber }

func (v Value) Bool() (bool, bool) { return v.flag, v.kind == KindBool }

// IsEmpty reports whether the operand would leave a predicate without a value:
// the null marker or an empty string.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindAbsent:
		return true
	case KindText:
		return v.text == ""
	default:
		return false
	}
}

// Interface returns the host representation: string, int64, bool or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindBool:
		return v.flag
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return strconv.Quote(v.text)
	case KindNumber:
		return strconv.FormatInt(v.num, 10)
	case KindBool:
		return strconv.FormatBool(v.flag)
	default:
		return "null"
	}
}

// CacheKey renders a stable key segment for the cache key serializer.
func (v Value) CacheKey() string {
	return v.kind.String() + ":" + v.String()
}

// ValueOf infers the tagged variant from a host value. Pointers are followed,
// nil maps to Absent. Anything that is not a string, integer or bool is an
// argument error.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Absent(), nil
	case Value:
		return x, nil
	case *Value:
		if x == nil {
			return Absent(), nil
		}
		return *x, nil
	case string:
		return Text(x), nil
	case *string:
		if x == nil {
			return Absent(), nil
		}
		return Text(*x), nil
	case bool:
		return Bool(x), nil
	case *bool:
		if x == nil {
			return Absent(), nil
		}
		return Bool(*x), nil
	case int:
		return Number(int64(x)), nil
	case *int:
		if x == nil {
			return Absent(), nil
		}
		return Number(int64(*x)), nil
	case int8:
		return Number(int64(x)), nil
	case int16:
		return Number(int64(x)), nil
	case int32:
		return Number(int64(x)), nil
	case int64:
		return Number(x), nil
	case *int64:
		if x == nil {
			return Absent(), nil
		}
		return Number(*x), nil
	case uint8:
		return Number(int64(x)), nil
	case uint16:
		return Number(int64(x)), nil
	case uint32:
		return Number(int64(x)), nil
	case uint:
		return unsignedValue(uint64(x))
	case uint64:
		return unsignedValue(x)
	default:
		return Value{}, goerrors.New(fmt.Sprintf("unsupported filter value type %T", v), goerrors.CategoryBadInput).
			WithTextCode(TextCodeInvalidArgument)
	}
}

func unsignedValue(n uint64) (Value, error) {
	if n > math.MaxInt64 {
		return Value{}, goerrors.New("filter value overflows int64", goerrors.CategoryBadInput).
			WithTextCode(TextCodeInvalidArgument).
			WithMetadata(map[string]any{"value": n})
	}
	return Number(int64(n)), nil
}
