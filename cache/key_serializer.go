package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// KeyPrefix joins parts and terminates the result with KeySeparator, so the
// prefix for "campaign" never matches keys of "campaigns".
func KeyPrefix(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteString(KeySeparator)
	}
	return b.String()
}

// defaultKeySerializer implements KeySerializer using reflection-based serialization.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds namespace::method::arg1::arg2. An empty namespace is
// left out.
func (s *defaultKeySerializer) SerializeKey(namespace, method string, args ...any) string {
	parts := make([]string, 0, len(args)+2)
	if namespace != "" {
		parts = append(parts, namespace)
	}
	parts = append(parts, method)

	for _, arg := range args {
		parts = append(parts, serializeValue(arg))
	}

	return strings.Join(parts, KeySeparator)
}

// serializeArgs renders only the argument segments.
func serializeArgs(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = serializeValue(arg)
	}
	return strings.Join(parts, KeySeparator)
}

func serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	if kp, ok := v.(KeyPart); ok {
		return kp.CacheKey()
	}

	rv := reflect.ValueOf(v)

	// pointers are dereferenced first so a nil receiver is never called
	if st, ok := v.(fmt.Stringer); ok && rv.Kind() != reflect.Ptr {
		return st.String()
	}


	switch rv.Kind() {
	case reflect.Func:
		// only stable for the lifetime of the process
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return serializeValue(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return "slice" + serializeSequence(rv)
	case reflect.Array:
		return "array" + serializeSequence(rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return serializeMap(rv)
	case reflect.Struct:
		return serializeStruct(rv)
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return fmt.Sprintf("%v", v)
	}

	return fallback(v)
}

func serializeSequence(rv reflect.Value) string {
	n := rv.Len()
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("[%d]:{%s}", n, strings.Join(parts, ","))
}

// serializeMap sorts pairs by their serialized key for determinism.
func serializeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, serializeValue(iter.Key().Interface())+"="+serializeValue(iter.Value().Interface()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

// serializeStruct renders exported fields as Name:value.
func serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := rv.Field(i)
		if !fv.CanInterface() {
			continue
		}
		parts = append(parts, field.Name+":"+serializeValue(fv.Interface()))
	}

	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

// fallback encodes unknown kinds with msgpack, and settles for the type name
// when even that fails.
func fallback(v any) string {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return fmt.Sprintf("msgpack:%x", data)
}

// hashedKeySerializer keeps namespace and method readable so prefix
// invalidation still works, and replaces the argument segment with its
// xxhash digest.
type hashedKeySerializer struct{}

// NewHashedKeySerializer returns a serializer producing short, fixed length
// keys. Digests are stable across processes for args that serialize stably.
func NewHashedKeySerializer() KeySerializer {
	return &hashedKeySerializer{}
}

func (s *hashedKeySerializer) SerializeKey(namespace, method string, args ...any) string {
	prefix := KeyPrefix(namespace, method)
	if len(args) == 0 {
		return strings.TrimSuffix(prefix, KeySeparator)
	}
	return prefix + strconv.FormatUint(xxhash.Sum64String(serializeArgs(args)), 16)
}
