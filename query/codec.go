package query

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// wire tags for Value
const (
	tagAbsent = "null"
	tagText   = "text"
	tagNumber = "int"
	tagBool   = "bool"
)

var (
	_ msgpack.CustomEncoder = Value{}
	_ msgpack.CustomDecoder = (*Value)(nil)
	_ msgpack.CustomEncoder = Criteria{}
	_ msgpack.CustomDecoder = (*Criteria)(nil)
	_ msgpack.CustomEncoder = Args{}
	_ msgpack.CustomDecoder = (*Args)(nil)
)

// EncodeMsgpack writes [tag] for Absent and [tag, payload] otherwise.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch v.kind {
	case KindAbsent:
		if err := enc.EncodeArrayLen(1); err != nil {
			return err
		}
		return enc.EncodeString(tagAbsent)
	case KindText:
		if err := enc.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := enc.EncodeString(tagText); err != nil {
			return err
		}
		return enc.EncodeString(v.text)
	case KindNumber:
		if err := enc.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := enc.EncodeString(tagNumber); err != nil {
			return err
		}
		return enc.EncodeInt(v.num)
	case KindBool:
		if err := enc.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := enc.EncodeString(tagBool); err != nil {
			return err
		}
		return enc.EncodeBool(v.flag)
	default:
		return fmt.Errorf("query: cannot encode value of %s", v.kind)
	}
}

func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n < 1 {
		*v = Absent()
		return nil
	}
	tag, err := dec.DecodeString()
	if err != nil {
		return err
	}

	switch tag {
	case tagAbsent:
		if n != 1 {
			return fmt.Errorf("query: null value with %d elements", n)
		}
		*v = Absent()
	case tagText:
		if n != 2 {
			return fmt.Errorf("query: text value with %d elements", n)
		}
		s, err := dec.DecodeString()
		if err != nil {
			return err
		}
		*v = Text(s)
	case tagNumber:
		if n != 2 {
			return fmt.Errorf("query: int value with %d elements", n)
		}
		i, err := dec.DecodeInt64()
		if err != nil {
			return err
		}
		*v = Number(i)
	case tagBool:
		if n != 2 {
			return fmt.Errorf("query: bool value with %d elements", n)
		}
		b, err := dec.DecodeBool()
		if err != nil {
			return err
		}
		*v = Bool(b)
	default:
		return fmt.Errorf("query: unknown value tag %q", tag)
	}
	return nil
}

// EncodeMsgpack writes nil for NoCriteria and an array of [key, op, value]
// triples otherwise.
func (c Criteria) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !c.present {
		return enc.EncodeNil()
	}
	if err := enc.EncodeArrayLen(len(c.predicates)); err != nil {
		return err
	}
	for _, p := range c.predicates {
		if err := enc.EncodeArrayLen(3); err != nil {
			return err
		}
		if err := enc.EncodeString(p.Key); err != nil {
			return err
		}
		if err := enc.EncodeString(string(p.Op)); err != nil {
			return err
		}
		if err := p.Value.EncodeMsgpack(enc); err != nil {
			return err
		}
	}
	return nil
}

func (c *Criteria) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n < 0 {
		*c = NoCriteria
		return nil
	}

	predicates := make([]Predicate, 0, n)
	for i := 0; i < n; i++ {
		size, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		if size != 3 {
			return fmt.Errorf("query: predicate %d has %d elements", i, size)
		}
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		op, err := dec.DecodeString()
		if err != nil {
			return err
		}
		var value Value
		if err := value.DecodeMsgpack(dec); err != nil {
			return err
		}
		predicates = append(predicates, Predicate{Key: key, Op: Op(op), Value: value})
	}
	*c = Some(predicates...)
	return nil
}

// EncodeMsgpack writes the positional [criteria, order, limit] triple.
// Orders are [key, dir] pairs; the limit is nil or [offset, size].
func (a Args) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(3); err != nil {
		return err
	}
	if err := a.Criteria.EncodeMsgpack(enc); err != nil {
		return err
	}

	if err := enc.EncodeArrayLen(len(a.Order)); err != nil {
		return err
	}
	for _, o := range a.Order {
		if err := enc.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := enc.EncodeString(o.Key); err != nil {
			return err
		}
		if err := enc.EncodeString(string(o.Dir)); err != nil {
			return err
		}
	}

	if a.Limit == nil {
		return enc.EncodeNil()
	}
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeInt(int64(a.Limit.Offset)); err != nil {
		return err
	}
	return enc.EncodeInt(int64(a.Limit.Size))
}

func (a *Args) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 3 {
		return fmt.Errorf("query: args with %d elements", n)
	}

	var out Args
	if err := out.Criteria.DecodeMsgpack(dec); err != nil {
		return err
	}

	orders, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	for i := 0; i < orders; i++ {
		size, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		if size != 2 {
			return fmt.Errorf("query: order %d has %d elements", i, size)
		}
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		dir, err := dec.DecodeString()
		if err != nil {
			return err
		}
		out.Order = append(out.Order, Order{Key: key, Dir: Direction(dir)})
	}

	size, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if size >= 0 {
		if size != 2 {
			return fmt.Errorf("query: limit has %d elements", size)
		}
		offset, err := dec.DecodeInt64()
		if err != nil {
			return err
		}
		count, err := dec.DecodeInt64()
		if err != nil {
			return err
		}
		out.Limit = &Limit{Offset: int(offset), Size: int(count)}
	}

	*a = out
	return nil
}
