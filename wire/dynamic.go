package wire

import (
	"fmt"

	"github.com/prototab/prototab/registry"
	"github.com/prototab/prototab/schema"
)

// DecodeMessage decodes protobuf bytes using schema - main entry point.
// Every declared field is resolved through the field combinators: singular
// fields are last-wins, packed-eligible repeated primitives go through the
// packed decoder with unpacked fallback, and embedded message fields merge
// across occurrences. Fields absent from the wire stay absent from the
// result map; unknown field numbers on the wire are ignored.
func DecodeMessage(data []byte, msg *schema.Message, reg *registry.Registry) (map[string]interface{}, error) {
	return ParseMessage(data, &dynamicCodec{msg: msg, reg: reg})
}

// dynamicCodec is the MessageCodec for schema-described messages, producing
// map[string]interface{} values keyed by field name.
type dynamicCodec struct {
	msg *schema.Message
	reg *registry.Registry
}

func (c *dynamicCodec) Zero() map[string]interface{} {
	return nil
}

func (c *dynamicCodec) Parse(tab *Table) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for _, field := range c.msg.Fields {
		if err := c.decodeField(tab, field, result); err != nil {
			return nil, err
		}
	}
	for _, oneof := range c.msg.OneofGroups {
		for _, field := range oneof.Fields {
			if err := c.decodeField(tab, field, result); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// Merge combines two decoded instances under protobuf merge semantics:
// nested messages merge recursively, repeated fields concatenate, map
// fields merge per key, and everything else is overwritten by src.
func (c *dynamicCodec) Merge(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		return src
	}
	for key, sv := range src {
		if dv, exists := dst[key]; exists {
			if dm, ok := dv.(map[string]interface{}); ok {
				if sm, ok := sv.(map[string]interface{}); ok {
					dst[key] = c.Merge(dm, sm)
					continue
				}
			}
			if dl, ok := dv.([]interface{}); ok {
				if sl, ok := sv.([]interface{}); ok {
					dst[key] = append(dl, sl...)
					continue
				}
			}
			if dmap, ok := dv.(map[interface{}]interface{}); ok {
				if smap, ok := sv.(map[interface{}]interface{}); ok {
					for k, v := range smap {
						dmap[k] = v
					}
					continue
				}
			}
		}
		dst[key] = sv
	}
	return dst
}

// decodeField resolves one declared field out of the table into result.
func (c *dynamicCodec) decodeField(tab *Table, field *schema.Field, result map[string]interface{}) error {
	num := FieldNumber(field.Number)

	switch field.Type.Kind {
	case schema.KindPrimitive:
		return c.decodePrimitiveField(tab, field, num, result)
	case schema.KindEnum:
		return c.decodeEnumField(tab, field, num, result)
	case schema.KindMessage:
		return c.decodeMessageField(tab, field, num, result)
	case schema.KindMap:
		return c.decodeMapField(tab, field, num, result)
	default:
		return fmt.Errorf("field %s: unsupported field kind %s", field.Name, field.Type.Kind)
	}
}

func (c *dynamicCodec) decodePrimitiveField(tab *Table, field *schema.Field, num FieldNumber, result map[string]interface{}) error {
	codec, ok := primitiveCodecs[field.Type.PrimitiveType]
	if !ok {
		return fmt.Errorf("field %s: unsupported primitive type %s", field.Name, field.Type.PrimitiveType)
	}

	if field.Label == schema.LabelRepeated {
		var vals []interface{}
		var err error
		if schema.IsPackedType(field.Type.PrimitiveType) {
			vals, err = Packed[interface{}](tab, num, codec)
		} else {
			vals, err = Repeated[interface{}](tab, num, codec)
		}
		if err != nil {
			return wrapWithField(err, field.Name)
		}
		if len(vals) > 0 {
			result[field.Name] = vals
		}
		return nil
	}

	v, present := tab.Last(num)
	if !present {
		return nil
	}
	val, err := codec.Decode(v)
	if err != nil {
		return wrapWithField(err, field.Name)
	}
	result[field.Name] = val
	return nil
}

func (c *dynamicCodec) decodeEnumField(tab *Table, field *schema.Field, num FieldNumber, result map[string]interface{}) error {
	enumCodec := Enum[int32]()

	if field.Label == schema.LabelRepeated {
		nums, err := Packed[int32](tab, num, enumCodec)
		if err != nil {
			return wrapWithField(err, field.Name)
		}
		if len(nums) == 0 {
			return nil
		}
		vals := make([]interface{}, len(nums))
		for i, n := range nums {
			vals[i] = c.enumValue(field.Type.EnumType, n)
		}
		result[field.Name] = vals
		return nil
	}

	v, present := tab.Last(num)
	if !present {
		return nil
	}
	n, err := enumCodec.Decode(v)
	if err != nil {
		return wrapWithField(err, field.Name)
	}
	result[field.Name] = c.enumValue(field.Type.EnumType, n)
	return nil
}

// enumValue maps an enum number to its declared name. Numbers with no
// declared name surface as int32: protobuf enums accept unknown integers.
func (c *dynamicCodec) enumValue(enumType string, n int32) interface{} {
	if c.reg != nil {
		if enum, err := c.reg.GetEnum(enumType); err == nil {
			for _, ev := range enum.Values {
				if ev.Number == n {
					return ev.Name
				}
			}
		}
	}
	return n
}

func (c *dynamicCodec) decodeMessageField(tab *Table, field *schema.Field, num FieldNumber, result map[string]interface{}) error {
	var nested *schema.Message
	if c.reg != nil {
		nested, _ = c.reg.GetMessage(field.Type.MessageType)
	}

	// Schema not available: surface the raw payload bytes
	if nested == nil {
		return c.decodeRawMessageField(tab, field, num, result)
	}

	child := &dynamicCodec{msg: nested, reg: c.reg}

	if field.Label == schema.LabelRepeated {
		msgs, err := EmbeddedList[map[string]interface{}](tab, num, child)
		if err != nil {
			return wrapWithField(err, field.Name)
		}
		if len(msgs) == 0 {
			return nil
		}
		vals := make([]interface{}, len(msgs))
		for i, m := range msgs {
			vals[i] = m
		}
		result[field.Name] = vals
		return nil
	}

	m, err := Embedded[map[string]interface{}](tab, num, child)
	if err != nil {
		return wrapWithField(err, field.Name)
	}
	if m != nil {
		result[field.Name] = m
	}
	return nil
}

func (c *dynamicCodec) decodeRawMessageField(tab *Table, field *schema.Field, num FieldNumber, result map[string]interface{}) error {
	if field.Label == schema.LabelRepeated {
		vals, err := Repeated[[]byte](tab, num, Bytes)
		if err != nil {
			return wrapWithField(err, field.Name)
		}
		if len(vals) == 0 {
			return nil
		}
		out := make([]interface{}, len(vals))
		for i, v := range vals {
			out[i] = v
		}
		result[field.Name] = out
		return nil
	}

	v, present := tab.Last(num)
	if !present {
		return nil
	}
	payload, err := v.Bytes()
	if err != nil {
		return wrapWithField(err, field.Name)
	}
	result[field.Name] = payload
	return nil
}

func (c *dynamicCodec) decodeMapField(tab *Table, field *schema.Field, num FieldNumber, result map[string]interface{}) error {
	if c.reg == nil {
		return fmt.Errorf("registry is required to decode map field %s", field.Name)
	}
	entryMsg, err := c.reg.GetOrCreateMapEntryMessage(field.Name, field.Type.MapKey, field.Type.MapValue)
	if err != nil {
		return wrapWithField(err, field.Name)
	}

	child := &dynamicCodec{msg: entryMsg, reg: c.reg}
	entries, err := EmbeddedList[map[string]interface{}](tab, num, child)
	if err != nil {
		return wrapWithField(err, field.Name)
	}
	if len(entries) == 0 {
		return nil
	}

	m := make(map[interface{}]interface{}, len(entries))
	for _, entry := range entries {
		key, ok := entry["key"]
		if !ok {
			key = c.zeroValue(field.Type.MapKey)
		}
		val, ok := entry["value"]
		if !ok {
			val = c.zeroValue(field.Type.MapValue)
		}
		m[key] = val
	}
	result[field.Name] = m
	return nil
}

// zeroValue returns the default for a map entry's absent key or value.
func (c *dynamicCodec) zeroValue(ft *schema.FieldType) interface{} {
	switch ft.Kind {
	case schema.KindPrimitive:
		if codec, ok := primitiveCodecs[ft.PrimitiveType]; ok {
			return codec.Zero()
		}
		return nil
	case schema.KindEnum:
		return c.enumValue(ft.EnumType, 0)
	case schema.KindMessage:
		return map[string]interface{}{}
	default:
		return nil
	}
}

// ===== TYPE-ERASED PRIMITIVE CODECS =====

// anyCodec erases a typed codec so schema-driven decoding can route every
// primitive through the same combinators.
type anyCodec struct {
	zeroFn   func() interface{}
	decodeFn func(Value) (interface{}, error)
	packedFn func([]byte) ([]interface{}, error)
}

func (c anyCodec) Zero() interface{} {
	return c.zeroFn()
}

func (c anyCodec) Decode(v Value) (interface{}, error) {
	return c.decodeFn(v)
}

func (c anyCodec) DecodePacked(payload []byte) ([]interface{}, error) {
	return c.packedFn(payload)
}

func erase[T any](c PackedCodec[T]) anyCodec {
	return anyCodec{
		zeroFn:   func() interface{} { return c.Zero() },
		decodeFn: func(v Value) (interface{}, error) { return c.Decode(v) },
		packedFn: func(payload []byte) ([]interface{}, error) {
			vals, err := c.DecodePacked(payload)
			if err != nil {
				return nil, err
			}
			out := make([]interface{}, len(vals))
			for i, v := range vals {
				out[i] = v
			}
			return out, nil
		},
	}
}

func eraseScalar[T any](c Codec[T]) anyCodec {
	return anyCodec{
		zeroFn:   func() interface{} { return c.Zero() },
		decodeFn: func(v Value) (interface{}, error) { return c.Decode(v) },
		packedFn: func(payload []byte) ([]interface{}, error) {
			return nil, &MalformedError{Kind: "packed", Err: fmt.Errorf("type is not packable")}
		},
	}
}

var primitiveCodecs = map[schema.PrimitiveType]anyCodec{
	schema.TypeBool:     erase[bool](Bool),
	schema.TypeInt32:    erase[int32](Int32),
	schema.TypeInt64:    erase[int64](Int64),
	schema.TypeUint32:   erase[uint32](Uint32),
	schema.TypeUint64:   erase[uint64](Uint64),
	schema.TypeSint32:   erase[int32](Sint32),
	schema.TypeSint64:   erase[int64](Sint64),
	schema.TypeFixed32:  erase[uint32](Fixed32),
	schema.TypeSfixed32: erase[int32](Sfixed32),
	schema.TypeFloat:    erase[float32](Float),
	schema.TypeFixed64:  erase[uint64](Fixed64),
	schema.TypeSfixed64: erase[int64](Sfixed64),
	schema.TypeDouble:   erase[float64](Double),
	schema.TypeString:   eraseScalar[string](String),
	schema.TypeBytes:    eraseScalar[[]byte](Bytes),
}
