package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/prototab/prototab/schema"
)

// loadSingleProtoFile parses one .proto file with go-protoparser and stores
// its schema form. Field type references stay unresolved until the whole
// schema set is loaded.
func (r *Registry) loadSingleProtoFile(filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	parsed, err := protoparser.Parse(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	protoFile := &schema.ProtoFile{
		Name:   filepath.Base(filePath),
		Syntax: "proto3", // Default
	}
	if parsed.Syntax != nil {
		protoFile.Syntax = parsed.Syntax.ProtobufVersion
	}

	for _, body := range parsed.ProtoBody {
		switch b := body.(type) {
		case *protoparserparser.Package:
			protoFile.Package = b.Name
		case *protoparserparser.Message:
			msg, err := convertMessage(b)
			if err != nil {
				return fmt.Errorf("message %s: %w", b.MessageName, err)
			}
			protoFile.Messages = append(protoFile.Messages, msg)
		case *protoparserparser.Enum:
			enum, err := convertEnum(b)
			if err != nil {
				return fmt.Errorf("enum %s: %w", b.EnumName, err)
			}
			protoFile.Enums = append(protoFile.Enums, enum)
		}
	}

	r.files[filePath] = protoFile
	return nil
}

// convertMessage converts a parsed message body, recursing into nested
// definitions.
func convertMessage(m *protoparserparser.Message) (*schema.Message, error) {
	msg := &schema.Message{
		Name: m.MessageName,
	}

	for _, body := range m.MessageBody {
		switch b := body.(type) {
		case *protoparserparser.Field:
			field, err := convertField(b)
			if err != nil {
				return nil, err
			}
			msg.Fields = append(msg.Fields, field)

		case *protoparserparser.MapField:
			field, err := convertMapField(b)
			if err != nil {
				return nil, err
			}
			msg.Fields = append(msg.Fields, field)

		case *protoparserparser.Oneof:
			oneof := &schema.Oneof{Name: b.OneofName}
			for _, of := range b.OneofFields {
				number, err := parseFieldNumber(of.FieldNumber, of.FieldName)
				if err != nil {
					return nil, err
				}
				oneof.Fields = append(oneof.Fields, &schema.Field{
					Name:   of.FieldName,
					Number: number,
					Label:  schema.LabelOptional,
					Type:   typeRef(of.Type),
				})
			}
			msg.OneofGroups = append(msg.OneofGroups, oneof)

		case *protoparserparser.Message:
			nested, err := convertMessage(b)
			if err != nil {
				return nil, err
			}
			msg.NestedTypes = append(msg.NestedTypes, nested)

		case *protoparserparser.Enum:
			nested, err := convertEnum(b)
			if err != nil {
				return nil, err
			}
			msg.NestedEnums = append(msg.NestedEnums, nested)
		}
	}

	return msg, nil
}

// convertField converts a normal (non-map) field definition.
func convertField(f *protoparserparser.Field) (*schema.Field, error) {
	number, err := parseFieldNumber(f.FieldNumber, f.FieldName)
	if err != nil {
		return nil, err
	}

	label := schema.LabelOptional
	switch {
	case f.IsRepeated:
		label = schema.LabelRepeated
	case f.IsRequired:
		label = schema.LabelRequired
	}

	return &schema.Field{
		Name:   f.FieldName,
		Number: number,
		Label:  label,
		Type:   typeRef(f.Type),
	}, nil
}

// convertMapField converts a map<K,V> field. Map keys must be integral or
// string primitives per the protobuf language.
func convertMapField(f *protoparserparser.MapField) (*schema.Field, error) {
	number, err := parseFieldNumber(f.FieldNumber, f.MapName)
	if err != nil {
		return nil, err
	}

	switch schema.PrimitiveType(f.KeyType) {
	case schema.TypeFloat, schema.TypeDouble, schema.TypeBytes:
		return nil, fmt.Errorf("map field %s: %s is not a valid map key type", f.MapName, f.KeyType)
	}
	if !schema.IsPrimitiveType(f.KeyType) {
		return nil, fmt.Errorf("map field %s: key type %s is not a primitive", f.MapName, f.KeyType)
	}
	keyType := typeRef(f.KeyType)
	valueType := typeRef(f.Type)

	return &schema.Field{
		Name:   f.MapName,
		Number: number,
		Label:  schema.LabelOptional,
		Type: schema.FieldType{
			Kind:     schema.KindMap,
			MapKey:   &keyType,
			MapValue: &valueType,
		},
	}, nil
}

// convertEnum converts a parsed enum body.
func convertEnum(e *protoparserparser.Enum) (*schema.Enum, error) {
	enum := &schema.Enum{
		Name: e.EnumName,
	}

	for _, body := range e.EnumBody {
		switch b := body.(type) {
		case *protoparserparser.EnumField:
			number, err := strconv.ParseInt(b.Number, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("enum value %s: invalid number %q", b.Ident, b.Number)
			}
			enum.Values = append(enum.Values, &schema.EnumValue{
				Name:   b.Ident,
				Number: int32(number),
			})
		case *protoparserparser.Option:
			if b.OptionName == "allow_alias" && b.Constant == "true" {
				enum.AllowAlias = true
			}
		}
	}

	return enum, nil
}

// typeRef maps a parsed type name either to its primitive FieldType or to
// an unresolved reference carrying the raw name. References are resolved
// against the symbol table once every file is loaded.
func typeRef(name string) schema.FieldType {
	if schema.IsPrimitiveType(name) {
		return schema.FieldType{
			Kind:          schema.KindPrimitive,
			PrimitiveType: schema.PrimitiveType(name),
		}
	}
	return schema.FieldType{MessageType: name}
}

func parseFieldNumber(raw, fieldName string) (int32, error) {
	number, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || number <= 0 {
		return 0, fmt.Errorf("field %s: invalid field number %q", fieldName, raw)
	}
	return int32(number), nil
}

// resolveMessage resolves every field type reference of msg and its nested
// messages. scope is the message's fully qualified name; inner references
// are looked up from the innermost scope outwards, the way protobuf name
// resolution works.
func (r *Registry) resolveMessage(scope string, msg *schema.Message) error {
	resolveAll := func(fields []*schema.Field) error {
		for _, field := range fields {
			if err := r.resolveFieldType(&field.Type, scope); err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
		}
		return nil
	}

	if err := resolveAll(msg.Fields); err != nil {
		return fmt.Errorf("message %s: %w", scope, err)
	}
	for _, oneof := range msg.OneofGroups {
		if err := resolveAll(oneof.Fields); err != nil {
			return fmt.Errorf("message %s: %w", scope, err)
		}
	}

	for _, nested := range msg.NestedTypes {
		if err := r.resolveMessage(scope+"."+nested.Name, nested); err != nil {
			return err
		}
	}

	return nil
}

// resolveFieldType rewrites an unresolved type reference into a fully
// qualified message or enum type.
func (r *Registry) resolveFieldType(ft *schema.FieldType, scope string) error {
	switch ft.Kind {
	case schema.KindPrimitive:
		return nil
	case schema.KindMap:
		return r.resolveFieldType(ft.MapValue, scope)
	case "":
		// unresolved reference, carried in MessageType
	default:
		return nil
	}

	name := ft.MessageType
	fullName, kind, ok := r.lookupType(name, scope)
	if !ok {
		return fmt.Errorf("unable to resolve type name: %s", name)
	}

	if kind == schema.KindEnum {
		ft.Kind = schema.KindEnum
		ft.EnumType = fullName
		ft.MessageType = ""
		return nil
	}
	ft.Kind = schema.KindMessage
	ft.MessageType = fullName
	return nil
}

// lookupType finds the fully qualified name for a type reference, trying
// each enclosing scope from innermost to outermost, then the bare name.
// A leading dot forces a fully qualified lookup.
func (r *Registry) lookupType(name, scope string) (string, schema.TypeKind, bool) {
	if strings.HasPrefix(name, ".") {
		return r.checkType(strings.TrimPrefix(name, "."))
	}

	scopeParts := strings.Split(scope, ".")
	for i := len(scopeParts); i > 0; i-- {
		candidate := strings.Join(scopeParts[:i], ".") + "." + name
		if full, kind, ok := r.checkType(candidate); ok {
			return full, kind, ok
		}
	}
	return r.checkType(name)
}

func (r *Registry) checkType(fullName string) (string, schema.TypeKind, bool) {
	if _, ok := r.messages[fullName]; ok {
		return fullName, schema.KindMessage, true
	}
	if _, ok := r.enums[fullName]; ok {
		return fullName, schema.KindEnum, true
	}
	return "", "", false
}
