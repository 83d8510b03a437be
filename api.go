// Package prototab decodes Protocol-Buffers-encoded buffers into strongly
// typed values by interpreting a field table: the wire fields of a buffer
// grouped by field number. The wire package is the decoding core; this
// package is the schema-aware facade over it.
package prototab

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/prototab/prototab/registry"
	"github.com/prototab/prototab/schema"
	"github.com/prototab/prototab/wire"
)

// Prototab provides schema-aware protobuf decoding without generated code
type Prototab struct {
	registry *registry.Registry
}

// New creates a new Prototab instance
func New() *Prototab {
	return &Prototab{
		registry: registry.NewRegistry(),
	}
}

// LoadSchema loads .proto definitions from a file or directory tree.
func (p *Prototab) LoadSchema(protoPath string) error {
	return p.registry.LoadSchema(protoPath)
}

// Parse decodes protobuf bytes using the schema-aware decoder
func (p *Prototab) Parse(data []byte, messageType string) (map[string]interface{}, error) {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}

	return wire.DecodeMessage(data, msg, p.registry)
}

// Unmarshal decodes protobuf bytes into a Go struct using reflection. The
// struct type's name selects the message schema; struct field names are
// matched against proto field names by their snake_case form.
func (p *Prototab) Unmarshal(data []byte, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct")
	}

	messageType := rv.Elem().Type().Name()
	result, err := p.Parse(data, messageType)
	if err != nil {
		return err
	}

	return mapToStruct(result, rv.Elem())
}

// mapToStruct maps parsed result to struct fields
func mapToStruct(data map[string]interface{}, rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fieldValue := rv.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		value, ok := data[field.Name]
		if !ok {
			value, ok = data[toSnakeCase(field.Name)]
		}
		if !ok {
			continue
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set field %s: %v", field.Name, err)
		}
	}
	return nil
}

// setFieldValue sets a struct field with type conversion
func setFieldValue(fieldValue reflect.Value, value interface{}) error {
	if value == nil {
		return nil
	}

	sourceValue := reflect.ValueOf(value)
	if sourceValue.Type().AssignableTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue)
		return nil
	}

	if sourceValue.Type().ConvertibleTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue.Convert(fieldValue.Type()))
		return nil
	}

	// Repeated fields arrive as []interface{}; convert element-wise.
	if elems, ok := value.([]interface{}); ok && fieldValue.Kind() == reflect.Slice {
		out := reflect.MakeSlice(fieldValue.Type(), len(elems), len(elems))
		for i, elem := range elems {
			if err := setFieldValue(out.Index(i), elem); err != nil {
				return err
			}
		}
		fieldValue.Set(out)
		return nil
	}

	// Embedded messages arrive as map[string]interface{}; recurse into
	// struct-typed fields.
	if nested, ok := value.(map[string]interface{}); ok && fieldValue.Kind() == reflect.Struct {
		return mapToStruct(nested, fieldValue)
	}

	return fmt.Errorf("cannot convert %T to %s", value, fieldValue.Type())
}

// toSnakeCase converts a Go field name like UserName to user_name.
func toSnakeCase(s string) string {
	var out strings.Builder
	for i, c := range s {
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				out.WriteByte('_')
			}
			out.WriteRune(c - 'A' + 'a')
			continue
		}
		out.WriteRune(c)
	}
	return out.String()
}

// ===== REGISTRY ACCESS =====

func (p *Prototab) GetRegistry() *registry.Registry { return p.registry }
func (p *Prototab) ListMessages() []string          { return p.registry.ListMessages() }
func (p *Prototab) ListEnums() []string             { return p.registry.ListEnums() }

// GetMessage retrieves a loaded message schema by name.
func (p *Prototab) GetMessage(name string) (*schema.Message, error) {
	return p.registry.GetMessage(name)
}
