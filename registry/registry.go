package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/prototab/prototab/schema"
)

// Registry stores the schema of known protobuf messages. Decoders look
// message and enum definitions up here when interpreting embedded message
// and enum fields.
type Registry struct {
	files    map[string]*schema.ProtoFile
	messages map[string]*schema.Message // fully qualified name -> message
	enums    map[string]*schema.Enum    // fully qualified name -> enum
}

func NewRegistry() *Registry {
	return &Registry{
		files:    make(map[string]*schema.ProtoFile),
		messages: make(map[string]*schema.Message),
		enums:    make(map[string]*schema.Enum),
	}
}

// LoadSchema loads .proto definitions from a file, or recursively from
// every *.proto file under a directory.
func (r *Registry) LoadSchema(protoPath string) error {
	info, err := os.Stat(protoPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	// If it's a single file, process it directly
	if !info.IsDir() {
		if !strings.HasSuffix(protoPath, ".proto") {
			return fmt.Errorf("file %s is not a .proto file", protoPath)
		}
		if err := r.loadSingleProtoFile(protoPath); err != nil {
			return fmt.Errorf("failed to load proto file: %w", err)
		}
	} else {
		// If it's a directory, walk through it recursively
		err = filepath.WalkDir(protoPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			// Skip directories and non-proto files
			if d.IsDir() || !strings.HasSuffix(path, ".proto") {
				return nil
			}

			if err := r.loadSingleProtoFile(path); err != nil {
				return fmt.Errorf("failed to load proto file %s: %w", path, err)
			}

			return nil
		})

		if err != nil {
			return fmt.Errorf("failed to walk directory: %w", err)
		}
	}

	// After loading all files, populate the symbol table and resolve
	// every field's type reference.
	if err := r.buildSymbolTable(); err != nil {
		return fmt.Errorf("failed to build symbol table: %w", err)
	}

	return nil
}

// buildSymbolTable registers all names, then resolves field type references
// against them.
func (r *Registry) buildSymbolTable() error {
	// Pass 1: Register all message and enum names
	for _, protoFile := range r.files {
		pkg := protoFile.Package
		for _, msg := range protoFile.Messages {
			r.registerMessage(r.getFullName(pkg, msg.Name), msg)
		}
		for _, enum := range protoFile.Enums {
			r.enums[r.getFullName(pkg, enum.Name)] = enum
		}
	}

	// Pass 2: Resolve field types now that every name is known
	for _, protoFile := range r.files {
		pkg := protoFile.Package
		for _, msg := range protoFile.Messages {
			if err := r.resolveMessage(r.getFullName(pkg, msg.Name), msg); err != nil {
				return err
			}
		}
	}

	return nil
}

// registerMessage registers a message and, recursively, its nested types
// under their fully qualified names.
func (r *Registry) registerMessage(fullName string, msg *schema.Message) {
	r.messages[fullName] = msg
	for _, nested := range msg.NestedTypes {
		r.registerMessage(fullName+"."+nested.Name, nested)
	}
	for _, nestedEnum := range msg.NestedEnums {
		r.enums[fullName+"."+nestedEnum.Name] = nestedEnum
	}
}

func (r *Registry) getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// GetMessage retrieves a message definition by name
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}

	// Try without package prefix
	for fullName, msg := range r.messages {
		if strings.HasSuffix(fullName, "."+name) {
			return msg, nil
		}
	}

	return nil, fmt.Errorf("message not found: %s", name)
}

// GetEnum retrieves an enum definition by name
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	if enum, exists := r.enums[name]; exists {
		return enum, nil
	}

	// Try without package prefix
	for fullName, enum := range r.enums {
		if strings.HasSuffix(fullName, "."+name) {
			return enum, nil
		}
	}

	return nil, fmt.Errorf("enum not found: %s", name)
}

// ListMessages returns all registered message names
func (r *Registry) ListMessages() []string {
	var names []string
	for name := range r.messages {
		names = append(names, name)
	}
	return names
}

// ListEnums returns all registered enum names
func (r *Registry) ListEnums() []string {
	var names []string
	for name := range r.enums {
		names = append(names, name)
	}
	return names
}

// GetOrCreateMapEntryMessage creates a synthetic message type for map entries
func (r *Registry) GetOrCreateMapEntryMessage(mapFieldName string, keyType, valueType *schema.FieldType) (*schema.Message, error) {
	entryTypeName := mapFieldName + "Entry"

	// Check if already exists
	if msg, exists := r.messages[entryTypeName]; exists {
		return msg, nil
	}

	// Create synthetic map entry message
	mapEntryMessage := &schema.Message{
		Name:     entryTypeName,
		MapEntry: true,
		Fields: []*schema.Field{
			{
				Name:   "key",
				Number: 1,
				Label:  schema.LabelOptional,
				Type:   *keyType,
			},
			{
				Name:   "value",
				Number: 2,
				Label:  schema.LabelOptional,
				Type:   *valueType,
			},
		},
	}

	// Register it
	r.messages[entryTypeName] = mapEntryMessage
	return mapEntryMessage, nil
}
