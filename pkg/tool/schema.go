package tool

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field describes one node of a tool parameter schema. The concrete types
// form a closed set so schema construction is checked at compile time instead
// of flowing through untyped maps.
type Field interface {
	// Type returns the JSON-schema type name for the node.
	Type() string
	// describe renders the node into a JSON-schema-shaped value.
	describe() map[string]any
}

// StringField describes a string parameter, optionally constrained to an
// enumeration.
type StringField struct {
	Description string
	Enum        []string
}

// IntegerField describes an integer parameter.
type IntegerField struct {
	Description string
}

// NumberField describes a floating point parameter.
type NumberField struct {
	Description string
}

// BooleanField describes a boolean parameter.
type BooleanField struct {
	Description string
}

// ObjectField describes an object parameter with named, ordered properties.
type ObjectField struct {
	Description string
	Properties  []Property
	Required    []string
}

// ArrayField describes an array parameter with a homogeneous item schema.
type ArrayField struct {
	Description string
	Items       Field
}

// Property pairs a name with its field schema. Declaration order is
// preserved, which keeps rendered catalogs stable.
type Property struct {
	Name  string
	Field Field
}

func (StringField) Type() string  { return "string" }
func (IntegerField) Type() string { return "integer" }
func (NumberField) Type() string  { return "number" }
func (BooleanField) Type() string { return "boolean" }
func (ObjectField) Type() string  { return "object" }
func (ArrayField) Type() string   { return "array" }

func (f StringField) describe() map[string]any {
	node := map[string]any{"type": f.Type()}
	if f.Description != "" {
		node["description"] = f.Description
	}
	if len(f.Enum) > 0 {
		node["enum"] = append([]string(nil), f.Enum...)
	}
	return node
}

func (f IntegerField) describe() map[string]any { return scalarNode(f.Type(), f.Description) }
func (f NumberField) describe() map[string]any  { return scalarNode(f.Type(), f.Description) }
func (f BooleanField) describe() map[string]any { return scalarNode(f.Type(), f.Description) }

func (f ObjectField) describe() map[string]any {
	node := map[string]any{"type": f.Type()}
	if f.Description != "" {
		node["description"] = f.Description
	}
	props := make(map[string]any, len(f.Properties))
	for _, p := range f.Properties {
		props[p.Name] = p.Field.describe()
	}
	node["properties"] = props
	if len(f.Required) > 0 {
		node["required"] = append([]string(nil), f.Required...)
	}
	return node
}

func (f ArrayField) describe() map[string]any {
	node := map[string]any{"type": f.Type()}
	if f.Description != "" {
		node["description"] = f.Description
	}
	if f.Items != nil {
		node["items"] = f.Items.describe()
	}
	return node
}

func scalarNode(typ, description string) map[string]any {
	node := map[string]any{"type": typ}
	if description != "" {
		node["description"] = description
	}
	return node
}

// SchemaJSON renders the object schema as JSON. Used when a definition must
// be exported to systems that speak JSON Schema (for example MCP servers).
func (f ObjectField) SchemaJSON() (json.RawMessage, error) {
	data, err := json.Marshal(f.describe())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// lookupProperty finds a property schema by name.
func (f ObjectField) lookupProperty(name string) (Field, bool) {
	for _, p := range f.Properties {
		if p.Name == name {
			return p.Field, true
		}
	}
	return nil, false
}

// renderField writes a human-readable description of the field into b,
// indented for nesting. This text ends up inside the system prompt, so it
// stays compact.
func renderField(b *strings.Builder, name string, f Field, required bool, indent string) {
	b.WriteString(indent)
	b.WriteString("- ")
	b.WriteString(name)
	b.WriteString(" (")
	b.WriteString(f.Type())
	if required {
		b.WriteString(", required")
	}
	b.WriteString(")")

	switch node := f.(type) {
	case StringField:
		if node.Description != "" {
			b.WriteString(": " + node.Description)
		}
		if len(node.Enum) > 0 {
			b.WriteString(" [one of: " + strings.Join(node.Enum, ", ") + "]")
		}
		b.WriteString("\n")
	case IntegerField:
		writeDescription(b, node.Description)
	case NumberField:
		writeDescription(b, node.Description)
	case BooleanField:
		writeDescription(b, node.Description)
	case ObjectField:
		writeDescription(b, node.Description)
		for _, p := range node.Properties {
			renderField(b, p.Name, p.Field, contains(node.Required, p.Name), indent+"  ")
		}
	case ArrayField:
		writeDescription(b, node.Description)
		if node.Items != nil {
			renderField(b, "items", node.Items, false, indent+"  ")
		}
	}
}

func writeDescription(b *strings.Builder, description string) {
	if description != "" {
		b.WriteString(": " + description)
	}
	b.WriteString("\n")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
