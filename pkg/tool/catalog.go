// Package tool defines the static tool catalog exposed to the model: typed
// parameter schemas, a registry ordered by declaration and unique by name,
// and the textual rendering embedded in the system prompt for providers that
// have no native function calling.
package tool

import (
	"fmt"
	"strings"
)

// Definition describes one callable tool: a unique name, free text guiding
// the model, and a typed parameter schema.
type Definition struct {
	Name        string
	Description string
	Parameters  ObjectField
}

// Catalog is an immutable, ordered-by-declaration set of definitions, unique
// by name. It is built once at startup and injected wherever needed.
type Catalog struct {
	defs  []Definition
	index map[string]int
}

// NewCatalog builds a catalog from the given definitions. Two tools sharing
// a name is a startup configuration defect, so it panics rather than
// silently shadowing one of them.
func NewCatalog(defs ...Definition) *Catalog {
	c := &Catalog{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			panic("tool: definition with empty name")
		}
		if _, exists := c.index[name]; exists {
			panic(fmt.Sprintf("tool: duplicate definition %q", name))
		}
		def.Name = name
		c.index[name] = len(c.defs)
		c.defs = append(c.defs, def)
	}
	return c
}

// All returns the definitions in declaration order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Lookup finds a definition by name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	idx, ok := c.index[name]
	if !ok {
		return Definition{}, false
	}
	return c.defs[idx], true
}

// Len reports the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// RenderPrompt produces the tool listing and calling convention that gets
// appended to the system prompt. The emission format must match what the
// response parser accepts.
func (c *Catalog) RenderPrompt() string {
	var b strings.Builder
	b.WriteString("You can call the following tools. To call one, reply with a fenced block:\n")
	b.WriteString("```tool_call\n{\"name\": \"<tool name>\", \"arguments\": {<parameters>}}\n```\n")
	b.WriteString("Call at most one tool per reply and wait for its result before continuing.\n")
	b.WriteString("\nAvailable tools:\n")
	for _, def := range c.defs {
		b.WriteString("\n")
		b.WriteString(def.Name)
		if def.Description != "" {
			b.WriteString(": " + def.Description)
		}
		b.WriteString("\n")
		if len(def.Parameters.Properties) == 0 {
			b.WriteString("  (no parameters)\n")
			continue
		}
		for _, p := range def.Parameters.Properties {
			renderField(&b, p.Name, p.Field, contains(def.Parameters.Required, p.Name), "  ")
		}
	}
	return strings.TrimSpace(b.String())
}
