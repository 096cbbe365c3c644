package tool

import (
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// Registry stores registered tools keyed by case-insensitive name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string // lowercased names in first-registration order, for stable catalogs
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register enumerates the provider's declared tools and inserts each one.
// A later registration under an already-taken name silently replaces the
// earlier one — last registration wins, no duplicate detection.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range p.Tools() {
		key := strings.ToLower(t.Name)
		if _, exists := r.tools[key]; !exists {
			r.order = append(r.order, key)
		}
		r.tools[key] = t
	}
}

// Get returns a tool by name, matched case-insensitively.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[strings.ToLower(name)]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Info is one catalog entry as served by tools/list.
type Info struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// Catalog produces the machine-readable tool list in registration order.
// Calling it repeatedly without intervening registrations yields identical
// results.
func (r *Registry) Catalog() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.order))
	for _, key := range r.order {
		t := r.tools[key]
		out = append(out, Info{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: inputSchema(t.Params),
		})
	}
	return out
}

// inputSchema builds the JSON Schema object for a tool's parameter list.
// A parameter with no default value is required; a parameter with a
// default (including an explicit zero-value default) is optional.
func inputSchema(params []Param) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(params))
	required := make([]string, 0, len(params))

	for _, p := range params {
		properties[p.Name] = paramSchema(p)
		if p.required() {
			required = append(required, p.Name)
		}
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func paramSchema(p Param) *jsonschema.Schema {
	s := kindSchema(p.Kind)
	if p.Kind == List {
		s.Items = kindSchema(p.Elem)
	}
	s.Description = p.Description
	return s
}

func kindSchema(k Kind) *jsonschema.Schema {
	switch k {
	case String:
		return &jsonschema.Schema{Type: "string"}
	case Bool:
		return &jsonschema.Schema{Type: "boolean"}
	case Int, Address:
		return &jsonschema.Schema{Type: "integer"}
	case Number:
		return &jsonschema.Schema{Type: "number"}
	case Object, IntMap:
		return &jsonschema.Schema{Type: "object"}
	case List:
		return &jsonschema.Schema{Type: "array"}
	default:
		return &jsonschema.Schema{Type: "object"}
	}
}
