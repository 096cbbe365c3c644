// Package tool implements the tool catalog: named, schema-described
// operations contributed by capability providers, plus the coercion layer
// that turns a loosely-typed argument bag into the values a handler expects.
package tool

import (
	"context"
	"fmt"
)

// Kind is the declared value kind of a parameter.
type Kind int

const (
	String Kind = iota
	Bool
	Int
	Number
	// Address accepts any integer-representable value and reinterprets it
	// as a fixed-width 64-bit address.
	Address
	// Object accepts a structured map as-is.
	Object
	// IntMap is an object narrowed to string keys and integer values.
	IntMap
	// List converts each element to the parameter's Elem kind.
	List
)

// Handler is the uniform callable shape every tool is bound to: a single
// coerced argument bag in, a single structured result out. Domain failures
// are returned inside the result payload, not as an error; a non-nil error
// is a tool crash and surfaces as a protocol-level internal error.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Param describes one declared parameter of a tool, in signature order.
type Param struct {
	Name        string
	Description string
	Kind        Kind
	Elem        Kind // element kind, meaningful only when Kind == List

	// Default is used when the caller omits the parameter. HasDefault
	// distinguishes "default is the zero value" from "no default at all";
	// a parameter without a default and without Optional is required.
	Default    any
	HasDefault bool

	// Optional marks a nullable parameter: when omitted it coerces to the
	// kind's zero value instead of failing.
	Optional bool
}

// Tool is an immutable registered operation.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Provider is a capability provider: an external collaborator declaring
// zero or more tools. The registry reads the manifest once at registration
// time and does not own the provider's lifetime.
type Provider interface {
	Tools() []Tool
}

// MissingParamError reports a required parameter absent from the call's
// argument bag. The transport maps it to the invalid-params protocol code.
type MissingParamError struct {
	Param string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing required parameter: %s", e.Param)
}

// required reports whether the parameter must be supplied by the caller.
func (p Param) required() bool {
	return !p.HasDefault && !p.Optional
}
