// Package params turns the flat string-keyed parameter map handed over by
// the transport shell into cleaned, normalized values according to a
// per-action field specification.
package params

import (
	"github.com/wingit-app/wingit-server/internal/apierr"
	"github.com/wingit-app/wingit-server/internal/validate"
)

// Kind selects the validator applied to a field. The mapping is a fixed
// table resolved at the call site, not runtime name inspection.
type Kind int

const (
	// KindString is an opaque value with only a presence check.
	KindString Kind = iota
	KindUsername
	KindEmail
	KindPasswordHash
)

// Field is one named parameter and its validator.
type Field struct {
	Name string
	Kind Kind
}

// F is shorthand for declaring a field.
func F(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind}
}

// Requirement is either a single required field or an "exactly one of"
// group of alternatives tried in declared order.
type Requirement struct {
	group        string
	alternatives []Field
}

// Require declares a single required field.
func Require(name string, kind Kind) Requirement {
	return Requirement{alternatives: []Field{{Name: name, Kind: kind}}}
}

// RequireOneOf declares a group of alternatives. When none of them is
// present the missing-parameter error names the group, not a single field,
// so callers can tell a missing field apart from a missing group.
func RequireOneOf(group string, alternatives ...Field) Requirement {
	return Requirement{group: group, alternatives: alternatives}
}

// Spec is the ordered list of requirements for one action. Order is
// significant: the first failing requirement produces the returned error.
type Spec struct {
	Requirements []Requirement
}

// Values maps resolved field names to their cleaned values.
type Values map[string]string

// Has reports whether the field was resolved.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Clean resolves every requirement against raw and returns the normalized
// values. It stops at the first missing requirement or failing validator.
func Clean(raw map[string]string, spec Spec) (Values, error) {
	values := make(Values, len(spec.Requirements))
	for _, req := range spec.Requirements {
		field, rawValue, ok := req.resolve(raw)
		if !ok {
			return nil, apierr.MissingParams(req.missingName())
		}
		cleaned, err := cleanField(field, rawValue)
		if err != nil {
			return nil, err
		}
		values[field.Name] = cleaned
	}
	return values, nil
}

func (r Requirement) resolve(raw map[string]string) (Field, string, bool) {
	for _, field := range r.alternatives {
		if value, ok := raw[field.Name]; ok {
			return field, value, true
		}
	}
	return Field{}, "", false
}

func (r Requirement) missingName() string {
	if r.group != "" {
		return r.group
	}
	return r.alternatives[0].Name
}

func cleanField(field Field, value string) (string, error) {
	switch field.Kind {
	case KindUsername:
		return validate.Username(value)
	case KindEmail:
		return validate.Email(value)
	case KindPasswordHash:
		return validate.PasswordHash(value)
	default:
		return value, nil
	}
}
