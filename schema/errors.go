package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a field validation failure.
type ErrorKind int

const (
	MissingField ErrorKind = iota + 1
	WrongType
	UncoercibleDate
	UnresolvableImage
	InvalidArrayElement
)

func (k ErrorKind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case WrongType:
		return "wrong_type"
	case UncoercibleDate:
		return "uncoercible_date"
	case UnresolvableImage:
		return "unresolvable_image"
	case InvalidArrayElement:
		return "invalid_array_element"
	default:
		return "unknown"
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(text []byte) error {
	for c := MissingField; c <= InvalidArrayElement; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// FieldError describes why a single field was rejected.
type FieldError struct {
	Field  string
	Kind   ErrorKind
	Index  int // element index for InvalidArrayElement, -1 otherwise
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	field := e.Field
	if e.Index >= 0 {
		field = fmt.Sprintf("%s[%d]", e.Field, e.Index)
	}
	return fmt.Sprintf("%s: %s", field, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ValidationErrors lists every field that failed, in schema field order.
type ValidationErrors []*FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return "invalid front-matter: " + e[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid front-matter: %d errors:", len(e))
	for _, fe := range e {
		b.WriteString("\n  - ")
		b.WriteString(fe.Error())
	}
	return b.String()
}

// Unwrap exposes the individual field errors to errors.Is and errors.As.
func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, fe := range e {
		errs[i] = fe
	}
	return errs
}

// Has reports whether field failed with the given kind.
func (e ValidationErrors) Has(field string, kind ErrorKind) bool {
	return e.Find(field, kind) != nil
}

// Find returns the first error for field with the given kind, or nil.
func (e ValidationErrors) Find(field string, kind ErrorKind) *FieldError {
	for _, fe := range e {
		if fe.Field == field && fe.Kind == kind {
			return fe
		}
	}
	return nil
}

// Fields returns the distinct names of the failing fields.
func (e ValidationErrors) Fields() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, fe := range e {
		if _, ok := seen[fe.Field]; ok {
			continue
		}
		seen[fe.Field] = struct{}{}
		out = append(out, fe.Field)
	}
	return out
}

// AsValidationErrors extracts ValidationErrors from err.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
