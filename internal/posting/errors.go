package posting

import (
	"fmt"
	"strings"
)

// Messages used in general errors.
const (
	MsgRequiredElement       = "Required element not present"
	MsgInvalidEmailAttribute = "Invalid or empty email attribute"
	MsgUnknownElement        = "Unknown element"
)

// Kind distinguishes the two shapes of Error. Consumers branch on it.
type Kind int

const (
	// KindGeneral covers presence, uniqueness and remote failures.
	KindGeneral Kind = iota

	// KindAttrValidation covers a value outside its allowed set.
	KindAttrValidation
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindGeneral:
		return "general"
	case KindAttrValidation:
		return "attr_validation"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is one accumulated validation or submission problem.
//
// A general error only sets Message. An attribute validation error sets
// Element, the offending CurrentValue and usually MustBe; Attribute is empty
// when the element itself carries the value (category, area, subarea).
type Error struct {
	Kind Kind

	Message string

	Element      string
	Attribute    string
	CurrentValue interface{}
	MustBe       string
}

// GeneralError builds a general error in the "<msg>: '<value>'" form.
func GeneralError(msg string, value interface{}) Error {
	return Error{
		Kind:    KindGeneral,
		Message: fmt.Sprintf("%s: '%v'", msg, value),
	}
}

// AttrError builds an attribute validation error.
func AttrError(element, attribute string, current interface{}, mustBe string) Error {
	return Error{
		Kind:         KindAttrValidation,
		Element:      element,
		Attribute:    attribute,
		CurrentValue: current,
		MustBe:       mustBe,
	}
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Kind == KindGeneral {
		return e.Message
	}

	target := e.Element
	if e.Attribute != "" {
		target += "." + e.Attribute
	}
	msg := fmt.Sprintf("invalid value %s for %s", formatValue(e.CurrentValue), target)
	if e.MustBe != "" {
		msg += " (" + e.MustBe + ")"
	}
	return msg
}

// formatValue quotes strings and prints everything else verbatim, so that a
// string "1" and a number 1 read differently.
func formatValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("'%s'", s)
	}
	return fmt.Sprintf("%v", v)
}

// mustBeOneOf renders an allowed set for Error.MustBe.
func mustBeOneOf(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return "Must be one of " + strings.Join(quoted, ", ")
}

// FilterKind returns the errors of the given kind, preserving order.
func FilterKind(errs []Error, kind Kind) []Error {
	var out []Error
	for _, e := range errs {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
