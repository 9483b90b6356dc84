package reflection

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies a reflection failure.
type Kind int

const (
	KindUnknownCallable Kind = iota + 1
	KindUnknownClass
	KindUnknownExtension
	KindParameterNotFound
	KindPropertyNotFound
	KindInvalidCallableKind
	KindDefaultNotOptional
	KindDefaultUnresolvable
	KindNotCloneable
	KindNullParameters
	KindMalformedArgument
	KindMalformedRecord
)

var kindNames = map[Kind]string{
	KindUnknownCallable:     "unknown_callable",
	KindUnknownClass:        "unknown_class",
	KindUnknownExtension:    "unknown_extension",
	KindParameterNotFound:   "parameter_not_found",
	KindPropertyNotFound:    "property_not_found",
	KindInvalidCallableKind: "invalid_callable_kind",
	KindDefaultNotOptional:  "default_not_optional",
	KindDefaultUnresolvable: "default_unresolvable",
	KindNotCloneable:        "not_cloneable",
	KindNullParameters:      "null_parameters",
	KindMalformedArgument:   "malformed_argument",
	KindMalformedRecord:     "malformed_record",
}

// String returns the snake_case name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements json.Marshaler for Kind
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Kind
func (k *Kind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("error kind must be a string: %w", err)
	}
	for kind, name := range kindNames {
		if name == str {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", str)
}

// Error is the single error type returned by this package.
//
// Subject names the entity the failure is about (a callable, class, parameter
// selector, extension). Reason carries runtime-supplied diagnostic text for
// KindDefaultUnresolvable. Context, Expected and Actual are populated for
// KindMalformedArgument.
type Error struct {
	Kind     Kind   `json:"kind"`
	Subject  string `json:"subject,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Context  string `json:"context,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Err      error  `json:"-"`
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownCallable:
		return "unknown callable: " + e.Subject
	case KindUnknownClass:
		return "unknown class: " + e.Subject
	case KindUnknownExtension:
		return "unknown extension: " + e.Subject
	case KindParameterNotFound:
		return "no parameter named " + e.Subject + " found"
	case KindPropertyNotFound:
		return "property " + e.Subject + " does not exist"
	case KindInvalidCallableKind:
		return "invalid function, expected closure, string or [class, method] pair, got " + e.Subject
	case KindDefaultNotOptional:
		return "parameter " + e.Subject + " is not optional"
	case KindDefaultUnresolvable:
		return e.Reason
	case KindNotCloneable:
		return "trying to clone an uncloneable object of class " + e.Subject
	case KindNullParameters:
		return "parameters must not be null"
	case KindMalformedArgument:
		return fmt.Sprintf("%s expects %s, %s given", e.Context, e.Expected, e.Actual)
	case KindMalformedRecord:
		msg := "malformed metadata record"
		if e.Subject != "" {
			msg += " for " + e.Subject
		}
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
		return msg
	}
	return "reflection error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. This lets the
// exported sentinels be matched with errors.Is regardless of subject.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is matching.
var (
	ErrUnknownCallable     = &Error{Kind: KindUnknownCallable}
	ErrUnknownClass        = &Error{Kind: KindUnknownClass}
	ErrUnknownExtension    = &Error{Kind: KindUnknownExtension}
	ErrParameterNotFound   = &Error{Kind: KindParameterNotFound}
	ErrPropertyNotFound    = &Error{Kind: KindPropertyNotFound}
	ErrInvalidCallableKind = &Error{Kind: KindInvalidCallableKind}
	ErrDefaultNotOptional  = &Error{Kind: KindDefaultNotOptional}
	ErrDefaultUnresolvable = &Error{Kind: KindDefaultUnresolvable}
	ErrNotCloneable        = &Error{Kind: KindNotCloneable}
	ErrNullParameters      = &Error{Kind: KindNullParameters}
	ErrMalformedArgument   = &Error{Kind: KindMalformedArgument}
	ErrMalformedRecord     = &Error{Kind: KindMalformedRecord}
)

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func malformedRecord(subject, format string, args ...interface{}) *Error {
	return &Error{Kind: KindMalformedRecord, Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

func notCloneable(class string) *Error {
	return &Error{Kind: KindNotCloneable, Subject: class}
}
