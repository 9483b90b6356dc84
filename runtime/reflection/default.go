package reflection

// DefaultState tags a parameter's default value.
type DefaultState int

const (
	// DefaultUnavailable means no default is syntactically present.
	DefaultUnavailable DefaultState = iota
	// DefaultAvailable means a default value was materialized; it may be nil.
	DefaultAvailable
	// DefaultUnresolvable means a default is declared but the runtime could
	// not produce its value.
	DefaultUnresolvable
)

func (s DefaultState) String() string {
	switch s {
	case DefaultAvailable:
		return "available"
	case DefaultUnresolvable:
		return "unresolvable"
	default:
		return "unavailable"
	}
}

// DefaultValue is the three-way default value state of a parameter.
type DefaultValue struct {
	state  DefaultState
	value  interface{}
	reason string
}

// NoDefault returns the Unavailable state.
func NoDefault() DefaultValue {
	return DefaultValue{state: DefaultUnavailable}
}

// DefaultOf returns the Available state holding v.
func DefaultOf(v interface{}) DefaultValue {
	return DefaultValue{state: DefaultAvailable, value: v}
}

// UnresolvableDefault returns the Unresolvable state with the runtime's reason.
func UnresolvableDefault(reason string) DefaultValue {
	return DefaultValue{state: DefaultUnresolvable, reason: reason}
}

// State returns the tag.
func (d DefaultValue) State() DefaultState {
	return d.state
}

// Reason returns the diagnostic text of an Unresolvable default.
func (d DefaultValue) Reason() string {
	return d.reason
}

// Value returns the default value for the Available state. It fails with
// KindDefaultNotOptional when no default exists and with
// KindDefaultUnresolvable, carrying the runtime reason, when the default
// could not be materialized. subject names the parameter in the error.
func (d DefaultValue) Value(subject string) (interface{}, error) {
	switch d.state {
	case DefaultAvailable:
		return d.value, nil
	case DefaultUnresolvable:
		return nil, &Error{Kind: KindDefaultUnresolvable, Subject: subject, Reason: d.reason}
	}
	return nil, &Error{Kind: KindDefaultNotOptional, Subject: subject}
}

func defaultFromRecord(r RawRecord) DefaultValue {
	v, ok := r["default"]
	if !ok {
		return NoDefault()
	}
	switch u := v.(type) {
	case UnresolvedDefault:
		return UnresolvableDefault(u.Reason)
	case *UnresolvedDefault:
		if u == nil {
			return DefaultOf(nil)
		}
		return UnresolvableDefault(u.Reason)
	}
	return DefaultOf(v)
}
