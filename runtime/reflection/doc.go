// Package reflection provides queryable descriptors for callable parameters,
// class properties, and loaded extensions.
//
// # Overview
//
// Descriptors are built on top of a MetadataProvider, which supplies raw,
// loosely typed records (RawRecord) for the entity being described. Each
// descriptor fetches its record once at construction, validates it into a
// typed record, and answers every subsequent query from that snapshot. The
// only operations that go back out are value access on a Property (through
// a PropertyStore) and recursive attribute lookups on a Parameter (through
// the provider's class hierarchy).
//
// # Descriptors
//
//   - Parameter: name, position, flags, type text, default value state,
//     attributes, and attributes merged up the class hierarchy.
//   - Property: visibility, static flag, modifiers, doc comment, type text,
//     and value access honoring a per-descriptor accessibility override.
//   - Extension: version, functions, constants, ini entries, and classes.
//
// # Example Usage
//
//	param, err := reflection.NewParameter(provider, "Derived::m", "b")
//	if err != nil {
//		return err
//	}
//	attrs := param.AttributesRecursive()
//
//	prop, err := reflection.NewProperty(provider, "Counter", "count",
//		reflection.WithStore(store))
//	if err != nil {
//		return err
//	}
//	res, err := prop.GetValue(ctx)
//
// # Default Values
//
// A parameter's default is one of three states: Unavailable (no default),
// Available (a value, possibly nil), or Unresolvable (declared, but the
// runtime could not produce it). DefaultValue fails with
// KindDefaultNotOptional and KindDefaultUnresolvable respectively for the
// two non-value states.
//
// # Attribute Merging
//
// AttributesRecursive walks from the declaring class up to the root. Keys
// found on a more-derived declaration are never overwritten by an ancestor.
//
// # Type Names
//
// Primitive type names are stored by the runtime with an "HH\" prefix.
// Every type name surfaced by a descriptor, including string attribute
// values, is passed through NormalizeTypeName.
//
// # Diagnostics
//
// Malformed value access arguments are not errors. They are reported to the
// descriptor's DiagnosticSink and returned in Result.Diagnostic with a nil
// value. Construction failures are always returned as *Error.
package reflection
