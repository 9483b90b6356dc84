package reflection

import "sort"

// Extension describes a loaded extension. It is built from one provider call
// and never consults the provider again.
type Extension struct {
	noCopy noCopy

	rec ExtensionRecord
}

// NewExtension fetches and validates the metadata of extension name.
func NewExtension(provider MetadataProvider, name string) (*Extension, error) {
	raw, err := provider.ResolveExtension(name)
	if err != nil {
		return nil, err
	}
	rec, err := ParseExtensionRecord(raw)
	if err != nil {
		return nil, err
	}
	return &Extension{rec: rec}, nil
}

func (e *Extension) Name() string {
	return e.rec.Name
}

func (e *Extension) Version() string {
	return e.rec.Version
}

// Functions returns the functions defined by the extension, keyed by name.
func (e *Extension) Functions() map[string]Function {
	out := make(map[string]Function, len(e.rec.Functions))
	for k, v := range e.rec.Functions {
		out[k] = v
	}
	return out
}

// FunctionNames returns the function names in sorted order.
func (e *Extension) FunctionNames() []string {
	names := make([]string, 0, len(e.rec.Functions))
	for name := range e.rec.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Extension) Constants() map[string]interface{} {
	return copyMap(e.rec.Constants)
}

func (e *Extension) INIEntries() map[string]interface{} {
	return copyMap(e.rec.INIEntries)
}

// Classes returns the classes defined by the extension in declaration order.
func (e *Extension) Classes() []ClassHandle {
	out := make([]ClassHandle, len(e.rec.Classes))
	for i, name := range e.rec.Classes {
		out[i] = ClassHandle{Name: name}
	}
	return out
}

// ClassNames maps Classes to their names, preserving order.
func (e *Extension) ClassNames() []string {
	classes := e.Classes()
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	return names
}

// Info returns the extension's free-form information text.
func (e *Extension) Info() string {
	return e.rec.Info
}

// Clone always fails: a descriptor's identity is tied to one resolution.
func (e *Extension) Clone() (*Extension, error) {
	return nil, notCloneable("Extension")
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
