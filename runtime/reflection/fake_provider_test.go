package reflection

// fakeProvider is a hand-wired MetadataProvider for edge cases a catalog
// cannot express, such as cyclic hierarchies or methods that disappear
// between HasMethod and GetMethod.
type fakeProvider struct {
	params     map[string][]RawRecord // keyed by CallableRef.String()
	parents    map[string]string
	methods    map[string]map[string]bool
	vanishing  map[string]bool // "Class::method" reported by HasMethod only
	properties map[string]RawRecord
	extensions map[string]RawRecord
	hints      bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		params:     map[string][]RawRecord{},
		parents:    map[string]string{},
		methods:    map[string]map[string]bool{},
		vanishing:  map[string]bool{},
		properties: map[string]RawRecord{},
		extensions: map[string]RawRecord{},
	}
}

func (f *fakeProvider) addClass(name, parent string) {
	f.parents[name] = parent
	if f.methods[name] == nil {
		f.methods[name] = map[string]bool{}
	}
}

func (f *fakeProvider) addMethod(class, method string, params ...RawRecord) {
	if f.methods[class] == nil {
		f.addClass(class, "")
	}
	f.methods[class][method] = true
	f.params[class+"::"+method] = params
}

func (f *fakeProvider) ResolveParameters(ref CallableRef) ([]RawRecord, error) {
	params, ok := f.params[ref.String()]
	if !ok {
		return nil, &Error{Kind: KindUnknownCallable, Subject: ref.String()}
	}
	return params, nil
}

func (f *fakeProvider) ResolveProperty(class ClassHandle, name string) (RawRecord, error) {
	if _, ok := f.parents[class.Name]; !ok {
		return nil, &Error{Kind: KindUnknownClass, Subject: class.Name}
	}
	return f.properties[class.Name+"::"+name], nil
}

func (f *fakeProvider) ResolveExtension(name string) (RawRecord, error) {
	ext, ok := f.extensions[name]
	if !ok {
		return nil, &Error{Kind: KindUnknownExtension, Subject: name}
	}
	return ext, nil
}

func (f *fakeProvider) ResolveClass(name string) (ClassHandle, error) {
	if _, ok := f.parents[name]; !ok {
		return ClassHandle{}, &Error{Kind: KindUnknownClass, Subject: name}
	}
	return ClassHandle{Name: name}, nil
}

func (f *fakeProvider) HasMethod(class ClassHandle, name string) bool {
	return f.methods[class.Name][name] || f.vanishing[class.Name+"::"+name]
}

func (f *fakeProvider) GetMethod(class ClassHandle, name string) (MethodHandle, bool) {
	if !f.methods[class.Name][name] {
		return MethodHandle{}, false
	}
	return MethodHandle{Class: class.Name, Name: name}, true
}

func (f *fakeProvider) ParentClass(class ClassHandle) (ClassHandle, bool) {
	parent := f.parents[class.Name]
	if parent == "" {
		return ClassHandle{}, false
	}
	return ClassHandle{Name: parent}, true
}

func (f *fakeProvider) ScalarTypeHintsEnabled() bool {
	return f.hints
}
