package reflection

import "go.uber.org/zap"

// DefaultMaxHierarchyDepth bounds the number of classes visited when
// climbing a class hierarchy.
const DefaultMaxHierarchyDepth = 64

type options struct {
	logger   *zap.Logger
	sink     DiagnosticSink
	store    PropertyStore
	maxDepth int
}

// Option configures a descriptor.
type Option func(*options)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDiagnostics sets the sink for recoverable diagnostics.
func WithDiagnostics(sink DiagnosticSink) Option {
	return func(o *options) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithStore sets the property store used for value access.
func WithStore(store PropertyStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithMaxHierarchyDepth bounds hierarchy walks. Non-positive values are ignored.
func WithMaxHierarchyDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   zap.NewNop(),
		maxDepth: DefaultMaxHierarchyDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sink == nil {
		o.sink = NewZapSink(o.logger)
	}
	return o
}

// noCopy may be embedded into structs which must not be copied after first
// use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
