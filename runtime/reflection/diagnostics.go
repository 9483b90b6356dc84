package reflection

import (
	"sync"

	"go.uber.org/zap"
)

// DiagnosticSink receives recoverable diagnostics such as malformed value
// access arguments. Implementations must be safe for concurrent use.
type DiagnosticSink interface {
	Report(diag *Error)
}

// ZapSink logs diagnostics at warn level.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink that logs to logger. A nil logger discards.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Report(diag *Error) {
	s.logger.Warn(diag.Error(),
		zap.String("kind", diag.Kind.String()),
		zap.String("context", diag.Context),
		zap.String("expected", diag.Expected),
		zap.String("actual", diag.Actual),
	)
}

// Collector keeps every reported diagnostic in memory.
type Collector struct {
	mu    sync.Mutex
	diags []*Error
}

func (c *Collector) Report(diag *Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, diag)
}

// Diagnostics returns a copy of the collected diagnostics.
func (c *Collector) Diagnostics() []*Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Error, len(c.diags))
	copy(out, c.diags)
	return out
}

// Result is the outcome of a permissive value access: either a value or a
// recoverable diagnostic, in which case Value is nil.
type Result struct {
	Value      interface{}
	Diagnostic *Error
}

// OK reports whether the access succeeded without a diagnostic.
func (r Result) OK() bool {
	return r.Diagnostic == nil
}

func malformedArgument(context, expected, actual string) *Error {
	return &Error{Kind: KindMalformedArgument, Context: context, Expected: expected, Actual: actual}
}
