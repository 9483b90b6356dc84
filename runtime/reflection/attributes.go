package reflection

import "go.uber.org/zap"

// AttributeResolver merges parameter attributes up a class hierarchy.
type AttributeResolver struct {
	provider MetadataProvider
	logger   *zap.Logger
	maxDepth int
}

// NewAttributeResolver creates a resolver. Only WithLogger and
// WithMaxHierarchyDepth apply.
func NewAttributeResolver(provider MetadataProvider, opts ...Option) *AttributeResolver {
	o := buildOptions(opts)
	return &AttributeResolver{provider: provider, logger: o.logger, maxDepth: o.maxDepth}
}

// Resolve collects the attributes of the parameter at position of method
// function, starting at class and climbing to the root. Keys already
// collected are never overwritten, so the most-derived declaration wins.
//
// A failure part-way up (a method that vanished, a malformed record, a
// cycle, or the depth bound) stops the walk and returns what has been
// collected so far.
func (r *AttributeResolver) Resolve(class ClassHandle, function string, position int) map[string]interface{} {
	attrs := map[string]interface{}{}
	visited := map[string]bool{}

	current := class
	for depth := 0; ; depth++ {
		fields := []zap.Field{
			zap.String("class", current.Name),
			zap.String("function", function),
			zap.Int("position", position),
			zap.Int("depth", depth),
		}
		if depth >= r.maxDepth {
			r.logger.Debug("attribute walk hit depth bound", fields...)
			return attrs
		}
		if visited[current.Name] {
			r.logger.Debug("attribute walk found a hierarchy cycle", fields...)
			return attrs
		}
		visited[current.Name] = true

		if r.provider.HasMethod(current, function) {
			method, ok := r.provider.GetMethod(current, function)
			if !ok {
				r.logger.Debug("method vanished during attribute walk", fields...)
				return attrs
			}
			raw, err := r.provider.ResolveParameters(method.Ref())
			if err != nil {
				r.logger.Debug("parameters vanished during attribute walk", append(fields, zap.Error(err))...)
				return attrs
			}
			if position < len(raw) {
				rec, err := ParseParameterRecord(raw[position])
				if err != nil {
					r.logger.Debug("malformed parameter during attribute walk", append(fields, zap.Error(err))...)
					return attrs
				}
				for k, v := range rec.Attributes {
					if _, exists := attrs[k]; !exists {
						attrs[k] = NormalizeValue(v)
					}
				}
			}
		}

		parent, ok := r.provider.ParentClass(current)
		if !ok {
			return attrs
		}
		current = parent
	}
}
