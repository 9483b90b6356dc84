// Package phpsource builds a metadata catalog from PHP source files.
//
// Sources are parsed with tree-sitter. Everything found is grouped into a
// single extension: classes with their methods and properties, top-level
// functions and top-level constants. Parameter defaults that are not
// constant expressions are recorded as unresolved, the way the runtime
// reports a default it cannot evaluate.
package phpsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	"go.uber.org/zap"

	"github.com/conduit-lang/introspect/internal/utils"
	"github.com/conduit-lang/introspect/runtime/reflection/catalog"
)

// Extractor accumulates declarations from PHP sources.
type Extractor struct {
	language  *sitter.Language
	logger    *zap.Logger
	extension string
	version   string

	classes   []catalog.Class
	functions []catalog.Function
	constants map[string]interface{}
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for skipped declarations.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithVersion sets the version reported by the extension.
func WithVersion(version string) Option {
	return func(e *Extractor) {
		e.version = version
	}
}

// NewExtractor creates an extractor whose declarations are grouped under
// the extension named extension.
func NewExtractor(extension string, opts ...Option) *Extractor {
	e := &Extractor{
		language:  sitter.NewLanguage(php.LanguagePHP()),
		logger:    zap.NewNop(),
		extension: extension,
		constants: map[string]interface{}{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load extracts every file matching the glob patterns and returns the
// resulting catalog. A pattern matching a directory loads every .php file
// below it.
func Load(ctx context.Context, extension string, patterns []string, opts ...Option) (*catalog.Catalog, error) {
	e := NewExtractor(extension, opts...)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid source pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no sources match %q", pattern)
		}
		for _, match := range matches {
			files, err := sourceFiles(match)
			if err != nil {
				return nil, err
			}
			for _, path := range files {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if err := e.AddFile(path); err != nil {
					return nil, err
				}
			}
		}
	}
	return e.Catalog()
}

// sourceFiles expands a directory into the .php files below it.
func sourceFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return utils.FindFiles(path, ".php")
}

// AddFile parses the PHP file at path.
func (e *Extractor) AddFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return e.AddSource(path, source)
}

// AddSource parses PHP source. name is used in log messages only.
func (e *Extractor) AddSource(name string, source []byte) error {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(e.language); err != nil {
		return fmt.Errorf("failed to load PHP grammar: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return fmt.Errorf("failed to parse %s", name)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		e.logger.Warn("source contains syntax errors; extracting what parsed",
			zap.String("file", name))
	}

	f := &fileScope{source: source, name: name}
	e.extractStatements(f, children(root))
	return nil
}

// Catalog returns the accumulated catalog. Parents that are not declared in
// any of the sources are dropped, since the catalog cannot describe them.
func (e *Extractor) Catalog() (*catalog.Catalog, error) {
	known := map[string]bool{}
	for _, cls := range e.classes {
		known[strings.ToLower(cls.Name)] = true
	}

	c := &catalog.Catalog{
		Version:         "1",
		ScalarTypeHints: true,
		Functions:       append([]catalog.Function(nil), e.functions...),
		Classes:         make([]catalog.Class, len(e.classes)),
	}
	ext := catalog.Extension{
		Name:      e.extension,
		Version:   e.version,
		Constants: map[string]interface{}{},
	}
	for k, v := range e.constants {
		ext.Constants[k] = v
	}

	for i, cls := range e.classes {
		if cls.Parent != "" && !known[strings.ToLower(cls.Parent)] {
			e.logger.Debug("dropping undeclared parent",
				zap.String("class", cls.Name),
				zap.String("parent", cls.Parent))
			cls.Parent = ""
		}
		c.Classes[i] = cls
		ext.Classes = append(ext.Classes, cls.Name)
	}
	for _, fn := range e.functions {
		ext.Functions = append(ext.Functions, fn.Name)
	}
	c.Extensions = []catalog.Extension{ext}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// fileScope tracks the namespace while walking one file.
type fileScope struct {
	source    []byte
	name      string
	namespace string
}

func (f *fileScope) qualify(name string) string {
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}
	if f.namespace == "" {
		return name
	}
	return f.namespace + `\` + name
}

func (e *Extractor) extractStatements(f *fileScope, nodes []*sitter.Node) {
	for _, n := range nodes {
		switch n.Kind() {
		case "namespace_definition":
			ns := nodeText(n.ChildByFieldName("name"), f.source)
			body := n.ChildByFieldName("body")
			if body == nil {
				// "namespace Foo;" applies to the rest of the file.
				f.namespace = ns
				continue
			}
			outer := f.namespace
			f.namespace = ns
			e.extractStatements(f, children(body))
			f.namespace = outer
		case "class_declaration":
			e.extractClass(f, n)
		case "function_definition":
			e.extractFunction(f, n)
		case "const_declaration":
			e.extractConstants(f, n)
		}
	}
}

func (e *Extractor) extractClass(f *fileScope, node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	cls := catalog.Class{
		Name: f.qualify(nodeText(nameNode, f.source)),
		Doc:  docComment(node, f.source),
	}

	if base := findChild(node, "base_clause"); base != nil {
		if parents := namedChildren(base); len(parents) > 0 {
			cls.Parent = f.qualify(nodeText(parents[0], f.source))
		}
	}

	body := node.ChildByFieldName("body")
	for _, member := range children(body) {
		switch member.Kind() {
		case "method_declaration":
			if m, ok := e.extractMethod(f, member); ok {
				cls.Methods = append(cls.Methods, m)
			}
		case "property_declaration":
			cls.Properties = append(cls.Properties, e.extractProperties(f, member)...)
		}
	}

	e.classes = append(e.classes, cls)
}

func (e *Extractor) extractMethod(f *fileScope, node *sitter.Node) (catalog.Method, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return catalog.Method{}, false
	}
	ret, _, _ := typeText(node.ChildByFieldName("return_type"), f.source)
	return catalog.Method{
		Name:       nodeText(nameNode, f.source),
		ReturnType: ret,
		Params:     e.extractParams(f, node.ChildByFieldName("parameters")),
	}, true
}

func (e *Extractor) extractFunction(f *fileScope, node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	ret, _, _ := typeText(node.ChildByFieldName("return_type"), f.source)
	e.functions = append(e.functions, catalog.Function{
		Name:       f.qualify(nodeText(nameNode, f.source)),
		ReturnType: ret,
		Params:     e.extractParams(f, node.ChildByFieldName("parameters")),
	})
}

func (e *Extractor) extractParams(f *fileScope, list *sitter.Node) []catalog.Record {
	var params []catalog.Record
	for _, p := range namedChildren(list) {
		switch p.Kind() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			continue
		}

		name := strings.TrimPrefix(nodeText(p.ChildByFieldName("name"), f.source), "$")
		rec := catalog.Record{"name": name}

		// Untyped parameters accept null.
		nullable := true
		if t := p.ChildByFieldName("type"); t != nil {
			var annotation, hint string
			annotation, hint, nullable = typeText(t, f.source)
			rec["type"] = annotation
			rec["type_hint"] = hint
		}
		if findChild(p, "reference_modifier") != nil {
			rec["ref"] = true
		}
		if p.Kind() == "variadic_parameter" {
			rec["is_variadic"] = true
			rec["is_optional"] = true
		}
		if def := p.ChildByFieldName("default_value"); def != nil {
			text := nodeText(def, f.source)
			rec["is_optional"] = true
			rec["defaultText"] = text
			if v, ok := literal(def, f.source); ok {
				rec["default"] = v
				nullable = nullable || v == nil
			} else {
				rec["default_unresolved"] = "cannot evaluate " + text + " without the runtime"
			}
		}
		if nullable {
			rec["nullable"] = true
		}
		if attrs := findChild(p, "attribute_list"); attrs != nil {
			rec["attributes"] = attributes(attrs, f.source)
		}
		params = append(params, rec)
	}
	return params
}

func (e *Extractor) extractProperties(f *fileScope, node *sitter.Node) []catalog.Record {
	access := "public"
	static := false
	for _, child := range children(node) {
		switch child.Kind() {
		case "visibility_modifier":
			access = strings.ToLower(nodeText(child, f.source))
		case "static_modifier":
			static = true
		}
	}
	typ, _, _ := typeText(node.ChildByFieldName("type"), f.source)
	doc := docComment(node, f.source)

	var props []catalog.Record
	for _, el := range children(node) {
		if el.Kind() != "property_element" {
			continue
		}
		nameNode := el.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = findChild(el, "variable_name")
		}
		rec := catalog.Record{
			"name":   strings.TrimPrefix(nodeText(nameNode, f.source), "$"),
			"access": access,
		}
		if static {
			rec["static"] = true
		}
		if typ != "" {
			rec["type"] = typ
		}
		if doc != "" {
			rec["doc"] = doc
		}
		if v, ok := literal(propertyDefault(el), f.source); ok {
			rec["value"] = v
		}
		props = append(props, rec)
	}
	return props
}

// propertyDefault finds the initializer expression of a property element.
func propertyDefault(el *sitter.Node) *sitter.Node {
	if def := el.ChildByFieldName("default_value"); def != nil {
		return def
	}
	if init := findChild(el, "property_initializer"); init != nil {
		if parts := namedChildren(init); len(parts) > 0 {
			return parts[0]
		}
	}
	return nil
}

func (e *Extractor) extractConstants(f *fileScope, node *sitter.Node) {
	for _, el := range children(node) {
		if el.Kind() != "const_element" {
			continue
		}
		parts := namedChildren(el)
		if len(parts) < 2 {
			continue
		}
		name := f.qualify(nodeText(parts[0], f.source))
		valueNode := parts[len(parts)-1]
		if v, ok := literal(valueNode, f.source); ok {
			e.constants[name] = v
		} else {
			e.constants[name] = nodeText(valueNode, f.source)
		}
	}
}

// attributes flattens an attribute list into name → arguments. An
// attribute without arguments maps to an empty list, one with a single
// positional argument to that argument, and anything else to the list (or,
// with named arguments, the map) of its arguments.
func attributes(list *sitter.Node, source []byte) map[string]interface{} {
	out := map[string]interface{}{}
	for _, group := range namedChildren(list) {
		for _, attr := range namedChildren(group) {
			if attr.Kind() != "attribute" {
				continue
			}
			parts := namedChildren(attr)
			if len(parts) == 0 {
				continue
			}
			name := nodeText(parts[0], source)
			out[name] = attributeArgs(attr.ChildByFieldName("parameters"), source)
		}
	}
	return out
}

func attributeArgs(args *sitter.Node, source []byte) interface{} {
	var (
		positional []interface{}
		named      map[string]interface{}
	)
	for _, arg := range namedChildren(args) {
		if arg.Kind() != "argument" {
			continue
		}
		parts := namedChildren(arg)
		if len(parts) == 0 {
			continue
		}
		valueNode := parts[len(parts)-1]
		v, ok := literal(valueNode, source)
		if !ok {
			v = nodeText(valueNode, source)
		}
		if nameNode := arg.ChildByFieldName("name"); nameNode != nil && len(parts) > 1 {
			if named == nil {
				named = map[string]interface{}{}
			}
			named[nodeText(nameNode, source)] = v
			continue
		}
		positional = append(positional, v)
	}

	switch {
	case named != nil:
		for i, v := range positional {
			named[fmt.Sprint(i)] = v
		}
		return named
	case len(positional) == 1:
		return positional[0]
	case positional == nil:
		return []interface{}{}
	}
	return positional
}
