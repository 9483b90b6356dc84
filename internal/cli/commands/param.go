package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/introspect/internal/cli/ui"
	"github.com/conduit-lang/introspect/runtime/reflection"
)

// paramView is the JSON shape of a parameter report.
type paramView struct {
	Name                string                 `json:"name"`
	Position            int                    `json:"position"`
	Type                string                 `json:"type"`
	TypeHint            string                 `json:"type_hint"`
	AllowsNull          bool                   `json:"allows_null"`
	ByReference         bool                   `json:"by_reference"`
	CanBePassedByValue  bool                   `json:"can_be_passed_by_value"`
	Optional            bool                   `json:"optional"`
	Variadic            bool                   `json:"variadic"`
	Array               bool                   `json:"array"`
	Callable            bool                   `json:"callable"`
	Class               string                 `json:"class,omitempty"`
	DeclaringClass      string                 `json:"declaring_class,omitempty"`
	DeclaringFunction   string                 `json:"declaring_function"`
	Default             string                 `json:"default"`
	DefaultValue        interface{}            `json:"default_value,omitempty"`
	DefaultReason       string                 `json:"default_reason,omitempty"`
	DefaultText         string                 `json:"default_text,omitempty"`
	Attributes          map[string]interface{} `json:"attributes"`
	AttributesRecursive map[string]interface{} `json:"attributes_recursive"`
}

// parseCallableArg accepts a function name, "Class::method" or a closure
// UUID.
func parseCallableArg(arg string) (reflection.CallableRef, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return reflection.Closure{ID: id}, nil
	}
	return reflection.ParseCallable(arg)
}

// parseSelector reads a zero-based position or a parameter name, with or
// without the leading "$".
func parseSelector(arg string) interface{} {
	if n, err := strconv.Atoi(arg); err == nil {
		return n
	}
	return strings.TrimPrefix(arg, "$")
}

func newParamCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "param <callable> <name|position>",
		Short: "Describe one parameter of a function, method or closure",
		Long: `Describe one parameter of a function, method or closure.

The callable is a function name, a Class::method pair or a closure UUID.
The parameter is selected by name or by zero-based position.`,
		Example: `  # Describe the $pad parameter of str_pad
  reflect param str_pad pad

  # Describe the first parameter of a method
  reflect param 'App\Widget::render' 0

  # JSON output for tooling
  reflect param str_pad 2 --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := a.metadata(cmd.Context())
			if err != nil {
				return err
			}
			ref, err := parseCallableArg(args[0])
			if err != nil {
				return err
			}
			p, err := reflection.NewParameter(provider, ref, parseSelector(args[1]), a.reflectionOptions()...)
			if err != nil {
				return err
			}
			view, err := describeParameter(p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				return writeJSON(out, view)
			}

			d := ui.NewDetails(out, fmt.Sprintf("Parameter $%s of %s", view.Name, view.DeclaringFunction), a.noColor())
			d.Add("position", view.Position)
			d.Add("type", orDash(view.Type))
			d.Add("type hint", orDash(view.TypeHint))
			d.Add("allows null", view.AllowsNull)
			d.Add("by reference", view.ByReference)
			d.Add("optional", view.Optional)
			d.Add("variadic", view.Variadic)
			d.Add("array", view.Array)
			d.Add("callable", view.Callable)
			d.Add("class", orDash(view.Class))
			d.Add("declaring class", orDash(view.DeclaringClass))
			switch p.DefaultValueState().State() {
			case reflection.DefaultAvailable:
				d.Add("default", formatValue(view.DefaultValue))
			case reflection.DefaultUnresolvable:
				d.Add("default", "unresolvable: "+view.DefaultReason)
			default:
				d.Add("default", "-")
			}
			d.Add("default text", orDash(view.DefaultText))
			d.Add("attributes", attributeLines(view.Attributes))
			d.Add("attributes (recursive)", attributeLines(view.AttributesRecursive))
			d.Render()
			return nil
		},
	}
}

func describeParameter(p *reflection.Parameter) (paramView, error) {
	view := paramView{
		Name:                p.Name(),
		Position:            p.Position(),
		Type:                p.TypeAnnotationText(),
		TypeHint:            p.TypeHintText(),
		AllowsNull:          p.AllowsNull(),
		ByReference:         p.IsByReference(),
		CanBePassedByValue:  p.CanBePassedByValue(),
		Optional:            p.IsOptional(),
		Variadic:            p.IsVariadic(),
		Array:               p.IsArray(),
		Callable:            p.IsCallable(),
		DeclaringFunction:   p.DeclaringFunction().String(),
		DefaultText:         p.DefaultValueText(),
		Attributes:          p.Attributes(),
		AttributesRecursive: p.AttributesRecursive(),
	}

	class, err := p.ClassType()
	if err != nil {
		return paramView{}, fmt.Errorf("class type of $%s: %w", p.Name(), err)
	}
	if class != nil {
		view.Class = class.Name
	}
	declaring, err := p.DeclaringClass()
	if err != nil {
		return paramView{}, err
	}
	if declaring != nil {
		view.DeclaringClass = declaring.Name
	}

	def := p.DefaultValueState()
	view.Default = def.State().String()
	switch def.State() {
	case reflection.DefaultAvailable:
		view.DefaultValue, _ = p.DefaultValue()
	case reflection.DefaultUnresolvable:
		view.DefaultReason = def.Reason()
	}
	return view, nil
}

func newAttrsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attrs <class> <method> <position>",
		Short: "Show a parameter's attributes merged across the class hierarchy",
		Long: `Show the attributes of the parameter at <position> of <class>::<method>,
merged with those declared on the same parameter by every ancestor that
declares the method. The most derived declaration of an attribute wins.`,
		Example: `  reflect attrs 'App\Derived' handle 0`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[2])
			if err != nil || position < 0 {
				return fmt.Errorf("position must be a non-negative integer, got %q", args[2])
			}
			provider, err := a.metadata(cmd.Context())
			if err != nil {
				return err
			}
			class, err := provider.ResolveClass(args[0])
			if err != nil {
				return err
			}

			resolver := reflection.NewAttributeResolver(provider, a.reflectionOptions()...)
			attrs := resolver.Resolve(class, args[1], position)

			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				return writeJSON(out, attrs)
			}
			if len(attrs) == 0 {
				ui.Message{Level: ui.LevelInfo, Title: "no attributes", NoColor: a.noColor()}.Write(out)
				return nil
			}
			table := ui.NewTable(out, a.noColor(), "Attribute", "Value")
			for _, k := range sortedKeys(attrs) {
				table.AddRow(k, formatValue(attrs[k]))
			}
			table.Render()
			return nil
		},
	}
}
