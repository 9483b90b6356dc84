package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/introspect/internal/cli/ui"
	"github.com/conduit-lang/introspect/runtime/reflection"
)

type propertyView struct {
	Name           string      `json:"name"`
	DeclaringClass string      `json:"declaring_class"`
	Visibility     string      `json:"visibility"`
	Static         bool        `json:"static"`
	Default        bool        `json:"default"`
	Modifiers      int         `json:"modifiers"`
	Type           string      `json:"type,omitempty"`
	Doc            string      `json:"doc,omitempty"`
	Accessible     bool        `json:"accessible"`
	Value          interface{} `json:"value,omitempty"`
}

func newPropertyCommand(a *app) *cobra.Command {
	var (
		set        string
		object     string
		accessible bool
	)

	cmd := &cobra.Command{
		Use:   "property <class> <name>",
		Short: "Describe a property and read or write its value",
		Long: `Describe a property of a class and read its value.

Static values live in the configured property store. Instance properties
need an object, given as a JSON object of field values with --object.
Non-public properties are only readable with --accessible.`,
		Example: `  # Read a static property
  reflect property Counter count

  # Write then read it
  reflect property Counter count --set 10

  # Read a protected instance property of an object
  reflect property Counter token --object '{"token":"abc"}' --accessible`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			provider, err := a.metadata(ctx)
			if err != nil {
				return err
			}
			store, release, err := a.propertyStore(ctx, provider.Catalog())
			if err != nil {
				return err
			}
			defer release()

			opts := append(a.reflectionOptions(), reflection.WithStore(store))
			p, err := reflection.NewProperty(provider, args[0], args[1], opts...)
			if err != nil {
				return err
			}
			p.SetAccessible(accessible)

			var target []interface{}
			if object != "" {
				var fields map[string]interface{}
				if err := json.Unmarshal([]byte(object), &fields); err != nil {
					return fmt.Errorf("--object must be a JSON object: %w", err)
				}
				target = append(target, reflection.NewObject(args[0], fields))
			}

			out := cmd.OutOrStdout()
			readable := p.IsStatic() || len(target) > 0

			if cmd.Flags().Changed("set") {
				var value interface{}
				if err := json.Unmarshal([]byte(set), &value); err != nil {
					return fmt.Errorf("--set must be a JSON value: %w", err)
				}
				res, err := p.SetValue(ctx, append(target, value)...)
				if err != nil {
					return err
				}
				if !res.OK() {
					ui.Warning(cmd.ErrOrStderr(), res.Diagnostic.Error(), a.noColor())
				}
			}

			view := propertyView{
				Name:       p.Name(),
				Visibility: p.Modifiers().String(),
				Static:     p.IsStatic(),
				Default:    p.IsDefault(),
				Modifiers:  int(p.Modifiers()),
				Type:       p.TypeText(),
				Doc:        p.DocComment(),
				Accessible: p.IsAccessible(),
			}
			class, err := p.DeclaringClass()
			if err != nil {
				return err
			}
			if class != nil {
				view.DeclaringClass = class.Name
			}
			if readable {
				res, err := p.GetValue(ctx, target...)
				if err != nil {
					return err
				}
				view.Value = res.Value
			}

			if a.jsonOutput() {
				return writeJSON(out, view)
			}
			d := ui.NewDetails(out, fmt.Sprintf("Property %s::$%s", orDash(view.DeclaringClass), view.Name), a.noColor())
			d.Add("visibility", view.Visibility)
			d.Add("static", view.Static)
			d.Add("declared", view.Default)
			d.Add("modifiers", view.Modifiers)
			d.Add("type", orDash(view.Type))
			d.Add("doc", orDash(view.Doc))
			d.Add("accessible", view.Accessible)
			if readable {
				d.Add("value", formatValue(view.Value))
			}
			d.Render()
			if !readable {
				ui.Warning(out, "instance property: pass --object to read its value", a.noColor())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "Write this JSON value before reading")
	cmd.Flags().StringVar(&object, "object", "", "Fields of the instance to access, as a JSON object")
	cmd.Flags().BoolVar(&accessible, "accessible", false, "Bypass visibility checks")

	return cmd
}
