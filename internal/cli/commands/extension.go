package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/introspect/internal/cli/ui"
	"github.com/conduit-lang/introspect/runtime/reflection"
)

type extensionView struct {
	Name      string                 `json:"name"`
	Version   string                 `json:"version"`
	Info      string                 `json:"info,omitempty"`
	Functions []functionView         `json:"functions"`
	Classes   []string               `json:"classes"`
	Constants map[string]interface{} `json:"constants"`
	INI       map[string]interface{} `json:"ini"`
}

type functionView struct {
	Name       string `json:"name"`
	ReturnType string `json:"return_type,omitempty"`
	Parameters int    `json:"parameters"`
}

func newExtensionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "extension <name>",
		Short:   "Describe an extension",
		Long:    "Show the version, functions, classes, constants and ini entries of an extension.",
		Example: `  reflect extension standard`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := a.metadata(cmd.Context())
			if err != nil {
				return err
			}
			ext, err := reflection.NewExtension(provider, args[0])
			if err != nil {
				return err
			}

			functions := ext.Functions()
			view := extensionView{
				Name:      ext.Name(),
				Version:   ext.Version(),
				Info:      ext.Info(),
				Functions: make([]functionView, 0, len(functions)),
				Classes:   ext.ClassNames(),
				Constants: ext.Constants(),
				INI:       ext.INIEntries(),
			}
			for _, name := range ext.FunctionNames() {
				fn := functions[name]
				view.Functions = append(view.Functions, functionView{
					Name:       fn.Name,
					ReturnType: fn.ReturnType,
					Parameters: len(fn.Parameters),
				})
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				return writeJSON(out, view)
			}

			noColor := a.noColor()
			d := ui.NewDetails(out, "Extension "+view.Name, noColor)
			d.Add("version", orDash(view.Version))
			d.Add("info", orDash(view.Info))
			d.Add("classes", len(view.Classes))
			d.Render()

			if len(view.Functions) > 0 {
				section(out, "Functions", noColor)
				table := ui.NewTable(out, noColor, "Name", "Parameters", "Returns")
				for _, fn := range view.Functions {
					table.AddRow(fn.Name, strconv.Itoa(fn.Parameters), orDash(fn.ReturnType))
				}
				table.Render()
			}
			if len(view.Classes) > 0 {
				section(out, "Classes", noColor)
				table := ui.NewTable(out, noColor, "#", "Class")
				for i, name := range view.Classes {
					table.AddRow(strconv.Itoa(i), name)
				}
				table.Render()
			}
			renderValues(out, "Constants", view.Constants, noColor)
			renderValues(out, "INI entries", view.INI, noColor)
			return nil
		},
	}
}
