package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/introspect/runtime/reflection/catalog"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reflect",
		Short: "Query reflection metadata of functions, classes and extensions",
		Long: color.CyanString(`reflect - reflection metadata explorer

reflect answers questions about parameters, properties and extensions
from a metadata catalog:
  • Parameter types, nullability and default values
  • Attributes merged across the class hierarchy
  • Property visibility and static values
  • Extension contents

Metadata comes from a catalog file, PHP sources or a SQL database,
as configured in reflect.yaml.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			if a.noColor() {
				color.NoColor = true
			}
			return nil
		},
	}
	a.bindFlags(rootCmd)

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newParamCommand(a))
	rootCmd.AddCommand(newAttrsCommand(a))
	rootCmd.AddCommand(newPropertyCommand(a))
	rootCmd.AddCommand(newExtensionCommand(a))
	rootCmd.AddCommand(newCatalogCommand(a))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the reflect version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)
			out := cmd.OutOrStdout()

			titleColor.Fprint(out, "reflect version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	a := newApp()
	rootCmd := newRootCommand(a)
	if err := rootCmd.Execute(); err != nil {
		var c *catalog.Catalog
		if a.provider != nil {
			c = a.provider.Catalog()
		}
		describeError(err, c, a.noColor()).Write(rootCmd.ErrOrStderr())
		return err
	}
	return nil
}
