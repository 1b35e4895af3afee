package commands

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mozilla/glean-dictionary/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// configError marks failures to load or apply the configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// buildFailure marks failures of the build itself.
type buildFailure struct {
	err error
}

func (e *buildFailure) Error() string { return e.err.Error() }
func (e *buildFailure) Unwrap() error { return e.err }

// NewRootCommand creates the root command. Run without a subcommand it builds
// the dictionary.
func NewRootCommand() *cobra.Command {
	opts := &buildOptions{}

	rootCmd := &cobra.Command{
		Use:   "glean-dictionary [app-name...]",
		Short: "Generate the Glean Dictionary data files",
		Long: color.CyanString(`Glean Dictionary - metadata aggregator

Fetches Glean metric, ping and tag definitions from the probe-info service,
merges them with annotations, dashboard namespaces, Firefox release dates and
sampling experiments, and writes one JSON document per application, app id,
ping, table and metric, plus the search functions.

With no arguments every documented application is built. Pass application
names to build only those.`),
		Example: `  # Build everything into public/data
  glean-dictionary

  # Build two applications into a scratch directory
  glean-dictionary -o /tmp/data fenix firefox_desktop

  # Preview the result
  glean-dictionary serve`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, args)
		},
	}

	addBuildFlags(rootCmd, opts)
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output (also honors NO_COLOR)")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewAppsCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the glean-dictionary version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			writeVersion(cmd.OutOrStdout())
		},
	}
}

func writeVersion(w io.Writer) {
	goVer := GoVersion
	if goVer == "unknown" {
		goVer = runtime.Version()
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	valueColor := color.New(color.FgWhite)

	for _, line := range [][2]string{
		{"glean-dictionary version: ", Version},
		{"Git commit: ", GitCommit},
		{"Build date: ", BuildDate},
		{"Go version: ", goVer},
	} {
		titleColor.Fprint(w, line[0])
		valueColor.Fprintln(w, line[1])
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	err := rootCmd.Execute()
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err, noColorFlag(rootCmd))
	}
	return err
}

// noColorFlag reports whether color is off for cmd, from --no-color on the
// root or NO_COLOR.
func noColorFlag(cmd *cobra.Command) bool {
	noColor, _ := cmd.Root().PersistentFlags().GetBool("no-color")
	return ui.ColorDisabled(noColor)
}

func reportError(w io.Writer, err error, noColor bool) {
	var cfgErr *configError
	var buildErr *buildFailure
	switch {
	case errors.As(err, &cfgErr):
		fmt.Fprint(w, ui.ConfigError(cfgErr.err, noColor))
	case errors.As(err, &buildErr):
		fmt.Fprint(w, ui.BuildError(buildErr.err, noColor))
	default:
		ui.WriteError(w, ui.ErrorOptions{
			Level:        ui.ErrorLevelError,
			Problem:      err.Error(),
			HelpCommands: []string{"Get help: glean-dictionary --help"},
			NoColor:      noColor,
		})
	}
}
