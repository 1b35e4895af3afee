package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mozilla/glean-dictionary/internal/cli/ui"
	"github.com/mozilla/glean-dictionary/internal/glean"
)

// NewAppsCommand creates the apps command
func NewAppsCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List the applications registered with the probe-info service",
		Long: `List every application id known to the probe-info service, grouped by
application name. Ids marked skip_documentation are hidden unless --all is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			_, repo := newRepository(cfg, logger)
			apps, err := repo.Apps(ctx)
			if err != nil {
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"APP NAME", "APP ID", "CHANNEL", "DEPRECATED"}, noColorFlag(cmd))
			for _, app := range listedApps(apps, all) {
				channel := app.AppChannel
				if channel == "" {
					channel = "-"
				}
				table.AddRow(app.AppName, app.AppID, channel, strconv.FormatBool(app.Deprecated))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include applications hidden from the dictionary")

	return cmd
}

// listedApps returns apps grouped by application name in registry order of
// first appearance.
func listedApps(apps []glean.App, all bool) []glean.App {
	var order []string
	byName := make(map[string][]glean.App)
	for _, app := range apps {
		if app.SkipDocumentation && !all {
			continue
		}
		if _, ok := byName[app.AppName]; !ok {
			order = append(order, app.AppName)
		}
		byName[app.AppName] = append(byName[app.AppName], app)
	}

	listed := make([]glean.App, 0, len(apps))
	for _, name := range order {
		listed = append(listed, byName[name]...)
	}
	return listed
}
