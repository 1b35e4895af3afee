package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mozilla/glean-dictionary/internal/autoevents"
	"github.com/mozilla/glean-dictionary/internal/catalog"
	"github.com/mozilla/glean-dictionary/internal/cli/config"
	"github.com/mozilla/glean-dictionary/internal/cli/ui"
	"github.com/mozilla/glean-dictionary/internal/fetch"
	"github.com/mozilla/glean-dictionary/internal/glean"
	"github.com/mozilla/glean-dictionary/internal/logging"
	"github.com/mozilla/glean-dictionary/internal/output"
)

type buildOptions struct {
	output       string
	functionsDir string
}

func addBuildFlags(cmd *cobra.Command, opts *buildOptions) {
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Data output directory (default: output_dir setting, public/data)")
	cmd.Flags().StringVar(&opts.functionsDir, "functions-dir", "", "Search functions output directory (default: functions_dir setting, .netlify)")
}

// loadConfig loads the configuration and applies command line overrides.
func loadConfig(cmd *cobra.Command, opts *buildOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, &configError{err}
	}
	if opts != nil && cmd.Flags().Changed("output") {
		cfg.OutputDir = opts.output
	}
	if opts != nil && cmd.Flags().Changed("functions-dir") {
		cfg.FunctionsDir = opts.functionsDir
	}
	if output.ContainsPathTraversal(cfg.OutputDir) || output.ContainsPathTraversal(cfg.FunctionsDir) {
		return nil, &configError{fmt.Errorf("%w: %s, %s", output.ErrPathTraversal, cfg.OutputDir, cfg.FunctionsDir)}
	}
	return cfg, nil
}

// newLogger builds the run logger writing to w.
func newLogger(cfg *config.Config, w io.Writer) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, w)
	if err != nil {
		return nil, &configError{err}
	}
	logger, _ = logging.WithRun(logger)
	return logger, nil
}

// newRepository wires the fetch cache and the probe-info repository.
func newRepository(cfg *config.Config, logger *zap.Logger) (*fetch.Cache, *glean.Repository) {
	cache := fetch.NewCache(fetch.NewHTTPGetter(nil, cfg.Sources.CacheBust))
	repo := glean.NewRepository(cache, cfg.Sources.ProbeInfoURL, glean.DefaultLibrary(cfg.Glean.DefaultDependency), logger)
	return cache, repo
}

func catalogSources(cfg *config.Config) catalog.Sources {
	return catalog.Sources{
		AnnotationsURL:   cfg.Sources.AnnotationsURL,
		NamespacesURL:    cfg.Sources.NamespacesURL,
		ReleasesURL:      cfg.Sources.ProductDetailsURL,
		ExperimentsURL:   cfg.Sources.ExperimentsURL,
		SchemasURL:       cfg.Sources.SchemasURL,
		SchemasBrowseURL: cfg.Sources.SchemasBrowseURL,
	}
}

func runBuild(cmd *cobra.Command, opts *buildOptions, appNames []string) error {
	startTime := time.Now()
	stderr := cmd.ErrOrStderr()
	noColor := noColorFlag(cmd)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Info("Starting build",
		zap.String("output_dir", cfg.OutputDir),
		zap.String("functions_dir", cfg.FunctionsDir),
		zap.Strings("app_names", appNames))

	cache, repo := newRepository(cfg, logger)
	if err := warnUnknownApps(ctx, stderr, repo, appNames, noColor); err != nil {
		return &buildFailure{err}
	}

	var events autoevents.Source
	if cfg.BigQuery.Project != "" {
		source := autoevents.NewBigQuerySource(cfg.BigQuery.Project, cfg.BigQuery.AutoEventsTable)
		defer source.Close()
		events = source
	}

	gen := catalog.NewGenerator(&catalog.Config{
		Sources:  catalogSources(cfg),
		AppNames: appNames,
	}, cache, repo, events, logger)

	data, err := output.NewWriter(cfg.OutputDir)
	if err != nil {
		return &buildFailure{err}
	}
	functions, err := output.NewWriter(cfg.FunctionsDir)
	if err != nil {
		data.Abort()
		return &buildFailure{err}
	}

	err = ui.WithProgress(stderr, "Built glean dictionary", 0, noColor, func(bar *ui.ProgressBar) error {
		gen.SetProgress(bar)
		if err := gen.Generate(ctx, data, functions); err != nil {
			return err
		}
		return output.CommitAll(data, functions)
	})
	if err != nil {
		data.Abort()
		functions.Abort()
		return &buildFailure{err}
	}

	stats := cache.Stats()
	logger.Info("Build finished",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("documents", stats.Entries),
		zap.Int("cache_hits", stats.Hits))
	return nil
}

// warnUnknownApps prints a warning, with close matches, for every requested
// application name that is not registered. Such names simply build nothing.
func warnUnknownApps(ctx context.Context, w io.Writer, repo *glean.Repository, appNames []string, noColor bool) error {
	if len(appNames) == 0 {
		return nil
	}

	apps, err := repo.Apps(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(apps))
	names := make([]string, 0, len(apps))
	for _, app := range apps {
		if !known[app.AppName] {
			known[app.AppName] = true
			names = append(names, app.AppName)
		}
	}

	for _, name := range appNames {
		if known[name] {
			continue
		}
		message := fmt.Sprintf("No application named %q", name)
		if similar := ui.Suggest(name, names, 3); len(similar) > 0 {
			message += fmt.Sprintf("; did you mean %v?", similar)
		}
		fmt.Fprint(w, ui.Warning(message, noColor))
	}
	return nil
}
