package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/olehluchkiv/stepdefs/internal/annotation"
	"github.com/olehluchkiv/stepdefs/internal/config"
	"github.com/olehluchkiv/stepdefs/internal/loader"
	"github.com/olehluchkiv/stepdefs/internal/logging"
	"github.com/olehluchkiv/stepdefs/internal/reflector"
	"github.com/olehluchkiv/stepdefs/internal/registry"
	"github.com/olehluchkiv/stepdefs/internal/report"
	"github.com/olehluchkiv/stepdefs/internal/resolver"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	config    string
	patterns  []string
	contexts  []string
	format    string
	tests     bool
	download  bool
	noColor   bool
	logFile   string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	cmd, _ := buildRootCmd()
	return cmd
}

func buildRootCmd() (*cobra.Command, *options) {
	opts := &options{}
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "stepdefs [flags] [path-or-url]",
		Short: "List step definitions, transformations and hooks declared in Go doc comments",
		Long: `stepdefs loads the Go packages of a module, reads the doc comments of the
methods of each context type and reports the @given/@when/@then step
definitions, @transform transformations and @before*/@after* hooks they
declare.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "."
			if len(args) > 0 {
				input = args[0]
			}
			err := run(cmd, input, opts)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.config, "config", "", "config file (default: "+config.FileName+" in the module root)")
	f.StringSliceVarP(&opts.patterns, "pattern", "p", defaults.Patterns, "package patterns to load")
	f.StringSliceVarP(&opts.contexts, "context", "c", nil, "context type names (Type or pkgpath.Type); default all")
	f.StringVarP(&opts.format, "format", "f", defaults.Format, "output format (table, json, yaml, text)")
	f.BoolVar(&opts.tests, "tests", defaults.Tests, "include _test.go files")
	f.BoolVar(&opts.download, "download", defaults.Download, "run go mod download before loading")
	f.BoolVar(&opts.noColor, "no-color", defaults.NoColor, "disable colored text output")
	f.StringVar(&opts.logFile, "log-file", defaults.Log.File, "log file path, in addition to stderr")
	f.StringVar(&opts.logLevel, "log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", defaults.Log.Format, "log format (json, text)")

	cmd.AddCommand(newTagsCmd())
	return cmd, opts
}

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the recognized doc comment tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printTags(cmd.OutOrStdout())
		},
	}
}

func printTags(w io.Writer) error {
	for _, k := range annotation.Kinds() {
		if _, err := fmt.Fprintf(w, "@%-15s %s\n", k.Title(), k.Capability()); err != nil {
			return err
		}
	}
	return nil
}

func run(cmd *cobra.Command, input string, opts *options) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, opts, opts.config)
	if err != nil {
		return err
	}

	logger, cleanup, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer func() { cleanup() }()

	// Step 1: Resolve input to a module root
	root, err := resolver.New(resolver.Options{Download: cfg.Download}, logger).Resolve(ctx, input)
	if err != nil {
		logger.Error("failed to resolve input", "error", err)
		return fmt.Errorf("resolving input: %w", err)
	}

	if opts.config == "" {
		found, path, err := config.Discover(root)
		if err != nil {
			return err
		}
		if path != "" {
			if cfg, err = applyFlags(cmd, opts, found); err != nil {
				return err
			}
			discovered, discoveredCleanup, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			cleanup()
			logger, cleanup = discovered, discoveredCleanup
			logger.Info("config loaded", "path", path)
		}
	}

	// Step 2: Load packages
	pkgs, err := reflector.Load(ctx, root, reflector.LoadOptions{Patterns: cfg.Patterns, Tests: cfg.Tests}, logger)
	if err != nil {
		logger.Error("loading packages failed", "error", err)
		return err
	}

	contexts := pkgs.Contexts(cfg.Contexts...)
	if len(cfg.Contexts) > 0 && len(contexts) == 0 {
		return fmt.Errorf("no context types match %v", cfg.Contexts)
	}
	logger.Info("contexts found", "contexts", len(contexts))

	// Step 3: Load annotations into the registries
	defs := registry.NewDefinitions()
	hooks := registry.NewHooks()
	chain := loader.Chain{loader.New(pkgs, defs, hooks, loader.WithLogger(logger))}

	names := make([]string, 0, len(contexts))
	for _, c := range contexts {
		if err := chain.Load(c); err != nil {
			logger.Error("loading context failed", "context", c.String(), "error", err)
			return fmt.Errorf("loading %s: %w", c, err)
		}
		names = append(names, c.String())
	}

	logger.Info("registries loaded",
		"definitions", len(defs.Definitions()),
		"transformations", len(defs.Transformations()),
		"hooks", hooks.Len())

	// Step 4: Report
	rep := report.FromRegistries(names, defs, hooks)
	return report.Render(cmd.OutOrStdout(), rep, report.Options{Format: cfg.Format, NoColor: cfg.NoColor})
}

// loadConfig reads path (defaults when empty) and applies explicitly set
// flags on top.
func loadConfig(cmd *cobra.Command, opts *options, path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	return applyFlags(cmd, opts, cfg)
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cobra.Command, opts *options, cfg config.Config) (config.Config, error) {
	f := cmd.Flags()
	if f.Changed("pattern") {
		cfg.Patterns = opts.patterns
	}
	if f.Changed("context") {
		cfg.Contexts = opts.contexts
	}
	if f.Changed("format") {
		cfg.Format = opts.format
	}
	if f.Changed("tests") {
		cfg.Tests = opts.tests
	}
	if f.Changed("download") {
		cfg.Download = opts.download
	}
	if f.Changed("no-color") {
		cfg.NoColor = opts.noColor
	}
	if f.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	if f.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func setupLogging(cfg config.Config) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger, cleanup, err := logging.Setup(logging.Options{
		File:   cfg.Log.File,
		Level:  level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("setting up logging: %w", err)
	}
	return logger, cleanup, nil
}
