// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the dmc CLI, which converts between
// DOCX and Markdown without losing review comment threads.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/dmc/internal/config"
	"github.com/pdiddy/dmc/internal/convert"
	"github.com/pdiddy/dmc/internal/history"
	"github.com/pdiddy/dmc/internal/pandoc"
	"github.com/pdiddy/dmc/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// app holds state shared by all commands for one invocation.
type app struct {
	configFile string
	verbose    bool

	ready  bool
	cfg    types.Config
	logger *zap.Logger
	store  *history.Store
	tr     *lazyTransducer
}

var state = &app{logger: zap.NewNop()}

// rootCmd converts the files it is given when no subcommand is named.
var rootCmd = &cobra.Command{
	Use:   "dmc [file...] [-o output] [pandoc options]",
	Short: "Convert between DOCX and Markdown while keeping review comments",
	Long: `dmc converts Word documents to Markdown and back with pandoc, carrying
comment threads, resolved state and Word's comment identifiers through
attributes on the comment markers.

With file arguments and no command, each .docx becomes .md and every other
file becomes .docx. Options dmc does not know are passed to pandoc.`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	RunE:               runAuto,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.DisableFlagParsing {
			return nil
		}
		return state.setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		state.close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&state.configFile, "config", "", "config file (default: ./dmc.yaml or ~/.config/dmc/dmc.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "log pandoc invocations and conversion details")
}

// globalFlags lets commands that parse their own arguments accept the
// persistent options.
func (a *app) globalFlags() []flagSpec {
	return []flagSpec{
		stringFlag("", "--config", &a.configFile),
		boolFlag("-v", "--verbose", &a.verbose),
	}
}

// setup loads configuration and builds the logger, transducer and history
// store. It runs once per invocation.
func (a *app) setup() error {
	if a.ready {
		return nil
	}
	a.ready = true

	logger, err := newLogger(a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	v := viper.New()
	config.SetDefaults(v)
	used, err := config.ReadFile(v, a.configFile)
	if err != nil {
		return err
	}
	if used != "" {
		a.logger.Debug("using config file", zap.String("path", used))
	}
	if a.cfg, err = config.Load(v); err != nil {
		return err
	}
	a.tr = &lazyTransducer{cfg: a.cfg.Pandoc, logger: a.logger}

	if a.cfg.History.Enabled {
		store, err := history.NewStore(a.cfg.History.Path)
		if err != nil {
			a.logger.Warn("conversion history disabled", zap.Error(err))
		} else {
			a.store = store
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing history", zap.Error(err))
		}
		a.store = nil
	}
	_ = a.logger.Sync()
}

// engine returns a conversion engine that records runs when history is
// enabled.
func (a *app) engine() *convert.Engine {
	opts := []convert.Option{convert.WithLogger(a.logger)}
	if a.store != nil {
		opts = append(opts, convert.WithRecorder(a.store))
	}
	return convert.New(a.tr, a.cfg, opts...)
}

// exitCode maps an error to the process exit status: 2 when pandoc failed,
// 1 otherwise.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *pandoc.ExitError
	if errors.As(err, &exit) {
		return 2
	}
	return 1
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		var exit *pandoc.ExitError
		if errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, exit.Error())
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	state.close()
	os.Exit(exitCode(err))
}
