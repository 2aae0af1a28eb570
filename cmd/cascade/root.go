package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/panyam/cascade"
	"github.com/panyam/cascade/internal/logging"
)

const (
	logFormatFlag      = "log-format"
	logLevelFlag       = "log-level"
	maxConcurrencyFlag = "max-concurrency"
)

// NewRootCommand lets every subcommand read flags from the command line,
// environment variables prefixed with CASCADE, or a config.yaml (in that
// order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("CASCADE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for _, path := range []string{"/etc/cascade", "$HOME/.cascade", "."} {
		viper.AddConfigPath(path)
	}
	_ = viper.ReadInConfig()

	cmd := &cobra.Command{
		Use:          "cascade",
		Short:        "Run reactive dataflow graphs built with cascade",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String(logFormatFlag, "text", "log format: text or json")
	flags.String(logLevelFlag, "none", "log level: none, debug, info, warn or error")
	flags.Int(maxConcurrencyFlag, cascade.DefaultMaxConcurrency, "goroutines a graph may use for fork branches")

	cmd.PersistentPreRun = func(command *cobra.Command, _ []string) {
		bindFlags(command.Root().PersistentFlags(), logFormatFlag, logLevelFlag, maxConcurrencyFlag)
	}
	return cmd
}

// bindFlags binds the cobra flags to the equivalent config values managed by
// viper.
func bindFlags(flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		MustBindPFlag(name, flags.Lookup(name))
	}
}

// MustBindPFlag attempts to bind a specific key to a pflag (as used by cobra)
// and panics if the binding fails with a non-nil error.
func MustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

// graphOptions turns the shared settings into options for cascade.New.
func graphOptions(name string) ([]cascade.Option, *zap.Logger, error) {
	logger, err := logging.New(viper.GetString(logFormatFlag), viper.GetString(logLevelFlag))
	if err != nil {
		return nil, nil, err
	}
	return []cascade.Option{
		cascade.WithName(name),
		cascade.WithLogger(logger),
		cascade.WithMaxConcurrency(viper.GetInt(maxConcurrencyFlag)),
	}, logger, nil
}

// printer writes whole lines from concurrently running fork branches.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) Println(args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, args...)
}
