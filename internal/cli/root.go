// Package cli implements the oneapi command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/oneapi-client/internal/config"
	"github.com/Sternrassler/oneapi-client/pkg/logging"
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	cfgFile   string
	logLevel  string
	redisAddr string

	cfg    *config.Config
	logger zerolog.Logger
}

// NewRootCommand builds the command tree. Output goes to cmd.OutOrStdout.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "oneapi",
		Short: "Browse the-one-api.dev movie catalog",
		Long: `oneapi lists movies, quotes and characters from the-one-api.dev.

Requests are rate limited client-side and every result is cached for the
lifetime of the process, so repeated lookups cost no further requests.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initialize,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.redisAddr, "redis", "", "share the request window through this Redis address")

	root.AddCommand(
		a.moviesCommand(),
		a.movieCommand(),
		a.quotesCommand(),
		a.characterCommand(),
		a.serveCommand(),
	)

	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the CLI with the given arguments and returns the exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			fmt.Fprintln(stderr, config.MissingTokenHelp())
		} else {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func (a *app) initialize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if cmd.Flags().Changed("redis") {
		cfg.Redis.Addr = a.redisAddr
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.Logging.Level)
	logCfg.Output = cmd.ErrOrStderr()
	logCfg.Pretty = cfg.Logging.Pretty || logging.IsTerminal(logCfg.Output)
	logging.Setup(logCfg)

	a.cfg = cfg
	a.logger = logging.NewLogger("cli")
	return nil
}
