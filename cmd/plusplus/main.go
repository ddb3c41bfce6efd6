package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloudcmds/plusplus/op"
	"github.com/cloudcmds/plusplus/rewrite"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
}

// app holds the state shared by all commands of one invocation.
type app struct {
	config *viper.Viper
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{config: viper.New(), logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:     "plusplus",
		Short:   "Give ++ and -- a meaning in compiled bytecode",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Long: `Compiled code represents ++x as two unary plus operations, which leave x
unchanged. plusplus rewrites such pairs into in-place increments and
decrements, and can disassemble and run the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.plusplus.toml)")
	flags.String("host", op.Standard.Name,
		fmt.Sprintf("host instruction set: one of %s, or a TOML file", strings.Join(op.InstructionSetNames(), ", ")))
	flags.Bool("strict", false, "fail when an increment targets a value that cannot be assigned")
	flags.String("introspection-prefix", rewrite.DefaultIntrospectionPrefix, "local name prefix of assertion temporaries")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("no-color", false, "disable colored output")
	if err := a.config.BindPFlags(flags); err != nil {
		fatal(err)
	}

	cmd.AddCommand(newRewriteCmd(a), newDisCmd(a), newRunCmd(a))
	return cmd
}

// init loads the config file and environment, then configures colors and
// logging. Flags take precedence over the environment, which takes precedence
// over the config file.
func (a *app) init(cmd *cobra.Command) error {
	a.config.SetEnvPrefix("plusplus")
	a.config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.config.AutomaticEnv()

	explicit := a.config.GetString("config")
	if explicit != "" {
		path, err := homedir.Expand(explicit)
		if err != nil {
			return err
		}
		a.config.SetConfigFile(path)
	} else if home, err := homedir.Dir(); err == nil {
		a.config.AddConfigPath(home)
		a.config.SetConfigName(".plusplus")
		a.config.SetConfigType("toml")
	}
	if err := a.config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if a.config.GetBool("no-color") {
		color.NoColor = true
	}
	level, err := zerolog.ParseLevel(a.config.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q", a.config.GetString("log-level"))
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     cmd.ErrOrStderr(),
		NoColor: color.NoColor,
	}).Level(level).With().Timestamp().Logger()
	return nil
}
