package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ChristopherRabotin/ephem"
	"github.com/go-kit/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what the subcommands share once the configuration is read.
type app struct {
	v      *viper.Viper
	conf   ephem.Config
	logger log.Logger
	logs   io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: log.NewNopLogger()}
	ephem.SetDefaults(a.v)

	root := &cobra.Command{
		Use:                "ephem",
		Short:              "States of solar system bodies from SPK kernels",
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "directory of conf.toml (defaults to $"+ephem.ConfigEnv+")")
	pf.String("log-level", "", "debug, info, warn, error or none (default info)")
	pf.String("log-file", "", "log to a rotating file instead of stderr")
	a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	a.v.BindPFlag("log.file", pf.Lookup("log-file"))

	root.AddCommand(newStateCmd(a), newSegmentsCmd(a), newExportCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("config")
	if dir == "" {
		dir = os.Getenv(ephem.ConfigEnv)
	}
	if dir != "" {
		a.v.SetConfigName("conf")
		a.v.AddConfigPath(dir)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("%s/conf: %w", dir, err)
		}
	}
	conf, err := ephem.ConfigFromViper(a.v)
	if err != nil {
		return err
	}
	a.conf = conf

	w := cmd.ErrOrStderr()
	if conf.LogFile != "" {
		lj := &lumberjack.Logger{Filename: conf.LogFile, MaxSize: 10, MaxBackups: 3, MaxAge: 28}
		a.logs = lj
		w = lj
	}
	a.logger, err = ephem.NewLogger(w, conf.LogLevel)
	return err
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.logs != nil {
		return a.logs.Close()
	}
	return nil
}
