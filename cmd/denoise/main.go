package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neurlang/denoise/config"
	"github.com/neurlang/denoise/logging"
)

type app struct {
	cfgFile  string
	logLevel string

	conf *config.Root
	log  *logging.Logger
}

// setup loads the configuration and opens the run log. With withFile the
// log is also appended to the configured log file.
func (a *app) setup(withFile bool) error {
	conf, err := config.Load(config.New(), a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		conf.LogLevel = a.logLevel
	}
	var logPath string
	if withFile {
		logPath = conf.Paths.Log
	}
	log, err := logging.Open(os.Stderr, logPath, conf.LogLevel)
	if err != nil {
		return err
	}
	a.conf, a.log = conf, log
	return nil
}

func (a *app) close() {
	if a.log != nil {
		a.log.Close()
	}
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "denoise",
		Short:         "Magnitude-domain speech enhancement",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "configuration file (default: search config.yaml in . and ./config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		a.trainCommand(),
		a.testCommand(),
		a.inferCommand(),
		a.packCommand(),
		a.spectrogramCommand(),
		a.configCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
