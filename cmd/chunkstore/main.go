package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jaywantadh/chunkstore/config"
	"github.com/jaywantadh/chunkstore/pkg/env"
	"github.com/jaywantadh/chunkstore/pkg/logging"
)

const configKey = "config"

func main() {
	env.LoadEnv()

	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "chunkstore",
		Usage:     "Content-addressed chunk store client and server",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: ".",
				Usage: "Directory holding config.yaml",
			},
			&cli.StringFlag{
				Name:    "server",
				Usage:   "Chunk store base URL",
				EnvVars: []string{"CHUNKSTORE_SERVER_URL"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Verbose text logging",
			},
		},
		Before: loadConfig,
		// errors are reported by main so exit codes stay in one place
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			putCmd(),
			getCmd(),
			deleteCmd(),
			listCmd(),
			statCmd(),
			addressCmd(),
			serveCmd(),
		},
	}
}

// loadConfig reads the config file and environment, applies global flag
// overrides and initialises logging.
func loadConfig(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	if c.IsSet("server") {
		cfg.ServerURL = c.String("server")
	}
	if c.IsSet("timeout") {
		cfg.RequestTimeout = c.Duration("timeout")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	logging.InitLogger(cfg.Debug)
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func appConfig(c *cli.Context) *config.AppConfig {
	return c.App.Metadata[configKey].(*config.AppConfig)
}
