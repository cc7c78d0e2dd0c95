// Image transformation batch tool
// Applies reconstruction, edge and noise mask transformations to scene
// images and stores them under their canonical transformation path.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"image-transformations/internal/config"
	"image-transformations/internal/runner"
	"image-transformations/internal/transformation"
)

const (
	AppName    = "transform"
	AppVersion = "1.0.0"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    AppName,
		Usage:   "apply image transformations and derive their storage paths",
		Version: AppVersion,
		Commands: []*cli.Command{
			runCommand(),
			pathCommand(),
			kindsCommand(),
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "transform every scene image listed by a config file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				EnvVars: []string{config.EnvConfigFile},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug mode with verbose logging",
			},
		},
		Action: func(c *cli.Context) error {
			logger := initLogger(c.Bool("debug"))

			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"version":         AppVersion,
				"input":           cfg.Input,
				"output":          cfg.Output,
				"transformations": len(cfg.Transformations),
			}).Info("Starting image transformations")

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			results, err := runner.New(cfg, logger).Run(ctx)
			skipped := 0
			for _, r := range results {
				if r.Skipped {
					skipped++
				}
				if len(r.Metrics) > 0 {
					logger.WithFields(logrus.Fields{
						"output":  r.Output,
						"metrics": r.Metrics,
					}).Info("Quality metrics")
				}
			}
			logger.WithFields(logrus.Fields{
				"written": len(results) - skipped,
				"skipped": skipped,
			}).Info("Done")
			return err
		},
	}
}

func pathCommand() *cli.Command {
	return &cli.Command{
		Name:  "path",
		Usage: "print the storage path fragment of a transformation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Required: true, Usage: "transformation kind"},
			&cli.StringFlag{Name: "param", Usage: "comma separated parameters, or the image name for static"},
			&cli.StringFlag{Name: "size", Usage: "target size as height,width"},
		},
		Action: func(c *cli.Context) error {
			s := transformation.New(c.String("kind"), c.String("param"), c.String("size"))
			path, err := s.Path()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, path)
			return nil
		},
	}
}

func kindsCommand() *cli.Command {
	return &cli.Command{
		Name:  "kinds",
		Usage: "list the recognized transformation kinds",
		Action: func(c *cli.Context) error {
			for _, k := range transformation.Kinds {
				fmt.Fprintln(c.App.Writer, k)
			}
			return nil
		},
	}
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
