package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gounthar/lacework-security-scanner-plugin/internal/config"
	"github.com/gounthar/lacework-security-scanner-plugin/internal/docker"
	"github.com/gounthar/lacework-security-scanner-plugin/internal/lwmcp"
	"github.com/gounthar/lacework-security-scanner-plugin/internal/pipeline"
)

// These variables are set by the build process using ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exitFunc is replaced in tests.
var exitFunc = os.Exit

func newLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func newRootCmd() *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "lw-scanner-step",
		Short: "Lacework image scanner build step",
		Long: `Runs lw-scanner against a container image as a build step and publishes its HTML report
into the workspace with inline styles moved to an external laceworkstyles.css, so the report
can be served under a content security policy that forbids inline styles.`,
		Version:      fmt.Sprintf("Version: %s\nCommit: %s\nBuild Date: %s", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	var configFile string
	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate an image and publish the sanitized report",
		Long: `Evaluate an image with lw-scanner. The process exits with lw-scanner's exit code,
or 255 when the step itself could not run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(debug)

			v, err := config.New(cmd.Flags())
			if err != nil {
				return err
			}
			if err := config.ReadFile(v, configFile); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if cfg.Options.NoPull {
				docker.WarnIfNotLocal(ctx, docker.EngineChecker{}, cfg.Options.ImageName, cfg.Options.ImageTag, log)
			}

			result := pipeline.New(log).Execute(ctx, pipeline.Request{
				Options:   cfg.Options,
				BuildRoot: cfg.BuildRoot,
				Workspace: cfg.Workspace,
			})
			if result.ExitCode != 0 {
				exitFunc(result.ExitCode & 0xff)
			}
			return nil
		},
	}
	evaluateCmd.Flags().StringVar(&configFile, "config", "", "YAML file with default settings")
	config.RegisterFlags(evaluateCmd.Flags())

	stdioCmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start stdio server",
		Long:  `Start a server that communicates via standard input/output streams using the Model Context Protocol (MCP).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return lwmcp.Run(cmd.Context(), version, newLogger(debug))
		},
	}

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(stdioCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
