package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/logging"
	"github.com/eringen/pubcontent/output"
)

// cli holds the global flags and the configuration they resolve to.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool

	cfg pubcontent.Config
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pubcontent",
		Short: "Validate blog post front-matter",
		Long: `pubcontent checks the front-matter of every post in a blog content
collection: title, description, publication dates, images and tags.

It can also keep a SQLite index of the valid posts and serve it over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			output.SetVerbose(c.verbose)

			cfg, err := pubcontent.LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.LogLevel = c.logLevel
			}
			if c.logFormat != "" {
				cfg.LogFormat = c.logFormat
			}
			if c.verbose && c.logLevel == "" {
				cfg.LogLevel = "debug"
			}
			logging.Init(logging.Config{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Output: os.Stderr,
			})
			c.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", fmt.Sprintf("Config file (default %s)", pubcontent.DefaultConfigFile))
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "Log format: console, json")
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose output")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pubcontent version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pubcontent %s\n", version)
		},
	}
}
