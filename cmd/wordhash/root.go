package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"wordhash/internal/app"
	"wordhash/internal/config"
)

// commandContext lazily loads configuration and the hashing pipeline shared by subcommands.
type commandContext struct {
	configPath *string
	jsonOutput *bool
	components *app.App
}

func (c *commandContext) ensureApp(cmd *cobra.Command) (*app.App, error) {
	if c.components != nil {
		return c.components, nil
	}

	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	// The CLI never writes to the journal; replay opens it explicitly.
	cfg.Journal.Dir = ""

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	components, err := app.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize hashing pipeline: %w", err)
	}
	c.components = components
	return components, nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var jsonFlag bool

	ctx := &commandContext{configPath: &configFlag, jsonOutput: &jsonFlag}

	rootCmd := &cobra.Command{
		Use:           "wordhash",
		Short:         "Turn text into token frequency maps",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if ctx.components != nil {
				return ctx.components.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (.toml, .yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Emit JSON even when stdout is a terminal")

	rootCmd.AddCommand(newHashCommand(ctx))
	rootCmd.AddCommand(newLexiconCommand(ctx))
	rootCmd.AddCommand(newReplayCommand(ctx))

	return rootCmd
}
