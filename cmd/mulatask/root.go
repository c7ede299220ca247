package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dolphinheart/mulastudio/internal/api"
	"github.com/dolphinheart/mulastudio/internal/config"
	"github.com/dolphinheart/mulastudio/internal/secrets"
)

// commandContext lazily loads config and builds the API client once per
// invocation, shared by every subcommand.
type commandContext struct {
	baseURLFlag *string
	cfg         *config.Config
	client      *api.Client
}

func newCommandContext(baseURLFlag *string) *commandContext {
	return &commandContext{baseURLFlag: baseURLFlag}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if c.baseURLFlag != nil && *c.baseURLFlag != "" {
		cfg.API.BaseURL = *c.baseURLFlag
	}
	c.cfg = &cfg
	return cfg, nil
}

func (c *commandContext) ensureClient() (*api.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.client = api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithTokenSource(func() string {
			if v := os.Getenv("MULASTUDIO_TOKEN"); v != "" {
				return v
			}
			token, err := secrets.FetchToken()
			if err != nil {
				return ""
			}
			return token
		}),
	)
	return c.client, nil
}

func newRootCommand() *cobra.Command {
	var baseURLFlag string

	ctx := newCommandContext(&baseURLFlag)

	rootCmd := &cobra.Command{
		Use:           "mulatask",
		Short:         "Submit and track MulaStudio backend tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Backend API base URL")

	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newTranscribeCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newEditResultCommand(ctx))
	rootCmd.AddCommand(newDownloadCommand(ctx))
	rootCmd.AddCommand(newProjectsCommand(ctx))
	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newLogoutCommand(ctx))

	return rootCmd
}
