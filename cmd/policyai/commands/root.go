// Package commands defines all Cobra CLI commands for the policyai binary.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/policyai-go/internal/audit"
	"github.com/54b3r/policyai-go/internal/config"
	"github.com/54b3r/policyai-go/internal/logging"
)

var (
	// configPath holds the --config flag value.
	configPath string
	// envFile holds the --env-file flag value.
	envFile string
)

// NewRootCmd constructs the root command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "policyai",
		Short: "policyai answers questions about your health insurance policy",
		Long: `policyai answers natural language questions about a health insurance
policy document. Answers are grounded in the policy text: the question is
embedded, the most similar policy chunks are retrieved and a language model
answers using only those chunks, citing their sections.

The chunk collection is produced by 'policyai embed'. Backends are selected
with MODEL_PROVIDER and EMBEDDING_PROVIDER, from the environment, a .env file
or a YAML config file (~/.policyai/config.yaml).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			boot := logging.New()

			// .env before YAML so the .env file takes precedence.
			if _, err := config.LoadDotEnv(envFile, boot); err != nil {
				return err
			}
			path, err := config.Load(configPath, boot)
			if err != nil {
				return err
			}

			// LOG_* may have come from one of the files.
			log := logging.New()
			slog.SetDefault(log)
			cmd.SetContext(logging.WithLogger(cmd.Context(), log))

			audit.LogCommandStart(log, cmd.Name(), path)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.policyai/config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultDotEnvPath, "Path to .env file")

	root.AddCommand(
		NewAskCmd(),
		NewServeCmd(),
		NewCheckCmd(),
		NewChunksCmd(),
		NewEmbedCmd(),
		NewHistoryCmd(),
		NewVersionCmd(),
	)

	return root
}
