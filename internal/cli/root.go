// Package cli implements the repoqa command surface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/repoqa/repoqa/internal/config"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	cfg *config.Config

	flagModel string
	flagTopK  int
)

var rootCmd = &cobra.Command{
	Use:   "repoqa",
	Short: "Ask natural-language questions about a source-code repository",
	Long: `repoqa indexes a repository into overlapping text passages, scores them
with a hybrid of BM25 and TF-IDF cosine similarity, and answers questions
from the best-matching passages using a language model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.FromEnv()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("model") {
			cfg.Model = flagModel
		}
		if cmd.Flags().Changed("top-k") {
			cfg.TopK = flagTopK
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", config.DefaultModel, "chat model used for answers")
	rootCmd.PersistentFlags().IntVar(&flagTopK, "top-k", config.DefaultTopK, "passages retrieved per question")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
