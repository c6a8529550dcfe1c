package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <repository-url-or-path> <query>...",
	Short: "Retrieve the most relevant passages without calling a language model",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sess, err := openSession(ctx, args[0])
		if err != nil {
			return err
		}
		defer sess.cleanup()

		query := strings.Join(args[1:], " ")
		results, err := sess.engine.Search(ctx, query, cfg.TopK)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No matching passages found.")
			return nil
		}

		for _, r := range results {
			preview := r.Passage.Text
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			preview = strings.ReplaceAll(preview, "\n", " ")
			fmt.Printf("%d. %s (score %.4f)\n   %s\n", r.Rank, r.Passage.SourcePath, r.Score, preview)
		}
		return nil
	},
}
