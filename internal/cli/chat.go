package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repoqa/repoqa/internal/answer"
	"github.com/repoqa/repoqa/internal/history"
	"github.com/repoqa/repoqa/internal/loader"
	"github.com/repoqa/repoqa/internal/searcher"
)

// Terminal colors, matching the original interactive loop.
const (
	colorWhite = "\033[37m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

var chatCmd = &cobra.Command{
	Use:   "chat <repository-url-or-path>",
	Short: "Index a repository and answer questions interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), args[0])
	},
}

func runChat(ctx context.Context, source string) error {
	client, err := answer.NewOpenAIClient(cfg.OpenAIAPIKey)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, source)
	if err != nil {
		return err
	}
	defer sess.cleanup()

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() { _ = store.Close() }()

	historyID, err := store.CreateSession(ctx, sess.repoName, sess.repoURL)
	if err != nil {
		return fmt.Errorf("failed to create history session: %w", err)
	}

	asker := answer.New(client, cfg.Model, sess.repoName, sess.repoURL, answer.RepoStats{
		FileTypeCounts: sess.stats.FileTypeCounts,
		FileNames:      sess.stats.LoadedFiles,
	})
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("\n%sAsk a question about the repository (type 'exit()' to quit): %s", colorWhite, colorReset)
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit()") {
			return nil
		}

		fmt.Println("Thinking...")
		results, err := sess.engine.Search(ctx, question, cfg.TopK)
		if err != nil {
			return err
		}

		exchanges, err := store.RecentExchanges(ctx, historyID, cfg.HistoryContext)
		if err != nil {
			log.Printf("failed to load conversation history: %v", err)
		}

		text, err := asker.Ask(ctx, question, results, history.FormatHistory(exchanges))
		if err != nil {
			log.Printf("answer generation failed: %v", err)
			continue
		}

		fmt.Printf("%s\nANSWER\n%s%s\n", colorGreen, text, colorReset)

		if err := store.AppendExchange(ctx, historyID, answer.FormatQuestion(question), text); err != nil {
			log.Printf("failed to record exchange: %v", err)
		}
	}
}

// chatSession holds the indexed repository for one CLI run.
type chatSession struct {
	engine   *searcher.Engine
	stats    *loader.BuildStats
	repoName string
	repoURL  string
	cleanup  func()
}

// openSession clones source if it is a remote URL, builds the corpus and
// the retrieval engine.
func openSession(ctx context.Context, source string) (*chatSession, error) {
	root := source
	repoURL := ""
	cleanup := func() {}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "git@") {
		dir, err := os.MkdirTemp("", "repoqa-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create clone directory: %w", err)
		}
		fmt.Println("Cloning the repository...")
		if err := loader.CloneRepository(ctx, source, dir); err != nil {
			_ = os.RemoveAll(dir)
			return nil, err
		}
		root = dir
		repoURL = source
		cleanup = func() { _ = os.RemoveAll(dir) }
	}

	fmt.Println("Indexing files...")
	l := loader.New(&loader.Config{Workers: cfg.Workers})
	corpus, stats, err := l.Build(ctx, root)
	if err != nil {
		cleanup()
		return nil, err
	}
	if len(corpus) == 0 {
		cleanup()
		return nil, fmt.Errorf("no documents were found to index in %s", source)
	}
	log.Printf("indexed %d files into %d passages", stats.FilesLoaded, stats.Passages)

	return &chatSession{
		engine:   searcher.New(corpus, &searcher.Config{CacheSize: cfg.CacheSize}),
		stats:    stats,
		repoName: repoDisplayName(source),
		repoURL:  repoURL,
		cleanup:  cleanup,
	}, nil
}

func repoDisplayName(source string) string {
	name := strings.TrimSuffix(strings.TrimRight(source, "/"), ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "repository"
	}
	return name
}
