// Package loader acquires a repository and turns its files into an ordered
// passage corpus.
//
// Discovery iterates a fixed extension list and, within each extension,
// files in sorted path order, so the corpus ordering is deterministic for a
// given tree. Individual files that fail to read or chunk are logged and
// skipped; a partial corpus is still usable.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/repoqa/repoqa/internal/chunker"
	"github.com/repoqa/repoqa/pkg/types"
)

// Extensions is the fixed list of file types considered for indexing, in
// iteration order. Corpus ordering follows this list.
var Extensions = []string{
	"txt", "md", "markdown", "rst", "py", "js", "java", "c", "cpp", "cs",
	"go", "rb", "php", "scala", "html", "htm", "xml", "json", "yaml", "yml",
	"ini", "toml", "cfg", "conf", "sh", "bash", "css", "scss", "sql",
	"gitignore", "dockerignore", "editorconfig", "ipynb",
}

// CloneRepository clones a git repository into dest.
func CloneRepository(ctx context.Context, url, dest string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", url, dest)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to clone repository %s: %w", url, err)
	}
	return nil
}

// Config contains configuration for the corpus build.
type Config struct {
	ChunkSize    int // characters per passage (default: chunker.DefaultChunkSize)
	ChunkOverlap int // overlap between passages (default: chunker.DefaultChunkOverlap)
	Workers      int // concurrent file workers (default: runtime.NumCPU())
}

// BuildStats describes the outcome of one corpus build.
type BuildStats struct {
	FileTypeCounts map[string]int
	FilesLoaded    int
	LoadedFiles    []string // repo-relative, discovery order
	FailedFiles    []string
	Passages       int
}

// Loader builds corpora from repository trees.
type Loader struct {
	chunker *chunker.Chunker
	workers int
}

// New creates a Loader.
func New(cfg *Config) *Loader {
	if cfg == nil {
		cfg = &Config{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Loader{
		chunker: chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		workers: workers,
	}
}

// Build walks root, chunks every matching file and returns the corpus plus
// build statistics. Files that cannot be read or chunked are reported in
// the stats and skipped; Build fails only when the tree itself cannot be
// walked or the context is cancelled.
func (l *Loader) Build(ctx context.Context, root string) (types.Corpus, *BuildStats, error) {
	files, err := discoverFiles(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover files: %w", err)
	}

	stats := &BuildStats{FileTypeCounts: make(map[string]int)}

	// Files are read and chunked concurrently, but each file writes into
	// its own slot so the flattened corpus keeps discovery order.
	perFile := make([][]types.Passage, len(files))
	failed := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			passages, err := l.loadFile(root, file.path)
			if err != nil {
				failed[i] = err
				return nil
			}
			perFile[i] = passages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var corpus types.Corpus
	for i, file := range files {
		if failed[i] != nil {
			log.Printf("skipping %s: %v", file.path, failed[i])
			stats.FailedFiles = append(stats.FailedFiles, file.path)
			continue
		}
		stats.FileTypeCounts[file.ext]++
		stats.FilesLoaded++
		stats.LoadedFiles = append(stats.LoadedFiles, file.path)
		corpus = append(corpus, perFile[i]...)
	}
	stats.Passages = len(corpus)
	return corpus, stats, nil
}

// loadFile reads one file and splits it into passages. The document id is
// fresh per build; the source path is repo-relative and shared by every
// passage of the file.
func (l *Loader) loadFile(root, path string) ([]types.Passage, error) {
	content, err := os.ReadFile(filepath.Join(root, path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return l.chunker.Split(chunker.Document{
		ID:         uuid.NewString(),
		SourcePath: path,
		Text:       string(content),
	})
}

type discoveredFile struct {
	path string // repo-relative
	ext  string
}

// discoverFiles walks root once and returns matching files grouped in
// Extensions order, sorted by path within each extension.
func discoverFiles(root string) ([]discoveredFile, error) {
	byExt := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
		if ext == "" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		byExt[ext] = append(byExt[ext], rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var files []discoveredFile
	for _, ext := range Extensions {
		paths := byExt[ext]
		sort.Strings(paths)
		for _, p := range paths {
			files = append(files, discoveredFile{path: p, ext: ext})
		}
	}
	return files, nil
}
