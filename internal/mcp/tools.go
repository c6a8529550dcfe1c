package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/repoqa/repoqa/internal/answer"
	"github.com/repoqa/repoqa/internal/history"
	"github.com/repoqa/repoqa/internal/loader"
	"github.com/repoqa/repoqa/internal/searcher"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotIndexed    = -32001 // No repository indexed in this session
	ErrorCodeEmptyQuestion = -32002 // Question parameter is empty
	ErrorCodeNoAnswerer    = -32003 // Answer generation not configured
)

// handleIndexRepository handles the index_repository tool invocation
func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	source, ok := args["source"].(string)
	if !ok || source == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "source parameter is required", map[string]interface{}{
			"param":  "source",
			"reason": "missing or empty",
		})
	}

	root := source
	repoURL := ""
	var cleanup func()
	if isRemoteURL(source) {
		repoURL = source
		dir, err := os.MkdirTemp("", "repoqa-*")
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to create clone directory", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if err := loader.CloneRepository(ctx, source, dir); err != nil {
			_ = os.RemoveAll(dir)
			return nil, newMCPError(ErrorCodeInternalError, "clone failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		root = dir
		cleanup = func() { _ = os.RemoveAll(dir) }
	} else if err := validateRoot(root); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid source path", map[string]interface{}{
			"param":  "source",
			"reason": err.Error(),
		})
	}

	corpus, stats, err := s.loader.Build(ctx, root)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, newMCPError(ErrorCodeInternalError, "corpus build failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	repoName := repositoryName(source)
	sess := &session{
		engine:   searcher.New(corpus, &searcher.Config{CacheSize: s.cfg.CacheSize}),
		stats:    stats,
		repoName: repoName,
		repoURL:  repoURL,
		root:     root,
		cleanup:  cleanup,
	}
	if s.client != nil {
		sess.asker = answer.New(s.client, s.cfg.Model, repoName, repoURL, answer.RepoStats{
			FileTypeCounts: stats.FileTypeCounts,
			FileNames:      stats.LoadedFiles,
		})
	}
	if id, err := s.store.CreateSession(ctx, repoName, repoURL); err != nil {
		// History is supporting context, not a reason to fail indexing.
		log.Printf("failed to create history session: %v", err)
	} else {
		sess.historyID = id
	}
	s.setSession(sess)

	response := map[string]interface{}{
		"indexed":          true,
		"repository":       repoName,
		"files_loaded":     stats.FilesLoaded,
		"files_failed":     len(stats.FailedFiles),
		"passages":         stats.Passages,
		"file_type_counts": stats.FileTypeCounts,
	}
	if len(stats.FailedFiles) > 0 {
		failed := stats.FailedFiles
		if len(failed) > 5 {
			failed = failed[:5]
		}
		response["failed_files"] = failed
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleQueryRepository handles the query_repository tool invocation
func (s *Server) handleQueryRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	question, ok := args["question"].(string)
	if !ok || strings.TrimSpace(question) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuestion, "question parameter is required and cannot be empty", map[string]interface{}{
			"param":  "question",
			"reason": "missing or empty",
		})
	}

	topK := getIntDefault(args, "top_k", s.cfg.TopK)
	if topK < 1 || topK > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 100", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}
	generate := getBoolDefault(args, "generate_answer", true)

	sess := s.currentSession()
	if sess == nil {
		return nil, newMCPError(ErrorCodeNotIndexed, "no repository indexed; call index_repository first", nil)
	}

	results, err := sess.engine.Search(ctx, question, topK)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	passages := make([]map[string]interface{}, len(results))
	for i, r := range results {
		passages[i] = map[string]interface{}{
			"rank":   r.Rank,
			"score":  r.Score,
			"source": r.Passage.SourcePath,
			"text":   r.Passage.Text,
		}
	}
	response := map[string]interface{}{
		"repository": sess.repoName,
		"question":   answer.FormatQuestion(question),
		"passages":   passages,
	}

	if generate {
		if sess.asker == nil {
			return nil, newMCPError(ErrorCodeNoAnswerer, "answer generation not configured; set OPENAI_API_KEY or pass generate_answer=false", nil)
		}
		conversation := ""
		if sess.historyID != 0 {
			exchanges, err := s.store.RecentExchanges(ctx, sess.historyID, s.cfg.HistoryContext)
			if err != nil {
				log.Printf("failed to load conversation history: %v", err)
			} else {
				conversation = history.FormatHistory(exchanges)
			}
		}
		text, err := sess.asker.Ask(ctx, question, results, conversation)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "answer generation failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		response["answer"] = text
		if sess.historyID != 0 {
			if err := s.store.AppendExchange(ctx, sess.historyID, answer.FormatQuestion(question), text); err != nil {
				log.Printf("failed to record exchange: %v", err)
			}
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRetrievalStatus handles the retrieval_status tool invocation
func (s *Server) handleRetrievalStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.currentSession()
	if sess == nil {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"indexed": false,
			"message": "No repository indexed. Use index_repository to index one.",
		})), nil
	}

	response := map[string]interface{}{
		"indexed": true,
		"repository": map[string]interface{}{
			"name": sess.repoName,
			"url":  sess.repoURL,
			"root": sess.root,
		},
		"statistics": map[string]interface{}{
			"files_loaded":     sess.stats.FilesLoaded,
			"files_failed":     len(sess.stats.FailedFiles),
			"passages":         sess.stats.Passages,
			"file_type_counts": sess.stats.FileTypeCounts,
		},
		"answering_enabled": sess.asker != nil,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// isRemoteURL reports whether source names a remote repository rather than
// a local directory.
func isRemoteURL(source string) bool {
	return strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(source, "git@")
}

// repositoryName derives a display name from a URL or path.
func repositoryName(source string) string {
	name := strings.TrimSuffix(filepath.Base(source), ".git")
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "repository"
	}
	return name
}

// validateRoot checks that a local source path is a readable directory.
func validateRoot(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist")
	}
	if err != nil {
		return fmt.Errorf("path is not readable")
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory")
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}
