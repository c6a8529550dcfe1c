package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/repoqa/repoqa/internal/answer"
	"github.com/repoqa/repoqa/internal/config"
	"github.com/repoqa/repoqa/internal/history"
	"github.com/repoqa/repoqa/internal/loader"
	"github.com/repoqa/repoqa/internal/searcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "repoqa"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// session is the mutable per-repository state behind the tools. The engine
// and corpus stats are replaced wholesale on re-index; the engine itself is
// immutable and safe for concurrent queries.
type session struct {
	engine    *searcher.Engine
	stats     *loader.BuildStats
	asker     *answer.Asker // nil when no API key is configured
	repoName  string
	repoURL   string
	root      string
	historyID int64
	cleanup   func() // removes the temp clone; nil for local sources
}

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp    *server.MCPServer
	cfg    *config.Config
	loader *loader.Loader
	store  *history.Store
	client answer.ChatClient // nil when no API key is configured

	mu      sync.RWMutex
	session *session
}

// NewServer creates a new MCP server instance. Answer generation is enabled
// only when the config carries an API key; retrieval works without one.
func NewServer(cfg *config.Config) (*Server, error) {
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		cfg:    cfg,
		loader: loader.New(&loader.Config{Workers: cfg.Workers}),
		store:  store,
	}

	if cfg.OpenAIAPIKey != "" {
		client, err := answer.NewOpenAIClient(cfg.OpenAIAPIKey)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		s.client = client
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	defer s.setSession(nil)
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools.
func (s *Server) registerTools() {
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(queryRepositoryTool(), s.handleQueryRepository)
	s.mcp.AddTool(retrievalStatusTool(), s.handleRetrievalStatus)
}

// currentSession returns the active session, or nil when nothing is indexed.
func (s *Server) currentSession() *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// setSession installs a freshly built session, releasing the temp clone of
// the one it replaces.
func (s *Server) setSession(sess *session) {
	s.mu.Lock()
	old := s.session
	s.session = sess
	s.mu.Unlock()

	if old != nil && old.cleanup != nil {
		old.cleanup()
	}
}
